package models

import "time"

// ArtifactKind enumerates the legal artifact categories handled by the engine.
type ArtifactKind string

const (
	ArtifactKindNDA              ArtifactKind = "NDA"
	ArtifactKindConsent          ArtifactKind = "CONSENT"
	ArtifactKindPropertyDocument ArtifactKind = "PROPERTY_DOCUMENT"
)

// ApprovalState captures the persisted workflow state of an artifact.
// NDAs and consents move PENDING -> APPROVED|REJECTED (terminal).
// Property documents move PENDING_REVIEW -> VERIFIED and never expire.
type ApprovalState string

const (
	ApprovalStatePending       ApprovalState = "PENDING"
	ApprovalStateApproved      ApprovalState = "APPROVED"
	ApprovalStateRejected      ApprovalState = "REJECTED"
	ApprovalStatePendingReview ApprovalState = "PENDING_REVIEW"
	ApprovalStateVerified      ApprovalState = "VERIFIED"
)

// DerivedStatus is the time-sensitive status of an artifact, recomputed on
// read and never persisted.
type DerivedStatus string

const (
	DerivedStatusPending       DerivedStatus = "PENDING"
	DerivedStatusRejected      DerivedStatus = "REJECTED"
	DerivedStatusActive        DerivedStatus = "ACTIVE"
	DerivedStatusExpiringSoon  DerivedStatus = "EXPIRING_SOON"
	DerivedStatusExpired       DerivedStatus = "EXPIRED"
	DerivedStatusNotApplicable DerivedStatus = "NOT_APPLICABLE"
)

// ArtifactDecision enumerates reviewer outcomes.
type ArtifactDecision string

const (
	ArtifactDecisionApproved ArtifactDecision = "APPROVED"
	ArtifactDecisionRejected ArtifactDecision = "REJECTED"
)

// Artifact represents a stored legal artifact (NDA, consent-to-list or
// property document). The binary content lives in the blob store and is
// referenced opaquely through StorageRef.
type Artifact struct {
	ID                 string        `db:"id" json:"id"`
	Kind               ArtifactKind  `db:"kind" json:"kind"`
	OwnerID            string        `db:"owner_id" json:"ownerId"`
	SubjectName        *string       `db:"subject_name" json:"subjectName,omitempty"`
	SubjectContact     *string       `db:"subject_contact" json:"subjectContact,omitempty"`
	StorageRef         string        `db:"storage_ref" json:"storageRef"`
	ApprovalState      ApprovalState `db:"approval_state" json:"approvalState"`
	DecidedBy          *string       `db:"decided_by" json:"decidedBy,omitempty"`
	DecidedAt          *time.Time    `db:"decided_at" json:"decidedAt,omitempty"`
	ApprovedAt         *time.Time    `db:"approved_at" json:"approvedAt,omitempty"`
	ExpiresAt          *time.Time    `db:"expires_at" json:"expiresAt,omitempty"`
	RenewalNotifiedAt  *time.Time    `db:"renewal_notified_at" json:"renewalNotifiedAt,omitempty"`
	PreviousArtifactID *string       `db:"previous_artifact_id" json:"previousArtifactId,omitempty"`
	CreatedAt          time.Time     `db:"created_at" json:"createdAt"`
}

// Expires reports whether the artifact kind carries an expiry at all.
func (a *Artifact) Expires() bool {
	return a.Kind != ArtifactKindPropertyDocument
}

// Decided reports whether the artifact has left its initial state.
func (a *Artifact) Decided() bool {
	return a.ApprovalState != ApprovalStatePending && a.ApprovalState != ApprovalStatePendingReview
}

// InitialState returns the submission state for a kind.
func (k ArtifactKind) InitialState() ApprovalState {
	if k == ArtifactKindPropertyDocument {
		return ApprovalStatePendingReview
	}
	return ApprovalStatePending
}

// ApprovedState returns the terminal positive state for a kind.
func (k ArtifactKind) ApprovedState() ApprovalState {
	if k == ArtifactKindPropertyDocument {
		return ApprovalStateVerified
	}
	return ApprovalStateApproved
}

// Valid reports whether the kind is one of the supported artifact kinds.
func (k ArtifactKind) Valid() bool {
	switch k {
	case ArtifactKindNDA, ArtifactKindConsent, ArtifactKindPropertyDocument:
		return true
	}
	return false
}

// ArtifactFilter constrains artifact listing queries.
type ArtifactFilter struct {
	OwnerID    string
	Kind       ArtifactKind
	SubjectKey string
	Limit      int
	Offset     int
}

// Evaluation is the result of evaluating an artifact against a reference
// clock. DaysUntilExpiration is nil when the status carries no time logic.
type Evaluation struct {
	Status              DerivedStatus `json:"status"`
	DaysUntilExpiration *int          `json:"daysUntilExpiration,omitempty"`
}

// ArtifactSnapshot is an artifact together with its derived status, as
// returned to API consumers.
type ArtifactSnapshot struct {
	Artifact
	Derived Evaluation `json:"derived"`
}
