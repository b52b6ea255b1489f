package dto

import (
	"time"

	"github.com/listhaven/doclife-api/internal/models"
)

// SubmitArtifactRequest creates a new artifact in its initial state.
type SubmitArtifactRequest struct {
	Kind           models.ArtifactKind `json:"kind" validate:"required"`
	OwnerID        string              `json:"ownerId" validate:"required"`
	SubjectName    string              `json:"subjectName"`
	SubjectContact string              `json:"subjectContact"`
	StorageRef     string              `json:"storageRef" validate:"required"`
}

// DecideArtifactRequest records a reviewer decision.
type DecideArtifactRequest struct {
	Decision models.ArtifactDecision `json:"decision" validate:"required,oneof=APPROVED REJECTED"`
	Note     string                  `json:"note"`
}

// RenewArtifactRequest submits a successor artifact for an expiring one.
type RenewArtifactRequest struct {
	StorageRef string `json:"storageRef" validate:"required"`
}

// ArtifactQuery filters artifact listings.
type ArtifactQuery struct {
	OwnerID string `form:"ownerId" json:"ownerId"`
	Kind    string `form:"kind" json:"kind"`
	Subject string `form:"subject" json:"subject"`
	Limit   int    `form:"limit" json:"limit"`
	Offset  int    `form:"offset" json:"offset"`
}

// ArtifactStatusResponse reports the derived status of a single artifact.
type ArtifactStatusResponse struct {
	ArtifactID          string               `json:"artifactId"`
	Kind                models.ArtifactKind  `json:"kind"`
	ApprovalState       models.ApprovalState `json:"approvalState"`
	Status              models.DerivedStatus `json:"status"`
	DaysUntilExpiration *int                 `json:"daysUntilExpiration,omitempty"`
	ExpiresAt           *time.Time           `json:"expiresAt,omitempty"`
	EvaluatedAt         time.Time            `json:"evaluatedAt"`
}

// ArtifactContentResponse returns a signed download token for a blob.
type ArtifactContentResponse struct {
	ArtifactID string    `json:"artifactId"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expiresAt"`
}
