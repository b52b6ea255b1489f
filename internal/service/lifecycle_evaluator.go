package service

import (
	"math"
	"time"

	"github.com/listhaven/doclife-api/internal/models"
)

// DefaultExpiringSoonThresholdDays is the renewal-window width applied when
// the caller passes a non-positive threshold.
const DefaultExpiringSoonThresholdDays = 30

// Evaluate computes the derived status of an artifact against a reference
// clock. It is a pure function: no I/O, no shared state, safe to call
// concurrently. Malformed records are a repository concern; any artifact
// this receives evaluates to some status.
//
// An artifact whose expiry equals now is already expired (the boundary is
// inclusive-expired), and days remaining is never reported negative.
func Evaluate(artifact *models.Artifact, now time.Time, thresholdDays int) models.Evaluation {
	if thresholdDays <= 0 {
		thresholdDays = DefaultExpiringSoonThresholdDays
	}

	switch artifact.ApprovalState {
	case models.ApprovalStatePending, models.ApprovalStatePendingReview:
		return models.Evaluation{Status: models.DerivedStatusPending}
	case models.ApprovalStateRejected:
		return models.Evaluation{Status: models.DerivedStatusRejected}
	}

	// Property documents and anything else without an expiry carry no time
	// logic; their review state is reported as-is on the snapshot.
	if artifact.ExpiresAt == nil {
		return models.Evaluation{Status: models.DerivedStatusNotApplicable}
	}

	remaining := artifact.ExpiresAt.Sub(now)
	if remaining <= 0 {
		zero := 0
		return models.Evaluation{Status: models.DerivedStatusExpired, DaysUntilExpiration: &zero}
	}

	days := int(math.Ceil(remaining.Hours() / 24))
	if days <= thresholdDays {
		return models.Evaluation{Status: models.DerivedStatusExpiringSoon, DaysUntilExpiration: &days}
	}
	return models.Evaluation{Status: models.DerivedStatusActive, DaysUntilExpiration: &days}
}

// ExpiryFor derives the immutable expiry stamped at approval time.
func ExpiryFor(approvedAt time.Time, validityMonths int) time.Time {
	if validityMonths <= 0 {
		validityMonths = 12
	}
	return approvedAt.AddDate(0, validityMonths, 0)
}

// Linkable reports whether a consent may be newly attached to a listing.
// Expired, pending and rejected consents are not linkable; existing links
// to a since-expired consent are kept for history.
func Linkable(status models.DerivedStatus) bool {
	return status == models.DerivedStatusActive || status == models.DerivedStatusExpiringSoon
}
