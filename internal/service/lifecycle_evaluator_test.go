package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listhaven/doclife-api/internal/models"
)

func approvedConsent(expiresAt time.Time) *models.Artifact {
	approvedAt := expiresAt.AddDate(-1, 0, 0)
	return &models.Artifact{
		ID:            "consent-1",
		Kind:          models.ArtifactKindConsent,
		OwnerID:       "broker-1",
		ApprovalState: models.ApprovalStateApproved,
		ApprovedAt:    &approvedAt,
		ExpiresAt:     &expiresAt,
	}
}

func TestEvaluatePendingAndRejectedNeverTimeBased(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(-2, 0, 0)

	pending := &models.Artifact{Kind: models.ArtifactKindConsent, ApprovalState: models.ApprovalStatePending, ExpiresAt: &past}
	inReview := &models.Artifact{Kind: models.ArtifactKindPropertyDocument, ApprovalState: models.ApprovalStatePendingReview}
	rejected := &models.Artifact{Kind: models.ArtifactKindNDA, ApprovalState: models.ApprovalStateRejected}

	assert.Equal(t, models.DerivedStatusPending, Evaluate(pending, now, 30).Status)
	assert.Equal(t, models.DerivedStatusPending, Evaluate(inReview, now, 30).Status)
	assert.Equal(t, models.DerivedStatusRejected, Evaluate(rejected, now, 30).Status)
}

func TestEvaluateNoExpiryIsNotApplicable(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	doc := &models.Artifact{Kind: models.ArtifactKindPropertyDocument, ApprovalState: models.ApprovalStateVerified}

	result := Evaluate(doc, now, 30)
	assert.Equal(t, models.DerivedStatusNotApplicable, result.Status)
	assert.Nil(t, result.DaysUntilExpiration)
}

func TestEvaluateExpiryBoundaryIsInclusiveExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// Expiring at exactly midnight on now's date is expired, not expiring-soon.
	atBoundary := Evaluate(approvedConsent(now), now, 30)
	require.Equal(t, models.DerivedStatusExpired, atBoundary.Status)
	require.NotNil(t, atBoundary.DaysUntilExpiration)
	assert.Equal(t, 0, *atBoundary.DaysUntilExpiration)

	// One second past expiry stays expired and never reports negative days.
	justPast := Evaluate(approvedConsent(now.Add(-time.Second)), now, 30)
	require.Equal(t, models.DerivedStatusExpired, justPast.Status)
	assert.Equal(t, 0, *justPast.DaysUntilExpiration)
}

func TestEvaluateThresholdBoundary(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	soon := Evaluate(approvedConsent(now.Add(30*24*time.Hour)), now, 30)
	require.Equal(t, models.DerivedStatusExpiringSoon, soon.Status)
	assert.Equal(t, 30, *soon.DaysUntilExpiration)

	active := Evaluate(approvedConsent(now.Add(30*24*time.Hour+time.Second)), now, 30)
	require.Equal(t, models.DerivedStatusActive, active.Status)
	assert.Equal(t, 31, *active.DaysUntilExpiration)
}

func TestEvaluateTwelveMonthValidityScenario(t *testing.T) {
	approvedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	expiresAt := ExpiryFor(approvedAt, 12)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), expiresAt)

	artifact := &models.Artifact{
		Kind:          models.ArtifactKindConsent,
		ApprovalState: models.ApprovalStateApproved,
		ApprovedAt:    &approvedAt,
		ExpiresAt:     &expiresAt,
	}

	result := Evaluate(artifact, time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC), 30)
	require.Equal(t, models.DerivedStatusExpiringSoon, result.Status)
	assert.Equal(t, 17, *result.DaysUntilExpiration)
}

func TestEvaluateMonotonicDecay(t *testing.T) {
	expiresAt := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	artifact := approvedConsent(expiresAt)

	now1 := expiresAt.Add(time.Minute)
	now2 := expiresAt.AddDate(0, 3, 0)

	require.Equal(t, models.DerivedStatusExpired, Evaluate(artifact, now1, 30).Status)
	assert.Equal(t, models.DerivedStatusExpired, Evaluate(artifact, now2, 30).Status)
}

func TestLinkable(t *testing.T) {
	assert.True(t, Linkable(models.DerivedStatusActive))
	assert.True(t, Linkable(models.DerivedStatusExpiringSoon))
	assert.False(t, Linkable(models.DerivedStatusExpired))
	assert.False(t, Linkable(models.DerivedStatusPending))
	assert.False(t, Linkable(models.DerivedStatusRejected))
	assert.False(t, Linkable(models.DerivedStatusNotApplicable))
}
