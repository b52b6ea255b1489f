package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listhaven/doclife-api/internal/models"
	appErrors "github.com/listhaven/doclife-api/pkg/errors"
)

type listingLinkStoreStub struct {
	mu    sync.Mutex
	links []models.ListingLink
	repo  *artifactRepoStub
}

func (s *listingLinkStoreStub) Create(ctx context.Context, link *models.ListingLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.links {
		if existing.ListingID == link.ListingID && existing.ConsentID == link.ConsentID {
			return nil
		}
	}
	s.links = append(s.links, *link)
	return nil
}

func (s *listingLinkStoreStub) Delete(ctx context.Context, listingID, consentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.links[:0]
	for _, link := range s.links {
		if link.ListingID == listingID && link.ConsentID == consentID {
			continue
		}
		kept = append(kept, link)
	}
	s.links = kept
	return nil
}

func (s *listingLinkStoreStub) CountByConsent(ctx context.Context, consentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, link := range s.links {
		if link.ConsentID == consentID {
			count++
		}
	}
	return count, nil
}

func (s *listingLinkStoreStub) ListConsentsForListing(ctx context.Context, listingID string) ([]models.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var consents []models.Artifact
	for _, link := range s.links {
		if link.ListingID != listingID {
			continue
		}
		if consent, err := s.repo.GetByID(ctx, link.ConsentID); err == nil {
			consents = append(consents, *consent)
		}
	}
	return consents, nil
}

func newLinkageFixture() (*LinkageService, *artifactRepoStub, *listingLinkStoreStub) {
	repo := newArtifactRepoStub()
	links := &listingLinkStoreStub{repo: repo}
	svc := NewLinkageService(links, repo, &auditStub{}, nil, ArtifactServiceConfig{})
	return svc, repo, links
}

func storedConsent(repo *artifactRepoStub, id string, state models.ApprovalState, expiresAt *time.Time) {
	subject := "Acme Trust"
	repo.items[id] = &models.Artifact{
		ID:            id,
		Kind:          models.ArtifactKindConsent,
		OwnerID:       "broker-1",
		SubjectName:   &subject,
		StorageRef:    "blobs/" + id + ".pdf",
		ApprovalState: state,
		ExpiresAt:     expiresAt,
	}
}

func TestLinkageServiceLinkActiveConsent(t *testing.T) {
	svc, repo, links := newLinkageFixture()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	expiresAt := now.AddDate(0, 6, 0)
	storedConsent(repo, "consent-1", models.ApprovalStateApproved, &expiresAt)

	link, err := svc.Link(context.Background(), "listing-1", "consent-1", brokerClaims("broker-1"), now)
	require.NoError(t, err)
	assert.Equal(t, "listing-1", link.ListingID)
	require.NotNil(t, link.LinkedBy)
	assert.Equal(t, "broker-1", *link.LinkedBy)
	assert.Len(t, links.links, 1)
}

func TestLinkageServiceLinkExpiredConsentRefused(t *testing.T) {
	svc, repo, _ := newLinkageFixture()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	expiresAt := now.AddDate(0, -1, 0)
	storedConsent(repo, "consent-1", models.ApprovalStateApproved, &expiresAt)

	_, err := svc.Link(context.Background(), "listing-1", "consent-1", brokerClaims("broker-1"), now)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidConsent.Code, appErrors.FromError(err).Code)
}

func TestLinkageServiceLinkUndecidedConsentRefused(t *testing.T) {
	svc, repo, _ := newLinkageFixture()
	now := time.Now().UTC()
	storedConsent(repo, "consent-1", models.ApprovalStatePending, nil)

	_, err := svc.Link(context.Background(), "listing-1", "consent-1", brokerClaims("broker-1"), now)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidConsent.Code, appErrors.FromError(err).Code)
}

func TestLinkageServiceLinkRejectsNonConsentKind(t *testing.T) {
	svc, repo, _ := newLinkageFixture()
	repo.items["nda-1"] = &models.Artifact{
		ID:            "nda-1",
		Kind:          models.ArtifactKindNDA,
		OwnerID:       "broker-1",
		ApprovalState: models.ApprovalStateApproved,
	}

	_, err := svc.Link(context.Background(), "listing-1", "nda-1", brokerClaims("broker-1"), time.Now().UTC())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLinkageServiceLinkMissingConsent(t *testing.T) {
	svc, _, _ := newLinkageFixture()
	_, err := svc.Link(context.Background(), "listing-1", "missing", brokerClaims("broker-1"), time.Now().UTC())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestLinkageServiceEligibilityFollowsConsentDecay(t *testing.T) {
	svc, repo, _ := newLinkageFixture()
	linkTime := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	expiresAt := linkTime.AddDate(0, 2, 0)
	storedConsent(repo, "consent-1", models.ApprovalStateApproved, &expiresAt)

	_, err := svc.Link(context.Background(), "listing-1", "consent-1", brokerClaims("broker-1"), linkTime)
	require.NoError(t, err)

	eligible, err := svc.IsListingEligible(context.Background(), "listing-1", linkTime)
	require.NoError(t, err)
	assert.True(t, eligible.Eligible)

	// The link survives expiry but stops qualifying the listing.
	after, err := svc.IsListingEligible(context.Background(), "listing-1", expiresAt.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.False(t, after.Eligible)

	usage, err := svc.CountLinks(context.Background(), "consent-1")
	require.NoError(t, err)
	assert.Equal(t, 1, usage.Listings)
}

func TestLinkageServiceEligibleWithOneLiveConsent(t *testing.T) {
	svc, repo, _ := newLinkageFixture()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	expired := now.AddDate(0, -1, 0)
	live := now.AddDate(0, 6, 0)
	storedConsent(repo, "consent-expired", models.ApprovalStateApproved, &expired)
	storedConsent(repo, "consent-live", models.ApprovalStateApproved, &live)

	// Attach the expired consent back when it was still valid.
	_, err := svc.Link(context.Background(), "listing-1", "consent-expired", brokerClaims("broker-1"), now.AddDate(0, -3, 0))
	require.NoError(t, err)
	_, err = svc.Link(context.Background(), "listing-1", "consent-live", brokerClaims("broker-1"), now)
	require.NoError(t, err)

	eligible, err := svc.IsListingEligible(context.Background(), "listing-1", now)
	require.NoError(t, err)
	assert.True(t, eligible.Eligible)
}

func TestLinkageServiceUnlink(t *testing.T) {
	svc, repo, links := newLinkageFixture()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	expiresAt := now.AddDate(0, 6, 0)
	storedConsent(repo, "consent-1", models.ApprovalStateApproved, &expiresAt)

	_, err := svc.Link(context.Background(), "listing-1", "consent-1", brokerClaims("broker-1"), now)
	require.NoError(t, err)

	require.NoError(t, svc.Unlink(context.Background(), "listing-1", "consent-1", brokerClaims("broker-1")))
	assert.Empty(t, links.links)

	eligible, err := svc.IsListingEligible(context.Background(), "listing-1", now)
	require.NoError(t, err)
	assert.False(t, eligible.Eligible)
}
