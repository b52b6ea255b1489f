package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listhaven/doclife-api/internal/models"
)

func TestListingLinkRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newArtifactRepoMock(t)
	defer cleanup()

	repo := NewListingLinkRepository(db)
	mock.ExpectExec("INSERT INTO listing_links").
		WillReturnResult(sqlmock.NewResult(1, 1))

	link := &models.ListingLink{ListingID: "listing-1", ConsentID: "consent-1"}
	require.NoError(t, repo.Create(context.Background(), link))
	assert.False(t, link.LinkedAt.IsZero())
}

func TestListingLinkRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newArtifactRepoMock(t)
	defer cleanup()

	repo := NewListingLinkRepository(db)
	mock.ExpectExec("DELETE FROM listing_links").
		WithArgs("listing-1", "consent-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "listing-1", "consent-1"))
}

func TestListingLinkRepositoryCountByConsent(t *testing.T) {
	db, mock, cleanup := newArtifactRepoMock(t)
	defer cleanup()

	repo := NewListingLinkRepository(db)
	rows := sqlmock.NewRows([]string{"count"}).AddRow(3)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("consent-1").
		WillReturnRows(rows)

	count, err := repo.CountByConsent(context.Background(), "consent-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestListingLinkRepositoryListConsentsForListing(t *testing.T) {
	db, mock, cleanup := newArtifactRepoMock(t)
	defer cleanup()

	repo := NewListingLinkRepository(db)
	rows := artifactRows().
		AddRow("consent-1", "CONSENT", "broker-1", "Acme Trust", nil, "blobs/consent-1.pdf", "APPROVED",
			"admin-1", time.Now(), time.Now(), time.Now().AddDate(1, 0, 0), nil, nil, time.Now())
	mock.ExpectQuery("SELECT a.id, a.kind").
		WithArgs("listing-1").
		WillReturnRows(rows)

	consents, err := repo.ListConsentsForListing(context.Background(), "listing-1")
	require.NoError(t, err)
	require.Len(t, consents, 1)
	assert.Equal(t, "consent-1", consents[0].ID)
}
