package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listhaven/doclife-api/internal/models"
)

func newArtifactRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func artifactRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "kind", "owner_id", "subject_name", "subject_contact", "storage_ref", "approval_state",
		"decided_by", "decided_at", "approved_at", "expires_at", "renewal_notified_at", "previous_artifact_id", "created_at",
	})
}

func TestArtifactRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newArtifactRepoMock(t)
	defer cleanup()

	repo := NewArtifactRepository(db)
	mock.ExpectExec("INSERT INTO artifacts").
		WillReturnResult(sqlmock.NewResult(1, 1))

	subject := "Acme Trust"
	artifact := &models.Artifact{
		Kind:        models.ArtifactKindConsent,
		OwnerID:     "broker-1",
		SubjectName: &subject,
		StorageRef:  "blobs/consent-1.pdf",
	}
	require.NoError(t, repo.Create(context.Background(), artifact))
	assert.NotEmpty(t, artifact.ID)
	assert.Equal(t, models.ApprovalStatePending, artifact.ApprovalState)
	assert.False(t, artifact.CreatedAt.IsZero())
}

func TestArtifactRepositoryCreatePropertyDocumentInitialState(t *testing.T) {
	db, mock, cleanup := newArtifactRepoMock(t)
	defer cleanup()

	repo := NewArtifactRepository(db)
	mock.ExpectExec("INSERT INTO artifacts").
		WillReturnResult(sqlmock.NewResult(1, 1))

	artifact := &models.Artifact{
		Kind:       models.ArtifactKindPropertyDocument,
		OwnerID:    "broker-1",
		StorageRef: "blobs/deed-1.pdf",
	}
	require.NoError(t, repo.Create(context.Background(), artifact))
	assert.Equal(t, models.ApprovalStatePendingReview, artifact.ApprovalState)
}

func TestArtifactRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newArtifactRepoMock(t)
	defer cleanup()

	repo := NewArtifactRepository(db)
	rows := artifactRows().
		AddRow("a-1", "CONSENT", "broker-1", "Acme Trust", nil, "blobs/consent-1.pdf", "PENDING",
			nil, nil, nil, nil, nil, nil, time.Now())
	mock.ExpectQuery("SELECT id, kind, owner_id").
		WithArgs("a-1").
		WillReturnRows(rows)

	artifact, err := repo.GetByID(context.Background(), "a-1")
	require.NoError(t, err)
	assert.Equal(t, models.ArtifactKindConsent, artifact.Kind)
	assert.Equal(t, models.ApprovalStatePending, artifact.ApprovalState)
}

func TestArtifactRepositoryListByOwnerAndKind(t *testing.T) {
	db, mock, cleanup := newArtifactRepoMock(t)
	defer cleanup()

	repo := NewArtifactRepository(db)
	rows := artifactRows().
		AddRow("a-1", "CONSENT", "broker-1", "Acme Trust", nil, "blobs/consent-1.pdf", "APPROVED",
			"admin-1", time.Now(), time.Now(), time.Now().AddDate(1, 0, 0), nil, nil, time.Now())
	mock.ExpectQuery("SELECT id, kind, owner_id").
		WithArgs("broker-1", "CONSENT").
		WillReturnRows(rows)

	result, err := repo.List(context.Background(), models.ArtifactFilter{OwnerID: "broker-1", Kind: models.ArtifactKindConsent})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "a-1", result[0].ID)
}

func TestArtifactRepositoryUpdateApprovalStateCAS(t *testing.T) {
	db, mock, cleanup := newArtifactRepoMock(t)
	defer cleanup()

	repo := NewArtifactRepository(db)
	mock.ExpectExec("UPDATE artifacts").
		WillReturnResult(sqlmock.NewResult(0, 1))

	now := time.Now().UTC()
	expires := now.AddDate(1, 0, 0)
	err := repo.UpdateApprovalState(context.Background(), UpdateApprovalParams{
		ID:         "a-1",
		NewState:   models.ApprovalStateApproved,
		DecidedBy:  "admin-1",
		DecidedAt:  now,
		ApprovedAt: &now,
		ExpiresAt:  &expires,
	})
	require.NoError(t, err)
}

func TestArtifactRepositoryUpdateApprovalStateAlreadyDecided(t *testing.T) {
	db, mock, cleanup := newArtifactRepoMock(t)
	defer cleanup()

	repo := NewArtifactRepository(db)
	mock.ExpectExec("UPDATE artifacts").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateApprovalState(context.Background(), UpdateApprovalParams{
		ID:        "a-1",
		NewState:  models.ApprovalStateRejected,
		DecidedBy: "admin-1",
		DecidedAt: time.Now().UTC(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestArtifactRepositoryClaimRenewalNotice(t *testing.T) {
	db, mock, cleanup := newArtifactRepoMock(t)
	defer cleanup()

	repo := NewArtifactRepository(db)
	mock.ExpectExec("UPDATE artifacts SET renewal_notified_at").
		WithArgs("a-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE artifacts SET renewal_notified_at").
		WithArgs("a-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	claimed, err := repo.ClaimRenewalNotice(context.Background(), "a-1", time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repo.ClaimRenewalNotice(context.Background(), "a-1", time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, claimed)
}
