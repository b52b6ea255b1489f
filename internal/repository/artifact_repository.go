package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/listhaven/doclife-api/internal/models"
)

const artifactColumns = `id, kind, owner_id, subject_name, subject_contact, storage_ref, approval_state,
       decided_by, decided_at, approved_at, expires_at, renewal_notified_at, previous_artifact_id, created_at`

// ArtifactRepository persists legal artifacts. Artifacts are never
// hard-deleted; expired records stay around for audit purposes.
type ArtifactRepository struct {
	db *sqlx.DB
}

// NewArtifactRepository constructs the repository.
func NewArtifactRepository(db *sqlx.DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

// Create inserts a new artifact row in its initial state.
func (r *ArtifactRepository) Create(ctx context.Context, artifact *models.Artifact) error {
	if artifact.ID == "" {
		artifact.ID = uuid.NewString()
	}
	if artifact.ApprovalState == "" {
		artifact.ApprovalState = artifact.Kind.InitialState()
	}
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO artifacts
	(id, kind, owner_id, subject_name, subject_contact, storage_ref, approval_state,
	 decided_by, decided_at, approved_at, expires_at, renewal_notified_at, previous_artifact_id, created_at)
	VALUES (:id, :kind, :owner_id, :subject_name, :subject_contact, :storage_ref, :approval_state,
	 :decided_by, :decided_at, :approved_at, :expires_at, :renewal_notified_at, :previous_artifact_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, artifact); err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}
	return nil
}

// GetByID fetches an artifact by identifier.
func (r *ArtifactRepository) GetByID(ctx context.Context, id string) (*models.Artifact, error) {
	query := fmt.Sprintf(`SELECT %s FROM artifacts WHERE id = $1`, artifactColumns)
	var artifact models.Artifact
	if err := r.db.GetContext(ctx, &artifact, query, id); err != nil {
		return nil, err
	}
	return &artifact, nil
}

// List returns artifacts matching the filter (newest first).
func (r *ArtifactRepository) List(ctx context.Context, filter models.ArtifactFilter) ([]models.Artifact, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(fmt.Sprintf("SELECT %s FROM artifacts", artifactColumns))

	conditions := make([]string, 0, 3)
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)))
	}
	if filter.SubjectKey != "" {
		args = append(args, filter.SubjectKey)
		conditions = append(conditions, fmt.Sprintf("LOWER(subject_name) = LOWER($%d)", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var artifacts []models.Artifact
	if err := r.db.SelectContext(ctx, &artifacts, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	return artifacts, nil
}

// ListApprovedPage returns a page of approved, expiring artifacts for the
// renewal sweep, ordered by expiry so the most urgent come first.
func (r *ArtifactRepository) ListApprovedPage(ctx context.Context, limit, offset int) ([]models.Artifact, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT %s FROM artifacts
	WHERE approval_state = $1 AND expires_at IS NOT NULL
	ORDER BY expires_at ASC LIMIT $2 OFFSET $3`, artifactColumns)
	var artifacts []models.Artifact
	if err := r.db.SelectContext(ctx, &artifacts, query, models.ApprovalStateApproved, limit, offset); err != nil {
		return nil, fmt.Errorf("list approved artifacts: %w", err)
	}
	return artifacts, nil
}

// UpdateApprovalParams groups the columns stamped by a reviewer decision.
// ApprovedAt and ExpiresAt are set only on positive decisions.
type UpdateApprovalParams struct {
	ID         string
	NewState   models.ApprovalState
	DecidedBy  string
	DecidedAt  time.Time
	ApprovedAt *time.Time
	ExpiresAt  *time.Time
}

// UpdateApprovalState applies a decision with compare-and-set semantics:
// the row is only touched while still in its initial state, so two racing
// decisions can never both succeed. Returns sql.ErrNoRows for the loser.
func (r *ArtifactRepository) UpdateApprovalState(ctx context.Context, params UpdateApprovalParams) error {
	const query = `UPDATE artifacts
	SET approval_state = :approval_state, decided_by = :decided_by, decided_at = :decided_at,
	    approved_at = :approved_at, expires_at = :expires_at
	WHERE id = :id AND approval_state IN ('PENDING', 'PENDING_REVIEW')`
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":             params.ID,
		"approval_state": params.NewState,
		"decided_by":     params.DecidedBy,
		"decided_at":     params.DecidedAt,
		"approved_at":    params.ApprovedAt,
		"expires_at":     params.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("update artifact approval state: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check artifact update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ClaimRenewalNotice marks the artifact as notified for its current
// expiration window. The claim succeeds at most once per artifact: since
// expires_at is immutable, one claim covers the whole window. Returns
// false when another sweep already holds the claim.
func (r *ArtifactRepository) ClaimRenewalNotice(ctx context.Context, id string, notifiedAt time.Time) (bool, error) {
	const query = `UPDATE artifacts SET renewal_notified_at = $2
	WHERE id = $1 AND renewal_notified_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id, notifiedAt)
	if err != nil {
		return false, fmt.Errorf("claim renewal notice: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check renewal claim rows: %w", err)
	}
	return rows > 0, nil
}
