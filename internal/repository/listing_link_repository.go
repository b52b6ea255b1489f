package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/listhaven/doclife-api/internal/models"
)

// ListingLinkRepository persists the listing <-> consent relation.
type ListingLinkRepository struct {
	db *sqlx.DB
}

// NewListingLinkRepository constructs the repository.
func NewListingLinkRepository(db *sqlx.DB) *ListingLinkRepository {
	return &ListingLinkRepository{db: db}
}

// Create inserts a link row. Re-linking an existing pair is a no-op upsert
// that refreshes linked_at.
func (r *ListingLinkRepository) Create(ctx context.Context, link *models.ListingLink) error {
	if link.LinkedAt.IsZero() {
		link.LinkedAt = time.Now().UTC()
	}
	const query = `INSERT INTO listing_links (listing_id, consent_id, linked_at, linked_by)
	VALUES (:listing_id, :consent_id, :linked_at, :linked_by)
	ON CONFLICT (listing_id, consent_id)
	DO UPDATE SET linked_at = EXCLUDED.linked_at, linked_by = EXCLUDED.linked_by`
	if _, err := r.db.NamedExecContext(ctx, query, link); err != nil {
		return fmt.Errorf("create listing link: %w", err)
	}
	return nil
}

// Delete removes a link. Missing rows are not an error.
func (r *ListingLinkRepository) Delete(ctx context.Context, listingID, consentID string) error {
	const query = `DELETE FROM listing_links WHERE listing_id = $1 AND consent_id = $2`
	if _, err := r.db.ExecContext(ctx, query, listingID, consentID); err != nil {
		return fmt.Errorf("delete listing link: %w", err)
	}
	return nil
}

// CountByConsent returns how many listings rely on the consent.
func (r *ListingLinkRepository) CountByConsent(ctx context.Context, consentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM listing_links WHERE consent_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, consentID); err != nil {
		return 0, fmt.Errorf("count listing links: %w", err)
	}
	return count, nil
}

// ListConsentsForListing returns the consent artifacts linked to a listing.
func (r *ListingLinkRepository) ListConsentsForListing(ctx context.Context, listingID string) ([]models.Artifact, error) {
	query := fmt.Sprintf(`SELECT %s FROM artifacts a
	JOIN listing_links l ON l.consent_id = a.id
	WHERE l.listing_id = $1
	ORDER BY l.linked_at DESC`, prefixedArtifactColumns("a"))
	var artifacts []models.Artifact
	if err := r.db.SelectContext(ctx, &artifacts, query, listingID); err != nil {
		return nil, fmt.Errorf("list consents for listing: %w", err)
	}
	return artifacts, nil
}

func prefixedArtifactColumns(alias string) string {
	return fmt.Sprintf(`%[1]s.id, %[1]s.kind, %[1]s.owner_id, %[1]s.subject_name, %[1]s.subject_contact,
       %[1]s.storage_ref, %[1]s.approval_state, %[1]s.decided_by, %[1]s.decided_at, %[1]s.approved_at,
       %[1]s.expires_at, %[1]s.renewal_notified_at, %[1]s.previous_artifact_id, %[1]s.created_at`, alias)
}
