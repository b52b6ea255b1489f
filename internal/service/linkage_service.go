package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/listhaven/doclife-api/internal/models"
	appErrors "github.com/listhaven/doclife-api/pkg/errors"
)

type listingLinkStore interface {
	Create(ctx context.Context, link *models.ListingLink) error
	Delete(ctx context.Context, listingID, consentID string) error
	CountByConsent(ctx context.Context, consentID string) (int, error)
	ListConsentsForListing(ctx context.Context, listingID string) ([]models.Artifact, error)
}

type consentReader interface {
	GetByID(ctx context.Context, id string) (*models.Artifact, error)
}

// LinkageService maintains the many-to-many relation between listings and
// the consents they rely on, and answers the publication-eligibility gate.
// It only reads artifacts; approval state is owned by the workflow.
type LinkageService struct {
	links    listingLinkStore
	consents consentReader
	audit    auditLogger
	logger   *zap.Logger
	cfg      ArtifactServiceConfig
}

// NewLinkageService constructs a LinkageService.
func NewLinkageService(links listingLinkStore, consents consentReader, audit auditLogger, logger *zap.Logger, cfg ArtifactServiceConfig) *LinkageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ExpiringSoonThreshold <= 0 {
		cfg.ExpiringSoonThreshold = DefaultExpiringSoonThresholdDays
	}
	return &LinkageService{links: links, consents: consents, audit: audit, logger: logger, cfg: cfg}
}

// Link attaches a consent to a listing. Only a consent that currently
// evaluates to Active or ExpiringSoon may be newly attached; expired or
// undecided consents are refused.
func (s *LinkageService) Link(ctx context.Context, listingID, consentID string, actor *models.JWTClaims, now time.Time) (*models.ListingLink, error) {
	consent, err := s.consents.GetByID(ctx, consentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load consent")
	}
	if consent.Kind != models.ArtifactKindConsent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "listings can only be linked to consent artifacts")
	}
	evaluation := Evaluate(consent, now, s.cfg.ExpiringSoonThreshold)
	if !Linkable(evaluation.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidConsent, "this consent can no longer be used for new listings")
	}

	link := &models.ListingLink{
		ListingID: listingID,
		ConsentID: consentID,
		LinkedAt:  now.UTC(),
	}
	if actor != nil {
		link.LinkedBy = &actor.UserID
	}
	if err := s.links.Create(ctx, link); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to create listing link")
	}

	s.emitAudit(ctx, actor, models.AuditActionListingLink, listingID, consentID)
	return link, nil
}

// Unlink detaches a consent from a listing.
func (s *LinkageService) Unlink(ctx context.Context, listingID, consentID string, actor *models.JWTClaims) error {
	if err := s.links.Delete(ctx, listingID, consentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to delete listing link")
	}
	s.emitAudit(ctx, actor, models.AuditActionListingUnlink, listingID, consentID)
	return nil
}

// CountLinks reports how many listings rely on the consent. Informational
// only; no invariant depends on it.
func (s *LinkageService) CountLinks(ctx context.Context, consentID string) (*models.ConsentUsage, error) {
	count, err := s.links.CountByConsent(ctx, consentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to count listing links")
	}
	return &models.ConsentUsage{ConsentID: consentID, Listings: count}, nil
}

// IsListingEligible answers the publication gate: true iff at least one
// linked consent evaluates to Active or ExpiringSoon at the given time.
// Links to since-expired consents stay in place but no longer qualify.
func (s *LinkageService) IsListingEligible(ctx context.Context, listingID string, now time.Time) (*models.ListingEligibility, error) {
	consents, err := s.links.ListConsentsForListing(ctx, listingID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load listing consents")
	}
	eligibility := &models.ListingEligibility{ListingID: listingID, CheckedAt: now.UTC()}
	for i := range consents {
		if Linkable(Evaluate(&consents[i], now, s.cfg.ExpiringSoonThreshold).Status) {
			eligibility.Eligible = true
			break
		}
	}
	return eligibility, nil
}

func (s *LinkageService) emitAudit(ctx context.Context, actor *models.JWTClaims, action, listingID, consentID string) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(map[string]string{"listingId": listingID, "consentId": consentID})
	log := &models.AuditLog{
		Action:     action,
		Resource:   "listing",
		ResourceID: &listingID,
		NewValues:  payload,
		IPAddress:  "system",
		UserAgent:  "linkage-service",
	}
	if actor != nil {
		log.UserID = &actor.UserID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
