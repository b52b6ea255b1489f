package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/listhaven/doclife-api/internal/dto"
	"github.com/listhaven/doclife-api/internal/models"
	"github.com/listhaven/doclife-api/internal/repository"
	appErrors "github.com/listhaven/doclife-api/pkg/errors"
	"github.com/listhaven/doclife-api/pkg/jobs"
)

type artifactStore interface {
	Create(ctx context.Context, artifact *models.Artifact) error
	GetByID(ctx context.Context, id string) (*models.Artifact, error)
	List(ctx context.Context, filter models.ArtifactFilter) ([]models.Artifact, error)
	UpdateApprovalState(ctx context.Context, params repository.UpdateApprovalParams) error
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type eventDispatcher interface {
	Enqueue(job jobs.Job) error
}

// ArtifactServiceConfig tunes lifecycle behaviour.
type ArtifactServiceConfig struct {
	ValidityMonths        int
	ExpiringSoonThreshold int
}

// ArtifactService owns the submission and approval workflow for legal
// artifacts. Decisions are terminal: renewal is a new artifact, never a
// reopening of an old one.
type ArtifactService struct {
	repo      artifactStore
	audit     auditLogger
	events    eventDispatcher
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ArtifactServiceConfig
}

// NewArtifactService constructs an ArtifactService.
func NewArtifactService(repo artifactStore, audit auditLogger, events eventDispatcher, validate *validator.Validate, logger *zap.Logger, cfg ArtifactServiceConfig) *ArtifactService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ValidityMonths <= 0 {
		cfg.ValidityMonths = 12
	}
	if cfg.ExpiringSoonThreshold <= 0 {
		cfg.ExpiringSoonThreshold = DefaultExpiringSoonThresholdDays
	}
	return &ArtifactService{repo: repo, audit: audit, events: events, validator: validate, logger: logger, cfg: cfg}
}

// Submit stores a new artifact in its initial state.
func (s *ArtifactService) Submit(ctx context.Context, req dto.SubmitArtifactRequest, actor *models.JWTClaims) (*models.Artifact, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid artifact payload")
	}
	if !req.Kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported artifact kind")
	}
	subject := strings.TrimSpace(req.SubjectName)
	if req.Kind == models.ArtifactKindConsent && subject == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "consent requires a subject name")
	}

	artifact := &models.Artifact{
		Kind:        req.Kind,
		OwnerID:     req.OwnerID,
		StorageRef:  req.StorageRef,
		SubjectName: optionalString(subject),
	}
	if contact := strings.TrimSpace(req.SubjectContact); contact != "" {
		artifact.SubjectContact = &contact
	}
	if err := s.repo.Create(ctx, artifact); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to store artifact")
	}

	s.emitAudit(ctx, actor, models.AuditActionArtifactSubmit, artifact, nil)
	return artifact, nil
}

// Decide applies a reviewer decision. Exactly one of two racing decisions
// on the same pending artifact succeeds; the loser receives Conflict.
func (s *ArtifactService) Decide(ctx context.Context, id string, req dto.DecideArtifactRequest, actor *models.JWTClaims, now time.Time) (*models.Artifact, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}
	artifact, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load artifact")
	}
	if artifact.Decided() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "this document was already decided")
	}
	if artifact.Kind == models.ArtifactKindPropertyDocument && req.Decision == models.ArtifactDecisionRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "property documents are verified, not rejected")
	}

	decidedAt := now.UTC()
	params := repository.UpdateApprovalParams{
		ID:        artifact.ID,
		DecidedBy: actor.UserID,
		DecidedAt: decidedAt,
	}
	if req.Decision == models.ArtifactDecisionApproved {
		params.NewState = artifact.Kind.ApprovedState()
		params.ApprovedAt = &decidedAt
		if artifact.Expires() {
			expiresAt := ExpiryFor(decidedAt, s.cfg.ValidityMonths)
			params.ExpiresAt = &expiresAt
		}
	} else {
		params.NewState = models.ApprovalStateRejected
	}

	if err := s.repo.UpdateApprovalState(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "this document was already decided")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to persist decision")
	}

	artifact.ApprovalState = params.NewState
	artifact.DecidedBy = &actor.UserID
	artifact.DecidedAt = &decidedAt
	artifact.ApprovedAt = params.ApprovedAt
	artifact.ExpiresAt = params.ExpiresAt

	event := models.EventArtifactRejected
	if req.Decision == models.ArtifactDecisionApproved {
		event = models.EventArtifactApproved
	}
	s.emitEvent(event, artifact)
	s.emitAudit(ctx, actor, models.AuditActionArtifactDecide, artifact, map[string]interface{}{
		"decision": req.Decision,
		"note":     req.Note,
	})
	return artifact, nil
}

// Withdraw lets the owner retract a still-pending artifact. Modeled as a
// transition to Rejected with the owner as the deciding principal.
func (s *ArtifactService) Withdraw(ctx context.Context, id string, actor *models.JWTClaims, now time.Time) (*models.Artifact, error) {
	artifact, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load artifact")
	}
	if artifact.OwnerID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	if artifact.Decided() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "only a pending document can be withdrawn")
	}

	decidedAt := now.UTC()
	params := repository.UpdateApprovalParams{
		ID:        artifact.ID,
		NewState:  models.ApprovalStateRejected,
		DecidedBy: actor.UserID,
		DecidedAt: decidedAt,
	}
	if err := s.repo.UpdateApprovalState(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "this document was already decided")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to withdraw artifact")
	}

	artifact.ApprovalState = models.ApprovalStateRejected
	artifact.DecidedBy = &actor.UserID
	artifact.DecidedAt = &decidedAt

	s.emitEvent(models.EventArtifactRejected, artifact)
	s.emitAudit(ctx, actor, models.AuditActionArtifactWithdraw, artifact, nil)
	return artifact, nil
}

// Renew submits a successor artifact for an approved one. The predecessor
// is left untouched and simply expires on its own schedule.
func (s *ArtifactService) Renew(ctx context.Context, id string, req dto.RenewArtifactRequest, actor *models.JWTClaims) (*models.Artifact, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid renewal payload")
	}
	previous, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load artifact")
	}
	if previous.ApprovalState != previous.Kind.ApprovedState() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "only an approved document can be renewed")
	}
	if previous.OwnerID != actor.UserID && actor.Role != models.RoleAdmin {
		return nil, appErrors.ErrForbidden
	}

	successor := &models.Artifact{
		Kind:               previous.Kind,
		OwnerID:            previous.OwnerID,
		SubjectName:        previous.SubjectName,
		SubjectContact:     previous.SubjectContact,
		StorageRef:         req.StorageRef,
		PreviousArtifactID: &previous.ID,
	}
	if err := s.repo.Create(ctx, successor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to store renewal artifact")
	}

	s.emitAudit(ctx, actor, models.AuditActionArtifactRenew, successor, map[string]interface{}{"previousArtifactId": previous.ID})
	return successor, nil
}

// Get returns a single artifact snapshot with its derived status.
func (s *ArtifactService) Get(ctx context.Context, id string, actor *models.JWTClaims, now time.Time) (*models.ArtifactSnapshot, error) {
	artifact, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load artifact")
	}
	if actor.Role != models.RoleAdmin && artifact.OwnerID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	snapshot := s.snapshot(artifact, now)
	return &snapshot, nil
}

// GetStatus reports the derived status of an artifact at the given time.
func (s *ArtifactService) GetStatus(ctx context.Context, id string, now time.Time) (*dto.ArtifactStatusResponse, error) {
	artifact, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load artifact")
	}
	evaluation := Evaluate(artifact, now, s.cfg.ExpiringSoonThreshold)
	return &dto.ArtifactStatusResponse{
		ArtifactID:          artifact.ID,
		Kind:                artifact.Kind,
		ApprovalState:       artifact.ApprovalState,
		Status:              evaluation.Status,
		DaysUntilExpiration: evaluation.DaysUntilExpiration,
		ExpiresAt:           artifact.ExpiresAt,
		EvaluatedAt:         now,
	}, nil
}

// List returns artifact snapshots for the query. Brokers and clients only
// ever see their own artifacts regardless of the requested owner.
func (s *ArtifactService) List(ctx context.Context, query dto.ArtifactQuery, actor *models.JWTClaims, now time.Time) ([]models.ArtifactSnapshot, error) {
	filter := models.ArtifactFilter{
		OwnerID:    query.OwnerID,
		Kind:       models.ArtifactKind(strings.ToUpper(query.Kind)),
		SubjectKey: query.Subject,
		Limit:      query.Limit,
		Offset:     query.Offset,
	}
	if query.Kind != "" && !filter.Kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported artifact kind")
	}
	if actor.Role != models.RoleAdmin {
		filter.OwnerID = actor.UserID
	}

	artifacts, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list artifacts")
	}
	snapshots := make([]models.ArtifactSnapshot, 0, len(artifacts))
	for i := range artifacts {
		snapshots = append(snapshots, s.snapshot(&artifacts[i], now))
	}
	return snapshots, nil
}

func (s *ArtifactService) snapshot(artifact *models.Artifact, now time.Time) models.ArtifactSnapshot {
	return models.ArtifactSnapshot{
		Artifact: *artifact,
		Derived:  Evaluate(artifact, now, s.cfg.ExpiringSoonThreshold),
	}
}

func (s *ArtifactService) emitEvent(event models.EventType, artifact *models.Artifact) {
	if s.events == nil {
		return
	}
	if err := s.events.Enqueue(jobs.Job{ID: artifact.ID, Type: string(event), Payload: artifact}); err != nil {
		s.logger.Warn("failed to dispatch lifecycle event", zap.String("event", string(event)), zap.Error(err))
	}
}

func (s *ArtifactService) emitAudit(ctx context.Context, actor *models.JWTClaims, action string, artifact *models.Artifact, details map[string]interface{}) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		Action:     action,
		Resource:   strings.ToLower(string(artifact.Kind)),
		ResourceID: &artifact.ID,
		IPAddress:  "system",
		UserAgent:  "artifact-service",
	}
	if actor != nil {
		log.UserID = &actor.UserID
	}
	if details != nil {
		log.NewValues, _ = json.Marshal(details)
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	v := strings.TrimSpace(value)
	return &v
}
