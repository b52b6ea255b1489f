package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/listhaven/doclife-api/internal/models"
	appErrors "github.com/listhaven/doclife-api/pkg/errors"
	"github.com/listhaven/doclife-api/pkg/jobs"
)

type sweepStore interface {
	ListApprovedPage(ctx context.Context, limit, offset int) ([]models.Artifact, error)
	ClaimRenewalNotice(ctx context.Context, id string, notifiedAt time.Time) (bool, error)
}

type sweepObserver interface {
	ObserveSweep(scanned, due, failed int, duration time.Duration)
}

// RenewalServiceConfig governs the periodic sweep.
type RenewalServiceConfig struct {
	SweepInterval         time.Duration
	PageSize              int
	ExpiringSoonThreshold int
}

// RenewalService periodically re-evaluates approved artifacts and raises a
// RenewalDue signal for each artifact that entered its renewal window.
// The signal is raised exactly once per window: the notice marker is
// claimed with compare-and-set before the event is dispatched, so
// re-running a sweep never duplicates notices.
type RenewalService struct {
	repo    sweepStore
	events  eventDispatcher
	audit   auditLogger
	metrics sweepObserver
	logger  *zap.Logger
	cfg     RenewalServiceConfig
}

// NewRenewalService constructs the renewal scheduler.
func NewRenewalService(repo sweepStore, events eventDispatcher, audit auditLogger, metrics sweepObserver, logger *zap.Logger, cfg RenewalServiceConfig) *RenewalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.ExpiringSoonThreshold <= 0 {
		cfg.ExpiringSoonThreshold = DefaultExpiringSoonThresholdDays
	}
	return &RenewalService{repo: repo, events: events, audit: audit, metrics: metrics, logger: logger, cfg: cfg}
}

// Start boots the sweep loop. It runs until the context is cancelled.
func (s *RenewalService) Start(ctx context.Context) {
	if s.cfg.SweepInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.SweepInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Sweep(ctx, time.Now().UTC()); err != nil {
					s.logger.Warn("renewal sweep failed", zap.Error(err))
				}
			}
		}
	}()
}

// Sweep scans all approved artifacts, evaluates each against now, and
// dispatches RenewalDue for newly expiring ones. A single artifact failing
// is recorded in the report and does not abort the rest of the sweep.
func (s *RenewalService) Sweep(ctx context.Context, now time.Time) (*models.SweepReport, error) {
	report := &models.SweepReport{StartedAt: now.UTC()}

	offset := 0
	for {
		page, err := s.repo.ListApprovedPage(ctx, s.cfg.PageSize, offset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list approved artifacts")
		}
		if len(page) == 0 {
			break
		}
		for i := range page {
			report.Scanned++
			due, err := s.processArtifact(ctx, &page[i], now)
			if err != nil {
				report.Failures = append(report.Failures, models.SweepError{
					ArtifactID: page[i].ID,
					Reason:     err.Error(),
				})
				continue
			}
			if due {
				report.Due++
			}
		}
		if len(page) < s.cfg.PageSize {
			break
		}
		offset += s.cfg.PageSize
	}

	report.FinishedAt = time.Now().UTC()
	duration := report.FinishedAt.Sub(report.StartedAt)
	if s.metrics != nil {
		s.metrics.ObserveSweep(report.Scanned, report.Due, len(report.Failures), duration)
	}
	s.logger.Sugar().Infow("renewal sweep finished",
		"scanned", report.Scanned,
		"due", report.Due,
		"failed", len(report.Failures),
		"duration", duration,
	)
	if s.audit != nil {
		payload, _ := json.Marshal(report)
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			Action:    models.AuditActionRenewalSweep,
			Resource:  "artifact",
			NewValues: payload,
			IPAddress: "system",
			UserAgent: "renewal-service",
		}); err != nil {
			s.logger.Warn("failed to persist sweep audit log", zap.Error(err))
		}
	}
	return report, nil
}

// processArtifact evaluates one artifact and, when it sits in its renewal
// window and the notice is still unclaimed, dispatches RenewalDue. It
// reports whether a notice was raised for this artifact.
func (s *RenewalService) processArtifact(ctx context.Context, artifact *models.Artifact, now time.Time) (bool, error) {
	evaluation := Evaluate(artifact, now, s.cfg.ExpiringSoonThreshold)
	if evaluation.Status != models.DerivedStatusExpiringSoon {
		return false, nil
	}
	if artifact.RenewalNotifiedAt != nil {
		// Already notified for this window; expires_at never changes, so
		// the marker stays valid for the artifact's whole lifetime.
		return false, nil
	}

	claimed, err := s.repo.ClaimRenewalNotice(ctx, artifact.ID, now.UTC())
	if err != nil {
		return false, fmt.Errorf("claim renewal notice: %w", err)
	}
	if !claimed {
		return false, nil
	}

	notifiedAt := now.UTC()

	days := 0
	if evaluation.DaysUntilExpiration != nil {
		days = *evaluation.DaysUntilExpiration
	}
	due := models.RenewalDue{
		ArtifactID:    artifact.ID,
		Kind:          artifact.Kind,
		OwnerID:       artifact.OwnerID,
		SubjectName:   artifact.SubjectName,
		ExpiresAt:     *artifact.ExpiresAt,
		DaysRemaining: days,
		RaisedAt:      notifiedAt,
	}
	if s.events != nil {
		if err := s.events.Enqueue(jobs.Job{ID: artifact.ID, Type: string(models.EventRenewalDue), Payload: due}); err != nil {
			return true, fmt.Errorf("dispatch renewal notice: %w", err)
		}
	}
	return true, nil
}
