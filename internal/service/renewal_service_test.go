package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listhaven/doclife-api/internal/models"
)

type sweepStoreStub struct {
	mu        sync.Mutex
	artifacts []*models.Artifact
	claimErr  map[string]error
}

func (s *sweepStoreStub) ListApprovedPage(ctx context.Context, limit, offset int) ([]models.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if offset >= len(s.artifacts) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.artifacts) {
		end = len(s.artifacts)
	}
	page := make([]models.Artifact, 0, end-offset)
	for _, artifact := range s.artifacts[offset:end] {
		page = append(page, *artifact)
	}
	return page, nil
}

func (s *sweepStoreStub) ClaimRenewalNotice(ctx context.Context, id string, notifiedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.claimErr[id]; err != nil {
		return false, err
	}
	for _, artifact := range s.artifacts {
		if artifact.ID != id {
			continue
		}
		if artifact.RenewalNotifiedAt != nil {
			return false, nil
		}
		at := notifiedAt
		artifact.RenewalNotifiedAt = &at
		return true, nil
	}
	return false, nil
}

type sweepObserverStub struct {
	scanned, due, failed int
	calls                int
}

func (o *sweepObserverStub) ObserveSweep(scanned, due, failed int, duration time.Duration) {
	o.scanned += scanned
	o.due += due
	o.failed += failed
	o.calls++
}

func approvedForSweep(id string, expiresAt time.Time) *models.Artifact {
	subject := "Acme Trust"
	approvedAt := expiresAt.AddDate(-1, 0, 0)
	return &models.Artifact{
		ID:            id,
		Kind:          models.ArtifactKindConsent,
		OwnerID:       "broker-1",
		SubjectName:   &subject,
		ApprovalState: models.ApprovalStateApproved,
		ApprovedAt:    &approvedAt,
		ExpiresAt:     &expiresAt,
	}
}

func newRenewalService(store *sweepStoreStub, events *dispatcherStub, metrics *sweepObserverStub) *RenewalService {
	return NewRenewalService(store, events, &auditStub{}, metrics, nil, RenewalServiceConfig{PageSize: 2})
}

func TestRenewalSweepRaisesDueOnce(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	store := &sweepStoreStub{artifacts: []*models.Artifact{
		approvedForSweep("consent-soon", now.AddDate(0, 0, 10)),
		approvedForSweep("consent-active", now.AddDate(0, 6, 0)),
		approvedForSweep("consent-expired", now.AddDate(0, 0, -10)),
	}}
	events := &dispatcherStub{}
	svc := newRenewalService(store, events, &sweepObserverStub{})

	report, err := svc.Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 1, report.Due)
	assert.Empty(t, report.Failures)

	notices := events.byType(models.EventRenewalDue)
	require.Len(t, notices, 1)
	due, ok := notices[0].Payload.(models.RenewalDue)
	require.True(t, ok)
	assert.Equal(t, "consent-soon", due.ArtifactID)
	assert.Equal(t, 10, due.DaysRemaining)

	// Re-running the sweep finds the notice already claimed.
	again, err := svc.Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Due)
	assert.Len(t, events.byType(models.EventRenewalDue), 1)
}

func TestRenewalSweepSingleFailureDoesNotAbort(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	store := &sweepStoreStub{
		artifacts: []*models.Artifact{
			approvedForSweep("consent-broken", now.AddDate(0, 0, 5)),
			approvedForSweep("consent-ok", now.AddDate(0, 0, 12)),
		},
		claimErr: map[string]error{"consent-broken": errors.New("connection reset")},
	}
	events := &dispatcherStub{}
	metrics := &sweepObserverStub{}
	svc := newRenewalService(store, events, metrics)

	report, err := svc.Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 1, report.Due)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "consent-broken", report.Failures[0].ArtifactID)

	require.Len(t, events.byType(models.EventRenewalDue), 1)
	assert.Equal(t, 1, metrics.calls)
	assert.Equal(t, 1, metrics.failed)
}

func TestRenewalSweepPaginatesAllApproved(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	store := &sweepStoreStub{}
	for i := 0; i < 5; i++ {
		store.artifacts = append(store.artifacts, approvedForSweep(
			"consent-"+string(rune('a'+i)), now.AddDate(0, 0, 3+i)))
	}
	events := &dispatcherStub{}
	svc := newRenewalService(store, events, &sweepObserverStub{})

	report, err := svc.Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Scanned)
	assert.Equal(t, 5, report.Due)
	assert.Len(t, events.byType(models.EventRenewalDue), 5)
}

func TestRenewalStartDisabledWithoutInterval(t *testing.T) {
	store := &sweepStoreStub{artifacts: []*models.Artifact{
		approvedForSweep("consent-soon", time.Now().UTC().AddDate(0, 0, 5)),
	}}
	events := &dispatcherStub{}
	svc := newRenewalService(store, events, &sweepObserverStub{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, events.byType(models.EventRenewalDue))
}
