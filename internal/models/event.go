package models

import "time"

// EventType identifies lifecycle events emitted by the engine.
type EventType string

const (
	EventArtifactApproved EventType = "ARTIFACT_APPROVED"
	EventArtifactRejected EventType = "ARTIFACT_REJECTED"
	EventRenewalDue       EventType = "RENEWAL_DUE"
)

// RenewalDue signals that an artifact entered its renewal window and the
// owner should be notified. Delivery transport is an external collaborator;
// the engine only guarantees the signal is raised once per window.
type RenewalDue struct {
	ArtifactID    string       `json:"artifactId"`
	Kind          ArtifactKind `json:"kind"`
	OwnerID       string       `json:"ownerId"`
	SubjectName   *string      `json:"subjectName,omitempty"`
	ExpiresAt     time.Time    `json:"expiresAt"`
	DaysRemaining int          `json:"daysRemaining"`
	RaisedAt      time.Time    `json:"raisedAt"`
}

// SweepReport aggregates the outcome of one renewal sweep. Per-artifact
// failures are collected here instead of aborting the sweep.
type SweepReport struct {
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt"`
	Scanned    int          `json:"scanned"`
	Due        int          `json:"due"`
	Failures   []SweepError `json:"failures,omitempty"`
}

// SweepError records a single artifact that could not be processed.
type SweepError struct {
	ArtifactID string `json:"artifactId"`
	Reason     string `json:"reason"`
}
