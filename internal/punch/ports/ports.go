// Package ports defines the interfaces the punch registration service consumes.
// Interfaces shared with the approval queue live here so both sides agree on them.
package ports

import (
	"context"
	"log/slog"
	"time"

	"punchclock/internal/notification"
	"punchclock/internal/punch/models"
	"punchclock/internal/punch/signals"
	id "punchclock/pkg/domain"
	"punchclock/pkg/requestcontext"
)

// PunchStore persists punch records. Records are never deleted.
type PunchStore interface {
	// ListForDay returns the worker's records of one work day ordered by punch time.
	ListForDay(ctx context.Context, workerID id.UserID, day time.Time) ([]*models.PunchRecord, error)

	// Save inserts a new record. A second record for the same (worker, day,
	// type) fails with sentinel.ErrConflict.
	Save(ctx context.Context, record *models.PunchRecord) error

	// History returns the worker's most recent records, newest first.
	History(ctx context.Context, workerID id.UserID, limit int) ([]*models.PunchRecord, error)

	// ListRange returns the worker's records with work day in [from, to).
	ListRange(ctx context.Context, workerID id.UserID, from, to time.Time) ([]*models.PunchRecord, error)

	// UpdateState moves a record from one approval state to another. It fails
	// with sentinel.ErrInvalidState when the record is not in from.
	UpdateState(ctx context.Context, punchID id.PunchID, from, to models.ApprovalState, at time.Time) error
}

// ApprovalQueue receives escalated punches.
type ApprovalQueue interface {
	Enqueue(ctx context.Context, entry *models.PendingApprovalEntry) error
	PendingCount(ctx context.Context, groupID id.GroupID) (int, error)
}

// GeofenceSource returns the geofences configured for an employment group.
type GeofenceSource interface {
	ForGroup(ctx context.Context, groupID id.GroupID) ([]models.Geofence, error)
}

// SignalCollector gathers the network and device snapshot of a punch attempt.
// Implementations must return once ctx is done.
type SignalCollector interface {
	Collect(ctx context.Context, req signals.SessionRequest) (models.NetworkSignals, error)
}

// RiskScorer turns signals and history into an assessment.
type RiskScorer interface {
	Score(sig models.NetworkSignals, history []models.SignalHistoryEntry) models.RiskAssessment
}

// Geocoder resolves a coordinate to an address. Implementations must return
// once ctx is done.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (*models.Address, error)
}

// OvertimeAuthorizer reports whether a worker holds an approved overtime request for a day.
type OvertimeAuthorizer interface {
	HasApproved(ctx context.Context, workerID id.UserID, day time.Time) (bool, error)
}

// Notifier publishes badge and reviewer notifications.
type Notifier interface {
	Publish(ctx context.Context, event notification.Event) error
}

// LogAudit records a security or policy relevant decision in the structured
// log with the fields audit consumers filter on.
func LogAudit(ctx context.Context, logger *slog.Logger, event string, attrs ...any) {
	if logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attrs = append(attrs, "request_id", requestID)
	}
	args := append(attrs, "event", event, "log_type", "audit")
	logger.InfoContext(ctx, event, args...)
}
