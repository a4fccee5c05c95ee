// Package ports defines the interfaces the overtime workflow consumes.
package ports

import (
	"context"
	"time"

	"punchclock/internal/notification"
	"punchclock/internal/overtime/models"
	id "punchclock/pkg/domain"
)

// Filter selects requests of one group. A zero WorkerID matches every
// worker; an empty Status matches every status.
type Filter struct {
	GroupID  id.GroupID
	WorkerID id.UserID
	Status   models.Status
}

// Store persists overtime requests.
type Store interface {
	Create(ctx context.Context, req *models.OvertimeRequest) error
	FindByID(ctx context.Context, requestID id.OvertimeID) (*models.OvertimeRequest, error)

	// List returns matching requests, most recent date first.
	List(ctx context.Context, filter Filter) ([]*models.OvertimeRequest, error)

	// Review stores the verdict carried by req. It fails with
	// sentinel.ErrInvalidState when the stored request is no longer pending.
	Review(ctx context.Context, req *models.OvertimeRequest) error

	// HasApproved reports whether the worker holds an approved request for day.
	HasApproved(ctx context.Context, workerID id.UserID, day time.Time) (bool, error)
}

// PendingCounter supplies the group's pending-approval badge value.
type PendingCounter interface {
	PendingCount(ctx context.Context, groupID id.GroupID) (int, error)
}

// Notifier publishes reviewer notifications.
type Notifier interface {
	Publish(ctx context.Context, event notification.Event) error
}
