// Package ports defines the interfaces the approval queue consumes.
package ports

import (
	"context"
	"time"

	"punchclock/internal/notification"
	"punchclock/internal/punch/models"
	id "punchclock/pkg/domain"
)

// Filter selects entries of one group. A zero WorkerID matches every worker;
// empty States matches every state.
type Filter struct {
	GroupID  id.GroupID
	WorkerID id.UserID
	States   []models.ApprovalState
}

// Store persists pending-approval entries. The pending count is always
// derived from the stored entries.
type Store interface {
	// Enqueue inserts a new entry. A second entry for the same punch fails
	// with sentinel.ErrConflict.
	Enqueue(ctx context.Context, entry *models.PendingApprovalEntry) error

	FindByID(ctx context.Context, entryID id.ApprovalID) (*models.PendingApprovalEntry, error)

	// List returns matching entries, oldest first.
	List(ctx context.Context, filter Filter) ([]*models.PendingApprovalEntry, error)

	// Decide stores the reviewer verdict carried by entry. It fails with
	// sentinel.ErrInvalidState when the stored entry is no longer pending.
	Decide(ctx context.Context, entry *models.PendingApprovalEntry) error

	CountPending(ctx context.Context, groupID id.GroupID) (int, error)
}

// PunchStore is the part of the punch store the queue transitions.
type PunchStore interface {
	UpdateState(ctx context.Context, punchID id.PunchID, from, to models.ApprovalState, at time.Time) error
}

// Notifier publishes badge notifications.
type Notifier interface {
	Publish(ctx context.Context, event notification.Event) error
}
