// Package notification carries badge and reviewer notifications out of the
// core: punch commits and escalations, approval decisions, overtime requests.
// Every event carries the group's pending-approval count after the change.
package notification

import (
	"time"

	id "punchclock/pkg/domain"
)

// Kind names what happened.
type Kind string

const (
	KindPunchCommitted    Kind = "punch_committed"
	KindPunchEscalated    Kind = "punch_escalated"
	KindApprovalDecided   Kind = "approval_decided"
	KindGeolocationIssue  Kind = "geolocation_issue"
	KindOvertimeRequested Kind = "overtime_requested"
	KindOvertimeReviewed  Kind = "overtime_reviewed"
)

// ForReviewers reports whether reviewers of the group should be alerted.
func (k Kind) ForReviewers() bool {
	switch k {
	case KindPunchEscalated, KindGeolocationIssue, KindOvertimeRequested:
		return true
	default:
		return false
	}
}

// Event is a count-change or alert notification.
type Event struct {
	Kind         Kind
	GroupID      id.GroupID
	WorkerID     id.UserID
	EntityID     string
	Reason       string
	PendingCount int
	OccurredAt   time.Time
	RequestID    string
}

// Payload is the wire form written to the outbox, Kafka and the live stream.
type Payload struct {
	Kind         Kind      `json:"kind"`
	GroupID      string    `json:"group_id"`
	WorkerID     string    `json:"worker_id,omitempty"`
	EntityID     string    `json:"entity_id,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	PendingCount int       `json:"pending_count"`
	OccurredAt   time.Time `json:"occurred_at"`
	RequestID    string    `json:"request_id,omitempty"`
}

// Payload converts e to its wire form.
func (e Event) Payload() Payload {
	p := Payload{
		Kind:         e.Kind,
		GroupID:      e.GroupID.String(),
		EntityID:     e.EntityID,
		Reason:       e.Reason,
		PendingCount: e.PendingCount,
		OccurredAt:   e.OccurredAt.UTC(),
		RequestID:    e.RequestID,
	}
	if !e.WorkerID.IsNil() {
		p.WorkerID = e.WorkerID.String()
	}
	return p
}
