package models

import (
	"time"

	id "punchclock/pkg/domain"
	dErrors "punchclock/pkg/domain-errors"
)

// PunchType is one attendance event kind.
type PunchType string

const (
	PunchEntrance      PunchType = "entrance"
	PunchLunchOut      PunchType = "lunch_out"
	PunchLunchIn       PunchType = "lunch_in"
	PunchExit          PunchType = "exit"
	PunchOvertimeStart PunchType = "overtime_start"
	PunchOvertimeEnd   PunchType = "overtime_end"
)

// AllPunchTypes lists the types in successor order.
var AllPunchTypes = []PunchType{
	PunchEntrance, PunchLunchOut, PunchLunchIn, PunchExit, PunchOvertimeStart, PunchOvertimeEnd,
}

func (t PunchType) IsValid() bool {
	_, ok := successors[t]
	return ok
}

func (t PunchType) String() string { return string(t) }

// ParsePunchType validates a client-supplied punch type.
func ParsePunchType(s string) (PunchType, error) {
	t := PunchType(s)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown punch type: "+s)
	}
	return t, nil
}

// ApprovalState is the lifecycle state of a PunchRecord.
type ApprovalState string

const (
	StateCommitted       ApprovalState = "committed"
	StatePendingApproval ApprovalState = "pending_approval"
	StateRejected        ApprovalState = "rejected"
)

// PunchRecord is a registered attendance event. Records are append-only; the
// approval state is the only field that changes after creation.
type PunchRecord struct {
	ID                    id.PunchID
	WorkerID              id.UserID
	GroupID               id.GroupID
	Type                  PunchType
	WorkDay               time.Time // calendar day in the workday location, as UTC midnight
	PunchedAt             time.Time // authoritative server time
	Location              *LocationSample
	Address               string
	Signals               NetworkSignals
	Risk                  RiskAssessment
	State                 ApprovalState
	Justification         string
	OverrideJustification string
	IntegrityHash         string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// CountsTowardTotals reports whether the record contributes to worked time.
func (r *PunchRecord) CountsTowardTotals() bool {
	return r.State == StateCommitted
}

// CanTransition reports whether the approval state may move to next.
// Only pending records transition, and only to a terminal state.
func (r *PunchRecord) CanTransition(next ApprovalState) bool {
	if r.State != StatePendingApproval {
		return false
	}
	return next == StateCommitted || next == StateRejected
}

// DayOf returns the calendar day of t as observed in loc, encoded as UTC
// midnight so it compares equal to a Postgres DATE scanned back.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}
