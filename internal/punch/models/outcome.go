package models

import (
	"time"

	id "punchclock/pkg/domain"
)

// Outcome is the category of a registration result.
type Outcome string

const (
	OutcomeCommitted       Outcome = "committed"
	OutcomePendingApproval Outcome = "pending_approval"
	OutcomeRejected        Outcome = "rejected"
)

// ReasonCode is the machine-readable reason attached to rejections and escalations.
type ReasonCode string

const (
	ReasonDuplicatePunch    ReasonCode = "duplicate_punch"
	ReasonInvalidOrder      ReasonCode = "invalid_order"
	ReasonLowAccuracy       ReasonCode = "low_accuracy"
	ReasonStaleLocation     ReasonCode = "stale_location"
	ReasonGeofenceViolation ReasonCode = "geofence_violation"
	ReasonHighRisk          ReasonCode = "high_risk"
	ReasonTimeout           ReasonCode = "timeout"
)

// EscalationReason is why a punch was routed to human review.
type EscalationReason string

const (
	EscalationLowAccuracy       EscalationReason = "low_accuracy"
	EscalationStaleLocation     EscalationReason = "stale_location"
	EscalationGeofenceViolation EscalationReason = "geofence_violation"
	EscalationHighRiskScore     EscalationReason = "high_risk_score"
)

// EscalationFor converts a confidence reason code into its escalation reason.
func EscalationFor(code ReasonCode) EscalationReason {
	switch code {
	case ReasonLowAccuracy:
		return EscalationLowAccuracy
	case ReasonStaleLocation:
		return EscalationStaleLocation
	case ReasonGeofenceViolation:
		return EscalationGeofenceViolation
	default:
		return EscalationHighRiskScore
	}
}

// RegisterRequest is one punch attempt.
type RegisterRequest struct {
	WorkerID              id.UserID
	GroupID               id.GroupID
	Type                  PunchType
	Sample                *LocationSample // nil when the client could not capture a position
	SessionID             id.SessionID
	IPAddress             string
	UserAgent             string
	Hints                 ClientHints
	Justification         string
	OverrideJustification string
}

// RegisterResult is the decision for a punch attempt. Record is set for
// committed and pending outcomes; Entry only for pending ones.
type RegisterResult struct {
	Outcome  Outcome
	Reason   ReasonCode
	Failing  []ReasonCode
	Message  string
	Record   *PunchRecord
	Entry    *PendingApprovalEntry
	Location LocationVerdict
}

// LocationVerdict is the LocationValidator output.
type LocationVerdict struct {
	OK                bool
	AccuracyOK        bool
	StalenessOK       bool
	GeofenceOK        bool
	NearestGeofence   string
	DistanceToNearest *float64 // meters; nil when no geofence is configured
}

// Decision is a reviewer verdict.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// PendingApprovalEntry is a punch waiting for (or having received) human review.
type PendingApprovalEntry struct {
	ID         id.ApprovalID
	Record     *PunchRecord
	Reason     EscalationReason
	State      ApprovalState
	CreatedAt  time.Time
	ReviewerID *id.UserID
	Decision   Decision
	ReviewedAt *time.Time
	Comment    string
}

// IsPending reports whether the entry still awaits a decision.
func (e *PendingApprovalEntry) IsPending() bool {
	return e.State == StatePendingApproval
}

// ApplyDecision transitions the entry and its record. Callers must check
// IsPending first; the store enforces it again under lock or transaction.
func (e *PendingApprovalEntry) ApplyDecision(reviewer id.UserID, approve bool, comment string, at time.Time) {
	next, decision := StateRejected, DecisionRejected
	if approve {
		next, decision = StateCommitted, DecisionApproved
	}
	e.State = next
	e.Decision = decision
	e.ReviewerID = &reviewer
	e.ReviewedAt = &at
	e.Comment = comment
	if e.Record != nil {
		e.Record.State = next
		e.Record.UpdatedAt = at
	}
}
