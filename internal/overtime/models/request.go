// Package models holds the overtime request and its review lifecycle.
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	id "punchclock/pkg/domain"
	dErrors "punchclock/pkg/domain-errors"
)

// Status is the review state of an overtime request. APPROVED and REJECTED
// are terminal.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// ParseStatus accepts any letter case.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "status must be PENDING, APPROVED or REJECTED")
	}
}

// ClockTime is a wall-clock time of day in minutes since midnight.
type ClockTime int

const minutesPerDay = 24 * 60

// ParseClockTime parses HH:MM in 24-hour notation.
func ParseClockTime(s string) (ClockTime, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("time %q must be HH:MM", s))
	}
	h, errH := strconv.Atoi(hh)
	m, errM := strconv.Atoi(mm)
	if errH != nil || errM != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("time %q must be HH:MM", s))
	}
	return ClockTime(h*60 + m), nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Valid reports whether c falls inside one day.
func (c ClockTime) Valid() bool {
	return c >= 0 && c < minutesPerDay
}

// OvertimeRequest asks a reviewer to authorize overtime punches on one date.
// Date is a calendar date encoded as UTC midnight.
type OvertimeRequest struct {
	ID            id.OvertimeID
	WorkerID      id.UserID
	GroupID       id.GroupID
	Date          time.Time
	Start         ClockTime
	End           ClockTime
	Justification string
	Status        Status
	RequestedAt   time.Time
	ReviewerID    *id.UserID
	ReviewedAt    *time.Time
	Comment       string
}

// Minutes is the requested overtime length.
func (r *OvertimeRequest) Minutes() int {
	return int(r.End - r.Start)
}

func (r *OvertimeRequest) IsPending() bool {
	return r.Status == StatusPending
}

// ApplyReview moves a pending request to its terminal status.
func (r *OvertimeRequest) ApplyReview(reviewer id.UserID, approve bool, comment string, at time.Time) error {
	if !r.IsPending() {
		return dErrors.New(dErrors.CodeAlreadyReviewed, "overtime request was already reviewed")
	}
	r.Status = StatusRejected
	if approve {
		r.Status = StatusApproved
	}
	r.ReviewerID = &reviewer
	r.ReviewedAt = &at
	r.Comment = comment
	return nil
}
