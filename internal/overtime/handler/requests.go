package handler

import (
	"strings"
	"time"

	"punchclock/internal/overtime/models"
	"punchclock/internal/overtime/service"
	dErrors "punchclock/pkg/domain-errors"
)

// CreateOvertimeRequest is the body of POST /overtime.
type CreateOvertimeRequest struct {
	Date          string `json:"date"`
	Start         string `json:"start"`
	End           string `json:"end"`
	Justification string `json:"justification"`

	date  time.Time
	start models.ClockTime
	end   models.ClockTime
}

func (r *CreateOvertimeRequest) Validate() error {
	r.Justification = strings.TrimSpace(r.Justification)
	if r.Justification == "" {
		return dErrors.New(dErrors.CodeValidation, "justification is required")
	}
	if len(r.Justification) > service.MaxJustificationLength {
		return dErrors.New(dErrors.CodeValidation, "justification is too long")
	}
	date, err := time.Parse(time.DateOnly, strings.TrimSpace(r.Date))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "date must be YYYY-MM-DD")
	}
	r.date = date
	if r.start, err = models.ParseClockTime(r.Start); err != nil {
		return err
	}
	if r.end, err = models.ParseClockTime(r.End); err != nil {
		return err
	}
	if r.end <= r.start {
		return dErrors.New(dErrors.CodeValidation, "end time must be after start time")
	}
	return nil
}

// ReviewRequest is the body of POST /overtime/{id}/review.
type ReviewRequest struct {
	Decision string `json:"decision"`
	Comment  string `json:"comment,omitempty"`

	approve bool
}

func (r *ReviewRequest) Validate() error {
	r.Comment = strings.TrimSpace(r.Comment)
	switch strings.ToLower(strings.TrimSpace(r.Decision)) {
	case "approve", "approved":
		r.approve = true
	case "reject", "rejected":
		r.approve = false
	case "":
		return dErrors.New(dErrors.CodeValidation, "decision is required")
	default:
		return dErrors.New(dErrors.CodeValidation, "decision must be approve or reject")
	}
	if len(r.Comment) > service.MaxCommentLength {
		return dErrors.New(dErrors.CodeValidation, "comment is too long")
	}
	return nil
}
