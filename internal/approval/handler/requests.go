package handler

import (
	"strings"

	"punchclock/internal/approval/service"
	dErrors "punchclock/pkg/domain-errors"
)

// DecisionRequest is the body of POST /approvals/{id}/decision.
type DecisionRequest struct {
	Decision string `json:"decision"`
	Comment  string `json:"comment,omitempty"`

	approve bool
}

func (r *DecisionRequest) Validate() error {
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

// Approve reports the parsed verdict. Only meaningful after Validate.
func (r *DecisionRequest) Approve() bool {
	return r.approve
}
