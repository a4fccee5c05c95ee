package handler

import (
	"time"

	"punchclock/internal/punch/models"
)

// EntryResponse is one approval queue entry.
type EntryResponse struct {
	ID         string         `json:"id"`
	Reason     string         `json:"reason"`
	State      string         `json:"state"`
	CreatedAt  time.Time      `json:"created_at"`
	Decision   string         `json:"decision,omitempty"`
	ReviewerID string         `json:"reviewer_id,omitempty"`
	ReviewedAt *time.Time     `json:"reviewed_at,omitempty"`
	Comment    string         `json:"comment,omitempty"`
	Punch      *PunchResponse `json:"punch,omitempty"`
}

// PunchResponse is the escalated punch as a reviewer needs to see it.
type PunchResponse struct {
	ID                    string    `json:"id"`
	WorkerID              string    `json:"worker_id"`
	Type                  string    `json:"type"`
	WorkDay               string    `json:"work_day"`
	PunchedAt             time.Time `json:"punched_at"`
	Address               string    `json:"address"`
	AccuracyMeters        *float64  `json:"accuracy_m,omitempty"`
	RiskScore             int       `json:"risk_score"`
	RiskTags              []string  `json:"risk_tags,omitempty"`
	Justification         string    `json:"justification,omitempty"`
	OverrideJustification string    `json:"override_justification,omitempty"`
}

// ListResponse is the body of GET /approvals.
type ListResponse struct {
	Entries []EntryResponse `json:"entries"`
	Total   int             `json:"total"`
}

// CountResponse is the body of GET /approvals/count.
type CountResponse struct {
	PendingCount int `json:"pending_count"`
}

func FromEntry(e *models.PendingApprovalEntry) EntryResponse {
	resp := EntryResponse{
		ID:         e.ID.String(),
		Reason:     string(e.Reason),
		State:      string(e.State),
		CreatedAt:  e.CreatedAt,
		Decision:   string(e.Decision),
		ReviewedAt: e.ReviewedAt,
		Comment:    e.Comment,
	}
	if e.ReviewerID != nil {
		resp.ReviewerID = e.ReviewerID.String()
	}
	if r := e.Record; r != nil {
		p := &PunchResponse{
			ID:                    r.ID.String(),
			WorkerID:              r.WorkerID.String(),
			Type:                  string(r.Type),
			WorkDay:               r.WorkDay.Format(time.DateOnly),
			PunchedAt:             r.PunchedAt,
			Address:               r.Address,
			RiskScore:             r.Risk.Score,
			Justification:         r.Justification,
			OverrideJustification: r.OverrideJustification,
		}
		if r.Location != nil {
			acc := r.Location.AccuracyMeters
			p.AccuracyMeters = &acc
		}
		for _, t := range r.Risk.Tags {
			p.RiskTags = append(p.RiskTags, string(t))
		}
		resp.Punch = p
	}
	return resp
}

func FromEntries(entries []*models.PendingApprovalEntry) ListResponse {
	out := ListResponse{Entries: make([]EntryResponse, 0, len(entries)), Total: len(entries)}
	for _, e := range entries {
		out.Entries = append(out.Entries, FromEntry(e))
	}
	return out
}
