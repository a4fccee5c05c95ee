package handler

import (
	"time"

	"punchclock/internal/overtime/models"
)

// OvertimeResponse is one overtime request.
type OvertimeResponse struct {
	ID            string     `json:"id"`
	WorkerID      string     `json:"worker_id"`
	Date          string     `json:"date"`
	Start         string     `json:"start"`
	End           string     `json:"end"`
	Minutes       int        `json:"minutes"`
	Justification string     `json:"justification"`
	Status        string     `json:"status"`
	RequestedAt   time.Time  `json:"requested_at"`
	ReviewerID    string     `json:"reviewer_id,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	Comment       string     `json:"comment,omitempty"`
}

// ListResponse is the body of GET /overtime.
type ListResponse struct {
	Requests []OvertimeResponse `json:"requests"`
	Total    int                `json:"total"`
}

func FromRequest(r *models.OvertimeRequest) OvertimeResponse {
	resp := OvertimeResponse{
		ID:            r.ID.String(),
		WorkerID:      r.WorkerID.String(),
		Date:          r.Date.Format(time.DateOnly),
		Start:         r.Start.String(),
		End:           r.End.String(),
		Minutes:       r.Minutes(),
		Justification: r.Justification,
		Status:        string(r.Status),
		RequestedAt:   r.RequestedAt,
		ReviewedAt:    r.ReviewedAt,
		Comment:       r.Comment,
	}
	if r.ReviewerID != nil {
		resp.ReviewerID = r.ReviewerID.String()
	}
	return resp
}

func FromRequests(requests []*models.OvertimeRequest) ListResponse {
	out := ListResponse{Requests: make([]OvertimeResponse, 0, len(requests)), Total: len(requests)}
	for _, r := range requests {
		out.Requests = append(out.Requests, FromRequest(r))
	}
	return out
}
