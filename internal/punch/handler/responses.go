package handler

import (
	"time"

	"punchclock/internal/punch/models"
	"punchclock/internal/punch/service"
)

// RegisterPunchResponse is the HTTP response for POST /punches.
type RegisterPunchResponse struct {
	Outcome    string           `json:"outcome"`
	Reason     string           `json:"reason,omitempty"`
	Failing    []string         `json:"failing,omitempty"`
	Message    string           `json:"message,omitempty"`
	Punch      *PunchResponse   `json:"punch,omitempty"`
	ApprovalID string           `json:"approval_id,omitempty"`
	Location   LocationResponse `json:"location"`
}

// LocationResponse is the location check verdict.
type LocationResponse struct {
	AccuracyOK        bool     `json:"accuracy_ok"`
	StalenessOK       bool     `json:"staleness_ok"`
	GeofenceOK        bool     `json:"geofence_ok"`
	NearestGeofence   string   `json:"nearest_geofence,omitempty"`
	DistanceToNearest *float64 `json:"distance_to_nearest_m,omitempty"`
}

// PunchResponse is one stored punch.
type PunchResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	WorkDay   string    `json:"work_day"`
	PunchedAt time.Time `json:"punched_at"`
	State     string    `json:"state"`
	Address   string    `json:"address"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	RiskScore int       `json:"risk_score"`
	RiskTags  []string  `json:"risk_tags"`
}

// TodayResponse is the HTTP response for GET /punches/today.
type TodayResponse struct {
	Day         string          `json:"day"`
	Punches     []PunchResponse `json:"punches"`
	NextAllowed string          `json:"next_allowed,omitempty"`
	Open        bool            `json:"open"`
}

// SummaryResponse is the HTTP response for GET /punches/summary.
type SummaryResponse struct {
	Period          string        `json:"period"`
	From            string        `json:"from"`
	To              string        `json:"to"`
	WorkedMinutes   int           `json:"worked_minutes"`
	OvertimeMinutes int           `json:"overtime_minutes"`
	ExpectedMinutes int           `json:"expected_minutes"`
	BalanceMinutes  int           `json:"balance_minutes"`
	Days            []DayResponse `json:"days"`
}

// DayResponse is one day of a summary.
type DayResponse struct {
	Date            string `json:"date"`
	WorkedMinutes   int    `json:"worked_minutes"`
	OvertimeMinutes int    `json:"overtime_minutes"`
	Pending         int    `json:"pending"`
	Rejected        int    `json:"rejected"`
}

// FromResult converts a registration result to an HTTP response.
func FromResult(result *models.RegisterResult) *RegisterPunchResponse {
	resp := &RegisterPunchResponse{
		Outcome: string(result.Outcome),
		Reason:  string(result.Reason),
		Message: result.Message,
		Location: LocationResponse{
			AccuracyOK:        result.Location.AccuracyOK,
			StalenessOK:       result.Location.StalenessOK,
			GeofenceOK:        result.Location.GeofenceOK,
			NearestGeofence:   result.Location.NearestGeofence,
			DistanceToNearest: result.Location.DistanceToNearest,
		},
	}
	for _, f := range result.Failing {
		resp.Failing = append(resp.Failing, string(f))
	}
	if result.Record != nil {
		p := FromRecord(result.Record)
		resp.Punch = &p
	}
	if result.Entry != nil {
		resp.ApprovalID = result.Entry.ID.String()
	}
	return resp
}

// FromRecord converts a stored punch.
func FromRecord(r *models.PunchRecord) PunchResponse {
	p := PunchResponse{
		ID:        r.ID.String(),
		Type:      string(r.Type),
		WorkDay:   r.WorkDay.Format(time.DateOnly),
		PunchedAt: r.PunchedAt,
		State:     string(r.State),
		Address:   r.Address,
		RiskScore: r.Risk.Score,
		RiskTags:  make([]string, 0, len(r.Risk.Tags)),
	}
	if r.Location != nil {
		lat, lon := r.Location.Latitude, r.Location.Longitude
		p.Latitude, p.Longitude = &lat, &lon
	}
	for _, t := range r.Risk.Tags {
		p.RiskTags = append(p.RiskTags, string(t))
	}
	return p
}

// FromToday converts the worker's day.
func FromToday(v *service.TodayView) *TodayResponse {
	resp := &TodayResponse{
		Day:         v.Day.Format(time.DateOnly),
		Punches:     make([]PunchResponse, 0, len(v.Records)),
		NextAllowed: string(v.Next),
		Open:        v.Open,
	}
	for _, r := range v.Records {
		resp.Punches = append(resp.Punches, FromRecord(r))
	}
	return resp
}

// FromSummary converts a worked-time summary.
func FromSummary(s *models.Summary) *SummaryResponse {
	resp := &SummaryResponse{
		Period:          string(s.Period),
		From:            s.From.Format(time.DateOnly),
		To:              s.To.Format(time.DateOnly),
		WorkedMinutes:   s.WorkedMinutes,
		OvertimeMinutes: s.OvertimeMinutes,
		ExpectedMinutes: s.ExpectedMinutes,
		BalanceMinutes:  s.BalanceMinutes,
		Days:            make([]DayResponse, 0, len(s.Days)),
	}
	for _, d := range s.Days {
		resp.Days = append(resp.Days, DayResponse{
			Date:            d.Day.Format(time.DateOnly),
			WorkedMinutes:   d.WorkedMinutes,
			OvertimeMinutes: d.OvertimeMinutes,
			Pending:         d.PendingCount,
			Rejected:        d.RejectedCount,
		})
	}
	return resp
}
