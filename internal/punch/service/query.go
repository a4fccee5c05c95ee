package service

import (
	"context"
	"time"

	"punchclock/internal/punch/models"
	id "punchclock/pkg/domain"
	dErrors "punchclock/pkg/domain-errors"
	"punchclock/pkg/requestcontext"
)

// TodayView is the worker's current day: what was registered and what may come next.
type TodayView struct {
	Day     time.Time
	Records []*models.PunchRecord
	Next    models.PunchType
	Open    bool
}

// Today returns the worker's punches of the current work day and the next
// allowed type.
func (s *Service) Today(ctx context.Context, workerID id.UserID) (*TodayView, error) {
	day := models.DayOf(requestcontext.Now(ctx), s.loc)
	records, err := s.punches.ListForDay(ctx, workerID, day)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load today's punches")
	}

	history := make([]models.PunchType, 0, len(records))
	for _, r := range records {
		history = append(history, r.Type)
	}

	authorized := false
	if n := len(history); n > 0 && history[n-1] == models.PunchExit && s.overtime != nil {
		authorized, err = s.overtime.HasApproved(ctx, workerID, day)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check overtime authorization")
		}
	}
	next, ok := models.NextAllowedWithOvertime(history, authorized)
	return &TodayView{Day: day, Records: records, Next: next, Open: ok}, nil
}

// Summary aggregates the worker's committed time over the period containing
// day. Like PunchRecord.WorkDay, day is a calendar date encoded as UTC
// midnight; the zero value means today.
func (s *Service) Summary(ctx context.Context, workerID id.UserID, period models.Period, day time.Time) (*models.Summary, error) {
	if day.IsZero() {
		day = models.DayOf(requestcontext.Now(ctx), s.loc)
	}
	from, to := period.Bounds(day, time.UTC)
	records, err := s.punches.ListRange(ctx, workerID, from, to)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load punches")
	}
	summary := models.Summarize(period, from, to, visible(ctx, workerID, records))
	return &summary, nil
}

// visible drops records of other groups when the caller looks at someone
// else's punches. Handlers only let reviewers do that. Calls without an
// identity in the context see everything.
func visible(ctx context.Context, workerID id.UserID, records []*models.PunchRecord) []*models.PunchRecord {
	caller := requestcontext.UserID(ctx)
	if caller.IsNil() || caller == workerID {
		return records
	}
	group := requestcontext.GroupID(ctx)
	out := records[:0:0]
	for _, r := range records {
		if r.GroupID == group {
			out = append(out, r)
		}
	}
	return out
}
