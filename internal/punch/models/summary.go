package models

import (
	"sort"
	"time"

	dErrors "punchclock/pkg/domain-errors"
)

// Period selects the window of a worked-time summary.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// Expected workload per period, in minutes.
const (
	ExpectedDayMinutes   = 8 * 60
	ExpectedWeekMinutes  = 40 * 60
	ExpectedMonthMinutes = 160 * 60
)

func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodDay, PeriodWeek, PeriodMonth:
		return Period(s), nil
	case "":
		return PeriodDay, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "period must be day, week or month")
	}
}

// Bounds returns the [from, to) days covered by p around ref. Weeks start on Monday.
func (p Period) Bounds(ref time.Time, loc *time.Location) (from, to time.Time) {
	day := DayOf(ref, loc)
	switch p {
	case PeriodWeek:
		offset := (int(day.Weekday()) + 6) % 7
		from = day.AddDate(0, 0, -offset)
		return from, from.AddDate(0, 0, 7)
	case PeriodMonth:
		from = time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return from, from.AddDate(0, 1, 0)
	default:
		return day, day.AddDate(0, 0, 1)
	}
}

// ExpectedMinutes is the reference workload for the period.
func (p Period) ExpectedMinutes() int {
	switch p {
	case PeriodWeek:
		return ExpectedWeekMinutes
	case PeriodMonth:
		return ExpectedMonthMinutes
	default:
		return ExpectedDayMinutes
	}
}

// DaySummary is the worked time of one calendar day.
type DaySummary struct {
	Day             time.Time
	Punches         map[PunchType]time.Time
	WorkedMinutes   int
	OvertimeMinutes int
	PendingCount    int
	RejectedCount   int
}

// Summary aggregates days of a period.
type Summary struct {
	Period          Period
	From            time.Time
	To              time.Time
	WorkedMinutes   int
	OvertimeMinutes int
	ExpectedMinutes int
	BalanceMinutes  int
	Days            []DaySummary
}

// SummarizeDay computes worked minutes as (exit - entrance) - (lunch_in - lunch_out)
// over committed records only. A day without both entrance and exit counts zero.
func SummarizeDay(day time.Time, records []*PunchRecord) DaySummary {
	ds := DaySummary{Day: day, Punches: make(map[PunchType]time.Time)}
	for _, r := range records {
		switch r.State {
		case StatePendingApproval:
			ds.PendingCount++
			continue
		case StateRejected:
			ds.RejectedCount++
			continue
		}
		ds.Punches[r.Type] = r.PunchedAt
	}

	ds.WorkedMinutes = span(ds.Punches, PunchEntrance, PunchExit) - span(ds.Punches, PunchLunchOut, PunchLunchIn)
	if ds.WorkedMinutes < 0 || span(ds.Punches, PunchEntrance, PunchExit) == 0 {
		ds.WorkedMinutes = 0
	}
	ds.OvertimeMinutes = span(ds.Punches, PunchOvertimeStart, PunchOvertimeEnd)
	return ds
}

func span(punches map[PunchType]time.Time, from, to PunchType) int {
	start, okStart := punches[from]
	end, okEnd := punches[to]
	if !okStart || !okEnd || !end.After(start) {
		return 0
	}
	return int(end.Sub(start) / time.Minute)
}

// Summarize groups records by work day and aggregates them over [from, to).
func Summarize(period Period, from, to time.Time, records []*PunchRecord) Summary {
	byDay := make(map[time.Time][]*PunchRecord)
	for _, r := range records {
		if r.WorkDay.Before(from) || !r.WorkDay.Before(to) {
			continue
		}
		byDay[r.WorkDay] = append(byDay[r.WorkDay], r)
	}

	days := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	s := Summary{Period: period, From: from, To: to, ExpectedMinutes: period.ExpectedMinutes()}
	for _, d := range days {
		ds := SummarizeDay(d, byDay[d])
		s.WorkedMinutes += ds.WorkedMinutes
		s.OvertimeMinutes += ds.OvertimeMinutes
		s.Days = append(s.Days, ds)
	}
	s.BalanceMinutes = s.WorkedMinutes + s.OvertimeMinutes - s.ExpectedMinutes
	return s
}
