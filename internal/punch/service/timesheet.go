package service

import (
	"context"
	"math"
	"time"

	"github.com/xuri/excelize/v2"

	"punchclock/internal/punch/models"
	id "punchclock/pkg/domain"
	dErrors "punchclock/pkg/domain-errors"
	"punchclock/pkg/requestcontext"
)

// TimesheetSheet is the name of the worksheet in exported workbooks.
const TimesheetSheet = "Timesheet"

var timesheetHeader = []any{
	"Date", "Entrance", "Lunch out", "Lunch in", "Exit", "Overtime start", "Overtime end",
	"Worked (min)", "Overtime (min)", "Pending", "Rejected",
}

// Timesheet renders the worker's month as an XLSX workbook: one row per
// calendar day followed by totals. month is any day of the month, encoded as
// UTC midnight; the zero value means the current month.
func (s *Service) Timesheet(ctx context.Context, workerID id.UserID, month time.Time) ([]byte, error) {
	if month.IsZero() {
		month = models.DayOf(requestcontext.Now(ctx), s.loc)
	}
	from, to := models.PeriodMonth.Bounds(month, time.UTC)
	records, err := s.punches.ListRange(ctx, workerID, from, to)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load punches")
	}

	out, err := s.renderTimesheet(models.Summarize(models.PeriodMonth, from, to, visible(ctx, workerID, records)))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render timesheet")
	}
	return out, nil
}

func (s *Service) renderTimesheet(summary models.Summary) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", TimesheetSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(TimesheetSheet, "A1", &timesheetHeader); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(TimesheetSheet, "A1", "K1", bold); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(TimesheetSheet, "A", "K", 14); err != nil {
		return nil, err
	}

	byDay := make(map[time.Time]models.DaySummary, len(summary.Days))
	for _, d := range summary.Days {
		byDay[d.Day] = d
	}

	row := 2
	for day := summary.From; day.Before(summary.To); day = day.AddDate(0, 0, 1) {
		ds := byDay[day]
		values := []any{day.Format(time.DateOnly)}
		for _, t := range models.AllPunchTypes {
			values = append(values, s.clockTime(ds.Punches, t))
		}
		values = append(values, ds.WorkedMinutes, ds.OvertimeMinutes, ds.PendingCount, ds.RejectedCount)
		if err := setRow(f, row, values); err != nil {
			return nil, err
		}
		row++
	}

	totals := [][]any{
		{"Total", "", "", "", "", "", "", summary.WorkedMinutes, summary.OvertimeMinutes},
		{"Worked hours", hours(summary.WorkedMinutes + summary.OvertimeMinutes)},
		{"Expected hours", hours(summary.ExpectedMinutes)},
		{"Balance hours", hours(summary.BalanceMinutes)},
	}
	row++
	for _, values := range totals {
		if err := setRow(f, row, values); err != nil {
			return nil, err
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(TimesheetSheet, cell, cell, bold); err != nil {
			return nil, err
		}
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(TimesheetSheet, cell, &values)
}

// clockTime renders the wall-clock time of a punch in the workday timezone.
func (s *Service) clockTime(punches map[models.PunchType]time.Time, t models.PunchType) string {
	at, ok := punches[t]
	if !ok {
		return ""
	}
	return at.In(s.loc).Format("15:04")
}

func hours(minutes int) float64 {
	return math.Round(float64(minutes)/60*100) / 100
}
