/*
Package report writes weekly report artifacts.

FILES (per work week, under the configured directory):
  <start>_<end>_LaborerTimeReport.csv   one row per employee
  <start>_<end>_ClockInTimes.csv        check-in punches in the week (optional)
  <start>_<end>_ClockOutTimes.csv       check-out punches in the week (optional)
  <start>_<end>_LaborerTimeReport.xlsx  same table as the CSV (optional)

Hours are written with exactly 2 decimals.
*/
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/warp/timeclock/timeclock"
)

// WeeklyHeader is the header row of the weekly CSV.
var WeeklyHeader = []string{
	"Employee ID", "Total Hours",
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
	"CheckIn Comment", "CheckOut Comment",
}

// Sink receives the rows of a finished aggregation.
type Sink interface {
	Write(ctx context.Context, week timeclock.Week, rows []timeclock.WeeklyReportRow) ([]string, error)
}

// WeeklyFilename is the CSV name for week.
func WeeklyFilename(week timeclock.Week) string {
	return week.Key() + "_LaborerTimeReport.csv"
}

// PunchFilename is the punch export name for week and direction.
func PunchFilename(week timeclock.Week, dir timeclock.Direction) string {
	if dir == timeclock.CheckOut {
		return week.Key() + "_ClockOutTimes.csv"
	}
	return week.Key() + "_ClockInTimes.csv"
}

// WeeklyRecord renders one row in WeeklyHeader order.
func WeeklyRecord(r timeclock.WeeklyReportRow) []string {
	rec := make([]string, 0, len(WeeklyHeader))
	rec = append(rec, strconv.Itoa(int(r.EmployeeID)), r.TotalHours.StringFixed(timeclock.HoursPrecision))
	for _, h := range r.Hours {
		rec = append(rec, h.StringFixed(timeclock.HoursPrecision))
	}
	return append(rec, r.CheckInComment, r.CheckOutComment)
}

// WriteWeeklyCSV writes the header and one record per row.
func WriteWeeklyCSV(w io.Writer, rows []timeclock.WeeklyReportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(WeeklyHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(WeeklyRecord(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePunchCSV writes punches with the employee's full name.
func WritePunchCSV(w io.Writer, dir timeclock.Direction, events []timeclock.ClockEvent, names map[timeclock.EmployeeID]string) error {
	label := "Clock IN Timestamp"
	if dir == timeclock.CheckOut {
		label = "Clock OUT Timestamp"
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Full Name", "Employee ID", label}); err != nil {
		return err
	}
	for _, ev := range events {
		rec := []string{names[ev.EmployeeID], strconv.Itoa(int(ev.EmployeeID)), timeclock.FormatTimestamp(ev.Timestamp)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// =============================================================================
// FILE SINK
// =============================================================================

// FileSink writes report files into Dir.
type FileSink struct {
	Dir string
	// Punches adds the clock-in/clock-out exports; needs Store.
	Punches bool
	// XLSX adds a workbook copy of the weekly table.
	XLSX   bool
	Store  timeclock.Store
	Logger *zap.Logger
}

// Write creates the directory if needed and returns the written paths.
func (s *FileSink) Write(ctx context.Context, week timeclock.Week, rows []timeclock.WeeklyReportRow) ([]string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	var written []string
	path := filepath.Join(s.Dir, WeeklyFilename(week))
	if err := writeFile(path, func(w io.Writer) error { return WriteWeeklyCSV(w, rows) }); err != nil {
		return written, err
	}
	written = append(written, path)

	if s.XLSX {
		path := filepath.Join(s.Dir, WorkbookFilename(week))
		if err := writeFile(path, func(w io.Writer) error { return WriteWeeklyXLSX(w, week, rows) }); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	if s.Punches && s.Store != nil {
		paths, err := s.writePunches(ctx, week)
		written = append(written, paths...)
		if err != nil {
			return written, err
		}
	}

	if s.Logger != nil {
		s.Logger.Info("report files written", zap.String("week", week.Key()), zap.Strings("files", written))
	}
	return written, nil
}

func (s *FileSink) writePunches(ctx context.Context, week timeclock.Week) ([]string, error) {
	employees, err := s.Store.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[timeclock.EmployeeID]string, len(employees))
	for _, e := range employees {
		names[e.ID] = e.FullName()
	}

	var written []string
	for _, dir := range []timeclock.Direction{timeclock.CheckIn, timeclock.CheckOut} {
		events, err := s.Store.QueryEvents(ctx, timeclock.EventQuery{Direction: dir, From: &week.Start, To: &week.End})
		if err != nil {
			return written, err
		}
		path := filepath.Join(s.Dir, PunchFilename(week, dir))
		if err := writeFile(path, func(w io.Writer) error { return WritePunchCSV(w, dir, events, names) }); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
