/*
Package timeclock provides the core employee time-tracking engine.

PURPOSE:
  Records clock-in/clock-out punches per employee, reconciles each day's
  punch pair into worked hours, and aggregates a Sunday-Saturday work week
  into one report row per employee.

KEY CONCEPTS IN THIS FILE (types.go):
  - EmployeeID: 1-4 digit badge number (0-9999)
  - Employee: directory entry, upserted by EmployeeID
  - ClockEvent: one punch (check-in or check-out), minute precision
  - DailyHours: derived result of reconciling one (employee, date)
  - WeeklyReportRow: one employee's hours for one work week

DESIGN PRINCIPLES:
  1. Append-only punches: at most one event per (employee, date, direction)
  2. Precision: hours use decimal.Decimal, rounded to 2 places per day
  3. Wall-clock timestamps: punches carry facility-local wall time with no zone

USAGE:
  recorder := timeclock.NewRecorder(store, clock, logger)
  outcome, err := recorder.ClockIn(ctx, 1001)

SEE ALSO:
  - recorder.go: ClockIn / ClockOut
  - reconciler.go: punch pair to hours policy
  - aggregator.go: weekly report rows
  - store.go: persistence interface
*/
package timeclock

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// =============================================================================
// EMPLOYEE
// =============================================================================

// MaxEmployeeID is the largest badge number the keypad can produce.
const MaxEmployeeID = 9999

// EmployeeIDLength is the fixed width of a sanitized employee ID string.
const EmployeeIDLength = 4

// EmployeeID is the numeric badge identifier of an employee.
type EmployeeID int

// Validate rejects IDs outside [0, MaxEmployeeID].
func (id EmployeeID) Validate() error {
	if id < 0 || id > MaxEmployeeID {
		return &ValidationError{Field: "employee_id", Value: strconv.Itoa(int(id)), Err: ErrInvalidEmployeeID}
	}
	return nil
}

// String renders the ID zero-padded to EmployeeIDLength digits.
func (id EmployeeID) String() string {
	return fmt.Sprintf("%0*d", EmployeeIDLength, int(id))
}

// ParseEmployeeID parses a sanitized 1-4 digit numeric string.
func ParseEmployeeID(s string) (EmployeeID, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > EmployeeIDLength {
		return 0, &ValidationError{Field: "employee_id", Value: s, Err: ErrInvalidEmployeeID}
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, &ValidationError{Field: "employee_id", Value: s, Err: ErrInvalidEmployeeID}
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ValidationError{Field: "employee_id", Value: s, Err: ErrInvalidEmployeeID}
	}
	id := EmployeeID(n)
	return id, id.Validate()
}

// Employee is a directory entry. Only the last-name initial is kept.
type Employee struct {
	ID              EmployeeID
	FirstName       string
	LastNameInitial string
}

// Validate rejects entries the directory must never hold: an ID outside
// [0, MaxEmployeeID], an empty first name, or an initial that is not a
// single letter.
func (e Employee) Validate() error {
	if err := e.ID.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.FirstName) == "" {
		return &ValidationError{Field: "first_name", Value: e.FirstName, Err: ErrInvalidEmployeeName}
	}
	r, size := utf8.DecodeRuneInString(e.LastNameInitial)
	if size == 0 || size != len(e.LastNameInitial) || !unicode.IsLetter(r) {
		return &ValidationError{Field: "last_name_initial", Value: e.LastNameInitial, Err: ErrInvalidEmployeeName}
	}
	return nil
}

// FullName returns "First L".
func (e Employee) FullName() string {
	if e.LastNameInitial == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastNameInitial
}

// =============================================================================
// CLOCK EVENTS
// =============================================================================

// Direction tells a check-in from a check-out.
type Direction string

const (
	CheckIn  Direction = "check_in"
	CheckOut Direction = "check_out"
)

// Valid reports whether d is CheckIn or CheckOut.
func (d Direction) Valid() bool { return d == CheckIn || d == CheckOut }

// ClockEvent is a single punch. Timestamp is facility wall-clock time
// truncated to the minute.
type ClockEvent struct {
	EmployeeID EmployeeID
	Timestamp  time.Time
	Direction  Direction
}

// Validate checks the employee ID and direction.
func (e ClockEvent) Validate() error {
	if err := e.EmployeeID.Validate(); err != nil {
		return err
	}
	if !e.Direction.Valid() {
		return &ValidationError{Field: "direction", Value: string(e.Direction), Err: ErrInvalidDirection}
	}
	return nil
}

// Date returns the calendar date the punch belongs to.
func (e ClockEvent) Date() time.Time { return DateOf(e.Timestamp) }

// =============================================================================
// DERIVED RESULTS
// =============================================================================

// DailyHours is the reconciliation of one (employee, date).
type DailyHours struct {
	EmployeeID EmployeeID
	Date       time.Time
	Hours      decimal.Decimal
	CheckedIn  bool
	CheckedOut bool
}

// Defaulted reports whether the hours came from the missed-punch policy.
func (d DailyHours) Defaulted() bool { return d.CheckedIn != d.CheckedOut }

// WeeklyReportRow is one employee's line in the weekly report.
// Hours is indexed by time.Weekday (Sunday first).
type WeeklyReportRow struct {
	EmployeeID      EmployeeID
	FullName        string
	TotalHours      decimal.Decimal
	Hours           [7]decimal.Decimal
	CheckInComment  string
	CheckOutComment string
	Week            Week
}

// HoursOn returns the hours recorded for the given weekday.
func (r WeeklyReportRow) HoursOn(day time.Weekday) decimal.Decimal { return r.Hours[day] }

// AuditEntry is a diagnostic message. Write-only from the engine's side.
type AuditEntry struct {
	Message   string
	CreatedAt time.Time
}

// =============================================================================
// REPORT RUNS
// =============================================================================

// RunStatus tracks a report generation run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// ReportRun records one weekly aggregation. Unique per week.
type ReportRun struct {
	ID          string
	Week        Week
	Status      RunStatus
	Rows        int
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}
