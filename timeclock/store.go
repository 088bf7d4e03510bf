/*
store.go - Persistence interface for punches, employees and reports

PURPOSE:
  Defines the boundary between the time-tracking engine and storage.
  Punch logs and the audit log are append-only; the employee directory
  and the weekly report are upserted by employee ID.

UNIQUENESS:
  AppendEvent must reject a second event for the same
  (employee, date, direction) with ErrDuplicateEvent. Implementations
  enforce this themselves rather than trusting the caller's pre-check.

DURABILITY:
  Every mutation is committed before the call returns. A failed commit
  is returned as an error and nothing partial is left behind.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - timeclock/store/memory.go: in-memory for testing
*/
package timeclock

import (
	"context"
	"time"
)

// EventQuery filters punch logs. Zero fields match everything.
type EventQuery struct {
	Direction  Direction
	EmployeeID *EmployeeID
	// Date restricts to one calendar date.
	Date *time.Time
	// From/To restrict to an inclusive date range.
	From *time.Time
	To   *time.Time
}

// Store persists the time-tracking state.
type Store interface {
	// UpsertEmployee inserts or replaces the names of an employee.
	UpsertEmployee(ctx context.Context, emp Employee) error

	// GetEmployee returns nil, nil when the ID is unknown.
	GetEmployee(ctx context.Context, id EmployeeID) (*Employee, error)

	// ListEmployees returns the directory ordered by ID.
	ListEmployees(ctx context.Context) ([]Employee, error)

	// AppendEvent persists a punch. Returns ErrDuplicateEvent if one already
	// exists for (employee, date, direction).
	AppendEvent(ctx context.Context, ev ClockEvent) error

	// FindEvent looks up the single punch for (employee, date, direction).
	// Returns nil, nil if absent.
	FindEvent(ctx context.Context, dir Direction, id EmployeeID, date time.Time) (*ClockEvent, error)

	// QueryEvents returns matching punches in insertion order.
	QueryEvents(ctx context.Context, q EventQuery) ([]ClockEvent, error)

	// UpsertWeeklyRows replaces the report rows for the given employees atomically.
	UpsertWeeklyRows(ctx context.Context, rows []WeeklyReportRow) error

	// ListWeeklyRows returns the stored report ordered by employee ID.
	ListWeeklyRows(ctx context.Context) ([]WeeklyReportRow, error)

	// AppendAuditLog records a diagnostic message.
	AppendAuditLog(ctx context.Context, message string) error
}

// RunStore tracks report generation runs.
type RunStore interface {
	SaveReportRun(ctx context.Context, run ReportRun) error
	IsReportComplete(ctx context.Context, week Week) (bool, error)
	ListReportRuns(ctx context.Context, status RunStatus) ([]ReportRun, error)
}
