/*
Package sqlite provides a SQLite-backed implementation of timeclock.Store.

PURPOSE:
  Implements the punch logs, employee directory, weekly report table, audit
  log and report-run history on a single SQLite file.

KEY TABLES:
  employees:     Directory, unique on employee_id (upsert)
  check_ins:     Append-only check-in log
  check_outs:    Append-only check-out log
  weekly_report: One row per employee, overwritten on every run
  audit_log:     Append-only diagnostic messages
  report_runs:   One row per work week

DAY COLUMNS:
  weekly_report keeps the historical labelling: day0 is Monday through
  day5 Saturday, day6 is Sunday.

INDEXES:
  - idx_check_ins_employee_day / idx_check_outs_employee_day: UNIQUE on
    (employee_id, event_date). Enforces one punch per direction per day and
    serves the (employee, date) lookups used by reconciliation.

CONCURRENCY:
  A single connection is used, so every statement is serialized and an
  in-memory database is shared by all callers. sync.RWMutex guards the
  Go side the same way.

USAGE:
  store, err := sqlite.New("./TimeReport.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - timeclock/store.go: Interface definitions
  - timeclock/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/timeclock/timeclock"
)

// Store implements timeclock.Store and timeclock.RunStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ timeclock.Store    = (*Store)(nil)
	_ timeclock.RunStore = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store, err := NewWithDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewWithDB wraps an already opened handle and creates the schema.
func NewWithDB(db *sql.DB) (*Store, error) {
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_id INTEGER NOT NULL UNIQUE,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL
	);

	-- Punch logs (append-only)
	CREATE TABLE IF NOT EXISTS check_ins (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_id INTEGER NOT NULL,
		timestamp TEXT NOT NULL,
		event_date TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_check_ins_employee_day
		ON check_ins(employee_id, event_date);
	CREATE INDEX IF NOT EXISTS idx_check_ins_day
		ON check_ins(event_date);

	CREATE TABLE IF NOT EXISTS check_outs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_id INTEGER NOT NULL,
		timestamp TEXT NOT NULL,
		event_date TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_check_outs_employee_day
		ON check_outs(employee_id, event_date);
	CREATE INDEX IF NOT EXISTS idx_check_outs_day
		ON check_outs(event_date);

	-- Weekly report (one row per employee, overwritten per run)
	CREATE TABLE IF NOT EXISTS weekly_report (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		full_name TEXT NOT NULL,
		employee_id INTEGER NOT NULL UNIQUE,
		total_hours TEXT NOT NULL,
		day0 TEXT NOT NULL,
		day1 TEXT NOT NULL,
		day2 TEXT NOT NULL,
		day3 TEXT NOT NULL,
		day4 TEXT NOT NULL,
		day5 TEXT NOT NULL,
		day6 TEXT NOT NULL,
		in_comments TEXT NOT NULL DEFAULT '',
		out_comments TEXT NOT NULL DEFAULT '',
		week_start TEXT NOT NULL,
		week_end TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		log_message TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Report runs (one per work week)
	CREATE TABLE IF NOT EXISTS report_runs (
		id TEXT NOT NULL,
		week_start TEXT NOT NULL,
		week_end TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'running',
		row_count INTEGER DEFAULT 0,
		error TEXT,
		started_at TEXT NOT NULL,
		completed_at TEXT,
		PRIMARY KEY (week_start, week_end)
	);

	CREATE INDEX IF NOT EXISTS idx_report_runs_status
		ON report_runs(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// UpsertEmployee inserts the employee or replaces its names.
func (s *Store) UpsertEmployee(ctx context.Context, emp timeclock.Employee) error {
	if err := emp.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (employee_id, first_name, last_name)
		VALUES (?, ?, ?)
		ON CONFLICT(employee_id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name
	`

	if _, err := s.db.ExecContext(ctx, query, int(emp.ID), emp.FirstName, emp.LastNameInitial); err != nil {
		return fmt.Errorf("failed to upsert employee: %w", err)
	}
	return nil
}

// GetEmployee retrieves an employee by ID. Returns nil, nil if absent.
func (s *Store) GetEmployee(ctx context.Context, id timeclock.EmployeeID) (*timeclock.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var emp timeclock.Employee
	var empID int
	err := s.db.QueryRowContext(ctx,
		"SELECT employee_id, first_name, last_name FROM employees WHERE employee_id = ?",
		int(id),
	).Scan(&empID, &emp.FirstName, &emp.LastNameInitial)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	emp.ID = timeclock.EmployeeID(empID)
	return &emp, nil
}

// ListEmployees returns all employees ordered by ID.
func (s *Store) ListEmployees(ctx context.Context) ([]timeclock.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT employee_id, first_name, last_name FROM employees ORDER BY employee_id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []timeclock.Employee
	for rows.Next() {
		var emp timeclock.Employee
		var empID int
		if err := rows.Scan(&empID, &emp.FirstName, &emp.LastNameInitial); err != nil {
			return nil, err
		}
		emp.ID = timeclock.EmployeeID(empID)
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// =============================================================================
// PUNCH LOGS
// =============================================================================

func eventTable(dir timeclock.Direction) (string, error) {
	switch dir {
	case timeclock.CheckIn:
		return "check_ins", nil
	case timeclock.CheckOut:
		return "check_outs", nil
	}
	return "", fmt.Errorf("unknown direction %q", dir)
}

// AppendEvent adds a punch. A second punch for the same
// (employee, date, direction) returns timeclock.ErrDuplicateEvent.
func (s *Store) AppendEvent(ctx context.Context, ev timeclock.ClockEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	table, err := eventTable(ev.Direction)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := "INSERT INTO " + table + " (employee_id, timestamp, event_date) VALUES (?, ?, ?)"
	_, err = s.db.ExecContext(ctx, query,
		int(ev.EmployeeID),
		timeclock.FormatTimestamp(ev.Timestamp),
		timeclock.FormatDate(ev.Timestamp),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return timeclock.ErrDuplicateEvent
		}
		return fmt.Errorf("failed to append %s: %w", ev.Direction, err)
	}
	return nil
}

// FindEvent returns the punch for (employee, date, direction), or nil.
func (s *Store) FindEvent(ctx context.Context, dir timeclock.Direction, id timeclock.EmployeeID, date time.Time) (*timeclock.ClockEvent, error) {
	table, err := eventTable(dir)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var ts string
	err = s.db.QueryRowContext(ctx,
		"SELECT timestamp FROM "+table+" WHERE employee_id = ? AND event_date = ?",
		int(id), timeclock.FormatDate(date),
	).Scan(&ts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", dir, err)
	}

	t, err := timeclock.ParseTimestamp(ts)
	if err != nil {
		return nil, err
	}
	return &timeclock.ClockEvent{EmployeeID: id, Timestamp: t, Direction: dir}, nil
}

// QueryEvents returns punches in insertion order, check-ins before
// check-outs when no direction is given.
func (s *Store) QueryEvents(ctx context.Context, q timeclock.EventQuery) ([]timeclock.ClockEvent, error) {
	dirs := []timeclock.Direction{timeclock.CheckIn, timeclock.CheckOut}
	if q.Direction != "" {
		dirs = []timeclock.Direction{q.Direction}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []timeclock.ClockEvent
	for _, dir := range dirs {
		evs, err := s.queryEvents(ctx, dir, q)
		if err != nil {
			return nil, err
		}
		events = append(events, evs...)
	}
	return events, nil
}

func (s *Store) queryEvents(ctx context.Context, dir timeclock.Direction, q timeclock.EventQuery) ([]timeclock.ClockEvent, error) {
	table, err := eventTable(dir)
	if err != nil {
		return nil, err
	}

	var where []string
	var args []any
	if q.EmployeeID != nil {
		where = append(where, "employee_id = ?")
		args = append(args, int(*q.EmployeeID))
	}
	if q.Date != nil {
		where = append(where, "event_date = ?")
		args = append(args, timeclock.FormatDate(*q.Date))
	}
	if q.From != nil {
		where = append(where, "event_date >= ?")
		args = append(args, timeclock.FormatDate(*q.From))
	}
	if q.To != nil {
		where = append(where, "event_date <= ?")
		args = append(args, timeclock.FormatDate(*q.To))
	}

	query := "SELECT employee_id, timestamp FROM " + table
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var events []timeclock.ClockEvent
	for rows.Next() {
		var empID int
		var ts string
		if err := rows.Scan(&empID, &ts); err != nil {
			return nil, err
		}
		t, err := timeclock.ParseTimestamp(ts)
		if err != nil {
			return nil, err
		}
		events = append(events, timeclock.ClockEvent{
			EmployeeID: timeclock.EmployeeID(empID),
			Timestamp:  t,
			Direction:  dir,
		})
	}
	return events, rows.Err()
}

// =============================================================================
// WEEKLY REPORT
// =============================================================================

// UpsertWeeklyRows writes all rows in one transaction, replacing any
// existing row for the same employee.
func (s *Store) UpsertWeeklyRows(ctx context.Context, rows []timeclock.WeeklyReportRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	query := `
		INSERT INTO weekly_report (full_name, employee_id, total_hours,
			day0, day1, day2, day3, day4, day5, day6,
			in_comments, out_comments, week_start, week_end, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id) DO UPDATE SET
			full_name = excluded.full_name,
			total_hours = excluded.total_hours,
			day0 = excluded.day0,
			day1 = excluded.day1,
			day2 = excluded.day2,
			day3 = excluded.day3,
			day4 = excluded.day4,
			day5 = excluded.day5,
			day6 = excluded.day6,
			in_comments = excluded.in_comments,
			out_comments = excluded.out_comments,
			week_start = excluded.week_start,
			week_end = excluded.week_end,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range rows {
		args := []any{r.FullName, int(r.EmployeeID), r.TotalHours.String()}
		for col := 0; col < 7; col++ {
			args = append(args, r.Hours[timeclock.WeekdayForColumn(col)].String())
		}
		args = append(args,
			r.CheckInComment, r.CheckOutComment,
			timeclock.FormatDate(r.Week.Start), timeclock.FormatDate(r.Week.End),
			now,
		)
		if _, err := sqlTx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to upsert weekly row for %s: %w", r.EmployeeID, err)
		}
	}

	return sqlTx.Commit()
}

// ListWeeklyRows returns the stored weekly report ordered by employee ID.
func (s *Store) ListWeeklyRows(ctx context.Context) ([]timeclock.WeeklyReportRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT full_name, employee_id, total_hours,
			day0, day1, day2, day3, day4, day5, day6,
			in_comments, out_comments, week_start, week_end
		FROM weekly_report
		ORDER BY employee_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list weekly report: %w", err)
	}
	defer rows.Close()

	var out []timeclock.WeeklyReportRow
	for rows.Next() {
		var r timeclock.WeeklyReportRow
		var empID int
		var total, weekStart, weekEnd string
		var days [7]string
		if err := rows.Scan(&r.FullName, &empID, &total,
			&days[0], &days[1], &days[2], &days[3], &days[4], &days[5], &days[6],
			&r.CheckInComment, &r.CheckOutComment, &weekStart, &weekEnd,
		); err != nil {
			return nil, err
		}
		r.EmployeeID = timeclock.EmployeeID(empID)
		if r.TotalHours, err = parseDecimal("total_hours", total); err != nil {
			return nil, err
		}
		for col, v := range days {
			if r.Hours[timeclock.WeekdayForColumn(col)], err = parseDecimal(fmt.Sprintf("day%d", col), v); err != nil {
				return nil, err
			}
		}
		if r.Week, err = parseWeek(weekStart, weekEnd); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// AUDIT LOG
// =============================================================================

// AppendAuditLog records a diagnostic message.
func (s *Store) AppendAuditLog(ctx context.Context, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO audit_log (log_message, created_at) VALUES (?, ?)",
		message, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit log: %w", err)
	}
	return nil
}

// AuditLog returns the most recent messages, newest first. Used by tests
// and the admin tooling; the engine itself never reads it back.
func (s *Store) AuditLog(ctx context.Context, limit int) ([]timeclock.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT log_message, created_at FROM audit_log ORDER BY id DESC LIMIT ?", limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []timeclock.AuditEntry
	for rows.Next() {
		var e timeclock.AuditEntry
		var createdAt string
		if err := rows.Scan(&e.Message, &createdAt); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse audit created_at %q: %w", createdAt, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// REPORT RUNS
// =============================================================================

// SaveReportRun inserts or updates the run for its week.
func (s *Store) SaveReportRun(ctx context.Context, r timeclock.ReportRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO report_runs (id, week_start, week_end, status, row_count, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(week_start, week_end) DO UPDATE SET
			id = excluded.id,
			status = excluded.status,
			row_count = excluded.row_count,
			error = excluded.error,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at
	`

	var completedAt *string
	if r.CompletedAt != nil {
		v := r.CompletedAt.UTC().Format(time.RFC3339)
		completedAt = &v
	}

	_, err := s.db.ExecContext(ctx, query,
		r.ID,
		timeclock.FormatDate(r.Week.Start), timeclock.FormatDate(r.Week.End),
		string(r.Status), r.Rows, nullString(r.Error),
		r.StartedAt.UTC().Format(time.RFC3339), completedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save report run: %w", err)
	}
	return nil
}

// IsReportComplete checks if the week already has a completed run.
func (s *Store) IsReportComplete(ctx context.Context, week timeclock.Week) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM report_runs
		WHERE week_start = ? AND week_end = ? AND status = 'completed'
	`, timeclock.FormatDate(week.Start), timeclock.FormatDate(week.End)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListReportRuns returns runs, newest first. An empty status matches all.
func (s *Store) ListReportRuns(ctx context.Context, status timeclock.RunStatus) ([]timeclock.ReportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, week_start, week_end, status, row_count, error, started_at, completed_at
		FROM report_runs
	`
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY started_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []timeclock.ReportRun
	for rows.Next() {
		var r timeclock.ReportRun
		var weekStart, weekEnd, runStatus, startedAt string
		var runErr, completedAt sql.NullString
		if err := rows.Scan(&r.ID, &weekStart, &weekEnd, &runStatus, &r.Rows, &runErr, &startedAt, &completedAt); err != nil {
			return nil, err
		}
		if r.Week, err = parseWeek(weekStart, weekEnd); err != nil {
			return nil, err
		}
		r.Status = timeclock.RunStatus(runStatus)
		r.Error = runErr.String
		if r.StartedAt, err = time.Parse(time.RFC3339, startedAt); err != nil {
			return nil, fmt.Errorf("failed to parse run started_at %q: %w", startedAt, err)
		}
		if completedAt.Valid {
			t, err := time.Parse(time.RFC3339, completedAt.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse run completed_at %q: %w", completedAt.String, err)
			}
			r.CompletedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseDecimal(column, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse %s %q: %w", column, s, err)
	}
	return d, nil
}

func parseWeek(start, end string) (timeclock.Week, error) {
	var w timeclock.Week
	var err error
	if w.Start, err = time.Parse(timeclock.DateLayout, start); err != nil {
		return w, fmt.Errorf("failed to parse week_start %q: %w", start, err)
	}
	if w.End, err = time.Parse(timeclock.DateLayout, end); err != nil {
		return w, fmt.Errorf("failed to parse week_end %q: %w", end, err)
	}
	return w, nil
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
