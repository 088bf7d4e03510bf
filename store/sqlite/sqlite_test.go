package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timeclock/store/sqlite"
	"github.com/warp/timeclock/timeclock"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func ts(day, hour, min int) time.Time {
	return time.Date(2023, 8, day, hour, min, 0, 0, time.UTC)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployee_UpsertTwice_KeepsOneRowWithLatestName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertEmployee(ctx, timeclock.Employee{ID: 1001, FirstName: "Ana", LastNameInitial: "G"}))
	require.NoError(t, store.UpsertEmployee(ctx, timeclock.Employee{ID: 1001, FirstName: "Anabel", LastNameInitial: "G"}))

	employees, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, "Anabel", employees[0].FirstName)

	emp, err := store.GetEmployee(ctx, 1001)
	require.NoError(t, err)
	require.NotNil(t, emp)
	assert.Equal(t, "Anabel G", emp.FullName())
}

func TestEmployee_GetUnknown_ReturnsNil(t *testing.T) {
	store := newTestStore(t)

	emp, err := store.GetEmployee(context.Background(), 4242)

	require.NoError(t, err)
	assert.Nil(t, emp)
}

func TestEmployee_Upsert_RejectsInvalidEntries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		emp     timeclock.Employee
		wantErr error
	}{
		{"id above range", timeclock.Employee{ID: 12345, FirstName: "Ana", LastNameInitial: "G"}, timeclock.ErrInvalidEmployeeID},
		{"negative id", timeclock.Employee{ID: -7, FirstName: "Ana", LastNameInitial: "G"}, timeclock.ErrInvalidEmployeeID},
		{"full last name", timeclock.Employee{ID: 1001, FirstName: "Ana", LastNameInitial: "Garcia"}, timeclock.ErrInvalidEmployeeName},
		{"empty first name", timeclock.Employee{ID: 1001, FirstName: " ", LastNameInitial: "G"}, timeclock.ErrInvalidEmployeeName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.UpsertEmployee(ctx, tt.emp)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, timeclock.IsClientError(err))
		})
	}

	employees, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Empty(t, employees)
}

func TestEmployee_Upsert_AcceptsAccentedInitial(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertEmployee(ctx, timeclock.Employee{ID: 1001, FirstName: "José", LastNameInitial: "Ñ"}))

	emp, err := store.GetEmployee(ctx, 1001)
	require.NoError(t, err)
	require.NotNil(t, emp)
	assert.Equal(t, "José Ñ", emp.FullName())
}

// =============================================================================
// PUNCH LOGS
// =============================================================================

func TestAppendEvent_SameDayTwice_IsDuplicate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendEvent(ctx, timeclock.ClockEvent{EmployeeID: 1001, Timestamp: ts(22, 8, 0), Direction: timeclock.CheckIn}))
	err := store.AppendEvent(ctx, timeclock.ClockEvent{EmployeeID: 1001, Timestamp: ts(22, 9, 30), Direction: timeclock.CheckIn})

	assert.ErrorIs(t, err, timeclock.ErrDuplicateEvent)

	// A check-out the same day is a different log
	require.NoError(t, store.AppendEvent(ctx, timeclock.ClockEvent{EmployeeID: 1001, Timestamp: ts(22, 16, 0), Direction: timeclock.CheckOut}))
}

func TestAppendEvent_RejectsInvalidEvents(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.AppendEvent(ctx, timeclock.ClockEvent{EmployeeID: 12345, Timestamp: ts(22, 8, 0), Direction: timeclock.CheckIn})
	assert.ErrorIs(t, err, timeclock.ErrInvalidEmployeeID)

	err = store.AppendEvent(ctx, timeclock.ClockEvent{EmployeeID: 1001, Timestamp: ts(22, 8, 0), Direction: "lunch"})
	assert.ErrorIs(t, err, timeclock.ErrInvalidDirection)
}

func TestFindEvent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AppendEvent(ctx, timeclock.ClockEvent{EmployeeID: 1001, Timestamp: ts(22, 8, 0), Direction: timeclock.CheckIn}))

	ev, err := store.FindEvent(ctx, timeclock.CheckIn, 1001, timeclock.NewDate(2023, 8, 22))
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, ts(22, 8, 0), ev.Timestamp)

	missing, err := store.FindEvent(ctx, timeclock.CheckOut, 1001, timeclock.NewDate(2023, 8, 22))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestQueryEvents_InsertionOrderAndFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, ev := range []timeclock.ClockEvent{
		{EmployeeID: 2002, Timestamp: ts(21, 7, 55), Direction: timeclock.CheckIn},
		{EmployeeID: 1001, Timestamp: ts(21, 8, 0), Direction: timeclock.CheckIn},
		{EmployeeID: 1001, Timestamp: ts(22, 8, 5), Direction: timeclock.CheckIn},
		{EmployeeID: 1001, Timestamp: ts(29, 8, 0), Direction: timeclock.CheckIn},
	} {
		require.NoError(t, store.AppendEvent(ctx, ev))
	}

	all, err := store.QueryEvents(ctx, timeclock.EventQuery{Direction: timeclock.CheckIn})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, timeclock.EmployeeID(2002), all[0].EmployeeID)

	id := timeclock.EmployeeID(1001)
	from, to := timeclock.NewDate(2023, 8, 20), timeclock.NewDate(2023, 8, 26)
	week, err := store.QueryEvents(ctx, timeclock.EventQuery{EmployeeID: &id, From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, week, 2)
	assert.Equal(t, ts(21, 8, 0), week[0].Timestamp)
	assert.Equal(t, ts(22, 8, 5), week[1].Timestamp)

	day := timeclock.NewDate(2023, 8, 21)
	onDay, err := store.QueryEvents(ctx, timeclock.EventQuery{Date: &day})
	require.NoError(t, err)
	assert.Len(t, onDay, 2)
}

// =============================================================================
// WEEKLY REPORT
// =============================================================================

func TestWeeklyRows_RoundTripAndUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	week := timeclock.WeekStartingOn(timeclock.NewDate(2023, 8, 20))

	row := timeclock.WeeklyReportRow{
		EmployeeID:      1001,
		FullName:        "Ana G",
		TotalHours:      decimal.RequireFromString("20.33"),
		CheckInComment:  "Missed: Sun, Sat",
		CheckOutComment: "Missed: Sun, Sat",
		Week:            week,
	}
	for i := range row.Hours {
		row.Hours[i] = decimal.Zero
	}
	row.Hours[time.Monday] = decimal.RequireFromString("8.33")
	row.Hours[time.Tuesday] = decimal.RequireFromString("12")

	require.NoError(t, store.UpsertWeeklyRows(ctx, []timeclock.WeeklyReportRow{row}))

	// Re-run replaces instead of appending
	row.TotalHours = decimal.RequireFromString("8.33")
	row.Hours[time.Tuesday] = decimal.Zero
	require.NoError(t, store.UpsertWeeklyRows(ctx, []timeclock.WeeklyReportRow{row}))

	rows, err := store.ListWeeklyRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	got := rows[0]
	assert.Equal(t, "8.33", got.TotalHours.StringFixed(2))
	assert.Equal(t, "8.33", got.HoursOn(time.Monday).StringFixed(2))
	assert.True(t, got.HoursOn(time.Tuesday).IsZero())
	assert.True(t, got.HoursOn(time.Sunday).IsZero())
	assert.Equal(t, week.Start, got.Week.Start)
	assert.Equal(t, week.End, got.Week.End)
	assert.Equal(t, "Missed: Sun, Sat", got.CheckInComment)
}

// =============================================================================
// AUDIT LOG
// =============================================================================

func TestAuditLog_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendAuditLog(ctx, "Employee ID #1001 never clocked in on 2023-08-22"))
	require.NoError(t, store.AppendAuditLog(ctx, "Employee ID #1001 never clocked out on 2023-08-23"))

	entries, err := store.AuditLog(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Employee ID #1001 never clocked out on 2023-08-23", entries[0].Message)
}

// =============================================================================
// REPORT RUNS
// =============================================================================

func TestReportRuns_CompleteMarksWeek(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	week := timeclock.WeekStartingOn(timeclock.NewDate(2023, 8, 20))

	run := timeclock.ReportRun{ID: "run-1", Week: week, Status: timeclock.RunRunning, StartedAt: time.Now().UTC()}
	require.NoError(t, store.SaveReportRun(ctx, run))

	done, err := store.IsReportComplete(ctx, week)
	require.NoError(t, err)
	assert.False(t, done)

	completed := time.Now().UTC()
	run.Status = timeclock.RunCompleted
	run.Rows = 3
	run.CompletedAt = &completed
	require.NoError(t, store.SaveReportRun(ctx, run))

	done, err = store.IsReportComplete(ctx, week)
	require.NoError(t, err)
	assert.True(t, done)

	runs, err := store.ListReportRuns(ctx, "")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 3, runs[0].Rows)
	assert.NotNil(t, runs[0].CompletedAt)

	failed, err := store.ListReportRuns(ctx, timeclock.RunFailed)
	require.NoError(t, err)
	assert.Empty(t, failed)
}

// =============================================================================
// DRIVER FAILURES
// =============================================================================

func TestAppendEvent_DriverError_IsNotDuplicate(t *testing.T) {
	// GIVEN: A driver that fails the insert for a reason other than uniqueness
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS employees").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO check_ins").
		WithArgs(1001, "2023-08-22T08:00", "2023-08-22").
		WillReturnError(errors.New("disk I/O error"))

	store, err := sqlite.NewWithDB(db)
	require.NoError(t, err)

	// WHEN: Appending a punch
	err = store.AppendEvent(context.Background(), timeclock.ClockEvent{EmployeeID: 1001, Timestamp: ts(22, 8, 0), Direction: timeclock.CheckIn})

	// THEN: The failure surfaces as-is
	require.Error(t, err)
	assert.NotErrorIs(t, err, timeclock.ErrDuplicateEvent)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertWeeklyRows_FailedRow_RollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS employees").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO weekly_report").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO weekly_report").WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	store, err := sqlite.NewWithDB(db)
	require.NoError(t, err)

	week := timeclock.WeekStartingOn(timeclock.NewDate(2023, 8, 20))
	rows := []timeclock.WeeklyReportRow{
		{EmployeeID: 1001, FullName: "Ana G", Week: week},
		{EmployeeID: 2002, FullName: "Luis M", Week: week},
	}

	err = store.UpsertWeeklyRows(context.Background(), rows)

	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListWeeklyRows_CorruptHours_ReturnsError(t *testing.T) {
	// GIVEN: A stored row whose total is not a number
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS employees").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT full_name").WillReturnRows(sqlmock.NewRows([]string{
		"full_name", "employee_id", "total_hours",
		"day0", "day1", "day2", "day3", "day4", "day5", "day6",
		"in_comments", "out_comments", "week_start", "week_end",
	}).AddRow("Ana G", 1001, "abc",
		"0", "8", "8", "8", "8", "8", "0",
		"", "", "2023-08-20", "2023-08-26",
	))

	store, err := sqlite.NewWithDB(db)
	require.NoError(t, err)

	// WHEN: Listing the report
	rows, err := store.ListWeeklyRows(context.Background())

	// THEN: The bad column is reported instead of read as zero
	require.Error(t, err)
	assert.Contains(t, err.Error(), "total_hours")
	assert.Nil(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListReportRuns_CorruptTimestamp_ReturnsError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS employees").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM report_runs").WillReturnRows(sqlmock.NewRows([]string{
		"id", "week_start", "week_end", "status", "row_count", "error", "started_at", "completed_at",
	}).AddRow("run-1", "2023-08-20", "2023-08-26", "completed", 3, nil, "yesterday", nil))

	store, err := sqlite.NewWithDB(db)
	require.NoError(t, err)

	_, err = store.ListReportRuns(context.Background(), "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "started_at")
	assert.NoError(t, mock.ExpectationsWereMet())
}
