package timeclock_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timeclock/timeclock"
	memstore "github.com/warp/timeclock/timeclock/store"
)

// Report generated Monday 2023-08-28 covers Sun 08-20 through Sat 08-26.
var reportMonday = at(2023, 8, 28, 23, 0)

func TestAggregate_NoPunches_AllDaysMissed(t *testing.T) {
	// GIVEN: An employee with no punches in the week
	store := memstore.NewMemory()
	agg := timeclock.NewAggregator(store, nil, nil)

	// WHEN: Aggregating
	rows, err := agg.Aggregate(context.Background(), []timeclock.Employee{ana}, reportMonday)

	// THEN: Zero hours, both comments list every day
	require.NoError(t, err)
	require.Len(t, rows, 1)
	row := rows[0]
	assert.True(t, row.TotalHours.IsZero())
	assert.Equal(t, "Missed: All Days", row.CheckInComment)
	assert.Equal(t, "Missed: All Days", row.CheckOutComment)
	assert.Equal(t, timeclock.NewDate(2023, 8, 20), row.Week.Start)
	assert.Equal(t, timeclock.NewDate(2023, 8, 26), row.Week.End)
	assert.Len(t, store.AuditMessages(), 14)
}

func TestAggregate_SumsRoundedDays(t *testing.T) {
	// GIVEN: Full punches Mon-Fri with an 8h20m Monday, nothing on the weekend
	store := memstore.NewMemory()
	for d := 21; d <= 25; d++ {
		punch(t, store, timeclock.CheckIn, ana.ID, at(2023, 8, d, 8, 0))
		end := at(2023, 8, d, 16, 0)
		if d == 21 {
			end = at(2023, 8, d, 16, 20)
		}
		punch(t, store, timeclock.CheckOut, ana.ID, end)
	}
	agg := timeclock.NewAggregator(store, nil, nil)

	rows, err := agg.Aggregate(context.Background(), []timeclock.Employee{ana}, reportMonday)

	require.NoError(t, err)
	row := rows[0]
	assert.Equal(t, "8.33", row.HoursOn(time.Monday).StringFixed(2))
	assert.Equal(t, "8.00", row.HoursOn(time.Friday).StringFixed(2))
	assert.True(t, row.HoursOn(time.Sunday).IsZero())
	// 8.33 + 4 * 8.00
	assert.Equal(t, "40.33", row.TotalHours.StringFixed(2))
	assert.Equal(t, "Missed: Sun, Sat", row.CheckInComment)
	assert.Equal(t, "Missed: Sun, Sat", row.CheckOutComment)
	assert.Equal(t, "Ana G", row.FullName)
}

func TestAggregate_MissedCheckOut_Defaults12(t *testing.T) {
	store := memstore.NewMemory()
	punch(t, store, timeclock.CheckIn, ana.ID, at(2023, 8, 23, 8, 0))
	agg := timeclock.NewAggregator(store, nil, nil)

	rows, err := agg.Aggregate(context.Background(), []timeclock.Employee{ana}, reportMonday)

	require.NoError(t, err)
	row := rows[0]
	assert.Equal(t, "12.00", row.HoursOn(time.Wednesday).StringFixed(2))
	assert.Equal(t, "12.00", row.TotalHours.StringFixed(2))
	assert.Equal(t, "Missed: Sun, Mon, Tues, Thurs, Fri, Sat", row.CheckInComment)
	assert.Equal(t, "Missed: All Days", row.CheckOutComment)
}

func TestAggregate_Rerun_ReplacesRows(t *testing.T) {
	// GIVEN: A week already aggregated once
	store := memstore.NewMemory()
	ctx := context.Background()
	agg := timeclock.NewAggregator(store, nil, nil)
	_, err := agg.Aggregate(ctx, []timeclock.Employee{ana}, reportMonday)
	require.NoError(t, err)

	// WHEN: A late punch arrives and the week is re-run
	punch(t, store, timeclock.CheckIn, ana.ID, at(2023, 8, 22, 8, 0))
	punch(t, store, timeclock.CheckOut, ana.ID, at(2023, 8, 22, 12, 0))
	_, err = agg.Aggregate(ctx, []timeclock.Employee{ana}, reportMonday)
	require.NoError(t, err)

	// THEN: Still one row, with the new total
	rows, err := store.ListWeeklyRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "4.00", rows[0].TotalHours.StringFixed(2))
}

func TestAggregate_TuesdayTrigger_SameWeekAsMonday(t *testing.T) {
	store := memstore.NewMemory()
	agg := timeclock.NewAggregator(store, nil, nil)

	rows, err := agg.Aggregate(context.Background(), []timeclock.Employee{ana}, at(2023, 8, 29, 1, 30))

	require.NoError(t, err)
	assert.Equal(t, timeclock.NewDate(2023, 8, 20), rows[0].Week.Start)
}

func TestAggregate_EmptyRoster(t *testing.T) {
	store := memstore.NewMemory()
	agg := timeclock.NewAggregator(store, nil, nil)

	rows, err := agg.Aggregate(context.Background(), nil, reportMonday)

	require.NoError(t, err)
	assert.Empty(t, rows)
}
