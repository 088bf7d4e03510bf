package timeclock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/timeclock/timeclock"
)

func TestReportWeek(t *testing.T) {
	tests := []struct {
		name      string
		ref       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"monday", at(2023, 8, 28, 23, 0), timeclock.NewDate(2023, 8, 20), timeclock.NewDate(2023, 8, 26)},
		{"tuesday after midnight", at(2023, 8, 29, 2, 0), timeclock.NewDate(2023, 8, 20), timeclock.NewDate(2023, 8, 26)},
		{"sunday", at(2023, 9, 3, 12, 0), timeclock.NewDate(2023, 8, 20), timeclock.NewDate(2023, 8, 26)},
		{"across month", at(2023, 9, 4, 23, 0), timeclock.NewDate(2023, 8, 27), timeclock.NewDate(2023, 9, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := timeclock.ReportWeek(tt.ref)
			assert.Equal(t, tt.wantStart, w.Start)
			assert.Equal(t, tt.wantEnd, w.End)
			assert.Equal(t, time.Sunday, w.Start.Weekday())
			assert.Equal(t, time.Saturday, w.End.Weekday())
		})
	}
}

func TestLastCompleteWeek(t *testing.T) {
	// Saturday itself is not complete yet
	w := timeclock.LastCompleteWeek(at(2023, 8, 26, 22, 0))
	assert.Equal(t, timeclock.NewDate(2023, 8, 19), w.End)

	w = timeclock.LastCompleteWeek(at(2023, 8, 27, 0, 0))
	assert.Equal(t, timeclock.NewDate(2023, 8, 20), w.Start)
	assert.Equal(t, timeclock.NewDate(2023, 8, 26), w.End)

	w = timeclock.LastCompleteWeek(at(2023, 8, 28, 23, 0))
	assert.Equal(t, timeclock.NewDate(2023, 8, 26), w.End)
}

func TestWeek_DaysAndKey(t *testing.T) {
	w := timeclock.WeekStartingOn(timeclock.NewDate(2023, 8, 20))

	days := w.Days()
	assert.Len(t, days, 7)
	assert.Equal(t, time.Sunday, days[0].Weekday())
	assert.Equal(t, time.Saturday, days[6].Weekday())
	assert.Equal(t, "2023-08-20_2023-08-26", w.Key())
	assert.True(t, w.Contains(at(2023, 8, 26, 23, 59)))
	assert.False(t, w.Contains(at(2023, 8, 27, 0, 0)))
}

func TestDayColumn_RoundTrip(t *testing.T) {
	assert.Equal(t, 0, timeclock.DayColumn(time.Monday))
	assert.Equal(t, 5, timeclock.DayColumn(time.Saturday))
	assert.Equal(t, 6, timeclock.DayColumn(time.Sunday))
	for d := time.Sunday; d <= time.Saturday; d++ {
		assert.Equal(t, d, timeclock.WeekdayForColumn(timeclock.DayColumn(d)))
	}
}

func TestMissedComment(t *testing.T) {
	var none, all, some [7]bool
	for i := range all {
		all[i] = true
	}
	some[time.Sunday] = true
	some[time.Tuesday] = true
	some[time.Thursday] = true

	assert.Equal(t, "", timeclock.MissedComment(none))
	assert.Equal(t, "Missed: All Days", timeclock.MissedComment(all))
	assert.Equal(t, "Missed: Sun, Tues, Thurs", timeclock.MissedComment(some))
}
