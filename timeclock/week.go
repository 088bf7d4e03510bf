package timeclock

import (
	"strings"
	"time"
)

// =============================================================================
// WORK WEEK - The aggregation unit
// =============================================================================

// Week is a Sunday-Saturday work week. Start and End are calendar dates,
// both inclusive.
type Week struct {
	Start time.Time
	End   time.Time
}

// WeekStartingOn returns the 7-day week beginning at start.
func WeekStartingOn(start time.Time) Week {
	start = DateOf(start)
	return Week{Start: start, End: start.AddDate(0, 0, 6)}
}

// ReportWeek returns the work week a report generated at ref covers.
//
// Reports run on the Monday following the week, so the week runs from
// 8 days before that Monday (Sunday) to 2 days before it (Saturday).
// ref is first anchored to the most recent Monday on or before it, which
// keeps a trigger that spills past midnight into Tuesday on the same week.
func ReportWeek(ref time.Time) Week {
	anchor := DateOf(ref)
	back := (int(anchor.Weekday()) - int(time.Monday) + 7) % 7
	anchor = anchor.AddDate(0, 0, -back)
	return Week{Start: anchor.AddDate(0, 0, -8), End: anchor.AddDate(0, 0, -2)}
}

// Days returns the 7 dates of the week, Sunday first.
func (w Week) Days() []time.Time {
	days := make([]time.Time, 0, 7)
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Contains reports whether t's date falls in the week.
func (w Week) Contains(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(w.Start) && !d.After(w.End)
}

// Key identifies the week in file names and run records.
func (w Week) Key() string { return FormatDate(w.Start) + "_" + FormatDate(w.End) }

func (w Week) String() string {
	return "[" + FormatDate(w.Start) + ", " + FormatDate(w.End) + "]"
}

// =============================================================================
// WEEKDAY LABELS
// =============================================================================

var weekdayAbbrev = [7]string{"Sun", "Mon", "Tues", "Wed", "Thurs", "Fri", "Sat"}

// WeekdayAbbrev returns the short label used in missed-punch comments.
func WeekdayAbbrev(d time.Weekday) string { return weekdayAbbrev[d] }

// DayColumn maps a weekday to the report table's day slot, where Monday is
// day0 through Saturday day5 and Sunday is day6.
func DayColumn(d time.Weekday) int { return (int(d) + 6) % 7 }

// WeekdayForColumn inverts DayColumn.
func WeekdayForColumn(col int) time.Weekday { return time.Weekday((col + 1) % 7) }

const (
	missedPrefix  = "Missed: "
	missedAllDays = "Missed: All Days"
)

// MissedComment renders the comment for a set of days without a punch.
// Days are listed Sunday first. An empty set yields "".
func MissedComment(missed [7]bool) string {
	var names []string
	for d := time.Sunday; d <= time.Saturday; d++ {
		if missed[d] {
			names = append(names, weekdayAbbrev[d])
		}
	}
	switch len(names) {
	case 0:
		return ""
	case 7:
		return missedAllDays
	}
	return missedPrefix + strings.Join(names, ", ")
}

// LastCompleteWeek returns the latest Sunday-Saturday week that ended
// strictly before t's date.
func LastCompleteWeek(t time.Time) Week {
	d := DateOf(t)
	back := (int(d.Weekday()) - int(time.Saturday) + 7) % 7
	if back == 0 {
		back = 7
	}
	end := d.AddDate(0, 0, -back)
	return Week{Start: end.AddDate(0, 0, -6), End: end}
}
