package timeclock

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// =============================================================================
// WALL-CLOCK FORMATS
// =============================================================================

const (
	// TimestampLayout is ISO-8601 local date-time at minute precision.
	TimestampLayout = "2006-01-02T15:04"
	// DateLayout is the ISO date portion of TimestampLayout.
	DateLayout = "2006-01-02"
)

// DefaultFacilityTimezone is the facility all punches are interpreted in.
const DefaultFacilityTimezone = "America/Chicago"

// Punch timestamps carry no zone. They are handled as naive wall-clock
// values pinned to UTC so arithmetic never crosses a DST shift.

// Wall strips the zone from t, keeping its wall-clock reading.
func Wall(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// TruncateMinute drops seconds and below.
func TruncateMinute(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}

// NewDate builds a calendar date.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf returns the calendar date of t's wall clock.
func DateOf(t time.Time) time.Time { return NewDate(t.Year(), t.Month(), t.Day()) }

// FormatTimestamp renders t as YYYY-MM-DDTHH:MM.
func FormatTimestamp(t time.Time) string { return t.Format(TimestampLayout) }

// FormatDate renders t's date as YYYY-MM-DD.
func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// ParseTimestamp parses a stored YYYY-MM-DDTHH:MM value.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Value: s, Err: ErrInvalidDate}
	}
	return t, nil
}

// =============================================================================
// FACILITY CLOCK
// =============================================================================

// Clock supplies the current facility wall-clock time.
type Clock interface {
	Now() time.Time
}

// FacilityClock converts a reference UTC clock into the facility's fixed
// local time. The offset is standard (-6h) or daylight (-5h) depending on
// whether the zone observes DST at that instant; the host's local zone is
// never consulted.
type FacilityClock struct {
	zone      *time.Location
	reference func() time.Time

	standardOffset time.Duration
	daylightOffset time.Duration
}

// NewFacilityClock loads the named IANA zone for its DST calendar.
func NewFacilityClock(timezone string) (*FacilityClock, error) {
	if timezone == "" {
		timezone = DefaultFacilityTimezone
	}
	zone, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load facility timezone %q: %w", timezone, err)
	}
	c := &FacilityClock{
		zone:      zone,
		reference: func() time.Time { return time.Now().UTC() },
	}
	c.standardOffset, c.daylightOffset = zoneOffsets(zone)
	return c, nil
}

// zoneOffsets samples January and July of the current year for the two
// offsets of the zone. Zones without DST return the same value twice.
func zoneOffsets(zone *time.Location) (standard, daylight time.Duration) {
	year := time.Now().Year()
	_, jan := time.Date(year, time.January, 1, 12, 0, 0, 0, zone).Zone()
	_, jul := time.Date(year, time.July, 1, 12, 0, 0, 0, zone).Zone()
	if jan > jul {
		jan, jul = jul, jan
	}
	return time.Duration(jan) * time.Second, time.Duration(jul) * time.Second
}

// WithReference swaps the UTC reference clock. Used by tests.
func (c *FacilityClock) WithReference(ref func() time.Time) *FacilityClock {
	cp := *c
	cp.reference = ref
	return &cp
}

// Now returns the facility wall-clock time, minute precision kept intact.
func (c *FacilityClock) Now() time.Time {
	return c.At(c.reference())
}

// At converts an absolute instant into facility wall-clock time.
func (c *FacilityClock) At(instant time.Time) time.Time {
	offset := c.standardOffset
	if instant.In(c.zone).IsDST() {
		offset = c.daylightOffset
	}
	return Wall(instant.UTC().Add(offset))
}

// Location returns the facility zone.
func (c *FacilityClock) Location() *time.Location { return c.zone }

// FixedClock always returns the same instant. Handy for tests and backfills.
type FixedClock struct{ T time.Time }

// Now returns T.
func (f FixedClock) Now() time.Time { return f.T }
