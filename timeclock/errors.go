/*
errors.go - Centralized error types for the time-tracking engine

ERROR CATEGORIES:
  1. Validation errors - unknown/out-of-range employee ID, malformed date
  2. Duplicate punches - same-day clock-in or clock-out repeated
  3. Store errors - commit could not complete (fatal for the operation)

Validation and duplicate conditions never reach callers of Recorder as
errors; they are turned into Outcome values with a bilingual message.
Store errors always propagate.

SEE ALSO:
  - recorder.go: maps errors to Outcome
  - store/sqlite/sqlite.go: maps UNIQUE violations to ErrDuplicateEvent
*/
package timeclock

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicateEvent is returned when an event already exists for
	// (employee, date, direction).
	ErrDuplicateEvent = errors.New("duplicate clock event on same day")

	// ErrEmployeeNotFound is returned when an ID does not resolve to an employee.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrInvalidEmployeeID is returned for IDs outside [0, 9999] or non-numeric input.
	ErrInvalidEmployeeID = errors.New("invalid employee id")

	// ErrInvalidEmployeeName is returned for an empty first name or a last-name
	// initial that is not exactly one letter.
	ErrInvalidEmployeeName = errors.New("invalid employee name")

	// ErrInvalidDirection is returned for a direction other than check-in or check-out.
	ErrInvalidDirection = errors.New("invalid punch direction")

	// ErrInvalidDate is returned for dates that do not parse as YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvertedPunch is logged when a check-out precedes the check-in.
	ErrInvertedPunch = errors.New("check-out precedes check-in")

	// ErrStorageFailure wraps any failure to read from or commit to the store.
	ErrStorageFailure = errors.New("storage failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes rejected input.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// DuplicateEventError provides details about a same-day repeat.
type DuplicateEventError struct {
	EmployeeID EmployeeID
	Direction  Direction
	Date       time.Time
	Existing   time.Time
}

func (e *DuplicateEventError) Error() string {
	return fmt.Sprintf("%s already recorded for employee %s on %s (at %s)",
		e.Direction, e.EmployeeID, FormatDate(e.Date), FormatTimestamp(e.Existing))
}

func (e *DuplicateEventError) Unwrap() error { return ErrDuplicateEvent }

// storageError marks err as a StorageFailure while keeping the cause.
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorageFailure) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorageFailure, err)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidEmployeeID) ||
		errors.Is(err, ErrInvalidEmployeeName) ||
		errors.Is(err, ErrInvalidDirection) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrDuplicateEvent)
}

// IsNotFound returns true if the error indicates a missing employee.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound)
}
