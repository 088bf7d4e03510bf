/*
recorder.go - Clock-in / clock-out with one-punch-per-day enforcement

INVARIANT:
  At most one ClockEvent of a given direction per (employee, date).
  A repeat on the same date is a no-op for the store and is reported to
  the caller as OutcomeDuplicate with an "already clocked in/out today"
  message, never as an error.

FLOW:
  1. Validate the ID range, resolve the employee
  2. Look up today's event for that direction (indexed by employee+date)
  3. If present: return the duplicate message, write nothing
  4. Otherwise append the minute-truncated timestamp

The store's own uniqueness check backs up step 2: if a concurrent punch
sneaks in between lookup and append, ErrDuplicateEvent from the store is
folded into the same OutcomeDuplicate.
*/
package timeclock

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// OutcomeStatus classifies a clock request.
type OutcomeStatus string

const (
	OutcomeRecorded  OutcomeStatus = "recorded"
	OutcomeDuplicate OutcomeStatus = "duplicate"
	OutcomeUnknown   OutcomeStatus = "unknown_employee"
	OutcomeInvalid   OutcomeStatus = "invalid_employee_id"
)

// Outcome is the result of a clock request that did not fail in storage.
// Err carries the typed reason for every status other than OutcomeRecorded:
// a *ValidationError (ErrInvalidEmployeeID, ErrEmployeeNotFound) or a
// *DuplicateEventError.
type Outcome struct {
	Status  OutcomeStatus
	Event   *ClockEvent
	Message Bilingual
	Err     error
}

// Recorded reports whether a new event was written.
func (o Outcome) Recorded() bool { return o.Status == OutcomeRecorded }

// Recorder validates and appends punches.
type Recorder struct {
	store  Store
	clock  Clock
	logger *zap.Logger
}

// NewRecorder creates a recorder. A nil logger disables logging.
func NewRecorder(store Store, clock Clock, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{store: store, clock: clock, logger: logger.Named("recorder")}
}

// ClockIn records a check-in for now.
func (r *Recorder) ClockIn(ctx context.Context, id EmployeeID) (Outcome, error) {
	return r.Record(ctx, CheckIn, id)
}

// ClockOut records a check-out for now.
func (r *Recorder) ClockOut(ctx context.Context, id EmployeeID) (Outcome, error) {
	return r.Record(ctx, CheckOut, id)
}

// Record appends a punch of the given direction at the clock's current time.
// Storage failures and an invalid direction are returned as errors; every
// other rejection is an Outcome.
func (r *Recorder) Record(ctx context.Context, dir Direction, id EmployeeID) (Outcome, error) {
	if !dir.Valid() {
		return Outcome{}, &ValidationError{Field: "direction", Value: string(dir), Err: ErrInvalidDirection}
	}
	if err := id.Validate(); err != nil {
		r.logger.Info("rejected employee id", zap.Error(err))
		return Outcome{Status: OutcomeInvalid, Message: InvalidEmployeeIDMessage(), Err: err}, nil
	}

	emp, err := r.store.GetEmployee(ctx, id)
	if err != nil {
		return Outcome{}, storageError("get employee", err)
	}
	if emp == nil {
		notFound := &ValidationError{Field: "employee_id", Value: id.String(), Err: ErrEmployeeNotFound}
		r.logger.Info("unknown employee", zap.Error(notFound))
		return Outcome{Status: OutcomeUnknown, Message: UnknownEmployeeMessage(id), Err: notFound}, nil
	}

	now := TruncateMinute(Wall(r.clock.Now()))
	today := DateOf(now)

	existing, err := r.store.FindEvent(ctx, dir, id, today)
	if err != nil {
		return Outcome{}, storageError("find event", err)
	}
	if existing != nil {
		return r.duplicate(*emp, dir, today, existing.Timestamp), nil
	}

	ev := ClockEvent{EmployeeID: id, Timestamp: now, Direction: dir}
	if err := r.store.AppendEvent(ctx, ev); err != nil {
		if errors.Is(err, ErrDuplicateEvent) {
			return r.duplicate(*emp, dir, today, now), nil
		}
		return Outcome{}, storageError("append event", err)
	}

	r.logger.Info("punch recorded",
		zap.Stringer("employee_id", id),
		zap.String("direction", string(dir)),
		zap.String("timestamp", FormatTimestamp(now)),
	)
	return Outcome{Status: OutcomeRecorded, Event: &ev, Message: ClockedMessage(*emp, ev)}, nil
}

func (r *Recorder) duplicate(emp Employee, dir Direction, today, existing time.Time) Outcome {
	dup := &DuplicateEventError{EmployeeID: emp.ID, Direction: dir, Date: today, Existing: existing}
	r.logger.Info("duplicate punch ignored", zap.Error(dup))
	return Outcome{Status: OutcomeDuplicate, Message: AlreadyClockedMessage(emp, dir), Err: dup}
}
