/*
reconciler.go - Turn one day's punch pair into worked hours

POLICY:
  | checked in | checked out | hours                              |
  |------------|-------------|------------------------------------|
  | no         | no          | 0                                  |
  | yes        | no          | 12 (forgot to clock out, flagged)  |
  | no         | yes         | 12 (forgot to clock in, flagged)   |
  | yes        | yes         | (out - in) / 3600s                 |

  Every missing punch appends an audit log entry naming the employee and
  date. A check-out before the check-in yields 0 hours and an audit entry;
  the duration is never negated. Preview applies the same policy without
  writing audit entries, for read-only callers.

KNOWN LIMITATION:
  Both punches are looked up by the same calendar date, so a shift that
  crosses midnight shows up as a missed check-out on the first day and a
  missed check-in on the second, each defaulted to 12 hours.
*/
package timeclock

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MissedPunchHours is credited when exactly one punch of the pair exists.
var MissedPunchHours = decimal.NewFromInt(12)

var secondsPerHour = decimal.NewFromInt(3600)

// Reconciler resolves daily hours from stored punches.
type Reconciler struct {
	store  Store
	logger *zap.Logger
}

// NewReconciler creates a reconciler. A nil logger disables logging.
func NewReconciler(store Store, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{store: store, logger: logger.Named("reconciler")}
}

// Reconcile returns the hours worked by id on date, auditing missed and
// inverted punches.
func (r *Reconciler) Reconcile(ctx context.Context, id EmployeeID, date time.Time) (DailyHours, error) {
	return r.reconcile(ctx, id, date, r.audit)
}

// Preview returns the same hours as Reconcile but writes nothing.
func (r *Reconciler) Preview(ctx context.Context, id EmployeeID, date time.Time) (DailyHours, error) {
	return r.reconcile(ctx, id, date, func(context.Context, string, ...any) error { return nil })
}

type auditFunc func(ctx context.Context, format string, args ...any) error

func (r *Reconciler) reconcile(ctx context.Context, id EmployeeID, date time.Time, audit auditFunc) (DailyHours, error) {
	date = DateOf(date)
	result := DailyHours{EmployeeID: id, Date: date, Hours: decimal.Zero}

	in, err := r.store.FindEvent(ctx, CheckIn, id, date)
	if err != nil {
		return result, storageError("find check-in", err)
	}
	out, err := r.store.FindEvent(ctx, CheckOut, id, date)
	if err != nil {
		return result, storageError("find check-out", err)
	}
	result.CheckedIn = in != nil
	result.CheckedOut = out != nil

	if !result.CheckedIn {
		if err := audit(ctx, "Employee ID #%d never clocked in on %s", int(id), FormatDate(date)); err != nil {
			return result, err
		}
	}
	if !result.CheckedOut {
		if err := audit(ctx, "Employee ID #%d never clocked out on %s", int(id), FormatDate(date)); err != nil {
			return result, err
		}
	}

	switch {
	case !result.CheckedIn && !result.CheckedOut:
		result.Hours = decimal.Zero
	case result.CheckedIn != result.CheckedOut:
		result.Hours = MissedPunchHours
	default:
		elapsed := out.Timestamp.Sub(in.Timestamp)
		if elapsed < 0 {
			r.logger.Warn("inverted punch pair",
				zap.Stringer("employee_id", id),
				zap.String("date", FormatDate(date)),
				zap.Error(ErrInvertedPunch),
			)
			if err := audit(ctx, "Employee ID #%d clocked out at %s before clocking in at %s",
				int(id), FormatTimestamp(out.Timestamp), FormatTimestamp(in.Timestamp)); err != nil {
				return result, err
			}
			return result, nil
		}
		result.Hours = decimal.NewFromInt(int64(elapsed / time.Second)).Div(secondsPerHour)
	}
	return result, nil
}

func (r *Reconciler) audit(ctx context.Context, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if err := r.store.AppendAuditLog(ctx, msg); err != nil {
		return storageError("append audit log", err)
	}
	return nil
}
