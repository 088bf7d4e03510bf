/*
aggregator.go - Weekly hours table

PURPOSE:
  For a Sunday-Saturday work week and a roster of employees, reconciles
  every (employee, day), rounds each day to 2 decimals, sums the rounded
  values into the weekly total and builds the missed-punch comments.

IDEMPOTENCY:
  Rows are upserted by employee ID, so re-running the same week replaces
  the previous rows instead of adding new ones.

SEE ALSO:
  - reconciler.go: per-day hours
  - week.go: ReportWeek windowing, MissedComment
*/
package timeclock

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// HoursPrecision is the number of decimals kept per day.
const HoursPrecision = 2

// Aggregator builds and stores weekly report rows.
type Aggregator struct {
	store      Store
	reconciler *Reconciler
	logger     *zap.Logger
}

// NewAggregator creates an aggregator over store.
func NewAggregator(store Store, reconciler *Reconciler, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reconciler == nil {
		reconciler = NewReconciler(store, logger)
	}
	return &Aggregator{store: store, reconciler: reconciler, logger: logger.Named("aggregator")}
}

// Aggregate reports the work week preceding ref (see ReportWeek).
func (a *Aggregator) Aggregate(ctx context.Context, roster []Employee, ref time.Time) ([]WeeklyReportRow, error) {
	return a.AggregateWeek(ctx, roster, ReportWeek(ref))
}

// AggregateWeek builds one row per roster entry for week and upserts them.
func (a *Aggregator) AggregateWeek(ctx context.Context, roster []Employee, week Week) ([]WeeklyReportRow, error) {
	rows := make([]WeeklyReportRow, 0, len(roster))
	for _, emp := range roster {
		row, err := a.buildRow(ctx, emp, week)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	if err := a.store.UpsertWeeklyRows(ctx, rows); err != nil {
		return nil, storageError("upsert weekly rows", err)
	}

	a.logger.Info("weekly report aggregated",
		zap.String("week", week.Key()),
		zap.Int("employees", len(rows)),
	)
	return rows, nil
}

func (a *Aggregator) buildRow(ctx context.Context, emp Employee, week Week) (WeeklyReportRow, error) {
	row := WeeklyReportRow{
		EmployeeID: emp.ID,
		FullName:   emp.FullName(),
		TotalHours: decimal.Zero,
		Week:       week,
	}
	for i := range row.Hours {
		row.Hours[i] = decimal.Zero
	}

	var missedIn, missedOut [7]bool
	for _, day := range week.Days() {
		daily, err := a.reconciler.Reconcile(ctx, emp.ID, day)
		if err != nil {
			return row, err
		}
		wd := day.Weekday()
		hours := daily.Hours.Round(HoursPrecision)
		row.Hours[wd] = row.Hours[wd].Add(hours)
		row.TotalHours = row.TotalHours.Add(hours)
		missedIn[wd] = !daily.CheckedIn
		missedOut[wd] = !daily.CheckedOut
	}
	row.CheckInComment = MissedComment(missedIn)
	row.CheckOutComment = MissedComment(missedOut)
	return row, nil
}
