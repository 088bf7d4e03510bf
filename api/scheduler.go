/*
scheduler.go - Weekly report scheduler

PURPOSE:
  Generates the weekly hours report exactly once per work week, inside a
  fixed wall-clock window of the facility timezone.

STATES:
  Idle        waiting for the next tick inside the window
  Generating  aggregation in progress

  A trigger that arrives while Generating is dropped and logged.

WINDOW:
  Default Monday 23:00 through Tuesday 03:00 facility time. The window is
  checked every CheckInterval. The reported week is the last Sunday-Saturday
  week that ended before the day the window opened, so a tick at Tuesday
  01:00 still reports the same week as one at Monday 23:30.

ONCE PER WEEK:
  A completed run is stored per week; later ticks in the same window, or
  after a restart, see it and skip. RunNow ignores that check.

SEE ALSO:
  - timeclock/aggregator.go: builds the rows
  - report/report.go: writes the files
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/timeclock/report"
	"github.com/warp/timeclock/timeclock"
)

// ErrSchedulerBusy is returned when a run is requested during another run.
var ErrSchedulerBusy = errors.New("report generation already in progress")

// SchedulerState is Idle or Generating.
type SchedulerState string

const (
	StateIdle       SchedulerState = "idle"
	StateGenerating SchedulerState = "generating"
)

// ReportStore is what the scheduler needs from storage.
type ReportStore interface {
	timeclock.Store
	timeclock.RunStore
}

// Window is a weekly wall-clock window. It opens at StartHour on Weekday and
// closes at EndHour, on the following day when EndHour <= StartHour.
type Window struct {
	Weekday   time.Weekday
	StartHour int
	EndHour   int
}

// DefaultWindow is Monday 23:00 to Tuesday 03:00.
var DefaultWindow = Window{Weekday: time.Monday, StartHour: 23, EndHour: 3}

func (w Window) wraps() bool { return w.EndHour <= w.StartHour }

// Contains reports whether facility wall time t is inside the window.
func (w Window) Contains(t time.Time) bool {
	h := t.Hour()
	if !w.wraps() {
		return t.Weekday() == w.Weekday && h >= w.StartHour && h < w.EndHour
	}
	next := (w.Weekday + 1) % 7
	return (t.Weekday() == w.Weekday && h >= w.StartHour) || (t.Weekday() == next && h < w.EndHour)
}

// Anchor returns the date the window containing t opened on.
func (w Window) Anchor(t time.Time) time.Time {
	d := timeclock.DateOf(t)
	if w.wraps() && t.Weekday() != w.Weekday {
		return d.AddDate(0, 0, -1)
	}
	return d
}

// NextOpen returns the next opening at or after t.
func (w Window) NextOpen(t time.Time) time.Time {
	d := timeclock.DateOf(t)
	days := (int(w.Weekday) - int(d.Weekday()) + 7) % 7
	open := d.AddDate(0, 0, days).Add(time.Duration(w.StartHour) * time.Hour)
	if open.Before(t) {
		open = open.AddDate(0, 0, 7)
	}
	return open
}

func (w Window) String() string {
	return fmt.Sprintf("%s %02d:00-%02d:00", w.Weekday, w.StartHour, w.EndHour)
}

// ReportScheduler triggers weekly aggregation.
type ReportScheduler struct {
	Store         ReportStore
	Aggregator    *timeclock.Aggregator
	Sink          report.Sink
	Clock         timeclock.Clock
	Window        Window
	CheckInterval time.Duration
	Enabled       bool

	logger     *zap.Logger
	generating atomic.Bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewReportScheduler creates a scheduler with the default window and a
// 15 minute check interval.
func NewReportScheduler(store ReportStore, aggregator *timeclock.Aggregator, sink report.Sink, clock timeclock.Clock, logger *zap.Logger) *ReportScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportScheduler{
		Store:         store,
		Aggregator:    aggregator,
		Sink:          sink,
		Clock:         clock,
		Window:        DefaultWindow,
		CheckInterval: 15 * time.Minute,
		Enabled:       true,
		logger:        logger.Named("scheduler"),
	}
}

// Start begins the scheduler.
func (rs *ReportScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.logger.Info("disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)

	go rs.run(rs.ticker, rs.stop)

	rs.logger.Info("started",
		zap.Duration("check_interval", rs.CheckInterval),
		zap.Time("next_window", rs.NextRunTime()),
	)
}

// Stop stops accepting triggers and waits for an in-flight run.
func (rs *ReportScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		rs.logger.Info("stopped")
	}
}

func (rs *ReportScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer rs.wg.Done()

	// Run immediately on start
	rs.checkAndProcess(context.Background())

	for {
		select {
		case <-ticker.C:
			rs.checkAndProcess(context.Background())
		case <-stop:
			return
		}
	}
}

// Tick runs one scheduled check. Returns the run if one was generated.
func (rs *ReportScheduler) Tick(ctx context.Context) (*timeclock.ReportRun, error) {
	return rs.checkAndProcess(ctx)
}

func (rs *ReportScheduler) checkAndProcess(ctx context.Context) (*timeclock.ReportRun, error) {
	now := rs.Clock.Now()
	if !rs.Window.Contains(now) {
		return nil, nil
	}

	week := timeclock.LastCompleteWeek(rs.Window.Anchor(now))
	done, err := rs.Store.IsReportComplete(ctx, week)
	if err != nil {
		rs.logger.Error("checking report status", zap.String("week", week.Key()), zap.Error(err))
		return nil, err
	}
	if done {
		return nil, nil
	}

	run, err := rs.Generate(ctx, week)
	if err != nil && !errors.Is(err, ErrSchedulerBusy) {
		rs.logger.Error("weekly report failed", zap.String("week", week.Key()), zap.Error(err))
	}
	return run, err
}

// RunNow generates the report for the last complete week regardless of the
// window or an earlier completed run.
func (rs *ReportScheduler) RunNow(ctx context.Context) (*timeclock.ReportRun, error) {
	return rs.Generate(ctx, timeclock.LastCompleteWeek(rs.Clock.Now()))
}

// Generate aggregates week for every employee and hands the rows to the sink.
// Only one Generate runs at a time; an overlapping call returns ErrSchedulerBusy.
func (rs *ReportScheduler) Generate(ctx context.Context, week timeclock.Week) (*timeclock.ReportRun, error) {
	if !rs.generating.CompareAndSwap(false, true) {
		rs.logger.Warn("trigger dropped, generation in progress", zap.String("week", week.Key()))
		return nil, ErrSchedulerBusy
	}
	defer rs.generating.Store(false)

	run := timeclock.ReportRun{
		ID:        uuid.NewString(),
		Week:      week,
		Status:    timeclock.RunRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := rs.Store.SaveReportRun(ctx, run); err != nil {
		return nil, err
	}

	fail := func(err error) (*timeclock.ReportRun, error) {
		run.Status = timeclock.RunFailed
		run.Error = err.Error()
		if saveErr := rs.Store.SaveReportRun(ctx, run); saveErr != nil {
			rs.logger.Error("saving failed run", zap.Error(saveErr))
		}
		return &run, err
	}

	roster, err := rs.Store.ListEmployees(ctx)
	if err != nil {
		return fail(err)
	}
	rows, err := rs.Aggregator.AggregateWeek(ctx, roster, week)
	if err != nil {
		return fail(err)
	}
	if rs.Sink != nil {
		if _, err := rs.Sink.Write(ctx, week, rows); err != nil {
			return fail(err)
		}
	}

	completed := time.Now().UTC()
	run.Status = timeclock.RunCompleted
	run.Rows = len(rows)
	run.CompletedAt = &completed
	if err := rs.Store.SaveReportRun(ctx, run); err != nil {
		return &run, err
	}

	rs.logger.Info("weekly report generated", zap.String("week", week.Key()), zap.Int("rows", len(rows)))
	return &run, nil
}

// State reports whether a run is in progress.
func (rs *ReportScheduler) State() SchedulerState {
	if rs.generating.Load() {
		return StateGenerating
	}
	return StateIdle
}

// NextRunTime returns the next window opening in facility wall time.
func (rs *ReportScheduler) NextRunTime() time.Time {
	return rs.Window.NextOpen(rs.Clock.Now())
}
