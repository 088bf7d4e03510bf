// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/timeclock/timeclock"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	employees map[timeclock.EmployeeID]timeclock.Employee
	events    map[timeclock.Direction][]timeclock.ClockEvent
	byDay     map[eventKey]int
	weekly    map[timeclock.EmployeeID]timeclock.WeeklyReportRow
	audit     []timeclock.AuditEntry
	runs      map[string]timeclock.ReportRun

	// FailWrites, when set, is returned by every mutating call.
	FailWrites error
}

type eventKey struct {
	Direction  timeclock.Direction
	EmployeeID timeclock.EmployeeID
	Date       string
}

func NewMemory() *Memory {
	return &Memory{
		employees: make(map[timeclock.EmployeeID]timeclock.Employee),
		events:    make(map[timeclock.Direction][]timeclock.ClockEvent),
		byDay:     make(map[eventKey]int),
		weekly:    make(map[timeclock.EmployeeID]timeclock.WeeklyReportRow),
		runs:      make(map[string]timeclock.ReportRun),
	}
}

func (m *Memory) UpsertEmployee(_ context.Context, emp timeclock.Employee) error {
	if err := emp.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.employees[emp.ID] = emp
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, id timeclock.EmployeeID) (*timeclock.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employees[id]
	if !ok {
		return nil, nil
	}
	return &emp, nil
}

func (m *Memory) ListEmployees(_ context.Context) ([]timeclock.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]timeclock.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// AppendEvent adds a punch. Append-only.
func (m *Memory) AppendEvent(_ context.Context, ev timeclock.ClockEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	k := eventKey{Direction: ev.Direction, EmployeeID: ev.EmployeeID, Date: timeclock.FormatDate(ev.Timestamp)}
	if _, exists := m.byDay[k]; exists {
		return timeclock.ErrDuplicateEvent
	}
	m.byDay[k] = len(m.events[ev.Direction])
	m.events[ev.Direction] = append(m.events[ev.Direction], ev)
	return nil
}

func (m *Memory) FindEvent(_ context.Context, dir timeclock.Direction, id timeclock.EmployeeID, date time.Time) (*timeclock.ClockEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.byDay[eventKey{Direction: dir, EmployeeID: id, Date: timeclock.FormatDate(date)}]
	if !ok {
		return nil, nil
	}
	ev := m.events[dir][i]
	return &ev, nil
}

func (m *Memory) QueryEvents(_ context.Context, q timeclock.EventQuery) ([]timeclock.ClockEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dirs := []timeclock.Direction{timeclock.CheckIn, timeclock.CheckOut}
	if q.Direction != "" {
		dirs = []timeclock.Direction{q.Direction}
	}
	var out []timeclock.ClockEvent
	for _, dir := range dirs {
		for _, ev := range m.events[dir] {
			if matches(q, ev) {
				out = append(out, ev)
			}
		}
	}
	return out, nil
}

func matches(q timeclock.EventQuery, ev timeclock.ClockEvent) bool {
	if q.EmployeeID != nil && ev.EmployeeID != *q.EmployeeID {
		return false
	}
	day := ev.Date()
	if q.Date != nil && !day.Equal(timeclock.DateOf(*q.Date)) {
		return false
	}
	if q.From != nil && day.Before(timeclock.DateOf(*q.From)) {
		return false
	}
	if q.To != nil && day.After(timeclock.DateOf(*q.To)) {
		return false
	}
	return true
}

// UpsertWeeklyRows replaces rows by employee ID. All or nothing.
func (m *Memory) UpsertWeeklyRows(_ context.Context, rows []timeclock.WeeklyReportRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	for _, r := range rows {
		m.weekly[r.EmployeeID] = r
	}
	return nil
}

func (m *Memory) ListWeeklyRows(_ context.Context) ([]timeclock.WeeklyReportRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]timeclock.WeeklyReportRow, 0, len(m.weekly))
	for _, r := range m.weekly {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (m *Memory) AppendAuditLog(_ context.Context, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.audit = append(m.audit, timeclock.AuditEntry{Message: message, CreatedAt: time.Now().UTC()})
	return nil
}

// AuditMessages returns a copy of the audit log. Test helper.
func (m *Memory) AuditMessages() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.audit))
	for i, e := range m.audit {
		out[i] = e.Message
	}
	return out
}

// =============================================================================
// REPORT RUNS
// =============================================================================

func (m *Memory) SaveReportRun(_ context.Context, run timeclock.ReportRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.runs[run.Week.Key()] = run
	return nil
}

func (m *Memory) IsReportComplete(_ context.Context, week timeclock.Week) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[week.Key()]
	return ok && run.Status == timeclock.RunCompleted, nil
}

func (m *Memory) ListReportRuns(_ context.Context, status timeclock.RunStatus) ([]timeclock.ReportRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []timeclock.ReportRun
	for _, r := range m.runs {
		if status == "" || r.Status == status {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}
