/*
dto.go - Data Transfer Objects for API requests and responses

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request structs carry validator/v10 tags; handlers run them before
  touching the domain. Employee IDs arrive from the keypad as exactly four
  digits.
*/
package api

import (
	"time"

	"github.com/warp/timeclock/timeclock"
)

// ClockRequest is the body of clock-in and clock-out.
type ClockRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,len=4,numeric"`
}

// ClockResponseDTO is returned for every clock request that reached the domain.
type ClockResponseDTO struct {
	Status     string              `json:"status"`
	EmployeeID string              `json:"employee_id,omitempty"`
	Direction  string              `json:"direction"`
	Timestamp  string              `json:"timestamp,omitempty"`
	Message    timeclock.Bilingual `json:"message"`
}

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	EmployeeID      string `json:"employee_id"`
	FirstName       string `json:"first_name"`
	LastNameInitial string `json:"last_name_initial"`
	FullName        string `json:"full_name"`
}

// UpsertEmployeeRequest creates or renames an employee.
type UpsertEmployeeRequest struct {
	EmployeeID      string `json:"employee_id" validate:"required,min=1,max=4,numeric"`
	FirstName       string `json:"first_name" validate:"required,max=64"`
	LastNameInitial string `json:"last_name_initial" validate:"required,len=1,alphaunicode"`
}

// DailyHoursDTO is one reconciled day.
type DailyHoursDTO struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	Hours      string `json:"hours"`
	CheckedIn  bool   `json:"checked_in"`
	CheckedOut bool   `json:"checked_out"`
}

// WeeklyRowDTO is one line of the weekly report. Hours are keyed by day name.
type WeeklyRowDTO struct {
	EmployeeID      string            `json:"employee_id"`
	FullName        string            `json:"full_name"`
	WeekStart       string            `json:"week_start"`
	WeekEnd         string            `json:"week_end"`
	TotalHours      string            `json:"total_hours"`
	Hours           map[string]string `json:"hours"`
	CheckInComment  string            `json:"check_in_comment"`
	CheckOutComment string            `json:"check_out_comment"`
}

// ReportRunDTO describes a report generation run.
type ReportRunDTO struct {
	ID          string  `json:"id"`
	WeekStart   string  `json:"week_start"`
	WeekEnd     string  `json:"week_end"`
	Status      string  `json:"status"`
	Rows        int     `json:"rows"`
	Error       string  `json:"error,omitempty"`
	StartedAt   string  `json:"started_at"`
	CompletedAt *string `json:"completed_at,omitempty"`
}

// SchedulerDTO reports scheduler state.
type SchedulerDTO struct {
	State      string `json:"state"`
	Enabled    bool   `json:"enabled"`
	NextWindow string `json:"next_window"`
	Window     string `json:"window"`
}

// ErrorResponse is the body of non-domain errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toEmployeeDTO(e timeclock.Employee) EmployeeDTO {
	return EmployeeDTO{
		EmployeeID:      e.ID.String(),
		FirstName:       e.FirstName,
		LastNameInitial: e.LastNameInitial,
		FullName:        e.FullName(),
	}
}

func toDailyHoursDTO(d timeclock.DailyHours) DailyHoursDTO {
	return DailyHoursDTO{
		EmployeeID: d.EmployeeID.String(),
		Date:       timeclock.FormatDate(d.Date),
		Hours:      d.Hours.StringFixed(timeclock.HoursPrecision),
		CheckedIn:  d.CheckedIn,
		CheckedOut: d.CheckedOut,
	}
}

func toWeeklyRowDTO(r timeclock.WeeklyReportRow) WeeklyRowDTO {
	hours := make(map[string]string, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		hours[d.String()] = r.Hours[d].StringFixed(timeclock.HoursPrecision)
	}
	return WeeklyRowDTO{
		EmployeeID:      r.EmployeeID.String(),
		FullName:        r.FullName,
		WeekStart:       timeclock.FormatDate(r.Week.Start),
		WeekEnd:         timeclock.FormatDate(r.Week.End),
		TotalHours:      r.TotalHours.StringFixed(timeclock.HoursPrecision),
		Hours:           hours,
		CheckInComment:  r.CheckInComment,
		CheckOutComment: r.CheckOutComment,
	}
}

func toReportRunDTO(r timeclock.ReportRun) ReportRunDTO {
	dto := ReportRunDTO{
		ID:        r.ID,
		WeekStart: timeclock.FormatDate(r.Week.Start),
		WeekEnd:   timeclock.FormatDate(r.Week.End),
		Status:    string(r.Status),
		Rows:      r.Rows,
		Error:     r.Error,
		StartedAt: r.StartedAt.Format(time.RFC3339),
	}
	if r.CompletedAt != nil {
		s := r.CompletedAt.Format(time.RFC3339)
		dto.CompletedAt = &s
	}
	return dto
}
