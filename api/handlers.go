/*
handlers.go - HTTP API handlers for the time clock

PURPOSE:
  Exposes punch recording, the employee directory and the weekly report
  to the kiosk UI. Handles HTTP request/response and JSON serialization,
  and delegates to the timeclock package.

ENDPOINTS:
  Punches:
    POST   /api/clock-in                  Record today's check-in
    POST   /api/clock-out                 Record today's check-out

  Employees:
    GET    /api/employees                 List the directory
    POST   /api/employees                 Create or rename an employee
    GET    /api/employees/{id}            Get employee details
    GET    /api/employees/{id}/hours      Preview one day's hours (?date=YYYY-MM-DD)

  Reports:
    GET    /api/reports/weekly            Stored weekly report rows
    POST   /api/reports/weekly/run        Generate the last complete week now
    GET    /api/reports/runs              Run history (?status=)
    GET    /api/scheduler                 Scheduler state and next window

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (validator/v10 tags on the request DTO)
  3. Call the recorder, reconciler or scheduler
  4. Serialize response

ERROR HANDLING:
  Punch endpoints always answer with a bilingual message the kiosk shows
  as-is:
  - 201: Recorded
  - 400: Malformed employee ID
  - 404: Unknown employee
  - 409: Already punched today
  - 500: Storage failure

  Other endpoints answer with ErrorResponse.

SECURITY NOTE:
  No authentication. The service is meant to sit on the facility LAN
  behind the kiosk.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - scheduler.go: Weekly report scheduler
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/warp/timeclock/timeclock"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      ReportStore
	Recorder   *timeclock.Recorder
	Reconciler *timeclock.Reconciler
	Scheduler  *ReportScheduler

	validate *validator.Validate
	logger   *zap.Logger
}

// NewHandler creates a handler. The scheduler may be nil, in which case
// the report run and scheduler endpoints answer 503.
func NewHandler(store ReportStore, recorder *timeclock.Recorder, reconciler *timeclock.Reconciler, scheduler *ReportScheduler, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:      store,
		Recorder:   recorder,
		Reconciler: reconciler,
		Scheduler:  scheduler,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger.Named("api"),
	}
}

// =============================================================================
// PUNCH HANDLERS
// =============================================================================

// ClockIn records a check-in.
func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	h.clock(w, r, timeclock.CheckIn)
}

// ClockOut records a check-out.
func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	h.clock(w, r, timeclock.CheckOut)
}

func (h *Handler) clock(w http.ResponseWriter, r *http.Request, dir timeclock.Direction) {
	var req ClockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, ClockResponseDTO{
			Status:    string(timeclock.OutcomeInvalid),
			Direction: string(dir),
			Message:   timeclock.InvalidEmployeeIDMessage(),
		})
		return
	}

	id, err := timeclock.ParseEmployeeID(req.EmployeeID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ClockResponseDTO{
			Status:    string(timeclock.OutcomeInvalid),
			Direction: string(dir),
			Message:   timeclock.InvalidEmployeeIDMessage(),
		})
		return
	}

	outcome, err := h.Recorder.Record(r.Context(), dir, id)
	if err != nil {
		h.logger.Error("recording punch", zap.String("employee_id", id.String()), zap.String("direction", string(dir)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to record punch", err)
		return
	}

	resp := ClockResponseDTO{
		Status:     string(outcome.Status),
		EmployeeID: id.String(),
		Direction:  string(dir),
		Message:    outcome.Message,
	}
	if outcome.Event != nil {
		resp.Timestamp = timeclock.FormatTimestamp(outcome.Event.Timestamp)
	}
	writeJSON(w, outcomeStatus(outcome), resp)
}

func outcomeStatus(o timeclock.Outcome) int {
	switch {
	case o.Err == nil:
		return http.StatusCreated
	case errors.Is(o.Err, timeclock.ErrDuplicateEvent):
		return http.StatusConflict
	case timeclock.IsNotFound(o.Err):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := employeeIDParam(w, r)
	if !ok {
		return
	}

	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// UpsertEmployee creates an employee or replaces their names.
func (h *Handler) UpsertEmployee(w http.ResponseWriter, r *http.Request) {
	var req UpsertEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	id, err := timeclock.ParseEmployeeID(req.EmployeeID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee_id", err)
		return
	}

	emp := timeclock.Employee{
		ID:              id,
		FirstName:       req.FirstName,
		LastNameInitial: req.LastNameInitial,
	}
	if err := h.Store.UpsertEmployee(r.Context(), emp); err != nil {
		if timeclock.IsClientError(err) {
			writeError(w, http.StatusBadRequest, "Invalid employee", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to save employee", err)
		return
	}

	h.logger.Info("employee saved", zap.String("employee_id", id.String()))
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// GetDailyHours previews one employee-day. Missed punches are only
// audited by the weekly run.
func (h *Handler) GetDailyHours(w http.ResponseWriter, r *http.Request) {
	id, ok := employeeIDParam(w, r)
	if !ok {
		return
	}

	date, err := timeclock.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	hours, err := h.Reconciler.Preview(r.Context(), id, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reconcile hours", err)
		return
	}
	writeJSON(w, http.StatusOK, toDailyHoursDTO(hours))
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// ListWeeklyReport returns the stored weekly report.
func (h *Handler) ListWeeklyReport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Store.ListWeeklyRows(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list weekly report", err)
		return
	}

	dtos := make([]WeeklyRowDTO, len(rows))
	for i, row := range rows {
		dtos[i] = toWeeklyRowDTO(row)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RunWeeklyReport generates the report for the last complete week.
func (h *Handler) RunWeeklyReport(w http.ResponseWriter, r *http.Request) {
	if h.Scheduler == nil {
		writeError(w, http.StatusServiceUnavailable, "Scheduler not configured", nil)
		return
	}

	run, err := h.Scheduler.RunNow(r.Context())
	if errors.Is(err, ErrSchedulerBusy) {
		writeError(w, http.StatusConflict, "Report generation already in progress", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Report generation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toReportRunDTO(*run))
}

// ListReportRuns returns run history, optionally filtered by ?status=.
func (h *Handler) ListReportRuns(w http.ResponseWriter, r *http.Request) {
	status := timeclock.RunStatus(r.URL.Query().Get("status"))
	switch status {
	case "", timeclock.RunRunning, timeclock.RunCompleted, timeclock.RunFailed:
	default:
		writeError(w, http.StatusBadRequest, "Invalid status", nil)
		return
	}

	runs, err := h.Store.ListReportRuns(r.Context(), status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list report runs", err)
		return
	}

	dtos := make([]ReportRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toReportRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetScheduler returns scheduler state.
func (h *Handler) GetScheduler(w http.ResponseWriter, r *http.Request) {
	if h.Scheduler == nil {
		writeError(w, http.StatusServiceUnavailable, "Scheduler not configured", nil)
		return
	}

	s := h.Scheduler
	writeJSON(w, http.StatusOK, SchedulerDTO{
		State:      string(s.State()),
		Enabled:    s.Enabled,
		NextWindow: timeclock.FormatTimestamp(s.NextRunTime()),
		Window:     s.Window.String(),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func employeeIDParam(w http.ResponseWriter, r *http.Request) (timeclock.EmployeeID, bool) {
	id, err := timeclock.ParseEmployeeID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee ID", err)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
