package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hr-leave-bot/internal/apperror"
	"hr-leave-bot/internal/models"
	"hr-leave-bot/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// actorHeader names the person acting, recorded in the audit log.
const actorHeader = "X-Actor"

const (
	maxUploadSize = 10 << 20
	xlsxMIME      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	employees   *service.EmployeeService
	departments *service.DepartmentService
	vacations   *service.VacationService
	absences    *service.AbsenceService
	ledger      *service.LedgerService
	maintenance *service.MaintenanceService
	transfer    *service.TransferService
	logger      *logrus.Logger
}

type Services struct {
	Employees   *service.EmployeeService
	Departments *service.DepartmentService
	Vacations   *service.VacationService
	Absences    *service.AbsenceService
	Ledger      *service.LedgerService
	Maintenance *service.MaintenanceService
	Transfer    *service.TransferService
}

func NewHandler(s Services, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		employees:   s.Employees,
		departments: s.Departments,
		vacations:   s.Vacations,
		absences:    s.Absences,
		ledger:      s.Ledger,
		maintenance: s.Maintenance,
		transfer:    s.Transfer,
		logger:      logger,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.employees.List(r.URL.Query().Get("department"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, employees)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	employee, err := h.employees.Create(in, actor(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, employee)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	employee, err := h.employees.Get(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

// UpdateEmployee replaces the profile. Balances are not part of the profile.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req EmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	employee, err := h.employees.Update(id, in, actor(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.employees.Delete(id, actor(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	balance, err := h.ledger.GetBalance(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

func (h *Handler) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req AdjustmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	kind, err := balanceKind(req.Balance)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	balance, err := h.ledger.Adjust(id, kind, req.Delta, req.Reason, actor(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

func balanceKind(name string) (models.BalanceKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "annual", string(models.BalanceAnnual):
		return models.BalanceAnnual, nil
	case "emergency", string(models.BalanceEmergency):
		return models.BalanceEmergency, nil
	}
	return "", apperror.Newf(apperror.KindValidation, "balance must be annual or emergency, got %q", name)
}

// =============================================================================
// VACATIONS
// =============================================================================

func (h *Handler) SubmitVacation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req VacationRequest
	if !h.decode(w, r, &req) {
		return
	}

	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	end, err := optionalDate("end_date", req.EndDate)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	vacation, err := h.vacations.Submit(service.SubmitInput{
		EmployeeID: id,
		Type:       req.Type,
		Subtype:    req.Subtype,
		Relation:   req.Relation,
		StartDate:  start,
		EndDate:    end,
		Duration:   req.Duration,
		Notes:      req.Notes,
		CreatedBy:  actor(r),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, vacation)
}

func (h *Handler) ListEmployeeVacations(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	vacations, err := h.vacations.ListByEmployee(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vacations)
}

// ListPendingVacations returns the department queue when ?department= is
// given and the manager queue otherwise.
func (h *Handler) ListPendingVacations(w http.ResponseWriter, r *http.Request) {
	var (
		vacations []*models.Vacation
		err       error
	)
	if department := r.URL.Query().Get("department"); department != "" {
		vacations, err = h.vacations.ListPendingForDepartment(department)
	} else {
		vacations, err = h.vacations.ListPendingForManager()
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vacations)
}

func (h *Handler) GetVacation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	vacation, err := h.vacations.Get(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vacation)
}

func (h *Handler) VacationHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	entries, err := h.vacations.History(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) SetDepartmentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req DecisionRequest
	if !h.decode(w, r, &req) {
		return
	}

	vacation, err := h.vacations.SetDepartmentStatus(id, req.Department, req.Decision, actor(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vacation)
}

func (h *Handler) SetManagerStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req DecisionRequest
	if !h.decode(w, r, &req) {
		return
	}

	vacation, err := h.vacations.SetManagerStatus(id, req.Decision, actor(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vacation)
}

func (h *Handler) CancelVacation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	vacation, err := h.vacations.Cancel(id, actor(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vacation)
}

// =============================================================================
// ABSENCES
// =============================================================================

func (h *Handler) RecordAbsence(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req AbsenceRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	absence, err := h.absences.RecordAbsence(service.AbsenceInput{
		EmployeeID: id,
		Date:       date,
		Type:       req.Type,
		Duration:   req.Duration,
		Notes:      req.Notes,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, absence)
}

func (h *Handler) ListEmployeeAbsences(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	absences, err := h.absences.ListByEmployee(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, absences)
}

func (h *Handler) ListMonthAbsences(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	absences, err := h.absences.ListByMonth(year, month)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, absences)
}

// yearMonth reads ?year=&month=, defaulting to the current month.
func yearMonth(r *http.Request) (int, time.Month, error) {
	now := time.Now()
	year, month := now.Year(), now.Month()

	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1900 || y > 9999 {
			return 0, 0, apperror.Validation("year must be a four digit number")
		}
		year = y
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, apperror.Validation("month must be between 1 and 12")
		}
		month = time.Month(m)
	}
	return year, month, nil
}

// =============================================================================
// DEPARTMENTS
// =============================================================================

func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.departments.List()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, departments)
}

func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var req DepartmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	department, err := h.departments.Create(req.Name, actor(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, department)
}

func (h *Handler) SetDepartmentHead(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req DepartmentHeadRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.departments.SetHead(name, req.EmployeeID, req.Secret, actor(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// TRANSFER AND ADMIN
// =============================================================================

func (h *Handler) ImportEmployees(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, _, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, apperror.Wrap(err, apperror.KindValidation, "multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	result, err := h.transfer.ImportEmployees(file, actor(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) ExportEmployees(w http.ResponseWriter, r *http.Request) {
	buf, filename, err := h.transfer.ExportEmployees()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeFile(w, filename, buf.Bytes())
}

func (h *Handler) ImportTemplate(w http.ResponseWriter, r *http.Request) {
	buf, err := h.transfer.ImportTemplate()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeFile(w, "employees_import_template.xlsx", buf.Bytes())
}

func (h *Handler) AbsenceReport(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	buf, filename, err := h.transfer.AbsenceReport(year, month)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeFile(w, filename, buf.Bytes())
}

func (h *Handler) ResetEmergencyBalances(w http.ResponseWriter, r *http.Request) {
	updated, err := h.maintenance.ResetEmergencyBalances(actor(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ResetResponse{Updated: updated})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	employees, err := h.employees.List("")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	pending, err := h.vacations.CountPending()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{Employees: len(employees), PendingRequests: pending})
}

// =============================================================================
// HELPERS
// =============================================================================

func actor(r *http.Request) string {
	if a := strings.TrimSpace(r.Header.Get(actorHeader)); a != "" {
		return a
	}
	return "api"
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		h.writeError(w, r, apperror.Validation("id must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.writeError(w, r, apperror.Wrap(err, apperror.KindValidation, "invalid JSON body"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeFile(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", xlsxMIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// writeError maps the error kind to a status. Internal details stay in the
// log.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperror.KindOf(err)
	status := apperror.HTTPStatus(kind)
	resp := ErrorResponse{Error: string(kind), Message: err.Error()}

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		resp.Message = appErr.Message
	}
	var balErr *apperror.InsufficientBalanceError
	if errors.As(err, &balErr) {
		resp.Available = &balErr.Available
		resp.Requested = &balErr.Requested
	}

	entry := h.logger.WithError(err).WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": status,
	})
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
		resp.Message = "internal error"
	} else {
		entry.Debug("Request refused")
	}

	writeJSON(w, status, resp)
}
