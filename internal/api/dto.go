package api

import (
	"time"

	"hr-leave-bot/internal/apperror"
	"hr-leave-bot/internal/service"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Available *int   `json:"available,omitempty"`
	Requested *int   `json:"requested,omitempty"`
}

type EmployeeRequest struct {
	SerialNumber    string          `json:"serial_number"`
	NationalID      string          `json:"national_id"`
	Name            string          `json:"name"`
	Department      string          `json:"department"`
	JobGrade        string          `json:"job_grade"`
	HiringDate      string          `json:"hiring_date"`
	GradeDate       string          `json:"grade_date"`
	Bonus           decimal.Decimal `json:"bonus"`
	WorkDays        string          `json:"work_days"`
	VacationBalance *int            `json:"vacation_balance,omitempty"`
}

func (req EmployeeRequest) input() (service.EmployeeInput, error) {
	in := service.EmployeeInput{
		SerialNumber:           req.SerialNumber,
		NationalID:             req.NationalID,
		Name:                   req.Name,
		Department:             req.Department,
		JobGrade:               req.JobGrade,
		Bonus:                  req.Bonus,
		WorkDays:               req.WorkDays,
		OpeningVacationBalance: req.VacationBalance,
	}

	var err error
	if in.HiringDate, err = optionalDate("hiring_date", req.HiringDate); err != nil {
		return in, err
	}
	if in.GradeDate, err = optionalDate("grade_date", req.GradeDate); err != nil {
		return in, err
	}
	return in, nil
}

type AdjustmentRequest struct {
	Balance string `json:"balance"` // annual or emergency
	Delta   int    `json:"delta"`
	Reason  string `json:"reason"`
}

type VacationRequest struct {
	Type      string `json:"type"`
	Subtype   string `json:"subtype"`
	Relation  string `json:"relation"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Duration  int    `json:"duration"`
	Notes     string `json:"notes"`
}

type DecisionRequest struct {
	Decision   string `json:"decision"`
	Department string `json:"department,omitempty"`
}

type AbsenceRequest struct {
	Date     string `json:"date"`
	Type     string `json:"type"`
	Duration int    `json:"duration"`
	Notes    string `json:"notes"`
}

type DepartmentRequest struct {
	Name string `json:"name"`
}

type DepartmentHeadRequest struct {
	EmployeeID uint   `json:"employee_id"`
	Secret     string `json:"secret"`
}

type ResetResponse struct {
	Updated int64 `json:"updated"`
}

type StatsResponse struct {
	Employees       int   `json:"employees"`
	PendingRequests int64 `json:"pending_requests"`
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, apperror.Newf(apperror.KindValidation, "%s must be a date in YYYY-MM-DD form", field)
	}
	return t, nil
}

func optionalDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseDate(field, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
