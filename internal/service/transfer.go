package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"hr-leave-bot/internal/apperror"
	"hr-leave-bot/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const (
	maxImportRows     = 5000
	defaultDepartment = "غير محدد"
	defaultWorkDays   = "0:M,1:M,2:M,3:M,4:M,5:M,6:M"
)

var (
	ErrImportNoData    = apperror.Validation("import file has no data rows")
	ErrImportBadHeader = apperror.Validation("import file must have serial_number, name and national_id columns")
	ErrImportTooMany   = apperror.Newf(apperror.KindValidation, "import file has more than %d rows", maxImportRows)
)

// employeeColumns is the column order of exports and of the import template.
var employeeColumns = []string{
	"serial_number", "name", "national_id", "department", "job_grade",
	"hiring_date", "grade_date", "bonus", "vacation_balance",
	"emergency_vacation_balance", "work_days",
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "2/1/2006", "01-02-06", "2006/01/02", "02.01.2006"}

type ImportRowError struct {
	Row     int    `json:"row"`
	Serial  string `json:"serial_number,omitempty"`
	Message string `json:"message"`
}

type ImportResult struct {
	Total   int              `json:"total"`
	Created int              `json:"created"`
	Updated int              `json:"updated"`
	Errors  []ImportRowError `json:"errors"`
}

// TransferService moves employee and absence data in and out of Excel.
type TransferService struct {
	employees *EmployeeService
	absences  *AbsenceService
	now       func() time.Time
	logger    *logrus.Logger
}

func NewTransferService(employees *EmployeeService, absences *AbsenceService, logger *logrus.Logger) *TransferService {
	return &TransferService{
		employees: employees,
		absences:  absences,
		now:       time.Now,
		logger:    newLogger(logger),
	}
}

// ImportEmployees creates new employees and updates the profile of
// existing ones, matched by serial number. Each row is saved on its own; a
// bad row is reported and the rest still go in. Balances of existing
// employees are never touched.
func (s *TransferService) ImportEmployees(r io.Reader, actor string) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindValidation, "cannot read Excel file")
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindValidation, "cannot read worksheet")
	}
	if len(rows) < 2 {
		return nil, ErrImportNoData
	}
	if len(rows)-1 > maxImportRows {
		return nil, ErrImportTooMany
	}

	col := headerIndex(rows[0])
	if col["serial_number"] < 0 || col["name"] < 0 || col["national_id"] < 0 {
		return nil, ErrImportBadHeader
	}

	result := &ImportResult{}
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		cell := func(name string) string {
			if idx := col[name]; idx >= 0 && idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}

		serial := cell("serial_number")
		if serial == "" && cell("name") == "" && cell("national_id") == "" {
			continue
		}
		result.Total++

		created, err := s.importRow(cell, actor)
		if err != nil {
			result.Errors = append(result.Errors, ImportRowError{Row: i + 1, Serial: serial, Message: err.Error()})
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"total":   result.Total,
		"created": result.Created,
		"updated": result.Updated,
		"errors":  len(result.Errors),
	}).Info("Employee import finished")
	return result, nil
}

func (s *TransferService) importRow(cell func(string) string, actor string) (bool, error) {
	in := EmployeeInput{
		SerialNumber: cell("serial_number"),
		NationalID:   cell("national_id"),
		Name:         cell("name"),
		Department:   cell("department"),
		JobGrade:     cell("job_grade"),
		WorkDays:     cell("work_days"),
	}
	if in.Department == "" {
		in.Department = defaultDepartment
	}
	if in.WorkDays == "" {
		in.WorkDays = defaultWorkDays
	}

	var err error
	if in.HiringDate, err = parseCellDate(cell("hiring_date")); err != nil {
		return false, fmt.Errorf("hiring_date: %w", err)
	}
	if in.GradeDate, err = parseCellDate(cell("grade_date")); err != nil {
		return false, fmt.Errorf("grade_date: %w", err)
	}
	if raw := cell("bonus"); raw != "" {
		if in.Bonus, err = decimal.NewFromString(raw); err != nil {
			return false, fmt.Errorf("bonus: %w", err)
		}
	}

	existing, err := s.employees.GetBySerial(in.SerialNumber)
	if err != nil {
		return false, err
	}
	if existing != nil {
		_, err = s.employees.Update(existing.ID, in, actor)
		return false, err
	}

	if raw := cell("vacation_balance"); raw != "" {
		balance, err := strconv.Atoi(strings.TrimSuffix(raw, ".0"))
		if err != nil {
			return false, fmt.Errorf("vacation_balance: %w", err)
		}
		if balance < 0 {
			balance = 0
		}
		in.OpeningVacationBalance = &balance
	}

	_, err = s.employees.Create(in, actor)
	return err == nil, err
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(employeeColumns))
	for _, c := range employeeColumns {
		idx[c] = -1
	}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if _, ok := idx[name]; ok {
			idx[name] = i
		}
	}
	return idx
}

func parseCellDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	// unformatted date cells come through as Excel serial numbers
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("unrecognised date " + strconv.Quote(raw))
}

// ExportEmployees writes every employee to a workbook and suggests a file
// name.
func (s *TransferService) ExportEmployees() (*bytes.Buffer, string, error) {
	employees, err := s.employees.List("")
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	if err := writeRow(f, sheet, 1, toCells(employeeColumns)); err != nil {
		return nil, "", err
	}
	for i, e := range employees {
		values := []any{
			e.SerialNumber, e.Name, e.NationalID, e.Department, e.JobGrade,
			formatDate(e.HiringDate), formatDate(e.GradeDate), e.Bonus.String(),
			e.VacationBalance, e.EmergencyVacationBalance, e.WorkDays,
		}
		if err := writeRow(f, sheet, i+2, values); err != nil {
			return nil, "", err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", apperror.Wrap(err, apperror.KindInternal, "generate Excel file")
	}
	return buf, fmt.Sprintf("employees_export_%s.xlsx", s.now().Format("20060102")), nil
}

// ImportTemplate returns an empty workbook with the import header and one
// example row.
func (s *TransferService) ImportTemplate() (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	if err := writeRow(f, sheet, 1, toCells(employeeColumns)); err != nil {
		return nil, err
	}
	example := []any{"1001", "اسم الموظف", "123456789012", "التمريض", "الدرجة الثالثة",
		"2020-01-15", "2023-01-01", "0", 30, 12, defaultWorkDays}
	if err := writeRow(f, sheet, 2, example); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindInternal, "generate Excel file")
	}
	return buf, nil
}

// AbsenceReport lists the month's absences with employee names.
func (s *TransferService) AbsenceReport(year int, month time.Month) (*bytes.Buffer, string, error) {
	absences, err := s.absences.ListByMonth(year, month)
	if err != nil {
		return nil, "", err
	}
	employees, err := s.employees.List("")
	if err != nil {
		return nil, "", err
	}
	names := make(map[uint]*models.Employee, len(employees))
	for _, e := range employees {
		names[e.ID] = e
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := []any{"الرقم الوظيفي", "الموظف", "القسم", "التاريخ", "النوع", "المدة", "ملاحظات"}
	if err := writeRow(f, sheet, 1, header); err != nil {
		return nil, "", err
	}
	for i, a := range absences {
		var serial, name, department string
		if e := names[a.EmployeeID]; e != nil {
			serial, name, department = e.SerialNumber, e.Name, e.Department
		}
		values := []any{serial, name, department, a.Date.String(), string(a.Type), a.Duration, a.Notes}
		if err := writeRow(f, sheet, i+2, values); err != nil {
			return nil, "", err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", apperror.Wrap(err, apperror.KindInternal, "generate Excel file")
	}
	return buf, fmt.Sprintf("absences_%04d_%02d.xlsx", year, int(month)), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return apperror.Wrap(err, apperror.KindInternal, "resolve cell")
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return apperror.Wrap(err, apperror.KindInternal, "write row")
	}
	return nil
}

func toCells(names []string) []any {
	cells := make([]any, len(names))
	for i, n := range names {
		cells[i] = n
	}
	return cells
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
