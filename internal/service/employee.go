package service

import (
	"errors"
	"strings"
	"time"

	"hr-leave-bot/internal/apperror"
	"hr-leave-bot/internal/models"
	"hr-leave-bot/internal/repository"
	"hr-leave-bot/pkg/workdays"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// EmployeeInput carries the editable profile fields.
type EmployeeInput struct {
	SerialNumber string          `validate:"required,max=32"`
	NationalID   string          `validate:"required,numeric,len=12"`
	Name         string          `validate:"required,max=200"`
	Department   string          `validate:"max=100"`
	JobGrade     string          `validate:"max=100"`
	HiringDate   *time.Time      `validate:"omitempty"`
	GradeDate    *time.Time      `validate:"omitempty"`
	Bonus        decimal.Decimal `validate:"-"`
	WorkDays     string          `validate:"max=200"`

	// OpeningVacationBalance overrides the default annual balance on Create.
	OpeningVacationBalance *int `validate:"omitempty,min=0,max=365"`
}

type EmployeeService struct {
	store            *repository.Store
	validate         *validator.Validate
	defaultAnnual    int
	defaultEmergency int
	logger           *logrus.Logger
}

func NewEmployeeService(store *repository.Store, defaultAnnual, defaultEmergency int, logger *logrus.Logger) *EmployeeService {
	return &EmployeeService{
		store:            store,
		validate:         validator.New(),
		defaultAnnual:    defaultAnnual,
		defaultEmergency: defaultEmergency,
		logger:           newLogger(logger),
	}
}

func (s *EmployeeService) check(in *EmployeeInput) error {
	in.SerialNumber = strings.TrimSpace(in.SerialNumber)
	in.NationalID = strings.TrimSpace(in.NationalID)
	in.Name = strings.TrimSpace(in.Name)
	in.Department = strings.TrimSpace(in.Department)

	if err := s.validate.Struct(in); err != nil {
		return validationError(err)
	}
	// numeric accepts signs and decimals
	if !models.ValidNationalID(in.NationalID) {
		return apperror.Validation("national ID must be exactly 12 digits")
	}
	if in.Bonus.IsNegative() {
		return apperror.Validation("bonus must not be negative")
	}

	schedule, err := workdays.Parse(in.WorkDays)
	if err != nil {
		return apperror.Wrap(err, apperror.KindValidation, "invalid work days")
	}
	in.WorkDays = schedule.String()
	return nil
}

func (in EmployeeInput) apply(e *models.Employee) {
	e.SerialNumber = in.SerialNumber
	e.NationalID = in.NationalID
	e.Name = in.Name
	e.Department = in.Department
	e.JobGrade = in.JobGrade
	e.HiringDate = dateOnlyPtr(in.HiringDate)
	e.GradeDate = dateOnlyPtr(in.GradeDate)
	e.Bonus = in.Bonus
	e.WorkDays = in.WorkDays
}

func dateOnlyPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	d := models.DateOnly(*t)
	return &d
}

// Create adds an employee with the default balances.
func (s *EmployeeService) Create(in EmployeeInput, actor string) (*models.Employee, error) {
	if err := s.check(&in); err != nil {
		return nil, err
	}

	employee := &models.Employee{
		VacationBalance:          s.defaultAnnual,
		EmergencyVacationBalance: s.defaultEmergency,
	}
	if in.OpeningVacationBalance != nil {
		employee.VacationBalance = *in.OpeningVacationBalance
	}
	in.apply(employee)

	err := s.store.WithTx(func(tx *repository.Store) error {
		if err := tx.Employees.Create(employee); err != nil {
			return duplicateOr(err, "employee with this serial number or national ID already exists")
		}
		return writeAudit(tx, models.AuditInsert, "employees", employee.ID, actor,
			"employee %s (%s) created", employee.Name, employee.SerialNumber)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"employee_id": employee.ID,
		"serial":      employee.SerialNumber,
	}).Info("Employee created")
	return employee, nil
}

// Update rewrites the profile. Balances are left to the ledger.
func (s *EmployeeService) Update(id uint, in EmployeeInput, actor string) (*models.Employee, error) {
	if err := s.check(&in); err != nil {
		return nil, err
	}

	var employee *models.Employee
	err := s.store.WithTx(func(tx *repository.Store) error {
		var err error
		employee, err = tx.Employees.GetByID(id)
		if err != nil {
			return apperror.Wrap(err, apperror.KindInternal, "load employee")
		}
		if employee == nil {
			return apperror.NotFound("employee")
		}

		in.apply(employee)
		if err := tx.Employees.Update(employee); err != nil {
			return duplicateOr(err, "employee with this serial number or national ID already exists")
		}
		return writeAudit(tx, models.AuditUpdate, "employees", employee.ID, actor,
			"employee %s (%s) updated", employee.Name, employee.SerialNumber)
	})
	if err != nil {
		return nil, err
	}
	return employee, nil
}

// Delete removes the employee together with their requests and absences.
func (s *EmployeeService) Delete(id uint, actor string) error {
	return s.store.WithTx(func(tx *repository.Store) error {
		deleted, err := tx.Employees.Delete(id)
		if err != nil {
			return apperror.Wrap(err, apperror.KindInternal, "delete employee")
		}
		if !deleted {
			return apperror.NotFound("employee")
		}
		return writeAudit(tx, models.AuditDelete, "employees", id, actor, "employee %d deleted", id)
	})
}

func (s *EmployeeService) Get(id uint) (*models.Employee, error) {
	employee, err := s.store.Employees.GetByID(id)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindInternal, "load employee")
	}
	if employee == nil {
		return nil, apperror.NotFound("employee")
	}
	return employee, nil
}

func (s *EmployeeService) GetBySerial(serial string) (*models.Employee, error) {
	employee, err := s.store.Employees.GetBySerial(strings.TrimSpace(serial))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindInternal, "load employee")
	}
	return employee, nil
}

func (s *EmployeeService) List(department string) ([]*models.Employee, error) {
	employees, err := s.store.Employees.List(department)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindInternal, "list employees")
	}
	return employees, nil
}

// Authenticate resolves the bot login pair.
func (s *EmployeeService) Authenticate(nationalID, serial string) (*models.Employee, error) {
	employee, err := s.store.Employees.GetByCredentials(strings.TrimSpace(nationalID), strings.TrimSpace(serial))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindInternal, "load employee")
	}
	if employee == nil {
		return nil, apperror.New(apperror.KindUnauthorized, "national ID and serial number do not match")
	}
	return employee, nil
}

func duplicateOr(err error, message string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Wrap(err, apperror.KindDuplicate, message)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("employee")
	}
	return apperror.Wrap(err, apperror.KindInternal, "save employee")
}
