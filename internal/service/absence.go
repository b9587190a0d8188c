package service

import (
	"errors"
	"time"

	"hr-leave-bot/internal/apperror"
	"hr-leave-bot/internal/models"
	"hr-leave-bot/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrFutureDate      = apperror.Validation("cannot record an absence for a future date")
	ErrAlreadyRecorded = apperror.New(apperror.KindDuplicate, "absence already recorded for this date")
)

type AbsenceInput struct {
	EmployeeID uint      `validate:"required"`
	Date       time.Time `validate:"required"`
	Type       string    `validate:"required"`
	Duration   int       `validate:"min=1,max=30"`
	Notes      string    `validate:"max=500"`
}

type AbsenceService struct {
	store    *repository.Store
	validate *validator.Validate
	now      func() time.Time
	logger   *logrus.Logger
}

func NewAbsenceService(store *repository.Store, logger *logrus.Logger) *AbsenceService {
	return &AbsenceService{
		store:    store,
		validate: validator.New(),
		now:      time.Now,
		logger:   newLogger(logger),
	}
}

// RecordAbsence appends one attendance event. Records are immutable.
func (s *AbsenceService) RecordAbsence(in AbsenceInput) (*models.Absence, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	absenceType, ok := models.ParseAbsenceType(in.Type)
	if !ok {
		return nil, apperror.Newf(apperror.KindValidation, "unknown absence type %q", in.Type)
	}

	date := models.NewDate(in.Date)
	if date.After(models.DateOnly(s.now())) {
		return nil, ErrFutureDate
	}

	absence := &models.Absence{
		EmployeeID: in.EmployeeID,
		Date:       date,
		Type:       absenceType,
		Duration:   in.Duration,
		Notes:      in.Notes,
	}

	err := s.store.WithTx(func(tx *repository.Store) error {
		employee, err := tx.Employees.GetByID(in.EmployeeID)
		if err != nil {
			return apperror.Wrap(err, apperror.KindInternal, "load employee")
		}
		if employee == nil {
			return apperror.NotFound("employee")
		}

		exists, err := tx.Absences.Exists(in.EmployeeID, date)
		if err != nil {
			return apperror.Wrap(err, apperror.KindInternal, "check absence")
		}
		if exists {
			return ErrAlreadyRecorded
		}

		if err := tx.Absences.Create(absence); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyRecorded
			}
			return apperror.Wrap(err, apperror.KindInternal, "save absence")
		}
		return writeAudit(tx, models.AuditInsert, "absences", absence.ID, "",
			"%s on %s for employee %d", absenceType.Code(), date, in.EmployeeID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"employee_id": in.EmployeeID,
		"date":        date.String(),
		"type":        absenceType.Code(),
	}).Info("Absence recorded")
	return absence, nil
}

func (s *AbsenceService) ListByEmployee(employeeID uint) ([]*models.Absence, error) {
	absences, err := s.store.Absences.ListByEmployee(employeeID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindInternal, "list absences")
	}
	return absences, nil
}

// ListByMonth returns every record dated in the given month.
func (s *AbsenceService) ListByMonth(year int, month time.Month) ([]*models.Absence, error) {
	if month < time.January || month > time.December {
		return nil, apperror.Validation("month must be between 1 and 12")
	}

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	absences, err := s.store.Absences.ListBetween(models.NewDate(from), models.NewDate(from.AddDate(0, 1, -1)))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindInternal, "list absences")
	}
	return absences, nil
}
