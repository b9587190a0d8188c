package repository

import (
	"fmt"

	"hr-leave-bot/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AbsenceRepository interface {
	Create(absence *models.Absence) error
	Exists(employeeID uint, date models.Date) (bool, error)
	ListByEmployee(employeeID uint) ([]*models.Absence, error)
	ListBetween(from, to models.Date) ([]*models.Absence, error)
}

type GormAbsenceRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormAbsenceRepository(db *gorm.DB) (*GormAbsenceRepository, error) {
	logger := newLogger()

	if err := db.AutoMigrate(&models.Absence{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate absences table")
		return nil, err
	}
	if err := trimDayColumns(db, "absences", "date"); err != nil {
		logger.WithError(err).Error("Failed to normalize absence dates")
		return nil, err
	}

	return &GormAbsenceRepository{db: db, logger: logger}, nil
}

func (r *GormAbsenceRepository) withDB(db *gorm.DB) *GormAbsenceRepository {
	return &GormAbsenceRepository{db: db, logger: r.logger}
}

// Create inserts the record. A second record for the same employee and day
// fails with gorm.ErrDuplicatedKey.
func (r *GormAbsenceRepository) Create(absence *models.Absence) error {
	if err := r.db.Create(absence).Error; err != nil {
		return fmt.Errorf("create absence: %w", err)
	}
	return nil
}

func (r *GormAbsenceRepository) Exists(employeeID uint, date models.Date) (bool, error) {
	var count int64
	err := r.db.Model(&models.Absence{}).
		Where("employee_id = ? AND date = ?", employeeID, date).
		Count(&count).Error
	return count > 0, err
}

func (r *GormAbsenceRepository) ListByEmployee(employeeID uint) ([]*models.Absence, error) {
	var absences []*models.Absence
	err := r.db.Where("employee_id = ?", employeeID).
		Order("date DESC").
		Find(&absences).Error
	return absences, err
}

// ListBetween returns records dated within [from, to].
func (r *GormAbsenceRepository) ListBetween(from, to models.Date) ([]*models.Absence, error) {
	var absences []*models.Absence
	err := r.db.Where("date >= ? AND date <= ?", from, to).
		Order("date, employee_id").
		Find(&absences).Error
	return absences, err
}
