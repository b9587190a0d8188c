package repository

import (
	"errors"
	"fmt"

	"hr-leave-bot/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ConflictPolicy controls which existing requests block new dates.
// Rejected requests never block, whichever track rejected them: a
// department rejection frees the dates even though the manager status
// stays pending. The legacy bot filtered on the manager status alone, so
// rows it rejected at department level kept blocking there.
type ConflictPolicy struct {
	CancelledBlocks bool
}

type VacationRepository interface {
	Create(vacation *models.Vacation) error
	GetByID(id uint) (*models.Vacation, error)
	ListByEmployee(employeeID uint) ([]*models.Vacation, error)
	ListPendingForManager() ([]*models.Vacation, error)
	ListPendingForDepartment(department string) ([]*models.Vacation, error)
	CountPending() (int64, error)
	HasConflict(employeeID uint, startDate, endDate models.Date, policy ConflictPolicy) (bool, error)
	SaveStatus(vacation *models.Vacation) error
}

type GormVacationRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormVacationRepository(db *gorm.DB) (*GormVacationRepository, error) {
	logger := newLogger()

	if err := db.AutoMigrate(&models.Vacation{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate vacations table")
		return nil, err
	}
	if err := trimDayColumns(db, "vacations", "start_date", "end_date"); err != nil {
		logger.WithError(err).Error("Failed to normalize vacation dates")
		return nil, err
	}

	return &GormVacationRepository{db: db, logger: logger}, nil
}

func (r *GormVacationRepository) withDB(db *gorm.DB) *GormVacationRepository {
	return &GormVacationRepository{db: db, logger: r.logger}
}

func (r *GormVacationRepository) Create(vacation *models.Vacation) error {
	if err := r.db.Create(vacation).Error; err != nil {
		return fmt.Errorf("create vacation: %w", err)
	}
	return nil
}

func (r *GormVacationRepository) GetByID(id uint) (*models.Vacation, error) {
	var vacation models.Vacation
	err := r.db.First(&vacation, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vacation, nil
}

func (r *GormVacationRepository) ListByEmployee(employeeID uint) ([]*models.Vacation, error) {
	var vacations []*models.Vacation
	err := r.db.Where("employee_id = ?", employeeID).
		Order("start_date DESC").
		Find(&vacations).Error
	return vacations, err
}

// ListPendingForManager returns requests the department already approved.
func (r *GormVacationRepository) ListPendingForManager() ([]*models.Vacation, error) {
	var vacations []*models.Vacation
	err := r.db.Where("status = ? AND dept_approval = ?", models.StatusPending, models.StatusApproved).
		Order("created_at").
		Find(&vacations).Error
	return vacations, err
}

func (r *GormVacationRepository) ListPendingForDepartment(department string) ([]*models.Vacation, error) {
	var vacations []*models.Vacation
	err := r.db.Joins("JOIN employees ON employees.id = vacations.employee_id").
		Where("vacations.dept_approval = ? AND employees.department = ?", models.StatusPending, department).
		Order("vacations.created_at").
		Find(&vacations).Error
	return vacations, err
}

// CountPending counts requests still open on either track.
func (r *GormVacationRepository) CountPending() (int64, error) {
	var count int64
	err := r.db.Model(&models.Vacation{}).
		Where("status = ? OR dept_approval = ?", models.StatusPending, models.StatusPending).
		Count(&count).Error
	return count, err
}

// HasConflict reports whether any blocking request of the employee
// intersects [startDate, endDate], endpoints included.
func (r *GormVacationRepository) HasConflict(employeeID uint, startDate, endDate models.Date, policy ConflictPolicy) (bool, error) {
	q := r.db.Model(&models.Vacation{}).
		Where("employee_id = ? AND start_date <= ? AND end_date >= ?", employeeID, endDate, startDate).
		Where("status <> ? AND dept_approval <> ?", models.StatusRejected, models.StatusRejected)
	if !policy.CancelledBlocks {
		q = q.Where("status <> ?", models.StatusCancelled)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check vacation conflict: %w", err)
	}
	return count > 0, nil
}

// SaveStatus persists both tracks and their actors.
func (r *GormVacationRepository) SaveStatus(vacation *models.Vacation) error {
	result := r.db.Model(vacation).
		Select("status", "dept_approval", "dept_approver", "approved_by", "notes").
		Updates(vacation)
	if result.Error != nil {
		return fmt.Errorf("save vacation %d status: %w", vacation.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
