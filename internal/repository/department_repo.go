package repository

import (
	"errors"
	"fmt"

	"hr-leave-bot/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type DepartmentRepository interface {
	Create(department *models.Department) error
	EnsureExists(name string) (bool, error)
	GetByName(name string) (*models.Department, error)
	List() ([]*models.Department, error)
	UpdateHead(name string, headID *uint, passwordHash string) error
}

type GormDepartmentRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormDepartmentRepository(db *gorm.DB) (*GormDepartmentRepository, error) {
	logger := newLogger()

	if err := db.AutoMigrate(&models.Department{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate departments table")
		return nil, err
	}

	return &GormDepartmentRepository{db: db, logger: logger}, nil
}

func (r *GormDepartmentRepository) withDB(db *gorm.DB) *GormDepartmentRepository {
	return &GormDepartmentRepository{db: db, logger: r.logger}
}

func (r *GormDepartmentRepository) Create(department *models.Department) error {
	if err := r.db.Create(department).Error; err != nil {
		return fmt.Errorf("create department %q: %w", department.Name, err)
	}
	return nil
}

// EnsureExists creates the department unless it is already there and
// reports whether a row was inserted.
func (r *GormDepartmentRepository) EnsureExists(name string) (bool, error) {
	existing, err := r.GetByName(name)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	if err := r.Create(&models.Department{Name: name}); err != nil {
		return false, err
	}
	r.logger.WithField("department", name).Info("Department created")
	return true, nil
}

func (r *GormDepartmentRepository) GetByName(name string) (*models.Department, error) {
	var department models.Department
	err := r.db.Where("name = ?", name).First(&department).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &department, nil
}

func (r *GormDepartmentRepository) List() ([]*models.Department, error) {
	var departments []*models.Department
	if err := r.db.Order("name").Find(&departments).Error; err != nil {
		return nil, err
	}
	return departments, nil
}

func (r *GormDepartmentRepository) UpdateHead(name string, headID *uint, passwordHash string) error {
	result := r.db.Model(&models.Department{}).
		Where("name = ?", name).
		Updates(map[string]any{"head_id": headID, "head_password": passwordHash})
	if result.Error != nil {
		return fmt.Errorf("update head of %q: %w", name, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
