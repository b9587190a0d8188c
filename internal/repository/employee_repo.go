package repository

import (
	"errors"
	"fmt"

	"hr-leave-bot/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EmployeeRepository interface {
	Create(employee *models.Employee) error
	Update(employee *models.Employee) error
	Delete(id uint) (bool, error)
	GetByID(id uint) (*models.Employee, error)
	GetBySerial(serial string) (*models.Employee, error)
	GetByCredentials(nationalID, serial string) (*models.Employee, error)
	List(department string) ([]*models.Employee, error)
	DebitBalance(id uint, kind models.BalanceKind, amount int) (bool, error)
	CreditBalance(id uint, kind models.BalanceKind, amount int) (bool, error)
	ResetBalance(kind models.BalanceKind, value int) (int64, error)
}

type GormEmployeeRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormEmployeeRepository(db *gorm.DB) (*GormEmployeeRepository, error) {
	logger := newLogger()

	if err := db.AutoMigrate(&models.Employee{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate employees table")
		return nil, err
	}

	return &GormEmployeeRepository{db: db, logger: logger}, nil
}

func (r *GormEmployeeRepository) withDB(db *gorm.DB) *GormEmployeeRepository {
	return &GormEmployeeRepository{db: db, logger: r.logger}
}

func (r *GormEmployeeRepository) Create(employee *models.Employee) error {
	if err := r.db.Omit(clause.Associations).Create(employee).Error; err != nil {
		return fmt.Errorf("create employee: %w", err)
	}
	return nil
}

// Update writes profile fields only. Balance counters change through the
// Debit/Credit/Reset methods.
func (r *GormEmployeeRepository) Update(employee *models.Employee) error {
	result := r.db.Model(employee).
		Select("*").
		Omit("id", "created_at", string(models.BalanceAnnual), string(models.BalanceEmergency), clause.Associations).
		Updates(employee)
	if result.Error != nil {
		return fmt.Errorf("update employee %d: %w", employee.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormEmployeeRepository) Delete(id uint) (bool, error) {
	result := r.db.Delete(&models.Employee{}, id)
	if result.Error != nil {
		return false, fmt.Errorf("delete employee %d: %w", id, result.Error)
	}

	r.logger.WithField("employee_id", id).Info("Employee deleted")
	return result.RowsAffected > 0, nil
}

func (r *GormEmployeeRepository) GetByID(id uint) (*models.Employee, error) {
	return r.first("id = ?", id)
}

func (r *GormEmployeeRepository) GetBySerial(serial string) (*models.Employee, error) {
	return r.first("serial_number = ?", serial)
}

func (r *GormEmployeeRepository) GetByCredentials(nationalID, serial string) (*models.Employee, error) {
	return r.first("national_id = ? AND serial_number = ?", nationalID, serial)
}

// first returns nil without error when nothing matches.
func (r *GormEmployeeRepository) first(query string, args ...any) (*models.Employee, error) {
	var employee models.Employee
	err := r.db.Where(query, args...).First(&employee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

// List returns all employees, or those of one department when department
// is not empty.
func (r *GormEmployeeRepository) List(department string) ([]*models.Employee, error) {
	var employees []*models.Employee
	q := r.db.Order("name")
	if department != "" {
		q = q.Where("department = ?", department)
	}
	if err := q.Find(&employees).Error; err != nil {
		return nil, err
	}
	return employees, nil
}

// DebitBalance subtracts amount only if the counter covers it. The result is
// false when no row qualified (unknown employee or insufficient balance).
func (r *GormEmployeeRepository) DebitBalance(id uint, kind models.BalanceKind, amount int) (bool, error) {
	column, err := balanceColumn(kind)
	if err != nil {
		return false, err
	}

	result := r.db.Model(&models.Employee{}).
		Where("id = ? AND "+column+" >= ?", id, amount).
		Update(column, gorm.Expr(column+" - ?", amount))
	if result.Error != nil {
		return false, fmt.Errorf("debit %s for employee %d: %w", column, id, result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *GormEmployeeRepository) CreditBalance(id uint, kind models.BalanceKind, amount int) (bool, error) {
	column, err := balanceColumn(kind)
	if err != nil {
		return false, err
	}

	result := r.db.Model(&models.Employee{}).
		Where("id = ?", id).
		Update(column, gorm.Expr(column+" + ?", amount))
	if result.Error != nil {
		return false, fmt.Errorf("credit %s for employee %d: %w", column, id, result.Error)
	}
	return result.RowsAffected == 1, nil
}

// ResetBalance sets the counter to value for every employee.
func (r *GormEmployeeRepository) ResetBalance(kind models.BalanceKind, value int) (int64, error) {
	column, err := balanceColumn(kind)
	if err != nil {
		return 0, err
	}

	result := r.db.Model(&models.Employee{}).
		Where("1 = 1").
		Update(column, value)
	if result.Error != nil {
		return 0, fmt.Errorf("reset %s: %w", column, result.Error)
	}
	return result.RowsAffected, nil
}

func balanceColumn(kind models.BalanceKind) (string, error) {
	switch kind {
	case models.BalanceAnnual, models.BalanceEmergency:
		return string(kind), nil
	}
	return "", fmt.Errorf("unknown balance kind %q", kind)
}
