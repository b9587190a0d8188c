package repository

import (
	"fmt"

	"hr-leave-bot/internal/models"

	"gorm.io/gorm"
)

type AuditLogRepository interface {
	Create(entry *models.AuditLog) error
	ListByRecord(table string, recordID uint) ([]*models.AuditLog, error)
}

type GormAuditLogRepository struct {
	db *gorm.DB
}

func NewGormAuditLogRepository(db *gorm.DB) (*GormAuditLogRepository, error) {
	if err := db.AutoMigrate(&models.AuditLog{}); err != nil {
		return nil, err
	}
	return &GormAuditLogRepository{db: db}, nil
}

func (r *GormAuditLogRepository) Create(entry *models.AuditLog) error {
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

func (r *GormAuditLogRepository) ListByRecord(table string, recordID uint) ([]*models.AuditLog, error) {
	var entries []*models.AuditLog
	err := r.db.Where("table_name = ? AND record_id = ?", table, recordID).
		Order("id").
		Find(&entries).Error
	return entries, err
}
