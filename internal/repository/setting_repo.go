package repository

import (
	"errors"

	"hr-leave-bot/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

type GormSettingRepository struct {
	db *gorm.DB
}

func NewGormSettingRepository(db *gorm.DB) (*GormSettingRepository, error) {
	if err := db.AutoMigrate(&models.Setting{}); err != nil {
		return nil, err
	}
	return &GormSettingRepository{db: db}, nil
}

func (r *GormSettingRepository) Get(key string) (string, bool, error) {
	var setting models.Setting
	err := r.db.Where(&models.Setting{Key: key}).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return setting.Value, true, nil
}

func (r *GormSettingRepository) Set(key, value string) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&models.Setting{Key: key, Value: value}).Error
}
