package models

import "time"

type Department struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"uniqueIndex;not null" json:"name"`
	HeadID       *uint     `json:"head_id,omitempty"`
	HeadPassword string    `json:"-"` // bcrypt hash
	CreatedAt    time.Time `json:"created_at"`
}

func (Department) TableName() string {
	return "departments"
}

// DefaultDepartments are seeded on first start.
var DefaultDepartments = []string{"الإدارة", "التمريض", "المحاسبة", "المختبر", "الصيدلة"}
