package models

import "time"

// Audit actions.
const (
	AuditInsert = "INSERT"
	AuditUpdate = "UPDATE"
	AuditDelete = "DELETE"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Action    string    `gorm:"not null" json:"action"`
	Table     string    `gorm:"column:table_name;not null" json:"table_name"`
	RecordID  uint      `json:"record_id"`
	Changes   string    `json:"changes"`
	User      string    `gorm:"column:user" json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}
