package models

import (
	"strings"
	"time"
)

type AbsenceType string

const (
	AbsenceTypeAbsence    AbsenceType = "غياب"
	AbsenceTypeLate       AbsenceType = "تأخير"
	AbsenceTypeEarlyLeave AbsenceType = "انصراف مبكر"
)

var absenceCodes = map[AbsenceType]string{
	AbsenceTypeAbsence:    "absence",
	AbsenceTypeLate:       "late",
	AbsenceTypeEarlyLeave: "early_leave",
}

// ParseAbsenceType accepts the stored label or its code.
func ParseAbsenceType(s string) (AbsenceType, bool) {
	s = strings.TrimSpace(s)
	for t, code := range absenceCodes {
		if s == string(t) || strings.EqualFold(s, code) {
			return t, true
		}
	}
	return "", false
}

func (t AbsenceType) Code() string {
	return absenceCodes[t]
}

// Absence is one attendance event. At most one per employee and day.
type Absence struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	EmployeeID uint        `gorm:"not null;uniqueIndex:idx_absences_employee_date" json:"employee_id"`
	Date       Date        `gorm:"type:date;not null;uniqueIndex:idx_absences_employee_date" json:"date"`
	Type       AbsenceType `gorm:"not null" json:"type"`
	Duration   int         `gorm:"not null" json:"duration"`
	Notes      string      `json:"notes"`
	CreatedAt  time.Time   `json:"created_at"`
}

func (Absence) TableName() string {
	return "absences"
}
