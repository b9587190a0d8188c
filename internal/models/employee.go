package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee balances are never assigned directly outside the ledger; the
// repository Update path omits both counters.
type Employee struct {
	ID                       uint            `gorm:"primaryKey" json:"id"`
	SerialNumber             string          `gorm:"uniqueIndex;not null" json:"serial_number"`
	Name                     string          `gorm:"not null" json:"name"`
	NationalID               string          `gorm:"column:national_id;uniqueIndex;not null" json:"national_id"`
	Department               string          `gorm:"index" json:"department"`
	JobGrade                 string          `json:"job_grade"`
	HiringDate               *time.Time      `gorm:"type:date" json:"hiring_date,omitempty"`
	GradeDate                *time.Time      `gorm:"type:date" json:"grade_date,omitempty"`
	Bonus                    decimal.Decimal `gorm:"type:numeric" json:"bonus"`
	VacationBalance          int             `gorm:"not null" json:"vacation_balance"`
	EmergencyVacationBalance int             `gorm:"not null" json:"emergency_vacation_balance"`
	WorkDays                 string          `json:"work_days"`
	CreatedAt                time.Time       `json:"created_at"`
	UpdatedAt                time.Time       `json:"updated_at"`

	Vacations []Vacation `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Absences  []Absence  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Employee) TableName() string {
	return "employees"
}

// Balance returns the counter for kind.
func (e *Employee) Balance(kind BalanceKind) int {
	switch kind {
	case BalanceAnnual:
		return e.VacationBalance
	case BalanceEmergency:
		return e.EmergencyVacationBalance
	}
	return 0
}

// ValidNationalID reports whether id is exactly 12 ASCII digits.
func ValidNationalID(id string) bool {
	if len(id) != 12 {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
