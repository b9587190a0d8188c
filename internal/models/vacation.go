package models

import (
	"strings"
	"time"
)

// LeaveType values are the labels stored in the legacy `type` column.
type LeaveType string

const (
	LeaveAnnual      LeaveType = "سنوية"
	LeaveEmergency   LeaveType = "طارئة"
	LeaveBereavement LeaveType = "وفاة"
	LeavePilgrimage  LeaveType = "حج"
	LeaveMarriage    LeaveType = "زواج"
	LeaveMaternity   LeaveType = "وضع"
	LeaveSick        LeaveType = "مرضية"
)

// LeaveTypes in menu order.
var LeaveTypes = []LeaveType{
	LeaveAnnual, LeaveEmergency, LeaveBereavement, LeavePilgrimage,
	LeaveMarriage, LeaveMaternity, LeaveSick,
}

var leaveCodes = map[LeaveType]string{
	LeaveAnnual:      "annual",
	LeaveEmergency:   "emergency",
	LeaveBereavement: "bereavement",
	LeavePilgrimage:  "pilgrimage",
	LeaveMarriage:    "marriage",
	LeaveMaternity:   "maternity",
	LeaveSick:        "sick",
}

// ParseLeaveType accepts the stored label or the English code.
func ParseLeaveType(s string) (LeaveType, bool) {
	s = strings.TrimSpace(s)
	for t, code := range leaveCodes {
		if s == string(t) || strings.EqualFold(s, code) {
			return t, true
		}
	}
	return "", false
}

func (t LeaveType) Code() string {
	return leaveCodes[t]
}

// AutoApproved types skip both approval tracks.
func (t LeaveType) AutoApproved() bool {
	return t == LeaveSick || t == LeaveMaternity
}

// Subtypes and relations as stored.
const (
	BereavementFirstDegree  = "وفاة من الدرجة الأولى"
	BereavementSecondDegree = "وفاة من الدرجة الثانية"
	MaternitySingle         = "وضع عادي"
	MaternityTwins          = "وضع توأم"

	RelationSpouse        = "زوج"
	RelationOtherRelative = "أقارب آخرون"
)

// FirstDegreeRelations offered for first-degree bereavement.
var FirstDegreeRelations = []string{"أب", "أم", "ابن", "ابنة", "زوج", "زوجة", "جد", "جدة"}

var subtypeAliases = map[string]string{
	"first_degree":  BereavementFirstDegree,
	"second_degree": BereavementSecondDegree,
	"single":        MaternitySingle,
	"twins":         MaternityTwins,
}

// NormalizeSubtype maps English aliases onto the stored labels.
func NormalizeSubtype(s string) string {
	s = strings.TrimSpace(s)
	if v, ok := subtypeAliases[strings.ToLower(s)]; ok {
		return v
	}
	return s
}

// NormalizeRelation maps "spouse" onto the stored label.
func NormalizeRelation(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "spouse") {
		return RelationSpouse
	}
	return s
}

// DeriveDuration returns the fixed length of a leave type, or false when the
// duration is entered by the user (annual, emergency, sick).
func DeriveDuration(t LeaveType, subtype, relation string) (int, bool) {
	switch t {
	case LeavePilgrimage:
		return 20, true
	case LeaveMarriage:
		return 14, true
	case LeaveBereavement:
		if NormalizeSubtype(subtype) == BereavementFirstDegree {
			if NormalizeRelation(relation) == RelationSpouse {
				return 130, true
			}
			return 7, true
		}
		return 3, true
	case LeaveMaternity:
		if NormalizeSubtype(subtype) == MaternityTwins {
			return 112, true
		}
		return 98, true
	}
	return 0, false
}

// BalanceKind names the employee counter a leave type draws from.
type BalanceKind string

const (
	BalanceAnnual    BalanceKind = "vacation_balance"
	BalanceEmergency BalanceKind = "emergency_vacation_balance"
)

// BalanceKindFor is false for types that do not touch a counter.
func BalanceKindFor(t LeaveType) (BalanceKind, bool) {
	switch t {
	case LeaveAnnual:
		return BalanceAnnual, true
	case LeaveEmergency:
		return BalanceEmergency, true
	}
	return "", false
}

// Status values are the labels stored in `status` and `dept_approval`.
type Status string

const (
	StatusPending   Status = "تحت الإجراء"
	StatusApproved  Status = "موافق"
	StatusRejected  Status = "مرفوض"
	StatusCancelled Status = "ملغاة"
)

var statusCodes = map[Status]string{
	StatusPending:   "pending",
	StatusApproved:  "approved",
	StatusRejected:  "rejected",
	StatusCancelled: "cancelled",
}

func ParseStatus(s string) (Status, bool) {
	s = strings.TrimSpace(s)
	for st, code := range statusCodes {
		if s == string(st) || strings.EqualFold(s, code) {
			return st, true
		}
	}
	return "", false
}

func (s Status) Code() string {
	return statusCodes[s]
}

// Notes appended to auto-approved requests.
const (
	NoteSickAutoApproved      = "هذه الإجازة مرضية وتمت الموافقة عليها تلقائيًا."
	NoteMaternityAutoApproved = "هذه إجازة وضع وتمت الموافقة عليها تلقائيًا."
)

// Vacation is a leave request. Status is the manager track and
// DepartmentStatus the department-head track.
type Vacation struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	EmployeeID       uint      `gorm:"not null;index" json:"employee_id"`
	Type             LeaveType `gorm:"column:type;not null" json:"type"`
	Subtype          string    `json:"subtype,omitempty"`
	Relation         string    `json:"relation,omitempty"`
	StartDate        Date      `gorm:"type:date;not null;index:idx_vacations_date" json:"start_date"`
	EndDate          Date      `gorm:"type:date;not null;index:idx_vacations_date" json:"end_date"`
	Duration         int       `gorm:"not null" json:"duration"`
	Notes            string    `json:"notes"`
	Status           Status    `gorm:"column:status;not null" json:"status"`
	DepartmentStatus Status    `gorm:"column:dept_approval;not null" json:"dept_approval"`
	DeptApprover     string    `gorm:"column:dept_approver" json:"dept_approver,omitempty"`
	ApprovedBy       string    `json:"approved_by,omitempty"`
	CreatedBy        string    `json:"created_by,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Vacation) TableName() string {
	return "vacations"
}

// Rejected is true when either track rejected the request.
func (v *Vacation) Rejected() bool {
	return v.Status == StatusRejected || v.DepartmentStatus == StatusRejected
}

// Overlaps reports whether [s1,e1] and [s2,e2] share at least one day.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return !s1.After(e2) && !s2.After(e1)
}
