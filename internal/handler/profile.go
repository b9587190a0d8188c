package handler

import (
	"fmt"
	"strings"

	"hr-leave-bot/internal/models"
	"hr-leave-bot/pkg/workdays"
)

// maxAbsencesShown caps the absence history message.
const maxAbsencesShown = 15

func (h *Handler) loadEmployee(chatID int64, employeeID uint) (*models.Employee, bool) {
	employee, err := h.employees.Get(employeeID)
	if err != nil {
		h.logger.WithError(err).WithField("employee_id", employeeID).Error("Failed to load employee")
		h.send(chatID, errorText(err))
		return nil, false
	}
	return employee, true
}

func (h *Handler) sendBalance(chatID int64, employeeID uint) {
	balance, err := h.ledger.GetBalance(employeeID)
	if err != nil {
		h.send(chatID, errorText(err))
		return
	}
	h.send(chatID, fmt.Sprintf("✈️ رصيد الإجازات:\n\nالاعتيادية: %d يوم\nالعارضة: %d يوم", balance.Annual, balance.Emergency))
}

func (h *Handler) sendJobGrade(chatID int64, employeeID uint) {
	employee, ok := h.loadEmployee(chatID, employeeID)
	if !ok {
		return
	}

	grade := employee.JobGrade
	if grade == "" {
		grade = "غير محددة"
	}
	text := "📊 الدرجة الوظيفية: " + grade
	if employee.GradeDate != nil {
		text += "\nتاريخ الحصول عليها: " + employee.GradeDate.Format(dateLayout)
	}
	if !employee.Bonus.IsZero() {
		text += "\nالعلاوة: " + employee.Bonus.StringFixed(2)
	}
	h.send(chatID, text)
}

func (h *Handler) sendWorkDays(chatID int64, employeeID uint) {
	employee, ok := h.loadEmployee(chatID, employeeID)
	if !ok {
		return
	}

	schedule, err := workdays.Parse(employee.WorkDays)
	if err != nil {
		h.logger.WithError(err).WithField("employee_id", employeeID).Warn("Stored work days do not parse")
		h.send(chatID, "📅 أيام العمل غير مسجلة.")
		return
	}
	h.send(chatID, "📅 أيام العمل:\n\n"+schedule.Describe())
}

func (h *Handler) sendBasicInfo(chatID int64, employeeID uint) {
	employee, ok := h.loadEmployee(chatID, employeeID)
	if !ok {
		return
	}

	var b strings.Builder
	b.WriteString("👤 البيانات الأساسية:\n\n")
	fmt.Fprintf(&b, "الاسم: %s\n", employee.Name)
	fmt.Fprintf(&b, "الرقم الوظيفي: %s\n", employee.SerialNumber)
	fmt.Fprintf(&b, "القسم: %s\n", employee.Department)
	if employee.HiringDate != nil {
		fmt.Fprintf(&b, "تاريخ التعيين: %s\n", employee.HiringDate.Format(dateLayout))
	}
	h.send(chatID, b.String())
}

func (h *Handler) sendAbsences(chatID int64, employeeID uint) {
	absences, err := h.absences.ListByEmployee(employeeID)
	if err != nil {
		h.send(chatID, errorText(err))
		return
	}
	if len(absences) == 0 {
		h.send(chatID, "✅ لا يوجد غياب مسجل.")
		return
	}

	var b strings.Builder
	b.WriteString("⏰ سجل الغياب:\n")
	for i, a := range absences {
		if i == maxAbsencesShown {
			fmt.Fprintf(&b, "\n... و%d سجل آخر", len(absences)-maxAbsencesShown)
			break
		}
		fmt.Fprintf(&b, "\n%s | %s | %d", a.Date.Format(dateLayout), a.Type, a.Duration)
		if a.Notes != "" {
			b.WriteString(" | " + a.Notes)
		}
	}
	h.send(chatID, b.String())
}
