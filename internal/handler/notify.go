package handler

import (
	"fmt"

	"hr-leave-bot/internal/models"
	"hr-leave-bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var _ service.Notifier = (*Handler)(nil)

// VacationSubmitted tells department heads about a new request, or the
// manager when the request was approved on submission.
func (h *Handler) VacationSubmitted(vacation *models.Vacation, employee *models.Employee) {
	who := fmt.Sprintf("%s (%s) - %s", employee.Name, employee.SerialNumber, employee.Department)

	if vacation.Status == models.StatusApproved {
		if h.config.ManagerChatID != 0 {
			h.send(h.config.ManagerChatID, fmt.Sprintf("ℹ️ إجازة معتمدة تلقائيًا:\n👤 %s\n%s", who, formatVacation(vacation)))
		}
		return
	}

	heads := h.headChatsFor(employee.Department)
	for _, chatID := range heads {
		h.sendDecisionRequest(chatID, trackDepartment, vacation, who)
	}
	if len(heads) == 0 {
		h.logger.WithField("department", employee.Department).Debug("No department head online for new request")
	}
}

// VacationDecided tells the employee about the new state and hands requests
// cleared by the department over to the manager.
func (h *Handler) VacationDecided(vacation *models.Vacation) {
	if chatID, ok := h.employeeChat(vacation.EmployeeID); ok {
		h.send(chatID, "🔔 تحديث على طلبك:\n"+formatVacation(vacation))
	}

	if h.config.ManagerChatID == 0 {
		return
	}
	if models.CanPerform(models.RoleManager, models.ActionApprove, vacation.DepartmentStatus, vacation.Status) {
		h.sendDecisionRequest(h.config.ManagerChatID, trackManager, vacation, h.employeeName(vacation.EmployeeID))
	}
}

// NotifyManager sends a plain message to the manager chat, if configured.
func (h *Handler) NotifyManager(text string) {
	if h.config.ManagerChatID == 0 {
		return
	}
	h.sendMessage(tgbotapi.NewMessage(h.config.ManagerChatID, text))
}
