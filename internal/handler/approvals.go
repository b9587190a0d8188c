package handler

import (
	"fmt"
	"strconv"
	"strings"

	"hr-leave-bot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Callback tracks: who is acting on the request.
const (
	trackManager    = "mgr"
	trackDepartment = "dept"
	trackEmployee   = "emp"
)

// callbackData encodes track, action and request id as "mgr:approve:12".
func callbackData(track string, action models.Action, id uint) string {
	return fmt.Sprintf("%s:%s:%d", track, action, id)
}

func parseCallback(data string) (string, models.Action, uint, bool) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 {
		return "", "", 0, false
	}
	id, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil || id == 0 {
		return "", "", 0, false
	}
	return parts[0], models.Action(parts[1]), uint(id), true
}

func decisionKeyboard(track string, id uint) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ موافقة", callbackData(track, models.ActionApprove, id)),
			tgbotapi.NewInlineKeyboardButtonData("❌ رفض", callbackData(track, models.ActionReject, id)),
		),
	)
}

func (h *Handler) handleCallbackQuery(callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID

	h.logger.WithFields(logrus.Fields{
		"chat_id": chatID,
		"data":    callback.Data,
	}).Debug("Callback received")

	answer := h.dispatchCallback(chatID, callback)
	h.request(tgbotapi.NewCallback(callback.ID, answer))
}

// dispatchCallback performs the action and returns the short text shown to
// the user as the callback answer.
func (h *Handler) dispatchCallback(chatID int64, callback *tgbotapi.CallbackQuery) string {
	track, action, id, ok := parseCallback(callback.Data)
	if !ok {
		return "طلب غير صالح"
	}

	var (
		vacation *models.Vacation
		err      error
	)
	switch track {
	case trackManager:
		if !h.isManager(chatID) {
			return "⛔ للمدير فقط"
		}
		actor := actorName(callback.From, "manager")
		switch action {
		case models.ActionApprove:
			vacation, err = h.vacations.SetManagerStatus(id, models.StatusApproved.Code(), actor)
		case models.ActionReject:
			vacation, err = h.vacations.SetManagerStatus(id, models.StatusRejected.Code(), actor)
		case models.ActionCancel:
			vacation, err = h.vacations.Cancel(id, actor)
		default:
			return "طلب غير صالح"
		}

	case trackDepartment:
		department := h.session(chatID).department
		if department == "" {
			return "⛔ سجّل الدخول برمز القسم أولًا"
		}
		decision := models.StatusApproved.Code()
		if action == models.ActionReject {
			decision = models.StatusRejected.Code()
		} else if action != models.ActionApprove {
			return "طلب غير صالح"
		}
		vacation, err = h.vacations.SetDepartmentStatus(id, department, decision, actorName(callback.From, "head of "+department))

	case trackEmployee:
		vacation, err = h.cancelOwnRequest(chatID, id, action, callback.From)

	default:
		return "طلب غير صالح"
	}

	if err != nil {
		h.send(chatID, errorText(err))
		return "تعذر تنفيذ الإجراء"
	}

	// the buttons are spent once a decision is recorded
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, callback.Message.MessageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
	h.request(edit)
	h.send(chatID, "تم تحديث الطلب:\n"+formatVacation(vacation))
	return "تم"
}

func (h *Handler) cancelOwnRequest(chatID int64, id uint, action models.Action, from *tgbotapi.User) (*models.Vacation, error) {
	s := h.session(chatID)
	if action != models.ActionCancel || s.employeeID == 0 {
		return nil, errForbidden
	}

	vacation, err := h.vacations.Get(id)
	if err != nil {
		return nil, err
	}
	if vacation.EmployeeID != s.employeeID {
		return nil, errForbidden
	}
	return h.vacations.Cancel(id, actorName(from, "employee"))
}

func (h *Handler) sendManagerPending(chatID int64) {
	vacations, err := h.vacations.ListPendingForManager()
	if err != nil {
		h.send(chatID, errorText(err))
		return
	}
	if len(vacations) == 0 {
		h.send(chatID, "📭 لا توجد طلبات بانتظار موافقة المدير.")
		return
	}
	for _, v := range vacations {
		h.sendDecisionRequest(chatID, trackManager, v, h.employeeName(v.EmployeeID))
	}
}

func (h *Handler) sendDepartmentPending(chatID int64, department string) {
	vacations, err := h.vacations.ListPendingForDepartment(department)
	if err != nil {
		h.send(chatID, errorText(err))
		return
	}
	if len(vacations) == 0 {
		h.send(chatID, "📭 لا توجد طلبات بانتظار موافقة القسم.")
		return
	}
	for _, v := range vacations {
		h.sendDecisionRequest(chatID, trackDepartment, v, h.employeeName(v.EmployeeID))
	}
}

func (h *Handler) sendDecisionRequest(chatID int64, track string, v *models.Vacation, employee string) {
	text := fmt.Sprintf("👤 %s\n%s", employee, formatVacation(v))
	if v.Notes != "" {
		text += "\n📝 " + v.Notes
	}
	h.sendMessage(withKeyboard(tgbotapi.NewMessage(chatID, text), decisionKeyboard(track, v.ID)))
}

func (h *Handler) employeeName(id uint) string {
	e, err := h.employees.Get(id)
	if err != nil || e == nil {
		return fmt.Sprintf("موظف #%d", id)
	}
	return fmt.Sprintf("%s (%s) - %s", e.Name, e.SerialNumber, e.Department)
}
