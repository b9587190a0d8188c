package handler

import (
	"fmt"
	"strconv"
	"strings"

	"hr-leave-bot/internal/models"
	"hr-leave-bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

const maxRequestedDays = 365

func (h *Handler) handleMenu(message *tgbotapi.Message, s *session) {
	chatID := message.Chat.ID

	switch strings.TrimSpace(message.Text) {
	case btnRequest:
		h.startVacationRequest(chatID, s)
	case btnHistory:
		h.sendVacationHistory(chatID, s.employeeID)
	case btnBalance:
		h.sendBalance(chatID, s.employeeID)
	case btnAbsences:
		h.sendAbsences(chatID, s.employeeID)
	case btnGrade:
		h.sendJobGrade(chatID, s.employeeID)
	case btnWorkDays:
		h.sendWorkDays(chatID, s.employeeID)
	case btnInfo:
		h.sendBasicInfo(chatID, s.employeeID)
	case btnLogout:
		h.logout(chatID)
		h.sendMessage(withKeyboard(tgbotapi.NewMessage(chatID, "🚪 تم تسجيل الخروج."), tgbotapi.NewRemoveKeyboard(true)))
	default:
		h.sendMainMenu(chatID, "اختر من القائمة 👇")
	}
}

func (h *Handler) resetDraft(s *session) {
	s.state = stateIdle
	s.draft = draft{}
}

func (h *Handler) startVacationRequest(chatID int64, s *session) {
	s.draft = draft{}
	s.state = stateVacationType

	options := make([]string, 0, len(models.LeaveTypes))
	for _, t := range models.LeaveTypes {
		options = append(options, string(t))
	}
	h.sendMessage(withKeyboard(tgbotapi.NewMessage(chatID, "📝 اختر نوع الإجازة:"), choiceKeyboard(options)))
}

func (h *Handler) handleVacationType(chatID int64, text string, s *session) {
	leaveType, ok := models.ParseLeaveType(text)
	if !ok {
		h.send(chatID, "❌ اختر نوع الإجازة من الأزرار.")
		return
	}
	s.draft.leaveType = leaveType

	switch leaveType {
	case models.LeaveBereavement:
		s.state = stateBereavementDegree
		options := []string{models.BereavementFirstDegree, models.BereavementSecondDegree}
		h.sendMessage(withKeyboard(tgbotapi.NewMessage(chatID, "اختر درجة القرابة:"), choiceKeyboard(options)))
	case models.LeaveMaternity:
		s.state = stateMaternityType
		options := []string{models.MaternitySingle, models.MaternityTwins}
		h.sendMessage(withKeyboard(tgbotapi.NewMessage(chatID, "اختر نوع الوضع:"), choiceKeyboard(options)))
	default:
		h.askStartDate(chatID, s)
	}
}

func (h *Handler) handleBereavementDegree(chatID int64, text string, s *session) {
	switch models.NormalizeSubtype(text) {
	case models.BereavementFirstDegree:
		s.draft.subtype = models.BereavementFirstDegree
		s.state = stateBereavementRelation
		h.sendMessage(withKeyboard(tgbotapi.NewMessage(chatID, "اختر صلة القرابة:"), choiceKeyboard(models.FirstDegreeRelations)))
	case models.BereavementSecondDegree:
		s.draft.subtype = models.BereavementSecondDegree
		s.draft.relation = models.RelationOtherRelative
		h.askStartDate(chatID, s)
	default:
		h.send(chatID, "❌ اختر درجة القرابة من الأزرار.")
	}
}

func (h *Handler) handleBereavementRelation(chatID int64, text string, s *session) {
	relation := models.NormalizeRelation(text)
	for _, r := range models.FirstDegreeRelations {
		if r == relation {
			s.draft.relation = relation
			h.askStartDate(chatID, s)
			return
		}
	}
	h.send(chatID, "❌ اختر صلة القرابة من الأزرار.")
}

func (h *Handler) handleMaternityType(chatID int64, text string, s *session) {
	subtype := models.NormalizeSubtype(text)
	if subtype != models.MaternitySingle && subtype != models.MaternityTwins {
		h.send(chatID, "❌ اختر نوع الوضع من الأزرار.")
		return
	}
	s.draft.subtype = subtype
	h.askStartDate(chatID, s)
}

func (h *Handler) askStartDate(chatID int64, s *session) {
	s.state = stateVacationStart
	msg := tgbotapi.NewMessage(chatID, "📅 أدخل تاريخ بداية الإجازة (مثال: 2024-03-15 أو 15/03/2024):")
	h.sendMessage(withKeyboard(msg, choiceKeyboard(nil)))
}

func (h *Handler) handleVacationStart(chatID int64, text string, s *session) {
	start, err := parseDate(text)
	if err != nil {
		h.send(chatID, "❌ صيغة التاريخ غير صحيحة. مثال: 2024-03-15")
		return
	}
	s.draft.start = start

	if days, fixed := models.DeriveDuration(s.draft.leaveType, s.draft.subtype, s.draft.relation); fixed {
		s.draft.duration = days
		h.askConfirm(chatID, s)
		return
	}

	s.state = stateVacationDuration
	h.send(chatID, "🔢 أدخل عدد أيام الإجازة:")
}

func (h *Handler) handleVacationDuration(chatID int64, text string, s *session) {
	days, err := strconv.Atoi(text)
	if err != nil || days < 1 || days > maxRequestedDays {
		h.send(chatID, fmt.Sprintf("❌ أدخل عددًا صحيحًا من 1 إلى %d.", maxRequestedDays))
		return
	}
	s.draft.duration = days
	h.askConfirm(chatID, s)
}

func (h *Handler) askConfirm(chatID int64, s *session) {
	s.state = stateVacationConfirm

	d := s.draft
	end := d.start.AddDate(0, 0, d.duration-1)
	var b strings.Builder
	fmt.Fprintf(&b, "📋 مراجعة الطلب:\n\nالنوع: %s", d.leaveType)
	if d.subtype != "" {
		fmt.Fprintf(&b, "\nالتفاصيل: %s", d.subtype)
	}
	if d.relation != "" {
		fmt.Fprintf(&b, "\nصلة القرابة: %s", d.relation)
	}
	fmt.Fprintf(&b, "\nمن: %s\nإلى: %s\nالمدة: %d يوم", d.start.Format(dateLayout), end.Format(dateLayout), d.duration)

	h.sendMessage(withKeyboard(tgbotapi.NewMessage(chatID, b.String()), choiceKeyboard([]string{btnConfirm})))
}

func (h *Handler) handleVacationConfirm(chatID int64, text string, from *tgbotapi.User, s *session) {
	if text != btnConfirm {
		h.send(chatID, "اضغط تأكيد لإرسال الطلب أو إلغاء للرجوع.")
		return
	}

	d := s.draft
	h.resetDraft(s)

	vacation, err := h.vacations.Submit(service.SubmitInput{
		EmployeeID: s.employeeID,
		Type:       string(d.leaveType),
		Subtype:    d.subtype,
		Relation:   d.relation,
		StartDate:  d.start,
		Duration:   d.duration,
		CreatedBy:  actorName(from, "employee"),
	})
	if err != nil {
		h.logger.WithError(err).WithField("employee_id", s.employeeID).Debug("Bot vacation request refused")
		h.sendMainMenu(chatID, errorText(err))
		return
	}

	h.logger.WithFields(logrus.Fields{
		"vacation_id": vacation.ID,
		"chat_id":     chatID,
	}).Info("Vacation request submitted from bot")

	text = fmt.Sprintf("✅ تم إرسال الطلب #%d.", vacation.ID)
	if vacation.Status == models.StatusApproved {
		text = fmt.Sprintf("✅ تمت الموافقة على الطلب #%d تلقائيًا.", vacation.ID)
	}
	h.sendMainMenu(chatID, text)
}

func (h *Handler) sendVacationHistory(chatID int64, employeeID uint) {
	vacations, err := h.vacations.ListByEmployee(employeeID)
	if err != nil {
		h.send(chatID, errorText(err))
		return
	}
	if len(vacations) == 0 {
		h.send(chatID, "📭 لا توجد طلبات إجازة.")
		return
	}

	var (
		b    strings.Builder
		rows [][]tgbotapi.InlineKeyboardButton
	)
	b.WriteString("📋 سجل الإجازات:\n")
	for _, v := range vacations {
		b.WriteString("\n" + formatVacation(v) + "\n")
		if models.CanPerform(models.RoleEmployee, models.ActionCancel, v.DepartmentStatus, v.Status) {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🚫 إلغاء الطلب #%d", v.ID), callbackData(trackEmployee, models.ActionCancel, v.ID)),
			))
		}
	}

	msg := tgbotapi.NewMessage(chatID, b.String())
	if len(rows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	h.sendMessage(msg)
}
