package handler

import (
	"crypto/subtle"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

const tooManyAttempts = "⏳ محاولات كثيرة، انتظر قليلًا ثم حاول مرة أخرى."

func (h *Handler) handleState(message *tgbotapi.Message, s *session) {
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	if text == btnCancel && s.state != stateAwaitPassword {
		h.resetDraft(s)
		if s.employeeID != 0 {
			h.sendMainMenu(chatID, "↩️ تم الإلغاء.")
		} else {
			h.sendMessage(withKeyboard(tgbotapi.NewMessage(chatID, "↩️ تم الإلغاء."), tgbotapi.NewRemoveKeyboard(true)))
		}
		return
	}

	switch s.state {
	case stateAwaitPassword:
		h.handlePassword(chatID, text, s)
	case stateAwaitNationalID:
		h.handleNationalID(chatID, text, s)
	case stateAwaitSerial:
		h.handleSerial(chatID, text, s)
	case stateVacationType:
		h.handleVacationType(chatID, text, s)
	case stateBereavementDegree:
		h.handleBereavementDegree(chatID, text, s)
	case stateBereavementRelation:
		h.handleBereavementRelation(chatID, text, s)
	case stateMaternityType:
		h.handleMaternityType(chatID, text, s)
	case stateVacationStart:
		h.handleVacationStart(chatID, text, s)
	case stateVacationDuration:
		h.handleVacationDuration(chatID, text, s)
	case stateVacationConfirm:
		h.handleVacationConfirm(chatID, text, message.From, s)
	default:
		s.state = stateIdle
	}
}

func (h *Handler) handlePassword(chatID int64, text string, s *session) {
	if !s.allowLogin() {
		h.send(chatID, tooManyAttempts)
		return
	}
	if subtle.ConstantTimeCompare([]byte(text), []byte(h.config.BotPassword)) != 1 {
		h.logger.WithField("chat_id", chatID).Warn("Wrong bot password")
		h.send(chatID, "❌ كلمة المرور غير صحيحة. حاول مرة أخرى:")
		return
	}
	s.state = stateAwaitNationalID
	h.send(chatID, "🪪 أدخل الرقم القومي (12 رقمًا):")
}

func (h *Handler) handleNationalID(chatID int64, text string, s *session) {
	s.nationalID = text
	s.state = stateAwaitSerial
	h.send(chatID, "🔢 أدخل الرقم الوظيفي:")
}

func (h *Handler) handleSerial(chatID int64, text string, s *session) {
	if !s.allowLogin() {
		h.send(chatID, tooManyAttempts)
		return
	}
	employee, err := h.employees.Authenticate(s.nationalID, text)
	s.nationalID = ""
	if err != nil {
		h.logger.WithError(err).WithField("chat_id", chatID).Warn("Employee login failed")
		s.state = stateAwaitNationalID
		h.send(chatID, errorText(err)+"\n🪪 أدخل الرقم القومي مرة أخرى:")
		return
	}

	s.state = stateIdle
	s.employeeID = employee.ID
	h.bindEmployee(chatID, employee.ID)

	h.logger.WithFields(logrus.Fields{
		"chat_id":     chatID,
		"employee_id": employee.ID,
	}).Info("Employee logged in")
	h.sendMainMenu(chatID, "✅ مرحبًا "+employee.Name+"!")
}
