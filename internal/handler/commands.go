package handler

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (h *Handler) handleCommand(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	command := message.Command()
	args := strings.TrimSpace(message.CommandArguments())

	switch command {
	case "start":
		h.handleStart(chatID)
	case "help":
		if h.isManager(chatID) {
			h.sendManagerHelp(chatID)
			return
		}
		h.sendHelp(chatID)
	case "pending":
		h.handlePending(chatID)
	case "dept":
		h.handleDepartmentLogin(chatID, args)
	case "cancel":
		h.handleManagerCancel(chatID, args, message.From)
	case "logout":
		h.logout(chatID)
		h.sendMessage(withKeyboard(tgbotapi.NewMessage(chatID, "🚪 تم تسجيل الخروج."), tgbotapi.NewRemoveKeyboard(true)))
	default:
		h.send(chatID, "❓ أمر غير معروف. أرسل /help لعرض الأوامر.")
	}
}

func (h *Handler) handleStart(chatID int64) {
	if h.isManager(chatID) {
		h.sendManagerHelp(chatID)
		return
	}

	s := h.session(chatID)
	if s.employeeID != 0 {
		h.sendMainMenu(chatID, "👋 أهلًا بعودتك.")
		return
	}

	s.state = stateAwaitPassword
	h.send(chatID, "🔐 أدخل كلمة مرور البوت:")
}

func (h *Handler) sendHelp(chatID int64) {
	text := "📖 الأوامر المتاحة:\n\n" +
		"/start - تسجيل الدخول وعرض القائمة\n" +
		"/dept <كلمة السر> - الدخول كرئيس قسم\n" +
		"/pending - الطلبات بانتظار قرارك\n" +
		"/logout - تسجيل الخروج"
	h.send(chatID, text)
}

func (h *Handler) sendManagerHelp(chatID int64) {
	text := "👔 أوامر المدير:\n\n" +
		"/pending - الطلبات بانتظار موافقة المدير\n" +
		"/cancel <رقم الطلب> - إلغاء طلب موافق عليه"
	h.send(chatID, text)
}

func (h *Handler) handleDepartmentLogin(chatID int64, secret string) {
	if secret == "" {
		h.send(chatID, "❌ الاستخدام: /dept <كلمة السر>")
		return
	}

	s := h.session(chatID)
	if !s.allowLogin() {
		h.send(chatID, tooManyAttempts)
		return
	}

	department, err := h.departments.AuthenticateHead(secret)
	if err != nil {
		h.logger.WithError(err).WithField("chat_id", chatID).Warn("Department head login failed")
		h.send(chatID, errorText(err))
		return
	}

	s.department = department.Name
	h.bindHead(chatID, department.Name)
	h.send(chatID, fmt.Sprintf("✅ تم الدخول كرئيس قسم %s.", department.Name))
	h.sendDepartmentPending(chatID, department.Name)
}

func (h *Handler) handlePending(chatID int64) {
	if h.isManager(chatID) {
		h.sendManagerPending(chatID)
		return
	}
	if department := h.session(chatID).department; department != "" {
		h.sendDepartmentPending(chatID, department)
		return
	}
	h.send(chatID, "⛔ هذا الأمر متاح للمدير ورؤساء الأقسام فقط.")
}

func (h *Handler) handleManagerCancel(chatID int64, args string, from *tgbotapi.User) {
	if !h.isManager(chatID) {
		h.send(chatID, "⛔ هذا الأمر متاح للمدير فقط.")
		return
	}

	id, err := strconv.ParseUint(args, 10, 64)
	if err != nil || id == 0 {
		h.send(chatID, "❌ الاستخدام: /cancel <رقم الطلب>")
		return
	}

	vacation, err := h.vacations.Cancel(uint(id), actorName(from, "manager"))
	if err != nil {
		h.send(chatID, errorText(err))
		return
	}
	h.send(chatID, fmt.Sprintf("🚫 تم إلغاء الطلب #%d وإعادة الرصيد.", vacation.ID))
}
