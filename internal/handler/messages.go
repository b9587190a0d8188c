package handler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"hr-leave-bot/internal/apperror"
	"hr-leave-bot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	btnRequest  = "📝 طلب إجازة"
	btnHistory  = "📋 سجل الإجازات"
	btnBalance  = "✈️ رصيد الإجازات"
	btnAbsences = "⏰ سجل الغياب"
	btnGrade    = "📊 الدرجة الوظيفية"
	btnWorkDays = "📅 أيام العمل"
	btnInfo     = "👤 البيانات الأساسية"
	btnLogout   = "🚪 تسجيل الخروج"
	btnConfirm  = "✅ تأكيد"
	btnCancel   = "❌ إلغاء"
)

const dateLayout = "2006-01-02"

var errForbidden = apperror.New(apperror.KindForbidden, "request belongs to another employee")

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnRequest),
			tgbotapi.NewKeyboardButton(btnHistory),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnBalance),
			tgbotapi.NewKeyboardButton(btnAbsences),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnGrade),
			tgbotapi.NewKeyboardButton(btnWorkDays),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnInfo),
			tgbotapi.NewKeyboardButton(btnLogout),
		),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}

// choiceKeyboard lays options out two per row with a cancel row at the end.
func choiceKeyboard(options []string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for i := 0; i < len(options); i += 2 {
		row := tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(options[i]))
		if i+1 < len(options) {
			row = append(row, tgbotapi.NewKeyboardButton(options[i+1]))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancel)))

	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.ResizeKeyboard = true
	keyboard.OneTimeKeyboard = true
	return keyboard
}

func withKeyboard(msg tgbotapi.MessageConfig, markup interface{}) tgbotapi.MessageConfig {
	msg.ReplyMarkup = markup
	return msg
}

func (h *Handler) sendMainMenu(chatID int64, text string) {
	h.sendMessage(withKeyboard(tgbotapi.NewMessage(chatID, text), mainMenuKeyboard()))
}

// parseDate accepts ISO dates and the day-first forms people type.
func parseDate(input string) (time.Time, error) {
	input = strings.TrimSpace(input)
	formats := []string{dateLayout, "02/01/2006", "2/1/2006", "02.01.2006", "02-01-2006"}

	for _, format := range formats {
		if t, err := time.Parse(format, input); err == nil {
			return models.DateOnly(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", input)
}

func formatVacation(v *models.Vacation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d | %s", v.ID, v.Type)
	if v.Subtype != "" {
		fmt.Fprintf(&b, " (%s)", v.Subtype)
	}
	if v.Relation != "" {
		fmt.Fprintf(&b, " - %s", v.Relation)
	}
	fmt.Fprintf(&b, "\n📅 %s ← %s (%d يوم)", v.StartDate.Format(dateLayout), v.EndDate.Format(dateLayout), v.Duration)
	fmt.Fprintf(&b, "\n🏢 القسم: %s | 👔 المدير: %s", v.DepartmentStatus, v.Status)
	return b.String()
}

// actorName identifies a Telegram user in audit records.
func actorName(from *tgbotapi.User, fallback string) string {
	if from == nil {
		return fallback
	}
	if from.UserName != "" {
		return "@" + from.UserName
	}
	return fmt.Sprintf("%s (tg:%d)", fallback, from.ID)
}

// errorText turns a service error into a message for the chat.
func errorText(err error) string {
	var balErr *apperror.InsufficientBalanceError
	if errors.As(err, &balErr) {
		return fmt.Sprintf("❌ الرصيد غير كافٍ: المتاح %d يوم والمطلوب %d يوم.", balErr.Available, balErr.Requested)
	}

	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		return "❌ بيانات غير صحيحة: " + err.Error()
	case apperror.KindConflict:
		return "❌ يوجد طلب إجازة آخر يتداخل مع هذه التواريخ."
	case apperror.KindInvalidTransition:
		return "⚠️ لا يمكن تنفيذ هذا الإجراء في حالة الطلب الحالية."
	case apperror.KindNotFound:
		return "❌ السجل غير موجود."
	case apperror.KindForbidden:
		return "⛔ غير مسموح لك بتنفيذ هذا الإجراء."
	case apperror.KindUnauthorized:
		return "❌ بيانات الدخول غير صحيحة."
	case apperror.KindDuplicate:
		return "❌ السجل موجود بالفعل."
	}
	return "⚠️ حدث خطأ، حاول مرة أخرى لاحقًا."
}
