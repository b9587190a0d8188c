package handler

import (
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"hr-leave-bot/internal/apperror"
	"hr-leave-bot/internal/config"
	"hr-leave-bot/internal/database"
	"hr-leave-bot/internal/models"
	"hr-leave-bot/internal/repository"
	"hr-leave-bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	managerChat  int64 = 900
	employeeChat int64 = 100
	headChat     int64 = 200
	nursing            = "التمريض"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) messagesTo(chatID int64) []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok && msg.ChatID == chatID {
			out = append(out, msg)
		}
	}
	return out
}

func (f *fakeSender) lastTo(t *testing.T, chatID int64) tgbotapi.MessageConfig {
	t.Helper()
	msgs := f.messagesTo(chatID)
	require.NotEmpty(t, msgs, "no message sent to chat %d", chatID)
	return msgs[len(msgs)-1]
}

func (f *fakeSender) lastAnswer(t *testing.T) tgbotapi.CallbackConfig {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if cb, ok := f.sent[i].(tgbotapi.CallbackConfig); ok {
			return cb
		}
	}
	t.Fatal("no callback answer sent")
	return tgbotapi.CallbackConfig{}
}

type testBot struct {
	handler     *Handler
	sender      *fakeSender
	employees   *service.EmployeeService
	departments *service.DepartmentService
	vacations   *service.VacationService
	ledger      *service.LedgerService
}

func newTestBot(t *testing.T) *testBot {
	t.Helper()

	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	store, err := repository.NewStore(db)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	ledger := service.NewLedgerService(store, logger)
	employees := service.NewEmployeeService(store, 30, 12, logger)
	departments := service.NewDepartmentService(store, logger)
	vacations := service.NewVacationService(store, ledger, repository.ConflictPolicy{CancelledBlocks: true}, logger)
	absences := service.NewAbsenceService(store, logger)
	require.NoError(t, departments.SeedDefaults())

	sender := &fakeSender{}
	cfg := &config.BotConfig{BotPassword: "letmein", ManagerChatID: managerChat}
	h := NewHandler(sender, employees, departments, vacations, absences, ledger, cfg, logger)
	vacations.SetNotifier(h)

	return &testBot{
		handler:     h,
		sender:      sender,
		employees:   employees,
		departments: departments,
		vacations:   vacations,
		ledger:      ledger,
	}
}

func (b *testBot) employee(t *testing.T, serial string) *models.Employee {
	t.Helper()
	e, err := b.employees.Create(service.EmployeeInput{
		SerialNumber: serial,
		NationalID:   "2900000000" + serial,
		Name:         "Employee " + serial,
		Department:   nursing,
	}, "hr")
	require.NoError(t, err)
	return e
}

func (b *testBot) text(chatID int64, text string) {
	b.handler.HandleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: chatID, UserName: fmt.Sprintf("user%d", chatID)},
		Text: text,
	}})
}

func (b *testBot) command(chatID int64, command, args string) {
	text := "/" + command
	if args != "" {
		text += " " + args
	}
	b.handler.HandleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		From:     &tgbotapi.User{ID: chatID, UserName: fmt.Sprintf("user%d", chatID)},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(command) + 1}},
	}})
}

func (b *testBot) callback(chatID int64, data string) {
	b.handler.HandleUpdate(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: chatID, UserName: fmt.Sprintf("user%d", chatID)},
		Message: &tgbotapi.Message{MessageID: 1, Chat: &tgbotapi.Chat{ID: chatID}},
		Data:    data,
	}})
}

func (b *testBot) login(t *testing.T, chatID int64, e *models.Employee) {
	t.Helper()
	b.command(chatID, "start", "")
	b.text(chatID, "letmein")
	b.text(chatID, e.NationalID)
	b.text(chatID, e.SerialNumber)
	require.Equal(t, e.ID, b.handler.session(chatID).employeeID)
}

func TestLogin(t *testing.T) {
	bot := newTestBot(t)
	e := bot.employee(t, "01")

	bot.command(employeeChat, "start", "")
	bot.text(employeeChat, "wrong")
	assert.Contains(t, bot.sender.lastTo(t, employeeChat).Text, "كلمة المرور غير صحيحة")
	assert.Equal(t, stateAwaitPassword, bot.handler.session(employeeChat).state)

	bot.text(employeeChat, "letmein")
	bot.text(employeeChat, e.NationalID)
	bot.text(employeeChat, "99")
	assert.Contains(t, bot.sender.lastTo(t, employeeChat).Text, "بيانات الدخول غير صحيحة")
	assert.Zero(t, bot.handler.session(employeeChat).employeeID)

	bot.text(employeeChat, e.NationalID)
	bot.text(employeeChat, e.SerialNumber)
	assert.Equal(t, e.ID, bot.handler.session(employeeChat).employeeID)

	chatID, ok := bot.handler.employeeChat(e.ID)
	assert.True(t, ok)
	assert.Equal(t, employeeChat, chatID)

	bot.text(employeeChat, btnLogout)
	_, ok = bot.handler.employeeChat(e.ID)
	assert.False(t, ok)
}

func TestVacationRequestThroughBothTracks(t *testing.T) {
	bot := newTestBot(t)
	e := bot.employee(t, "01")
	require.NoError(t, bot.departments.SetHead(nursing, e.ID, "head-secret", "hr"))

	bot.command(headChat, "dept", "head-secret")
	assert.Equal(t, nursing, bot.handler.session(headChat).department)

	bot.login(t, employeeChat, e)
	bot.text(employeeChat, btnRequest)
	bot.text(employeeChat, string(models.LeaveAnnual))
	bot.text(employeeChat, "10/03/2024")
	bot.text(employeeChat, "5")
	bot.text(employeeChat, btnConfirm)

	vacations, err := bot.vacations.ListByEmployee(e.ID)
	require.NoError(t, err)
	require.Len(t, vacations, 1)
	v := vacations[0]
	assert.Equal(t, 5, v.Duration)
	assert.Equal(t, "2024-03-14", v.EndDate.Format(dateLayout))
	assert.Equal(t, models.StatusPending, v.DepartmentStatus)

	// the department head is offered the decision
	headMsg := bot.sender.lastTo(t, headChat)
	assert.IsType(t, tgbotapi.InlineKeyboardMarkup{}, headMsg.ReplyMarkup)

	bot.callback(headChat, callbackData(trackDepartment, models.ActionApprove, v.ID))
	assert.Equal(t, "تم", bot.sender.lastAnswer(t).Text)

	managerMsg := bot.sender.lastTo(t, managerChat)
	assert.IsType(t, tgbotapi.InlineKeyboardMarkup{}, managerMsg.ReplyMarkup)

	bot.callback(managerChat, callbackData(trackManager, models.ActionApprove, v.ID))
	balance, err := bot.ledger.GetBalance(e.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, balance.Annual)
	assert.Contains(t, bot.sender.lastTo(t, employeeChat).Text, string(models.StatusApproved))

	bot.callback(employeeChat, callbackData(trackEmployee, models.ActionCancel, v.ID))
	balance, err = bot.ledger.GetBalance(e.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, balance.Annual)

	got, err := bot.vacations.Get(v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
}

func TestFixedDurationSkipsDurationPrompt(t *testing.T) {
	bot := newTestBot(t)
	e := bot.employee(t, "01")
	bot.login(t, employeeChat, e)

	bot.text(employeeChat, btnRequest)
	bot.text(employeeChat, string(models.LeaveBereavement))
	bot.text(employeeChat, models.BereavementFirstDegree)
	bot.text(employeeChat, models.RelationSpouse)
	bot.text(employeeChat, "2024-05-01")
	assert.Equal(t, stateVacationConfirm, bot.handler.session(employeeChat).state)
	bot.text(employeeChat, btnConfirm)

	vacations, err := bot.vacations.ListByEmployee(e.ID)
	require.NoError(t, err)
	require.Len(t, vacations, 1)
	assert.Equal(t, 130, vacations[0].Duration)
	assert.Equal(t, models.RelationSpouse, vacations[0].Relation)
}

func TestSickLeaveTellsManager(t *testing.T) {
	bot := newTestBot(t)
	e := bot.employee(t, "01")
	bot.login(t, employeeChat, e)

	bot.text(employeeChat, btnRequest)
	bot.text(employeeChat, string(models.LeaveSick))
	bot.text(employeeChat, "2024-05-01")
	bot.text(employeeChat, "3")
	bot.text(employeeChat, btnConfirm)

	assert.Contains(t, bot.sender.lastTo(t, employeeChat).Text, "تلقائيًا")
	assert.Contains(t, bot.sender.lastTo(t, managerChat).Text, "معتمدة تلقائيًا")
}

func TestInsufficientBalanceIsReported(t *testing.T) {
	bot := newTestBot(t)
	e := bot.employee(t, "01")
	bot.login(t, employeeChat, e)

	bot.text(employeeChat, btnRequest)
	bot.text(employeeChat, string(models.LeaveEmergency))
	bot.text(employeeChat, "2024-05-01")
	bot.text(employeeChat, "13")
	bot.text(employeeChat, btnConfirm)

	assert.Contains(t, bot.sender.lastTo(t, employeeChat).Text, "المتاح 12")
	vacations, err := bot.vacations.ListByEmployee(e.ID)
	require.NoError(t, err)
	assert.Empty(t, vacations)
}

func TestCallbacksCheckWhoActs(t *testing.T) {
	bot := newTestBot(t)
	owner := bot.employee(t, "01")
	other := bot.employee(t, "02")

	v, err := bot.vacations.Submit(service.SubmitInput{
		EmployeeID: owner.ID, Type: "annual", StartDate: mustDate(t, "2024-04-01"), Duration: 2,
	})
	require.NoError(t, err)

	// only the manager chat may use manager buttons
	bot.callback(employeeChat, callbackData(trackManager, models.ActionApprove, v.ID))
	assert.Equal(t, "⛔ للمدير فقط", bot.sender.lastAnswer(t).Text)

	// department buttons need a department login
	bot.callback(headChat, callbackData(trackDepartment, models.ActionApprove, v.ID))
	assert.Contains(t, bot.sender.lastAnswer(t).Text, "رمز القسم")

	_, err = bot.vacations.SetDepartmentStatus(v.ID, nursing, "approved", "head")
	require.NoError(t, err)
	_, err = bot.vacations.SetManagerStatus(v.ID, "approved", "manager")
	require.NoError(t, err)

	bot.login(t, employeeChat, other)
	bot.callback(employeeChat, callbackData(trackEmployee, models.ActionCancel, v.ID))
	assert.Equal(t, "تعذر تنفيذ الإجراء", bot.sender.lastAnswer(t).Text)

	got, err := bot.vacations.Get(v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
}

func TestManagerCancelCommand(t *testing.T) {
	bot := newTestBot(t)
	e := bot.employee(t, "01")

	v, err := bot.vacations.Submit(service.SubmitInput{
		EmployeeID: e.ID, Type: "annual", StartDate: mustDate(t, "2024-04-01"), Duration: 4,
	})
	require.NoError(t, err)
	_, err = bot.vacations.SetDepartmentStatus(v.ID, nursing, "approved", "head")
	require.NoError(t, err)
	_, err = bot.vacations.SetManagerStatus(v.ID, "approved", "manager")
	require.NoError(t, err)

	bot.command(employeeChat, "cancel", fmt.Sprint(v.ID))
	assert.Contains(t, bot.sender.lastTo(t, employeeChat).Text, "للمدير فقط")

	bot.command(managerChat, "cancel", fmt.Sprint(v.ID))
	assert.Contains(t, bot.sender.lastTo(t, managerChat).Text, fmt.Sprintf("#%d", v.ID))

	balance, err := bot.ledger.GetBalance(e.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, balance.Annual)
}

func TestParseCallback(t *testing.T) {
	track, action, id, ok := parseCallback("dept:reject:42")
	require.True(t, ok)
	assert.Equal(t, trackDepartment, track)
	assert.Equal(t, models.ActionReject, action)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"", "mgr:approve", "mgr:approve:x", "mgr:approve:0", "a:b:1:2"} {
		_, _, _, ok := parseCallback(bad)
		assert.False(t, ok, bad)
	}
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"2024-03-05", "05/03/2024", "5/3/2024", "05.03.2024", "05-03-2024"} {
		d, err := parseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, "2024-03-05", d.Format(dateLayout))
	}

	_, err := parseDate("tomorrow")
	assert.Error(t, err)
}

func TestErrorText(t *testing.T) {
	assert.Contains(t, errorText(&apperror.InsufficientBalanceError{Available: 2, Requested: 5}), "المتاح 2")
	assert.Contains(t, errorText(apperror.New(apperror.KindConflict, "overlap")), "يتداخل")
	assert.Contains(t, errorText(fmt.Errorf("boom")), "حدث خطأ")
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := parseDate(s)
	require.NoError(t, err)
	return d
}

func TestLoginAttemptsAreLimited(t *testing.T) {
	bot := newTestBot(t)
	bot.employee(t, "01")

	bot.command(employeeChat, "start", "")
	for i := 0; i < loginBurst; i++ {
		bot.text(employeeChat, "wrong")
	}
	bot.command(employeeChat, "logout", "")
	bot.command(employeeChat, "start", "")
	bot.text(employeeChat, "letmein")

	assert.Equal(t, tooManyAttempts, bot.sender.lastTo(t, employeeChat).Text)
	assert.Equal(t, stateAwaitPassword, bot.handler.session(employeeChat).state)
	assert.Zero(t, bot.handler.session(employeeChat).employeeID)
}
