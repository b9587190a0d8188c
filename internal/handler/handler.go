package handler

import (
	"sync"

	"hr-leave-bot/internal/config"
	"hr-leave-bot/internal/service"
	"hr-leave-bot/pkg/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	client      telegram.Sender
	employees   *service.EmployeeService
	departments *service.DepartmentService
	vacations   *service.VacationService
	absences    *service.AbsenceService
	ledger      *service.LedgerService
	config      *config.BotConfig
	logger      *logrus.Logger

	// sessions is only touched from the update loop.
	sessions map[int64]*session

	// chat indexes used by notifications, which arrive from other goroutines
	chatsMu       sync.RWMutex
	employeeChats map[uint]int64
	headChats     map[int64]string
}

func NewHandler(
	client telegram.Sender,
	employees *service.EmployeeService,
	departments *service.DepartmentService,
	vacations *service.VacationService,
	absences *service.AbsenceService,
	ledger *service.LedgerService,
	cfg *config.BotConfig,
	logger *logrus.Logger,
) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		client:        client,
		employees:     employees,
		departments:   departments,
		vacations:     vacations,
		absences:      absences,
		ledger:        ledger,
		config:        cfg,
		logger:        logger,
		sessions:      make(map[int64]*session),
		employeeChats: make(map[uint]int64),
		headChats:     make(map[int64]string),
	}
}

func (h *Handler) HandleUpdates(updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		h.HandleUpdate(update)
	}
}

func (h *Handler) HandleUpdate(update tgbotapi.Update) {
	// inline button presses
	if update.CallbackQuery != nil {
		h.handleCallbackQuery(update.CallbackQuery)
		return
	}

	if update.Message == nil {
		return
	}

	h.handleMessage(update.Message)
}

func (h *Handler) handleMessage(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	fields := logrus.Fields{"chat_id": chatID}
	if message.From != nil {
		fields["user"] = message.From.UserName
	}
	h.logger.WithFields(fields).Debug("Message received")

	if message.IsCommand() {
		h.handleCommand(message)
		return
	}

	if h.isManager(chatID) {
		h.sendManagerHelp(chatID)
		return
	}

	s := h.session(chatID)
	if s.state != stateIdle {
		h.handleState(message, s)
		return
	}

	if s.employeeID != 0 {
		h.handleMenu(message, s)
		return
	}

	h.send(chatID, "👋 أرسل /start لتسجيل الدخول.")
}

func (h *Handler) isManager(chatID int64) bool {
	return h.config.ManagerChatID != 0 && chatID == h.config.ManagerChatID
}

func (h *Handler) send(chatID int64, text string) {
	h.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func (h *Handler) sendMessage(msg tgbotapi.MessageConfig) {
	if _, err := h.client.Send(msg); err != nil {
		h.logger.WithError(err).WithField("chat_id", msg.ChatID).Error("Failed to send message")
	}
}

func (h *Handler) request(c tgbotapi.Chattable) {
	if _, err := h.client.Request(c); err != nil {
		h.logger.WithError(err).Warn("Telegram request failed")
	}
}
