package handler

import (
	"time"

	"hr-leave-bot/internal/models"

	"golang.org/x/time/rate"
)

// Login attempts per chat: a burst of five, then one every 30 seconds.
const (
	loginBurst    = 5
	loginInterval = 30 * time.Second
)

type state string

const (
	stateIdle                state = ""
	stateAwaitPassword       state = "awaiting_password"
	stateAwaitNationalID     state = "awaiting_national_id"
	stateAwaitSerial         state = "awaiting_serial"
	stateVacationType        state = "vacation_type"
	stateBereavementDegree   state = "bereavement_degree"
	stateBereavementRelation state = "bereavement_relation"
	stateMaternityType       state = "maternity_type"
	stateVacationStart       state = "vacation_start"
	stateVacationDuration    state = "vacation_duration"
	stateVacationConfirm     state = "vacation_confirm"
)

type session struct {
	state      state
	nationalID string // login in progress
	employeeID uint
	department string // set after a department head login
	draft      draft

	logins *rate.Limiter
}

// allowLogin spends one login attempt of the chat.
func (s *session) allowLogin() bool {
	if s.logins == nil {
		s.logins = rate.NewLimiter(rate.Every(loginInterval), loginBurst)
	}
	return s.logins.Allow()
}

// draft is the vacation request being assembled.
type draft struct {
	leaveType models.LeaveType
	subtype   string
	relation  string
	start     time.Time
	duration  int
}

func (h *Handler) session(chatID int64) *session {
	s, ok := h.sessions[chatID]
	if !ok {
		s = &session{}
		h.sessions[chatID] = s
	}
	return s
}

func (h *Handler) bindEmployee(chatID int64, employeeID uint) {
	h.chatsMu.Lock()
	defer h.chatsMu.Unlock()
	h.employeeChats[employeeID] = chatID
}

func (h *Handler) bindHead(chatID int64, department string) {
	h.chatsMu.Lock()
	defer h.chatsMu.Unlock()
	h.headChats[chatID] = department
}

func (h *Handler) logout(chatID int64) {
	s := h.session(chatID)

	h.chatsMu.Lock()
	if s.employeeID != 0 && h.employeeChats[s.employeeID] == chatID {
		delete(h.employeeChats, s.employeeID)
	}
	delete(h.headChats, chatID)
	h.chatsMu.Unlock()

	// the login budget survives a logout
	h.sessions[chatID] = &session{logins: s.logins}
}

func (h *Handler) employeeChat(employeeID uint) (int64, bool) {
	h.chatsMu.RLock()
	defer h.chatsMu.RUnlock()
	chatID, ok := h.employeeChats[employeeID]
	return chatID, ok
}

func (h *Handler) headChatsFor(department string) []int64 {
	h.chatsMu.RLock()
	defer h.chatsMu.RUnlock()

	var chats []int64
	for chatID, d := range h.headChats {
		if d == department {
			chats = append(chats, chatID)
		}
	}
	return chats
}
