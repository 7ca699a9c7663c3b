package models

import "github.com/google/uuid"

type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

// WSMessage is the envelope for everything pushed over a room socket.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const (
	WSTypeMemberCount  = "member_count"
	WSTypeChatMessage  = "chat_message"
	WSTypeTimerState   = "timer_state"
	WSTypeSessionError = "session_error"
	WSTypeProfile      = "profile_update"
)

type MemberCountPayload struct {
	RoomID uuid.UUID `json:"room_id"`
	Count  int64     `json:"count"`
}

// TimerStatePayload is the UI-visible snapshot of the session lifecycle.
type TimerStatePayload struct {
	Phase            string     `json:"phase"`
	RemainingSeconds int        `json:"remaining_seconds"`
	SessionID        *uuid.UUID `json:"session_id,omitempty"`
}

type SessionErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
