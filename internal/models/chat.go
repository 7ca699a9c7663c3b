package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is an append-only room message. ClientToken is generated by
// the sender so its own optimistic echo can be reconciled when the message
// comes back through the room subscription.
type ChatMessage struct {
	ID          uuid.UUID `json:"id"`
	RoomID      uuid.UUID `json:"room_id"`
	UserID      uuid.UUID `json:"user_id"`
	ClientToken string    `json:"client_token"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
}

type SendMessageRequest struct {
	ClientToken string `json:"client_token"`
	Text        string `json:"text"`
}
