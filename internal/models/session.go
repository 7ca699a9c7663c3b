package models

import (
	"time"

	"github.com/google/uuid"
)

// StudySession is one attempted work interval. A row is created when the
// interval starts and mutated exactly once, to mark completion, when the
// countdown reaches zero. It is never deleted.
type StudySession struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	RoomLabel       string     `json:"room_label"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	Completed       bool       `json:"completed"`
	DurationMinutes int        `json:"duration_minutes"`
}
