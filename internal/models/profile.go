package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile holds the durable per-user study aggregates. Counters are only
// mutated through CompleteWorkInterval on the profile repository.
type Profile struct {
	UserID            uuid.UUID  `json:"user_id"`
	CurrentStreak     int        `json:"current_streak"`
	LongestStreak     int        `json:"longest_streak"`
	TotalStudyMinutes int        `json:"total_study_minutes"`
	LastSessionDate   *time.Time `json:"last_session_date,omitempty"`
	Plan              string     `json:"plan"`
	PlanExpiresAt     *time.Time `json:"plan_expires_at,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

const (
	PlanFree    = "free"
	PlanMonthly = "monthly"
	PlanYearly  = "yearly"
	PlanForever = "forever"
)

// ApplyWorkInterval advances the aggregates for one completed work interval
// on the given calendar day. The streak is credited at most once per day:
// a second completion on the same day only adds study minutes.
func (p *Profile) ApplyWorkInterval(minutes int, today time.Time) {
	day := today.UTC().Truncate(24 * time.Hour)

	if p.LastSessionDate == nil || !p.LastSessionDate.UTC().Truncate(24*time.Hour).Equal(day) {
		p.CurrentStreak++
	}
	if p.CurrentStreak > p.LongestStreak {
		p.LongestStreak = p.CurrentStreak
	}
	p.TotalStudyMinutes += minutes
	p.LastSessionDate = &day
}

// Premium reports whether the plan grants premium affordances at the given
// instant. The forever plan never expires.
func (p *Profile) Premium(now time.Time) bool {
	switch p.Plan {
	case PlanForever:
		return true
	case PlanMonthly, PlanYearly:
		return p.PlanExpiresAt != nil && now.Before(*p.PlanExpiresAt)
	default:
		return false
	}
}

type LeaderboardEntry struct {
	UserID            uuid.UUID `json:"user_id"`
	FullName          string    `json:"full_name"`
	AvatarURL         *string   `json:"avatar_url"`
	CurrentStreak     int       `json:"current_streak"`
	TotalStudyMinutes int       `json:"total_study_minutes"`
}
