package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestApplyWorkInterval_NewDayExtendsStreak(t *testing.T) {
	last := day("2024-01-09")
	p := &Profile{
		CurrentStreak:     3,
		LongestStreak:     5,
		TotalStudyMinutes: 200,
		LastSessionDate:   &last,
	}

	p.ApplyWorkInterval(45, day("2024-01-10"))

	assert.Equal(t, 4, p.CurrentStreak)
	assert.Equal(t, 5, p.LongestStreak)
	assert.Equal(t, 245, p.TotalStudyMinutes)
	assert.Equal(t, day("2024-01-10"), *p.LastSessionDate)
}

func TestApplyWorkInterval_SameDayOnlyAddsMinutes(t *testing.T) {
	last := day("2024-01-09")
	p := &Profile{
		CurrentStreak:     3,
		LongestStreak:     5,
		TotalStudyMinutes: 200,
		LastSessionDate:   &last,
	}

	p.ApplyWorkInterval(45, day("2024-01-10"))
	p.ApplyWorkInterval(45, day("2024-01-10"))

	assert.Equal(t, 4, p.CurrentStreak, "streak credited once per day")
	assert.Equal(t, 290, p.TotalStudyMinutes)
}

func TestApplyWorkInterval_FirstEverSession(t *testing.T) {
	p := &Profile{}

	p.ApplyWorkInterval(45, day("2024-01-10"))

	assert.Equal(t, 1, p.CurrentStreak)
	assert.Equal(t, 1, p.LongestStreak)
	assert.Equal(t, 45, p.TotalStudyMinutes)
}

func TestApplyWorkInterval_LongestTracksCurrent(t *testing.T) {
	last := day("2024-01-09")
	p := &Profile{
		CurrentStreak:   5,
		LongestStreak:   5,
		LastSessionDate: &last,
	}

	p.ApplyWorkInterval(45, day("2024-01-10"))

	assert.Equal(t, 6, p.CurrentStreak)
	assert.Equal(t, 6, p.LongestStreak)
}

func TestApplyWorkInterval_TruncatesToUTCDay(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*60*60)
	morning := time.Date(2024, 1, 10, 6, 0, 0, 0, loc)  // 2024-01-09 23:00 UTC
	evening := time.Date(2024, 1, 10, 20, 0, 0, 0, loc) // 2024-01-10 13:00 UTC

	p := &Profile{}
	p.ApplyWorkInterval(45, morning)
	p.ApplyWorkInterval(45, evening)

	assert.Equal(t, 2, p.CurrentStreak, "local same-day spanning a UTC boundary counts as two days")
}

func TestPremium(t *testing.T) {
	now := day("2024-06-01")
	future := day("2024-07-01")
	past := day("2024-05-01")

	tests := []struct {
		name     string
		profile  Profile
		expected bool
	}{
		{"free never premium", Profile{Plan: PlanFree}, false},
		{"forever always premium", Profile{Plan: PlanForever}, true},
		{"monthly unexpired", Profile{Plan: PlanMonthly, PlanExpiresAt: &future}, true},
		{"monthly expired", Profile{Plan: PlanMonthly, PlanExpiresAt: &past}, false},
		{"yearly unexpired", Profile{Plan: PlanYearly, PlanExpiresAt: &future}, true},
		{"yearly missing expiry", Profile{Plan: PlanYearly}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.profile.Premium(now))
		})
	}
}
