package handlers

import (
	"net/http"

	"focusroom-backend/internal/repository"
)

const leaderboardSize = 10

type LeaderboardHandler struct {
	profileRepo *repository.ProfileRepo
}

func NewLeaderboardHandler(profileRepo *repository.ProfileRepo) *LeaderboardHandler {
	return &LeaderboardHandler{profileRepo: profileRepo}
}

// Get returns the top profiles ranked by streak and by total study time.
func (h *LeaderboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	byStreak, err := h.profileRepo.TopByStreak(r.Context(), leaderboardSize)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load leaderboard", r))
		return
	}

	byTime, err := h.profileRepo.TopByStudyTime(r.Context(), leaderboardSize)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load leaderboard", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"by_streak":     byStreak,
		"by_study_time": byTime,
	})
}
