package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"

	"focusroom-backend/internal/middleware"
	"focusroom-backend/internal/repository"
	"focusroom-backend/internal/session"
)

type ProfileHandler struct {
	userRepo    *repository.UserRepo
	profileRepo *repository.ProfileRepo
	sessionRepo *repository.SessionRepo
}

func NewProfileHandler(userRepo *repository.UserRepo, profileRepo *repository.ProfileRepo, sessionRepo *repository.SessionRepo) *ProfileHandler {
	return &ProfileHandler{userRepo: userRepo, profileRepo: profileRepo, sessionRepo: sessionRepo}
}

func (h *ProfileHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "User not found", r))
		return
	}

	profile, err := h.profileRepo.Get(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load profile", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":    user,
		"profile": profile,
	})
}

func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		FullName string `json:"full_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Full name is required", r))
		return
	}

	if err := h.userRepo.UpdateName(r.Context(), userID, req.FullName); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update profile", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Profile updated"})
}

// Streak serves the streak page: the aggregate counters plus a completed
// session count derived from total time the way the original page shows it.
func (h *ProfileHandler) Streak(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	profile, err := h.profileRepo.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Profile not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load profile", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"current_streak":      profile.CurrentStreak,
		"longest_streak":      profile.LongestStreak,
		"total_study_minutes": profile.TotalStudyMinutes,
		"completed_sessions":  profile.TotalStudyMinutes / session.WorkIntervalMinutes,
	})
}

func (h *ProfileHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	sessions, err := h.sessionRepo.ListByUser(r.Context(), userID, 50)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load sessions", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}
