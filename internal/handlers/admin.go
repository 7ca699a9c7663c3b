package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"focusroom-backend/internal/repository"
)

const adminListLimit = 50

type AdminHandler struct {
	userRepo    *repository.UserRepo
	profileRepo *repository.ProfileRepo
	roomRepo    *repository.RoomRepo
	chatRepo    *repository.ChatRepo
}

func NewAdminHandler(userRepo *repository.UserRepo, profileRepo *repository.ProfileRepo, roomRepo *repository.RoomRepo, chatRepo *repository.ChatRepo) *AdminHandler {
	return &AdminHandler{userRepo: userRepo, profileRepo: profileRepo, roomRepo: roomRepo, chatRepo: chatRepo}
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	users, err := h.userRepo.Count(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load stats", r))
		return
	}
	rooms, err := h.roomRepo.CountActive(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load stats", r))
		return
	}
	messages, err := h.chatRepo.Count(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load stats", r))
		return
	}
	minutes, err := h.profileRepo.TotalStudyMinutes(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load stats", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_users":       users,
		"active_rooms":      rooms,
		"total_messages":    messages,
		"total_study_hours": minutes / 60,
	})
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userRepo.List(r.Context(), adminListLimit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load users", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func (h *AdminHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.roomRepo.ListRecent(r.Context(), adminListLimit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load rooms", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rooms": rooms})
}

func (h *AdminHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chatRepo.ListRecent(r.Context(), adminListLimit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load messages", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

func (h *AdminHandler) SetRoomActive(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid room ID", r))
		return
	}

	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if err := h.roomRepo.SetActive(r.Context(), roomID, req.IsActive); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update room", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Room updated"})
}

func (h *AdminHandler) SetUserActive(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid user ID", r))
		return
	}

	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if err := h.userRepo.SetActive(r.Context(), userID, req.IsActive); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update user", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User updated"})
}

func (h *AdminHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	messageID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid message ID", r))
		return
	}

	if err := h.chatRepo.Delete(r.Context(), messageID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete message", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Message deleted"})
}
