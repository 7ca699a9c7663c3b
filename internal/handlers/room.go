package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"focusroom-backend/internal/middleware"
	"focusroom-backend/internal/models"
	"focusroom-backend/internal/realtime"
	"focusroom-backend/internal/repository"
)

// Free accounts may keep this many active rooms; premium plans lift the cap.
const freeRoomLimit = 1

var roomCategories = map[string]bool{
	"study":     true,
	"languages": true,
	"exam-prep": true,
	"coding":    true,
	"reading":   true,
	"other":     true,
}

type RoomHandler struct {
	roomRepo    *repository.RoomRepo
	profileRepo *repository.ProfileRepo
	presence    *realtime.Presence
}

func NewRoomHandler(roomRepo *repository.RoomRepo, profileRepo *repository.ProfileRepo, presence *realtime.Presence) *RoomHandler {
	return &RoomHandler{roomRepo: roomRepo, profileRepo: profileRepo, presence: presence}
}

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.roomRepo.ListActive(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load rooms", r))
		return
	}

	type roomWithCount struct {
		models.Room
		Online int64 `json:"online"`
	}

	out := make([]roomWithCount, 0, len(rooms))
	for _, room := range rooms {
		count, err := h.presence.Count(r.Context(), room.ID)
		if err != nil {
			count = 0
		}
		out = append(out, roomWithCount{Room: room, Online: count})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"rooms": out})
}

func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid room ID", r))
		return
	}

	room, err := h.roomRepo.GetByID(r.Context(), roomID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Room not found", r))
		return
	}

	count, err := h.presence.Count(r.Context(), room.ID)
	if err != nil {
		count = 0
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"room":   room,
		"online": count,
	})
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fieldErrors := make(map[string]string)
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		fieldErrors["name"] = "Room name is required"
	}
	if !roomCategories[req.Category] {
		fieldErrors["category"] = "Unknown category"
	}
	if len(fieldErrors) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fieldErrors, r))
		return
	}

	// Room-count gate: free plan keeps one active room.
	profile, err := h.profileRepo.Get(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load profile", r))
		return
	}
	if !profile.Premium(time.Now().UTC()) {
		owned, err := h.roomRepo.CountByCreator(r.Context(), userID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create room", r))
			return
		}
		if owned >= freeRoomLimit {
			writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Free plan allows one active room. Upgrade to create more.", r))
			return
		}
	}

	room := &models.Room{
		Name:            req.Name,
		Category:        req.Category,
		CreatedBy:       userID,
		IsPrivate:       false,
		MaxParticipants: 20,
		IsActive:        true,
	}
	if desc := strings.TrimSpace(req.Description); desc != "" {
		room.Description = &desc
	}

	if err := h.roomRepo.Create(r.Context(), room); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create room", r))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"room": room})
}
