package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"focusroom-backend/internal/middleware"
	"focusroom-backend/internal/models"
	"focusroom-backend/internal/realtime"
	"focusroom-backend/internal/repository"
)

const defaultBacklogLimit = 100

type ChatHandler struct {
	chatRepo *repository.ChatRepo
	hub      *realtime.Hub
}

func NewChatHandler(chatRepo *repository.ChatRepo, hub *realtime.Hub) *ChatHandler {
	return &ChatHandler{chatRepo: chatRepo, hub: hub}
}

// Backlog returns the room's message history in ascending order. The relay
// does not replay missed messages on reconnect, so clients call this to
// restore continuity.
func (h *ChatHandler) Backlog(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid room ID", r))
		return
	}

	limit := defaultBacklogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	messages, err := h.chatRepo.Backlog(r.Context(), roomID, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load messages", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

// Send appends a message over REST. The same fan-out path as the socket
// command is used, so subscribers see REST-sent messages too.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	roomID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid room ID", r))
		return
	}

	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	req.Text = strings.TrimSpace(req.Text)
	fieldErrors := make(map[string]string)
	if req.Text == "" {
		fieldErrors["text"] = "Message text is required"
	}
	if req.ClientToken == "" {
		fieldErrors["client_token"] = "Client token is required"
	}
	if len(fieldErrors) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fieldErrors, r))
		return
	}

	msg := &models.ChatMessage{
		RoomID:      roomID,
		UserID:      userID,
		ClientToken: req.ClientToken,
		Text:        req.Text,
	}
	if err := h.hub.PublishChatMessage(r.Context(), msg); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to send message", r))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"message": msg})
}
