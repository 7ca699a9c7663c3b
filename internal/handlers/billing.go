package handlers

import (
	"encoding/json"
	"net/http"

	"focusroom-backend/internal/middleware"
	"focusroom-backend/internal/models"
	"focusroom-backend/internal/services"
)

type BillingHandler struct {
	billing *services.BillingService
}

func NewBillingHandler(billing *services.BillingService) *BillingHandler {
	return &BillingHandler{billing: billing}
}

type planInfo struct {
	Plan         string `json:"plan"`
	PriceVND     int    `json:"price_vnd"`
	DurationDays int    `json:"duration_days"`
}

// Plans is the static pricing catalog.
func (h *BillingHandler) Plans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"plans": []planInfo{
			{Plan: models.PlanMonthly, PriceVND: 49000, DurationDays: 30},
			{Plan: models.PlanYearly, PriceVND: 99000, DurationDays: 365},
			{Plan: models.PlanForever, PriceVND: 499000, DurationDays: 0},
		},
	})
}

// Upgrade activates the requested plan. Payment is simulated; no gateway
// is involved.
func (h *BillingHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		Plan string `json:"plan"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	profile, err := h.billing.Upgrade(r.Context(), userID, req.Plan)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"profile": profile})
}
