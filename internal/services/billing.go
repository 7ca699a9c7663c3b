package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"focusroom-backend/internal/models"
	"focusroom-backend/internal/repository"
)

// BillingService simulates the checkout flow: no gateway is called, the
// requested plan is activated directly with its expiry.
type BillingService struct {
	profileRepo *repository.ProfileRepo
}

func NewBillingService(profileRepo *repository.ProfileRepo) *BillingService {
	return &BillingService{profileRepo: profileRepo}
}

func (s *BillingService) Upgrade(ctx context.Context, userID uuid.UUID, plan string) (*models.Profile, error) {
	var expiresAt *time.Time
	now := time.Now().UTC()

	switch plan {
	case models.PlanMonthly:
		t := now.AddDate(0, 1, 0)
		expiresAt = &t
	case models.PlanYearly:
		t := now.AddDate(1, 0, 0)
		expiresAt = &t
	case models.PlanForever:
		expiresAt = nil
	default:
		return nil, &ValidationError{Fields: map[string]string{"plan": "plan must be monthly, yearly, or forever"}}
	}

	if err := s.profileRepo.SetPlan(ctx, userID, plan, expiresAt); err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Profile not found"}
		}
		return nil, err
	}
	return profile, nil
}
