package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/apperr"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/config"
)

// BillingService keeps plan bookkeeping. No payment provider is involved.
type BillingService struct {
	repo  repositories.BillingRepo
	plans *config.Plans
	now   func() time.Time
}

func NewBillingService(repo repositories.BillingRepo, plans *config.Plans) *BillingService {
	return &BillingService{
		repo:  repo,
		plans: plans,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *BillingService) Plans() []config.Plan {
	return s.plans.List()
}

// Subscription returns the workspace's subscription, creating one on the
// default plan the first time it is asked for.
func (s *BillingService) Subscription(ctx context.Context, workspaceID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, workspaceID)
	if err == nil {
		return sub, nil
	}
	if !repositories.IsNotFound(err) {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	plan := s.plans.Default()
	start := s.now()
	end := start.AddDate(0, 1, 0)
	sub = &models.Subscription{
		WorkspaceID:          workspaceID,
		Plan:                 plan.ID,
		Status:               models.SubscriptionActive,
		MonthlyMessagesLimit: plan.MessagesLimit,
		CurrentPeriodStart:   &start,
		CurrentPeriodEnd:     &end,
	}
	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	return s.repo.GetSubscription(ctx, workspaceID)
}

// Subscribe moves the workspace to planID and starts a new period.
func (s *BillingService) Subscribe(ctx context.Context, workspaceID uuid.UUID, planID string) (*models.Subscription, error) {
	plan, ok := s.plans.Get(planID)
	if !ok {
		return nil, apperr.BadRequest("Invalid plan")
	}
	if _, err := s.Subscription(ctx, workspaceID); err != nil {
		return nil, err
	}

	start := s.now()
	sub, err := s.repo.UpdateSubscription(ctx, workspaceID, models.Fields{
		"plan":                   plan.ID,
		"status":                 models.SubscriptionActive,
		"monthly_messages_limit": plan.MessagesLimit,
		"cancel_at_period_end":   false,
		"current_period_start":   start,
		"current_period_end":     start.AddDate(0, 1, 0),
	})
	if err != nil {
		return nil, notFound(err, "Subscription")
	}
	return sub, nil
}

// Cancel marks the subscription to end with the current period.
func (s *BillingService) Cancel(ctx context.Context, workspaceID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.repo.UpdateSubscription(ctx, workspaceID, models.Fields{"cancel_at_period_end": true})
	if err != nil {
		return nil, notFound(err, "Subscription")
	}
	return sub, nil
}

func (s *BillingService) Invoices(ctx context.Context, workspaceID uuid.UUID, skip, limit int) ([]models.Invoice, error) {
	invoices, err := s.repo.ListInvoices(ctx, workspaceID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, nil
}
