package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/analytics"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/tenant"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
)

type DealService struct {
	repo       repositories.DealRepo
	contacts   repositories.ContactRepo
	guard      *tenant.Guard
	aggregator *analytics.Aggregator
	audit      *audit.Service
	now        func() time.Time
}

func NewDealService(repo repositories.DealRepo, contacts repositories.ContactRepo, guard *tenant.Guard, aggregator *analytics.Aggregator, auditService *audit.Service) *DealService {
	return &DealService{
		repo:       repo,
		contacts:   contacts,
		guard:      guard,
		aggregator: aggregator,
		audit:      auditService,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *DealService) List(ctx context.Context, filter models.DealFilter) ([]models.Deal, error) {
	deals, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}
	return deals, nil
}

func (s *DealService) Create(ctx context.Context, workspaceID uuid.UUID, req *models.CreateDealRequest) (*models.Deal, error) {
	if req.ContactID != nil {
		if err := requireContact(ctx, s.contacts, workspaceID, *req.ContactID); err != nil {
			return nil, err
		}
	}
	deal := req.ToDeal(workspaceID, s.now())
	if err := s.repo.Create(ctx, deal); err != nil {
		return nil, fmt.Errorf("failed to create deal: %w", err)
	}
	return deal, nil
}

func (s *DealService) Get(ctx context.Context, workspaceID, id uuid.UUID) (*models.Deal, error) {
	deal, err := s.repo.GetByID(ctx, workspaceID, id)
	if err != nil {
		return nil, notFound(err, "Deal")
	}
	return deal, nil
}

// Update applies the present fields. Entering a closed stage stamps
// closed_at, leaving one clears it.
func (s *DealService) Update(ctx context.Context, userID, workspaceID, id uuid.UUID, req *models.UpdateDealRequest) (*models.Deal, error) {
	current, err := s.Get(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}
	if req.ContactID.Set && !req.ContactID.Null {
		if err := requireContact(ctx, s.contacts, workspaceID, req.ContactID.Value); err != nil {
			return nil, err
		}
	}
	if req.AssignedUserID.Set && !req.AssignedUserID.Null {
		if err := requireMember(ctx, s.guard, workspaceID, req.AssignedUserID.Value); err != nil {
			return nil, err
		}
	}

	changes := req.Changes()
	stageChanged := req.Stage != nil && *req.Stage != current.Stage
	if stageChanged {
		switch {
		case req.Stage.IsClosed():
			changes["closed_at"] = s.now()
		case current.Stage.IsClosed():
			changes["closed_at"] = nil
		}
	}

	deal, err := s.repo.Update(ctx, workspaceID, id, changes)
	if err != nil {
		return nil, notFound(err, "Deal")
	}

	if stageChanged {
		recordAudit(ctx, s.audit, audit.Entry{
			WorkspaceID: workspaceID,
			UserID:      userID,
			Action:      audit.ActionDealStageChanged,
			EntityType:  "deal",
			EntityID:    id.String(),
			OldValue:    map[string]interface{}{"stage": current.Stage},
			NewValue:    map[string]interface{}{"stage": deal.Stage},
		})
	}
	return deal, nil
}

func (s *DealService) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	return notFound(s.repo.Delete(ctx, workspaceID, id), "Deal")
}

// Pipeline returns count and total value per stage, in funnel order.
func (s *DealService) Pipeline(ctx context.Context, workspaceID uuid.UUID) ([]models.PipelineStage, error) {
	counts, sums, err := s.aggregator.CountAndSumBy(ctx, "deals", "stage", "value", analytics.Filters{"workspace_id": workspaceID})
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	stages := make([]models.PipelineStage, 0, len(models.DealStages))
	for _, stage := range models.DealStages {
		stages = append(stages, models.PipelineStage{
			Stage: stage,
			Count: counts[string(stage)],
			Value: sums[string(stage)].InexactFloat64(),
		})
	}
	return stages, nil
}
