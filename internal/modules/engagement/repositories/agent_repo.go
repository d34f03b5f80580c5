package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
)

type AgentRepo interface {
	Create(ctx context.Context, agent *models.Agent) error
	GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*models.Agent, error)
	GetFirstActive(ctx context.Context, workspaceID uuid.UUID) (*models.Agent, error)
	List(ctx context.Context, workspaceID uuid.UUID, skip, limit int) ([]models.Agent, error)
	Update(ctx context.Context, workspaceID, id uuid.UUID, changes models.Fields) (*models.Agent, error)
	Delete(ctx context.Context, workspaceID, id uuid.UUID) error
}

type agentRepo struct {
	db *gorm.DB
}

func NewAgentRepo(db *gorm.DB) AgentRepo {
	return &agentRepo{db: db}
}

func (r *agentRepo) Create(ctx context.Context, agent *models.Agent) error {
	return r.db.WithContext(ctx).Create(agent).Error
}

func (r *agentRepo) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*models.Agent, error) {
	var agent models.Agent
	if err := findScoped(ctx, r.db, &agent, id, workspaceID); err != nil {
		return nil, err
	}
	return &agent, nil
}

// GetFirstActive returns the oldest active agent, used when a conversation
// has no agent assigned.
func (r *agentRepo) GetFirstActive(ctx context.Context, workspaceID uuid.UUID) (*models.Agent, error) {
	var agent models.Agent
	err := scoped(ctx, r.db, workspaceID).
		Where("is_active = ?", true).
		Order("created_at ASC").
		First(&agent).Error
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *agentRepo) List(ctx context.Context, workspaceID uuid.UUID, skip, limit int) ([]models.Agent, error) {
	var agents []models.Agent
	err := paginate(scoped(ctx, r.db, workspaceID), skip, limit).
		Order("created_at DESC").
		Find(&agents).Error
	return agents, err
}

func (r *agentRepo) Update(ctx context.Context, workspaceID, id uuid.UUID, changes models.Fields) (*models.Agent, error) {
	var agent models.Agent
	if err := updateScoped(ctx, r.db, &agent, id, workspaceID, changes); err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *agentRepo) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	return deleteScoped(ctx, r.db, &models.Agent{}, id, workspaceID)
}
