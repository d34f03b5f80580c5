package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
)

type FlowRepo interface {
	Create(ctx context.Context, flow *models.Flow) error
	GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*models.Flow, error)
	List(ctx context.Context, workspaceID uuid.UUID, skip, limit int) ([]models.Flow, error)
	Update(ctx context.Context, workspaceID, id uuid.UUID, changes models.Fields) (*models.Flow, error)
	Delete(ctx context.Context, workspaceID, id uuid.UUID) error

	CreateNode(ctx context.Context, node *models.FlowNode) error
	GetNode(ctx context.Context, flowID, nodeID uuid.UUID) (*models.FlowNode, error)
	ListNodes(ctx context.Context, flowIDs ...uuid.UUID) ([]models.FlowNode, error)
	UpdateNode(ctx context.Context, flowID, nodeID uuid.UUID, changes models.Fields) (*models.FlowNode, error)
	DeleteNode(ctx context.Context, flowID, nodeID uuid.UUID) error
}

type flowRepo struct {
	db *gorm.DB
}

func NewFlowRepo(db *gorm.DB) FlowRepo {
	return &flowRepo{db: db}
}

func (r *flowRepo) Create(ctx context.Context, flow *models.Flow) error {
	return r.db.WithContext(ctx).Create(flow).Error
}

func (r *flowRepo) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*models.Flow, error) {
	var flow models.Flow
	if err := findScoped(ctx, r.db, &flow, id, workspaceID); err != nil {
		return nil, err
	}
	return &flow, nil
}

func (r *flowRepo) List(ctx context.Context, workspaceID uuid.UUID, skip, limit int) ([]models.Flow, error) {
	var flows []models.Flow
	err := paginate(scoped(ctx, r.db, workspaceID), skip, limit).
		Order("created_at DESC").
		Find(&flows).Error
	return flows, err
}

func (r *flowRepo) Update(ctx context.Context, workspaceID, id uuid.UUID, changes models.Fields) (*models.Flow, error) {
	var flow models.Flow
	if err := updateScoped(ctx, r.db, &flow, id, workspaceID, changes); err != nil {
		return nil, err
	}
	return &flow, nil
}

func (r *flowRepo) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	return deleteScoped(ctx, r.db, &models.Flow{}, id, workspaceID)
}

func (r *flowRepo) CreateNode(ctx context.Context, node *models.FlowNode) error {
	return r.db.WithContext(ctx).Create(node).Error
}

func (r *flowRepo) GetNode(ctx context.Context, flowID, nodeID uuid.UUID) (*models.FlowNode, error) {
	var node models.FlowNode
	err := r.db.WithContext(ctx).Where("id = ? AND flow_id = ?", nodeID, flowID).First(&node).Error
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// ListNodes returns the nodes of the given flows ordered by position in the flow.
func (r *flowRepo) ListNodes(ctx context.Context, flowIDs ...uuid.UUID) ([]models.FlowNode, error) {
	if len(flowIDs) == 0 {
		return nil, nil
	}
	var nodes []models.FlowNode
	err := r.db.WithContext(ctx).
		Where("flow_id IN ?", flowIDs).
		Order("node_order ASC").
		Order("created_at ASC").
		Find(&nodes).Error
	return nodes, err
}

func (r *flowRepo) UpdateNode(ctx context.Context, flowID, nodeID uuid.UUID, changes models.Fields) (*models.FlowNode, error) {
	node, err := r.GetNode(ctx, flowID, nodeID)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return node, nil
	}
	if err := r.db.WithContext(ctx).Model(node).Updates(map[string]interface{}(changes)).Error; err != nil {
		return nil, err
	}
	return r.GetNode(ctx, flowID, nodeID)
}

func (r *flowRepo) DeleteNode(ctx context.Context, flowID, nodeID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ? AND flow_id = ?", nodeID, flowID).Delete(&models.FlowNode{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
