package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
)

type FlowService struct {
	repo repositories.FlowRepo
}

func NewFlowService(repo repositories.FlowRepo) *FlowService {
	return &FlowService{repo: repo}
}

// List returns the workspace's flows with their nodes attached.
func (s *FlowService) List(ctx context.Context, workspaceID uuid.UUID, skip, limit int) ([]models.Flow, error) {
	flows, err := s.repo.List(ctx, workspaceID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	if len(flows) == 0 {
		return flows, nil
	}

	ids := make([]uuid.UUID, len(flows))
	for i := range flows {
		ids[i] = flows[i].ID
	}
	nodes, err := s.repo.ListNodes(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("failed to list flow nodes: %w", err)
	}

	byFlow := make(map[uuid.UUID][]models.FlowNode, len(flows))
	for _, n := range nodes {
		byFlow[n.FlowID] = append(byFlow[n.FlowID], n)
	}
	for i := range flows {
		flows[i].Nodes = byFlow[flows[i].ID]
		if flows[i].Nodes == nil {
			flows[i].Nodes = []models.FlowNode{}
		}
	}
	return flows, nil
}

func (s *FlowService) Create(ctx context.Context, workspaceID uuid.UUID, req *models.CreateFlowRequest) (*models.Flow, error) {
	flow := &models.Flow{
		WorkspaceID:   workspaceID,
		Name:          req.Name,
		Description:   req.Description,
		TriggerType:   req.TriggerType,
		TriggerConfig: datatypes.JSONMap(req.TriggerConfig),
	}
	if err := s.repo.Create(ctx, flow); err != nil {
		return nil, fmt.Errorf("failed to create flow: %w", err)
	}
	flow.Nodes = []models.FlowNode{}
	return flow, nil
}

func (s *FlowService) Get(ctx context.Context, workspaceID, id uuid.UUID) (*models.Flow, error) {
	flow, err := s.repo.GetByID(ctx, workspaceID, id)
	if err != nil {
		return nil, notFound(err, "Flow")
	}
	return s.withNodes(ctx, flow)
}

func (s *FlowService) Update(ctx context.Context, workspaceID, id uuid.UUID, req *models.UpdateFlowRequest) (*models.Flow, error) {
	flow, err := s.repo.Update(ctx, workspaceID, id, req.Changes())
	if err != nil {
		return nil, notFound(err, "Flow")
	}
	return s.withNodes(ctx, flow)
}

func (s *FlowService) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	return notFound(s.repo.Delete(ctx, workspaceID, id), "Flow")
}

// ToggleActive flips is_active and bumps the version.
func (s *FlowService) ToggleActive(ctx context.Context, workspaceID, id uuid.UUID) (*models.Flow, error) {
	flow, err := s.repo.GetByID(ctx, workspaceID, id)
	if err != nil {
		return nil, notFound(err, "Flow")
	}
	flow, err = s.repo.Update(ctx, workspaceID, id, models.Fields{
		"is_active": !flow.IsActive,
		"version":   flow.Version + 1,
	})
	if err != nil {
		return nil, notFound(err, "Flow")
	}
	return flow, nil
}

func (s *FlowService) CreateNode(ctx context.Context, workspaceID, flowID uuid.UUID, req *models.CreateFlowNodeRequest) (*models.FlowNode, error) {
	if _, err := s.repo.GetByID(ctx, workspaceID, flowID); err != nil {
		return nil, notFound(err, "Flow")
	}
	node := req.ToNode(flowID)
	if err := s.repo.CreateNode(ctx, node); err != nil {
		return nil, fmt.Errorf("failed to create node: %w", err)
	}
	return node, nil
}

func (s *FlowService) UpdateNode(ctx context.Context, workspaceID, flowID, nodeID uuid.UUID, req *models.UpdateFlowNodeRequest) (*models.FlowNode, error) {
	if _, err := s.repo.GetByID(ctx, workspaceID, flowID); err != nil {
		return nil, notFound(err, "Flow")
	}
	node, err := s.repo.UpdateNode(ctx, flowID, nodeID, req.Changes())
	if err != nil {
		return nil, notFound(err, "Node")
	}
	return node, nil
}

func (s *FlowService) DeleteNode(ctx context.Context, workspaceID, flowID, nodeID uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, workspaceID, flowID); err != nil {
		return notFound(err, "Flow")
	}
	return notFound(s.repo.DeleteNode(ctx, flowID, nodeID), "Node")
}

func (s *FlowService) withNodes(ctx context.Context, flow *models.Flow) (*models.Flow, error) {
	nodes, err := s.repo.ListNodes(ctx, flow.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list flow nodes: %w", err)
	}
	if nodes == nil {
		nodes = []models.FlowNode{}
	}
	flow.Nodes = nodes
	return flow, nil
}
