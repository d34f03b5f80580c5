package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/llm"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/metrics"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
)

const defaultSystemPrompt = "You are a helpful assistant."

type AgentService struct {
	repo repositories.AgentRepo
	llm  *llm.Service
}

func NewAgentService(repo repositories.AgentRepo, llmService *llm.Service) *AgentService {
	return &AgentService{repo: repo, llm: llmService}
}

func (s *AgentService) List(ctx context.Context, workspaceID uuid.UUID, skip, limit int) ([]models.Agent, error) {
	agents, err := s.repo.List(ctx, workspaceID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	return agents, nil
}

func (s *AgentService) Create(ctx context.Context, workspaceID uuid.UUID, req *models.CreateAgentRequest) (*models.Agent, error) {
	agent := req.ToAgent(workspaceID)
	if err := s.repo.Create(ctx, agent); err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}
	return agent, nil
}

func (s *AgentService) Get(ctx context.Context, workspaceID, id uuid.UUID) (*models.Agent, error) {
	agent, err := s.repo.GetByID(ctx, workspaceID, id)
	if err != nil {
		return nil, notFound(err, "Agent")
	}
	return agent, nil
}

// Update applies only the fields present in req.
func (s *AgentService) Update(ctx context.Context, workspaceID, id uuid.UUID, req *models.UpdateAgentRequest) (*models.Agent, error) {
	agent, err := s.repo.Update(ctx, workspaceID, id, req.Changes())
	if err != nil {
		return nil, notFound(err, "Agent")
	}
	return agent, nil
}

func (s *AgentService) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	return notFound(s.repo.Delete(ctx, workspaceID, id), "Agent")
}

// Test sends one message to the agent's model configuration and returns
// the reply.
func (s *AgentService) Test(ctx context.Context, workspaceID, id uuid.UUID, req *models.AgentTestRequest) (*models.AgentTestResponse, error) {
	agent, err := s.Get(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}

	resp, err := s.llm.Generate(ctx, AgentRequest(agent, []llm.Message{{Role: llm.RoleUser, Content: req.Message}}))
	if err != nil {
		return nil, err
	}
	metrics.RecordTokens(agent.Model, resp.TotalTokens)

	return &models.AgentTestResponse{
		Response:   resp.Content,
		TokensUsed: resp.TotalTokens,
	}, nil
}

// AgentRequest builds a completion request from the agent's settings.
func AgentRequest(agent *models.Agent, history []llm.Message) llm.Request {
	prompt := defaultSystemPrompt
	if agent.SystemPrompt != nil && *agent.SystemPrompt != "" {
		prompt = *agent.SystemPrompt
	}
	return llm.Request{
		Model:        agent.Model,
		SystemPrompt: prompt,
		Messages:     history,
		Temperature:  float32(agent.Temperature),
		MaxTokens:    agent.MaxTokens,
	}
}
