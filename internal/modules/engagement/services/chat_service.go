package services

import (
	"context"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/llm"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/metrics"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/apperr"
)

const (
	assistantModel       = "gpt-4"
	assistantTemperature = 0.7
	assistantMaxTokens   = 500
)

const assistantPrompt = `You are ReficulBot's AI assistant. You help users navigate and use the ReficulBot platform effectively.
ReficulBot is an AI-powered customer engagement platform that provides:
- AI Agents: Create and customize AI chatbots for customer support
- Inbox: Unified inbox for all customer conversations across channels
- CRM: Manage contacts, deals, and customer relationships
- Flows: Visual automation builder for customer journeys
- Broadcasts: Send bulk messages to customers
- Analytics: Track performance and engagement metrics
- Knowledge Base: Store and retrieve information for AI agents
Be helpful, concise, and guide users to the right features for their needs.`

type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required"`
}

type ChatRequest struct {
	Message string        `json:"message" validate:"required,min=1,max=4000"`
	Context []ChatMessage `json:"context" validate:"omitempty,max=50,dive"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

// ChatService is the in-app assistant that explains the platform.
type ChatService struct {
	llm *llm.Service
}

func NewChatService(llmService *llm.Service) *ChatService {
	return &ChatService{llm: llmService}
}

func (s *ChatService) Reply(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if s.llm == nil || !s.llm.Enabled() {
		return nil, &apperr.Error{Kind: apperr.ErrUpstream, Detail: llm.ErrNotConfigured.Error(), Err: llm.ErrNotConfigured}
	}

	history := make([]llm.Message, 0, len(req.Context)+1)
	for _, m := range req.Context {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}
	history = append(history, llm.Message{Role: llm.RoleUser, Content: req.Message})

	resp, err := s.llm.Generate(ctx, llm.Request{
		Model:        assistantModel,
		SystemPrompt: assistantPrompt,
		Messages:     history,
		Temperature:  assistantTemperature,
		MaxTokens:    assistantMaxTokens,
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordTokens(assistantModel, resp.TotalTokens)
	return &ChatResponse{Response: resp.Content}, nil
}
