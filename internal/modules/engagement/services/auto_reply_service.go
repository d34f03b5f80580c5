package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/llm"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/metrics"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
)

const historyWindow = 20

// ReplyOutcome says what HandleIngested did with a message.
type ReplyOutcome string

const (
	OutcomeSkipped   ReplyOutcome = "skipped"
	OutcomeEscalated ReplyOutcome = "escalated"
	OutcomeReplied   ReplyOutcome = "replied"
)

// AutoReplyService answers inbound messages with the conversation's agent
// and runs message_received automations.
type AutoReplyService struct {
	conversations repositories.ConversationRepo
	agents        repositories.AgentRepo
	llm           *llm.Service
	delivery      *Delivery
	automations   *AutomationService
	notifier      Notifier
	now           func() time.Time
}

func NewAutoReplyService(
	conversations repositories.ConversationRepo,
	agents repositories.AgentRepo,
	llmService *llm.Service,
	delivery *Delivery,
	automations *AutomationService,
	notifier Notifier,
) *AutoReplyService {
	return &AutoReplyService{
		conversations: conversations,
		agents:        agents,
		llm:           llmService,
		delivery:      delivery,
		automations:   automations,
		notifier:      notifier,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// HandleIngested processes one conversation.message_ingested job: the agent
// answers or escalates, then message_received automations run.
func (s *AutoReplyService) HandleIngested(ctx context.Context, p MessageIngestedPayload) (ReplyOutcome, error) {
	conversation, err := s.conversations.GetByID(ctx, p.WorkspaceID, p.ConversationID)
	if repositories.IsNotFound(err) {
		log.Warn().Str("conversation_id", p.ConversationID.String()).Msg("Conversation gone before reply")
		return OutcomeSkipped, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load conversation: %w", err)
	}

	outcome, err := s.answer(ctx, conversation, p.Text)
	s.runAutomations(ctx, p)
	return outcome, err
}

func (s *AutoReplyService) answer(ctx context.Context, conversation *models.Conversation, text string) (ReplyOutcome, error) {
	if !conversation.IsAIEnabled || !conversation.IsOpen() {
		return OutcomeSkipped, nil
	}
	agent, err := s.agentFor(ctx, conversation)
	if err != nil {
		return "", err
	}
	if agent == nil {
		return OutcomeSkipped, nil
	}

	if agent.EscalationEnabled && llm.CheckEscalation(text, agent.EscalationKeywords) {
		return OutcomeEscalated, s.escalate(ctx, conversation, agent, text)
	}
	if s.llm == nil || !s.llm.Enabled() {
		log.Warn().Str("conversation_id", conversation.ID.String()).Msg("LLM not configured, no AI reply")
		return OutcomeSkipped, nil
	}
	return OutcomeReplied, s.reply(ctx, conversation, agent)
}

// agentFor returns the assigned agent if it is active, else the workspace's
// first active agent. nil means no agent can answer.
func (s *AutoReplyService) agentFor(ctx context.Context, conversation *models.Conversation) (*models.Agent, error) {
	if conversation.AgentID != nil {
		agent, err := s.agents.GetByID(ctx, conversation.WorkspaceID, *conversation.AgentID)
		if err == nil && agent.IsActive {
			return agent, nil
		}
		if err != nil && !repositories.IsNotFound(err) {
			return nil, fmt.Errorf("failed to load agent: %w", err)
		}
	}
	agent, err := s.agents.GetFirstActive(ctx, conversation.WorkspaceID)
	if repositories.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load agent: %w", err)
	}
	return agent, nil
}

// escalate hands the conversation to a human: it goes pending with AI off
// and the agent's escalation address is notified.
func (s *AutoReplyService) escalate(ctx context.Context, conversation *models.Conversation, agent *models.Agent, text string) error {
	_, err := s.conversations.Update(ctx, conversation.WorkspaceID, conversation.ID, models.Fields{
		"status":        models.ConversationPending,
		"is_ai_enabled": false,
	})
	if err != nil {
		return fmt.Errorf("failed to escalate conversation: %w", err)
	}

	log.Info().
		Str("conversation_id", conversation.ID.String()).
		Str("agent_id", agent.ID.String()).
		Msg("Conversation escalated to a human")

	if s.notifier == nil || agent.EscalationEmail == nil || *agent.EscalationEmail == "" {
		return nil
	}
	if err := s.notifier.SendEscalationNotification(ctx, *agent.EscalationEmail, conversation.ID.String(), text); err != nil {
		log.Warn().Err(err).Str("conversation_id", conversation.ID.String()).Msg("Escalation email not sent")
	}
	return nil
}

func (s *AutoReplyService) reply(ctx context.Context, conversation *models.Conversation, agent *models.Agent) error {
	recent, err := s.conversations.RecentMessages(ctx, conversation.ID, historyWindow)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	history := make([]llm.Message, 0, len(recent))
	for _, m := range recent {
		history = append(history, llm.Message{Role: string(m.Role), Content: m.Content})
	}

	resp, err := s.llm.Generate(ctx, AgentRequest(agent, history))
	if err != nil {
		return err
	}
	metrics.RecordTokens(agent.Model, resp.TotalTokens)

	message := &models.Message{
		ConversationID: conversation.ID,
		Role:           models.RoleAssistant,
		Content:        resp.Content,
		IsRead:         true,
		Metadata:       datatypes.JSONMap{"agent_id": agent.ID.String(), "tokens_used": resp.TotalTokens},
	}
	if s.delivery != nil && conversation.ChannelConversationID != nil {
		channelMessageID, err := s.delivery.Send(ctx, conversation.WorkspaceID, conversation.Channel, *conversation.ChannelConversationID, resp.Content)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("conversation_id", conversation.ID.String()).Msg("AI reply not delivered")
			message.Metadata["error"] = deliveryError(err)
		case channelMessageID != "":
			message.ChannelMessageID = &channelMessageID
		}
	}

	at := nextMessageTime(conversation.LastMessageAt, s.now())
	message.CreatedAt = at
	if err := s.conversations.AddMessage(ctx, message); err != nil {
		return fmt.Errorf("failed to save reply: %w", err)
	}
	if err := s.conversations.SetLastMessageAt(ctx, conversation.ID, at); err != nil {
		return fmt.Errorf("failed to update conversation: %w", err)
	}
	return nil
}

func (s *AutoReplyService) runAutomations(ctx context.Context, p MessageIngestedPayload) {
	if s.automations == nil {
		return
	}
	_, err := s.automations.RunTrigger(ctx, p.WorkspaceID, models.TriggerMessageReceived, map[string]interface{}{
		"workspace_id":    p.WorkspaceID.String(),
		"contact_id":      p.ContactID.String(),
		"conversation_id": p.ConversationID.String(),
		"message_id":      p.MessageID.String(),
		"channel":         p.Channel,
		"text":            p.Text,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Str("workspace_id", p.WorkspaceID.String()).Msg("Automations failed")
	}
}
