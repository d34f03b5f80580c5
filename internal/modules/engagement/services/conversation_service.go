package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/tenant"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
)

type ConversationService struct {
	repo     repositories.ConversationRepo
	contacts repositories.ContactRepo
	agents   repositories.AgentRepo
	guard    *tenant.Guard
	delivery *Delivery
	now      func() time.Time
}

func NewConversationService(repo repositories.ConversationRepo, contacts repositories.ContactRepo, agents repositories.AgentRepo, guard *tenant.Guard, delivery *Delivery) *ConversationService {
	return &ConversationService{
		repo:     repo,
		contacts: contacts,
		agents:   agents,
		guard:    guard,
		delivery: delivery,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *ConversationService) List(ctx context.Context, filter models.ConversationFilter) ([]models.Conversation, error) {
	conversations, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return conversations, nil
}

// Get returns the conversation with its messages and contact name.
func (s *ConversationService) Get(ctx context.Context, workspaceID, id uuid.UUID) (*models.Conversation, error) {
	conversation, err := s.find(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}

	messages, err := s.repo.ListMessages(ctx, id, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	conversation.Messages = messages

	if conversation.ContactID != nil {
		if contact, err := s.contacts.GetByID(ctx, workspaceID, *conversation.ContactID); err == nil {
			name := contact.DisplayName()
			conversation.ContactName = &name
		}
	}
	return conversation, nil
}

func (s *ConversationService) Update(ctx context.Context, workspaceID, id uuid.UUID, req *models.UpdateConversationRequest) (*models.Conversation, error) {
	if req.AgentID.Set && !req.AgentID.Null {
		if err := s.requireAgent(ctx, workspaceID, req.AgentID.Value); err != nil {
			return nil, err
		}
	}
	if req.AssignedUserID.Set && !req.AssignedUserID.Null {
		if err := requireMember(ctx, s.guard, workspaceID, req.AssignedUserID.Value); err != nil {
			return nil, err
		}
	}
	conversation, err := s.repo.Update(ctx, workspaceID, id, req.Changes())
	if err != nil {
		return nil, notFound(err, "Conversation")
	}
	return conversation, nil
}

// Assign sets the human and/or AI assignee. Nil arguments are left unchanged.
func (s *ConversationService) Assign(ctx context.Context, workspaceID, id uuid.UUID, userID, agentID *uuid.UUID) (*models.Conversation, error) {
	changes := models.Fields{}
	if userID != nil {
		if err := requireMember(ctx, s.guard, workspaceID, *userID); err != nil {
			return nil, err
		}
		changes["assigned_user_id"] = *userID
	}
	if agentID != nil {
		if err := s.requireAgent(ctx, workspaceID, *agentID); err != nil {
			return nil, err
		}
		changes["agent_id"] = *agentID
	}
	conversation, err := s.repo.Update(ctx, workspaceID, id, changes)
	if err != nil {
		return nil, notFound(err, "Conversation")
	}
	return conversation, nil
}

func (s *ConversationService) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	return notFound(s.repo.Delete(ctx, workspaceID, id), "Conversation")
}

func (s *ConversationService) ListMessages(ctx context.Context, workspaceID, id uuid.UUID, skip, limit int) ([]models.Message, error) {
	if _, err := s.find(ctx, workspaceID, id); err != nil {
		return nil, err
	}
	messages, err := s.repo.ListMessages(ctx, id, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// SendMessage appends a message written from the workspace side. Non-user
// messages are delivered to the contact when the conversation is bound to
// a channel recipient; a delivery failure is kept on the message metadata.
func (s *ConversationService) SendMessage(ctx context.Context, workspaceID, id uuid.UUID, req *models.SendMessageRequest) (*models.Message, error) {
	conversation, err := s.find(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = models.RoleAssistant
	}
	message := &models.Message{
		ConversationID: id,
		Role:           role,
		Content:        req.Content,
		IsRead:         true,
	}

	if role != models.RoleUser && conversation.ChannelConversationID != nil {
		channelMessageID, err := s.delivery.Send(ctx, workspaceID, conversation.Channel, *conversation.ChannelConversationID, req.Content)
		if err != nil {
			log.Warn().Err(err).
				Str("conversation_id", id.String()).
				Str("channel", string(conversation.Channel)).
				Msg("Outbound message not delivered")
			message.Metadata = datatypes.JSONMap{"error": deliveryError(err)}
		} else if channelMessageID != "" {
			message.ChannelMessageID = &channelMessageID
		}
	}

	at := nextMessageTime(conversation.LastMessageAt, s.now())
	message.CreatedAt = at
	if err := s.repo.AddMessage(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	if err := s.repo.SetLastMessageAt(ctx, id, at); err != nil {
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}
	return message, nil
}

// MarkRead marks the contact's unread messages as read.
func (s *ConversationService) MarkRead(ctx context.Context, workspaceID, id uuid.UUID) (int64, error) {
	if _, err := s.find(ctx, workspaceID, id); err != nil {
		return 0, err
	}
	return s.repo.MarkRead(ctx, id)
}

func (s *ConversationService) find(ctx context.Context, workspaceID, id uuid.UUID) (*models.Conversation, error) {
	conversation, err := s.repo.GetByID(ctx, workspaceID, id)
	if err != nil {
		return nil, notFound(err, "Conversation")
	}
	return conversation, nil
}

func (s *ConversationService) requireAgent(ctx context.Context, workspaceID, agentID uuid.UUID) error {
	if _, err := s.agents.GetByID(ctx, workspaceID, agentID); err != nil {
		return notFound(err, "Agent")
	}
	return nil
}
