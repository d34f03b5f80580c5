package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/messaging"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/tenant"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/apperr"
)

// ErrUnknownChannel is returned when no connected channel matches an
// inbound event. The event is dropped.
var ErrUnknownChannel = errors.New("no channel for inbound event")

// Ingested describes the rows touched by one inbound message.
type Ingested struct {
	WorkspaceID    uuid.UUID
	ContactID      uuid.UUID
	ConversationID uuid.UUID
	MessageID      uuid.UUID
	NewContact     bool
}

// IngestionService turns webhook events into contacts, conversations and
// messages.
type IngestionService struct {
	db         *gorm.DB
	guard      *tenant.Guard
	enqueuer   jobs.Enqueuer
	broadcasts repositories.BroadcastRepo
	now        func() time.Time
}

func NewIngestionService(db *gorm.DB, guard *tenant.Guard, enqueuer jobs.Enqueuer) *IngestionService {
	return &IngestionService{
		db:         db,
		guard:      guard,
		enqueuer:   enqueuer,
		broadcasts: repositories.NewBroadcastRepo(db),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Ingest stores one inbound message. Contact, conversation, message and the
// message_ingested job are written in a single transaction.
func (s *IngestionService) Ingest(ctx context.Context, in messaging.InboundMessage) (*Ingested, error) {
	ref, err := s.guard.ResolveChannel(ctx, in.ChannelType, in.ExternalID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrUnknownChannel
		}
		return nil, err
	}

	channel := models.ChannelType(ref.Type)
	sender := strings.TrimPrefix(in.SenderID, "+")
	result := &Ingested{WorkspaceID: ref.WorkspaceID}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contacts := repositories.NewContactRepo(tx)
		conversations := repositories.NewConversationRepo(tx)

		contact, created, err := s.resolveContact(ctx, contacts, ref.WorkspaceID, channel, sender, in.SenderName)
		if err != nil {
			return err
		}
		result.ContactID = contact.ID
		result.NewContact = created

		conversation, err := conversations.GetOpen(ctx, ref.WorkspaceID, contact.ID, channel)
		if repositories.IsNotFound(err) {
			conversation = &models.Conversation{
				WorkspaceID:           ref.WorkspaceID,
				ContactID:             &contact.ID,
				Channel:               channel,
				ChannelConversationID: &sender,
				Status:                models.ConversationActive,
				IsAIEnabled:           true,
			}
			err = conversations.Create(ctx, conversation)
		}
		if err != nil {
			return fmt.Errorf("failed to resolve conversation: %w", err)
		}
		result.ConversationID = conversation.ID

		at := nextMessageTime(conversation.LastMessageAt, s.now())
		message := &models.Message{
			ConversationID: conversation.ID,
			Role:           models.RoleUser,
			Content:        in.Text,
			CreatedAt:      at,
		}
		if in.MessageID != "" {
			message.ChannelMessageID = &in.MessageID
		}
		if err := conversations.AddMessage(ctx, message); err != nil {
			return fmt.Errorf("failed to save message: %w", err)
		}
		result.MessageID = message.ID

		if err := conversations.SetLastMessageAt(ctx, conversation.ID, at); err != nil {
			return fmt.Errorf("failed to update conversation: %w", err)
		}
		if err := contacts.Touch(ctx, contact.ID, at); err != nil {
			return fmt.Errorf("failed to update contact: %w", err)
		}

		opts := jobs.DefaultEnqueueOptions()
		opts.Queue = jobs.QueueMessages
		opts.Priority = jobs.PriorityHigh
		opts.WorkspaceID = &ref.WorkspaceID
		_, err = s.enqueuer.EnqueueTx(ctx, tx, jobs.TypeMessageIngested, MessageIngestedPayload{
			WorkspaceID:    ref.WorkspaceID,
			ConversationID: conversation.ID,
			ContactID:      contact.ID,
			MessageID:      message.ID,
			Channel:        string(channel),
			Text:           in.Text,
		}, opts)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("workspace_id", result.WorkspaceID.String()).
		Str("conversation_id", result.ConversationID.String()).
		Str("channel", string(channel)).
		Msg("Inbound message ingested")
	return result, nil
}

// resolveContact finds the sender's contact or creates it. On WhatsApp a
// contact whose phone matches the sender is adopted and given the
// whatsapp_id.
func (s *IngestionService) resolveContact(ctx context.Context, contacts repositories.ContactRepo, workspaceID uuid.UUID, channel models.ChannelType, sender, senderName string) (*models.Contact, bool, error) {
	contact, err := contacts.GetByChannelID(ctx, workspaceID, channel, sender)
	if err == nil {
		return contact, false, nil
	}
	if !repositories.IsNotFound(err) {
		return nil, false, fmt.Errorf("failed to resolve contact: %w", err)
	}

	if channel == models.ChannelWhatsApp {
		contact, err = contacts.GetByPhone(ctx, workspaceID, sender, "+"+sender)
		if err == nil {
			contact, err = contacts.Update(ctx, workspaceID, contact.ID, models.Fields{"whatsapp_id": sender})
			if err != nil {
				return nil, false, fmt.Errorf("failed to link contact: %w", err)
			}
			return contact, false, nil
		}
		if !repositories.IsNotFound(err) {
			return nil, false, fmt.Errorf("failed to resolve contact: %w", err)
		}
	}

	contact = &models.Contact{
		WorkspaceID: workspaceID,
		Stage:       models.ContactStageLead,
		Tags:        []string{},
	}
	if senderName != "" {
		contact.FirstName = &senderName
	}
	switch channel {
	case models.ChannelWhatsApp:
		contact.WhatsAppID = &sender
		contact.Phone = &sender
	case models.ChannelInstagram:
		contact.InstagramID = &sender
	case models.ChannelMessenger:
		contact.MessengerID = &sender
	}
	if err := contacts.Create(ctx, contact); err != nil {
		return nil, false, fmt.Errorf("failed to create contact: %w", err)
	}
	return contact, true, nil
}

// recipientRank orders delivery states so callbacks never move a
// recipient backwards.
var recipientRank = map[models.RecipientStatus]int{
	models.RecipientPending:   0,
	models.RecipientSent:      1,
	models.RecipientDelivered: 2,
	models.RecipientRead:      3,
}

// ApplyStatus records a delivery callback against the broadcast recipient
// that owns the channel message id. Unknown message ids are ignored.
func (s *IngestionService) ApplyStatus(ctx context.Context, update messaging.StatusUpdate) error {
	if update.MessageID == "" {
		return nil
	}
	recipient, err := s.broadcasts.GetRecipientByChannelMessageID(ctx, update.MessageID)
	if repositories.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}

	at := update.Timestamp
	if at.IsZero() {
		at = s.now()
	}
	status := models.RecipientStatus(update.Status)
	changes := models.Fields{}
	switch status {
	case models.RecipientFailed:
		if recipient.Status != models.RecipientFailed {
			changes["status"] = status
		}
	case models.RecipientSent, models.RecipientDelivered, models.RecipientRead:
		if recipientRank[status] > recipientRank[recipient.Status] {
			changes["status"] = status
		}
		if status == models.RecipientDelivered && recipient.DeliveredAt == nil {
			changes["delivered_at"] = at
		}
		if status == models.RecipientRead {
			if recipient.ReadAt == nil {
				changes["read_at"] = at
			}
			if recipient.DeliveredAt == nil {
				changes["delivered_at"] = at
			}
		}
	default:
		return nil
	}
	if len(changes) == 0 {
		return nil
	}

	if err := s.broadcasts.UpdateRecipient(ctx, recipient.ID, changes); err != nil {
		return fmt.Errorf("failed to update recipient: %w", err)
	}
	_, err = s.broadcasts.RefreshStats(ctx, recipient.BroadcastID)
	return err
}
