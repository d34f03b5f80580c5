package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
)

type ConversationRepo interface {
	Create(ctx context.Context, conversation *models.Conversation) error
	GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*models.Conversation, error)
	GetOpen(ctx context.Context, workspaceID, contactID uuid.UUID, channel models.ChannelType) (*models.Conversation, error)
	List(ctx context.Context, filter models.ConversationFilter) ([]models.Conversation, error)
	Update(ctx context.Context, workspaceID, id uuid.UUID, changes models.Fields) (*models.Conversation, error)
	SetLastMessageAt(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, workspaceID, id uuid.UUID) error

	AddMessage(ctx context.Context, message *models.Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, skip, limit int) ([]models.Message, error)
	RecentMessages(ctx context.Context, conversationID uuid.UUID, n int) ([]models.Message, error)
	MarkRead(ctx context.Context, conversationID uuid.UUID) (int64, error)
}

type conversationRepo struct {
	db *gorm.DB
}

func NewConversationRepo(db *gorm.DB) ConversationRepo {
	return &conversationRepo{db: db}
}

func (r *conversationRepo) Create(ctx context.Context, conversation *models.Conversation) error {
	return r.db.WithContext(ctx).Create(conversation).Error
}

func (r *conversationRepo) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := findScoped(ctx, r.db, &conversation, id, workspaceID); err != nil {
		return nil, err
	}
	return &conversation, nil
}

// GetOpen returns the active or pending conversation for a contact on a
// channel. When duplicates exist the oldest one wins.
func (r *conversationRepo) GetOpen(ctx context.Context, workspaceID, contactID uuid.UUID, channel models.ChannelType) (*models.Conversation, error) {
	var conversation models.Conversation
	err := scoped(ctx, r.db, workspaceID).
		Where("contact_id = ? AND channel = ? AND status IN ?", contactID, channel, models.OpenConversationStatuses).
		Order("created_at ASC").
		First(&conversation).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *conversationRepo) List(ctx context.Context, filter models.ConversationFilter) ([]models.Conversation, error) {
	query := scoped(ctx, r.db, filter.WorkspaceID)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Channel != "" {
		query = query.Where("channel = ?", filter.Channel)
	}
	if filter.AgentID != nil {
		query = query.Where("agent_id = ?", *filter.AgentID)
	}
	if filter.AssignedUserID != nil {
		query = query.Where("assigned_user_id = ?", *filter.AssignedUserID)
	}

	var conversations []models.Conversation
	err := paginate(query, filter.Skip, filter.Limit).
		Order("last_message_at DESC").
		Order("created_at DESC").
		Find(&conversations).Error
	return conversations, err
}

func (r *conversationRepo) Update(ctx context.Context, workspaceID, id uuid.UUID, changes models.Fields) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := updateScoped(ctx, r.db, &conversation, id, workspaceID, changes); err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *conversationRepo) SetLastMessageAt(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("id = ?", id).
		Update("last_message_at", at).Error
}

func (r *conversationRepo) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	return deleteScoped(ctx, r.db, &models.Conversation{}, id, workspaceID)
}

func (r *conversationRepo) AddMessage(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *conversationRepo) ListMessages(ctx context.Context, conversationID uuid.UUID, skip, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := paginate(r.db.WithContext(ctx).Where("conversation_id = ?", conversationID), skip, limit).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

// RecentMessages returns the last n messages in chronological order.
func (r *conversationRepo) RecentMessages(ctx context.Context, conversationID uuid.UUID, n int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(n).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// MarkRead flags every unread inbound message of the conversation as read.
func (r *conversationRepo) MarkRead(ctx context.Context, conversationID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND role = ? AND is_read = ?", conversationID, models.RoleUser, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
