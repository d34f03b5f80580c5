package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ConversationStatus string

const (
	ConversationActive   ConversationStatus = "active"
	ConversationPending  ConversationStatus = "pending"
	ConversationResolved ConversationStatus = "resolved"
	ConversationArchived ConversationStatus = "archived"
)

// OpenConversationStatuses are the statuses an inbound message can attach to.
var OpenConversationStatuses = []ConversationStatus{ConversationActive, ConversationPending}

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Conversation is a thread between a contact and a workspace on one channel.
// LastMessageAt only moves forward.
type Conversation struct {
	ID                    uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID           uuid.UUID          `gorm:"type:uuid;not null;index:idx_conversation_open" json:"workspace_id"`
	ContactID             *uuid.UUID         `gorm:"type:uuid;index:idx_conversation_open" json:"contact_id"`
	AgentID               *uuid.UUID         `gorm:"type:uuid;index" json:"agent_id"`
	AssignedUserID        *uuid.UUID         `gorm:"type:uuid" json:"assigned_user_id"`
	Channel               ChannelType        `gorm:"type:varchar(20);not null;index:idx_conversation_open" json:"channel"`
	ChannelConversationID *string            `gorm:"type:varchar(255)" json:"channel_conversation_id"`
	Status                ConversationStatus `gorm:"type:varchar(20);not null;default:'active';index:idx_conversation_open" json:"status"`
	Subject               *string            `gorm:"type:varchar(500)" json:"subject"`
	IsAIEnabled           bool               `gorm:"column:is_ai_enabled;not null;default:true" json:"is_ai_enabled"`
	LastMessageAt         *time.Time         `gorm:"index" json:"last_message_at"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`

	Messages    []Message `gorm:"-" json:"messages,omitempty"`
	ContactName *string   `gorm:"-" json:"contact_name,omitempty"`

	Workspace *Workspace `gorm:"foreignKey:WorkspaceID;constraint:OnDelete:CASCADE" json:"-"`
	Contact   *Contact   `gorm:"foreignKey:ContactID;constraint:OnDelete:SET NULL" json:"-"`
	Agent     *Agent     `gorm:"foreignKey:AgentID;constraint:OnDelete:SET NULL" json:"-"`
}

func (Conversation) TableName() string { return "conversations" }

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	if c.Status == "" {
		c.Status = ConversationActive
	}
	return nil
}

// IsOpen reports whether inbound messages still attach to this conversation.
func (c *Conversation) IsOpen() bool {
	return c.Status == ConversationActive || c.Status == ConversationPending
}

// Message is append-only. Only IsRead changes after creation.
type Message struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID   uuid.UUID         `gorm:"type:uuid;not null;index" json:"conversation_id"`
	Role             MessageRole       `gorm:"type:varchar(20);not null" json:"role"`
	Content          string            `gorm:"type:text;not null" json:"content"`
	ChannelMessageID *string           `gorm:"type:varchar(255);index" json:"channel_message_id"`
	Attachments      datatypes.JSON    `json:"attachments,omitempty"`
	Metadata         datatypes.JSONMap `json:"metadata,omitempty"`
	IsRead           bool              `gorm:"not null;default:false" json:"is_read"`
	CreatedAt        time.Time         `gorm:"index" json:"created_at"`

	Conversation *Conversation `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Message) TableName() string { return "messages" }

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	assignID(&m.ID)
	return nil
}

type UpdateConversationRequest struct {
	Status         *ConversationStatus `json:"status" validate:"omitempty,oneof=active pending resolved archived"`
	AssignedUserID Optional[uuid.UUID] `json:"assigned_user_id"`
	AgentID        Optional[uuid.UUID] `json:"agent_id"`
	IsAIEnabled    *bool               `json:"is_ai_enabled"`
	Subject        Optional[string]    `json:"subject"`
}

func (r *UpdateConversationRequest) Changes() Fields {
	f := Fields{}
	if r.Status != nil {
		f["status"] = *r.Status
	}
	setOptional(f, "assigned_user_id", r.AssignedUserID)
	setOptional(f, "agent_id", r.AgentID)
	f.setBool("is_ai_enabled", r.IsAIEnabled)
	setOptional(f, "subject", r.Subject)
	return f
}

type SendMessageRequest struct {
	Content string      `json:"content" validate:"required,min=1,max=5000"`
	Role    MessageRole `json:"role" validate:"omitempty,oneof=user assistant system"`
}

type ConversationFilter struct {
	WorkspaceID    uuid.UUID
	Status         string
	Channel        string
	AgentID        *uuid.UUID
	AssignedUserID *uuid.UUID
	Skip           int
	Limit          int
}
