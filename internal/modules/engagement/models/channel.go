package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChannelType string

const (
	ChannelWhatsApp  ChannelType = "whatsapp"
	ChannelInstagram ChannelType = "instagram"
	ChannelMessenger ChannelType = "messenger"
	ChannelWebchat   ChannelType = "webchat"
)

type ChannelStatus string

const (
	ChannelStatusConnected    ChannelStatus = "connected"
	ChannelStatusDisconnected ChannelStatus = "disconnected"
	ChannelStatusPending      ChannelStatus = "pending"
	ChannelStatusError        ChannelStatus = "error"
)

// Channel is a connected messaging integration. ExternalID is the phone
// number id (WhatsApp) or page id (Instagram, Messenger) webhooks are routed by.
type Channel struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID   uuid.UUID         `gorm:"type:uuid;not null;index" json:"workspace_id"`
	ChannelType   ChannelType       `gorm:"type:varchar(20);not null;index:idx_channel_external" json:"channel_type"`
	Name          string            `gorm:"type:varchar(255);not null" json:"name"`
	ExternalID    *string           `gorm:"type:varchar(255);index:idx_channel_external" json:"external_id"`
	AccessToken   *string           `gorm:"type:text" json:"access_token"`
	RefreshToken  *string           `gorm:"type:text" json:"-"`
	Config        datatypes.JSONMap `json:"config"`
	WebhookSecret *string           `gorm:"type:varchar(255)" json:"-"`
	Status        ChannelStatus     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	IsActive      bool              `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`

	Workspace *Workspace `gorm:"foreignKey:WorkspaceID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Channel) TableName() string { return "channels" }

func (c *Channel) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	if c.Config == nil {
		c.Config = datatypes.JSONMap{}
	}
	return nil
}

// Masked returns a copy safe to return from list endpoints.
func (c Channel) Masked() Channel {
	if c.AccessToken != nil {
		masked := MaskSecret(*c.AccessToken)
		c.AccessToken = &masked
	}
	return c
}

// MaskSecret keeps the last four characters of a credential.
func MaskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

type ConnectWhatsAppRequest struct {
	PhoneNumberID     string  `json:"phone_number_id" validate:"required"`
	AccessToken       string  `json:"access_token" validate:"required"`
	BusinessAccountID *string `json:"business_account_id"`
	Name              *string `json:"name" validate:"omitempty,max=255"`
}

type ConnectPageRequest struct {
	PageID      string  `json:"page_id" validate:"required"`
	AccessToken string  `json:"access_token" validate:"required"`
	Name        *string `json:"name" validate:"omitempty,max=255"`
}
