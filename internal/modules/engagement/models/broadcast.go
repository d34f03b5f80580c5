package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BroadcastStatus string

const (
	BroadcastDraft     BroadcastStatus = "draft"
	BroadcastScheduled BroadcastStatus = "scheduled"
	BroadcastSending   BroadcastStatus = "sending"
	BroadcastSent      BroadcastStatus = "sent"
	BroadcastFailed    BroadcastStatus = "failed"
)

// IsEditable reports whether the broadcast has not started sending yet.
func (s BroadcastStatus) IsEditable() bool {
	return s == BroadcastDraft || s == BroadcastScheduled
}

type RecipientStatus string

const (
	RecipientPending   RecipientStatus = "pending"
	RecipientSent      RecipientStatus = "sent"
	RecipientDelivered RecipientStatus = "delivered"
	RecipientRead      RecipientStatus = "read"
	RecipientFailed    RecipientStatus = "failed"
)

const (
	AudienceAll   = "all"
	AudienceTag   = "tag"
	AudienceStage = "stage"
)

type Broadcast struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"workspace_id"`
	Name           string            `gorm:"type:varchar(255);not null" json:"name"`
	Channel        ChannelType       `gorm:"type:varchar(50);not null" json:"channel"`
	MessageContent string            `gorm:"type:text;not null" json:"message_content"`
	MediaURL       *string           `gorm:"type:varchar(500)" json:"media_url"`
	TemplateID     *string           `gorm:"type:varchar(255)" json:"template_id"`
	AudienceType   string            `gorm:"type:varchar(50);not null;default:'all'" json:"audience_type"`
	AudienceFilter datatypes.JSONMap `json:"audience_filter"`
	Status         BroadcastStatus   `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	ScheduledAt    *time.Time        `gorm:"index" json:"scheduled_at"`
	SentAt         *time.Time        `json:"sent_at"`

	TotalRecipients int     `gorm:"not null;default:0" json:"total_recipients"`
	SentCount       int     `gorm:"not null;default:0" json:"sent_count"`
	DeliveredCount  int     `gorm:"not null;default:0" json:"delivered_count"`
	ReadCount       int     `gorm:"not null;default:0" json:"read_count"`
	FailedCount     int     `gorm:"not null;default:0" json:"failed_count"`
	OpenRate        float64 `gorm:"not null;default:0" json:"open_rate"`
	ClickRate       float64 `gorm:"not null;default:0" json:"click_rate"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Workspace *Workspace `gorm:"foreignKey:WorkspaceID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Broadcast) TableName() string { return "broadcasts" }

func (b *Broadcast) BeforeCreate(tx *gorm.DB) error {
	assignID(&b.ID)
	if b.Status == "" {
		b.Status = BroadcastDraft
	}
	if b.AudienceType == "" {
		b.AudienceType = AudienceAll
	}
	if b.AudienceFilter == nil {
		b.AudienceFilter = datatypes.JSONMap{}
	}
	return nil
}

type BroadcastRecipient struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	BroadcastID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"broadcast_id"`
	ContactID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"contact_id"`
	Status           RecipientStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ChannelMessageID *string         `gorm:"type:varchar(255);index" json:"channel_message_id"`
	ErrorMessage     *string         `gorm:"type:text" json:"error_message"`
	SentAt           *time.Time      `json:"sent_at"`
	DeliveredAt      *time.Time      `json:"delivered_at"`
	ReadAt           *time.Time      `json:"read_at"`
	CreatedAt        time.Time       `json:"created_at"`

	Broadcast *Broadcast `gorm:"foreignKey:BroadcastID;constraint:OnDelete:CASCADE" json:"-"`
	Contact   *Contact   `gorm:"foreignKey:ContactID;constraint:OnDelete:CASCADE" json:"-"`
}

func (BroadcastRecipient) TableName() string { return "broadcast_recipients" }

func (r *BroadcastRecipient) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	if r.Status == "" {
		r.Status = RecipientPending
	}
	return nil
}

type CreateBroadcastRequest struct {
	Name           string                 `json:"name" validate:"required,min=1,max=255"`
	Channel        ChannelType            `json:"channel" validate:"required,oneof=whatsapp instagram messenger"`
	MessageContent string                 `json:"message_content" validate:"required,min=1,max=5000"`
	MediaURL       *string                `json:"media_url" validate:"omitempty,max=500"`
	TemplateID     *string                `json:"template_id"`
	AudienceType   string                 `json:"audience_type" validate:"omitempty,oneof=all tag stage"`
	AudienceFilter map[string]interface{} `json:"audience_filter"`
}

func (r *CreateBroadcastRequest) ToBroadcast(workspaceID uuid.UUID) *Broadcast {
	return &Broadcast{
		WorkspaceID:    workspaceID,
		Name:           r.Name,
		Channel:        r.Channel,
		MessageContent: r.MessageContent,
		MediaURL:       r.MediaURL,
		TemplateID:     r.TemplateID,
		AudienceType:   r.AudienceType,
		AudienceFilter: datatypes.JSONMap(r.AudienceFilter),
		Status:         BroadcastDraft,
	}
}

type UpdateBroadcastRequest struct {
	Name           *string                 `json:"name" validate:"omitempty,min=1,max=255"`
	MessageContent *string                 `json:"message_content" validate:"omitempty,min=1,max=5000"`
	MediaURL       Optional[string]        `json:"media_url"`
	AudienceType   *string                 `json:"audience_type" validate:"omitempty,oneof=all tag stage"`
	AudienceFilter *map[string]interface{} `json:"audience_filter"`
}

func (r *UpdateBroadcastRequest) Changes() Fields {
	f := Fields{}
	f.setString("name", r.Name)
	f.setString("message_content", r.MessageContent)
	setOptional(f, "media_url", r.MediaURL)
	f.setString("audience_type", r.AudienceType)
	if r.AudienceFilter != nil {
		f["audience_filter"] = datatypes.JSONMap(*r.AudienceFilter)
	}
	return f
}

type ScheduleBroadcastRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
}

type BroadcastStats struct {
	TotalRecipients int     `json:"total_recipients"`
	SentCount       int     `json:"sent_count"`
	DeliveredCount  int     `json:"delivered_count"`
	ReadCount       int     `json:"read_count"`
	FailedCount     int     `json:"failed_count"`
	OpenRate        float64 `json:"open_rate"`
	ClickRate       float64 `json:"click_rate"`
}
