package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionTrialing SubscriptionStatus = "trialing"
)

// Subscription is the plan bookkeeping for a workspace. Plan is a key into
// the plan table loaded from configuration.
type Subscription struct {
	ID                   uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID          uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex" json:"workspace_id"`
	Plan                 string             `gorm:"type:varchar(50);not null;default:'free'" json:"plan"`
	Status               SubscriptionStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	MonthlyMessagesLimit int                `gorm:"not null;default:1000" json:"monthly_messages_limit"`
	MessagesUsed         int                `gorm:"not null;default:0" json:"messages_used"`
	CurrentPeriodStart   *time.Time         `json:"current_period_start"`
	CurrentPeriodEnd     *time.Time         `json:"current_period_end"`
	CancelAtPeriodEnd    bool               `gorm:"not null;default:false" json:"cancel_at_period_end"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`

	Workspace *Workspace `gorm:"foreignKey:WorkspaceID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Subscription) TableName() string { return "subscriptions" }

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}

type Invoice struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID uuid.UUID       `gorm:"type:uuid;not null;index" json:"workspace_id"`
	Number      string          `gorm:"type:varchar(100)" json:"number"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"amount"`
	Currency    string          `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	Status      string          `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	PeriodStart *time.Time      `json:"period_start"`
	PeriodEnd   *time.Time      `json:"period_end"`
	PaidAt      *time.Time      `json:"paid_at"`
	CreatedAt   time.Time       `json:"created_at"`

	Workspace *Workspace `gorm:"foreignKey:WorkspaceID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Invoice) TableName() string { return "invoices" }

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	assignID(&i.ID)
	return nil
}

type SubscribeRequest struct {
	Plan string `json:"plan" validate:"required"`
}
