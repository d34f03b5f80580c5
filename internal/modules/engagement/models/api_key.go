package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/auth"
)

// APIKey stores only the sha256 of the key; the raw key is shown once.
type APIKey struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID uuid.UUID  `gorm:"type:uuid;not null;index" json:"-"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"-"`
	Name        string     `gorm:"type:varchar(255);not null" json:"name"`
	KeyPrefix   string     `gorm:"type:varchar(20);not null" json:"key_prefix"`
	KeyHash     string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"-"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	LastUsedAt  *time.Time `json:"last_used_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
	CreatedAt   time.Time  `json:"created_at"`

	Workspace *Workspace `gorm:"foreignKey:WorkspaceID;constraint:OnDelete:CASCADE" json:"-"`
	User      *auth.User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (APIKey) TableName() string { return "api_keys" }

func (k *APIKey) BeforeCreate(tx *gorm.DB) error {
	assignID(&k.ID)
	return nil
}

type CreateAPIKeyRequest struct {
	Name          string `json:"name" validate:"required,min=1,max=255"`
	ExpiresInDays *int   `json:"expires_in_days" validate:"omitempty,gte=1,lte=365"`
}

// APIKeyCreated is returned once, with the raw key.
type APIKeyCreated struct {
	APIKey
	Key string `json:"key"`
}
