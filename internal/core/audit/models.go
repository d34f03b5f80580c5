package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Actions recorded by the engagement module.
const (
	ActionMemberAdded       = "member.added"
	ActionMemberRemoved     = "member.removed"
	ActionDealStageChanged  = "deal.stage_changed"
	ActionChannelConnected  = "channel.connected"
	ActionChannelDisconnect = "channel.disconnected"
	ActionChannelDeleted    = "channel.deleted"
)

// AuditLog represents a system audit log entry
type AuditLog struct {
	ID uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`

	// Context
	WorkspaceID uuid.UUID  `json:"workspace_id" gorm:"type:uuid;not null;index"`
	UserID      *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`

	// Action details
	Action     string `json:"action" gorm:"type:varchar(100);not null;index"`
	EntityType string `json:"entity_type" gorm:"type:varchar(100);not null;index"`
	EntityID   string `json:"entity_id" gorm:"type:varchar(100);index"`

	// Change tracking
	OldValue datatypes.JSON `json:"old_value,omitempty"`
	NewValue datatypes.JSON `json:"new_value,omitempty"`

	// Request metadata
	IPAddress string `json:"ip_address,omitempty" gorm:"type:varchar(64)"`
	UserAgent string `json:"user_agent,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// TableName specifies the table name
func (AuditLog) TableName() string {
	return "audit_logs"
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Entry is the input to Service.Record.
type Entry struct {
	WorkspaceID uuid.UUID
	UserID      uuid.UUID
	Action      string
	EntityType  string
	EntityID    string
	OldValue    interface{}
	NewValue    interface{}
	IPAddress   string
	UserAgent   string
}

// Filter represents filters for querying audit logs
type Filter struct {
	WorkspaceID uuid.UUID
	UserID      *uuid.UUID
	Action      string
	EntityType  string
	EntityID    string
	StartDate   *time.Time
	EndDate     *time.Time
	Skip        int
	Limit       int
}
