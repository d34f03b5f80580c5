package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/auth"
)

type MemberRole string

const (
	MemberRoleOwner  MemberRole = "owner"
	MemberRoleAdmin  MemberRole = "admin"
	MemberRoleMember MemberRole = "member"
)

// Workspace is the tenant boundary. Deleting it cascades to every
// workspace-owned row.
type Workspace struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Slug      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	LogoURL   *string   `gorm:"type:varchar(500)" json:"logo_url"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Owner *auth.User `gorm:"foreignKey:OwnerID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (Workspace) TableName() string { return "workspaces" }

func (w *Workspace) BeforeCreate(tx *gorm.DB) error {
	assignID(&w.ID)
	return nil
}

type WorkspaceMember struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_workspace_member" json:"workspace_id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_workspace_member;index" json:"user_id"`
	Role        MemberRole `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	InvitedBy   *uuid.UUID `gorm:"type:uuid" json:"invited_by"`
	JoinedAt    *time.Time `json:"joined_at"`
	CreatedAt   time.Time  `json:"created_at"`

	Workspace *Workspace `gorm:"foreignKey:WorkspaceID;constraint:OnDelete:CASCADE" json:"-"`
	User      *auth.User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (WorkspaceMember) TableName() string { return "workspace_members" }

func (m *WorkspaceMember) BeforeCreate(tx *gorm.DB) error {
	assignID(&m.ID)
	return nil
}

// MemberView is a member joined with the user's display fields.
type MemberView struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Role      MemberRole `json:"role"`
	JoinedAt  *time.Time `json:"joined_at"`
	UserEmail string     `json:"user_email"`
	UserName  string     `json:"user_name"`
}

type CreateWorkspaceRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

type UpdateWorkspaceRequest struct {
	Name    *string          `json:"name" validate:"omitempty,min=1,max=255"`
	LogoURL Optional[string] `json:"logo_url"`
}

func (r *UpdateWorkspaceRequest) Changes() Fields {
	f := Fields{}
	f.setString("name", r.Name)
	setOptional(f, "logo_url", r.LogoURL)
	return f
}

type InviteMemberRequest struct {
	Email string     `json:"email" validate:"required,email"`
	Role  MemberRole `json:"role" validate:"omitempty,oneof=admin member"`
}

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
