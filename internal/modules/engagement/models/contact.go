package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ContactStage string

const (
	ContactStageLead     ContactStage = "lead"
	ContactStageProspect ContactStage = "prospect"
	ContactStageCustomer ContactStage = "customer"
	ContactStageChurned  ContactStage = "churned"
)

// Contact is a customer identity inside one workspace. The channel ids are
// the sender identifiers used by inbound webhooks.
type Contact struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID uuid.UUID `gorm:"type:uuid;not null;index" json:"workspace_id"`

	FirstName *string `gorm:"type:varchar(100)" json:"first_name"`
	LastName  *string `gorm:"type:varchar(100)" json:"last_name"`
	Email     *string `gorm:"type:varchar(255);index" json:"email"`
	Phone     *string `gorm:"type:varchar(50);index" json:"phone"`
	AvatarURL *string `gorm:"type:varchar(500)" json:"avatar_url"`
	Company   *string `gorm:"type:varchar(255)" json:"company"`
	JobTitle  *string `gorm:"type:varchar(255)" json:"job_title"`

	WhatsAppID  *string `gorm:"column:whatsapp_id;type:varchar(100);index" json:"whatsapp_id"`
	InstagramID *string `gorm:"type:varchar(100);index" json:"instagram_id"`
	MessengerID *string `gorm:"type:varchar(100);index" json:"messenger_id"`

	Stage        ContactStage                `gorm:"type:varchar(20);not null;default:'lead'" json:"stage"`
	LeadScore    int                         `gorm:"not null;default:0" json:"lead_score"`
	Tags         datatypes.JSONSlice[string] `json:"tags"`
	CustomFields datatypes.JSONMap           `json:"custom_fields"`
	Notes        *string                     `gorm:"type:text" json:"notes"`

	LastContactedAt *time.Time `json:"last_contacted_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Workspace *Workspace `gorm:"foreignKey:WorkspaceID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Contact) TableName() string { return "contacts" }

func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	if c.Stage == "" {
		c.Stage = ContactStageLead
	}
	if c.Tags == nil {
		c.Tags = datatypes.JSONSlice[string]{}
	}
	if c.CustomFields == nil {
		c.CustomFields = datatypes.JSONMap{}
	}
	return nil
}

// DisplayName joins first and last name, falling back to phone then email.
func (c *Contact) DisplayName() string {
	var parts []string
	if c.FirstName != nil && *c.FirstName != "" {
		parts = append(parts, *c.FirstName)
	}
	if c.LastName != nil && *c.LastName != "" {
		parts = append(parts, *c.LastName)
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if c.Phone != nil && *c.Phone != "" {
		return *c.Phone
	}
	if c.Email != nil {
		return *c.Email
	}
	return ""
}

type CreateContactRequest struct {
	FirstName *string      `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string      `json:"last_name" validate:"omitempty,max=100"`
	Email     *string      `json:"email" validate:"omitempty,email"`
	Phone     *string      `json:"phone" validate:"omitempty,max=50"`
	Company   *string      `json:"company" validate:"omitempty,max=255"`
	JobTitle  *string      `json:"job_title" validate:"omitempty,max=255"`
	Stage     ContactStage `json:"stage" validate:"omitempty,oneof=lead prospect customer churned"`
	Tags      []string     `json:"tags"`
	Notes     *string      `json:"notes"`
}

func (r *CreateContactRequest) ToContact(workspaceID uuid.UUID) *Contact {
	stage := r.Stage
	if stage == "" {
		stage = ContactStageLead
	}
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return &Contact{
		WorkspaceID: workspaceID,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		Phone:       r.Phone,
		Company:     r.Company,
		JobTitle:    r.JobTitle,
		Stage:       stage,
		Tags:        tags,
		Notes:       r.Notes,
	}
}

type UpdateContactRequest struct {
	FirstName    Optional[string]        `json:"first_name"`
	LastName     Optional[string]        `json:"last_name"`
	Email        Optional[string]        `json:"email"`
	Phone        Optional[string]        `json:"phone"`
	Company      Optional[string]        `json:"company"`
	JobTitle     Optional[string]        `json:"job_title"`
	Stage        *ContactStage           `json:"stage" validate:"omitempty,oneof=lead prospect customer churned"`
	LeadScore    *int                    `json:"lead_score" validate:"omitempty,gte=0,lte=100"`
	Tags         *[]string               `json:"tags"`
	CustomFields *map[string]interface{} `json:"custom_fields"`
	Notes        Optional[string]        `json:"notes"`
}

func (r *UpdateContactRequest) Changes() Fields {
	f := Fields{}
	setOptional(f, "first_name", r.FirstName)
	setOptional(f, "last_name", r.LastName)
	setOptional(f, "email", r.Email)
	setOptional(f, "phone", r.Phone)
	setOptional(f, "company", r.Company)
	setOptional(f, "job_title", r.JobTitle)
	if r.Stage != nil {
		f["stage"] = *r.Stage
	}
	f.setInt("lead_score", r.LeadScore)
	if r.Tags != nil {
		f["tags"] = datatypes.JSONSlice[string](*r.Tags)
	}
	if r.CustomFields != nil {
		f["custom_fields"] = datatypes.JSONMap(*r.CustomFields)
	}
	setOptional(f, "notes", r.Notes)
	return f
}

type ContactImportRequest struct {
	Contacts []CreateContactRequest `json:"contacts" validate:"required,min=1,max=1000,dive"`
}

type ContactFilter struct {
	WorkspaceID uuid.UUID
	Stage       string
	Tag         string
	Search      string
	Skip        int
	Limit       int
}
