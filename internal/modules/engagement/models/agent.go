package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultAgentModel       = "gpt-4"
	DefaultAgentTemperature = 0.7
	DefaultAgentMaxTokens   = 1000
)

// Agent is an AI persona configured per workspace.
type Agent struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID  uuid.UUID `gorm:"type:uuid;not null;index" json:"workspace_id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Description  *string   `gorm:"type:text" json:"description"`
	AvatarURL    *string   `gorm:"type:varchar(500)" json:"avatar_url"`
	SystemPrompt *string   `gorm:"type:text" json:"system_prompt"`
	Model        string    `gorm:"type:varchar(100);not null;default:'gpt-4'" json:"model"`
	Temperature  float64   `gorm:"not null;default:0.7" json:"temperature"`
	MaxTokens    int       `gorm:"not null;default:1000" json:"max_tokens"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`

	EscalationEnabled  bool                        `gorm:"not null;default:false" json:"escalation_enabled"`
	EscalationKeywords datatypes.JSONSlice[string] `json:"escalation_keywords"`
	EscalationEmail    *string                     `gorm:"type:varchar(255)" json:"escalation_email"`

	TotalConversations int     `gorm:"not null;default:0" json:"total_conversations"`
	AccuracyRate       float64 `gorm:"not null;default:0" json:"accuracy_rate"`
	AvgResponseTime    float64 `gorm:"not null;default:0" json:"avg_response_time"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Workspace *Workspace `gorm:"foreignKey:WorkspaceID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Agent) TableName() string { return "agents" }

func (a *Agent) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	if a.EscalationKeywords == nil {
		a.EscalationKeywords = datatypes.JSONSlice[string]{}
	}
	return nil
}

type CreateAgentRequest struct {
	Name         string   `json:"name" validate:"required,min=1,max=255"`
	Description  *string  `json:"description"`
	SystemPrompt *string  `json:"system_prompt"`
	Model        string   `json:"model" validate:"omitempty,max=100"`
	Temperature  *float64 `json:"temperature" validate:"omitempty,gte=0,lte=2"`
	MaxTokens    *int     `json:"max_tokens" validate:"omitempty,gte=100,lte=4000"`
}

// ToAgent applies the create defaults.
func (r *CreateAgentRequest) ToAgent(workspaceID uuid.UUID) *Agent {
	agent := &Agent{
		WorkspaceID:  workspaceID,
		Name:         r.Name,
		Description:  r.Description,
		SystemPrompt: r.SystemPrompt,
		Model:        DefaultAgentModel,
		Temperature:  DefaultAgentTemperature,
		MaxTokens:    DefaultAgentMaxTokens,
		IsActive:     true,
	}
	if r.Model != "" {
		agent.Model = r.Model
	}
	if r.Temperature != nil {
		agent.Temperature = *r.Temperature
	}
	if r.MaxTokens != nil {
		agent.MaxTokens = *r.MaxTokens
	}
	return agent
}

type UpdateAgentRequest struct {
	Name               *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description        Optional[string] `json:"description"`
	AvatarURL          Optional[string] `json:"avatar_url"`
	SystemPrompt       Optional[string] `json:"system_prompt"`
	Model              *string          `json:"model" validate:"omitempty,max=100"`
	Temperature        *float64         `json:"temperature" validate:"omitempty,gte=0,lte=2"`
	MaxTokens          *int             `json:"max_tokens" validate:"omitempty,gte=100,lte=4000"`
	IsActive           *bool            `json:"is_active"`
	EscalationEnabled  *bool            `json:"escalation_enabled"`
	EscalationKeywords *[]string        `json:"escalation_keywords"`
	EscalationEmail    Optional[string] `json:"escalation_email"`
}

func (r *UpdateAgentRequest) Changes() Fields {
	f := Fields{}
	f.setString("name", r.Name)
	setOptional(f, "description", r.Description)
	setOptional(f, "avatar_url", r.AvatarURL)
	setOptional(f, "system_prompt", r.SystemPrompt)
	f.setString("model", r.Model)
	f.setFloat("temperature", r.Temperature)
	f.setInt("max_tokens", r.MaxTokens)
	f.setBool("is_active", r.IsActive)
	f.setBool("escalation_enabled", r.EscalationEnabled)
	if r.EscalationKeywords != nil {
		f["escalation_keywords"] = datatypes.JSONSlice[string](*r.EscalationKeywords)
	}
	setOptional(f, "escalation_email", r.EscalationEmail)
	return f
}

type AgentTestRequest struct {
	Message string `json:"message" validate:"required,min=1,max=1000"`
}

type AgentTestResponse struct {
	Response   string `json:"response"`
	TokensUsed int    `json:"tokens_used"`
}
