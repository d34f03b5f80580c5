package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/workflow"
)

type AutomationStatus string

const (
	AutomationActive AutomationStatus = "active"
	AutomationPaused AutomationStatus = "paused"
	AutomationDraft  AutomationStatus = "draft"
)

type AutomationLogStatus string

const (
	LogSuccess AutomationLogStatus = "success"
	LogFailed  AutomationLogStatus = "failed"
	LogPending AutomationLogStatus = "pending"
)

// TriggerMessageReceived fires after an inbound message is ingested.
const TriggerMessageReceived = "message_received"

type Automation struct {
	ID                   uuid.UUID                             `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID          uuid.UUID                             `gorm:"type:uuid;not null;index" json:"workspace_id"`
	Name                 string                                `gorm:"type:varchar(255);not null" json:"name"`
	Description          *string                               `gorm:"type:text" json:"description"`
	TriggerType          string                                `gorm:"type:varchar(100);not null;index" json:"trigger_type"`
	TriggerConfig        datatypes.JSONMap                     `json:"trigger_config"`
	Actions              datatypes.JSONSlice[workflow.Action]    `json:"actions"`
	Conditions           datatypes.JSONSlice[workflow.Condition] `json:"conditions"`
	Status               AutomationStatus                      `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	TotalExecutions      int                                   `gorm:"not null;default:0" json:"total_executions"`
	SuccessfulExecutions int                                   `gorm:"not null;default:0" json:"successful_executions"`
	FailedExecutions     int                                   `gorm:"not null;default:0" json:"failed_executions"`
	CreatedAt            time.Time                             `json:"created_at"`
	UpdatedAt            time.Time                             `json:"updated_at"`

	Workspace *Workspace `gorm:"foreignKey:WorkspaceID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Automation) TableName() string { return "automations" }

func (a *Automation) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	if a.Status == "" {
		a.Status = AutomationDraft
	}
	if a.TriggerConfig == nil {
		a.TriggerConfig = datatypes.JSONMap{}
	}
	if a.Actions == nil {
		a.Actions = datatypes.JSONSlice[workflow.Action]{}
	}
	if a.Conditions == nil {
		a.Conditions = datatypes.JSONSlice[workflow.Condition]{}
	}
	return nil
}

type AutomationLog struct {
	ID            uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	AutomationID  uuid.UUID           `gorm:"type:uuid;not null;index" json:"automation_id"`
	Status        AutomationLogStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	TriggerData   datatypes.JSONMap   `json:"trigger_data"`
	ExecutionData datatypes.JSON      `json:"execution_data"`
	ErrorMessage  *string             `gorm:"type:text" json:"error_message"`
	StartedAt     time.Time           `gorm:"not null;index" json:"started_at"`
	CompletedAt   *time.Time          `json:"completed_at"`

	Automation *Automation `gorm:"foreignKey:AutomationID;constraint:OnDelete:CASCADE" json:"-"`
}

func (AutomationLog) TableName() string { return "automation_logs" }

func (l *AutomationLog) BeforeCreate(tx *gorm.DB) error {
	assignID(&l.ID)
	return nil
}

type CreateAutomationRequest struct {
	Name          string                 `json:"name" validate:"required,min=1,max=255"`
	Description   *string                `json:"description"`
	TriggerType   string                 `json:"trigger_type" validate:"required,max=100"`
	TriggerConfig map[string]interface{} `json:"trigger_config"`
	Actions       []workflow.Action      `json:"actions"`
	Conditions    []workflow.Condition   `json:"conditions"`
}

func (r *CreateAutomationRequest) ToAutomation(workspaceID uuid.UUID) *Automation {
	return &Automation{
		WorkspaceID:   workspaceID,
		Name:          r.Name,
		Description:   r.Description,
		TriggerType:   r.TriggerType,
		TriggerConfig: datatypes.JSONMap(r.TriggerConfig),
		Actions:       datatypes.JSONSlice[workflow.Action](r.Actions),
		Conditions:    datatypes.JSONSlice[workflow.Condition](r.Conditions),
		Status:        AutomationDraft,
	}
}

type UpdateAutomationRequest struct {
	Name          *string                 `json:"name" validate:"omitempty,min=1,max=255"`
	Description   Optional[string]        `json:"description"`
	TriggerType   *string                 `json:"trigger_type" validate:"omitempty,max=100"`
	TriggerConfig *map[string]interface{} `json:"trigger_config"`
	Actions       *[]workflow.Action      `json:"actions"`
	Conditions    *[]workflow.Condition   `json:"conditions"`
	Status        *AutomationStatus       `json:"status" validate:"omitempty,oneof=active paused draft"`
}

func (r *UpdateAutomationRequest) Changes() Fields {
	f := Fields{}
	f.setString("name", r.Name)
	setOptional(f, "description", r.Description)
	f.setString("trigger_type", r.TriggerType)
	if r.TriggerConfig != nil {
		f["trigger_config"] = datatypes.JSONMap(*r.TriggerConfig)
	}
	if r.Actions != nil {
		f["actions"] = datatypes.JSONSlice[workflow.Action](*r.Actions)
	}
	if r.Conditions != nil {
		f["conditions"] = datatypes.JSONSlice[workflow.Condition](*r.Conditions)
	}
	if r.Status != nil {
		f["status"] = *r.Status
	}
	return f
}
