package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Flow is a visual conversation flow made of nodes.
type Flow struct {
	ID                   uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID          uuid.UUID         `gorm:"type:uuid;not null;index" json:"workspace_id"`
	Name                 string            `gorm:"type:varchar(255);not null" json:"name"`
	Description          *string           `gorm:"type:text" json:"description"`
	TriggerType          *string           `gorm:"type:varchar(100)" json:"trigger_type"`
	TriggerConfig        datatypes.JSONMap `json:"trigger_config"`
	IsActive             bool              `gorm:"not null;default:false" json:"is_active"`
	Version              int               `gorm:"not null;default:1" json:"version"`
	TotalExecutions      int               `gorm:"not null;default:0" json:"total_executions"`
	SuccessfulExecutions int               `gorm:"not null;default:0" json:"successful_executions"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`

	Nodes []FlowNode `gorm:"-" json:"nodes"`

	Workspace *Workspace `gorm:"foreignKey:WorkspaceID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Flow) TableName() string { return "flows" }

func (f *Flow) BeforeCreate(tx *gorm.DB) error {
	assignID(&f.ID)
	if f.TriggerConfig == nil {
		f.TriggerConfig = datatypes.JSONMap{}
	}
	if f.Version == 0 {
		f.Version = 1
	}
	return nil
}

type FlowNode struct {
	ID                uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	FlowID            uuid.UUID         `gorm:"type:uuid;not null;index" json:"flow_id"`
	NodeType          string            `gorm:"type:varchar(100);not null" json:"node_type"`
	Name              *string           `gorm:"type:varchar(255)" json:"name"`
	Config            datatypes.JSONMap `json:"config"`
	PositionX         int               `gorm:"not null;default:0" json:"position_x"`
	PositionY         int               `gorm:"not null;default:0" json:"position_y"`
	Order             int               `gorm:"column:node_order;not null;default:0" json:"order"`
	NextNodeID        *uuid.UUID        `gorm:"type:uuid" json:"next_node_id"`
	TrueBranchNodeID  *uuid.UUID        `gorm:"type:uuid" json:"true_branch_node_id"`
	FalseBranchNodeID *uuid.UUID        `gorm:"type:uuid" json:"false_branch_node_id"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`

	Flow *Flow `gorm:"foreignKey:FlowID;constraint:OnDelete:CASCADE" json:"-"`
}

func (FlowNode) TableName() string { return "flow_nodes" }

func (n *FlowNode) BeforeCreate(tx *gorm.DB) error {
	assignID(&n.ID)
	if n.Config == nil {
		n.Config = datatypes.JSONMap{}
	}
	return nil
}

type CreateFlowRequest struct {
	Name          string                 `json:"name" validate:"required,min=1,max=255"`
	Description   *string                `json:"description"`
	TriggerType   *string                `json:"trigger_type" validate:"omitempty,max=100"`
	TriggerConfig map[string]interface{} `json:"trigger_config"`
}

type UpdateFlowRequest struct {
	Name          *string                 `json:"name" validate:"omitempty,min=1,max=255"`
	Description   Optional[string]        `json:"description"`
	TriggerType   Optional[string]        `json:"trigger_type"`
	TriggerConfig *map[string]interface{} `json:"trigger_config"`
	IsActive      *bool                   `json:"is_active"`
}

func (r *UpdateFlowRequest) Changes() Fields {
	f := Fields{}
	f.setString("name", r.Name)
	setOptional(f, "description", r.Description)
	setOptional(f, "trigger_type", r.TriggerType)
	if r.TriggerConfig != nil {
		f["trigger_config"] = datatypes.JSONMap(*r.TriggerConfig)
	}
	f.setBool("is_active", r.IsActive)
	return f
}

type CreateFlowNodeRequest struct {
	NodeType          string                 `json:"node_type" validate:"required,max=100"`
	Name              *string                `json:"name" validate:"omitempty,max=255"`
	Config            map[string]interface{} `json:"config"`
	PositionX         int                    `json:"position_x"`
	PositionY         int                    `json:"position_y"`
	Order             int                    `json:"order"`
	NextNodeID        *uuid.UUID             `json:"next_node_id"`
	TrueBranchNodeID  *uuid.UUID             `json:"true_branch_node_id"`
	FalseBranchNodeID *uuid.UUID             `json:"false_branch_node_id"`
}

func (r *CreateFlowNodeRequest) ToNode(flowID uuid.UUID) *FlowNode {
	return &FlowNode{
		FlowID:            flowID,
		NodeType:          r.NodeType,
		Name:              r.Name,
		Config:            datatypes.JSONMap(r.Config),
		PositionX:         r.PositionX,
		PositionY:         r.PositionY,
		Order:             r.Order,
		NextNodeID:        r.NextNodeID,
		TrueBranchNodeID:  r.TrueBranchNodeID,
		FalseBranchNodeID: r.FalseBranchNodeID,
	}
}

type UpdateFlowNodeRequest struct {
	NodeType          *string                 `json:"node_type" validate:"omitempty,max=100"`
	Name              Optional[string]        `json:"name"`
	Config            *map[string]interface{} `json:"config"`
	PositionX         *int                    `json:"position_x"`
	PositionY         *int                    `json:"position_y"`
	Order             *int                    `json:"order"`
	NextNodeID        Optional[uuid.UUID]     `json:"next_node_id"`
	TrueBranchNodeID  Optional[uuid.UUID]     `json:"true_branch_node_id"`
	FalseBranchNodeID Optional[uuid.UUID]     `json:"false_branch_node_id"`
}

func (r *UpdateFlowNodeRequest) Changes() Fields {
	f := Fields{}
	f.setString("node_type", r.NodeType)
	setOptional(f, "name", r.Name)
	if r.Config != nil {
		f["config"] = datatypes.JSONMap(*r.Config)
	}
	f.setInt("position_x", r.PositionX)
	f.setInt("position_y", r.PositionY)
	f.setInt("node_order", r.Order)
	setOptional(f, "next_node_id", r.NextNodeID)
	setOptional(f, "true_branch_node_id", r.TrueBranchNodeID)
	setOptional(f, "false_branch_node_id", r.FalseBranchNodeID)
	return f
}
