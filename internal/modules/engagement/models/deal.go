package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DealStage string

const (
	DealStageLead        DealStage = "lead"
	DealStageQualified   DealStage = "qualified"
	DealStageProposal    DealStage = "proposal"
	DealStageNegotiation DealStage = "negotiation"
	DealStageClosedWon   DealStage = "closed_won"
	DealStageClosedLost  DealStage = "closed_lost"
)

// DealStages lists the pipeline in funnel order.
var DealStages = []DealStage{
	DealStageLead,
	DealStageQualified,
	DealStageProposal,
	DealStageNegotiation,
	DealStageClosedWon,
	DealStageClosedLost,
}

// IsClosed reports whether the stage ends the deal.
func (s DealStage) IsClosed() bool {
	return s == DealStageClosedWon || s == DealStageClosedLost
}

type Deal struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"workspace_id"`
	ContactID      *uuid.UUID `gorm:"type:uuid;index" json:"contact_id"`
	AssignedUserID *uuid.UUID `gorm:"type:uuid" json:"assigned_user_id"`

	Title             string          `gorm:"type:varchar(255);not null" json:"title"`
	Description       *string         `gorm:"type:text" json:"description"`
	Value             decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"value"`
	Currency          string          `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	Stage             DealStage       `gorm:"type:varchar(20);not null;default:'lead';index" json:"stage"`
	Probability       float64         `gorm:"not null;default:0" json:"probability"`
	ExpectedCloseDate *time.Time      `json:"expected_close_date"`
	ClosedAt          *time.Time      `json:"closed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ContactName *string `gorm:"-" json:"contact_name,omitempty"`

	Workspace *Workspace `gorm:"foreignKey:WorkspaceID;constraint:OnDelete:CASCADE" json:"-"`
	Contact   *Contact   `gorm:"foreignKey:ContactID;constraint:OnDelete:SET NULL" json:"-"`
}

func (Deal) TableName() string { return "deals" }

func (d *Deal) BeforeCreate(tx *gorm.DB) error {
	assignID(&d.ID)
	if d.Stage == "" {
		d.Stage = DealStageLead
	}
	if d.Currency == "" {
		d.Currency = "USD"
	}
	return nil
}

type CreateDealRequest struct {
	Title             string           `json:"title" validate:"required,min=1,max=255"`
	Description       *string          `json:"description"`
	ContactID         *uuid.UUID       `json:"contact_id"`
	Value             *decimal.Decimal `json:"value"`
	Currency          string           `json:"currency" validate:"omitempty,len=3"`
	Stage             DealStage        `json:"stage" validate:"omitempty,oneof=lead qualified proposal negotiation closed_won closed_lost"`
	Probability       *float64         `json:"probability" validate:"omitempty,gte=0,lte=100"`
	ExpectedCloseDate *time.Time       `json:"expected_close_date"`
}

func (r *CreateDealRequest) ToDeal(workspaceID uuid.UUID, now time.Time) *Deal {
	deal := &Deal{
		WorkspaceID:       workspaceID,
		ContactID:         r.ContactID,
		Title:             r.Title,
		Description:       r.Description,
		Currency:          r.Currency,
		Stage:             r.Stage,
		ExpectedCloseDate: r.ExpectedCloseDate,
	}
	if r.Value != nil {
		deal.Value = *r.Value
	}
	if r.Probability != nil {
		deal.Probability = *r.Probability
	}
	if deal.Stage.IsClosed() {
		deal.ClosedAt = &now
	}
	return deal
}

type UpdateDealRequest struct {
	Title             *string             `json:"title" validate:"omitempty,min=1,max=255"`
	Description       Optional[string]    `json:"description"`
	ContactID         Optional[uuid.UUID] `json:"contact_id"`
	AssignedUserID    Optional[uuid.UUID] `json:"assigned_user_id"`
	Value             *decimal.Decimal    `json:"value"`
	Currency          *string             `json:"currency" validate:"omitempty,len=3"`
	Stage             *DealStage          `json:"stage" validate:"omitempty,oneof=lead qualified proposal negotiation closed_won closed_lost"`
	Probability       *float64            `json:"probability" validate:"omitempty,gte=0,lte=100"`
	ExpectedCloseDate Optional[time.Time] `json:"expected_close_date"`
}

// Changes returns the present fields. closed_at is derived by the service
// from the stage transition, never taken from the payload.
func (r *UpdateDealRequest) Changes() Fields {
	f := Fields{}
	f.setString("title", r.Title)
	setOptional(f, "description", r.Description)
	setOptional(f, "contact_id", r.ContactID)
	setOptional(f, "assigned_user_id", r.AssignedUserID)
	if r.Value != nil {
		f["value"] = *r.Value
	}
	f.setString("currency", r.Currency)
	if r.Stage != nil {
		f["stage"] = *r.Stage
	}
	f.setFloat("probability", r.Probability)
	setOptional(f, "expected_close_date", r.ExpectedCloseDate)
	return f
}

type DealFilter struct {
	WorkspaceID uuid.UUID
	Stage       string
	ContactID   *uuid.UUID
	Skip        int
	Limit       int
}

// PipelineStage is one row of the pipeline summary.
type PipelineStage struct {
	Stage DealStage `json:"stage"`
	Count int64     `json:"count"`
	Value float64   `json:"value"`
}
