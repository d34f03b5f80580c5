package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SourceType string

const (
	SourceDocument SourceType = "document"
	SourceWebsite  SourceType = "website"
	SourceText     SourceType = "text"
	SourceFAQ      SourceType = "faq"
)

type ProcessingStatus string

const (
	ProcessingPending    ProcessingStatus = "pending"
	ProcessingProcessing ProcessingStatus = "processing"
	ProcessingCompleted  ProcessingStatus = "completed"
	ProcessingFailed     ProcessingStatus = "failed"
)

type KnowledgeSource struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID  uuid.UUID        `gorm:"type:uuid;not null;index" json:"workspace_id"`
	Name         string           `gorm:"type:varchar(255);not null" json:"name"`
	SourceType   SourceType       `gorm:"type:varchar(20);not null" json:"source_type"`
	FileURL      *string          `gorm:"type:varchar(500)" json:"file_url"`
	FileName     *string          `gorm:"type:varchar(255)" json:"file_name"`
	FileSize     *int64           `json:"file_size"`
	WebsiteURL   *string          `gorm:"type:varchar(500)" json:"website_url"`
	TextContent  *string          `gorm:"type:text" json:"-"`
	Status       ProcessingStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	ChunkCount   int              `gorm:"not null;default:0" json:"chunk_count"`
	TokenCount   int              `gorm:"not null;default:0" json:"token_count"`
	ErrorMessage *string          `gorm:"type:text" json:"error_message"`
	IsActive     bool             `gorm:"not null;default:true" json:"is_active"`
	LastSyncedAt *time.Time       `json:"last_synced_at"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`

	Workspace *Workspace `gorm:"foreignKey:WorkspaceID;constraint:OnDelete:CASCADE" json:"-"`
}

func (KnowledgeSource) TableName() string { return "knowledge_sources" }

func (k *KnowledgeSource) BeforeCreate(tx *gorm.DB) error {
	assignID(&k.ID)
	if k.Status == "" {
		k.Status = ProcessingPending
	}
	return nil
}

type KnowledgeTextRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	TextContent string `json:"text_content" validate:"required,min=1,max=50000"`
}

type KnowledgeWebsiteRequest struct {
	Name       string `json:"name" validate:"required,min=1,max=255"`
	WebsiteURL string `json:"website_url" validate:"required,url,max=500"`
}

type KnowledgeDocumentRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=255"`
	FileURL  string `json:"file_url" validate:"required,url,max=500"`
	FileName string `json:"file_name" validate:"omitempty,max=255"`
	FileSize *int64 `json:"file_size" validate:"omitempty,gte=0"`
}

type KnowledgeQueryRequest struct {
	Query string `json:"query" validate:"required,min=1,max=1000"`
	TopK  int    `json:"top_k" validate:"omitempty,gte=1,lte=20"`
}

type KnowledgeQueryResponse struct {
	Results []map[string]interface{} `json:"results"`
	Query   string                   `json:"query"`
}
