package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JobStatus represents the status of a job
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusRetrying   JobStatus = "retrying"
	StatusCancelled  JobStatus = "cancelled"
)

// runnableStatuses are the statuses a worker may pick up.
var runnableStatuses = []JobStatus{StatusPending, StatusRetrying}

// JobPriority represents the priority of a job
type JobPriority int

const (
	PriorityLow      JobPriority = 0
	PriorityNormal   JobPriority = 5
	PriorityHigh     JobPriority = 10
	PriorityCritical JobPriority = 20
)

// Job types written by the engagement module.
const (
	TypeMessageIngested   = "conversation.message_ingested"
	TypeBroadcastDispatch = "broadcast.dispatch"
	TypeKnowledgeProcess  = "knowledge.process"
)

// Queue names.
const (
	QueueDefault    = "default"
	QueueMessages   = "messages"
	QueueBroadcasts = "broadcasts"
)

// Job is a row in the outbox table. It is written in the same transaction as
// the state change it describes and consumed by a Worker.
type Job struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID *uuid.UUID     `gorm:"type:uuid;index" json:"workspace_id"`
	Queue       string         `gorm:"type:varchar(100);not null;index" json:"queue"`
	Type        string         `gorm:"type:varchar(100);not null" json:"type"`
	Payload     datatypes.JSON `json:"payload"`

	Status   JobStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Priority JobPriority `gorm:"not null;default:5;index" json:"priority"`

	Attempts   int `gorm:"not null;default:0" json:"attempts"`
	MaxRetries int `gorm:"not null;default:3" json:"max_retries"`

	ScheduledAt *time.Time `gorm:"index" json:"scheduled_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	FailedAt    *time.Time `json:"failed_at"`

	Error    string         `gorm:"type:text" json:"error,omitempty"`
	Result   datatypes.JSON `json:"result,omitempty"`
	Metadata datatypes.JSON `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Job model
func (Job) TableName() string {
	return "jobs"
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

// JobHandler is the interface that job handlers must implement
type JobHandler interface {
	Handle(ctx context.Context, job *Job) error
	GetType() string
}

// EnqueueOptions contains options for enqueueing a job
type EnqueueOptions struct {
	Queue       string
	Priority    JobPriority
	MaxRetries  int
	ScheduleAt  *time.Time
	WorkspaceID *uuid.UUID
	Metadata    map[string]interface{}
}

// DefaultEnqueueOptions returns default enqueue options
func DefaultEnqueueOptions() EnqueueOptions {
	return EnqueueOptions{
		Queue:      QueueDefault,
		Priority:   PriorityNormal,
		MaxRetries: 3,
	}
}

// JobFilter contains options for filtering jobs
type JobFilter struct {
	WorkspaceID *uuid.UUID
	Queue       string
	Type        string
	Status      JobStatus
	Limit       int
}

// JobStats represents statistics about jobs
type JobStats struct {
	TotalJobs      int64            `json:"total_jobs"`
	PendingJobs    int64            `json:"pending_jobs"`
	ProcessingJobs int64            `json:"processing_jobs"`
	CompletedJobs  int64            `json:"completed_jobs"`
	FailedJobs     int64            `json:"failed_jobs"`
	JobsByQueue    map[string]int64 `json:"jobs_by_queue"`
	JobsByType     map[string]int64 `json:"jobs_by_type"`
}

// WorkerConfig contains configuration for job workers
type WorkerConfig struct {
	Queue        string
	Concurrency  int           // Number of concurrent workers
	PollInterval time.Duration // How often to poll for new jobs
	Timeout      time.Duration // Maximum time for job execution
}

// DefaultWorkerConfig returns default worker configuration
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Queue:        QueueDefault,
		Concurrency:  5,
		PollInterval: 1 * time.Second,
		Timeout:      5 * time.Minute,
	}
}
