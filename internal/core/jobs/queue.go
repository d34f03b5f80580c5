package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Enqueuer writes jobs into the outbox. EnqueueTx joins the caller's
// transaction so the job commits or rolls back with the state change.
type Enqueuer interface {
	Enqueue(ctx context.Context, jobType string, payload interface{}, opts EnqueueOptions) (*Job, error)
	EnqueueTx(ctx context.Context, tx *gorm.DB, jobType string, payload interface{}, opts EnqueueOptions) (*Job, error)
}

var (
	// ErrJobNotCancellable is returned by Cancel when the job already started.
	ErrJobNotCancellable = errors.New("job not found or not in cancellable state")
	// ErrJobNotFound is returned by GetJob for an unknown id.
	ErrJobNotFound = errors.New("job not found")
)

// Queue manages job queue operations
type Queue struct {
	db  *gorm.DB
	now func() time.Time
}

// NewQueue creates a new job queue
func NewQueue(db *gorm.DB) *Queue {
	return &Queue{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Enqueue adds a new job to the queue
func (q *Queue) Enqueue(ctx context.Context, jobType string, payload interface{}, opts EnqueueOptions) (*Job, error) {
	return q.EnqueueTx(ctx, q.db, jobType, payload, opts)
}

// EnqueueTx adds a new job using tx
func (q *Queue) EnqueueTx(ctx context.Context, tx *gorm.DB, jobType string, payload interface{}, opts EnqueueOptions) (*Job, error) {
	job, err := newJob(jobType, payload, opts)
	if err != nil {
		return nil, err
	}

	if err := tx.WithContext(ctx).Create(job).Error; err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	return job, nil
}

func newJob(jobType string, payload interface{}, opts EnqueueOptions) (*Job, error) {
	if opts.Queue == "" {
		opts.Queue = QueueDefault
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize payload: %w", err)
	}

	var metadataJSON datatypes.JSON
	if opts.Metadata != nil {
		metadataBytes, err := json.Marshal(opts.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize metadata: %w", err)
		}
		metadataJSON = metadataBytes
	}

	return &Job{
		WorkspaceID: opts.WorkspaceID,
		Queue:       opts.Queue,
		Type:        jobType,
		Payload:     payloadJSON,
		Status:      StatusPending,
		Priority:    opts.Priority,
		MaxRetries:  opts.MaxRetries,
		ScheduledAt: opts.ScheduleAt,
		Metadata:    metadataJSON,
	}, nil
}

// Dequeue claims the next runnable job from the queue. Returns nil, nil when
// the queue is empty.
func (q *Queue) Dequeue(ctx context.Context, queueName string) (*Job, error) {
	var job Job

	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := q.now()
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("queue = ? AND status IN ?", queueName, runnableStatuses).
			Where("scheduled_at IS NULL OR scheduled_at <= ?", now).
			Order("priority DESC, created_at ASC").
			First(&job).Error
		if err != nil {
			return err
		}

		// Guarded update: another worker may have claimed the row between
		// the select and here on databases without row locks.
		res := tx.Model(&Job{}).
			Where("id = ? AND status IN ?", job.ID, runnableStatuses).
			Updates(map[string]interface{}{
				"status":     StatusProcessing,
				"started_at": now,
				"attempts":   gorm.Expr("attempts + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		job.Status = StatusProcessing
		job.StartedAt = &now
		job.Attempts++
		return nil
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue job: %w", err)
	}

	return &job, nil
}

// MarkCompleted marks a job as completed
func (q *Queue) MarkCompleted(ctx context.Context, jobID uuid.UUID, result interface{}) error {
	updates := map[string]interface{}{
		"status":       StatusCompleted,
		"completed_at": q.now(),
		"error":        "",
	}

	if result != nil {
		resultJSON, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to serialize result: %w", err)
		}
		updates["result"] = datatypes.JSON(resultJSON)
	}

	return q.db.WithContext(ctx).Model(&Job{}).Where("id = ?", jobID).Updates(updates).Error
}

// MarkFailed records a failure and either reschedules the job with
// exponential backoff or marks it failed once retries are exhausted.
func (q *Queue) MarkFailed(ctx context.Context, jobID uuid.UUID, jobErr error) error {
	var job Job
	if err := q.db.WithContext(ctx).First(&job, "id = ?", jobID).Error; err != nil {
		return fmt.Errorf("failed to find job: %w", err)
	}

	now := q.now()
	updates := map[string]interface{}{
		"error":     jobErr.Error(),
		"failed_at": now,
	}

	if job.Attempts < job.MaxRetries {
		scheduleAt := now.Add(time.Duration(calculateBackoff(job.Attempts)) * time.Second)
		updates["status"] = StatusRetrying
		updates["scheduled_at"] = scheduleAt
	} else {
		updates["status"] = StatusFailed
	}

	return q.db.WithContext(ctx).Model(&Job{}).Where("id = ?", jobID).Updates(updates).Error
}

// Cancel cancels a pending job
func (q *Queue) Cancel(ctx context.Context, jobID uuid.UUID) error {
	result := q.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND status IN ?", jobID, runnableStatuses).
		Update("status", StatusCancelled)

	if result.Error != nil {
		return fmt.Errorf("failed to cancel job: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrJobNotCancellable
	}

	return nil
}

// GetJob retrieves a job by ID
func (q *Queue) GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	var job Job
	err := q.db.WithContext(ctx).First(&job, "id = ?", jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// ListJobs lists jobs with optional filters
func (q *Queue) ListJobs(ctx context.Context, filter JobFilter) ([]Job, error) {
	query := q.db.WithContext(ctx).Model(&Job{})

	if filter.WorkspaceID != nil {
		query = query.Where("workspace_id = ?", *filter.WorkspaceID)
	}
	if filter.Queue != "" {
		query = query.Where("queue = ?", filter.Queue)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var jobs []Job
	if err := query.Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}

// GetStats retrieves statistics about jobs
func (q *Queue) GetStats(ctx context.Context, workspaceID *uuid.UUID) (*JobStats, error) {
	stats := &JobStats{
		JobsByQueue: make(map[string]int64),
		JobsByType:  make(map[string]int64),
	}

	base := func() *gorm.DB {
		query := q.db.WithContext(ctx).Model(&Job{})
		if workspaceID != nil {
			query = query.Where("workspace_id = ?", *workspaceID)
		}
		return query
	}

	var byStatus []struct {
		Status JobStatus
		Count  int64
	}
	if err := base().Select("status, COUNT(*) AS count").Group("status").Scan(&byStatus).Error; err != nil {
		return nil, fmt.Errorf("failed to get job stats: %w", err)
	}
	for _, s := range byStatus {
		stats.TotalJobs += s.Count
		switch s.Status {
		case StatusPending, StatusRetrying:
			stats.PendingJobs += s.Count
		case StatusProcessing:
			stats.ProcessingJobs += s.Count
		case StatusCompleted:
			stats.CompletedJobs += s.Count
		case StatusFailed:
			stats.FailedJobs += s.Count
		}
	}

	var byQueue []struct {
		Queue string
		Count int64
	}
	if err := base().Select("queue, COUNT(*) AS count").Group("queue").Scan(&byQueue).Error; err != nil {
		return nil, fmt.Errorf("failed to get job stats: %w", err)
	}
	for _, qs := range byQueue {
		stats.JobsByQueue[qs.Queue] = qs.Count
	}

	var byType []struct {
		Type  string
		Count int64
	}
	if err := base().Select("type, COUNT(*) AS count").Group("type").Scan(&byType).Error; err != nil {
		return nil, fmt.Errorf("failed to get job stats: %w", err)
	}
	for _, ts := range byType {
		stats.JobsByType[ts.Type] = ts.Count
	}

	return stats, nil
}

// DeleteOldJobs deletes finished jobs last touched before now-olderThan
func (q *Queue) DeleteOldJobs(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := q.now().Add(-olderThan)

	result := q.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?", []JobStatus{StatusCompleted, StatusFailed, StatusCancelled}, cutoff).
		Delete(&Job{})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete old jobs: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// ReclaimStale requeues jobs left in processing since before olderThan,
// which happens when a worker dies mid-job. Jobs with no attempts left are
// failed instead. Returns the number of jobs touched.
func (q *Queue) ReclaimStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	now := q.now()
	cutoff := now.Add(-olderThan)
	var touched int64

	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stale := func() *gorm.DB {
			return tx.Model(&Job{}).Where("status = ? AND started_at < ?", StatusProcessing, cutoff)
		}

		res := stale().Where("attempts < max_retries").Updates(map[string]interface{}{
			"status":       StatusRetrying,
			"scheduled_at": now,
			"error":        "worker stopped before the job finished",
		})
		if res.Error != nil {
			return res.Error
		}
		touched = res.RowsAffected

		res = stale().Updates(map[string]interface{}{
			"status":    StatusFailed,
			"failed_at": now,
			"error":     "worker stopped before the job finished",
		})
		if res.Error != nil {
			return res.Error
		}
		touched += res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to reclaim stale jobs: %w", err)
	}
	return touched, nil
}

// calculateBackoff calculates exponential backoff time in seconds
func calculateBackoff(attempt int) int {
	if attempt > 12 {
		return 3600
	}
	backoff := 1 << attempt
	if backoff > 3600 {
		backoff = 3600
	}
	return backoff
}
