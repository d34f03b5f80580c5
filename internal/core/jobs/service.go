package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service provides high-level job queue functionality
type Service struct {
	queue      *Queue
	workerPool *WorkerPool
	observer   Observer
}

// NewService creates a new job service
func NewService(db *gorm.DB) *Service {
	return &Service{
		queue:      NewQueue(db),
		workerPool: NewWorkerPool(),
	}
}

// Queue exposes the underlying queue, which satisfies Enqueuer.
func (s *Service) Queue() *Queue {
	return s.queue
}

// WithObserver sets the observer attached to workers registered afterwards.
func (s *Service) WithObserver(o Observer) *Service {
	s.observer = o
	return s
}

// Enqueue adds a new job to the queue
func (s *Service) Enqueue(ctx context.Context, jobType string, payload interface{}, opts ...EnqueueOptions) (*Job, error) {
	options := DefaultEnqueueOptions()
	if len(opts) > 0 {
		options = opts[0]
	}

	return s.queue.Enqueue(ctx, jobType, payload, options)
}

// Cancel cancels a pending job
func (s *Service) Cancel(ctx context.Context, jobID uuid.UUID) error {
	return s.queue.Cancel(ctx, jobID)
}

// GetJob retrieves a job by ID
func (s *Service) GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	return s.queue.GetJob(ctx, jobID)
}

// ListJobs lists jobs with filters
func (s *Service) ListJobs(ctx context.Context, filter JobFilter) ([]Job, error) {
	return s.queue.ListJobs(ctx, filter)
}

// GetStats retrieves job statistics
func (s *Service) GetStats(ctx context.Context, workspaceID *uuid.UUID) (*JobStats, error) {
	return s.queue.GetStats(ctx, workspaceID)
}

// RegisterWorker creates and registers a worker for a queue
func (s *Service) RegisterWorker(config WorkerConfig, handlers ...JobHandler) *Worker {
	worker := NewWorker(s.queue, config)
	if s.observer != nil {
		worker.WithObserver(s.observer)
	}

	for _, handler := range handlers {
		worker.RegisterHandler(handler)
	}

	s.workerPool.AddWorker(worker)
	return worker
}

// StartWorkers starts all registered workers
func (s *Service) StartWorkers(ctx context.Context) error {
	return s.workerPool.Start(ctx)
}

// StopWorkers stops all workers
func (s *Service) StopWorkers() {
	s.workerPool.Stop()
}

// ReclaimStale requeues jobs stuck in processing for longer than olderThan.
func (s *Service) ReclaimStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.queue.ReclaimStale(ctx, olderThan)
}

// Cleanup deletes old completed/failed jobs
func (s *Service) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.queue.DeleteOldJobs(ctx, olderThan)
}
