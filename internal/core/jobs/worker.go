package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrNoJobsAvailable is returned when no jobs are available
var ErrNoJobsAvailable = errors.New("no jobs available")

// Observer receives the outcome of every processed job. Used for metrics.
type Observer interface {
	ObserveJob(jobType string, status JobStatus, duration time.Duration)
}

// Worker processes jobs from a queue
type Worker struct {
	queue    *Queue
	config   WorkerConfig
	handlers map[string]JobHandler
	observer Observer
	mu       sync.RWMutex
	stopped  bool
	wg       sync.WaitGroup
}

// NewWorker creates a new job worker
func NewWorker(queue *Queue, config WorkerConfig) *Worker {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Minute
	}
	return &Worker{
		queue:    queue,
		config:   config,
		handlers: make(map[string]JobHandler),
	}
}

// WithObserver attaches an observer notified after each job.
func (w *Worker) WithObserver(o Observer) *Worker {
	w.observer = o
	return w
}

// RegisterHandler registers a job handler for a specific job type
func (w *Worker) RegisterHandler(handler JobHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[handler.GetType()] = handler
	log.Debug().Str("type", handler.GetType()).Str("queue", w.config.Queue).Msg("Registered job handler")
}

// Start starts the worker pool
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return fmt.Errorf("worker is stopped, cannot restart")
	}
	w.mu.Unlock()

	log.Info().
		Str("queue", w.config.Queue).
		Int("concurrency", w.config.Concurrency).
		Msg("Starting job worker")

	for i := 0; i < w.config.Concurrency; i++ {
		w.wg.Add(1)
		go w.runWorker(ctx, i+1)
	}

	return nil
}

// Stop gracefully stops the worker pool
func (w *Worker) Stop() {
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()

	log.Info().Str("queue", w.config.Queue).Msg("Stopping job worker")
	w.wg.Wait()
}

// Wait waits for all workers to finish
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) isStopped() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stopped
}

func (w *Worker) runWorker(ctx context.Context, workerID int) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if w.isStopped() {
				return
			}

			// Drain the queue before waiting for the next tick.
			for !w.isStopped() && ctx.Err() == nil {
				err := w.ProcessNext(ctx)
				if errors.Is(err, ErrNoJobsAvailable) {
					break
				}
				if err != nil {
					log.Warn().Err(err).Int("worker", workerID).Str("queue", w.config.Queue).Msg("Job worker error")
					break
				}
			}
		}
	}
}

// ProcessNext dequeues and runs a single job. Returns ErrNoJobsAvailable
// when the queue is empty. Handler failures are recorded on the job and do
// not surface as an error.
func (w *Worker) ProcessNext(ctx context.Context) error {
	job, err := w.queue.Dequeue(ctx, w.config.Queue)
	if err != nil {
		return err
	}
	if job == nil {
		return ErrNoJobsAvailable
	}

	logger := log.With().
		Str("job_id", job.ID.String()).
		Str("type", job.Type).
		Int("attempt", job.Attempts).
		Logger()

	w.mu.RLock()
	handler, exists := w.handlers[job.Type]
	w.mu.RUnlock()

	if !exists {
		logger.Error().Msg("No handler registered for job type")
		if markErr := w.queue.MarkFailed(ctx, job.ID, fmt.Errorf("no handler registered for job type: %s", job.Type)); markErr != nil {
			logger.Warn().Err(markErr).Msg("Failed to mark job as failed")
		}
		w.observe(job.Type, StatusFailed, 0)
		return nil
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.config.Timeout)
	defer cancel()

	startTime := time.Now()
	err = w.safeHandle(jobCtx, handler, job)
	duration := time.Since(startTime)

	if err != nil {
		logger.Error().Err(err).Dur("duration", duration).Msg("Job failed")
		if markErr := w.queue.MarkFailed(ctx, job.ID, err); markErr != nil {
			logger.Warn().Err(markErr).Msg("Failed to mark job as failed")
		}
		w.observe(job.Type, StatusFailed, duration)
		return nil
	}

	logger.Debug().Dur("duration", duration).Msg("Job completed")
	if err := w.queue.MarkCompleted(ctx, job.ID, nil); err != nil {
		logger.Warn().Err(err).Msg("Failed to mark job as completed")
	}
	w.observe(job.Type, StatusCompleted, duration)

	return nil
}

func (w *Worker) safeHandle(ctx context.Context, handler JobHandler, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job handler panic: %v", r)
		}
	}()
	return handler.Handle(ctx, job)
}

func (w *Worker) observe(jobType string, status JobStatus, d time.Duration) {
	if w.observer != nil {
		w.observer.ObserveJob(jobType, status, d)
	}
}

// WorkerPool manages multiple workers across different queues
type WorkerPool struct {
	workers []*Worker
	mu      sync.RWMutex
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool() *WorkerPool {
	return &WorkerPool{
		workers: make([]*Worker, 0),
	}
}

// AddWorker adds a worker to the pool
func (p *WorkerPool) AddWorker(worker *Worker) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.workers = append(p.workers, worker)
}

// Start starts all workers in the pool
func (p *WorkerPool) Start(ctx context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, worker := range p.workers {
		if err := worker.Start(ctx); err != nil {
			return fmt.Errorf("failed to start worker: %w", err)
		}
	}

	return nil
}

// Stop stops all workers in the pool
func (p *WorkerPool) Stop() {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var wg sync.WaitGroup
	for _, worker := range p.workers {
		wg.Add(1)
		go func(w *Worker) {
			defer wg.Done()
			w.Stop()
		}(worker)
	}

	wg.Wait()
}
