package workers

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/workflow"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/services"
)

const (
	jobRetention       = 7 * 24 * time.Hour
	auditRetentionDays = 90
	cronTimeout        = time.Minute
	staleJobAfter      = time.Hour // twice the longest worker timeout
)

// Config controls the worker pool sizes.
type Config struct {
	Concurrency  int
	PollInterval time.Duration
}

// Register attaches one worker per queue to jobService.
func Register(jobService *jobs.Service, cfg Config, autoReply *services.AutoReplyService, broadcasts *services.BroadcastService, knowledge *services.KnowledgeService) {
	jobService.RegisterWorker(jobs.WorkerConfig{
		Queue:        jobs.QueueMessages,
		Concurrency:  cfg.Concurrency,
		PollInterval: cfg.PollInterval,
		Timeout:      2 * time.Minute,
	}, NewMessageIngestedHandler(autoReply))

	jobService.RegisterWorker(jobs.WorkerConfig{
		Queue:        jobs.QueueBroadcasts,
		Concurrency:  1,
		PollInterval: cfg.PollInterval,
		Timeout:      30 * time.Minute,
	}, NewBroadcastDispatchHandler(broadcasts))

	jobService.RegisterWorker(jobs.WorkerConfig{
		Queue:        jobs.QueueDefault,
		Concurrency:  cfg.Concurrency,
		PollInterval: cfg.PollInterval,
		Timeout:      5 * time.Minute,
	}, NewKnowledgeProcessHandler(knowledge))
}

// Schedule registers the periodic jobs: due broadcasts are promoted every
// minute, jobs orphaned by a dead worker are requeued every ten minutes,
// finished jobs and old audit logs are purged daily.
func Schedule(scheduler *workflow.Scheduler, jobService *jobs.Service, broadcasts *services.BroadcastService, auditService *audit.Service) error {
	if err := scheduler.AddJob("broadcasts.promote_due", "@every 1m", func() {
		ctx, cancel := context.WithTimeout(context.Background(), cronTimeout)
		defer cancel()
		n, err := broadcasts.PromoteDue(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to promote scheduled broadcasts")
			return
		}
		if n > 0 {
			log.Info().Int("count", n).Msg("Scheduled broadcasts started")
		}
	}); err != nil {
		return err
	}

	if err := scheduler.AddJob("jobs.reclaim_stale", "@every 10m", func() {
		ctx, cancel := context.WithTimeout(context.Background(), cronTimeout)
		defer cancel()
		n, err := jobService.ReclaimStale(ctx, staleJobAfter)
		if err != nil {
			log.Error().Err(err).Msg("Failed to reclaim stale jobs")
			return
		}
		if n > 0 {
			log.Warn().Int64("count", n).Msg("Requeued jobs abandoned by a worker")
		}
	}); err != nil {
		return err
	}

	if err := scheduler.AddJob("jobs.cleanup", "@daily", func() {
		ctx, cancel := context.WithTimeout(context.Background(), cronTimeout)
		defer cancel()
		n, err := jobService.Cleanup(ctx, jobRetention)
		if err != nil {
			log.Error().Err(err).Msg("Failed to clean up jobs")
			return
		}
		log.Info().Int64("deleted", n).Msg("Old jobs cleaned up")
	}); err != nil {
		return err
	}

	if auditService == nil {
		return nil
	}
	return scheduler.AddJob("audit.purge", "@daily", func() {
		ctx, cancel := context.WithTimeout(context.Background(), cronTimeout)
		defer cancel()
		n, err := auditService.DeleteOldLogs(ctx, auditRetentionDays)
		if err != nil {
			log.Error().Err(err).Msg("Failed to purge audit logs")
			return
		}
		log.Info().Int64("deleted", n).Msg("Old audit logs purged")
	})
}
