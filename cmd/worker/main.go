package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/workflow"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/config"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/database"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/utils"
)

// worker consumes the outbox (message replies, broadcast delivery,
// knowledge processing) and runs the cron jobs. Run it alongside an api
// started with RUN_WORKERS=false.
func main() {
	cfg := config.LoadConfig()
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
	log.Info().Str("env", cfg.Env).Int("concurrency", cfg.WorkerCount).Msg("🚀 Starting worker")

	db := database.NewDB(cfg.DatabaseURL, false)
	defer db.Close()

	deps, err := engagement.BuildDeps(cfg, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize dependencies")
	}
	module := engagement.New(deps)
	module.RegisterWorkers()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := module.Jobs.StartWorkers(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start workers")
	}

	scheduler := workflow.NewScheduler()
	if err := module.Schedule(scheduler); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule jobs")
	}
	scheduler.Start()

	log.Info().Msg("✅ Worker is running. Press Ctrl+C to stop.")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("🛑 Shutting down worker...")
	scheduler.Stop()
	cancel()
	module.Jobs.StopWorkers()
	log.Info().Msg("👋 Goodbye!")
}
