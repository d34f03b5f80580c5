package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/metrics"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/workflow"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/config"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/database"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/utils"

	_ "github.com/MuhamadAgungGumelar/engagement-saas-be/docs"
)

// @title ReficulBot API
// @version 1.0
// @description Multi-tenant customer engagement API: AI agents, inbox, CRM, flows, broadcasts and analytics
// @termsOfService http://swagger.io/terms/
// @contact.name API Support
// @contact.email support@reficulbot.com
// @license.name MIT
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load config
	cfg := config.LoadConfig()
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
	log.Info().Str("env", cfg.Env).Str("port", cfg.Port).Msg("🚀 Starting api")

	// Init database
	db := database.NewDB(cfg.DatabaseURL, !cfg.IsProduction())
	defer db.Close()

	deps, err := engagement.BuildDeps(cfg, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize dependencies")
	}
	module := engagement.New(deps)

	// Init Fiber app
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName + " API",
		ErrorHandler: utils.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(utils.RequestLogger())
	app.Use(metrics.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Workspace-Id",
		AllowCredentials: true,
	}))

	// Swagger
	app.Get("/swagger/*", swagger.HandlerDefault)

	module.RegisterRoutes(app)

	// Workers run in-process unless a dedicated worker binary handles them.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var scheduler *workflow.Scheduler
	if cfg.RunWorkers {
		module.RegisterWorkers()
		if err := module.Jobs.StartWorkers(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start workers")
		}
		scheduler = workflow.NewScheduler()
		if err := module.Schedule(scheduler); err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule jobs")
		}
		scheduler.Start()
	}

	go func() {
		log.Info().Msgf("✅ api running at :%s", cfg.Port)
		log.Info().Msgf("📄 Swagger UI: http://localhost:%s/swagger/", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("Server stopped")
		}
	}()

	// Wait for shutdown signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("🛑 Shutting down api...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Warn().Err(err).Msg("HTTP shutdown incomplete")
	}
	cancel()
	if scheduler != nil {
		scheduler.Stop()
	}
	if cfg.RunWorkers {
		module.Jobs.StopWorkers()
	}
	log.Info().Msg("👋 Goodbye!")
}
