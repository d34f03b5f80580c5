package engagement

import (
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/analytics"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/auth"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/cache"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/email"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/export"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/llm"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/messaging"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/metrics"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/tenant"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/workflow"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/handlers"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/services"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/workers"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/config"
)

// Deps are the collaborators the module is built from. Cache, Sender, LLM
// and Email may be nil; the features that need them degrade.
type Deps struct {
	Config *config.Config
	GORM   *gorm.DB
	SQL    *sql.DB
	Plans  *config.Plans
	Cache  cache.Cache
	Sender messaging.Sender
	LLM    *llm.Service
	Email  *email.Service
}

// Module holds the engagement services and HTTP handlers.
type Module struct {
	cfg *config.Config

	Jobs          *jobs.Service
	Audit         *audit.Service
	Auth          *auth.Service
	Guard         *tenant.Guard
	Ingestion     *services.IngestionService
	AutoReply     *services.AutoReplyService
	Broadcasts    *services.BroadcastService
	Knowledge     *services.KnowledgeService
	Conversations *services.ConversationService

	authHandler         *auth.Handler
	healthHandler       *handlers.HealthHandler
	webhookHandler      *handlers.WebhookHandler
	workspaceHandler    *handlers.WorkspaceHandler
	agentHandler        *handlers.AgentHandler
	contactHandler      *handlers.ContactHandler
	dealHandler         *handlers.DealHandler
	conversationHandler *handlers.ConversationHandler
	flowHandler         *handlers.FlowHandler
	automationHandler   *handlers.AutomationHandler
	broadcastHandler    *handlers.BroadcastHandler
	knowledgeHandler    *handlers.KnowledgeHandler
	channelHandler      *handlers.ChannelHandler
	analyticsHandler    *handlers.AnalyticsHandler
	billingHandler      *handlers.BillingHandler
	settingsHandler     *handlers.SettingsHandler
	chatHandler         *handlers.ChatHandler
	jobHandler          *handlers.JobHandler
}

func New(d Deps) *Module {
	cfg := d.Config
	db := d.GORM

	// Repositories
	workspaceRepo := repositories.NewWorkspaceRepo(db)
	agentRepo := repositories.NewAgentRepo(db)
	contactRepo := repositories.NewContactRepo(db)
	dealRepo := repositories.NewDealRepo(db)
	conversationRepo := repositories.NewConversationRepo(db)
	flowRepo := repositories.NewFlowRepo(db)
	automationRepo := repositories.NewAutomationRepo(db)
	channelRepo := repositories.NewChannelRepo(db)
	billingRepo := repositories.NewBillingRepo(db)
	apiKeyRepo := repositories.NewAPIKeyRepo(db)

	// Core services
	jobService := jobs.NewService(db).WithObserver(metrics.JobObserver{})
	auditService := audit.NewService(db)
	guard := tenant.NewGuard(db)
	if d.Cache != nil {
		guard.WithCache(d.Cache)
	}
	authService := auth.NewService(db, auth.NewJWTService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL))
	var notifier services.Notifier
	if d.Email.Enabled() {
		authService.WithWelcomeNotifier(d.Email)
		notifier = d.Email
	}
	aggregator := analytics.NewAggregator(db)
	delivery := services.NewDelivery(channelRepo, d.Sender)
	queue := jobService.Queue()

	// Engagement services
	workspaceService := services.NewWorkspaceService(workspaceRepo, authService.Repository(), auditService, notifier)
	agentService := services.NewAgentService(agentRepo, d.LLM)
	contactService := services.NewContactService(contactRepo, export.NewService())
	dealService := services.NewDealService(dealRepo, contactRepo, guard, aggregator, auditService)
	conversationService := services.NewConversationService(conversationRepo, contactRepo, agentRepo, guard, delivery)
	flowService := services.NewFlowService(flowRepo)
	automationService := services.NewAutomationService(automationRepo, contactRepo)
	broadcastService := services.NewBroadcastService(db, queue, delivery)
	knowledgeService := services.NewKnowledgeService(db, queue)
	channelService := services.NewChannelService(channelRepo, guard, auditService)
	analyticsService := services.NewAnalyticsService(aggregator, agentRepo)
	billingService := services.NewBillingService(billingRepo, d.Plans)
	apiKeyService := services.NewAPIKeyService(apiKeyRepo)
	chatService := services.NewChatService(d.LLM)
	ingestionService := services.NewIngestionService(db, guard, queue)
	autoReplyService := services.NewAutoReplyService(conversationRepo, agentRepo, d.LLM, delivery, automationService, notifier)

	return &Module{
		cfg:           cfg,
		Jobs:          jobService,
		Audit:         auditService,
		Auth:          authService,
		Guard:         guard,
		Ingestion:     ingestionService,
		AutoReply:     autoReplyService,
		Broadcasts:    broadcastService,
		Knowledge:     knowledgeService,
		Conversations: conversationService,

		authHandler:         auth.NewHandler(authService),
		healthHandler:       handlers.NewHealthHandler(cfg.AppName, d.SQL),
		webhookHandler:      handlers.NewWebhookHandler(ingestionService, cfg.MetaVerifyToken, cfg.MetaAppSecret),
		workspaceHandler:    handlers.NewWorkspaceHandler(workspaceService),
		agentHandler:        handlers.NewAgentHandler(agentService),
		contactHandler:      handlers.NewContactHandler(contactService),
		dealHandler:         handlers.NewDealHandler(dealService),
		conversationHandler: handlers.NewConversationHandler(conversationService),
		flowHandler:         handlers.NewFlowHandler(flowService),
		automationHandler:   handlers.NewAutomationHandler(automationService),
		broadcastHandler:    handlers.NewBroadcastHandler(broadcastService),
		knowledgeHandler:    handlers.NewKnowledgeHandler(knowledgeService),
		channelHandler:      handlers.NewChannelHandler(channelService),
		analyticsHandler:    handlers.NewAnalyticsHandler(analyticsService),
		billingHandler:      handlers.NewBillingHandler(billingService),
		settingsHandler:     handlers.NewSettingsHandler(apiKeyService, auditService),
		jobHandler:          handlers.NewJobHandler(jobService),
		chatHandler:         handlers.NewChatHandler(chatService),
	}
}

// RegisterRoutes mounts every engagement route on r.
//
// Public: health, metrics, webhooks, auth and the plan catalogue.
// Authenticated: workspace management and the in-app assistant.
// Authenticated and workspace scoped (X-Workspace-Id): everything else.
func (m *Module) RegisterRoutes(r fiber.Router) {
	requireAuth := auth.AuthMiddleware(m.Auth)

	m.healthHandler.RegisterRoutes(r)
	m.webhookHandler.RegisterRoutes(r)
	m.authHandler.RegisterRoutes(r, requireAuth)
	m.billingHandler.RegisterPublicRoutes(r)

	// Groups without a prefix apply their middleware to every route
	// registered after them, so public routes must come first.
	authed := r.Group("", requireAuth)
	m.workspaceHandler.RegisterRoutes(authed)
	m.chatHandler.RegisterRoutes(authed)

	ws := authed.Group("", tenant.RequireWorkspace(m.Guard))
	m.billingHandler.RegisterRoutes(ws)
	m.agentHandler.RegisterRoutes(ws)
	m.contactHandler.RegisterRoutes(ws)
	m.dealHandler.RegisterRoutes(ws)
	m.conversationHandler.RegisterRoutes(ws)
	m.flowHandler.RegisterRoutes(ws)
	m.automationHandler.RegisterRoutes(ws)
	m.broadcastHandler.RegisterRoutes(ws)
	m.knowledgeHandler.RegisterRoutes(ws)
	m.channelHandler.RegisterRoutes(ws)
	m.analyticsHandler.RegisterRoutes(ws)
	m.settingsHandler.RegisterRoutes(ws)
	m.jobHandler.RegisterRoutes(ws)
}

// RegisterWorkers attaches the outbox workers to the job service.
func (m *Module) RegisterWorkers() {
	workers.Register(m.Jobs, workers.Config{
		Concurrency:  m.cfg.WorkerCount,
		PollInterval: time.Duration(m.cfg.WorkerPollSeconds) * time.Second,
	}, m.AutoReply, m.Broadcasts, m.Knowledge)
}

// Schedule registers the module's cron jobs on scheduler.
func (m *Module) Schedule(scheduler *workflow.Scheduler) error {
	return workers.Schedule(scheduler, m.Jobs, m.Broadcasts, m.Audit)
}
