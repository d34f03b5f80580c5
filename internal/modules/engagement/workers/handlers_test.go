package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/llm"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/messaging"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/tenant"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/workflow"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/services"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/testutil"
)

type echoSender struct{ sent []string }

func (s *echoSender) SendText(_ context.Context, _ messaging.Target, text string) (string, error) {
	s.sent = append(s.sent, text)
	return "wamid.out", nil
}

func (s *echoSender) SendTemplate(ctx context.Context, t messaging.Target, name, _ string) (string, error) {
	return s.SendText(ctx, t, name)
}

type cannedProvider struct{}

func (cannedProvider) Complete(context.Context, llm.Request) (*llm.Response, error) {
	return &llm.Response{Content: "Thanks for reaching out!", TotalTokens: 5}, nil
}

func (cannedProvider) Name() string { return "canned" }

type pipeline struct {
	db         *gorm.DB
	workspace  *models.Workspace
	jobs       *jobs.Service
	sender     *echoSender
	autoReply  *services.AutoReplyService
	ingestion  *services.IngestionService
	broadcasts *services.BroadcastService
	knowledge  *services.KnowledgeService
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com")
	ws := testutil.CreateWorkspace(t, db, owner, "acme")
	externalID, token := "phone-number-id", "token"
	require.NoError(t, db.Create(&models.Channel{
		WorkspaceID: ws.ID,
		ChannelType: models.ChannelWhatsApp,
		Name:        "WhatsApp",
		ExternalID:  &externalID,
		AccessToken: &token,
		Status:      models.ChannelStatusConnected,
		IsActive:    true,
	}).Error)
	require.NoError(t, db.Create(&models.Agent{WorkspaceID: ws.ID, Name: "Sales", Model: models.DefaultAgentModel, IsActive: true}).Error)

	jobService := jobs.NewService(db)
	queue := jobService.Queue()
	sender := &echoSender{}
	delivery := services.NewDelivery(repositories.NewChannelRepo(db), sender)
	autoReply := services.NewAutoReplyService(
		repositories.NewConversationRepo(db),
		repositories.NewAgentRepo(db),
		llm.NewServiceWithProvider(cannedProvider{}),
		delivery,
		nil,
		nil,
	)
	p := &pipeline{
		db:         db,
		workspace:  ws,
		jobs:       jobService,
		sender:     sender,
		autoReply:  autoReply,
		ingestion:  services.NewIngestionService(db, tenant.NewGuard(db), queue),
		broadcasts: services.NewBroadcastService(db, queue, delivery),
		knowledge:  services.NewKnowledgeService(db, queue),
	}
	Register(jobService, Config{Concurrency: 1, PollInterval: 10 * time.Millisecond}, autoReply, p.broadcasts, p.knowledge)
	return p
}

// drain runs every job currently runnable on queue with a fresh worker.
func (p *pipeline) drain(t *testing.T, queue string, handler jobs.JobHandler) {
	t.Helper()
	w := jobs.NewWorker(p.jobs.Queue(), jobs.WorkerConfig{Queue: queue})
	w.RegisterHandler(handler)
	for {
		err := w.ProcessNext(context.Background())
		if errors.Is(err, jobs.ErrNoJobsAvailable) {
			return
		}
		require.NoError(t, err)
	}
}

func (p *pipeline) status(t *testing.T, jobType string) jobs.JobStatus {
	t.Helper()
	list, err := p.jobs.ListJobs(context.Background(), jobs.JobFilter{Type: jobType})
	require.NoError(t, err)
	require.Len(t, list, 1)
	return list[0].Status
}

func TestMessageIngestedHandler_RepliesThroughQueue(t *testing.T) {
	p := newPipeline(t)

	in, err := p.ingestion.Ingest(context.Background(), messaging.InboundMessage{
		ChannelType: "whatsapp",
		ExternalID:  "phone-number-id",
		SenderID:    "6281234",
		Text:        "is this shop open?",
	})
	require.NoError(t, err)

	p.drain(t, jobs.QueueMessages, NewMessageIngestedHandler(p.autoReply))

	assert.Equal(t, jobs.StatusCompleted, p.status(t, jobs.TypeMessageIngested))
	assert.Equal(t, []string{"Thanks for reaching out!"}, p.sender.sent)

	msgs, err := repositories.NewConversationRepo(p.db).ListMessages(context.Background(), in.ConversationID, 0, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
}

func TestBroadcastDispatchHandler_SendsThroughQueue(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	waID := "6285555"
	require.NoError(t, repositories.NewContactRepo(p.db).Create(ctx, &models.Contact{WorkspaceID: p.workspace.ID, WhatsAppID: &waID}))

	b, err := p.broadcasts.Create(ctx, p.workspace.ID, &models.CreateBroadcastRequest{
		Name:           "launch",
		Channel:        models.ChannelWhatsApp,
		MessageContent: "We just launched!",
	})
	require.NoError(t, err)
	_, err = p.broadcasts.Send(ctx, p.workspace.ID, b.ID)
	require.NoError(t, err)

	p.drain(t, jobs.QueueBroadcasts, NewBroadcastDispatchHandler(p.broadcasts))

	assert.Equal(t, jobs.StatusCompleted, p.status(t, jobs.TypeBroadcastDispatch))
	got, err := p.broadcasts.Get(ctx, p.workspace.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BroadcastSent, got.Status)
	assert.Equal(t, 1, got.SentCount)
}

func TestKnowledgeProcessHandler_CompletesSource(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	source, err := p.knowledge.CreateText(ctx, p.workspace.ID, &models.KnowledgeTextRequest{
		Name:        "faq",
		TextContent: "We ship anywhere in Indonesia within three business days.",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProcessingPending, source.Status)

	p.drain(t, jobs.QueueDefault, NewKnowledgeProcessHandler(p.knowledge))

	got, err := p.knowledge.Get(ctx, p.workspace.ID, source.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProcessingCompleted, got.Status)
	assert.Positive(t, got.TokenCount)
	assert.Equal(t, 1, got.ChunkCount)
	assert.NotNil(t, got.LastSyncedAt)
}

func TestDecode_InvalidPayload(t *testing.T) {
	job := &jobs.Job{Type: jobs.TypeBroadcastDispatch, Payload: []byte(`{"broadcast_id": 12}`)}
	var p services.BroadcastDispatchPayload

	err := decode(job, &p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid broadcast.dispatch payload")

	h := NewBroadcastDispatchHandler(nil)
	assert.Equal(t, jobs.TypeBroadcastDispatch, h.GetType())
	assert.Error(t, h.Handle(context.Background(), job))
}

func TestSchedule_RegistersPeriodicJobs(t *testing.T) {
	p := newPipeline(t)
	scheduler := workflow.NewScheduler()

	require.NoError(t, Schedule(scheduler, p.jobs, p.broadcasts, nil))
	assert.ElementsMatch(t, []string{"broadcasts.promote_due", "jobs.reclaim_stale", "jobs.cleanup"}, scheduler.Names())
}
