package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/auth"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/llm"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/messaging"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/tenant"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/testutil"
)

type sentText struct {
	Target messaging.Target
	Text   string
}

// fakeSender records outbound messages. Recipients listed in failFor are
// rejected.
type fakeSender struct {
	mu      sync.Mutex
	sent    []sentText
	failFor map[string]bool
}

func (s *fakeSender) SendText(_ context.Context, t messaging.Target, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor[t.Recipient] {
		return "", fmt.Errorf("recipient %s unreachable", t.Recipient)
	}
	s.sent = append(s.sent, sentText{Target: t, Text: text})
	return fmt.Sprintf("wamid.%d", len(s.sent)), nil
}

func (s *fakeSender) SendTemplate(ctx context.Context, t messaging.Target, name, _ string) (string, error) {
	return s.SendText(ctx, t, name)
}

func (s *fakeSender) texts() []sentText {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentText(nil), s.sent...)
}

type fakeProvider struct {
	resp  *llm.Response
	err   error
	calls int
	last  llm.Request
}

func (p *fakeProvider) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	p.calls++
	p.last = req
	return p.resp, p.err
}

func (p *fakeProvider) Name() string { return "fake" }

type escalation struct {
	To, ConversationID, Message string
}

type fakeNotifier struct {
	invites     []string
	escalations []escalation
}

func (n *fakeNotifier) SendInviteEmail(_ context.Context, to, _, _ string) error {
	n.invites = append(n.invites, to)
	return nil
}

func (n *fakeNotifier) SendEscalationNotification(_ context.Context, to, conversationID, customerMessage string) error {
	n.escalations = append(n.escalations, escalation{To: to, ConversationID: conversationID, Message: customerMessage})
	return nil
}

// fixture is one workspace with its owner on a fresh database.
type fixture struct {
	db       *gorm.DB
	owner    *auth.User
	ws       *models.Workspace
	queue    *jobs.Queue
	guard    *tenant.Guard
	sender   *fakeSender
	delivery *Delivery
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com")
	sender := &fakeSender{failFor: map[string]bool{}}
	return &fixture{
		db:       db,
		owner:    owner,
		ws:       testutil.CreateWorkspace(t, db, owner, "acme"),
		queue:    jobs.NewQueue(db),
		guard:    tenant.NewGuard(db),
		sender:   sender,
		delivery: NewDelivery(repositories.NewChannelRepo(db), sender),
	}
}

// otherWorkspace creates a second tenant with its own owner.
func (f *fixture) otherWorkspace(t *testing.T) *models.Workspace {
	t.Helper()
	other := testutil.CreateUser(t, f.db, "other-"+uuid.NewString()[:6]+"@example.com")
	return testutil.CreateWorkspace(t, f.db, other, "globex")
}

func (f *fixture) connect(t *testing.T, workspaceID uuid.UUID, channelType models.ChannelType, externalID string) *models.Channel {
	t.Helper()
	token := "token-" + externalID
	channel := &models.Channel{
		WorkspaceID: workspaceID,
		ChannelType: channelType,
		Name:        string(channelType),
		ExternalID:  &externalID,
		AccessToken: &token,
		Status:      models.ChannelStatusConnected,
		IsActive:    true,
	}
	require.NoError(t, f.db.Create(channel).Error)
	return channel
}

func (f *fixture) contact(t *testing.T, c *models.Contact) *models.Contact {
	t.Helper()
	c.WorkspaceID = f.ws.ID
	require.NoError(t, repositories.NewContactRepo(f.db).Create(context.Background(), c))
	return c
}

func (f *fixture) agent(t *testing.T, a *models.Agent) *models.Agent {
	t.Helper()
	if a.WorkspaceID == uuid.Nil {
		a.WorkspaceID = f.ws.ID
	}
	if a.Model == "" {
		a.Model = models.DefaultAgentModel
	}
	require.NoError(t, f.db.Create(a).Error)
	return a
}

func (f *fixture) jobsOfType(t *testing.T, jobType string) []jobs.Job {
	t.Helper()
	list, err := f.queue.ListJobs(context.Background(), jobs.JobFilter{Type: jobType})
	require.NoError(t, err)
	return list
}

func (f *fixture) messages(t *testing.T, conversationID uuid.UUID) []models.Message {
	t.Helper()
	list, err := repositories.NewConversationRepo(f.db).ListMessages(context.Background(), conversationID, 0, 0)
	require.NoError(t, err)
	return list
}

func ptr[T any](v T) *T { return &v }

// tick returns a clock that advances by step on every call.
func tick(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(step)
		return now
	}
}
