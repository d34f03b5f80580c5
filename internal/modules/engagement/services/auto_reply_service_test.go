package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/llm"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/workflow"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
)

type replyHarness struct {
	*fixture
	provider *fakeProvider
	notifier *fakeNotifier
	svc      *AutoReplyService
}

func newReplyHarness(t *testing.T) *replyHarness {
	f := newFixture(t)
	f.connect(t, f.ws.ID, models.ChannelWhatsApp, "phone-number-id")
	provider := &fakeProvider{resp: &llm.Response{Content: "Hi, how can we help?", TotalTokens: 42}}
	notifier := &fakeNotifier{}
	svc := NewAutoReplyService(
		repositories.NewConversationRepo(f.db),
		repositories.NewAgentRepo(f.db),
		llm.NewServiceWithProvider(provider),
		f.delivery,
		NewAutomationService(repositories.NewAutomationRepo(f.db), repositories.NewContactRepo(f.db)),
		notifier,
	)
	return &replyHarness{fixture: f, provider: provider, notifier: notifier, svc: svc}
}

// receive ingests text from a fixed sender and returns the job payload.
func (h *replyHarness) receive(t *testing.T, text string) MessageIngestedPayload {
	t.Helper()
	got, err := NewIngestionService(h.db, h.guard, h.queue).Ingest(context.Background(), inbound("6281234", text))
	require.NoError(t, err)
	return MessageIngestedPayload{
		WorkspaceID:    got.WorkspaceID,
		ConversationID: got.ConversationID,
		ContactID:      got.ContactID,
		MessageID:      got.MessageID,
		Channel:        string(models.ChannelWhatsApp),
		Text:           text,
	}
}

func TestAutoReply_RepliesAndDelivers(t *testing.T) {
	h := newReplyHarness(t)
	h.agent(t, &models.Agent{Name: "Sales", SystemPrompt: ptr("You sell shoes."), IsActive: true})
	p := h.receive(t, "do you have size 42?")

	outcome, err := h.svc.HandleIngested(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, OutcomeReplied, outcome)

	require.Equal(t, 1, h.provider.calls)
	assert.Equal(t, "You sell shoes.", h.provider.last.SystemPrompt)
	require.NotEmpty(t, h.provider.last.Messages)
	assert.Equal(t, "do you have size 42?", h.provider.last.Messages[len(h.provider.last.Messages)-1].Content)

	sent := h.sender.texts()
	require.Len(t, sent, 1)
	assert.Equal(t, "6281234", sent[0].Target.Recipient)
	assert.Equal(t, "phone-number-id", sent[0].Target.ExternalID)
	assert.Equal(t, "Hi, how can we help?", sent[0].Text)

	msgs := h.messages(t, p.ConversationID)
	require.Len(t, msgs, 2)
	reply := msgs[1]
	assert.Equal(t, models.RoleAssistant, reply.Role)
	assert.Equal(t, "Hi, how can we help?", reply.Content)
	assert.True(t, reply.IsRead)
	require.NotNil(t, reply.ChannelMessageID)
	assert.Equal(t, "wamid.1", *reply.ChannelMessageID)
	assert.True(t, reply.CreatedAt.After(msgs[0].CreatedAt))
}

func TestAutoReply_DeliveryFailureKeepsReply(t *testing.T) {
	h := newReplyHarness(t)
	h.agent(t, &models.Agent{Name: "Sales", IsActive: true})
	h.sender.failFor["6281234"] = true
	p := h.receive(t, "hello")

	outcome, err := h.svc.HandleIngested(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, OutcomeReplied, outcome)

	msgs := h.messages(t, p.ConversationID)
	require.Len(t, msgs, 2)
	assert.Nil(t, msgs[1].ChannelMessageID)
	assert.Contains(t, msgs[1].Metadata["error"], "delivery failed")
}

func TestAutoReply_EscalatesOnKeyword(t *testing.T) {
	h := newReplyHarness(t)
	h.agent(t, &models.Agent{
		Name:               "Support",
		IsActive:           true,
		EscalationEnabled:  true,
		EscalationKeywords: datatypes.JSONSlice[string]{"refund"},
		EscalationEmail:    ptr("lead@example.com"),
	})
	p := h.receive(t, "I want a REFUND now")

	outcome, err := h.svc.HandleIngested(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, OutcomeEscalated, outcome)
	assert.Zero(t, h.provider.calls)
	assert.Empty(t, h.sender.texts())

	conversation, err := repositories.NewConversationRepo(h.db).GetByID(context.Background(), h.ws.ID, p.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, models.ConversationPending, conversation.Status)
	assert.False(t, conversation.IsAIEnabled)

	require.Len(t, h.notifier.escalations, 1)
	assert.Equal(t, "lead@example.com", h.notifier.escalations[0].To)
	assert.Equal(t, p.ConversationID.String(), h.notifier.escalations[0].ConversationID)

	// AI stays off for the rest of the conversation
	next := h.receive(t, "hello?")
	outcome, err = h.svc.HandleIngested(context.Background(), next)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.Equal(t, p.ConversationID, next.ConversationID)
}

func TestAutoReply_Skips(t *testing.T) {
	t.Run("no active agent", func(t *testing.T) {
		h := newReplyHarness(t)
		p := h.receive(t, "hello")

		outcome, err := h.svc.HandleIngested(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, OutcomeSkipped, outcome)
		assert.Len(t, h.messages(t, p.ConversationID), 1)
	})

	t.Run("ai disabled on conversation", func(t *testing.T) {
		h := newReplyHarness(t)
		h.agent(t, &models.Agent{Name: "Sales", IsActive: true})
		p := h.receive(t, "hello")
		_, err := repositories.NewConversationRepo(h.db).Update(context.Background(), h.ws.ID, p.ConversationID,
			models.Fields{"is_ai_enabled": false})
		require.NoError(t, err)

		outcome, err := h.svc.HandleIngested(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, OutcomeSkipped, outcome)
		assert.Zero(t, h.provider.calls)
	})

	t.Run("llm not configured", func(t *testing.T) {
		h := newReplyHarness(t)
		h.svc.llm = llm.NewService("", "")
		h.agent(t, &models.Agent{Name: "Sales", IsActive: true})
		p := h.receive(t, "hello")

		outcome, err := h.svc.HandleIngested(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, OutcomeSkipped, outcome)
		assert.Empty(t, h.sender.texts())
	})

	t.Run("conversation gone", func(t *testing.T) {
		h := newReplyHarness(t)
		p := h.receive(t, "hello")
		require.NoError(t, repositories.NewConversationRepo(h.db).Delete(context.Background(), h.ws.ID, p.ConversationID))

		outcome, err := h.svc.HandleIngested(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, OutcomeSkipped, outcome)
	})
}

func TestAutoReply_ProviderErrorSurfaces(t *testing.T) {
	h := newReplyHarness(t)
	h.provider.resp = nil
	h.provider.err = errors.New("rate limited")
	h.agent(t, &models.Agent{Name: "Sales", IsActive: true})
	p := h.receive(t, "hello")

	_, err := h.svc.HandleIngested(context.Background(), p)
	require.Error(t, err)
	assert.Len(t, h.messages(t, p.ConversationID), 1)
}

func TestAutoReply_RunsMessageReceivedAutomations(t *testing.T) {
	h := newReplyHarness(t)
	automation := &models.Automation{
		WorkspaceID: h.ws.ID,
		Name:        "tag pricing questions",
		TriggerType: models.TriggerMessageReceived,
		Status:      models.AutomationActive,
		Conditions:  datatypes.JSONSlice[workflow.Condition]{{Field: "text", Operator: "contains", Value: "price"}},
		Actions:     datatypes.JSONSlice[workflow.Action]{{Type: ActionAddTag, Config: map[string]interface{}{"tag": "pricing"}}},
	}
	require.NoError(t, h.db.Create(automation).Error)
	p := h.receive(t, "what is the price?")

	_, err := h.svc.HandleIngested(context.Background(), p)
	require.NoError(t, err)

	contact, err := repositories.NewContactRepo(h.db).GetByID(context.Background(), h.ws.ID, p.ContactID)
	require.NoError(t, err)
	assert.Contains(t, []string(contact.Tags), "pricing")

	var logs []models.AutomationLog
	require.NoError(t, h.db.Where("automation_id = ?", automation.ID).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, models.LogSuccess, logs[0].Status)
}
