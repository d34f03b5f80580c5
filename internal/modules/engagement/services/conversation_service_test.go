package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/apperr"
)

func newConversationFixture(t *testing.T) (*fixture, *ConversationService, *Ingested) {
	f := newFixture(t)
	f.connect(t, f.ws.ID, models.ChannelWhatsApp, "phone-number-id")
	got, err := NewIngestionService(f.db, f.guard, f.queue).Ingest(context.Background(), inbound("6281234", "hello"))
	require.NoError(t, err)
	svc := NewConversationService(
		repositories.NewConversationRepo(f.db),
		repositories.NewContactRepo(f.db),
		repositories.NewAgentRepo(f.db),
		f.guard,
		f.delivery,
	)
	return f, svc, got
}

func TestConversationService_SendMessageDelivers(t *testing.T) {
	f, svc, in := newConversationFixture(t)
	ctx := context.Background()

	msg, err := svc.SendMessage(ctx, f.ws.ID, in.ConversationID, &models.SendMessageRequest{Content: "we are open 9-5"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAssistant, msg.Role)
	require.NotNil(t, msg.ChannelMessageID)

	sent := f.sender.texts()
	require.Len(t, sent, 1)
	assert.Equal(t, "6281234", sent[0].Target.Recipient)
	assert.Equal(t, "token-phone-number-id", sent[0].Target.AccessToken)

	conversation, err := svc.Get(ctx, f.ws.ID, in.ConversationID)
	require.NoError(t, err)
	require.Len(t, conversation.Messages, 2)
	assert.Equal(t, "we are open 9-5", conversation.Messages[1].Content)
	require.NotNil(t, conversation.ContactName)
	assert.Equal(t, "Budi", *conversation.ContactName)
}

func TestConversationService_UserRoleIsNotDelivered(t *testing.T) {
	f, svc, in := newConversationFixture(t)

	_, err := svc.SendMessage(context.Background(), f.ws.ID, in.ConversationID, &models.SendMessageRequest{Content: "note", Role: models.RoleUser})
	require.NoError(t, err)
	assert.Empty(t, f.sender.texts())
}

func TestConversationService_DeliveryFailureIsRecorded(t *testing.T) {
	f, svc, in := newConversationFixture(t)
	f.sender.failFor["6281234"] = true

	msg, err := svc.SendMessage(context.Background(), f.ws.ID, in.ConversationID, &models.SendMessageRequest{Content: "hi"})
	require.NoError(t, err)
	assert.Nil(t, msg.ChannelMessageID)
	assert.Contains(t, msg.Metadata["error"], "unreachable")
}

func TestConversationService_MarkRead(t *testing.T) {
	f, svc, in := newConversationFixture(t)

	n, err := svc.MarkRead(context.Background(), f.ws.ID, in.ConversationID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = svc.MarkRead(context.Background(), f.ws.ID, in.ConversationID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestConversationService_Assign(t *testing.T) {
	f, svc, in := newConversationFixture(t)
	ctx := context.Background()
	mine := f.agent(t, &models.Agent{Name: "Sales", IsActive: true})
	other := f.otherWorkspace(t)
	foreign := f.agent(t, &models.Agent{WorkspaceID: other.ID, Name: "Spy", IsActive: true})

	_, err := svc.Assign(ctx, f.ws.ID, in.ConversationID, nil, &foreign.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.Assign(ctx, f.ws.ID, in.ConversationID, &other.OwnerID, nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.Update(ctx, f.ws.ID, in.ConversationID, &models.UpdateConversationRequest{AssignedUserID: models.Some(other.OwnerID)})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	unchanged, err := svc.Get(ctx, f.ws.ID, in.ConversationID)
	require.NoError(t, err)
	assert.Nil(t, unchanged.AssignedUserID)

	conversation, err := svc.Assign(ctx, f.ws.ID, in.ConversationID, &f.owner.ID, &mine.ID)
	require.NoError(t, err)
	require.NotNil(t, conversation.AgentID)
	assert.Equal(t, mine.ID, *conversation.AgentID)
	require.NotNil(t, conversation.AssignedUserID)
	assert.Equal(t, f.owner.ID, *conversation.AssignedUserID)
}

func TestConversationService_CrossWorkspace(t *testing.T) {
	f, svc, in := newConversationFixture(t)
	other := f.otherWorkspace(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, other.ID, in.ConversationID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.SendMessage(ctx, other.ID, in.ConversationID, &models.SendMessageRequest{Content: "x"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.ListMessages(ctx, other.ID, in.ConversationID, 0, 0)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, other.ID, in.ConversationID), apperr.ErrNotFound)

	list, err := svc.List(ctx, models.ConversationFilter{WorkspaceID: other.ID})
	require.NoError(t, err)
	assert.Empty(t, list)
}
