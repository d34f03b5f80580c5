package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/messaging"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
)

func inbound(sender, text string) messaging.InboundMessage {
	return messaging.InboundMessage{
		ChannelType: "whatsapp",
		ExternalID:  "phone-number-id",
		SenderID:    sender,
		SenderName:  "Budi",
		MessageID:   "wamid.in." + text,
		Text:        text,
	}
}

func TestIngest_CreatesContactConversationAndJob(t *testing.T) {
	f := newFixture(t)
	f.connect(t, f.ws.ID, models.ChannelWhatsApp, "phone-number-id")
	svc := NewIngestionService(f.db, f.guard, f.queue)

	got, err := svc.Ingest(context.Background(), inbound("6281234", "halo"))
	require.NoError(t, err)
	assert.Equal(t, f.ws.ID, got.WorkspaceID)
	assert.True(t, got.NewContact)

	contact, err := repositories.NewContactRepo(f.db).GetByID(context.Background(), f.ws.ID, got.ContactID)
	require.NoError(t, err)
	assert.Equal(t, "6281234", *contact.WhatsAppID)
	assert.Equal(t, "Budi", *contact.FirstName)
	assert.Equal(t, models.ContactStageLead, contact.Stage)

	conversation, err := repositories.NewConversationRepo(f.db).GetByID(context.Background(), f.ws.ID, got.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, models.ConversationActive, conversation.Status)
	assert.True(t, conversation.IsAIEnabled)
	require.NotNil(t, conversation.LastMessageAt)

	msgs := f.messages(t, got.ConversationID)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, "halo", msgs[0].Content)

	queued := f.jobsOfType(t, jobs.TypeMessageIngested)
	require.Len(t, queued, 1)
	assert.Equal(t, jobs.QueueMessages, queued[0].Queue)
	require.NotNil(t, queued[0].WorkspaceID)
	assert.Equal(t, f.ws.ID, *queued[0].WorkspaceID)
}

func TestIngest_SecondMessageReusesOpenConversation(t *testing.T) {
	f := newFixture(t)
	f.connect(t, f.ws.ID, models.ChannelWhatsApp, "phone-number-id")
	svc := NewIngestionService(f.db, f.guard, f.queue)
	// frozen clock: ordering must still hold
	frozen := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return frozen }

	first, err := svc.Ingest(context.Background(), inbound("6281234", "one"))
	require.NoError(t, err)
	second, err := svc.Ingest(context.Background(), inbound("+6281234", "two"))
	require.NoError(t, err)

	assert.Equal(t, first.ContactID, second.ContactID)
	assert.Equal(t, first.ConversationID, second.ConversationID)
	assert.False(t, second.NewContact)

	msgs := f.messages(t, first.ConversationID)
	require.Len(t, msgs, 2)
	assert.Equal(t, "one", msgs[0].Content)
	assert.Equal(t, "two", msgs[1].Content)
	assert.True(t, msgs[1].CreatedAt.After(msgs[0].CreatedAt))

	conversation, err := repositories.NewConversationRepo(f.db).GetByID(context.Background(), f.ws.ID, first.ConversationID)
	require.NoError(t, err)
	assert.True(t, conversation.LastMessageAt.After(frozen))
	assert.Len(t, f.jobsOfType(t, jobs.TypeMessageIngested), 2)
}

func TestIngest_ClosedConversationStartsNewOne(t *testing.T) {
	f := newFixture(t)
	f.connect(t, f.ws.ID, models.ChannelWhatsApp, "phone-number-id")
	svc := NewIngestionService(f.db, f.guard, f.queue)

	first, err := svc.Ingest(context.Background(), inbound("6281234", "one"))
	require.NoError(t, err)
	_, err = repositories.NewConversationRepo(f.db).Update(context.Background(), f.ws.ID, first.ConversationID,
		models.Fields{"status": models.ConversationResolved})
	require.NoError(t, err)

	second, err := svc.Ingest(context.Background(), inbound("6281234", "two"))
	require.NoError(t, err)
	assert.Equal(t, first.ContactID, second.ContactID)
	assert.NotEqual(t, first.ConversationID, second.ConversationID)
}

func TestIngest_AdoptsContactByPhone(t *testing.T) {
	f := newFixture(t)
	f.connect(t, f.ws.ID, models.ChannelWhatsApp, "phone-number-id")
	existing := f.contact(t, &models.Contact{FirstName: ptr("Sari"), Phone: ptr("+15550001")})
	svc := NewIngestionService(f.db, f.guard, f.queue)

	got, err := svc.Ingest(context.Background(), inbound("15550001", "hi"))
	require.NoError(t, err)
	assert.Equal(t, existing.ID, got.ContactID)
	assert.False(t, got.NewContact)

	contact, err := repositories.NewContactRepo(f.db).GetByID(context.Background(), f.ws.ID, existing.ID)
	require.NoError(t, err)
	require.NotNil(t, contact.WhatsAppID)
	assert.Equal(t, "15550001", *contact.WhatsAppID)

	var count int64
	require.NoError(t, f.db.Model(&models.Contact{}).Where("workspace_id = ?", f.ws.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestIngest_UnknownChannel(t *testing.T) {
	f := newFixture(t)
	svc := NewIngestionService(f.db, f.guard, f.queue)

	_, err := svc.Ingest(context.Background(), inbound("6281234", "halo"))
	assert.ErrorIs(t, err, ErrUnknownChannel)
	assert.Empty(t, f.jobsOfType(t, jobs.TypeMessageIngested))
}

func TestIngest_RoutesToChannelOwner(t *testing.T) {
	f := newFixture(t)
	other := f.otherWorkspace(t)
	f.connect(t, f.ws.ID, models.ChannelWhatsApp, "phone-a")
	f.connect(t, other.ID, models.ChannelWhatsApp, "phone-b")
	svc := NewIngestionService(f.db, f.guard, f.queue)

	msg := inbound("6281234", "halo")
	msg.ExternalID = "phone-b"
	got, err := svc.Ingest(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, other.ID, got.WorkspaceID)

	_, err = repositories.NewContactRepo(f.db).GetByID(context.Background(), f.ws.ID, got.ContactID)
	assert.True(t, repositories.IsNotFound(err))
}

func TestApplyStatus_NeverMovesBackwards(t *testing.T) {
	f := newFixture(t)
	contact := f.contact(t, &models.Contact{WhatsAppID: ptr("6281234")})
	broadcast := &models.Broadcast{
		WorkspaceID:    f.ws.ID,
		Name:           "promo",
		Channel:        models.ChannelWhatsApp,
		MessageContent: "sale",
		Status:         models.BroadcastSent,
	}
	require.NoError(t, f.db.Create(broadcast).Error)
	recipient := &models.BroadcastRecipient{
		BroadcastID:      broadcast.ID,
		ContactID:        contact.ID,
		Status:           models.RecipientSent,
		ChannelMessageID: ptr("wamid.out.1"),
	}
	require.NoError(t, f.db.Create(recipient).Error)
	svc := NewIngestionService(f.db, f.guard, f.queue)
	ctx := context.Background()

	require.NoError(t, svc.ApplyStatus(ctx, messaging.StatusUpdate{MessageID: "wamid.out.1", Status: "read"}))
	require.NoError(t, svc.ApplyStatus(ctx, messaging.StatusUpdate{MessageID: "wamid.out.1", Status: "delivered"}))
	require.NoError(t, svc.ApplyStatus(ctx, messaging.StatusUpdate{MessageID: "unknown", Status: "read"}))

	var stored models.BroadcastRecipient
	require.NoError(t, f.db.First(&stored, "id = ?", recipient.ID).Error)
	assert.Equal(t, models.RecipientRead, stored.Status)
	assert.NotNil(t, stored.ReadAt)
	assert.NotNil(t, stored.DeliveredAt)

	var refreshed models.Broadcast
	require.NoError(t, f.db.First(&refreshed, "id = ?", broadcast.ID).Error)
	assert.Equal(t, 1, refreshed.ReadCount)
}

// failingEnqueuer accepts nothing, so the ingest transaction cannot commit.
type failingEnqueuer struct{ jobs.Enqueuer }

func (failingEnqueuer) EnqueueTx(context.Context, *gorm.DB, string, interface{}, jobs.EnqueueOptions) (*jobs.Job, error) {
	return nil, errors.New("outbox unavailable")
}

func TestIngest_RollsBackWhenJobCannotBeQueued(t *testing.T) {
	f := newFixture(t)
	f.connect(t, f.ws.ID, models.ChannelWhatsApp, "phone-number-id")
	ctx := context.Background()

	_, err := NewIngestionService(f.db, f.guard, failingEnqueuer{f.queue}).Ingest(ctx, inbound("6281234", "halo"))
	require.Error(t, err)

	for _, model := range []interface{}{&models.Contact{}, &models.Conversation{}, &models.Message{}} {
		var count int64
		require.NoError(t, f.db.Model(model).Count(&count).Error)
		assert.Zero(t, count, "%T", model)
	}
	assert.Empty(t, f.jobsOfType(t, jobs.TypeMessageIngested))

	got, err := NewIngestionService(f.db, f.guard, f.queue).Ingest(ctx, inbound("6281234", "halo"))
	require.NoError(t, err)
	assert.True(t, got.NewContact)
	assert.Len(t, f.messages(t, got.ConversationID), 1)
}
