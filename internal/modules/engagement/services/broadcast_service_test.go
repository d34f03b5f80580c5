package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/apperr"
)

func newBroadcastFixture(t *testing.T) (*fixture, *BroadcastService) {
	f := newFixture(t)
	f.connect(t, f.ws.ID, models.ChannelWhatsApp, "phone-number-id")
	f.contact(t, &models.Contact{FirstName: ptr("Ana"), WhatsAppID: ptr("62811"), Tags: []string{"vip"}, Stage: models.ContactStageCustomer})
	f.contact(t, &models.Contact{FirstName: ptr("Bo"), Phone: ptr("62822"), Tags: []string{"vip", "new"}})
	f.contact(t, &models.Contact{FirstName: ptr("Cy"), Email: ptr("cy@example.com")})
	return f, NewBroadcastService(f.db, f.queue, f.delivery)
}

func draft(t *testing.T, svc *BroadcastService, f *fixture, audienceType string, filter map[string]interface{}) *models.Broadcast {
	t.Helper()
	b, err := svc.Create(context.Background(), f.ws.ID, &models.CreateBroadcastRequest{
		Name:           "promo",
		Channel:        models.ChannelWhatsApp,
		MessageContent: "50% off today",
		AudienceType:   audienceType,
		AudienceFilter: filter,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BroadcastDraft, b.Status)
	return b
}

func TestBroadcast_SendAndDispatch(t *testing.T) {
	f, svc := newBroadcastFixture(t)
	ctx := context.Background()
	b := draft(t, svc, f, models.AudienceAll, nil)

	n, err := svc.Send(ctx, f.ws.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	queued := f.jobsOfType(t, jobs.TypeBroadcastDispatch)
	require.Len(t, queued, 1)
	assert.Equal(t, jobs.QueueBroadcasts, queued[0].Queue)

	sending, err := svc.Get(ctx, f.ws.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BroadcastSending, sending.Status)
	assert.Equal(t, 3, sending.TotalRecipients)

	_, err = svc.Send(ctx, f.ws.ID, b.ID)
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
	assert.Len(t, f.jobsOfType(t, jobs.TypeBroadcastDispatch), 1)

	require.NoError(t, svc.Dispatch(ctx, BroadcastDispatchPayload{WorkspaceID: f.ws.ID, BroadcastID: b.ID}))

	done, err := svc.Get(ctx, f.ws.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BroadcastSent, done.Status)
	assert.Equal(t, 2, done.SentCount)
	assert.Equal(t, 1, done.FailedCount)

	sent := f.sender.texts()
	require.Len(t, sent, 2)
	recipients := []string{sent[0].Target.Recipient, sent[1].Target.Recipient}
	assert.ElementsMatch(t, []string{"62811", "62822"}, recipients)

	failed, err := svc.Recipients(ctx, f.ws.ID, b.ID, string(models.RecipientFailed), 0, 0)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.NotNil(t, failed[0].ErrorMessage)
	assert.Contains(t, *failed[0].ErrorMessage, "no whatsapp address")

	// a redelivered job is a no-op
	require.NoError(t, svc.Dispatch(ctx, BroadcastDispatchPayload{WorkspaceID: f.ws.ID, BroadcastID: b.ID}))
	assert.Len(t, f.sender.texts(), 2)
}

func TestBroadcast_AllFailedMarksFailed(t *testing.T) {
	f, svc := newBroadcastFixture(t)
	ctx := context.Background()
	f.sender.failFor["62811"] = true
	f.sender.failFor["62822"] = true
	b := draft(t, svc, f, models.AudienceTag, map[string]interface{}{"tags": []interface{}{"vip"}})

	n, err := svc.Send(ctx, f.ws.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, svc.Dispatch(ctx, BroadcastDispatchPayload{WorkspaceID: f.ws.ID, BroadcastID: b.ID}))

	stats, err := svc.Stats(ctx, f.ws.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FailedCount)
	got, err := svc.Get(ctx, f.ws.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BroadcastFailed, got.Status)
}

func TestBroadcast_Audience(t *testing.T) {
	tests := []struct {
		name         string
		audienceType string
		filter       map[string]interface{}
		want         int
		wantErr      error
	}{
		{name: "all", audienceType: models.AudienceAll, want: 3},
		{name: "single tag", audienceType: models.AudienceTag, filter: map[string]interface{}{"tags": []interface{}{"new"}}, want: 1},
		{name: "tags are deduplicated", audienceType: models.AudienceTag, filter: map[string]interface{}{"tags": []interface{}{"vip", "new"}}, want: 2},
		{name: "tag wildcards match literally", audienceType: models.AudienceTag, filter: map[string]interface{}{"tags": []interface{}{"v_p", "%"}}, want: 0},
		{name: "stage", audienceType: models.AudienceStage, filter: map[string]interface{}{"stage": "customer"}, want: 1},
		{name: "stage missing", audienceType: models.AudienceStage, filter: map[string]interface{}{}, wantErr: apperr.ErrBadRequest},
		{name: "tags missing", audienceType: models.AudienceTag, filter: map[string]interface{}{"tags": []interface{}{}}, wantErr: apperr.ErrBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, svc := newBroadcastFixture(t)
			b := draft(t, svc, f, tt.audienceType, tt.filter)

			n, err := svc.Send(context.Background(), f.ws.ID, b.ID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestBroadcast_Schedule(t *testing.T) {
	f, svc := newBroadcastFixture(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	b := draft(t, svc, f, models.AudienceAll, nil)

	_, err := svc.Schedule(ctx, f.ws.ID, b.ID, now.Add(-time.Minute))
	assert.ErrorIs(t, err, apperr.ErrBadRequest)

	scheduled, err := svc.Schedule(ctx, f.ws.ID, b.ID, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.BroadcastScheduled, scheduled.Status)

	started, err := svc.PromoteDue(ctx)
	require.NoError(t, err)
	assert.Zero(t, started)

	svc.now = func() time.Time { return now.Add(2 * time.Hour) }
	started, err = svc.PromoteDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, started)

	got, err := svc.Get(ctx, f.ws.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BroadcastSending, got.Status)
	assert.Len(t, f.jobsOfType(t, jobs.TypeBroadcastDispatch), 1)

	_, err = svc.Schedule(ctx, f.ws.ID, b.ID, now.Add(3*time.Hour))
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
	_, err = svc.Update(ctx, f.ws.ID, b.ID, &models.UpdateBroadcastRequest{Name: ptr("renamed")})
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestBroadcast_IsolatedPerWorkspace(t *testing.T) {
	f, svc := newBroadcastFixture(t)
	other := f.otherWorkspace(t)
	b := draft(t, svc, f, models.AudienceAll, nil)

	_, err := svc.Get(context.Background(), other.ID, b.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.Send(context.Background(), other.ID, b.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), other.ID, b.ID), apperr.ErrNotFound)
}
