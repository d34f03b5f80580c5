package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/analytics"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/apperr"
)

func newDealService(f *fixture) *DealService {
	return NewDealService(
		repositories.NewDealRepo(f.db),
		repositories.NewContactRepo(f.db),
		f.guard,
		analytics.NewAggregator(f.db),
		audit.NewService(f.db),
	)
}

func TestDealService_ClosedAtFollowsStage(t *testing.T) {
	f := newFixture(t)
	svc := newDealService(f)
	closedAt := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return closedAt }
	ctx := context.Background()

	deal, err := svc.Create(ctx, f.ws.ID, &models.CreateDealRequest{Title: "Annual plan"})
	require.NoError(t, err)
	assert.Equal(t, models.DealStageLead, deal.Stage)
	assert.Nil(t, deal.ClosedAt)

	won := models.DealStageClosedWon
	deal, err = svc.Update(ctx, f.owner.ID, f.ws.ID, deal.ID, &models.UpdateDealRequest{Stage: &won})
	require.NoError(t, err)
	require.NotNil(t, deal.ClosedAt)
	assert.True(t, deal.ClosedAt.Equal(closedAt))

	reopened := models.DealStageNegotiation
	deal, err = svc.Update(ctx, f.owner.ID, f.ws.ID, deal.ID, &models.UpdateDealRequest{Stage: &reopened})
	require.NoError(t, err)
	assert.Nil(t, deal.ClosedAt)

	var entries []audit.AuditLog
	require.NoError(t, f.db.Where("entity_id = ?", deal.ID.String()).Find(&entries).Error)
	assert.Len(t, entries, 2)
}

func TestDealService_Pipeline(t *testing.T) {
	f := newFixture(t)
	svc := newDealService(f)
	ctx := context.Background()

	for _, req := range []models.CreateDealRequest{
		{Title: "a", Value: ptr(decimal.NewFromInt(100))},
		{Title: "b", Value: ptr(decimal.NewFromInt(250))},
		{Title: "c", Value: ptr(decimal.NewFromInt(1000)), Stage: models.DealStageClosedWon},
	} {
		req := req
		_, err := svc.Create(ctx, f.ws.ID, &req)
		require.NoError(t, err)
	}
	other := f.otherWorkspace(t)
	_, err := svc.Create(ctx, other.ID, &models.CreateDealRequest{Title: "foreign", Value: ptr(decimal.NewFromInt(9))})
	require.NoError(t, err)

	stages, err := svc.Pipeline(ctx, f.ws.ID)
	require.NoError(t, err)
	require.Len(t, stages, len(models.DealStages))
	assert.Equal(t, models.DealStageLead, stages[0].Stage)
	assert.EqualValues(t, 2, stages[0].Count)
	assert.InDelta(t, 350, stages[0].Value, 0.001)
	assert.EqualValues(t, 1, stages[4].Count)
	assert.EqualValues(t, 0, stages[1].Count)
}

func TestDealService_CrossWorkspace(t *testing.T) {
	f := newFixture(t)
	svc := newDealService(f)
	other := f.otherWorkspace(t)
	deal, err := svc.Create(context.Background(), f.ws.ID, &models.CreateDealRequest{Title: "mine"})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), other.ID, deal.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	title := "stolen"
	_, err = svc.Update(context.Background(), f.owner.ID, other.ID, deal.ID, &models.UpdateDealRequest{Title: &title})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDealService_RejectsForeignReferences(t *testing.T) {
	f := newFixture(t)
	svc := newDealService(f)
	ctx := context.Background()
	other := f.otherWorkspace(t)
	foreignContact := &models.Contact{WorkspaceID: other.ID, FirstName: ptr("Eve")}
	require.NoError(t, repositories.NewContactRepo(f.db).Create(ctx, foreignContact))
	mine := f.contact(t, &models.Contact{FirstName: ptr("Ana")})

	_, err := svc.Create(ctx, f.ws.ID, &models.CreateDealRequest{Title: "x", ContactID: &foreignContact.ID})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.Create(ctx, f.ws.ID, &models.CreateDealRequest{Title: "x", ContactID: ptr(uuid.New())})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	var count int64
	require.NoError(t, f.db.Model(&models.Deal{}).Count(&count).Error)
	assert.Zero(t, count)

	deal, err := svc.Create(ctx, f.ws.ID, &models.CreateDealRequest{Title: "ok", ContactID: &mine.ID})
	require.NoError(t, err)

	_, err = svc.Update(ctx, f.owner.ID, f.ws.ID, deal.ID, &models.UpdateDealRequest{ContactID: models.Some(foreignContact.ID)})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.Update(ctx, f.owner.ID, f.ws.ID, deal.ID, &models.UpdateDealRequest{AssignedUserID: models.Some(other.OwnerID)})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	got, err := svc.Get(ctx, f.ws.ID, deal.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ContactID)
	assert.Equal(t, mine.ID, *got.ContactID)
	assert.Nil(t, got.AssignedUserID)

	got, err = svc.Update(ctx, f.owner.ID, f.ws.ID, deal.ID, &models.UpdateDealRequest{
		ContactID:      models.Null[uuid.UUID](),
		AssignedUserID: models.Some(f.owner.ID),
	})
	require.NoError(t, err)
	assert.Nil(t, got.ContactID)
	require.NotNil(t, got.AssignedUserID)
	assert.Equal(t, f.owner.ID, *got.AssignedUserID)
}
