package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/analytics"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
)

func TestAnalyticsService_OverviewPipelineExcludesClosedDeals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	deals := newDealService(f)
	svc := NewAnalyticsService(analytics.NewAggregator(f.db), repositories.NewAgentRepo(f.db))
	period := analytics.GetDateRange(analytics.DefaultPeriod, time.Now())

	big, err := deals.Create(ctx, f.ws.ID, &models.CreateDealRequest{Title: "big", Value: ptr(decimal.NewFromInt(1000))})
	require.NoError(t, err)
	_, err = deals.Create(ctx, f.ws.ID, &models.CreateDealRequest{
		Title: "small",
		Value: ptr(decimal.NewFromInt(200)),
		Stage: models.DealStageProposal,
	})
	require.NoError(t, err)
	lost, err := deals.Create(ctx, f.ws.ID, &models.CreateDealRequest{Title: "lost", Value: ptr(decimal.NewFromInt(50))})
	require.NoError(t, err)
	other := f.otherWorkspace(t)
	_, err = deals.Create(ctx, other.ID, &models.CreateDealRequest{Title: "foreign", Value: ptr(decimal.NewFromInt(7))})
	require.NoError(t, err)

	overview, err := svc.Overview(ctx, f.ws.ID, period)
	require.NoError(t, err)
	assert.EqualValues(t, 3, overview.TotalDeals)
	assert.InDelta(t, 1250, overview.PipelineValue, 0.001)

	won := models.DealStageClosedWon
	closed, err := deals.Update(ctx, f.owner.ID, f.ws.ID, big.ID, &models.UpdateDealRequest{Stage: &won})
	require.NoError(t, err)
	require.NotNil(t, closed.ClosedAt)
	lostStage := models.DealStageClosedLost
	_, err = deals.Update(ctx, f.owner.ID, f.ws.ID, lost.ID, &models.UpdateDealRequest{Stage: &lostStage})
	require.NoError(t, err)

	overview, err = svc.Overview(ctx, f.ws.ID, period)
	require.NoError(t, err)
	assert.EqualValues(t, 3, overview.TotalDeals)
	assert.InDelta(t, 200, overview.PipelineValue, 0.001)
}
