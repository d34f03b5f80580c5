package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/llm"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/apperr"
)

func TestAgentService_CreateDefaults(t *testing.T) {
	f := newFixture(t)
	svc := NewAgentService(repositories.NewAgentRepo(f.db), nil)

	agent, err := svc.Create(context.Background(), f.ws.ID, &models.CreateAgentRequest{Name: "Sales"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultAgentModel, agent.Model)
	assert.InDelta(t, models.DefaultAgentTemperature, agent.Temperature, 0.0001)
	assert.Equal(t, models.DefaultAgentMaxTokens, agent.MaxTokens)
	assert.True(t, agent.IsActive)
}

func TestAgentService_PartialUpdate(t *testing.T) {
	f := newFixture(t)
	svc := NewAgentService(repositories.NewAgentRepo(f.db), nil)
	ctx := context.Background()

	agent, err := svc.Create(ctx, f.ws.ID, &models.CreateAgentRequest{
		Name:         "Sales",
		Description:  ptr("sells things"),
		SystemPrompt: ptr("Be brief."),
	})
	require.NoError(t, err)

	inactive := false
	temp := 0.2
	updated, err := svc.Update(ctx, f.ws.ID, agent.ID, &models.UpdateAgentRequest{
		Description: models.Optional[string]{Set: true, Null: true},
		Temperature: &temp,
		IsActive:    &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Sales", updated.Name)
	assert.Nil(t, updated.Description)
	require.NotNil(t, updated.SystemPrompt)
	assert.Equal(t, "Be brief.", *updated.SystemPrompt)
	assert.InDelta(t, 0.2, updated.Temperature, 0.0001)
	assert.False(t, updated.IsActive)

	unchanged, err := svc.Update(ctx, f.ws.ID, agent.ID, &models.UpdateAgentRequest{})
	require.NoError(t, err)
	assert.Equal(t, updated.UpdatedAt, unchanged.UpdatedAt)
}

func TestAgentService_Test(t *testing.T) {
	f := newFixture(t)
	provider := &fakeProvider{resp: &llm.Response{Content: "pong", TotalTokens: 7}}
	svc := NewAgentService(repositories.NewAgentRepo(f.db), llm.NewServiceWithProvider(provider))
	ctx := context.Background()
	agent, err := svc.Create(ctx, f.ws.ID, &models.CreateAgentRequest{Name: "Sales", Model: "gpt-4o-mini"})
	require.NoError(t, err)

	resp, err := svc.Test(ctx, f.ws.ID, agent.ID, &models.AgentTestRequest{Message: "ping"})
	require.NoError(t, err)
	assert.Equal(t, "pong", resp.Response)
	assert.Equal(t, 7, resp.TokensUsed)
	assert.Equal(t, "gpt-4o-mini", provider.last.Model)
	require.Len(t, provider.last.Messages, 1)
	assert.Equal(t, "ping", provider.last.Messages[0].Content)

	provider.err = errors.New("boom")
	_, err = svc.Test(ctx, f.ws.ID, agent.ID, &models.AgentTestRequest{Message: "ping"})
	assert.ErrorIs(t, err, apperr.ErrUpstream)
}

func TestAgentService_CrossWorkspace(t *testing.T) {
	f := newFixture(t)
	svc := NewAgentService(repositories.NewAgentRepo(f.db), nil)
	other := f.otherWorkspace(t)
	agent, err := svc.Create(context.Background(), f.ws.ID, &models.CreateAgentRequest{Name: "Sales"})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), other.ID, agent.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), other.ID, agent.ID), apperr.ErrNotFound)

	list, err := svc.List(context.Background(), other.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}
