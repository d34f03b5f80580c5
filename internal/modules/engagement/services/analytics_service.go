package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/analytics"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
)

const workspaceMessages = "conversation_id IN (SELECT id FROM conversations WHERE workspace_id = ?)"

type Overview struct {
	TotalConversations   int64   `json:"total_conversations"`
	TotalMessages        int64   `json:"total_messages"`
	TotalContacts        int64   `json:"total_contacts"`
	TotalDeals           int64   `json:"total_deals"`
	PipelineValue        float64 `json:"pipeline_value"`
	AIHandledPercentage  float64 `json:"ai_handled_percentage"`
	AvgResponseTime      float64 `json:"avg_response_time"`
	CustomerSatisfaction float64 `json:"customer_satisfaction"`
}

type ConversationAnalytics struct {
	Total                      int64                `json:"total"`
	ByChannel                  map[string]int64     `json:"by_channel"`
	ByStatus                   map[string]int64     `json:"by_status"`
	ByDate                     []analytics.DayCount `json:"by_date"`
	AvgMessagesPerConversation float64              `json:"avg_messages_per_conversation"`
	AvgResolutionTime          float64              `json:"avg_resolution_time"`
}

type AgentPerformance struct {
	AgentID              uuid.UUID `json:"agent_id"`
	AgentName            string    `json:"agent_name"`
	TotalConversations   int64     `json:"total_conversations"`
	AccuracyRate         float64   `json:"accuracy_rate"`
	AvgResponseTime      float64   `json:"avg_response_time"`
	EscalationRate       float64   `json:"escalation_rate"`
	CustomerSatisfaction float64   `json:"customer_satisfaction"`
}

type RevenueAnalytics struct {
	TotalRevenue   float64            `json:"total_revenue"`
	DealsClosed    int64              `json:"deals_closed"`
	AvgDealValue   float64            `json:"avg_deal_value"`
	RevenueByDate  []analytics.DaySum `json:"revenue_by_date"`
	ConversionRate float64            `json:"conversion_rate"`
}

type Funnel struct {
	Stages          []models.PipelineStage `json:"stages"`
	ConversionRates map[string]float64     `json:"conversion_rates"`
	AvgTimeInStage  map[string]float64     `json:"avg_time_in_stage"`
}

// AnalyticsService computes workspace dashboards from live rows.
type AnalyticsService struct {
	agg    *analytics.Aggregator
	agents repositories.AgentRepo
}

func NewAnalyticsService(agg *analytics.Aggregator, agents repositories.AgentRepo) *AnalyticsService {
	return &AnalyticsService{agg: agg, agents: agents}
}

func (s *AnalyticsService) Overview(ctx context.Context, workspaceID uuid.UUID, dr *analytics.DateRange) (*Overview, error) {
	ws := analytics.Filters{"workspace_id": workspaceID}
	out := &Overview{}
	var err error

	if out.TotalConversations, err = s.agg.Count(ctx, "conversations", ws, dr); err != nil {
		return nil, err
	}
	if out.TotalMessages, err = s.agg.Count(ctx, "messages", analytics.Filters{workspaceMessages: workspaceID}, dr); err != nil {
		return nil, err
	}
	if out.TotalContacts, err = s.agg.Count(ctx, "contacts", ws, nil); err != nil {
		return nil, err
	}
	if out.TotalDeals, err = s.agg.Count(ctx, "deals", ws, nil); err != nil {
		return nil, err
	}

	pipeline, err := s.agg.Sum(ctx, "deals", "value", openDeals(workspaceID), nil)
	if err != nil {
		return nil, err
	}
	out.PipelineValue = pipeline.InexactFloat64()

	aiHandled, err := s.agg.Count(ctx, "conversations", analytics.Filters{
		"workspace_id":  workspaceID,
		"is_ai_enabled": true,
	}, dr)
	if err != nil {
		return nil, err
	}
	out.AIHandledPercentage = percent(aiHandled, out.TotalConversations)
	return out, nil
}

func (s *AnalyticsService) Conversations(ctx context.Context, workspaceID uuid.UUID, dr *analytics.DateRange) (*ConversationAnalytics, error) {
	ws := analytics.Filters{"workspace_id": workspaceID}
	out := &ConversationAnalytics{}
	var err error

	if out.Total, err = s.agg.Count(ctx, "conversations", ws, dr); err != nil {
		return nil, err
	}
	if out.ByChannel, err = s.agg.CountBy(ctx, "conversations", "channel", ws, dr); err != nil {
		return nil, err
	}
	if out.ByStatus, err = s.agg.CountBy(ctx, "conversations", "status", ws, dr); err != nil {
		return nil, err
	}
	if out.ByDate, err = s.agg.CountByDay(ctx, "conversations", ws, dr); err != nil {
		return nil, err
	}

	messages, err := s.agg.Count(ctx, "messages", analytics.Filters{
		"conversation_id IN (SELECT id FROM conversations WHERE workspace_id = ? AND created_at >= ? AND created_at <= ?)": []interface{}{workspaceID, dr.Start, dr.End},
	}, nil)
	if err != nil {
		return nil, err
	}
	if out.Total > 0 {
		out.AvgMessagesPerConversation = float64(messages) / float64(out.Total)
	}
	return out, nil
}

func (s *AnalyticsService) Agents(ctx context.Context, workspaceID uuid.UUID, dr *analytics.DateRange) ([]AgentPerformance, error) {
	agents, err := s.agents.List(ctx, workspaceID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	assigned := analytics.Filters{"workspace_id": workspaceID, "agent_id <> ?": uuid.Nil}
	totals, err := s.agg.CountBy(ctx, "conversations", "agent_id", assigned, dr)
	if err != nil {
		return nil, err
	}
	assigned["status"] = models.ConversationPending
	escalated, err := s.agg.CountBy(ctx, "conversations", "agent_id", assigned, dr)
	if err != nil {
		return nil, err
	}

	out := make([]AgentPerformance, 0, len(agents))
	for _, a := range agents {
		key := a.ID.String()
		out = append(out, AgentPerformance{
			AgentID:            a.ID,
			AgentName:          a.Name,
			TotalConversations: totals[key],
			AccuracyRate:       a.AccuracyRate,
			AvgResponseTime:    a.AvgResponseTime,
			EscalationRate:     percent(escalated[key], totals[key]),
		})
	}
	return out, nil
}

func (s *AnalyticsService) Revenue(ctx context.Context, workspaceID uuid.UUID, dr *analytics.DateRange) (*RevenueAnalytics, error) {
	closed := *dr
	closed.Field = "closed_at"
	won := analytics.Filters{"workspace_id": workspaceID, "stage": models.DealStageClosedWon}
	out := &RevenueAnalytics{}

	total, err := s.agg.Sum(ctx, "deals", "value", won, &closed)
	if err != nil {
		return nil, err
	}
	out.TotalRevenue = total.InexactFloat64()

	if out.DealsClosed, err = s.agg.Count(ctx, "deals", won, &closed); err != nil {
		return nil, err
	}
	if out.DealsClosed > 0 {
		out.AvgDealValue = out.TotalRevenue / float64(out.DealsClosed)
	}
	if out.RevenueByDate, err = s.agg.SumByDay(ctx, "deals", "value", won, &closed); err != nil {
		return nil, err
	}

	created, err := s.agg.Count(ctx, "deals", analytics.Filters{"workspace_id": workspaceID}, dr)
	if err != nil {
		return nil, err
	}
	out.ConversionRate = percent(out.DealsClosed, created)
	return out, nil
}

// Funnel reports every pipeline stage and the step conversion between
// consecutive stages.
func (s *AnalyticsService) Funnel(ctx context.Context, workspaceID uuid.UUID) (*Funnel, error) {
	counts, sums, err := s.agg.CountAndSumBy(ctx, "deals", "stage", "value", analytics.Filters{"workspace_id": workspaceID})
	if err != nil {
		return nil, err
	}

	out := &Funnel{
		Stages:          make([]models.PipelineStage, 0, len(models.DealStages)),
		ConversionRates: map[string]float64{},
		AvgTimeInStage:  map[string]float64{},
	}
	for _, stage := range models.DealStages {
		out.Stages = append(out.Stages, models.PipelineStage{
			Stage: stage,
			Count: counts[string(stage)],
			Value: sums[string(stage)].InexactFloat64(),
		})
	}

	// closed_lost is an exit, not a step.
	steps := models.DealStages[:len(models.DealStages)-1]
	for i := 0; i+1 < len(steps); i++ {
		from, to := steps[i], steps[i+1]
		out.ConversionRates[fmt.Sprintf("%s_to_%s", from, to)] = percent(counts[string(to)], counts[string(from)])
	}
	return out, nil
}

func openDeals(workspaceID uuid.UUID) analytics.Filters {
	return analytics.Filters{
		"workspace_id":        workspaceID,
		"stage NOT IN (?, ?)": []interface{}{models.DealStageClosedWon, models.DealStageClosedLost},
	}
}

func percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
