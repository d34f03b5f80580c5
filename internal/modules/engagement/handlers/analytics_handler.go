package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/analytics"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/tenant"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/services"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/apperr"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/utils"
)

type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

func (h *AnalyticsHandler) RegisterRoutes(r fiber.Router) {
	group := r.Group("/analytics")
	group.Get("/overview", h.Overview)
	group.Get("/conversations", h.Conversations)
	group.Get("/agents", h.Agents)
	group.Get("/revenue", h.Revenue)
	group.Get("/funnel", h.Funnel)
}

// dateRange reads ?period= or ?start_date=&end_date=. The explicit bounds
// win when both are given.
func dateRange(c *fiber.Ctx) (*analytics.DateRange, error) {
	now := time.Now().UTC()
	start, end := c.Query("start_date"), c.Query("end_date")
	if start == "" && end == "" {
		return analytics.GetDateRange(c.Query("period", analytics.DefaultPeriod), now), nil
	}
	dr, err := analytics.ParseDateRange(start, end, now)
	if err != nil {
		return nil, apperr.BadRequest("%s", err.Error())
	}
	return dr, nil
}

// Overview godoc
// @Summary Dashboard totals
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param period query string false "today, yesterday, this_week, this_month, last_month, this_year, last_7_days, last_30_days or last_90_days"
// @Param start_date query string false "YYYY-MM-DD or RFC3339"
// @Param end_date query string false "YYYY-MM-DD or RFC3339"
// @Success 200 {object} services.Overview
// @Router /analytics/overview [get]
func (h *AnalyticsHandler) Overview(c *fiber.Ctx) error {
	dr, err := dateRange(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	overview, err := h.analyticsService.Overview(c.UserContext(), tenant.WorkspaceID(c), dr)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(overview)
}

// Conversations godoc
// @Summary Conversation breakdown
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param period query string false "Named period"
// @Param start_date query string false "YYYY-MM-DD or RFC3339"
// @Param end_date query string false "YYYY-MM-DD or RFC3339"
// @Success 200 {object} services.ConversationAnalytics
// @Router /analytics/conversations [get]
func (h *AnalyticsHandler) Conversations(c *fiber.Ctx) error {
	dr, err := dateRange(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	result, err := h.analyticsService.Conversations(c.UserContext(), tenant.WorkspaceID(c), dr)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(result)
}

// Agents godoc
// @Summary Per-agent performance
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param period query string false "Named period"
// @Param start_date query string false "YYYY-MM-DD or RFC3339"
// @Param end_date query string false "YYYY-MM-DD or RFC3339"
// @Success 200 {array} services.AgentPerformance
// @Router /analytics/agents [get]
func (h *AnalyticsHandler) Agents(c *fiber.Ctx) error {
	dr, err := dateRange(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	result, err := h.analyticsService.Agents(c.UserContext(), tenant.WorkspaceID(c), dr)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(result)
}

// Revenue godoc
// @Summary Closed-won revenue
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param period query string false "Named period"
// @Param start_date query string false "YYYY-MM-DD or RFC3339"
// @Param end_date query string false "YYYY-MM-DD or RFC3339"
// @Success 200 {object} services.RevenueAnalytics
// @Router /analytics/revenue [get]
func (h *AnalyticsHandler) Revenue(c *fiber.Ctx) error {
	dr, err := dateRange(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	result, err := h.analyticsService.Revenue(c.UserContext(), tenant.WorkspaceID(c), dr)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(result)
}

// Funnel godoc
// @Summary Sales funnel
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Success 200 {object} services.Funnel
// @Router /analytics/funnel [get]
func (h *AnalyticsHandler) Funnel(c *fiber.Ctx) error {
	result, err := h.analyticsService.Funnel(c.UserContext(), tenant.WorkspaceID(c))
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(result)
}
