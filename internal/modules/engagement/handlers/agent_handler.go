package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/tenant"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/services"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/utils"
)

type AgentHandler struct {
	agentService *services.AgentService
}

func NewAgentHandler(agentService *services.AgentService) *AgentHandler {
	return &AgentHandler{agentService: agentService}
}

func (h *AgentHandler) RegisterRoutes(r fiber.Router) {
	agents := r.Group("/agents")
	agents.Get("/", h.ListAgents)
	agents.Post("/", h.CreateAgent)
	agents.Get("/:id", h.GetAgent)
	agents.Put("/:id", h.UpdateAgent)
	agents.Delete("/:id", h.DeleteAgent)
	agents.Post("/:id/test", h.TestAgent)
}

// ListAgents godoc
// @Summary List agents
// @Tags Agents
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param skip query int false "Offset"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {array} models.Agent
// @Router /agents [get]
func (h *AgentHandler) ListAgents(c *fiber.Ctx) error {
	skip, limit := utils.Pagination(c)
	agents, err := h.agentService.List(c.UserContext(), tenant.WorkspaceID(c), skip, limit)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(agents)
}

// CreateAgent godoc
// @Summary Create an agent
// @Tags Agents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param request body models.CreateAgentRequest true "Agent"
// @Success 201 {object} models.Agent
// @Failure 400 {object} map[string]interface{}
// @Router /agents [post]
func (h *AgentHandler) CreateAgent(c *fiber.Ctx) error {
	var req models.CreateAgentRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	agent, err := h.agentService.Create(c.UserContext(), tenant.WorkspaceID(c), &req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(agent)
}

// GetAgent godoc
// @Summary Get an agent
// @Tags Agents
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Agent ID"
// @Success 200 {object} models.Agent
// @Failure 404 {object} map[string]interface{}
// @Router /agents/{id} [get]
func (h *AgentHandler) GetAgent(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Agent")
	if err != nil {
		return utils.RespondError(c, err)
	}
	agent, err := h.agentService.Get(c.UserContext(), tenant.WorkspaceID(c), id)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(agent)
}

// UpdateAgent godoc
// @Summary Update an agent
// @Description Only the fields present in the body are changed.
// @Tags Agents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Agent ID"
// @Param request body models.UpdateAgentRequest true "Fields to change"
// @Success 200 {object} models.Agent
// @Failure 404 {object} map[string]interface{}
// @Router /agents/{id} [put]
func (h *AgentHandler) UpdateAgent(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Agent")
	if err != nil {
		return utils.RespondError(c, err)
	}
	var req models.UpdateAgentRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	agent, err := h.agentService.Update(c.UserContext(), tenant.WorkspaceID(c), id, &req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(agent)
}

// DeleteAgent godoc
// @Summary Delete an agent
// @Tags Agents
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Agent ID"
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /agents/{id} [delete]
func (h *AgentHandler) DeleteAgent(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Agent")
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := h.agentService.Delete(c.UserContext(), tenant.WorkspaceID(c), id); err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Agent deleted"})
}

// TestAgent godoc
// @Summary Send a test message to an agent
// @Tags Agents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Agent ID"
// @Param request body models.AgentTestRequest true "Message"
// @Success 200 {object} models.AgentTestResponse
// @Failure 500 {object} map[string]interface{}
// @Router /agents/{id}/test [post]
func (h *AgentHandler) TestAgent(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Agent")
	if err != nil {
		return utils.RespondError(c, err)
	}
	var req models.AgentTestRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	resp, err := h.agentService.Test(c.UserContext(), tenant.WorkspaceID(c), id, &req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(resp)
}
