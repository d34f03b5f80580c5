package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/tenant"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/services"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/utils"
)

type FlowHandler struct {
	flowService *services.FlowService
}

func NewFlowHandler(flowService *services.FlowService) *FlowHandler {
	return &FlowHandler{flowService: flowService}
}

func (h *FlowHandler) RegisterRoutes(r fiber.Router) {
	flows := r.Group("/flows")
	flows.Get("/", h.ListFlows)
	flows.Post("/", h.CreateFlow)
	flows.Get("/:id", h.GetFlow)
	flows.Put("/:id", h.UpdateFlow)
	flows.Delete("/:id", h.DeleteFlow)
	flows.Post("/:id/activate", h.ToggleFlow)

	flows.Post("/:id/nodes", h.CreateNode)
	flows.Put("/:id/nodes/:node_id", h.UpdateNode)
	flows.Delete("/:id/nodes/:node_id", h.DeleteNode)
}

// ListFlows godoc
// @Summary List flows with their nodes
// @Tags Flows
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param skip query int false "Offset"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {array} models.Flow
// @Router /flows [get]
func (h *FlowHandler) ListFlows(c *fiber.Ctx) error {
	skip, limit := utils.Pagination(c)
	flows, err := h.flowService.List(c.UserContext(), tenant.WorkspaceID(c), skip, limit)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(flows)
}

// CreateFlow godoc
// @Summary Create a flow
// @Tags Flows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param request body models.CreateFlowRequest true "Flow"
// @Success 201 {object} models.Flow
// @Router /flows [post]
func (h *FlowHandler) CreateFlow(c *fiber.Ctx) error {
	var req models.CreateFlowRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	flow, err := h.flowService.Create(c.UserContext(), tenant.WorkspaceID(c), &req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(flow)
}

// GetFlow godoc
// @Summary Get a flow
// @Tags Flows
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Flow ID"
// @Success 200 {object} models.Flow
// @Failure 404 {object} map[string]interface{}
// @Router /flows/{id} [get]
func (h *FlowHandler) GetFlow(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Flow")
	if err != nil {
		return utils.RespondError(c, err)
	}
	flow, err := h.flowService.Get(c.UserContext(), tenant.WorkspaceID(c), id)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(flow)
}

// UpdateFlow godoc
// @Summary Update a flow
// @Tags Flows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Flow ID"
// @Param request body models.UpdateFlowRequest true "Fields to change"
// @Success 200 {object} models.Flow
// @Failure 404 {object} map[string]interface{}
// @Router /flows/{id} [put]
func (h *FlowHandler) UpdateFlow(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Flow")
	if err != nil {
		return utils.RespondError(c, err)
	}
	var req models.UpdateFlowRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	flow, err := h.flowService.Update(c.UserContext(), tenant.WorkspaceID(c), id, &req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(flow)
}

// DeleteFlow godoc
// @Summary Delete a flow and its nodes
// @Tags Flows
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Flow ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /flows/{id} [delete]
func (h *FlowHandler) DeleteFlow(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Flow")
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := h.flowService.Delete(c.UserContext(), tenant.WorkspaceID(c), id); err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Flow deleted"})
}

// ToggleFlow godoc
// @Summary Activate or deactivate a flow
// @Description Flips is_active and bumps the version.
// @Tags Flows
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Flow ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /flows/{id}/activate [post]
func (h *FlowHandler) ToggleFlow(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Flow")
	if err != nil {
		return utils.RespondError(c, err)
	}
	flow, err := h.flowService.ToggleActive(c.UserContext(), tenant.WorkspaceID(c), id)
	if err != nil {
		return utils.RespondError(c, err)
	}
	state := "deactivated"
	if flow.IsActive {
		state = "activated"
	}
	return c.JSON(fiber.Map{"message": "Flow " + state, "version": flow.Version})
}

// CreateNode godoc
// @Summary Add a node to a flow
// @Tags Flows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Flow ID"
// @Param request body models.CreateFlowNodeRequest true "Node"
// @Success 201 {object} models.FlowNode
// @Failure 404 {object} map[string]interface{}
// @Router /flows/{id}/nodes [post]
func (h *FlowHandler) CreateNode(c *fiber.Ctx) error {
	flowID, err := utils.ParamUUID(c, "id", "Flow")
	if err != nil {
		return utils.RespondError(c, err)
	}
	var req models.CreateFlowNodeRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	node, err := h.flowService.CreateNode(c.UserContext(), tenant.WorkspaceID(c), flowID, &req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(node)
}

// UpdateNode godoc
// @Summary Update a flow node
// @Tags Flows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Flow ID"
// @Param node_id path string true "Node ID"
// @Param request body models.UpdateFlowNodeRequest true "Fields to change"
// @Success 200 {object} models.FlowNode
// @Failure 404 {object} map[string]interface{}
// @Router /flows/{id}/nodes/{node_id} [put]
func (h *FlowHandler) UpdateNode(c *fiber.Ctx) error {
	flowID, err := utils.ParamUUID(c, "id", "Flow")
	if err != nil {
		return utils.RespondError(c, err)
	}
	nodeID, err := utils.ParamUUID(c, "node_id", "Node")
	if err != nil {
		return utils.RespondError(c, err)
	}
	var req models.UpdateFlowNodeRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	node, err := h.flowService.UpdateNode(c.UserContext(), tenant.WorkspaceID(c), flowID, nodeID, &req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(node)
}

// DeleteNode godoc
// @Summary Delete a flow node
// @Tags Flows
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Flow ID"
// @Param node_id path string true "Node ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /flows/{id}/nodes/{node_id} [delete]
func (h *FlowHandler) DeleteNode(c *fiber.Ctx) error {
	flowID, err := utils.ParamUUID(c, "id", "Flow")
	if err != nil {
		return utils.RespondError(c, err)
	}
	nodeID, err := utils.ParamUUID(c, "node_id", "Node")
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := h.flowService.DeleteNode(c.UserContext(), tenant.WorkspaceID(c), flowID, nodeID); err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Node deleted"})
}
