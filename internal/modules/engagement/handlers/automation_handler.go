package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/tenant"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/services"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/utils"
)

type AutomationHandler struct {
	automationService *services.AutomationService
}

func NewAutomationHandler(automationService *services.AutomationService) *AutomationHandler {
	return &AutomationHandler{automationService: automationService}
}

func (h *AutomationHandler) RegisterRoutes(r fiber.Router) {
	automations := r.Group("/automations")
	automations.Get("/", h.ListAutomations)
	automations.Post("/", h.CreateAutomation)
	automations.Get("/:id", h.GetAutomation)
	automations.Put("/:id", h.UpdateAutomation)
	automations.Delete("/:id", h.DeleteAutomation)
	automations.Post("/:id/toggle", h.ToggleAutomation)
	automations.Get("/:id/logs", h.ListLogs)
}

// ListAutomations godoc
// @Summary List automations
// @Tags Automations
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param status query string false "active, paused or draft"
// @Param skip query int false "Offset"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {array} models.Automation
// @Router /automations [get]
func (h *AutomationHandler) ListAutomations(c *fiber.Ctx) error {
	skip, limit := utils.Pagination(c)
	automations, err := h.automationService.List(c.UserContext(), tenant.WorkspaceID(c), c.Query("status"), skip, limit)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(automations)
}

// CreateAutomation godoc
// @Summary Create an automation
// @Tags Automations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param request body models.CreateAutomationRequest true "Automation"
// @Success 201 {object} models.Automation
// @Failure 400 {object} map[string]interface{}
// @Router /automations [post]
func (h *AutomationHandler) CreateAutomation(c *fiber.Ctx) error {
	var req models.CreateAutomationRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	automation, err := h.automationService.Create(c.UserContext(), tenant.WorkspaceID(c), &req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(automation)
}

// GetAutomation godoc
// @Summary Get an automation
// @Tags Automations
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Automation ID"
// @Success 200 {object} models.Automation
// @Failure 404 {object} map[string]interface{}
// @Router /automations/{id} [get]
func (h *AutomationHandler) GetAutomation(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Automation")
	if err != nil {
		return utils.RespondError(c, err)
	}
	automation, err := h.automationService.Get(c.UserContext(), tenant.WorkspaceID(c), id)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(automation)
}

// UpdateAutomation godoc
// @Summary Update an automation
// @Tags Automations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Automation ID"
// @Param request body models.UpdateAutomationRequest true "Fields to change"
// @Success 200 {object} models.Automation
// @Failure 404 {object} map[string]interface{}
// @Router /automations/{id} [put]
func (h *AutomationHandler) UpdateAutomation(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Automation")
	if err != nil {
		return utils.RespondError(c, err)
	}
	var req models.UpdateAutomationRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	automation, err := h.automationService.Update(c.UserContext(), tenant.WorkspaceID(c), id, &req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(automation)
}

// DeleteAutomation godoc
// @Summary Delete an automation
// @Tags Automations
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Automation ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /automations/{id} [delete]
func (h *AutomationHandler) DeleteAutomation(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Automation")
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := h.automationService.Delete(c.UserContext(), tenant.WorkspaceID(c), id); err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Automation deleted"})
}

// ToggleAutomation godoc
// @Summary Pause or resume an automation
// @Tags Automations
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Automation ID"
// @Success 200 {object} models.Automation
// @Failure 404 {object} map[string]interface{}
// @Router /automations/{id}/toggle [post]
func (h *AutomationHandler) ToggleAutomation(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Automation")
	if err != nil {
		return utils.RespondError(c, err)
	}
	automation, err := h.automationService.Toggle(c.UserContext(), tenant.WorkspaceID(c), id)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(automation)
}

// ListLogs godoc
// @Summary List automation runs
// @Description Newest first.
// @Tags Automations
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Automation ID"
// @Param skip query int false "Offset"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {array} models.AutomationLog
// @Failure 404 {object} map[string]interface{}
// @Router /automations/{id}/logs [get]
func (h *AutomationHandler) ListLogs(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Automation")
	if err != nil {
		return utils.RespondError(c, err)
	}
	skip, limit := utils.Pagination(c)
	logs, err := h.automationService.Logs(c.UserContext(), tenant.WorkspaceID(c), id, skip, limit)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(logs)
}
