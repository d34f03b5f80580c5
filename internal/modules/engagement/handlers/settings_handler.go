package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/auth"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/tenant"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/services"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/utils"
)

// SettingsHandler serves API keys and the workspace audit trail.
type SettingsHandler struct {
	apiKeyService *services.APIKeyService
	auditService  *audit.Service
}

func NewSettingsHandler(apiKeyService *services.APIKeyService, auditService *audit.Service) *SettingsHandler {
	return &SettingsHandler{apiKeyService: apiKeyService, auditService: auditService}
}

func (h *SettingsHandler) RegisterRoutes(r fiber.Router) {
	keys := r.Group("/settings/api-keys")
	keys.Get("/", h.ListAPIKeys)
	keys.Post("/", h.CreateAPIKey)
	keys.Delete("/:id", h.DeleteAPIKey)

	r.Get("/audit-logs", tenant.RequireWorkspaceRole(tenant.RoleOwner, tenant.RoleAdmin), h.ListAuditLogs)
}

// ListAPIKeys godoc
// @Summary List my API keys
// @Tags Settings
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Success 200 {array} models.APIKey
// @Router /settings/api-keys [get]
func (h *SettingsHandler) ListAPIKeys(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	keys, err := h.apiKeyService.List(c.UserContext(), tenant.WorkspaceID(c), userID)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(keys)
}

// CreateAPIKey godoc
// @Summary Create an API key
// @Description The raw key is only returned by this call.
// @Tags Settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param request body models.CreateAPIKeyRequest true "Key"
// @Success 201 {object} models.APIKeyCreated
// @Failure 400 {object} map[string]interface{}
// @Router /settings/api-keys [post]
func (h *SettingsHandler) CreateAPIKey(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	var req models.CreateAPIKeyRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	created, err := h.apiKeyService.Create(c.UserContext(), tenant.WorkspaceID(c), userID, &req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// DeleteAPIKey godoc
// @Summary Delete an API key
// @Tags Settings
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "API key ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /settings/api-keys/{id} [delete]
func (h *SettingsHandler) DeleteAPIKey(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	id, err := utils.ParamUUID(c, "id", "API key")
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := h.apiKeyService.Delete(c.UserContext(), tenant.WorkspaceID(c), userID, id); err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "API key deleted"})
}

// ListAuditLogs godoc
// @Summary Workspace audit trail
// @Description Owner or admin only. Newest first.
// @Tags Settings
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param action query string false "Action"
// @Param entity_type query string false "Entity type"
// @Param skip query int false "Offset"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {array} audit.AuditLog
// @Failure 403 {object} map[string]interface{}
// @Router /audit-logs [get]
func (h *SettingsHandler) ListAuditLogs(c *fiber.Ctx) error {
	skip, limit := utils.Pagination(c)
	logs, err := h.auditService.List(c.UserContext(), audit.Filter{
		WorkspaceID: tenant.WorkspaceID(c),
		Action:      c.Query("action"),
		EntityType:  c.Query("entity_type"),
		Skip:        skip,
		Limit:       limit,
	})
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(logs)
}
