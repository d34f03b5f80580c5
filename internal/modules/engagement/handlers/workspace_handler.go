package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/auth"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/services"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/utils"
)

type WorkspaceHandler struct {
	workspaceService *services.WorkspaceService
}

func NewWorkspaceHandler(workspaceService *services.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{workspaceService: workspaceService}
}

// RegisterRoutes mounts the workspace routes. They name the workspace in the
// path, so membership is checked by the service rather than the header guard.
func (h *WorkspaceHandler) RegisterRoutes(r fiber.Router) {
	workspaces := r.Group("/workspaces")
	workspaces.Get("/", h.ListWorkspaces)
	workspaces.Post("/", h.CreateWorkspace)
	workspaces.Get("/:workspace_id", h.GetWorkspace)
	workspaces.Put("/:workspace_id", h.UpdateWorkspace)
	workspaces.Delete("/:workspace_id", h.DeleteWorkspace)
	workspaces.Get("/:workspace_id/members", h.ListMembers)
	workspaces.Post("/:workspace_id/invite", h.InviteMember)
	workspaces.Delete("/:workspace_id/members/:user_id", h.RemoveMember)
}

// ListWorkspaces godoc
// @Summary List my workspaces
// @Tags Workspaces
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Workspace
// @Router /workspaces [get]
func (h *WorkspaceHandler) ListWorkspaces(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	workspaces, err := h.workspaceService.List(c.UserContext(), userID)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(workspaces)
}

// CreateWorkspace godoc
// @Summary Create a workspace
// @Description The caller becomes the owner. The slug is derived from the name.
// @Tags Workspaces
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateWorkspaceRequest true "Workspace"
// @Success 201 {object} models.Workspace
// @Failure 400 {object} map[string]interface{}
// @Router /workspaces [post]
func (h *WorkspaceHandler) CreateWorkspace(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	var req models.CreateWorkspaceRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	workspace, err := h.workspaceService.Create(c.UserContext(), userID, &req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(workspace)
}

// GetWorkspace godoc
// @Summary Get a workspace
// @Tags Workspaces
// @Produce json
// @Security BearerAuth
// @Param workspace_id path string true "Workspace ID"
// @Success 200 {object} models.Workspace
// @Failure 404 {object} map[string]interface{}
// @Router /workspaces/{workspace_id} [get]
func (h *WorkspaceHandler) GetWorkspace(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	workspaceID, err := utils.ParamUUID(c, "workspace_id", "Workspace")
	if err != nil {
		return utils.RespondError(c, err)
	}
	workspace, err := h.workspaceService.Get(c.UserContext(), userID, workspaceID)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(workspace)
}

// UpdateWorkspace godoc
// @Summary Update a workspace
// @Description Owner or admin only
// @Tags Workspaces
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workspace_id path string true "Workspace ID"
// @Param request body models.UpdateWorkspaceRequest true "Fields to change"
// @Success 200 {object} models.Workspace
// @Failure 404 {object} map[string]interface{}
// @Router /workspaces/{workspace_id} [put]
func (h *WorkspaceHandler) UpdateWorkspace(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	workspaceID, err := utils.ParamUUID(c, "workspace_id", "Workspace")
	if err != nil {
		return utils.RespondError(c, err)
	}
	var req models.UpdateWorkspaceRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	workspace, err := h.workspaceService.Update(c.UserContext(), userID, workspaceID, &req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(workspace)
}

// DeleteWorkspace godoc
// @Summary Delete a workspace
// @Description Owner only. Deletes every row the workspace owns.
// @Tags Workspaces
// @Produce json
// @Security BearerAuth
// @Param workspace_id path string true "Workspace ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /workspaces/{workspace_id} [delete]
func (h *WorkspaceHandler) DeleteWorkspace(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	workspaceID, err := utils.ParamUUID(c, "workspace_id", "Workspace")
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := h.workspaceService.Delete(c.UserContext(), userID, workspaceID); err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Workspace deleted"})
}

// ListMembers godoc
// @Summary List workspace members
// @Tags Workspaces
// @Produce json
// @Security BearerAuth
// @Param workspace_id path string true "Workspace ID"
// @Success 200 {array} models.MemberView
// @Router /workspaces/{workspace_id}/members [get]
func (h *WorkspaceHandler) ListMembers(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	workspaceID, err := utils.ParamUUID(c, "workspace_id", "Workspace")
	if err != nil {
		return utils.RespondError(c, err)
	}
	members, err := h.workspaceService.ListMembers(c.UserContext(), userID, workspaceID)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(members)
}

// InviteMember godoc
// @Summary Invite a member by email
// @Description Owner or admin only. Unknown emails receive an invitation.
// @Tags Workspaces
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workspace_id path string true "Workspace ID"
// @Param request body models.InviteMemberRequest true "Invitation"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /workspaces/{workspace_id}/invite [post]
func (h *WorkspaceHandler) InviteMember(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	workspaceID, err := utils.ParamUUID(c, "workspace_id", "Workspace")
	if err != nil {
		return utils.RespondError(c, err)
	}
	var req models.InviteMemberRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	msg, err := h.workspaceService.Invite(c.UserContext(), userID, workspaceID, &req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": msg})
}

// RemoveMember godoc
// @Summary Remove a member
// @Description Owner or admin only. The owner cannot be removed.
// @Tags Workspaces
// @Produce json
// @Security BearerAuth
// @Param workspace_id path string true "Workspace ID"
// @Param user_id path string true "Member user ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /workspaces/{workspace_id}/members/{user_id} [delete]
func (h *WorkspaceHandler) RemoveMember(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	workspaceID, err := utils.ParamUUID(c, "workspace_id", "Workspace")
	if err != nil {
		return utils.RespondError(c, err)
	}
	memberID, err := utils.ParamUUID(c, "user_id", "Member")
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := h.workspaceService.RemoveMember(c.UserContext(), userID, workspaceID, memberID); err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Member removed"})
}
