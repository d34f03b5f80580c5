package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/tenant"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/services"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/utils"
)

type BroadcastHandler struct {
	broadcastService *services.BroadcastService
}

func NewBroadcastHandler(broadcastService *services.BroadcastService) *BroadcastHandler {
	return &BroadcastHandler{broadcastService: broadcastService}
}

func (h *BroadcastHandler) RegisterRoutes(r fiber.Router) {
	broadcasts := r.Group("/broadcasts")
	broadcasts.Get("/", h.ListBroadcasts)
	broadcasts.Post("/", h.CreateBroadcast)
	broadcasts.Get("/:id", h.GetBroadcast)
	broadcasts.Put("/:id", h.UpdateBroadcast)
	broadcasts.Delete("/:id", h.DeleteBroadcast)
	broadcasts.Post("/:id/send", h.SendBroadcast)
	broadcasts.Post("/:id/schedule", h.ScheduleBroadcast)
	broadcasts.Get("/:id/stats", h.BroadcastStats)
	broadcasts.Get("/:id/recipients", h.ListRecipients)
}

// ListBroadcasts godoc
// @Summary List broadcasts
// @Tags Broadcasts
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param status query string false "draft, scheduled, sending, sent or failed"
// @Param skip query int false "Offset"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {array} models.Broadcast
// @Router /broadcasts [get]
func (h *BroadcastHandler) ListBroadcasts(c *fiber.Ctx) error {
	skip, limit := utils.Pagination(c)
	broadcasts, err := h.broadcastService.List(c.UserContext(), tenant.WorkspaceID(c), c.Query("status"), skip, limit)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(broadcasts)
}

// CreateBroadcast godoc
// @Summary Create a broadcast
// @Description New broadcasts start as draft, or scheduled when scheduled_at is given.
// @Tags Broadcasts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param request body models.CreateBroadcastRequest true "Broadcast"
// @Success 201 {object} models.Broadcast
// @Failure 400 {object} map[string]interface{}
// @Router /broadcasts [post]
func (h *BroadcastHandler) CreateBroadcast(c *fiber.Ctx) error {
	var req models.CreateBroadcastRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	broadcast, err := h.broadcastService.Create(c.UserContext(), tenant.WorkspaceID(c), &req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(broadcast)
}

// GetBroadcast godoc
// @Summary Get a broadcast
// @Tags Broadcasts
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Broadcast ID"
// @Success 200 {object} models.Broadcast
// @Failure 404 {object} map[string]interface{}
// @Router /broadcasts/{id} [get]
func (h *BroadcastHandler) GetBroadcast(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Broadcast")
	if err != nil {
		return utils.RespondError(c, err)
	}
	broadcast, err := h.broadcastService.Get(c.UserContext(), tenant.WorkspaceID(c), id)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(broadcast)
}

// UpdateBroadcast godoc
// @Summary Update a broadcast
// @Description Only draft and scheduled broadcasts can change.
// @Tags Broadcasts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Broadcast ID"
// @Param request body models.UpdateBroadcastRequest true "Fields to change"
// @Success 200 {object} models.Broadcast
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /broadcasts/{id} [put]
func (h *BroadcastHandler) UpdateBroadcast(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Broadcast")
	if err != nil {
		return utils.RespondError(c, err)
	}
	var req models.UpdateBroadcastRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	broadcast, err := h.broadcastService.Update(c.UserContext(), tenant.WorkspaceID(c), id, &req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(broadcast)
}

// DeleteBroadcast godoc
// @Summary Delete a broadcast
// @Tags Broadcasts
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Broadcast ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /broadcasts/{id} [delete]
func (h *BroadcastHandler) DeleteBroadcast(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Broadcast")
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := h.broadcastService.Delete(c.UserContext(), tenant.WorkspaceID(c), id); err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Broadcast deleted"})
}

// SendBroadcast godoc
// @Summary Send a broadcast now
// @Description Creates one recipient per audience contact and queues delivery.
// @Tags Broadcasts
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Broadcast ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /broadcasts/{id}/send [post]
func (h *BroadcastHandler) SendBroadcast(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Broadcast")
	if err != nil {
		return utils.RespondError(c, err)
	}
	count, err := h.broadcastService.Send(c.UserContext(), tenant.WorkspaceID(c), id)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": fmt.Sprintf("Sending broadcast to %d recipients", count)})
}

// ScheduleBroadcast godoc
// @Summary Schedule a broadcast
// @Tags Broadcasts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Broadcast ID"
// @Param request body models.ScheduleBroadcastRequest true "Send time"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /broadcasts/{id}/schedule [post]
func (h *BroadcastHandler) ScheduleBroadcast(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Broadcast")
	if err != nil {
		return utils.RespondError(c, err)
	}
	var req models.ScheduleBroadcastRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	if _, err := h.broadcastService.Schedule(c.UserContext(), tenant.WorkspaceID(c), id, req.ScheduledAt); err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Broadcast scheduled for " + req.ScheduledAt.UTC().Format(time.RFC3339),
	})
}

// BroadcastStats godoc
// @Summary Delivery statistics
// @Tags Broadcasts
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Broadcast ID"
// @Success 200 {object} models.BroadcastStats
// @Failure 404 {object} map[string]interface{}
// @Router /broadcasts/{id}/stats [get]
func (h *BroadcastHandler) BroadcastStats(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Broadcast")
	if err != nil {
		return utils.RespondError(c, err)
	}
	stats, err := h.broadcastService.Stats(c.UserContext(), tenant.WorkspaceID(c), id)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(stats)
}

// ListRecipients godoc
// @Summary List broadcast recipients
// @Tags Broadcasts
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Broadcast ID"
// @Param status query string false "pending, sent, delivered, read or failed"
// @Param skip query int false "Offset"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {array} models.BroadcastRecipient
// @Failure 404 {object} map[string]interface{}
// @Router /broadcasts/{id}/recipients [get]
func (h *BroadcastHandler) ListRecipients(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Broadcast")
	if err != nil {
		return utils.RespondError(c, err)
	}
	skip, limit := utils.Pagination(c)
	recipients, err := h.broadcastService.Recipients(c.UserContext(), tenant.WorkspaceID(c), id, c.Query("status"), skip, limit)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(recipients)
}
