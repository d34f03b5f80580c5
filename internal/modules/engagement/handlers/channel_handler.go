package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/auth"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/tenant"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/services"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/utils"
)

type ChannelHandler struct {
	channelService *services.ChannelService
}

func NewChannelHandler(channelService *services.ChannelService) *ChannelHandler {
	return &ChannelHandler{channelService: channelService}
}

func (h *ChannelHandler) RegisterRoutes(r fiber.Router) {
	channels := r.Group("/channels")
	channels.Get("/", h.ListChannels)
	channels.Post("/whatsapp/connect", h.ConnectWhatsApp)
	channels.Post("/instagram/connect", h.ConnectInstagram)
	channels.Post("/messenger/connect", h.ConnectMessenger)
	channels.Put("/:id/toggle", h.ToggleChannel)
	channels.Post("/:id/disconnect", h.DisconnectChannel)
	channels.Delete("/:id", h.DeleteChannel)
}

// ListChannels godoc
// @Summary List connected channels
// @Description Access tokens are masked.
// @Tags Channels
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Success 200 {array} models.Channel
// @Router /channels [get]
func (h *ChannelHandler) ListChannels(c *fiber.Ctx) error {
	channels, err := h.channelService.List(c.UserContext(), tenant.WorkspaceID(c))
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(channels)
}

// ConnectWhatsApp godoc
// @Summary Connect a WhatsApp Cloud API number
// @Tags Channels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param request body models.ConnectWhatsAppRequest true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /channels/whatsapp/connect [post]
func (h *ChannelHandler) ConnectWhatsApp(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	var req models.ConnectWhatsAppRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	channel, err := h.channelService.ConnectWhatsApp(c.UserContext(), userID, tenant.WorkspaceID(c), &req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":    "WhatsApp connected successfully",
		"channel_id": channel.ID,
	})
}

// ConnectInstagram godoc
// @Summary Connect an Instagram account
// @Tags Channels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param request body models.ConnectPageRequest true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Router /channels/instagram/connect [post]
func (h *ChannelHandler) ConnectInstagram(c *fiber.Ctx) error {
	return h.connectPage(c, models.ChannelInstagram, "Instagram")
}

// ConnectMessenger godoc
// @Summary Connect a Facebook page for Messenger
// @Tags Channels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param request body models.ConnectPageRequest true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Router /channels/messenger/connect [post]
func (h *ChannelHandler) ConnectMessenger(c *fiber.Ctx) error {
	return h.connectPage(c, models.ChannelMessenger, "Messenger")
}

func (h *ChannelHandler) connectPage(c *fiber.Ctx, channelType models.ChannelType, label string) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	var req models.ConnectPageRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	channel, err := h.channelService.ConnectPage(c.UserContext(), userID, tenant.WorkspaceID(c), channelType, &req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":    label + " connected successfully",
		"channel_id": channel.ID,
	})
}

// ToggleChannel godoc
// @Summary Activate or deactivate a channel
// @Tags Channels
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Channel ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /channels/{id}/toggle [put]
func (h *ChannelHandler) ToggleChannel(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Channel")
	if err != nil {
		return utils.RespondError(c, err)
	}
	channel, err := h.channelService.Toggle(c.UserContext(), tenant.WorkspaceID(c), id)
	if err != nil {
		return utils.RespondError(c, err)
	}
	state := "deactivated"
	if channel.IsActive {
		state = "activated"
	}
	return c.JSON(fiber.Map{"message": "Channel " + state})
}

// DisconnectChannel godoc
// @Summary Disconnect a channel
// @Description Clears the stored credentials and deactivates the channel. The row is kept.
// @Tags Channels
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Channel ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /channels/{id}/disconnect [post]
func (h *ChannelHandler) DisconnectChannel(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	id, err := utils.ParamUUID(c, "id", "Channel")
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := h.channelService.Disconnect(c.UserContext(), userID, tenant.WorkspaceID(c), id); err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Channel disconnected"})
}

// DeleteChannel godoc
// @Summary Remove a channel
// @Tags Channels
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Channel ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /channels/{id} [delete]
func (h *ChannelHandler) DeleteChannel(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	id, err := utils.ParamUUID(c, "id", "Channel")
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := h.channelService.Delete(c.UserContext(), userID, tenant.WorkspaceID(c), id); err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Channel removed"})
}
