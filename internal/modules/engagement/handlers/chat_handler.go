package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/services"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/utils"
)

type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) RegisterRoutes(r fiber.Router) {
	r.Post("/chat/message", h.SendMessage)
}

// SendMessage godoc
// @Summary Ask the platform assistant
// @Tags AI Chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.ChatRequest true "Message and prior turns"
// @Success 200 {object} services.ChatResponse
// @Failure 500 {object} map[string]interface{}
// @Router /chat/message [post]
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	var req services.ChatRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	resp, err := h.chatService.Reply(c.UserContext(), &req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(resp)
}
