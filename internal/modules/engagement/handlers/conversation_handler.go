package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/tenant"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/services"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/utils"
)

type ConversationHandler struct {
	conversationService *services.ConversationService
}

func NewConversationHandler(conversationService *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

func (h *ConversationHandler) RegisterRoutes(r fiber.Router) {
	conversations := r.Group("/conversations")
	conversations.Get("/", h.ListConversations)
	conversations.Get("/:id", h.GetConversation)
	conversations.Put("/:id", h.UpdateConversation)
	conversations.Delete("/:id", h.DeleteConversation)
	conversations.Put("/:id/assign", h.AssignConversation)
	conversations.Get("/:id/messages", h.ListMessages)
	conversations.Post("/:id/messages", h.SendMessage)
	conversations.Post("/:id/read", h.MarkRead)
}

// ListConversations godoc
// @Summary List conversations
// @Description Ordered by last activity, newest first.
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param status query string false "active, pending, resolved or closed"
// @Param channel query string false "Channel type"
// @Param agent_id query string false "Agent ID"
// @Param assigned_user_id query string false "Assigned user ID"
// @Param skip query int false "Offset"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {array} models.Conversation
// @Router /conversations [get]
func (h *ConversationHandler) ListConversations(c *fiber.Ctx) error {
	agentID, err := utils.QueryUUID(c, "agent_id")
	if err != nil {
		return utils.RespondError(c, err)
	}
	assignedUserID, err := utils.QueryUUID(c, "assigned_user_id")
	if err != nil {
		return utils.RespondError(c, err)
	}
	skip, limit := utils.Pagination(c)

	conversations, err := h.conversationService.List(c.UserContext(), models.ConversationFilter{
		WorkspaceID:    tenant.WorkspaceID(c),
		Status:         c.Query("status"),
		Channel:        c.Query("channel"),
		AgentID:        agentID,
		AssignedUserID: assignedUserID,
		Skip:           skip,
		Limit:          limit,
	})
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(conversations)
}

// GetConversation godoc
// @Summary Get a conversation with its messages
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Conversation ID"
// @Success 200 {object} models.Conversation
// @Failure 404 {object} map[string]interface{}
// @Router /conversations/{id} [get]
func (h *ConversationHandler) GetConversation(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Conversation")
	if err != nil {
		return utils.RespondError(c, err)
	}
	conversation, err := h.conversationService.Get(c.UserContext(), tenant.WorkspaceID(c), id)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(conversation)
}

// UpdateConversation godoc
// @Summary Update a conversation
// @Tags Conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Conversation ID"
// @Param request body models.UpdateConversationRequest true "Fields to change"
// @Success 200 {object} models.Conversation
// @Failure 404 {object} map[string]interface{}
// @Router /conversations/{id} [put]
func (h *ConversationHandler) UpdateConversation(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Conversation")
	if err != nil {
		return utils.RespondError(c, err)
	}
	var req models.UpdateConversationRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	conversation, err := h.conversationService.Update(c.UserContext(), tenant.WorkspaceID(c), id, &req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(conversation)
}

// DeleteConversation godoc
// @Summary Delete a conversation
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Conversation ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /conversations/{id} [delete]
func (h *ConversationHandler) DeleteConversation(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Conversation")
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := h.conversationService.Delete(c.UserContext(), tenant.WorkspaceID(c), id); err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Conversation deleted"})
}

// AssignConversation godoc
// @Summary Assign a conversation
// @Description Sets the assigned user and/or agent. Omitted parameters are left unchanged.
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Conversation ID"
// @Param user_id query string false "User ID"
// @Param agent_id query string false "Agent ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /conversations/{id}/assign [put]
func (h *ConversationHandler) AssignConversation(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Conversation")
	if err != nil {
		return utils.RespondError(c, err)
	}
	userID, err := utils.QueryUUID(c, "user_id")
	if err != nil {
		return utils.RespondError(c, err)
	}
	agentID, err := utils.QueryUUID(c, "agent_id")
	if err != nil {
		return utils.RespondError(c, err)
	}
	if _, err := h.conversationService.Assign(c.UserContext(), tenant.WorkspaceID(c), id, userID, agentID); err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Conversation assigned"})
}

// ListMessages godoc
// @Summary List messages
// @Description Oldest first.
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Conversation ID"
// @Param skip query int false "Offset"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {array} models.Message
// @Failure 404 {object} map[string]interface{}
// @Router /conversations/{id}/messages [get]
func (h *ConversationHandler) ListMessages(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Conversation")
	if err != nil {
		return utils.RespondError(c, err)
	}
	skip, limit := utils.Pagination(c)
	messages, err := h.conversationService.ListMessages(c.UserContext(), tenant.WorkspaceID(c), id, skip, limit)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(messages)
}

// SendMessage godoc
// @Summary Send a message
// @Description Stores the message and delivers non-user messages through the conversation's channel.
// @Tags Conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Conversation ID"
// @Param request body models.SendMessageRequest true "Message"
// @Success 201 {object} models.Message
// @Failure 404 {object} map[string]interface{}
// @Router /conversations/{id}/messages [post]
func (h *ConversationHandler) SendMessage(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Conversation")
	if err != nil {
		return utils.RespondError(c, err)
	}
	var req models.SendMessageRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	message, err := h.conversationService.SendMessage(c.UserContext(), tenant.WorkspaceID(c), id, &req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}

// MarkRead godoc
// @Summary Mark all messages read
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Conversation ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /conversations/{id}/read [post]
func (h *ConversationHandler) MarkRead(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Conversation")
	if err != nil {
		return utils.RespondError(c, err)
	}
	updated, err := h.conversationService.MarkRead(c.UserContext(), tenant.WorkspaceID(c), id)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"updated": updated})
}
