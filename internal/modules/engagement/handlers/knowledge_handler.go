package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/tenant"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/services"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/utils"
)

type KnowledgeHandler struct {
	knowledgeService *services.KnowledgeService
}

func NewKnowledgeHandler(knowledgeService *services.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{knowledgeService: knowledgeService}
}

func (h *KnowledgeHandler) RegisterRoutes(r fiber.Router) {
	knowledge := r.Group("/knowledge")
	knowledge.Get("/", h.ListSources)
	knowledge.Post("/text", h.CreateText)
	knowledge.Post("/websites", h.CreateWebsite)
	knowledge.Post("/documents", h.CreateDocument)
	knowledge.Post("/query", h.Query)
	knowledge.Get("/:id", h.GetSource)
	knowledge.Delete("/:id", h.DeleteSource)
	knowledge.Post("/:id/resync", h.Resync)
}

// ListSources godoc
// @Summary List knowledge sources
// @Tags Knowledge Base
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param source_type query string false "document, website, text or faq"
// @Param skip query int false "Offset"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {array} models.KnowledgeSource
// @Router /knowledge [get]
func (h *KnowledgeHandler) ListSources(c *fiber.Ctx) error {
	skip, limit := utils.Pagination(c)
	sources, err := h.knowledgeService.List(c.UserContext(), tenant.WorkspaceID(c), c.Query("source_type"), skip, limit)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(sources)
}

// CreateText godoc
// @Summary Add a text source
// @Tags Knowledge Base
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param request body models.KnowledgeTextRequest true "Text"
// @Success 201 {object} models.KnowledgeSource
// @Router /knowledge/text [post]
func (h *KnowledgeHandler) CreateText(c *fiber.Ctx) error {
	var req models.KnowledgeTextRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	source, err := h.knowledgeService.CreateText(c.UserContext(), tenant.WorkspaceID(c), &req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(source)
}

// CreateWebsite godoc
// @Summary Add a website source
// @Tags Knowledge Base
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param request body models.KnowledgeWebsiteRequest true "Website"
// @Success 201 {object} models.KnowledgeSource
// @Router /knowledge/websites [post]
func (h *KnowledgeHandler) CreateWebsite(c *fiber.Ctx) error {
	var req models.KnowledgeWebsiteRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	source, err := h.knowledgeService.CreateWebsite(c.UserContext(), tenant.WorkspaceID(c), &req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(source)
}

// CreateDocument godoc
// @Summary Add a document source by URL
// @Tags Knowledge Base
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param request body models.KnowledgeDocumentRequest true "Document"
// @Success 201 {object} models.KnowledgeSource
// @Router /knowledge/documents [post]
func (h *KnowledgeHandler) CreateDocument(c *fiber.Ctx) error {
	var req models.KnowledgeDocumentRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	source, err := h.knowledgeService.CreateDocument(c.UserContext(), tenant.WorkspaceID(c), &req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(source)
}

// GetSource godoc
// @Summary Get a knowledge source
// @Tags Knowledge Base
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Source ID"
// @Success 200 {object} models.KnowledgeSource
// @Failure 404 {object} map[string]interface{}
// @Router /knowledge/{id} [get]
func (h *KnowledgeHandler) GetSource(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Knowledge source")
	if err != nil {
		return utils.RespondError(c, err)
	}
	source, err := h.knowledgeService.Get(c.UserContext(), tenant.WorkspaceID(c), id)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(source)
}

// DeleteSource godoc
// @Summary Delete a knowledge source
// @Tags Knowledge Base
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Source ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /knowledge/{id} [delete]
func (h *KnowledgeHandler) DeleteSource(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Knowledge source")
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := h.knowledgeService.Delete(c.UserContext(), tenant.WorkspaceID(c), id); err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Knowledge source deleted"})
}

// Resync godoc
// @Summary Reprocess a knowledge source
// @Tags Knowledge Base
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Source ID"
// @Success 200 {object} models.KnowledgeSource
// @Failure 404 {object} map[string]interface{}
// @Router /knowledge/{id}/resync [post]
func (h *KnowledgeHandler) Resync(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Knowledge source")
	if err != nil {
		return utils.RespondError(c, err)
	}
	source, err := h.knowledgeService.Resync(c.UserContext(), tenant.WorkspaceID(c), id)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(source)
}

// Query godoc
// @Summary Query the knowledge base
// @Tags Knowledge Base
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param request body models.KnowledgeQueryRequest true "Query"
// @Success 200 {object} models.KnowledgeQueryResponse
// @Router /knowledge/query [post]
func (h *KnowledgeHandler) Query(c *fiber.Ctx) error {
	var req models.KnowledgeQueryRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(h.knowledgeService.Query(c.UserContext(), tenant.WorkspaceID(c), &req))
}
