package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/auth"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/tenant"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/services"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/utils"
)

type DealHandler struct {
	dealService *services.DealService
}

func NewDealHandler(dealService *services.DealService) *DealHandler {
	return &DealHandler{dealService: dealService}
}

func (h *DealHandler) RegisterRoutes(r fiber.Router) {
	deals := r.Group("/deals")
	deals.Get("/", h.ListDeals)
	deals.Post("/", h.CreateDeal)
	deals.Get("/pipeline", h.Pipeline)
	deals.Get("/:id", h.GetDeal)
	deals.Put("/:id", h.UpdateDeal)
	deals.Delete("/:id", h.DeleteDeal)
}

// ListDeals godoc
// @Summary List deals
// @Tags Deals
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param stage query string false "Pipeline stage"
// @Param contact_id query string false "Contact ID"
// @Param skip query int false "Offset"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {array} models.Deal
// @Router /deals [get]
func (h *DealHandler) ListDeals(c *fiber.Ctx) error {
	contactID, err := utils.QueryUUID(c, "contact_id")
	if err != nil {
		return utils.RespondError(c, err)
	}
	skip, limit := utils.Pagination(c)

	deals, err := h.dealService.List(c.UserContext(), models.DealFilter{
		WorkspaceID: tenant.WorkspaceID(c),
		Stage:       c.Query("stage"),
		ContactID:   contactID,
		Skip:        skip,
		Limit:       limit,
	})
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(deals)
}

// CreateDeal godoc
// @Summary Create a deal
// @Tags Deals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param request body models.CreateDealRequest true "Deal"
// @Success 201 {object} models.Deal
// @Failure 400 {object} map[string]interface{}
// @Router /deals [post]
func (h *DealHandler) CreateDeal(c *fiber.Ctx) error {
	var req models.CreateDealRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	deal, err := h.dealService.Create(c.UserContext(), tenant.WorkspaceID(c), &req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(deal)
}

// GetDeal godoc
// @Summary Get a deal
// @Tags Deals
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Deal ID"
// @Success 200 {object} models.Deal
// @Failure 404 {object} map[string]interface{}
// @Router /deals/{id} [get]
func (h *DealHandler) GetDeal(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Deal")
	if err != nil {
		return utils.RespondError(c, err)
	}
	deal, err := h.dealService.Get(c.UserContext(), tenant.WorkspaceID(c), id)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(deal)
}

// UpdateDeal godoc
// @Summary Update a deal
// @Description Moving into closed_won or closed_lost stamps closed_at; moving out clears it.
// @Tags Deals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Deal ID"
// @Param request body models.UpdateDealRequest true "Fields to change"
// @Success 200 {object} models.Deal
// @Failure 404 {object} map[string]interface{}
// @Router /deals/{id} [put]
func (h *DealHandler) UpdateDeal(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}
	id, err := utils.ParamUUID(c, "id", "Deal")
	if err != nil {
		return utils.RespondError(c, err)
	}
	var req models.UpdateDealRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	deal, err := h.dealService.Update(c.UserContext(), userID, tenant.WorkspaceID(c), id, &req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(deal)
}

// DeleteDeal godoc
// @Summary Delete a deal
// @Tags Deals
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Deal ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /deals/{id} [delete]
func (h *DealHandler) DeleteDeal(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Deal")
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := h.dealService.Delete(c.UserContext(), tenant.WorkspaceID(c), id); err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Deal deleted"})
}

// Pipeline godoc
// @Summary Pipeline summary
// @Description Deal count and total value per stage.
// @Tags Deals
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Success 200 {array} models.PipelineStage
// @Router /deals/pipeline [get]
func (h *DealHandler) Pipeline(c *fiber.Ctx) error {
	stages, err := h.dealService.Pipeline(c.UserContext(), tenant.WorkspaceID(c))
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(stages)
}
