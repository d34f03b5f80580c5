package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/tenant"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/services"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/utils"
)

type BillingHandler struct {
	billingService *services.BillingService
}

func NewBillingHandler(billingService *services.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

// RegisterPublicRoutes mounts the plan catalogue, which needs no login.
func (h *BillingHandler) RegisterPublicRoutes(r fiber.Router) {
	r.Get("/billing/plans", h.ListPlans)
}

func (h *BillingHandler) RegisterRoutes(r fiber.Router) {
	billing := r.Group("/billing")
	billing.Get("/subscription", h.GetSubscription)
	billing.Post("/subscribe", h.Subscribe)
	billing.Post("/cancel", h.Cancel)
	billing.Get("/invoices", h.ListInvoices)
}

// ListPlans godoc
// @Summary List plans
// @Tags Billing
// @Produce json
// @Success 200 {array} config.Plan
// @Router /billing/plans [get]
func (h *BillingHandler) ListPlans(c *fiber.Ctx) error {
	return c.JSON(h.billingService.Plans())
}

// GetSubscription godoc
// @Summary Current subscription
// @Description A workspace without a subscription is put on the free plan.
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Success 200 {object} models.Subscription
// @Router /billing/subscription [get]
func (h *BillingHandler) GetSubscription(c *fiber.Ctx) error {
	sub, err := h.billingService.Subscription(c.UserContext(), tenant.WorkspaceID(c))
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(sub)
}

// Subscribe godoc
// @Summary Change plan
// @Tags Billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param request body models.SubscribeRequest true "Plan"
// @Success 200 {object} models.Subscription
// @Failure 400 {object} map[string]interface{}
// @Router /billing/subscribe [post]
func (h *BillingHandler) Subscribe(c *fiber.Ctx) error {
	var req models.SubscribeRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	sub, err := h.billingService.Subscribe(c.UserContext(), tenant.WorkspaceID(c), req.Plan)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(sub)
}

// Cancel godoc
// @Summary Cancel at period end
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /billing/cancel [post]
func (h *BillingHandler) Cancel(c *fiber.Ctx) error {
	if _, err := h.billingService.Cancel(c.UserContext(), tenant.WorkspaceID(c)); err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Subscription will be canceled at end of billing period"})
}

// ListInvoices godoc
// @Summary List invoices
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param skip query int false "Offset"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {array} models.Invoice
// @Router /billing/invoices [get]
func (h *BillingHandler) ListInvoices(c *fiber.Ctx) error {
	skip, limit := utils.Pagination(c)
	invoices, err := h.billingService.Invoices(c.UserContext(), tenant.WorkspaceID(c), skip, limit)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(invoices)
}
