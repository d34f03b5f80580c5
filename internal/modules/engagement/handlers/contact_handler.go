package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/export"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/tenant"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/services"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/apperr"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/utils"
)

type ContactHandler struct {
	contactService *services.ContactService
}

func NewContactHandler(contactService *services.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

func (h *ContactHandler) RegisterRoutes(r fiber.Router) {
	contacts := r.Group("/contacts")
	contacts.Get("/", h.ListContacts)
	contacts.Post("/", h.CreateContact)
	contacts.Post("/import", h.ImportContacts)
	contacts.Get("/export", h.ExportContacts)
	contacts.Get("/:id", h.GetContact)
	contacts.Put("/:id", h.UpdateContact)
	contacts.Delete("/:id", h.DeleteContact)
}

func contactFilter(c *fiber.Ctx) models.ContactFilter {
	skip, limit := utils.Pagination(c)
	return models.ContactFilter{
		WorkspaceID: tenant.WorkspaceID(c),
		Stage:       c.Query("stage"),
		Tag:         c.Query("tag"),
		Search:      c.Query("search"),
		Skip:        skip,
		Limit:       limit,
	}
}

// ListContacts godoc
// @Summary List contacts
// @Description Search matches first name, last name, email, phone and company.
// @Tags Contacts
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param stage query string false "Lifecycle stage"
// @Param tag query string false "Tag"
// @Param search query string false "Search text"
// @Param skip query int false "Offset"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {array} models.Contact
// @Router /contacts [get]
func (h *ContactHandler) ListContacts(c *fiber.Ctx) error {
	contacts, err := h.contactService.List(c.UserContext(), contactFilter(c))
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(contacts)
}

// CreateContact godoc
// @Summary Create a contact
// @Tags Contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param request body models.CreateContactRequest true "Contact"
// @Success 201 {object} models.Contact
// @Failure 400 {object} map[string]interface{}
// @Router /contacts [post]
func (h *ContactHandler) CreateContact(c *fiber.Ctx) error {
	var req models.CreateContactRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	contact, err := h.contactService.Create(c.UserContext(), tenant.WorkspaceID(c), &req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(contact)
}

// GetContact godoc
// @Summary Get a contact
// @Tags Contacts
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Contact ID"
// @Success 200 {object} models.Contact
// @Failure 404 {object} map[string]interface{}
// @Router /contacts/{id} [get]
func (h *ContactHandler) GetContact(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Contact")
	if err != nil {
		return utils.RespondError(c, err)
	}
	contact, err := h.contactService.Get(c.UserContext(), tenant.WorkspaceID(c), id)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(contact)
}

// UpdateContact godoc
// @Summary Update a contact
// @Tags Contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Contact ID"
// @Param request body models.UpdateContactRequest true "Fields to change"
// @Success 200 {object} models.Contact
// @Failure 404 {object} map[string]interface{}
// @Router /contacts/{id} [put]
func (h *ContactHandler) UpdateContact(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Contact")
	if err != nil {
		return utils.RespondError(c, err)
	}
	var req models.UpdateContactRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	contact, err := h.contactService.Update(c.UserContext(), tenant.WorkspaceID(c), id, &req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(contact)
}

// DeleteContact godoc
// @Summary Delete a contact
// @Tags Contacts
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param id path string true "Contact ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /contacts/{id} [delete]
func (h *ContactHandler) DeleteContact(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id", "Contact")
	if err != nil {
		return utils.RespondError(c, err)
	}
	if err := h.contactService.Delete(c.UserContext(), tenant.WorkspaceID(c), id); err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Contact deleted"})
}

// ImportContacts godoc
// @Summary Bulk import contacts
// @Tags Contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param request body models.ContactImportRequest true "Contacts"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /contacts/import [post]
func (h *ContactHandler) ImportContacts(c *fiber.Ctx) error {
	var req models.ContactImportRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}
	count, err := h.contactService.Import(c.UserContext(), tenant.WorkspaceID(c), &req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Imported %d contacts", count),
		"count":   count,
	})
}

// ExportContacts godoc
// @Summary Export contacts
// @Description Downloads the filtered contacts as an attachment.
// @Tags Contacts
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param X-Workspace-Id header string true "Workspace ID"
// @Param format query string false "xlsx, csv or pdf" default(xlsx)
// @Param stage query string false "Lifecycle stage"
// @Param tag query string false "Tag"
// @Param search query string false "Search text"
// @Success 200 {file} file
// @Failure 400 {object} map[string]interface{}
// @Router /contacts/export [get]
func (h *ContactHandler) ExportContacts(c *fiber.Ctx) error {
	format, ok := export.ParseFormat(c.Query("format"))
	if !ok {
		return utils.RespondError(c, apperr.BadRequest("Unsupported export format '%s'", c.Query("format")))
	}

	body, contentType, filename, err := h.contactService.Export(c.UserContext(), contactFilter(c), format)
	if err != nil {
		return utils.RespondError(c, err)
	}

	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(body)
}
