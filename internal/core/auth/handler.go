package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/utils"
)

type Handler struct {
	authService *Service
}

func NewHandler(authService *Service) *Handler {
	return &Handler{authService: authService}
}

// RegisterRoutes mounts the public auth routes and the authenticated profile routes.
func (h *Handler) RegisterRoutes(r fiber.Router, requireAuth fiber.Handler) {
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/refresh", h.RefreshToken)
	r.Post("/auth/logout", requireAuth, h.Logout)
	r.Get("/auth/me", requireAuth, h.Me)

	r.Get("/users/me", requireAuth, h.Me)
	r.Put("/users/me", requireAuth, h.UpdateMe)
}

// Register godoc
// @Summary Register new user
// @Description Create a new user account with email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration details"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Router /auth/register [post]
func (h *Handler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}

	authResponse, err := h.authService.Register(c.UserContext(), &req)
	if err != nil {
		return utils.RespondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(authResponse)
}

// Login godoc
// @Summary Login with email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} map[string]interface{}
// @Router /auth/login [post]
func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}

	authResponse, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(authResponse)
}

// RefreshToken godoc
// @Summary Refresh access token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest true "Refresh token"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} map[string]interface{}
// @Router /auth/refresh [post]
func (h *Handler) RefreshToken(c *fiber.Ctx) error {
	var req RefreshTokenRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}

	authResponse, err := h.authService.RefreshToken(c.UserContext(), req.RefreshToken)
	if err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(authResponse)
}

// Logout godoc
// @Summary Logout user
// @Description Revoke the caller's refresh token
// @Tags Authentication
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /auth/logout [post]
func (h *Handler) Logout(c *fiber.Ctx) error {
	userID, err := UserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}

	if err := h.authService.Logout(c.UserContext(), userID); err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// Me godoc
// @Summary Get current user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} User
// @Router /users/me [get]
func (h *Handler) Me(c *fiber.Ctx) error {
	userID, err := UserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}

	user, err := h.authService.GetUser(c.UserContext(), userID)
	if err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(user)
}

// UpdateMe godoc
// @Summary Update current user profile
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "Fields to change"
// @Success 200 {object} User
// @Router /users/me [put]
func (h *Handler) UpdateMe(c *fiber.Ctx) error {
	userID, err := UserID(c)
	if err != nil {
		return utils.RespondError(c, err)
	}

	var req UpdateProfileRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.RespondError(c, err)
	}

	user, err := h.authService.UpdateProfile(c.UserContext(), userID, &req)
	if err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(user)
}
