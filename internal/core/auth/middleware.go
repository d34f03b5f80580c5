package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/apperr"
)

// TokenValidator is the part of Service the middleware needs.
type TokenValidator interface {
	ValidateToken(accessToken string) (*TokenClaims, error)
}

// AuthMiddleware validates the bearer token and stores the caller in Locals.
func AuthMiddleware(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format. Use: Bearer <token>",
			})
		}

		claims, err := validator.ValidateToken(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Could not validate credentials",
			})
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Could not validate credentials",
			})
		}

		c.Locals("userID", userID)
		c.Locals("email", claims.Email)

		return c.Next()
	}
}

// UserID returns the authenticated caller stored by AuthMiddleware.
func UserID(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := c.Locals("userID").(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, apperr.Unauthorized("Unauthorized")
	}
	return id, nil
}
