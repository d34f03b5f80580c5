package utils

import (
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/apperr"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the process wide validator instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ParseAndValidate decodes the JSON body into dst and runs struct validation.
func ParseAndValidate(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return apperr.BadRequest("Invalid request body")
	}
	if err := Validator().Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return apperr.BadRequest("Invalid value for field '%s': failed '%s' check", jsonFieldName(fe), fe.Tag())
		}
		return apperr.BadRequest("%s", err.Error())
	}
	return nil
}

func jsonFieldName(fe validator.FieldError) string {
	name := fe.Field()
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// RespondError writes err as {"error": detail} with the status of its kind.
// Unclassified errors are logged and hidden behind a generic message.
func RespondError(c *fiber.Ctx, err error) error {
	status := apperr.Status(err)
	if status == fiber.StatusInternalServerError && !errors.Is(err, apperr.ErrUpstream) {
		LogError("request failed", err, map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
		})
		return c.Status(status).JSON(fiber.Map{"error": "Internal server error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// ParamUUID parses a path parameter as a UUID. A malformed id is reported as
// not found so ids never leak whether a row exists.
func ParamUUID(c *fiber.Ctx, name, entity string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.NotFound(entity)
	}
	return id, nil
}

// QueryUUID parses an optional UUID query parameter.
func QueryUUID(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.BadRequest("Invalid %s", name)
	}
	return &id, nil
}

// Pagination reads skip/limit query parameters. limit is clamped to 1..100
// and defaults to 50.
func Pagination(c *fiber.Ctx) (skip, limit int) {
	skip, _ = strconv.Atoi(c.Query("skip", "0"))
	if skip < 0 {
		skip = 0
	}
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit < 1 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	return skip, limit
}
