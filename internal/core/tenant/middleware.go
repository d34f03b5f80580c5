package tenant

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/auth"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/apperr"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/utils"
)

// HeaderWorkspaceID carries the workspace a request acts on.
const HeaderWorkspaceID = "X-Workspace-Id"

const (
	localWorkspaceID = "workspaceID"
	localMemberRole  = "memberRole"
)

// RequireWorkspace must run after auth.AuthMiddleware. It checks the caller's
// membership in the workspace named by the X-Workspace-Id header.
func RequireWorkspace(g *Guard) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(HeaderWorkspaceID)
		if raw == "" {
			return utils.RespondError(c, apperr.BadRequest("Missing %s header", HeaderWorkspaceID))
		}
		workspaceID, err := uuid.Parse(raw)
		if err != nil {
			return utils.RespondError(c, apperr.BadRequest("Invalid %s header", HeaderWorkspaceID))
		}

		userID, err := auth.UserID(c)
		if err != nil {
			return utils.RespondError(c, err)
		}

		membership, err := g.Authorize(c.UserContext(), userID, workspaceID)
		if err != nil {
			return utils.RespondError(c, err)
		}

		c.Locals(localWorkspaceID, membership.WorkspaceID)
		c.Locals(localMemberRole, membership.Role)
		return c.Next()
	}
}

// RequireWorkspaceRole rejects members whose role is not in roles.
func RequireWorkspaceRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := MemberRole(c)
		for _, r := range roles {
			if r == role {
				return c.Next()
			}
		}
		return utils.RespondError(c, apperr.Forbidden("Insufficient workspace permissions"))
	}
}

// WorkspaceID returns the workspace resolved by RequireWorkspace.
func WorkspaceID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(localWorkspaceID).(uuid.UUID)
	return id
}

// MemberRole returns the caller's role in the current workspace.
func MemberRole(c *fiber.Ctx) string {
	role, _ := c.Locals(localMemberRole).(string)
	return role
}
