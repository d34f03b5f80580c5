package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/tenant"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/apperr"
)

// notFound turns a missing-row error into "<entity> not found" and passes
// any other error through.
func notFound(err error, entity string) error {
	if repositories.IsNotFound(err) {
		return apperr.NotFound(entity)
	}
	return err
}

// requireContact checks that contactID names a contact of workspaceID.
func requireContact(ctx context.Context, contacts repositories.ContactRepo, workspaceID, contactID uuid.UUID) error {
	if _, err := contacts.GetByID(ctx, workspaceID, contactID); err != nil {
		return notFound(err, "Contact")
	}
	return nil
}

// requireMember checks that userID is a member of workspaceID. A user outside
// the workspace is reported the same way as a missing one.
func requireMember(ctx context.Context, guard *tenant.Guard, workspaceID, userID uuid.UUID) error {
	if _, err := guard.Authorize(ctx, userID, workspaceID); err != nil {
		if errors.Is(err, apperr.ErrForbidden) {
			return apperr.NotFound("User")
		}
		return err
	}
	return nil
}

// Notifier sends the emails the engagement module triggers. email.Service
// satisfies it.
type Notifier interface {
	SendInviteEmail(ctx context.Context, to, workspaceName, inviterName string) error
	SendEscalationNotification(ctx context.Context, to, conversationID, customerMessage string) error
}

// recordAudit writes e when auditing is configured. Failures are logged only.
func recordAudit(ctx context.Context, a *audit.Service, e audit.Entry) {
	if a == nil {
		return
	}
	if err := a.Record(ctx, e); err != nil {
		log.Warn().Err(err).Str("action", e.Action).Msg("audit log not written")
	}
}
