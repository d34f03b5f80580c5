package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/auth"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/apperr"
)

const maxSlugLength = 50

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9\s_-]`)
	slugSeparators   = regexp.MustCompile(`[\s_-]+`)
)

type WorkspaceService struct {
	repo     repositories.WorkspaceRepo
	users    *auth.Repository
	audit    *audit.Service
	notifier Notifier
}

func NewWorkspaceService(repo repositories.WorkspaceRepo, users *auth.Repository, auditService *audit.Service, notifier Notifier) *WorkspaceService {
	return &WorkspaceService{
		repo:     repo,
		users:    users,
		audit:    auditService,
		notifier: notifier,
	}
}

// Slugify lowercases name, drops punctuation and joins words with "-".
func Slugify(name string) string {
	slug := slugInvalidChars.ReplaceAllString(strings.ToLower(name), "")
	slug = slugSeparators.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	if slug == "" {
		slug = "workspace"
	}
	return slug
}

func (s *WorkspaceService) List(ctx context.Context, userID uuid.UUID) ([]models.Workspace, error) {
	workspaces, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	return workspaces, nil
}

// Create makes userID the owner of a new workspace. A taken slug gets the
// first 8 characters of the user id appended.
func (s *WorkspaceService) Create(ctx context.Context, userID uuid.UUID, req *models.CreateWorkspaceRequest) (*models.Workspace, error) {
	slug := Slugify(req.Name)
	exists, err := s.repo.SlugExists(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}
	if exists {
		slug = slug + "-" + userID.String()[:8]
	}

	workspace := &models.Workspace{
		Name:    req.Name,
		Slug:    slug,
		OwnerID: userID,
	}
	if err := s.repo.Create(ctx, workspace); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	log.Info().Str("workspace_id", workspace.ID.String()).Str("slug", slug).Msg("Workspace created")
	return workspace, nil
}

// Get returns the workspace if userID is a member of it.
func (s *WorkspaceService) Get(ctx context.Context, userID, workspaceID uuid.UUID) (*models.Workspace, error) {
	if _, err := s.member(ctx, workspaceID, userID); err != nil {
		return nil, err
	}
	workspace, err := s.repo.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, notFound(err, "Workspace")
	}
	return workspace, nil
}

func (s *WorkspaceService) Update(ctx context.Context, userID, workspaceID uuid.UUID, req *models.UpdateWorkspaceRequest) (*models.Workspace, error) {
	member, err := s.member(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	if !isManager(member.Role) {
		return nil, apperr.NotFound("Workspace")
	}

	workspace, err := s.repo.Update(ctx, workspaceID, req.Changes())
	if err != nil {
		return nil, notFound(err, "Workspace")
	}
	return workspace, nil
}

// Delete removes the workspace and, through cascades, everything it owns.
// Only the owner may do this.
func (s *WorkspaceService) Delete(ctx context.Context, userID, workspaceID uuid.UUID) error {
	member, err := s.member(ctx, workspaceID, userID)
	if err != nil {
		return err
	}
	if member.Role != models.MemberRoleOwner {
		return apperr.Forbidden("Only the workspace owner can delete it")
	}

	if err := s.repo.Delete(ctx, workspaceID); err != nil {
		return notFound(err, "Workspace")
	}
	log.Info().Str("workspace_id", workspaceID.String()).Msg("Workspace deleted")
	return nil
}

func (s *WorkspaceService) ListMembers(ctx context.Context, userID, workspaceID uuid.UUID) ([]models.MemberView, error) {
	if _, err := s.member(ctx, workspaceID, userID); err != nil {
		return nil, err
	}
	members, err := s.repo.ListMembers(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// Invite adds an existing user to the workspace and emails them. Unknown
// addresses only receive the invitation email. Returns the message shown to
// the caller.
func (s *WorkspaceService) Invite(ctx context.Context, inviterID, workspaceID uuid.UUID, req *models.InviteMemberRequest) (string, error) {
	if err := s.requireManager(ctx, workspaceID, inviterID); err != nil {
		return "", err
	}

	workspace, err := s.repo.GetByID(ctx, workspaceID)
	if err != nil {
		return "", notFound(err, "Workspace")
	}
	inviterName := ""
	if inviter, err := s.users.GetUserByID(ctx, inviterID); err == nil {
		inviterName = inviter.FullName
	}

	invitee, err := s.users.GetUserByEmail(ctx, req.Email)
	if repositories.IsNotFound(err) {
		s.sendInvite(ctx, req.Email, workspace.Name, inviterName)
		return fmt.Sprintf("Invitation sent to %s", req.Email), nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	if _, err := s.repo.GetMember(ctx, workspaceID, invitee.ID); err == nil {
		return "", apperr.BadRequest("User is already a member")
	} else if !repositories.IsNotFound(err) {
		return "", err
	}

	role := req.Role
	if role == "" {
		role = models.MemberRoleMember
	}
	now := time.Now().UTC()
	member := &models.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      invitee.ID,
		Role:        role,
		InvitedBy:   &inviterID,
		JoinedAt:    &now,
	}
	if err := s.repo.AddMember(ctx, member); err != nil {
		return "", fmt.Errorf("failed to add member: %w", err)
	}

	s.record(ctx, audit.Entry{
		WorkspaceID: workspaceID,
		UserID:      inviterID,
		Action:      audit.ActionMemberAdded,
		EntityType:  "workspace_member",
		EntityID:    invitee.ID.String(),
		NewValue:    map[string]interface{}{"email": invitee.Email, "role": role},
	})
	s.sendInvite(ctx, invitee.Email, workspace.Name, inviterName)

	return fmt.Sprintf("User %s added to workspace", invitee.Email), nil
}

// RemoveMember removes memberUserID from the workspace. The owner cannot be
// removed.
func (s *WorkspaceService) RemoveMember(ctx context.Context, actorID, workspaceID, memberUserID uuid.UUID) error {
	if err := s.requireManager(ctx, workspaceID, actorID); err != nil {
		return err
	}

	member, err := s.repo.GetMember(ctx, workspaceID, memberUserID)
	if err != nil {
		return notFound(err, "Member")
	}
	if member.Role == models.MemberRoleOwner {
		return apperr.BadRequest("Cannot remove workspace owner")
	}

	if err := s.repo.RemoveMember(ctx, workspaceID, memberUserID); err != nil {
		return notFound(err, "Member")
	}

	s.record(ctx, audit.Entry{
		WorkspaceID: workspaceID,
		UserID:      actorID,
		Action:      audit.ActionMemberRemoved,
		EntityType:  "workspace_member",
		EntityID:    memberUserID.String(),
		OldValue:    map[string]interface{}{"role": member.Role},
	})
	return nil
}

// member returns the caller's membership. Non-members see the workspace as
// absent.
func (s *WorkspaceService) member(ctx context.Context, workspaceID, userID uuid.UUID) (*models.WorkspaceMember, error) {
	member, err := s.repo.GetMember(ctx, workspaceID, userID)
	if err != nil {
		return nil, notFound(err, "Workspace")
	}
	return member, nil
}

func (s *WorkspaceService) requireManager(ctx context.Context, workspaceID, userID uuid.UUID) error {
	member, err := s.repo.GetMember(ctx, workspaceID, userID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return apperr.Forbidden("Access denied")
		}
		return err
	}
	if !isManager(member.Role) {
		return apperr.Forbidden("Access denied")
	}
	return nil
}

func (s *WorkspaceService) sendInvite(ctx context.Context, to, workspaceName, inviterName string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendInviteEmail(ctx, to, workspaceName, inviterName); err != nil {
		log.Warn().Err(err).Str("email", to).Msg("invite email not sent")
	}
}

func (s *WorkspaceService) record(ctx context.Context, e audit.Entry) {
	recordAudit(ctx, s.audit, e)
}

func isManager(role models.MemberRole) bool {
	return role == models.MemberRoleOwner || role == models.MemberRoleAdmin
}
