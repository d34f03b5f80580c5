package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/auth"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/apperr"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/testutil"
)

func newWorkspaceService(f *fixture, notifier Notifier) *WorkspaceService {
	return NewWorkspaceService(repositories.NewWorkspaceRepo(f.db), auth.NewRepository(f.db), audit.NewService(f.db), notifier)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Acme Corp", "acme-corp"},
		{"punctuation", "Toko Budi's Shop!", "toko-budis-shop"},
		{"separators collapse", "a  _-  b", "a-b"},
		{"empty falls back", "!!!", "workspace"},
		{"truncated", strings.Repeat("ab ", 30), strings.Repeat("ab-", 16) + "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slugify(tt.in)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), maxSlugLength)
		})
	}
}

func TestWorkspaceService_CreateWithTakenSlug(t *testing.T) {
	f := newFixture(t)
	svc := newWorkspaceService(f, nil)
	ctx := context.Background()

	first, err := svc.Create(ctx, f.owner.ID, &models.CreateWorkspaceRequest{Name: "Toko Maju"})
	require.NoError(t, err)
	assert.Equal(t, "toko-maju", first.Slug)

	second, err := svc.Create(ctx, f.owner.ID, &models.CreateWorkspaceRequest{Name: "Toko Maju"})
	require.NoError(t, err)
	assert.Equal(t, "toko-maju-"+f.owner.ID.String()[:8], second.Slug)

	member, err := repositories.NewWorkspaceRepo(f.db).GetMember(ctx, second.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MemberRoleOwner, member.Role)
}

func TestWorkspaceService_Invite(t *testing.T) {
	f := newFixture(t)
	notifier := &fakeNotifier{}
	svc := newWorkspaceService(f, notifier)
	ctx := context.Background()
	invitee := testutil.CreateUser(t, f.db, "sales@example.com")

	msg, err := svc.Invite(ctx, f.owner.ID, f.ws.ID, &models.InviteMemberRequest{Email: "nobody@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Invitation sent to nobody@example.com", msg)

	msg, err = svc.Invite(ctx, f.owner.ID, f.ws.ID, &models.InviteMemberRequest{Email: "sales@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "User sales@example.com added to workspace", msg)
	assert.Equal(t, []string{"nobody@example.com", "sales@example.com"}, notifier.invites)

	_, err = svc.Invite(ctx, f.owner.ID, f.ws.ID, &models.InviteMemberRequest{Email: "sales@example.com"})
	assert.ErrorIs(t, err, apperr.ErrBadRequest)

	members, err := svc.ListMembers(ctx, invitee.ID, f.ws.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	// plain members cannot invite
	_, err = svc.Invite(ctx, invitee.ID, f.ws.ID, &models.InviteMemberRequest{Email: "x@example.com"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestWorkspaceService_RemoveMember(t *testing.T) {
	f := newFixture(t)
	svc := newWorkspaceService(f, nil)
	ctx := context.Background()
	admin := testutil.CreateUser(t, f.db, "admin@example.com")
	testutil.AddMember(t, f.db, f.ws.ID, admin.ID, models.MemberRoleAdmin)
	member := testutil.CreateUser(t, f.db, "member@example.com")
	testutil.AddMember(t, f.db, f.ws.ID, member.ID, models.MemberRoleMember)

	err := svc.RemoveMember(ctx, admin.ID, f.ws.ID, f.owner.ID)
	require.ErrorIs(t, err, apperr.ErrBadRequest)
	assert.Equal(t, "Cannot remove workspace owner", err.Error())

	require.NoError(t, svc.RemoveMember(ctx, admin.ID, f.ws.ID, member.ID))
	_, err = svc.Get(ctx, member.ID, f.ws.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.ErrorIs(t, svc.RemoveMember(ctx, admin.ID, f.ws.ID, member.ID), apperr.ErrNotFound)
}

func TestWorkspaceService_OwnerOnlyDelete(t *testing.T) {
	f := newFixture(t)
	svc := newWorkspaceService(f, nil)
	ctx := context.Background()
	admin := testutil.CreateUser(t, f.db, "admin@example.com")
	testutil.AddMember(t, f.db, f.ws.ID, admin.ID, models.MemberRoleAdmin)
	outsider := testutil.CreateUser(t, f.db, "outsider@example.com")

	assert.ErrorIs(t, svc.Delete(ctx, admin.ID, f.ws.ID), apperr.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, outsider.ID, f.ws.ID), apperr.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, f.owner.ID, f.ws.ID))

	_, err := svc.Get(ctx, f.owner.ID, f.ws.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
