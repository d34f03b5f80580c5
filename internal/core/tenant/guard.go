package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/cache"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/apperr"
)

// Member roles. Mirrors the role column of workspace_members.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

const channelCacheTTL = 10 * time.Minute

// Membership is the caller's standing in a workspace.
type Membership struct {
	WorkspaceID uuid.UUID
	UserID      uuid.UUID
	Role        string
}

// ChannelRef identifies the workspace a connected channel belongs to.
type ChannelRef struct {
	ID          uuid.UUID `json:"id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	Type        string    `json:"type"`
	ExternalID  string    `json:"external_id"`
}

// Guard resolves workspace context for API requests and webhook events.
type Guard struct {
	db    *gorm.DB
	cache cache.Cache
}

// NewGuard creates a guard reading membership and channel rows from db.
func NewGuard(db *gorm.DB) *Guard {
	return &Guard{db: db}
}

// WithCache enables channel lookup caching. A nil cache disables it.
func (g *Guard) WithCache(c cache.Cache) *Guard {
	g.cache = c
	return g
}

// Authorize allows the request only if userID is a member of workspaceID.
func (g *Guard) Authorize(ctx context.Context, userID, workspaceID uuid.UUID) (*Membership, error) {
	var row struct {
		Role string
	}
	err := g.db.WithContext(ctx).
		Table("workspace_members").
		Select("role").
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Forbidden("Not a member of this workspace")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	return &Membership{WorkspaceID: workspaceID, UserID: userID, Role: row.Role}, nil
}

// ResolveChannel finds the active channel registered under externalID.
// Returns apperr.ErrNotFound when no workspace owns it.
func (g *Guard) ResolveChannel(ctx context.Context, channelType, externalID string) (*ChannelRef, error) {
	key := channelKey(channelType, externalID)
	if ref, ok := g.cachedChannel(ctx, key); ok {
		return ref, nil
	}

	var ref ChannelRef
	err := g.db.WithContext(ctx).
		Table("channels").
		Select("id, workspace_id, channel_type AS type, external_id").
		Where("external_id = ? AND channel_type = ? AND is_active = ?", externalID, channelType, true).
		Order("created_at ASC").
		Take(&ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Channel")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve channel: %w", err)
	}

	g.storeChannel(ctx, key, &ref)
	return &ref, nil
}

// InvalidateChannel drops a cached lookup after a channel changes.
func (g *Guard) InvalidateChannel(ctx context.Context, channelType, externalID string) {
	if g.cache == nil {
		return
	}
	if err := g.cache.Del(ctx, channelKey(channelType, externalID)); err != nil {
		log.Warn().Err(err).Str("external_id", externalID).Msg("Failed to invalidate channel cache")
	}
}

func (g *Guard) cachedChannel(ctx context.Context, key string) (*ChannelRef, bool) {
	if g.cache == nil {
		return nil, false
	}
	raw, err := g.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			log.Warn().Err(err).Str("key", key).Msg("Channel cache read failed")
		}
		return nil, false
	}
	var ref ChannelRef
	if err := json.Unmarshal([]byte(raw), &ref); err != nil {
		return nil, false
	}
	return &ref, true
}

func (g *Guard) storeChannel(ctx context.Context, key string, ref *ChannelRef) {
	if g.cache == nil {
		return
	}
	data, err := json.Marshal(ref)
	if err != nil {
		return
	}
	if err := g.cache.Set(ctx, key, string(data), channelCacheTTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Channel cache write failed")
	}
}

func channelKey(channelType, externalID string) string {
	return "channel:" + channelType + ":" + externalID
}
