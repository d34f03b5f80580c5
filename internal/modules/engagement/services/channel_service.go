package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/tenant"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
)

type ChannelService struct {
	repo  repositories.ChannelRepo
	guard *tenant.Guard
	audit *audit.Service
}

func NewChannelService(repo repositories.ChannelRepo, guard *tenant.Guard, auditService *audit.Service) *ChannelService {
	return &ChannelService{repo: repo, guard: guard, audit: auditService}
}

// List returns the workspace's channels with credentials masked.
func (s *ChannelService) List(ctx context.Context, workspaceID uuid.UUID) ([]models.Channel, error) {
	channels, err := s.repo.List(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	for i := range channels {
		channels[i] = channels[i].Masked()
	}
	return channels, nil
}

func (s *ChannelService) ConnectWhatsApp(ctx context.Context, userID, workspaceID uuid.UUID, req *models.ConnectWhatsAppRequest) (*models.Channel, error) {
	name := "WhatsApp (" + last4(req.PhoneNumberID) + ")"
	if req.Name != nil && *req.Name != "" {
		name = *req.Name
	}
	config := datatypes.JSONMap{}
	if req.BusinessAccountID != nil {
		config["business_account_id"] = *req.BusinessAccountID
	}
	return s.connect(ctx, userID, workspaceID, models.ChannelWhatsApp, req.PhoneNumberID, req.AccessToken, name, config)
}

// ConnectPage connects an Instagram or Messenger page.
func (s *ChannelService) ConnectPage(ctx context.Context, userID, workspaceID uuid.UUID, channelType models.ChannelType, req *models.ConnectPageRequest) (*models.Channel, error) {
	label := "Messenger"
	if channelType == models.ChannelInstagram {
		label = "Instagram"
	}
	name := label + " (" + last4(req.PageID) + ")"
	if req.Name != nil && *req.Name != "" {
		name = *req.Name
	}
	return s.connect(ctx, userID, workspaceID, channelType, req.PageID, req.AccessToken, name, datatypes.JSONMap{})
}

// connect registers the channel, or refreshes the credentials of the
// workspace's existing channel with the same external id.
func (s *ChannelService) connect(ctx context.Context, userID, workspaceID uuid.UUID, channelType models.ChannelType, externalID, token, name string, config datatypes.JSONMap) (*models.Channel, error) {
	channel, err := s.repo.GetByExternalID(ctx, workspaceID, channelType, externalID)
	switch {
	case err == nil:
		channel, err = s.repo.Update(ctx, workspaceID, channel.ID, models.Fields{
			"name":         name,
			"access_token": token,
			"config":       config,
			"status":       models.ChannelStatusConnected,
			"is_active":    true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to update channel: %w", err)
		}
	case repositories.IsNotFound(err):
		channel = &models.Channel{
			WorkspaceID: workspaceID,
			ChannelType: channelType,
			Name:        name,
			ExternalID:  &externalID,
			AccessToken: &token,
			Config:      config,
			Status:      models.ChannelStatusConnected,
			IsActive:    true,
		}
		if err := s.repo.Create(ctx, channel); err != nil {
			return nil, fmt.Errorf("failed to create channel: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to look up channel: %w", err)
	}

	s.invalidate(ctx, channel)
	recordAudit(ctx, s.audit, audit.Entry{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Action:      audit.ActionChannelConnected,
		EntityType:  "channel",
		EntityID:    channel.ID.String(),
		NewValue:    map[string]interface{}{"channel_type": channelType, "external_id": externalID},
	})
	return channel, nil
}

// Toggle flips is_active.
func (s *ChannelService) Toggle(ctx context.Context, workspaceID, id uuid.UUID) (*models.Channel, error) {
	channel, err := s.repo.GetByID(ctx, workspaceID, id)
	if err != nil {
		return nil, notFound(err, "Channel")
	}
	channel, err = s.repo.Update(ctx, workspaceID, id, models.Fields{"is_active": !channel.IsActive})
	if err != nil {
		return nil, notFound(err, "Channel")
	}
	s.invalidate(ctx, channel)
	return channel, nil
}

// Disconnect keeps the channel row but clears its credentials.
func (s *ChannelService) Disconnect(ctx context.Context, userID, workspaceID, id uuid.UUID) error {
	channel, err := s.repo.Update(ctx, workspaceID, id, models.Fields{
		"status":        models.ChannelStatusDisconnected,
		"is_active":     false,
		"access_token":  nil,
		"refresh_token": nil,
	})
	if err != nil {
		return notFound(err, "Channel")
	}
	s.invalidate(ctx, channel)
	recordAudit(ctx, s.audit, audit.Entry{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Action:      audit.ActionChannelDisconnect,
		EntityType:  "channel",
		EntityID:    id.String(),
	})
	return nil
}

func (s *ChannelService) Delete(ctx context.Context, userID, workspaceID, id uuid.UUID) error {
	channel, err := s.repo.GetByID(ctx, workspaceID, id)
	if err != nil {
		return notFound(err, "Channel")
	}
	if err := s.repo.Delete(ctx, workspaceID, id); err != nil {
		return notFound(err, "Channel")
	}
	s.invalidate(ctx, channel)
	recordAudit(ctx, s.audit, audit.Entry{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Action:      audit.ActionChannelDeleted,
		EntityType:  "channel",
		EntityID:    id.String(),
		OldValue:    map[string]interface{}{"channel_type": channel.ChannelType, "name": channel.Name},
	})
	return nil
}

func (s *ChannelService) invalidate(ctx context.Context, channel *models.Channel) {
	if s.guard == nil || channel.ExternalID == nil {
		return
	}
	s.guard.InvalidateChannel(ctx, string(channel.ChannelType), *channel.ExternalID)
}

func last4(s string) string {
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}
