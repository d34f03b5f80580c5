package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
)

type ChannelRepo interface {
	Create(ctx context.Context, channel *models.Channel) error
	GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*models.Channel, error)
	GetActive(ctx context.Context, workspaceID uuid.UUID, channelType models.ChannelType) (*models.Channel, error)
	GetByExternalID(ctx context.Context, workspaceID uuid.UUID, channelType models.ChannelType, externalID string) (*models.Channel, error)
	List(ctx context.Context, workspaceID uuid.UUID) ([]models.Channel, error)
	Update(ctx context.Context, workspaceID, id uuid.UUID, changes models.Fields) (*models.Channel, error)
	Delete(ctx context.Context, workspaceID, id uuid.UUID) error
}

type channelRepo struct {
	db *gorm.DB
}

func NewChannelRepo(db *gorm.DB) ChannelRepo {
	return &channelRepo{db: db}
}

func (r *channelRepo) Create(ctx context.Context, channel *models.Channel) error {
	return r.db.WithContext(ctx).Create(channel).Error
}

func (r *channelRepo) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*models.Channel, error) {
	var channel models.Channel
	if err := findScoped(ctx, r.db, &channel, id, workspaceID); err != nil {
		return nil, err
	}
	return &channel, nil
}

// GetActive returns the oldest active, connected channel of channelType.
// Outbound messages are sent through it.
func (r *channelRepo) GetActive(ctx context.Context, workspaceID uuid.UUID, channelType models.ChannelType) (*models.Channel, error) {
	var channel models.Channel
	err := scoped(ctx, r.db, workspaceID).
		Where("channel_type = ? AND is_active = ? AND status = ?", channelType, true, models.ChannelStatusConnected).
		Order("created_at ASC").
		First(&channel).Error
	if err != nil {
		return nil, err
	}
	return &channel, nil
}

func (r *channelRepo) List(ctx context.Context, workspaceID uuid.UUID) ([]models.Channel, error) {
	var channels []models.Channel
	err := scoped(ctx, r.db, workspaceID).Order("created_at ASC").Find(&channels).Error
	return channels, err
}

func (r *channelRepo) Update(ctx context.Context, workspaceID, id uuid.UUID, changes models.Fields) (*models.Channel, error) {
	var channel models.Channel
	if err := updateScoped(ctx, r.db, &channel, id, workspaceID, changes); err != nil {
		return nil, err
	}
	return &channel, nil
}

func (r *channelRepo) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	return deleteScoped(ctx, r.db, &models.Channel{}, id, workspaceID)
}

// GetByExternalID finds the workspace's channel for a phone number or page id.
func (r *channelRepo) GetByExternalID(ctx context.Context, workspaceID uuid.UUID, channelType models.ChannelType, externalID string) (*models.Channel, error) {
	var channel models.Channel
	err := scoped(ctx, r.db, workspaceID).
		Where("channel_type = ? AND external_id = ?", channelType, externalID).
		First(&channel).Error
	if err != nil {
		return nil, err
	}
	return &channel, nil
}
