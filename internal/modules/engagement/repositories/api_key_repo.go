package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
)

type APIKeyRepo interface {
	Create(ctx context.Context, key *models.APIKey) error
	ListForUser(ctx context.Context, workspaceID, userID uuid.UUID) ([]models.APIKey, error)
	Delete(ctx context.Context, workspaceID, userID, id uuid.UUID) error
}

type apiKeyRepo struct {
	db *gorm.DB
}

func NewAPIKeyRepo(db *gorm.DB) APIKeyRepo {
	return &apiKeyRepo{db: db}
}

func (r *apiKeyRepo) Create(ctx context.Context, key *models.APIKey) error {
	return r.db.WithContext(ctx).Create(key).Error
}

func (r *apiKeyRepo) ListForUser(ctx context.Context, workspaceID, userID uuid.UUID) ([]models.APIKey, error) {
	var keys []models.APIKey
	err := scoped(ctx, r.db, workspaceID).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&keys).Error
	return keys, err
}

// Delete removes a key only when the caller owns it.
func (r *apiKeyRepo) Delete(ctx context.Context, workspaceID, userID, id uuid.UUID) error {
	res := scoped(ctx, r.db, workspaceID).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.APIKey{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
