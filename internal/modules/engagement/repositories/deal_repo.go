package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
)

type DealRepo interface {
	Create(ctx context.Context, deal *models.Deal) error
	GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*models.Deal, error)
	List(ctx context.Context, filter models.DealFilter) ([]models.Deal, error)
	Update(ctx context.Context, workspaceID, id uuid.UUID, changes models.Fields) (*models.Deal, error)
	Delete(ctx context.Context, workspaceID, id uuid.UUID) error
}

type dealRepo struct {
	db *gorm.DB
}

func NewDealRepo(db *gorm.DB) DealRepo {
	return &dealRepo{db: db}
}

func (r *dealRepo) Create(ctx context.Context, deal *models.Deal) error {
	return r.db.WithContext(ctx).Create(deal).Error
}

func (r *dealRepo) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*models.Deal, error) {
	var deal models.Deal
	if err := findScoped(ctx, r.db, &deal, id, workspaceID); err != nil {
		return nil, err
	}
	return &deal, nil
}

func (r *dealRepo) List(ctx context.Context, filter models.DealFilter) ([]models.Deal, error) {
	query := scoped(ctx, r.db, filter.WorkspaceID)

	if filter.Stage != "" {
		query = query.Where("stage = ?", filter.Stage)
	}
	if filter.ContactID != nil {
		query = query.Where("contact_id = ?", *filter.ContactID)
	}

	var deals []models.Deal
	err := paginate(query, filter.Skip, filter.Limit).
		Order("created_at DESC").
		Find(&deals).Error
	return deals, err
}

func (r *dealRepo) Update(ctx context.Context, workspaceID, id uuid.UUID, changes models.Fields) (*models.Deal, error) {
	var deal models.Deal
	if err := updateScoped(ctx, r.db, &deal, id, workspaceID, changes); err != nil {
		return nil, err
	}
	return &deal, nil
}

func (r *dealRepo) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	return deleteScoped(ctx, r.db, &models.Deal{}, id, workspaceID)
}
