package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
)

type KnowledgeRepo interface {
	Create(ctx context.Context, source *models.KnowledgeSource) error
	GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*models.KnowledgeSource, error)
	List(ctx context.Context, workspaceID uuid.UUID, sourceType string, skip, limit int) ([]models.KnowledgeSource, error)
	Update(ctx context.Context, workspaceID, id uuid.UUID, changes models.Fields) (*models.KnowledgeSource, error)
	Delete(ctx context.Context, workspaceID, id uuid.UUID) error
}

type knowledgeRepo struct {
	db *gorm.DB
}

func NewKnowledgeRepo(db *gorm.DB) KnowledgeRepo {
	return &knowledgeRepo{db: db}
}

func (r *knowledgeRepo) Create(ctx context.Context, source *models.KnowledgeSource) error {
	return r.db.WithContext(ctx).Create(source).Error
}

func (r *knowledgeRepo) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*models.KnowledgeSource, error) {
	var source models.KnowledgeSource
	if err := findScoped(ctx, r.db, &source, id, workspaceID); err != nil {
		return nil, err
	}
	return &source, nil
}

func (r *knowledgeRepo) List(ctx context.Context, workspaceID uuid.UUID, sourceType string, skip, limit int) ([]models.KnowledgeSource, error) {
	query := scoped(ctx, r.db, workspaceID)
	if sourceType != "" {
		query = query.Where("source_type = ?", sourceType)
	}

	var sources []models.KnowledgeSource
	err := paginate(query, skip, limit).Order("created_at DESC").Find(&sources).Error
	return sources, err
}

func (r *knowledgeRepo) Update(ctx context.Context, workspaceID, id uuid.UUID, changes models.Fields) (*models.KnowledgeSource, error) {
	var source models.KnowledgeSource
	if err := updateScoped(ctx, r.db, &source, id, workspaceID, changes); err != nil {
		return nil, err
	}
	return &source, nil
}

func (r *knowledgeRepo) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	return deleteScoped(ctx, r.db, &models.KnowledgeSource{}, id, workspaceID)
}
