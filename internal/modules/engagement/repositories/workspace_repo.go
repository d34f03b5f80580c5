package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
)

type WorkspaceRepo interface {
	Create(ctx context.Context, workspace *models.Workspace) error
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Workspace, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error)
	Update(ctx context.Context, id uuid.UUID, changes models.Fields) (*models.Workspace, error)
	Delete(ctx context.Context, id uuid.UUID) error

	GetMember(ctx context.Context, workspaceID, userID uuid.UUID) (*models.WorkspaceMember, error)
	ListMembers(ctx context.Context, workspaceID uuid.UUID) ([]models.MemberView, error)
	AddMember(ctx context.Context, member *models.WorkspaceMember) error
	RemoveMember(ctx context.Context, workspaceID, userID uuid.UUID) error
}

type workspaceRepo struct {
	db *gorm.DB
}

func NewWorkspaceRepo(db *gorm.DB) WorkspaceRepo {
	return &workspaceRepo{db: db}
}

// Create inserts the workspace and its owner membership together.
func (r *workspaceRepo) Create(ctx context.Context, workspace *models.Workspace) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(workspace).Error; err != nil {
			return err
		}
		now := time.Now().UTC()
		return tx.Create(&models.WorkspaceMember{
			WorkspaceID: workspace.ID,
			UserID:      workspace.OwnerID,
			Role:        models.MemberRoleOwner,
			JoinedAt:    &now,
		}).Error
	})
}

func (r *workspaceRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Workspace{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *workspaceRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Workspace, error) {
	var workspaces []models.Workspace
	err := r.db.WithContext(ctx).
		Joins("JOIN workspace_members ON workspace_members.workspace_id = workspaces.id").
		Where("workspace_members.user_id = ?", userID).
		Order("workspaces.created_at ASC").
		Find(&workspaces).Error
	return workspaces, err
}

func (r *workspaceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	var workspace models.Workspace
	if err := r.db.WithContext(ctx).First(&workspace, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &workspace, nil
}

func (r *workspaceRepo) Update(ctx context.Context, id uuid.UUID, changes models.Fields) (*models.Workspace, error) {
	workspace, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return workspace, nil
	}
	if err := r.db.WithContext(ctx).Model(workspace).Updates(map[string]interface{}(changes)).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *workspaceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Workspace{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *workspaceRepo) GetMember(ctx context.Context, workspaceID, userID uuid.UUID) (*models.WorkspaceMember, error) {
	var member models.WorkspaceMember
	err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *workspaceRepo) ListMembers(ctx context.Context, workspaceID uuid.UUID) ([]models.MemberView, error) {
	var members []models.MemberView
	err := r.db.WithContext(ctx).
		Table("workspace_members").
		Select(`workspace_members.id, workspace_members.user_id, workspace_members.role,
			workspace_members.joined_at, users.email AS user_email, users.full_name AS user_name`).
		Joins("JOIN users ON users.id = workspace_members.user_id").
		Where("workspace_members.workspace_id = ?", workspaceID).
		Order("workspace_members.created_at ASC").
		Scan(&members).Error
	return members, err
}

func (r *workspaceRepo) AddMember(ctx context.Context, member *models.WorkspaceMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *workspaceRepo) RemoveMember(ctx context.Context, workspaceID, userID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Delete(&models.WorkspaceMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
