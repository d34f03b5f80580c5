package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
)

type AutomationRepo interface {
	Create(ctx context.Context, automation *models.Automation) error
	GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*models.Automation, error)
	List(ctx context.Context, workspaceID uuid.UUID, status string, skip, limit int) ([]models.Automation, error)
	ListActiveByTrigger(ctx context.Context, workspaceID uuid.UUID, triggerType string) ([]models.Automation, error)
	Update(ctx context.Context, workspaceID, id uuid.UUID, changes models.Fields) (*models.Automation, error)
	Delete(ctx context.Context, workspaceID, id uuid.UUID) error

	RecordRun(ctx context.Context, log *models.AutomationLog) error
	ListLogs(ctx context.Context, automationID uuid.UUID, skip, limit int) ([]models.AutomationLog, error)
}

type automationRepo struct {
	db *gorm.DB
}

func NewAutomationRepo(db *gorm.DB) AutomationRepo {
	return &automationRepo{db: db}
}

func (r *automationRepo) Create(ctx context.Context, automation *models.Automation) error {
	return r.db.WithContext(ctx).Create(automation).Error
}

func (r *automationRepo) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*models.Automation, error) {
	var automation models.Automation
	if err := findScoped(ctx, r.db, &automation, id, workspaceID); err != nil {
		return nil, err
	}
	return &automation, nil
}

func (r *automationRepo) List(ctx context.Context, workspaceID uuid.UUID, status string, skip, limit int) ([]models.Automation, error) {
	query := scoped(ctx, r.db, workspaceID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var automations []models.Automation
	err := paginate(query, skip, limit).Order("created_at DESC").Find(&automations).Error
	return automations, err
}

func (r *automationRepo) ListActiveByTrigger(ctx context.Context, workspaceID uuid.UUID, triggerType string) ([]models.Automation, error) {
	var automations []models.Automation
	err := scoped(ctx, r.db, workspaceID).
		Where("trigger_type = ? AND status = ?", triggerType, models.AutomationActive).
		Order("created_at ASC").
		Find(&automations).Error
	return automations, err
}

func (r *automationRepo) Update(ctx context.Context, workspaceID, id uuid.UUID, changes models.Fields) (*models.Automation, error) {
	var automation models.Automation
	if err := updateScoped(ctx, r.db, &automation, id, workspaceID, changes); err != nil {
		return nil, err
	}
	return &automation, nil
}

func (r *automationRepo) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	return deleteScoped(ctx, r.db, &models.Automation{}, id, workspaceID)
}

// RecordRun stores the run log and bumps the automation's counters in one
// transaction.
func (r *automationRepo) RecordRun(ctx context.Context, log *models.AutomationLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(log).Error; err != nil {
			return err
		}

		counters := map[string]interface{}{
			"total_executions": gorm.Expr("total_executions + 1"),
		}
		switch log.Status {
		case models.LogSuccess:
			counters["successful_executions"] = gorm.Expr("successful_executions + 1")
		case models.LogFailed:
			counters["failed_executions"] = gorm.Expr("failed_executions + 1")
		}
		return tx.Model(&models.Automation{}).Where("id = ?", log.AutomationID).Updates(counters).Error
	})
}

func (r *automationRepo) ListLogs(ctx context.Context, automationID uuid.UUID, skip, limit int) ([]models.AutomationLog, error) {
	var logs []models.AutomationLog
	err := paginate(r.db.WithContext(ctx).Where("automation_id = ?", automationID), skip, limit).
		Order("started_at DESC").
		Find(&logs).Error
	return logs, err
}
