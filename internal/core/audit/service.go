package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service provides audit logging functionality
type Service struct {
	db *gorm.DB
}

// NewService creates a new audit service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Record writes an entry outside any transaction.
func (s *Service) Record(ctx context.Context, e Entry) error {
	return s.RecordTx(ctx, s.db, e)
}

// RecordTx writes an entry with tx so it commits with the change it
// describes.
func (s *Service) RecordTx(ctx context.Context, tx *gorm.DB, e Entry) error {
	entry := &AuditLog{
		WorkspaceID: e.WorkspaceID,
		Action:      e.Action,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		OldValue:    toJSON(e.OldValue),
		NewValue:    toJSON(e.NewValue),
		IPAddress:   e.IPAddress,
		UserAgent:   e.UserAgent,
	}
	if e.UserID != uuid.Nil {
		userID := e.UserID
		entry.UserID = &userID
	}

	if err := tx.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// List returns a workspace's audit logs, newest first.
func (s *Service) List(ctx context.Context, filter Filter) ([]AuditLog, error) {
	query := s.db.WithContext(ctx).Model(&AuditLog{}).Where("workspace_id = ?", filter.WorkspaceID)

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != "" {
		query = query.Where("entity_id = ?", filter.EntityID)
	}
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("created_at <= ?", *filter.EndDate)
	}

	if filter.Limit < 1 {
		filter.Limit = 50
	}

	logs := []AuditLog{}
	if err := query.
		Order("created_at DESC").
		Offset(filter.Skip).
		Limit(filter.Limit).
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to get audit logs: %w", err)
	}

	return logs, nil
}

// DeleteOldLogs deletes audit logs older than daysToKeep days.
func (s *Service) DeleteOldLogs(ctx context.Context, daysToKeep int) (int64, error) {
	if daysToKeep < 1 {
		return 0, fmt.Errorf("daysToKeep must be at least 1")
	}

	cutoffDate := s.db.NowFunc().AddDate(0, 0, -daysToKeep)

	result := s.db.WithContext(ctx).Where("created_at < ?", cutoffDate).Delete(&AuditLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete old audit logs: %w", result.Error)
	}

	log.Info().Int64("deleted", result.RowsAffected).Int("days_to_keep", daysToKeep).Msg("Deleted old audit logs")
	return result.RowsAffected, nil
}

func toJSON(value interface{}) datatypes.JSON {
	if value == nil {
		return nil
	}

	bytes, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to serialize audit value")
		return nil
	}

	return datatypes.JSON(bytes)
}
