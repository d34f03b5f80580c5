package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
)

type BroadcastRepo interface {
	Create(ctx context.Context, broadcast *models.Broadcast) error
	GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*models.Broadcast, error)
	List(ctx context.Context, workspaceID uuid.UUID, status string, skip, limit int) ([]models.Broadcast, error)
	Update(ctx context.Context, workspaceID, id uuid.UUID, changes models.Fields) (*models.Broadcast, error)
	Delete(ctx context.Context, workspaceID, id uuid.UUID) error

	Transition(ctx context.Context, id uuid.UUID, from []models.BroadcastStatus, changes models.Fields) (bool, error)
	ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]models.Broadcast, error)

	CreateRecipients(ctx context.Context, recipients []*models.BroadcastRecipient) error
	ListRecipients(ctx context.Context, broadcastID uuid.UUID, status string, skip, limit int) ([]models.BroadcastRecipient, error)
	UpdateRecipient(ctx context.Context, id uuid.UUID, changes models.Fields) error
	GetRecipientByChannelMessageID(ctx context.Context, channelMessageID string) (*models.BroadcastRecipient, error)
	RefreshStats(ctx context.Context, broadcastID uuid.UUID) (*models.BroadcastStats, error)
}

type broadcastRepo struct {
	db *gorm.DB
}

func NewBroadcastRepo(db *gorm.DB) BroadcastRepo {
	return &broadcastRepo{db: db}
}

func (r *broadcastRepo) Create(ctx context.Context, broadcast *models.Broadcast) error {
	return r.db.WithContext(ctx).Create(broadcast).Error
}

func (r *broadcastRepo) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*models.Broadcast, error) {
	var broadcast models.Broadcast
	if err := findScoped(ctx, r.db, &broadcast, id, workspaceID); err != nil {
		return nil, err
	}
	return &broadcast, nil
}

func (r *broadcastRepo) List(ctx context.Context, workspaceID uuid.UUID, status string, skip, limit int) ([]models.Broadcast, error) {
	query := scoped(ctx, r.db, workspaceID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var broadcasts []models.Broadcast
	err := paginate(query, skip, limit).Order("created_at DESC").Find(&broadcasts).Error
	return broadcasts, err
}

func (r *broadcastRepo) Update(ctx context.Context, workspaceID, id uuid.UUID, changes models.Fields) (*models.Broadcast, error) {
	var broadcast models.Broadcast
	if err := updateScoped(ctx, r.db, &broadcast, id, workspaceID, changes); err != nil {
		return nil, err
	}
	return &broadcast, nil
}

func (r *broadcastRepo) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	return deleteScoped(ctx, r.db, &models.Broadcast{}, id, workspaceID)
}

// Transition applies changes only while the broadcast is in one of from.
// Reports false when another caller moved it first.
func (r *broadcastRepo) Transition(ctx context.Context, id uuid.UUID, from []models.BroadcastStatus, changes models.Fields) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Broadcast{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}(changes))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListDueScheduled returns scheduled broadcasts of every workspace whose
// time has come.
func (r *broadcastRepo) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]models.Broadcast, error) {
	var broadcasts []models.Broadcast
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", models.BroadcastScheduled, now).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&broadcasts).Error
	return broadcasts, err
}

func (r *broadcastRepo) CreateRecipients(ctx context.Context, recipients []*models.BroadcastRecipient) error {
	if len(recipients) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(recipients, 500).Error
}

func (r *broadcastRepo) ListRecipients(ctx context.Context, broadcastID uuid.UUID, status string, skip, limit int) ([]models.BroadcastRecipient, error) {
	query := r.db.WithContext(ctx).Where("broadcast_id = ?", broadcastID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var recipients []models.BroadcastRecipient
	err := paginate(query, skip, limit).Order("created_at ASC").Order("id ASC").Find(&recipients).Error
	return recipients, err
}

func (r *broadcastRepo) UpdateRecipient(ctx context.Context, id uuid.UUID, changes models.Fields) error {
	return r.db.WithContext(ctx).Model(&models.BroadcastRecipient{}).
		Where("id = ?", id).
		Updates(map[string]interface{}(changes)).Error
}

func (r *broadcastRepo) GetRecipientByChannelMessageID(ctx context.Context, channelMessageID string) (*models.BroadcastRecipient, error) {
	var recipient models.BroadcastRecipient
	err := r.db.WithContext(ctx).Where("channel_message_id = ?", channelMessageID).First(&recipient).Error
	if err != nil {
		return nil, err
	}
	return &recipient, nil
}

// RefreshStats recomputes the broadcast counters from its recipients.
// A delivered or read recipient also counts as sent.
func (r *broadcastRepo) RefreshStats(ctx context.Context, broadcastID uuid.UUID) (*models.BroadcastStats, error) {
	var rows []struct {
		Status models.RecipientStatus
		Count  int
	}
	err := r.db.WithContext(ctx).Model(&models.BroadcastRecipient{}).
		Select("status, COUNT(*) AS count").
		Where("broadcast_id = ?", broadcastID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := &models.BroadcastStats{}
	for _, row := range rows {
		stats.TotalRecipients += row.Count
		switch row.Status {
		case models.RecipientSent:
			stats.SentCount += row.Count
		case models.RecipientDelivered:
			stats.SentCount += row.Count
			stats.DeliveredCount += row.Count
		case models.RecipientRead:
			stats.SentCount += row.Count
			stats.DeliveredCount += row.Count
			stats.ReadCount += row.Count
		case models.RecipientFailed:
			stats.FailedCount += row.Count
		}
	}
	if stats.SentCount > 0 {
		stats.OpenRate = float64(stats.ReadCount) / float64(stats.SentCount) * 100
	}

	err = r.db.WithContext(ctx).Model(&models.Broadcast{}).
		Where("id = ?", broadcastID).
		Updates(map[string]interface{}{
			"total_recipients": stats.TotalRecipients,
			"sent_count":       stats.SentCount,
			"delivered_count":  stats.DeliveredCount,
			"read_count":       stats.ReadCount,
			"failed_count":     stats.FailedCount,
			"open_rate":        stats.OpenRate,
		}).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
