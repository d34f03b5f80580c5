package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
)

type BillingRepo interface {
	GetSubscription(ctx context.Context, workspaceID uuid.UUID) (*models.Subscription, error)
	CreateSubscription(ctx context.Context, subscription *models.Subscription) error
	UpdateSubscription(ctx context.Context, workspaceID uuid.UUID, changes models.Fields) (*models.Subscription, error)
	ListInvoices(ctx context.Context, workspaceID uuid.UUID, skip, limit int) ([]models.Invoice, error)
}

type billingRepo struct {
	db *gorm.DB
}

func NewBillingRepo(db *gorm.DB) BillingRepo {
	return &billingRepo{db: db}
}

func (r *billingRepo) GetSubscription(ctx context.Context, workspaceID uuid.UUID) (*models.Subscription, error) {
	var subscription models.Subscription
	if err := scoped(ctx, r.db, workspaceID).First(&subscription).Error; err != nil {
		return nil, err
	}
	return &subscription, nil
}

// CreateSubscription inserts the subscription unless the workspace already
// has one; concurrent first reads both end up with the same row.
func (r *billingRepo) CreateSubscription(ctx context.Context, subscription *models.Subscription) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "workspace_id"}}, DoNothing: true}).
		Create(subscription).Error
}

func (r *billingRepo) UpdateSubscription(ctx context.Context, workspaceID uuid.UUID, changes models.Fields) (*models.Subscription, error) {
	subscription, err := r.GetSubscription(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return subscription, nil
	}
	if err := r.db.WithContext(ctx).Model(subscription).Updates(map[string]interface{}(changes)).Error; err != nil {
		return nil, err
	}
	return r.GetSubscription(ctx, workspaceID)
}

func (r *billingRepo) ListInvoices(ctx context.Context, workspaceID uuid.UUID, skip, limit int) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := paginate(scoped(ctx, r.db, workspaceID), skip, limit).
		Order("created_at DESC").
		Find(&invoices).Error
	return invoices, err
}
