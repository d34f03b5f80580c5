package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
)

type ContactRepo interface {
	Create(ctx context.Context, contact *models.Contact) error
	CreateBatch(ctx context.Context, contacts []*models.Contact) error
	GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*models.Contact, error)
	GetByChannelID(ctx context.Context, workspaceID uuid.UUID, channel models.ChannelType, senderID string) (*models.Contact, error)
	GetByPhone(ctx context.Context, workspaceID uuid.UUID, phones ...string) (*models.Contact, error)
	List(ctx context.Context, filter models.ContactFilter) ([]models.Contact, error)
	Update(ctx context.Context, workspaceID, id uuid.UUID, changes models.Fields) (*models.Contact, error)
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, workspaceID, id uuid.UUID) error
}

type contactRepo struct {
	db *gorm.DB
}

func NewContactRepo(db *gorm.DB) ContactRepo {
	return &contactRepo{db: db}
}

// ChannelIDColumn maps a channel to the contact column holding the sender id.
func ChannelIDColumn(channel models.ChannelType) (string, error) {
	switch channel {
	case models.ChannelWhatsApp:
		return "whatsapp_id", nil
	case models.ChannelInstagram:
		return "instagram_id", nil
	case models.ChannelMessenger:
		return "messenger_id", nil
	default:
		return "", fmt.Errorf("no contact identity column for channel %q", channel)
	}
}

func (r *contactRepo) Create(ctx context.Context, contact *models.Contact) error {
	return r.db.WithContext(ctx).Create(contact).Error
}

func (r *contactRepo) CreateBatch(ctx context.Context, contacts []*models.Contact) error {
	if len(contacts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(contacts, 100).Error
}

func (r *contactRepo) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*models.Contact, error) {
	var contact models.Contact
	if err := findScoped(ctx, r.db, &contact, id, workspaceID); err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *contactRepo) GetByChannelID(ctx context.Context, workspaceID uuid.UUID, channel models.ChannelType, senderID string) (*models.Contact, error) {
	column, err := ChannelIDColumn(channel)
	if err != nil {
		return nil, err
	}
	var contact models.Contact
	err = scoped(ctx, r.db, workspaceID).
		Where(column+" = ?", senderID).
		Order("created_at ASC").
		First(&contact).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// GetByPhone returns the oldest contact whose phone equals any of phones.
func (r *contactRepo) GetByPhone(ctx context.Context, workspaceID uuid.UUID, phones ...string) (*models.Contact, error) {
	var contact models.Contact
	err := scoped(ctx, r.db, workspaceID).
		Where("phone IN ?", phones).
		Order("created_at ASC").
		First(&contact).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *contactRepo) List(ctx context.Context, filter models.ContactFilter) ([]models.Contact, error) {
	query := scoped(ctx, r.db, filter.WorkspaceID)

	if filter.Stage != "" {
		query = query.Where("stage = ?", filter.Stage)
	}
	if filter.Tag != "" {
		query = query.Where(datatypes.JSONArrayQuery("tags").Contains(filter.Tag))
	}
	if filter.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(filter.Search)) + "%"
		query = query.Where(
			`LOWER(COALESCE(first_name, '')) LIKE ? ESCAPE '\' OR LOWER(COALESCE(last_name, '')) LIKE ? ESCAPE '\' OR `+
				`LOWER(COALESCE(email, '')) LIKE ? ESCAPE '\' OR LOWER(COALESCE(phone, '')) LIKE ? ESCAPE '\' OR `+
				`LOWER(COALESCE(company, '')) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern, pattern, pattern,
		)
	}

	var contacts []models.Contact
	err := paginate(query, filter.Skip, filter.Limit).
		Order("created_at DESC").
		Find(&contacts).Error
	return contacts, err
}

func (r *contactRepo) Update(ctx context.Context, workspaceID, id uuid.UUID, changes models.Fields) (*models.Contact, error) {
	var contact models.Contact
	if err := updateScoped(ctx, r.db, &contact, id, workspaceID, changes); err != nil {
		return nil, err
	}
	return &contact, nil
}

// Touch records the time of the latest inbound message.
func (r *contactRepo) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Contact{}).
		Where("id = ?", id).
		Update("last_contacted_at", at).Error
}

func (r *contactRepo) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	return deleteScoped(ctx, r.db, &models.Contact{}, id, workspaceID)
}
