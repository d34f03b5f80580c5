package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/export"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
)

// maxExportRows bounds one export file.
const maxExportRows = 10000

type ContactService struct {
	repo     repositories.ContactRepo
	exporter *export.Service
}

func NewContactService(repo repositories.ContactRepo, exporter *export.Service) *ContactService {
	return &ContactService{repo: repo, exporter: exporter}
}

func (s *ContactService) List(ctx context.Context, filter models.ContactFilter) ([]models.Contact, error) {
	contacts, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, nil
}

func (s *ContactService) Create(ctx context.Context, workspaceID uuid.UUID, req *models.CreateContactRequest) (*models.Contact, error) {
	contact := req.ToContact(workspaceID)
	if err := s.repo.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	return contact, nil
}

func (s *ContactService) Get(ctx context.Context, workspaceID, id uuid.UUID) (*models.Contact, error) {
	contact, err := s.repo.GetByID(ctx, workspaceID, id)
	if err != nil {
		return nil, notFound(err, "Contact")
	}
	return contact, nil
}

func (s *ContactService) Update(ctx context.Context, workspaceID, id uuid.UUID, req *models.UpdateContactRequest) (*models.Contact, error) {
	contact, err := s.repo.Update(ctx, workspaceID, id, req.Changes())
	if err != nil {
		return nil, notFound(err, "Contact")
	}
	return contact, nil
}

func (s *ContactService) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	return notFound(s.repo.Delete(ctx, workspaceID, id), "Contact")
}

// Import creates every contact in req and returns how many were stored.
func (s *ContactService) Import(ctx context.Context, workspaceID uuid.UUID, req *models.ContactImportRequest) (int, error) {
	contacts := make([]*models.Contact, 0, len(req.Contacts))
	for i := range req.Contacts {
		contacts = append(contacts, req.Contacts[i].ToContact(workspaceID))
	}
	if err := s.repo.CreateBatch(ctx, contacts); err != nil {
		return 0, fmt.Errorf("failed to import contacts: %w", err)
	}
	return len(contacts), nil
}

// Export renders the filtered contacts as a file. Returns the body, its
// content type and file name.
func (s *ContactService) Export(ctx context.Context, filter models.ContactFilter, format export.Format) ([]byte, string, string, error) {
	filter.Skip = 0
	filter.Limit = maxExportRows
	contacts, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to list contacts: %w", err)
	}

	now := time.Now().UTC()
	table := &export.Table{
		Title:     "Contacts",
		CreatedAt: now,
		Headers:   []string{"First Name", "Last Name", "Email", "Phone", "Company", "Stage", "Lead Score", "Tags", "Created At"},
		Rows:      make([][]interface{}, 0, len(contacts)),
		Style:     export.DefaultStyle(),
	}
	table.Style.Landscape = true
	for _, c := range contacts {
		table.Rows = append(table.Rows, []interface{}{
			deref(c.FirstName),
			deref(c.LastName),
			deref(c.Email),
			deref(c.Phone),
			deref(c.Company),
			string(c.Stage),
			c.LeadScore,
			strings.Join(c.Tags, ", "),
			c.CreatedAt,
		})
	}

	body, contentType, ext, err := s.exporter.Export(table, format)
	if err != nil {
		return nil, "", "", err
	}
	filename := fmt.Sprintf("contacts_%s.%s", now.Format("20060102_150405"), ext)
	return body, contentType, filename, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
