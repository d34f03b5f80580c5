package services

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
)

const (
	// charsPerToken approximates the tokenizer for English text.
	charsPerToken  = 4
	tokensPerChunk = 500
)

type KnowledgeService struct {
	db       *gorm.DB
	repo     repositories.KnowledgeRepo
	enqueuer jobs.Enqueuer
	now      func() time.Time
}

func NewKnowledgeService(db *gorm.DB, enqueuer jobs.Enqueuer) *KnowledgeService {
	return &KnowledgeService{
		db:       db,
		repo:     repositories.NewKnowledgeRepo(db),
		enqueuer: enqueuer,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *KnowledgeService) List(ctx context.Context, workspaceID uuid.UUID, sourceType string, skip, limit int) ([]models.KnowledgeSource, error) {
	sources, err := s.repo.List(ctx, workspaceID, sourceType, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list knowledge sources: %w", err)
	}
	return sources, nil
}

func (s *KnowledgeService) Get(ctx context.Context, workspaceID, id uuid.UUID) (*models.KnowledgeSource, error) {
	source, err := s.repo.GetByID(ctx, workspaceID, id)
	if err != nil {
		return nil, notFound(err, "Knowledge source")
	}
	return source, nil
}

func (s *KnowledgeService) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	return notFound(s.repo.Delete(ctx, workspaceID, id), "Knowledge source")
}

func (s *KnowledgeService) CreateText(ctx context.Context, workspaceID uuid.UUID, req *models.KnowledgeTextRequest) (*models.KnowledgeSource, error) {
	text := req.TextContent
	return s.create(ctx, &models.KnowledgeSource{
		WorkspaceID: workspaceID,
		Name:        req.Name,
		SourceType:  models.SourceText,
		TextContent: &text,
	})
}

func (s *KnowledgeService) CreateWebsite(ctx context.Context, workspaceID uuid.UUID, req *models.KnowledgeWebsiteRequest) (*models.KnowledgeSource, error) {
	url := req.WebsiteURL
	return s.create(ctx, &models.KnowledgeSource{
		WorkspaceID: workspaceID,
		Name:        req.Name,
		SourceType:  models.SourceWebsite,
		WebsiteURL:  &url,
	})
}

func (s *KnowledgeService) CreateDocument(ctx context.Context, workspaceID uuid.UUID, req *models.KnowledgeDocumentRequest) (*models.KnowledgeSource, error) {
	fileURL := req.FileURL
	source := &models.KnowledgeSource{
		WorkspaceID: workspaceID,
		Name:        req.Name,
		SourceType:  models.SourceDocument,
		FileURL:     &fileURL,
		FileSize:    req.FileSize,
	}
	if req.FileName != "" {
		name := req.FileName
		source.FileName = &name
	}
	return s.create(ctx, source)
}

// create stores a pending source and enqueues its processing job together.
func (s *KnowledgeService) create(ctx context.Context, source *models.KnowledgeSource) (*models.KnowledgeSource, error) {
	source.Status = models.ProcessingPending
	source.IsActive = true
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repositories.NewKnowledgeRepo(tx).Create(ctx, source); err != nil {
			return fmt.Errorf("failed to create knowledge source: %w", err)
		}
		return s.enqueueTx(ctx, tx, source)
	})
	if err != nil {
		return nil, err
	}
	return source, nil
}

// Resync resets the source to pending and queues it again.
func (s *KnowledgeService) Resync(ctx context.Context, workspaceID, id uuid.UUID) (*models.KnowledgeSource, error) {
	var source *models.KnowledgeSource
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		source, err = repositories.NewKnowledgeRepo(tx).Update(ctx, workspaceID, id, models.Fields{
			"status":        models.ProcessingPending,
			"error_message": nil,
		})
		if err != nil {
			return notFound(err, "Knowledge source")
		}
		return s.enqueueTx(ctx, tx, source)
	})
	if err != nil {
		return nil, err
	}
	return source, nil
}

// Query searches the knowledge base. Retrieval has no index yet, so the
// result set is always empty.
func (s *KnowledgeService) Query(_ context.Context, _ uuid.UUID, req *models.KnowledgeQueryRequest) *models.KnowledgeQueryResponse {
	return &models.KnowledgeQueryResponse{
		Results: []map[string]interface{}{},
		Query:   req.Query,
	}
}

// Process computes chunk and token counts for a source and marks it
// completed.
func (s *KnowledgeService) Process(ctx context.Context, p KnowledgeProcessPayload) error {
	source, err := s.Get(ctx, p.WorkspaceID, p.SourceID)
	if err != nil {
		return err
	}
	if _, err := s.repo.Update(ctx, p.WorkspaceID, p.SourceID, models.Fields{"status": models.ProcessingProcessing}); err != nil {
		return err
	}

	tokens, chunks := 0, 0
	if source.SourceType == models.SourceText && source.TextContent != nil {
		tokens, chunks = estimateChunks(*source.TextContent)
	}

	_, err = s.repo.Update(ctx, p.WorkspaceID, p.SourceID, models.Fields{
		"status":         models.ProcessingCompleted,
		"token_count":    tokens,
		"chunk_count":    chunks,
		"last_synced_at": s.now(),
	})
	if err != nil {
		return err
	}
	log.Info().
		Str("source_id", source.ID.String()).
		Int("chunks", chunks).
		Int("tokens", tokens).
		Msg("Knowledge source processed")
	return nil
}

func (s *KnowledgeService) enqueueTx(ctx context.Context, tx *gorm.DB, source *models.KnowledgeSource) error {
	opts := jobs.DefaultEnqueueOptions()
	opts.WorkspaceID = &source.WorkspaceID
	opts.Priority = jobs.PriorityLow
	_, err := s.enqueuer.EnqueueTx(ctx, tx, jobs.TypeKnowledgeProcess, KnowledgeProcessPayload{
		WorkspaceID: source.WorkspaceID,
		SourceID:    source.ID,
	}, opts)
	return err
}

// estimateChunks returns the approximate token count of text and the
// number of fixed-size chunks it splits into.
func estimateChunks(text string) (tokens, chunks int) {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0, 0
	}
	tokens = (n + charsPerToken - 1) / charsPerToken
	chunks = (tokens + tokensPerChunk - 1) / tokensPerChunk
	return tokens, chunks
}
