package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
)

const (
	apiKeyPrefix    = "rb_"
	apiKeyBytes     = 32
	apiKeyPrefixLen = 10
)

type APIKeyService struct {
	repo repositories.APIKeyRepo
	now  func() time.Time
}

func NewAPIKeyService(repo repositories.APIKeyRepo) *APIKeyService {
	return &APIKeyService{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

func (s *APIKeyService) List(ctx context.Context, workspaceID, userID uuid.UUID) ([]models.APIKey, error) {
	keys, err := s.repo.ListForUser(ctx, workspaceID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list API keys: %w", err)
	}
	return keys, nil
}

// Create issues a new key. The raw key is only ever returned here.
func (s *APIKeyService) Create(ctx context.Context, workspaceID, userID uuid.UUID, req *models.CreateAPIKeyRequest) (*models.APIKeyCreated, error) {
	raw, err := GenerateAPIKey()
	if err != nil {
		return nil, err
	}

	key := &models.APIKey{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Name:        req.Name,
		KeyPrefix:   raw[:apiKeyPrefixLen],
		KeyHash:     HashAPIKey(raw),
		IsActive:    true,
	}
	if req.ExpiresInDays != nil {
		expires := s.now().AddDate(0, 0, *req.ExpiresInDays)
		key.ExpiresAt = &expires
	}
	if err := s.repo.Create(ctx, key); err != nil {
		return nil, fmt.Errorf("failed to create API key: %w", err)
	}
	return &models.APIKeyCreated{APIKey: *key, Key: raw}, nil
}

func (s *APIKeyService) Delete(ctx context.Context, workspaceID, userID, id uuid.UUID) error {
	return notFound(s.repo.Delete(ctx, workspaceID, userID, id), "API key")
}

// GenerateAPIKey returns "rb_" followed by 32 random bytes, base64url encoded.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, apiKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate API key: %w", err)
	}
	return apiKeyPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashAPIKey is the stored form of a key.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
