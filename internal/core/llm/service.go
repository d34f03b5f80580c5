package llm

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/apperr"
)

// ErrNotConfigured is wrapped when no provider is available.
var ErrNotConfigured = errors.New("OpenAI API key not configured")

// Service wraps a Provider and classifies its failures as upstream errors.
type Service struct {
	provider Provider
}

// NewService creates an OpenAI backed service. An empty apiKey yields a
// service whose calls fail with ErrNotConfigured.
func NewService(apiKey, baseURL string) *Service {
	if apiKey == "" {
		log.Warn().Msg("OPENAI_API_KEY is empty, AI replies are disabled")
		return &Service{}
	}
	return &Service{provider: NewOpenAIProvider(apiKey, baseURL)}
}

// NewServiceWithProvider creates service with custom provider (for testing)
func NewServiceWithProvider(provider Provider) *Service {
	return &Service{provider: provider}
}

// Enabled reports whether a provider is configured.
func (s *Service) Enabled() bool {
	return s != nil && s.provider != nil
}

// Generate performs one completion call. Errors are reported as
// apperr.ErrUpstream.
func (s *Service) Generate(ctx context.Context, req Request) (*Response, error) {
	if !s.Enabled() {
		return nil, apperr.Upstream("AI service", ErrNotConfigured)
	}
	resp, err := s.provider.Complete(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("provider", s.provider.Name()).Str("model", req.Model).Msg("LLM call failed")
		return nil, apperr.Upstream("AI service", err)
	}
	return resp, nil
}
