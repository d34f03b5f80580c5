package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/apperr"
)

type stubProvider struct {
	resp *Response
	err  error
	got  Request
}

func (p *stubProvider) Complete(_ context.Context, req Request) (*Response, error) {
	p.got = req
	return p.resp, p.err
}

func (p *stubProvider) Name() string { return "stub" }

func TestGenerate_PassesRequestThrough(t *testing.T) {
	p := &stubProvider{resp: &Response{Content: "hi there", TotalTokens: 12}}
	svc := NewServiceWithProvider(p)

	resp, err := svc.Generate(context.Background(), Request{
		Model:        "gpt-4",
		SystemPrompt: "be nice",
		Messages:     []Message{{Role: RoleUser, Content: "hello"}},
		Temperature:  0.2,
		MaxTokens:    300,
	})
	require.NoError(t, err)
	assert.Equal(t, "hi there", resp.Content)
	assert.Equal(t, 12, resp.TotalTokens)
	assert.Equal(t, "gpt-4", p.got.Model)
	assert.Equal(t, float32(0.2), p.got.Temperature)
	assert.Equal(t, 300, p.got.MaxTokens)
}

func TestGenerate_ProviderFailureIsUpstream(t *testing.T) {
	svc := NewServiceWithProvider(&stubProvider{err: errors.New("rate limited")})

	_, err := svc.Generate(context.Background(), Request{Model: "gpt-4"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.Equal(t, "AI service error: rate limited", err.Error())
}

func TestGenerate_NotConfigured(t *testing.T) {
	svc := NewService("", "")
	assert.False(t, svc.Enabled())

	_, err := svc.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCheckEscalation(t *testing.T) {
	keywords := []string{"refund", "Human Agent", " "}

	tests := []struct {
		message string
		want    bool
	}{
		{"I want a REFUND now", true},
		{"can I talk to a human agent?", true},
		{"what are your opening hours", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckEscalation(tt.message, keywords))
		})
	}

	assert.False(t, CheckEscalation("refund", nil))
}
