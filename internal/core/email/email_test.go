package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResendProvider_SendEmail(t *testing.T) {
	var got resendEmailRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"em_1"}`))
	}))
	defer srv.Close()

	provider := NewResendProvider("re_key", "noreply@reficulbot.com", "ReficulBot").WithEndpoint(srv.URL)
	svc := NewService(provider, "https://app.test")

	err := svc.SendEscalationNotification(context.Background(), "ops@acme.io", "conv-1", "<b>refund</b> please")
	require.NoError(t, err)

	assert.Equal(t, "Bearer re_key", auth)
	assert.Equal(t, "ReficulBot <noreply@reficulbot.com>", got.From)
	assert.Equal(t, []string{"ops@acme.io"}, got.To)
	assert.Contains(t, got.HTML, "https://app.test/inbox/conv-1")
	assert.Contains(t, got.HTML, "&lt;b&gt;refund&lt;/b&gt;")
}

func TestResendProvider_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid from"}`))
	}))
	defer srv.Close()

	svc := NewService(NewResendProvider("k", "a@b.c", "").WithEndpoint(srv.URL), "")
	err := svc.SendWelcomeEmail(context.Background(), "x@y.z", "Ada")
	assert.ErrorContains(t, err, "status 422")
}

func TestService_NotConfigured(t *testing.T) {
	svc := NewService(nil, "")
	assert.False(t, svc.Enabled())
	assert.ErrorIs(t, svc.SendWelcomeEmail(context.Background(), "x@y.z", "Ada"), ErrNotConfigured)
}
