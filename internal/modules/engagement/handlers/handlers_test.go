package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/export"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/tenant"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/services"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/testutil"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/shared/utils"
)

const whatsAppPayload = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "WABA",
    "changes": [{
      "field": "messages",
      "value": {
        "metadata": {"phone_number_id": "PN-1"},
        "contacts": [{"wa_id": "15550001", "profile": {"name": "Ada"}}],
        "messages": [{"from": "15550001", "id": "wamid.1", "timestamp": "1700000000", "type": "text", "text": {"body": "hello"}}]
      }
    }]
  }]
}`

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func newWebhookApp(t *testing.T, db *gorm.DB, secret string) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler})
	ingestion := services.NewIngestionService(db, tenant.NewGuard(db), jobs.NewQueue(db))
	NewWebhookHandler(ingestion, "verify-me", secret).RegisterRoutes(app)
	return app
}

func decodeBody(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, dst), string(body))
}

func TestWebhook_Verify(t *testing.T) {
	app := newWebhookApp(t, testutil.NewTestDB(t), "")

	tests := []struct {
		name     string
		query    string
		wantCode int
		wantBody string
	}{
		{"matching token", "hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=12345", http.StatusOK, "12345"},
		{"wrong token", "hub.mode=subscribe&hub.verify_token=nope&hub.challenge=12345", http.StatusForbidden, ""},
		{"wrong mode", "hub.mode=unsubscribe&hub.verify_token=verify-me&hub.challenge=12345", http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/webhooks/instagram?"+tt.query, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			if tt.wantBody != "" {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, tt.wantBody, string(body))
			}
		})
	}
}

func TestWebhook_Receive(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com")
	ws := testutil.CreateWorkspace(t, db, owner, "acme")
	externalID := "PN-1"
	require.NoError(t, db.Create(&models.Channel{
		WorkspaceID: ws.ID,
		ChannelType: models.ChannelWhatsApp,
		Name:        "WhatsApp",
		ExternalID:  &externalID,
		Status:      models.ChannelStatusConnected,
		IsActive:    true,
	}).Error)
	app := newWebhookApp(t, db, "s3cret")

	post := func(body, signature string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if signature != "" {
			req.Header.Set("X-Hub-Signature-256", signature)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	t.Run("bad signature", func(t *testing.T) {
		resp := post(whatsAppPayload, sign("other", whatsAppPayload))
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("missing signature", func(t *testing.T) {
		resp := post(whatsAppPayload, "")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("malformed body", func(t *testing.T) {
		body := `{"entry": [`
		resp := post(body, sign("s3cret", body))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("message ingested", func(t *testing.T) {
		resp := post(whatsAppPayload, sign("s3cret", whatsAppPayload))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got map[string]string
		decodeBody(t, resp, &got)
		assert.Equal(t, "ok", got["status"])

		contacts, err := repositories.NewContactRepo(db).List(context.Background(), models.ContactFilter{WorkspaceID: ws.ID})
		require.NoError(t, err)
		require.Len(t, contacts, 1)
		assert.Equal(t, "Ada", *contacts[0].FirstName)
	})

	t.Run("unknown channel still answers 200", func(t *testing.T) {
		body := strings.Replace(whatsAppPayload, "PN-1", "PN-unknown", 1)
		resp := post(body, sign("s3cret", body))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	tests := []struct {
		name     string
		pinger   Pinger
		wantCode int
		wantDB   string
	}{
		{"healthy", stubPinger{}, http.StatusOK, "ok"},
		{"database down", stubPinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable, "unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			NewHealthHandler("engagement-api", tt.pinger).RegisterRoutes(app)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			var got map[string]string
			decodeBody(t, resp, &got)
			assert.Equal(t, tt.wantDB, got["database"])
			assert.Equal(t, "engagement-api", got["service"])
		})
	}
}

// newContactApp mounts the contact routes behind the workspace guard with
// userID already authenticated.
func newContactApp(db *gorm.DB, userID uuid.UUID) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", userID)
		return c.Next()
	})
	app.Use(tenant.RequireWorkspace(tenant.NewGuard(db)))
	NewContactHandler(services.NewContactService(repositories.NewContactRepo(db), export.NewService())).RegisterRoutes(app)
	return app
}

func contactRequest(method, path string, workspaceID uuid.UUID, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if workspaceID != uuid.Nil {
		req.Header.Set(tenant.HeaderWorkspaceID, workspaceID.String())
	}
	return req
}

func TestContactRoutes(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com")
	ws := testutil.CreateWorkspace(t, db, owner, "acme")
	outsider := testutil.CreateUser(t, db, "outsider@example.com")
	app := newContactApp(db, owner.ID)

	resp, err := app.Test(contactRequest(http.MethodPost, "/contacts", ws.ID, `{"first_name":"Ada","email":"ada@example.com","tags":["vip"]}`), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Contact
	decodeBody(t, resp, &created)
	assert.Equal(t, models.ContactStageLead, created.Stage)

	resp, err = app.Test(contactRequest(http.MethodPost, "/contacts", ws.ID, `{"email":"not-an-email"}`), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(contactRequest(http.MethodGet, "/contacts?tag=vip", ws.ID, ""), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []models.Contact
	decodeBody(t, resp, &list)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	resp, err = app.Test(contactRequest(http.MethodGet, "/contacts/not-a-uuid", ws.ID, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(contactRequest(http.MethodGet, "/contacts/"+uuid.NewString(), ws.ID, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(contactRequest(http.MethodGet, "/contacts/export?format=csv", ws.ID, ""), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".csv")

	t.Run("missing workspace header", func(t *testing.T) {
		resp, err := app.Test(contactRequest(http.MethodGet, "/contacts", uuid.Nil, ""), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("non-member", func(t *testing.T) {
		resp, err := newContactApp(db, outsider.ID).Test(contactRequest(http.MethodGet, "/contacts", ws.ID, ""), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func newJobApp(db *gorm.DB, userID uuid.UUID) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", userID)
		return c.Next()
	})
	app.Use(tenant.RequireWorkspace(tenant.NewGuard(db)))
	NewJobHandler(jobs.NewService(db)).RegisterRoutes(app)
	return app
}

func TestJobRoutes(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com")
	ws := testutil.CreateWorkspace(t, db, owner, "acme")
	otherOwner := testutil.CreateUser(t, db, "other@example.com")
	other := testutil.CreateWorkspace(t, db, otherOwner, "globex")
	agentUser := testutil.CreateUser(t, db, "agent@example.com")
	require.NoError(t, db.Create(&models.WorkspaceMember{WorkspaceID: ws.ID, UserID: agentUser.ID, Role: models.MemberRoleMember}).Error)

	ctx := context.Background()
	queue := jobs.NewQueue(db)
	enqueue := func(workspaceID uuid.UUID) *jobs.Job {
		opts := jobs.DefaultEnqueueOptions()
		opts.WorkspaceID = &workspaceID
		job, err := queue.Enqueue(ctx, jobs.TypeBroadcastDispatch, map[string]string{"k": "v"}, opts)
		require.NoError(t, err)
		return job
	}
	mine := enqueue(ws.ID)
	done := enqueue(ws.ID)
	require.NoError(t, queue.MarkCompleted(ctx, done.ID, nil))
	foreign := enqueue(other.ID)

	app := newJobApp(db, owner.ID)

	resp, err := app.Test(contactRequest(http.MethodGet, "/jobs", ws.ID, ""), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []jobs.Job
	decodeBody(t, resp, &list)
	assert.Len(t, list, 2)

	resp, err = app.Test(contactRequest(http.MethodGet, "/jobs/stats", ws.ID, ""), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats jobs.JobStats
	decodeBody(t, resp, &stats)
	assert.EqualValues(t, 2, stats.TotalJobs)
	assert.EqualValues(t, 1, stats.PendingJobs)
	assert.EqualValues(t, 1, stats.CompletedJobs)

	resp, err = app.Test(contactRequest(http.MethodGet, "/jobs/"+foreign.ID.String(), ws.ID, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, err = app.Test(contactRequest(http.MethodPost, "/jobs/"+foreign.ID.String()+"/cancel", ws.ID, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(contactRequest(http.MethodPost, "/jobs/"+done.ID.String()+"/cancel", ws.ID, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(contactRequest(http.MethodPost, "/jobs/"+mine.ID.String()+"/cancel", ws.ID, ""), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got, err := queue.GetJob(ctx, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusCancelled, got.Status)
	got, err = queue.GetJob(ctx, foreign.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusPending, got.Status)

	resp, err = newJobApp(db, agentUser.ID).Test(contactRequest(http.MethodGet, "/jobs", ws.ID, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
