package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/jobs"
)

func TestMiddleware_RecordsRoute(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/agents/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/agents/:id", "204"))

	resp, err := app.Test(httptest.NewRequest("GET", "/agents/123", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	after := testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/agents/:id", "204"))
	assert.Equal(t, before+1, after)
}

func TestJobObserver(t *testing.T) {
	counter := JobsTotal.WithLabelValues("test.job", string(jobs.StatusFailed))
	before := testutil.ToFloat64(counter)

	JobObserver{}.ObserveJob("test.job", jobs.StatusFailed, 10*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestRecordWebhookEvent(t *testing.T) {
	counter := WebhookEventsTotal.WithLabelValues("whatsapp", OutcomeDropped)
	before := testutil.ToFloat64(counter)
	RecordWebhookEvent("whatsapp", OutcomeDropped)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
