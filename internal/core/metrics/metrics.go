package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/jobs"
)

const namespace = "engagement"

var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "route"},
	)

	// WebhookEventsTotal counts inbound channel events by outcome:
	// ingested, dropped (no channel), status, invalid_signature, error.
	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhooks",
			Name:      "events_total",
			Help:      "Inbound webhook events by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "processed_total",
			Help:      "Outbox jobs processed by type and final status",
		},
		[]string{"type", "status"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Job handler duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
		[]string{"type"},
	)

	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Tokens consumed by completion calls",
		},
		[]string{"model"},
	)
)

// Webhook outcomes.
const (
	OutcomeIngested         = "ingested"
	OutcomeDropped          = "dropped"
	OutcomeStatus           = "status"
	OutcomeInvalidSignature = "invalid_signature"
	OutcomeError            = "error"
)

// RecordRequest records an HTTP request
func RecordRequest(method, route, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, route, status).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(durationSec)
}

// RecordWebhookEvent records one inbound event
func RecordWebhookEvent(channel, outcome string) {
	WebhookEventsTotal.WithLabelValues(channel, outcome).Inc()
}

// RecordTokens adds completion token usage
func RecordTokens(model string, tokens int) {
	if tokens > 0 {
		LLMTokensTotal.WithLabelValues(model).Add(float64(tokens))
	}
}

// Middleware records count and latency per matched route. Unmatched paths
// are grouped under one label to bound cardinality.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		route := "unmatched"
		if r := c.Route(); r != nil && r.Path != "" && r.Path != "/" {
			route = r.Path
		}
		RecordRequest(c.Method(), route, strconv.Itoa(status), time.Since(start).Seconds())
		return err
	}
}

// JobObserver feeds worker outcomes into the job metrics.
type JobObserver struct{}

var _ jobs.Observer = JobObserver{}

func (JobObserver) ObserveJob(jobType string, status jobs.JobStatus, d time.Duration) {
	JobsTotal.WithLabelValues(jobType, string(status)).Inc()
	if d > 0 {
		JobDuration.WithLabelValues(jobType).Observe(d.Seconds())
	}
}
