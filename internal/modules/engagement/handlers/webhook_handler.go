package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/messaging"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/metrics"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/services"
)

// WebhookHandler receives Meta webhooks for WhatsApp, Instagram and Messenger.
type WebhookHandler struct {
	ingestion   *services.IngestionService
	verifyToken string
	appSecret   string
}

// NewWebhookHandler creates the handler. An empty appSecret disables
// signature checks.
func NewWebhookHandler(ingestion *services.IngestionService, verifyToken, appSecret string) *WebhookHandler {
	return &WebhookHandler{
		ingestion:   ingestion,
		verifyToken: verifyToken,
		appSecret:   appSecret,
	}
}

func (h *WebhookHandler) RegisterRoutes(r fiber.Router) {
	webhooks := r.Group("/webhooks")
	for _, channel := range []string{messaging.ChannelWhatsApp, messaging.ChannelInstagram, messaging.ChannelMessenger} {
		webhooks.Get("/"+channel, h.Verify)
		webhooks.Post("/"+channel, h.receive(channel))
	}
}

// Verify godoc
// @Summary Meta webhook verification
// @Description Echoes hub.challenge when hub.verify_token matches.
// @Tags Webhooks
// @Produce plain
// @Param channel path string true "whatsapp, instagram or messenger"
// @Param hub.mode query string true "subscribe"
// @Param hub.verify_token query string true "Verify token"
// @Param hub.challenge query string true "Challenge"
// @Success 200 {string} string
// @Failure 403 {object} map[string]interface{}
// @Router /webhooks/{channel} [get]
func (h *WebhookHandler) Verify(c *fiber.Ctx) error {
	if c.Query("hub.mode") == "subscribe" && h.verifyToken != "" && c.Query("hub.verify_token") == h.verifyToken {
		return c.SendString(c.Query("hub.challenge"))
	}
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Verification failed"})
}

// Receive godoc
// @Summary Meta webhook receiver
// @Description Stores inbound messages and delivery statuses. Answers 200 for every parsable body.
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param channel path string true "whatsapp, instagram or messenger"
// @Param payload body map[string]interface{} true "Webhook payload"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /webhooks/{channel} [post]
func (h *WebhookHandler) receive(channel string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body := c.Body()

		if h.appSecret != "" && !messaging.VerifySignature(h.appSecret, body, c.Get(messaging.SignatureHeader)) {
			metrics.RecordWebhookEvent(channel, metrics.OutcomeInvalidSignature)
			log.Warn().Str("channel", channel).Msg("Rejected webhook with invalid signature")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Invalid signature"})
		}

		var (
			events *messaging.Events
			err    error
		)
		if channel == messaging.ChannelWhatsApp {
			events, err = messaging.ParseWhatsApp(body)
		} else {
			events, err = messaging.ParsePage(channel, body)
		}
		if err != nil {
			log.Warn().Err(err).Str("channel", channel).Msg("Failed to parse webhook")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payload"})
		}

		h.process(c, channel, events)
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// process stores every event. Failures are logged and counted; Meta retries
// any non-200 answer, so they never reach the response.
func (h *WebhookHandler) process(c *fiber.Ctx, channel string, events *messaging.Events) {
	ctx := c.UserContext()

	for _, msg := range events.Messages {
		ingested, err := h.ingestion.Ingest(ctx, msg)
		switch {
		case errors.Is(err, services.ErrUnknownChannel):
			metrics.RecordWebhookEvent(channel, metrics.OutcomeDropped)
			log.Info().Str("channel", channel).Str("external_id", msg.ExternalID).Msg("Dropped message for unknown channel")
		case err != nil:
			metrics.RecordWebhookEvent(channel, metrics.OutcomeError)
			log.Error().Err(err).Str("channel", channel).Str("message_id", msg.MessageID).Msg("Failed to ingest message")
		default:
			metrics.RecordWebhookEvent(channel, metrics.OutcomeIngested)
			log.Info().
				Str("channel", channel).
				Str("workspace_id", ingested.WorkspaceID.String()).
				Str("conversation_id", ingested.ConversationID.String()).
				Bool("new_contact", ingested.NewContact).
				Msg("Ingested inbound message")
		}
	}

	for _, status := range events.Statuses {
		if err := h.ingestion.ApplyStatus(ctx, status); err != nil {
			metrics.RecordWebhookEvent(channel, metrics.OutcomeError)
			log.Error().Err(err).Str("channel", channel).Str("message_id", status.MessageID).Msg("Failed to apply status update")
			continue
		}
		metrics.RecordWebhookEvent(channel, metrics.OutcomeStatus)
	}
}
