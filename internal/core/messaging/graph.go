package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Channel types understood by the Graph API client.
const (
	ChannelWhatsApp  = "whatsapp"
	ChannelInstagram = "instagram"
	ChannelMessenger = "messenger"
)

const (
	DefaultGraphURL   = "https://graph.facebook.com"
	DefaultAPIVersion = "v18.0"
)

// ErrUnsupportedChannel is returned for channel types without outbound support.
var ErrUnsupportedChannel = errors.New("channel does not support outbound messages")

// Target addresses one outbound message. ExternalID is the sending phone
// number id (WhatsApp) or page id (Instagram, Messenger).
type Target struct {
	ChannelType string
	ExternalID  string
	AccessToken string
	Recipient   string
}

// Sender delivers text to a channel recipient and returns the channel's
// message id.
type Sender interface {
	SendText(ctx context.Context, t Target, text string) (string, error)
	SendTemplate(ctx context.Context, t Target, templateName, languageCode string) (string, error)
}

// GraphClient talks to the Meta Graph API for WhatsApp Cloud, Instagram
// Direct and Messenger.
type GraphClient struct {
	baseURL    string
	apiVersion string
	client     *http.Client
}

var _ Sender = (*GraphClient)(nil)

// NewGraphClient creates a client. Empty baseURL selects graph.facebook.com.
func NewGraphClient(baseURL string) *GraphClient {
	if baseURL == "" {
		baseURL = DefaultGraphURL
	}
	return &GraphClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiVersion: DefaultAPIVersion,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SendText sends a plain text message.
func (g *GraphClient) SendText(ctx context.Context, t Target, text string) (string, error) {
	var payload map[string]interface{}

	switch t.ChannelType {
	case ChannelWhatsApp:
		payload = map[string]interface{}{
			"messaging_product": "whatsapp",
			"recipient_type":    "individual",
			"to":                cleanPhoneNumber(t.Recipient),
			"type":              "text",
			"text":              map[string]string{"body": text},
		}
	case ChannelInstagram, ChannelMessenger:
		payload = map[string]interface{}{
			"recipient": map[string]string{"id": t.Recipient},
			"message":   map[string]string{"text": text},
		}
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedChannel, t.ChannelType)
	}

	return g.post(ctx, t, payload)
}

// SendTemplate sends a pre-approved WhatsApp template. Other channels have
// no templates.
func (g *GraphClient) SendTemplate(ctx context.Context, t Target, templateName, languageCode string) (string, error) {
	if t.ChannelType != ChannelWhatsApp {
		return "", fmt.Errorf("%w: templates on %s", ErrUnsupportedChannel, t.ChannelType)
	}
	if languageCode == "" {
		languageCode = "en"
	}

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                cleanPhoneNumber(t.Recipient),
		"type":              "template",
		"template": map[string]interface{}{
			"name":     templateName,
			"language": map[string]string{"code": languageCode},
		},
	}

	return g.post(ctx, t, payload)
}

type sendResponse struct {
	MessageID string `json:"message_id"`
	Messages  []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

func (g *GraphClient) post(ctx context.Context, t Target, payload interface{}) (string, error) {
	if t.ExternalID == "" || t.AccessToken == "" {
		return "", errors.New("channel is missing credentials")
	}

	url := fmt.Sprintf("%s/%s/%s/messages", g.baseURL, g.apiVersion, t.ExternalID)

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("graph API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var out sendResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	id := out.MessageID
	if id == "" && len(out.Messages) > 0 {
		id = out.Messages[0].ID
	}

	log.Debug().Str("channel", t.ChannelType).Str("message_id", id).Msg("Graph API message sent")
	return id, nil
}

// cleanPhoneNumber strips the leading + and any JID suffix.
func cleanPhoneNumber(phone string) string {
	phone = strings.TrimPrefix(strings.TrimSpace(phone), "+")
	if i := strings.IndexByte(phone, '@'); i >= 0 {
		phone = phone[:i]
	}
	return phone
}
