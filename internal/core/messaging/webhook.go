package messaging

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// InboundMessage is a channel message normalized from a webhook payload.
type InboundMessage struct {
	ChannelType string
	// ExternalID identifies the receiving channel: the WhatsApp phone
	// number id or the Instagram/Messenger page id.
	ExternalID string
	SenderID   string
	SenderName string
	MessageID  string
	Text       string
	Timestamp  time.Time
}

// StatusUpdate reports delivery progress of an outbound message.
type StatusUpdate struct {
	ChannelType string
	ExternalID  string
	MessageID   string
	Recipient   string
	Status      string // sent, delivered, read, failed
	Timestamp   time.Time
}

// Events is everything extracted from one webhook delivery.
type Events struct {
	Messages []InboundMessage
	Statuses []StatusUpdate
}

type whatsAppPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Field string `json:"field"`
			Value struct {
				Metadata struct {
					PhoneNumberID      string `json:"phone_number_id"`
					DisplayPhoneNumber string `json:"display_phone_number"`
				} `json:"metadata"`
				Contacts []struct {
					WaID    string `json:"wa_id"`
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
				} `json:"contacts"`
				Messages []struct {
					From      string `json:"from"`
					ID        string `json:"id"`
					Timestamp string `json:"timestamp"`
					Type      string `json:"type"`
					Text      *struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
				Statuses []struct {
					ID          string `json:"id"`
					Status      string `json:"status"`
					RecipientID string `json:"recipient_id"`
					Timestamp   string `json:"timestamp"`
				} `json:"statuses"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// ParseWhatsApp extracts messages and delivery statuses from a WhatsApp
// Cloud API webhook body. Only changes with field "messages" are read.
func ParseWhatsApp(body []byte) (*Events, error) {
	var p whatsAppPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("invalid whatsapp payload: %w", err)
	}

	events := &Events{}
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			value := change.Value
			phoneNumberID := value.Metadata.PhoneNumberID

			names := make(map[string]string, len(value.Contacts))
			for _, c := range value.Contacts {
				names[c.WaID] = c.Profile.Name
			}

			for _, m := range value.Messages {
				text := ""
				if m.Text != nil {
					text = m.Text.Body
				} else if m.Type != "" && m.Type != "text" {
					text = "[" + m.Type + "]"
				}
				events.Messages = append(events.Messages, InboundMessage{
					ChannelType: ChannelWhatsApp,
					ExternalID:  phoneNumberID,
					SenderID:    m.From,
					SenderName:  names[m.From],
					MessageID:   m.ID,
					Text:        text,
					Timestamp:   parseUnix(m.Timestamp),
				})
			}

			for _, s := range value.Statuses {
				events.Statuses = append(events.Statuses, StatusUpdate{
					ChannelType: ChannelWhatsApp,
					ExternalID:  phoneNumberID,
					MessageID:   s.ID,
					Recipient:   s.RecipientID,
					Status:      s.Status,
					Timestamp:   parseUnix(s.Timestamp),
				})
			}
		}
	}

	return events, nil
}

type pagePayload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID        string `json:"id"`
		Messaging []struct {
			Sender struct {
				ID string `json:"id"`
			} `json:"sender"`
			Recipient struct {
				ID string `json:"id"`
			} `json:"recipient"`
			Timestamp int64 `json:"timestamp"`
			Message   *struct {
				Mid    string `json:"mid"`
				Text   string `json:"text"`
				IsEcho bool   `json:"is_echo"`
			} `json:"message"`
			Delivery *struct {
				Mids []string `json:"mids"`
			} `json:"delivery"`
			Read *struct {
				Mid string `json:"mid"`
			} `json:"read"`
		} `json:"messaging"`
	} `json:"entry"`
}

// ParsePage extracts messages from an Instagram or Messenger webhook body.
// channelType selects the tag put on each event. Echoes of our own sends
// are skipped.
func ParsePage(channelType string, body []byte) (*Events, error) {
	var p pagePayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", channelType, err)
	}

	events := &Events{}
	for _, entry := range p.Entry {
		for _, m := range entry.Messaging {
			ts := time.UnixMilli(m.Timestamp).UTC()
			if m.Timestamp == 0 {
				ts = time.Time{}
			}

			if m.Message != nil && !m.Message.IsEcho {
				events.Messages = append(events.Messages, InboundMessage{
					ChannelType: channelType,
					ExternalID:  entry.ID,
					SenderID:    m.Sender.ID,
					MessageID:   m.Message.Mid,
					Text:        m.Message.Text,
					Timestamp:   ts,
				})
			}
			if m.Delivery != nil {
				for _, mid := range m.Delivery.Mids {
					events.Statuses = append(events.Statuses, StatusUpdate{
						ChannelType: channelType,
						ExternalID:  entry.ID,
						MessageID:   mid,
						Recipient:   m.Sender.ID,
						Status:      "delivered",
						Timestamp:   ts,
					})
				}
			}
			if m.Read != nil && m.Read.Mid != "" {
				events.Statuses = append(events.Statuses, StatusUpdate{
					ChannelType: channelType,
					ExternalID:  entry.ID,
					MessageID:   m.Read.Mid,
					Recipient:   m.Sender.ID,
					Status:      "read",
					Timestamp:   ts,
				})
			}
		}
	}

	return events, nil
}

func parseUnix(s string) time.Time {
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil || sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
