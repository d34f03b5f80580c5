package messaging

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const whatsAppBody = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "WABA",
    "changes": [{
      "field": "messages",
      "value": {
        "metadata": {"phone_number_id": "PN-1", "display_phone_number": "15550000"},
        "contacts": [{"wa_id": "15550001", "profile": {"name": "Ada"}}],
        "messages": [
          {"from": "15550001", "id": "wamid.1", "timestamp": "1700000000", "type": "text", "text": {"body": "hello"}},
          {"from": "15550001", "id": "wamid.2", "timestamp": "1700000001", "type": "image"}
        ],
        "statuses": [{"id": "wamid.out", "status": "delivered", "recipient_id": "15550001", "timestamp": "1700000002"}]
      }
    }, {
      "field": "account_update",
      "value": {"messages": [{"from": "x", "id": "ignored", "type": "text", "text": {"body": "nope"}}]}
    }]
  }]
}`

func TestParseWhatsApp(t *testing.T) {
	events, err := ParseWhatsApp([]byte(whatsAppBody))
	require.NoError(t, err)
	require.Len(t, events.Messages, 2)

	first := events.Messages[0]
	assert.Equal(t, ChannelWhatsApp, first.ChannelType)
	assert.Equal(t, "PN-1", first.ExternalID)
	assert.Equal(t, "15550001", first.SenderID)
	assert.Equal(t, "Ada", first.SenderName)
	assert.Equal(t, "wamid.1", first.MessageID)
	assert.Equal(t, "hello", first.Text)
	assert.Equal(t, int64(1700000000), first.Timestamp.Unix())

	assert.Equal(t, "[image]", events.Messages[1].Text)

	require.Len(t, events.Statuses, 1)
	assert.Equal(t, "wamid.out", events.Statuses[0].MessageID)
	assert.Equal(t, "delivered", events.Statuses[0].Status)
}

func TestParseWhatsApp_InvalidJSON(t *testing.T) {
	_, err := ParseWhatsApp([]byte(`{"entry": [`))
	assert.Error(t, err)
}

func TestParsePage_SkipsEchoes(t *testing.T) {
	body := `{
	  "object": "instagram",
	  "entry": [{
	    "id": "PAGE-9",
	    "messaging": [
	      {"sender": {"id": "IGSID-1"}, "recipient": {"id": "PAGE-9"}, "timestamp": 1700000000000, "message": {"mid": "m1", "text": "hi"}},
	      {"sender": {"id": "PAGE-9"}, "recipient": {"id": "IGSID-1"}, "timestamp": 1700000000500, "message": {"mid": "m2", "text": "echo", "is_echo": true}},
	      {"sender": {"id": "IGSID-1"}, "recipient": {"id": "PAGE-9"}, "timestamp": 1700000001000, "read": {"mid": "m0"}}
	    ]
	  }]
	}`

	events, err := ParsePage(ChannelInstagram, []byte(body))
	require.NoError(t, err)
	require.Len(t, events.Messages, 1)
	assert.Equal(t, "PAGE-9", events.Messages[0].ExternalID)
	assert.Equal(t, "IGSID-1", events.Messages[0].SenderID)
	assert.Equal(t, "m1", events.Messages[0].MessageID)
	assert.Equal(t, ChannelInstagram, events.Messages[0].ChannelType)

	require.Len(t, events.Statuses, 1)
	assert.Equal(t, "read", events.Statuses[0].Status)
	assert.Equal(t, "m0", events.Statuses[0].MessageID)
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"entry":[]}`)
	header := "sha256=" + hex.EncodeToString(Sign("s3cret", body))

	assert.True(t, VerifySignature("s3cret", body, header))
	assert.False(t, VerifySignature("other", body, header))
	assert.False(t, VerifySignature("s3cret", []byte(`{}`), header))
	assert.False(t, VerifySignature("s3cret", body, "md5=abc"))
	assert.False(t, VerifySignature("s3cret", body, "sha256=zz"))
	assert.False(t, VerifySignature("", body, header))
}
