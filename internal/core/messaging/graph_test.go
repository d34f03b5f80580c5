package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphClient_SendTextWhatsApp(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"messaging_product":"whatsapp","messages":[{"id":"wamid.OUT"}]}`))
	}))
	defer srv.Close()

	client := NewGraphClient(srv.URL)
	id, err := client.SendText(context.Background(), Target{
		ChannelType: ChannelWhatsApp,
		ExternalID:  "PN-1",
		AccessToken: "tok",
		Recipient:   "+15550001",
	}, "hi")
	require.NoError(t, err)

	assert.Equal(t, "wamid.OUT", id)
	assert.Equal(t, "/v18.0/PN-1/messages", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "15550001", gotBody["to"])
	assert.Equal(t, "text", gotBody["type"])
}

func TestGraphClient_SendTextMessenger(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"recipient_id":"PSID","message_id":"mid.1"}`))
	}))
	defer srv.Close()

	id, err := NewGraphClient(srv.URL).SendText(context.Background(), Target{
		ChannelType: ChannelMessenger,
		ExternalID:  "PAGE",
		AccessToken: "tok",
		Recipient:   "PSID",
	}, "hello")
	require.NoError(t, err)
	assert.Equal(t, "mid.1", id)
	assert.Equal(t, map[string]interface{}{"id": "PSID"}, gotBody["recipient"])
}

func TestGraphClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad token"}}`))
	}))
	defer srv.Close()

	client := NewGraphClient(srv.URL)
	target := Target{ChannelType: ChannelWhatsApp, ExternalID: "PN", AccessToken: "tok", Recipient: "1"}

	_, err := client.SendText(context.Background(), target, "x")
	assert.ErrorContains(t, err, "status 400")

	_, err = client.SendText(context.Background(), Target{ChannelType: "webchat"}, "x")
	assert.ErrorIs(t, err, ErrUnsupportedChannel)

	_, err = client.SendTemplate(context.Background(), Target{ChannelType: ChannelInstagram}, "welcome", "")
	assert.ErrorIs(t, err, ErrUnsupportedChannel)

	target.AccessToken = ""
	_, err = client.SendText(context.Background(), target, "x")
	assert.ErrorContains(t, err, "missing credentials")
}
