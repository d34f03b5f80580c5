package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/messaging"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/repositories"
)

// Delivery sends outbound text through a workspace's active channel.
type Delivery struct {
	channels repositories.ChannelRepo
	sender   messaging.Sender
}

func NewDelivery(channels repositories.ChannelRepo, sender messaging.Sender) *Delivery {
	return &Delivery{channels: channels, sender: sender}
}

// Send delivers text to recipient on the workspace's active channel of
// channelType and returns the channel message id.
func (d *Delivery) Send(ctx context.Context, workspaceID uuid.UUID, channelType models.ChannelType, recipient, text string) (string, error) {
	if d == nil || d.sender == nil {
		return "", messaging.ErrUnsupportedChannel
	}
	channel, err := d.channels.GetActive(ctx, workspaceID, channelType)
	if err != nil {
		return "", notFound(err, "Channel")
	}
	return d.sender.SendText(ctx, target(channel, recipient), text)
}

func target(channel *models.Channel, recipient string) messaging.Target {
	t := messaging.Target{
		ChannelType: string(channel.ChannelType),
		Recipient:   recipient,
	}
	if channel.ExternalID != nil {
		t.ExternalID = *channel.ExternalID
	}
	if channel.AccessToken != nil {
		t.AccessToken = *channel.AccessToken
	}
	return t
}

// nextMessageTime returns now, or prev+1µs when the clock has not moved
// past prev, so last_message_at strictly increases.
func nextMessageTime(prev *time.Time, now time.Time) time.Time {
	if prev != nil && !now.After(*prev) {
		return prev.Add(time.Microsecond)
	}
	return now
}

func deliveryError(err error) string {
	return fmt.Sprintf("delivery failed: %v", err)
}
