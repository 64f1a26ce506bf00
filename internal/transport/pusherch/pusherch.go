// Package pusherch is the hosted-channel transport binding: events are
// pushed to Pusher Channels via the trigger API and the hosted service fans
// them out to subscribers. Clients subscribe with short-lived per-socket
// tokens minted by the authorization endpoint.
package pusherch

import (
	"context"
	"fmt"
	"net/url"

	"github.com/pusher/pusher-http-go/v5"
	"github.com/rs/zerolog/log"

	"github.com/peerstage/peerstage/internal/events"
)

// DefaultChannel is the single channel every client subscribes to.
const DefaultChannel = "presentation"

// Config holds hosted-channel credentials, all from the environment.
type Config struct {
	AppID   string
	Key     string
	Secret  string
	Cluster string
	Channel string
}

// Client implements transport.Broadcaster over Pusher Channels.
type Client struct {
	pusher  pusher.Client
	channel string
}

// New creates a hosted-channel client.
func New(cfg Config) (*Client, error) {
	if cfg.AppID == "" || cfg.Key == "" || cfg.Secret == "" {
		return nil, fmt.Errorf("pusher credentials are required for the hosted-channel transport")
	}

	channel := cfg.Channel
	if channel == "" {
		channel = DefaultChannel
	}

	return &Client{
		pusher: pusher.Client{
			AppID:   cfg.AppID,
			Key:     cfg.Key,
			Secret:  cfg.Secret,
			Cluster: cfg.Cluster,
			Secure:  true,
		},
		channel: channel,
	}, nil
}

// Broadcast triggers the event on the presentation channel. The hosted
// service handles the fan-out.
func (c *Client) Broadcast(ctx context.Context, ev *events.Event) error {
	if err := c.pusher.Trigger(c.channel, string(ev.Type), ev); err != nil {
		return fmt.Errorf("trigger %s on %s: %w", ev.Type, c.channel, err)
	}

	log.Debug().
		Str("event_type", string(ev.Type)).
		Str("channel", c.channel).
		Msg("event triggered on hosted channel")
	return nil
}

// AuthorizeChannel signs a private-channel subscription for one socket and
// returns the opaque token body the client hands back to the hosted service.
func (c *Client) AuthorizeChannel(socketID, channelName string) ([]byte, error) {
	params := url.Values{
		"socket_id":    {socketID},
		"channel_name": {channelName},
	}

	token, err := c.pusher.AuthorizePrivateChannel([]byte(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("authorize channel %s: %w", channelName, err)
	}
	return token, nil
}
