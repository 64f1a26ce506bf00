// Package natsbridge is the message-bus transport binding: events are
// published to a JetStream stream and a durable consumer delivers them into
// the local websocket hub with at-least-once semantics. Admin actions and
// peer fan-out stay decoupled, so a relay restart replays undelivered
// events instead of dropping them.
package natsbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/peerstage/peerstage/internal/events"
)

// Config holds JetStream connection and consumer settings.
type Config struct {
	URL           string
	StreamName    string
	ConsumerName  string
	SubjectPrefix string
	MaxDeliver    int
	AckWait       time.Duration
	MaxAckPending int
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultConfig returns default bridge configuration.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		StreamName:    "PRESENTATION_EVENTS",
		ConsumerName:  "presentation-relay",
		SubjectPrefix: "presentation.events",
		MaxDeliver:    5,
		AckWait:       30 * time.Second,
		MaxAckPending: 100,
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// Bridge connects the relay to JetStream: Broadcast publishes, Start
// consumes into the local broadcaster.
type Bridge struct {
	nc       *nats.Conn
	js       jetstream.JetStream
	consumer jetstream.Consumer
	config   Config
}

// New connects to NATS and ensures the stream and durable consumer exist.
func New(ctx context.Context, config Config) (*Bridge, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	b := &Bridge{
		nc:     nc,
		js:     js,
		config: config,
	}

	if err := b.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}
	if err := b.ensureConsumer(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure consumer: %w", err)
	}

	return b, nil
}

// Broadcast publishes the event to its per-type subject. The consumer side
// delivers it to subscribers.
func (b *Bridge) Broadcast(ctx context.Context, ev *events.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", ev.Type, err)
	}

	subject := fmt.Sprintf("%s.%s", b.config.SubjectPrefix, ev.Type)
	if _, err := b.js.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	log.Debug().
		Str("event_type", string(ev.Type)).
		Str("subject", subject).
		Msg("event published to JetStream")
	return nil
}

// Close shuts down the NATS connection.
func (b *Bridge) Close() {
	if b.nc != nil {
		b.nc.Close()
	}
}

func (b *Bridge) ensureStream(ctx context.Context) error {
	_, err := b.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      b.config.StreamName,
		Subjects:  []string{b.config.SubjectPrefix + ".>"},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", b.config.StreamName, err)
	}
	return nil
}

func (b *Bridge) ensureConsumer(ctx context.Context) error {
	stream, err := b.js.Stream(ctx, b.config.StreamName)
	if err != nil {
		return fmt.Errorf("get stream: %w", err)
	}

	consumerConfig := jetstream.ConsumerConfig{
		Name:          b.config.ConsumerName,
		Durable:       b.config.ConsumerName,
		Description:   "Presentation relay consumer",
		FilterSubject: b.config.SubjectPrefix + ".>",
		DeliverPolicy: jetstream.DeliverNewPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    b.config.MaxDeliver,
		AckWait:       b.config.AckWait,
		MaxAckPending: b.config.MaxAckPending,
		ReplayPolicy:  jetstream.ReplayInstantPolicy,
	}

	consumer, err := stream.Consumer(ctx, b.config.ConsumerName)
	if err != nil {
		consumer, err = stream.CreateConsumer(ctx, consumerConfig)
		if err != nil {
			return fmt.Errorf("create consumer: %w", err)
		}
		log.Info().
			Str("consumer", b.config.ConsumerName).
			Str("stream", b.config.StreamName).
			Msg("created JetStream consumer")
	} else {
		log.Info().
			Str("consumer", b.config.ConsumerName).
			Str("stream", b.config.StreamName).
			Msg("using existing JetStream consumer")
	}

	b.consumer = consumer
	return nil
}
