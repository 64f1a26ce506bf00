package natsbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/peerstage/peerstage/internal/events"
	"github.com/peerstage/peerstage/internal/transport"
)

// Start consumes events from JetStream and hands each one to local, which
// is the in-process websocket hub. Messages are acked only after the local
// broadcast is queued; failures are nak'ed for redelivery. Blocks until ctx
// is done.
func (b *Bridge) Start(ctx context.Context, local transport.Broadcaster) error {
	log.Info().
		Str("consumer", b.config.ConsumerName).
		Str("stream", b.config.StreamName).
		Msg("starting JetStream event consumer")

	messageCh := make(chan jetstream.Msg, 100)

	consumeCtx, err := b.consumer.Consume(func(msg jetstream.Msg) {
		select {
		case messageCh <- msg:
		case <-ctx.Done():
			msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer consumeCtx.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("event consumer shutting down")
			return nil
		case msg := <-messageCh:
			if err := b.processMessage(ctx, msg, local); err != nil {
				log.Error().
					Err(err).
					Str("subject", msg.Subject()).
					Msg("failed to process message")
				if nakErr := msg.Nak(); nakErr != nil {
					log.Error().Err(nakErr).Msg("failed to NAK message")
				}
			} else {
				if ackErr := msg.Ack(); ackErr != nil {
					log.Error().Err(ackErr).Msg("failed to ACK message")
				}
			}
		}
	}
}

func (b *Bridge) processMessage(ctx context.Context, msg jetstream.Msg, local transport.Broadcaster) error {
	var ev events.Event
	if err := json.Unmarshal(msg.Data(), &ev); err != nil {
		return fmt.Errorf("unmarshal event envelope: %w", err)
	}

	if err := local.Broadcast(ctx, &ev); err != nil {
		return fmt.Errorf("local broadcast %s: %w", ev.Type, err)
	}

	log.Debug().
		Str("event_id", ev.ID).
		Str("event_type", string(ev.Type)).
		Str("subject", msg.Subject()).
		Msg("event delivered from JetStream")
	return nil
}
