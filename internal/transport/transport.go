// Package transport defines what the relay and the evaluation aggregator
// need from a transport binding. The concrete bindings live in subpackages:
// ws (self-hosted socket hub), pusherch (hosted channel), natsbridge
// (JetStream bridge into the local hub).
package transport

import (
	"context"

	"github.com/peerstage/peerstage/internal/events"
)

// Broadcaster fans an event out to every subscriber of the presentation
// channel. Delivery is at-least-once at best; nothing is retracted.
type Broadcaster interface {
	Broadcast(ctx context.Context, ev *events.Event) error
}

// BroadcastFunc adapts a function to the Broadcaster interface.
type BroadcastFunc func(ctx context.Context, ev *events.Event) error

func (f BroadcastFunc) Broadcast(ctx context.Context, ev *events.Event) error {
	return f(ctx, ev)
}
