// Package presentation owns the presentation lifecycle: the shared status
// cursor, the event relay that fans admin events out to every subscriber,
// and the optional server-side tick loop.
package presentation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/peerstage/peerstage/internal/events"
	"github.com/peerstage/peerstage/internal/transport"
)

// Relay forwards lifecycle events verbatim to every subscriber, tracking the
// shared status on the way through. No payload validation, no sequencing
// check, no dedup: a duplicate presentationStarting is relayed twice and
// peers receive it twice.
type Relay struct {
	tracker     *Tracker
	broadcaster transport.Broadcaster
}

// NewRelay creates a new lifecycle relay.
func NewRelay(tracker *Tracker, broadcaster transport.Broadcaster) *Relay {
	return &Relay{
		tracker:     tracker,
		broadcaster: broadcaster,
	}
}

// Relay applies the event to the status tracker, then broadcasts it
// unchanged.
func (r *Relay) Relay(ctx context.Context, ev *events.Event) error {
	r.tracker.Apply(ev)

	if err := r.broadcaster.Broadcast(ctx, ev); err != nil {
		return fmt.Errorf("broadcast %s: %w", ev.Type, err)
	}

	log.Debug().
		Str("event_type", string(ev.Type)).
		Str("event_id", ev.ID).
		Msg("lifecycle event relayed")
	return nil
}

// Status returns a copy of the current presentation status.
func (r *Relay) Status() Status {
	return r.tracker.Snapshot()
}
