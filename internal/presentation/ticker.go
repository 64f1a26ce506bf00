package presentation

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/peerstage/peerstage/internal/events"
)

// Ticker is the server-owned timeSync source. By default the admin client
// counts the presentation up and emits timeSync itself; when the server
// timer mode is enabled, the ticker emits the same once-a-second events from
// the process that already owns the status cursor, so the session keeps
// ticking even if the admin tab goes to sleep.
//
// Ticks go through the relay like any other lifecycle event, so the tracker
// and all subscribers see the same stream.
type Ticker struct {
	relay *Relay
	clock clockwork.Clock

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTicker creates a ticker. clock is clockwork.NewRealClock() in
// production and a FakeClock in tests.
func NewTicker(relay *Relay, clock clockwork.Clock) *Ticker {
	return &Ticker{
		relay: relay,
		clock: clock,
	}
}

// Start begins emitting timeSync for team once a second, replacing any run
// already in progress. The run outlives the triggering request, so it is
// detached from the caller's context; Stop or presentationEnded ends it.
func (t *Ticker) Start(team string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
		<-t.done
	}

	runCtx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})
	go t.run(runCtx, team, t.done)

	log.Info().Str("team", team).Msg("server timer started")
}

// Stop halts the current run, if any, and waits for it to exit.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
		<-t.done
		t.cancel = nil
		log.Info().Msg("server timer stopped")
	}
}

func (t *Ticker) run(ctx context.Context, team string, done chan struct{}) {
	defer close(done)

	ticker := t.clock.NewTicker(time.Second)
	defer ticker.Stop()

	elapsed := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			elapsed++
			ev, err := events.New(events.EventTypeTimeSync, events.TimeSyncPayload{
				Time: elapsed,
				Team: team,
			})
			if err != nil {
				log.Error().Err(err).Msg("failed to build timeSync event")
				continue
			}
			if err := t.relay.Relay(ctx, ev); err != nil {
				log.Error().Err(err).Int("time", elapsed).Msg("failed to relay timeSync")
			}
		}
	}
}
