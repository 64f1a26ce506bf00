package presentation

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/peerstage/peerstage/internal/events"
)

type channelBroadcaster struct {
	ch chan *events.Event
}

func (c *channelBroadcaster) Broadcast(ctx context.Context, ev *events.Event) error {
	c.ch <- ev
	return nil
}

func nextTimeSync(t *testing.T, ch chan *events.Event) events.TimeSyncPayload {
	t.Helper()
	select {
	case ev := <-ch:
		if ev.Type != events.EventTypeTimeSync {
			t.Fatalf("expected timeSync, got %s", ev.Type)
		}
		var payload events.TimeSyncPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			t.Fatalf("unmarshal timeSync payload: %v", err)
		}
		return payload
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for timeSync")
	}
	return events.TimeSyncPayload{}
}

func TestTickerEmitsMonotonicTimeSync(t *testing.T) {
	clock := clockwork.NewFakeClock()
	broadcaster := &channelBroadcaster{ch: make(chan *events.Event, 16)}
	tracker := NewTracker()
	ticker := NewTicker(NewRelay(tracker, broadcaster), clock)

	ticker.Start("Team Alpha")
	defer ticker.Stop()

	// Wait for the run goroutine to create its ticker before advancing.
	clock.BlockUntil(1)

	clock.Advance(time.Second)
	first := nextTimeSync(t, broadcaster.ch)
	if first.Time != 1 || first.Team != "Team Alpha" {
		t.Fatalf("unexpected first tick: %+v", first)
	}

	clock.Advance(time.Second)
	second := nextTimeSync(t, broadcaster.ch)
	if second.Time != 2 {
		t.Fatalf("expected second tick at 2, got %d", second.Time)
	}

	if got := tracker.Snapshot(); got.CurrentTime != 2 {
		t.Errorf("expected tracker time 2, got %d", got.CurrentTime)
	}
}

func TestTickerStopHaltsTicks(t *testing.T) {
	clock := clockwork.NewFakeClock()
	broadcaster := &channelBroadcaster{ch: make(chan *events.Event, 16)}
	ticker := NewTicker(NewRelay(NewTracker(), broadcaster), clock)

	ticker.Start("Team Alpha")
	clock.BlockUntil(1)

	clock.Advance(time.Second)
	nextTimeSync(t, broadcaster.ch)

	ticker.Stop()
	clock.Advance(5 * time.Second)

	select {
	case ev := <-broadcaster.ch:
		t.Fatalf("expected no ticks after stop, got %s", ev.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTickerRestartReplacesRun(t *testing.T) {
	clock := clockwork.NewFakeClock()
	broadcaster := &channelBroadcaster{ch: make(chan *events.Event, 16)}
	ticker := NewTicker(NewRelay(NewTracker(), broadcaster), clock)

	ticker.Start("Team Alpha")
	clock.BlockUntil(1)
	clock.Advance(time.Second)
	nextTimeSync(t, broadcaster.ch)

	// Restart for a new team resets the counter.
	ticker.Start("Team Beta")
	defer ticker.Stop()
	clock.BlockUntil(1)

	clock.Advance(time.Second)
	tick := nextTimeSync(t, broadcaster.ch)
	if tick.Team != "Team Beta" || tick.Time != 1 {
		t.Fatalf("expected fresh counter for Team Beta, got %+v", tick)
	}
}
