package presentation

import (
	"testing"

	"github.com/peerstage/peerstage/internal/events"
)

func mustEvent(t *testing.T, eventType events.EventType, payload interface{}) *events.Event {
	t.Helper()
	ev, err := events.New(eventType, payload)
	if err != nil {
		t.Fatalf("build %s event: %v", eventType, err)
	}
	return ev
}

func TestTrackerLifecycle(t *testing.T) {
	tracker := NewTracker()

	if got := tracker.Snapshot(); got.State != StateIdle {
		t.Fatalf("expected initial state idle, got %s", got.State)
	}

	tracker.Apply(mustEvent(t, events.EventTypePresentationStarting, events.TeamPayload{Team: "Team Alpha"}))
	if got := tracker.Snapshot(); got.State != StateStarting || got.CurrentTeam != "Team Alpha" {
		t.Fatalf("after starting: %+v", got)
	}

	tracker.Apply(mustEvent(t, events.EventTypePresentationStarted, events.TeamPayload{Team: "Team Alpha"}))
	if got := tracker.Snapshot(); got.State != StateActive {
		t.Fatalf("after started: %+v", got)
	}

	tracker.Apply(mustEvent(t, events.EventTypeTimeSync, events.TimeSyncPayload{Time: 42}))
	if got := tracker.Snapshot(); got.CurrentTime != 42 {
		t.Fatalf("after timeSync: %+v", got)
	}

	tracker.Apply(mustEvent(t, events.EventTypePresentationEnded, events.TeamPayload{Team: "Team Alpha"}))
	if got := tracker.Snapshot(); got.State != StateEvaluation {
		t.Fatalf("after ended: %+v", got)
	}
}

func TestTrackerResetFromAnyState(t *testing.T) {
	states := [][]events.EventType{
		{},
		{events.EventTypePresentationStarting},
		{events.EventTypePresentationStarting, events.EventTypePresentationStarted},
		{events.EventTypePresentationStarting, events.EventTypePresentationStarted, events.EventTypePresentationEnded},
	}

	for _, sequence := range states {
		tracker := NewTracker()
		for _, eventType := range sequence {
			tracker.Apply(mustEvent(t, eventType, events.TeamPayload{Team: "Team Alpha"}))
		}
		tracker.Apply(mustEvent(t, events.EventTypeTimeSync, events.TimeSyncPayload{Time: 17}))

		tracker.Apply(mustEvent(t, events.EventTypePresentationReset, nil))

		got := tracker.Snapshot()
		if got.State != StateIdle || got.CurrentTeam != "" || got.CurrentTime != 0 {
			t.Errorf("after reset from %v: %+v", sequence, got)
		}
	}
}

func TestTrackerOutOfOrderStillApplied(t *testing.T) {
	tracker := NewTracker()

	// presentationStarted without presentationStarting is still applied.
	tracker.Apply(mustEvent(t, events.EventTypePresentationStarted, events.TeamPayload{Team: "Team Alpha"}))
	if got := tracker.Snapshot(); got.State != StateActive || got.CurrentTeam != "Team Alpha" {
		t.Fatalf("out-of-order started not applied: %+v", got)
	}
}

func TestTrackerAuxiliaryEventsDoNotChangeState(t *testing.T) {
	tracker := NewTracker()
	tracker.Apply(mustEvent(t, events.EventTypePresentationStarting, events.TeamPayload{Team: "Team Alpha"}))

	tracker.Apply(mustEvent(t, events.EventTypeEvaluationForm, events.EvaluationFormPayload{Team: "Team Alpha"}))
	tracker.Apply(mustEvent(t, events.EventTypeEvaluationSubmitted, events.EvaluationSubmittedPayload{Team: "Team Alpha"}))
	tracker.Apply(mustEvent(t, events.EventTypeTeamEvaluations, events.TeamEvaluationsPayload{Team: "Team Alpha"}))

	if got := tracker.Snapshot(); got.State != StateStarting {
		t.Errorf("auxiliary events changed state: %+v", got)
	}
}
