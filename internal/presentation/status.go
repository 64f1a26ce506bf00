package presentation

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/peerstage/peerstage/internal/events"
)

// State is one phase of the presentation lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateStarting   State = "starting"
	StateActive     State = "active"
	StateEvaluation State = "evaluation"
)

// Status is the live-session cursor: which team is presenting and how far
// along it is. One instance per process, never persisted; losing it on
// restart is acceptable.
type Status struct {
	State       State  `json:"status"`
	CurrentTeam string `json:"currentTeam"`
	CurrentTime int    `json:"currentTime"`
}

// Tracker owns the shared Status. The relay applies every event before
// broadcasting it, so the tracker's view is what subscribers converge to.
//
// Sequencing is the admin UI's job. The tracker never rejects an event: an
// out-of-order transition is logged at warn level and applied anyway, so the
// relayed stream and the snapshot endpoint stay consistent with each other.
type Tracker struct {
	mu     sync.Mutex
	status Status
}

// NewTracker creates a tracker in the idle state.
func NewTracker() *Tracker {
	return &Tracker{status: Status{State: StateIdle}}
}

// Apply mutates the status per the lifecycle transition table. Events that
// carry auxiliary payload (evaluationForm, evaluationSubmitted,
// teamEvaluations) leave the status untouched.
func (t *Tracker) Apply(ev *events.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Type {
	case events.EventTypePresentationStarting:
		t.warnIfNot(ev.Type, StateIdle)
		t.status = Status{State: StateStarting, CurrentTeam: teamOf(ev)}

	case events.EventTypePresentationStarted:
		t.warnIfNot(ev.Type, StateStarting)
		t.status.State = StateActive
		if team := teamOf(ev); team != "" {
			t.status.CurrentTeam = team
		}

	case events.EventTypePresentationEnded:
		t.warnIfNot(ev.Type, StateActive)
		t.status.State = StateEvaluation

	case events.EventTypeTimeSync:
		var payload events.TimeSyncPayload
		if err := json.Unmarshal(ev.Data, &payload); err == nil {
			t.status.CurrentTime = payload.Time
		}

	case events.EventTypePresentationReset:
		t.status = Status{State: StateIdle}
	}
}

// Snapshot returns a copy of the current status.
func (t *Tracker) Snapshot() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *Tracker) warnIfNot(ev events.EventType, want State) {
	if t.status.State != want {
		log.Warn().
			Str("event_type", string(ev)).
			Str("state", string(t.status.State)).
			Str("expected_state", string(want)).
			Msg("out-of-order lifecycle event, applying anyway")
	}
}

func teamOf(ev *events.Event) string {
	var payload events.TeamPayload
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		return ""
	}
	return payload.Team
}
