package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/peerstage/peerstage/internal/evaluation"
	"github.com/peerstage/peerstage/internal/events"
	"github.com/peerstage/peerstage/internal/presentation"
)

// ErrUnknownEvent is returned for event names outside the wire contract.
var ErrUnknownEvent = errors.New("unknown event type")

// submitFrame tolerates both field spellings seen on the wire: the socket
// path sends team/evaluator, the form component builds teamName/evaluatorUSN.
type submitFrame struct {
	Team         string                `json:"team"`
	TeamName     string                `json:"teamName"`
	Evaluator    string                `json:"evaluator"`
	EvaluatorUSN string                `json:"evaluatorUSN"`
	Evaluation   events.SubmissionBody `json:"evaluation"`
}

// Dispatcher routes inbound admin events, from either transport, to the
// lifecycle relay or the evaluation aggregator.
type Dispatcher struct {
	relay  *presentation.Relay
	evals  *evaluation.App
	ticker *presentation.Ticker // nil unless server timer mode
}

// NewDispatcher creates a dispatcher. ticker may be nil.
func NewDispatcher(relay *presentation.Relay, evals *evaluation.App, ticker *presentation.Ticker) *Dispatcher {
	return &Dispatcher{
		relay:  relay,
		evals:  evals,
		ticker: ticker,
	}
}

// Dispatch handles one named event with its raw payload.
func (d *Dispatcher) Dispatch(ctx context.Context, event string, data json.RawMessage) error {
	t := events.EventType(event)

	switch {
	case t == events.EventTypeEvaluationSubmitted:
		return d.submit(ctx, data)

	case events.IsLifecycle(t):
		d.driveTicker(t, data)
		return d.relay.Relay(ctx, events.FromRaw(t, data))

	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
}

func (d *Dispatcher) submit(ctx context.Context, data json.RawMessage) error {
	var frame submitFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return fmt.Errorf("decode submission: %w", err)
	}

	team := frame.Team
	if team == "" {
		team = frame.TeamName
	}
	evaluator := frame.Evaluator
	if evaluator == "" {
		evaluator = frame.EvaluatorUSN
	}
	if team == "" || evaluator == "" {
		return fmt.Errorf("decode submission: team and evaluator are required")
	}

	_, err := d.evals.Submit(ctx, evaluation.SubmitRequest{
		Team:      team,
		Evaluator: evaluator,
		Ratings:   frame.Evaluation.Ratings,
		Feedback:  frame.Evaluation.Feedback,
	})
	return err
}

// driveTicker starts and stops the server-owned timer alongside the
// lifecycle events, when server timer mode is on.
func (d *Dispatcher) driveTicker(t events.EventType, data json.RawMessage) {
	if d.ticker == nil {
		return
	}

	switch t {
	case events.EventTypePresentationStarted:
		var payload events.TeamPayload
		_ = json.Unmarshal(data, &payload)
		d.ticker.Start(payload.Team)
	case events.EventTypePresentationEnded, events.EventTypePresentationReset:
		d.ticker.Stop()
	}
}
