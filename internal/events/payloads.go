package events

import (
	"encoding/json"

	"github.com/peerstage/peerstage/internal/models"
)

// Payload types shared between the relay, the aggregator and the transport
// bindings. Field names are the wire contract; the browser clients already
// depend on them.

// TeamPayload carries presentationStarting/Started/Ended.
type TeamPayload struct {
	Team string `json:"team"`
}

// TimeSyncPayload carries the elapsed-seconds counter while a presentation
// is active. Monotonicity is the sender's problem, not the relay's.
type TimeSyncPayload struct {
	Time int    `json:"time"`
	Team string `json:"team,omitempty"`
}

// EvaluationFormPayload carries the form definition pushed to peers when the
// presentation moves to the evaluation phase. The form body is opaque to the
// server.
type EvaluationFormPayload struct {
	Team string          `json:"team"`
	Form json.RawMessage `json:"form,omitempty"`
}

// SubmissionBody is the evaluator-authored part of a submission.
type SubmissionBody struct {
	Ratings  []models.CriterionRating `json:"ratings"`
	Feedback string                   `json:"feedback"`
}

// EvaluationSubmittedPayload is both the inbound submission and the outbound
// broadcast; outbound adds the generated EvaluationID.
type EvaluationSubmittedPayload struct {
	Team         string         `json:"team"`
	Evaluator    string         `json:"evaluator"`
	Evaluation   SubmissionBody `json:"evaluation"`
	EvaluationID string         `json:"evaluationId,omitempty"`
}

// TeamEvaluationsPayload carries the full recomputed evaluation list for a
// team after each submission.
type TeamEvaluationsPayload struct {
	Team        string              `json:"team"`
	Evaluations []models.Evaluation `json:"evaluations"`
}

// ErrorPayload is sent to a single client when their submission fails.
type ErrorPayload struct {
	Message string `json:"message"`
}

// ParsePayload parses event data into the matching payload struct.
func ParsePayload(ev *Event) (interface{}, error) {
	switch ev.Type {
	case EventTypePresentationStarting, EventTypePresentationStarted, EventTypePresentationEnded:
		var payload TeamPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeTimeSync:
		var payload TimeSyncPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeEvaluationForm:
		var payload EvaluationFormPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeEvaluationSubmitted:
		var payload EvaluationSubmittedPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeTeamEvaluations:
		var payload TeamEvaluationsPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypePresentationReset:
		return nil, nil

	default:
		return nil, nil // Unknown event type
	}
}
