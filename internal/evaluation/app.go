package evaluation

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/peerstage/peerstage/internal/events"
	"github.com/peerstage/peerstage/internal/models"
	"github.com/peerstage/peerstage/internal/transport"
)

// Store defines what the aggregator needs from the evaluation repository.
type Store interface {
	Create(ctx context.Context, eval *models.Evaluation) (*models.Evaluation, error)
	ListByTeam(ctx context.Context, teamName string) ([]models.Evaluation, error)
}

// SubmitRequest is one peer's submission for one team.
type SubmitRequest struct {
	Team      string
	Evaluator string
	Ratings   []models.CriterionRating
	Feedback  string
}

// App is the evaluation aggregator: it persists each submission, announces
// it, then recomputes and rebroadcasts the full per-team list so every
// connected client's view stays current.
type App struct {
	store       Store
	broadcaster transport.Broadcaster
	clock       clockwork.Clock
}

// NewApp creates a new evaluation app.
func NewApp(store Store, broadcaster transport.Broadcaster, clock clockwork.Clock) *App {
	return &App{
		store:       store,
		broadcaster: broadcaster,
		clock:       clock,
	}
}

// Submit persists the evaluation, broadcasts evaluationSubmitted with the
// stored record's ID, then reads back every evaluation for the team and
// broadcasts teamEvaluations.
//
// A store failure aborts the whole operation before any broadcast. A
// failure reading the list back is logged and swallowed: the already-sent
// evaluationSubmitted is not retracted, so clients that only watch
// teamEvaluations catch up on the next submission.
func (a *App) Submit(ctx context.Context, req SubmitRequest) (*models.Evaluation, error) {
	eval := &models.Evaluation{
		TeamName:     req.Team,
		EvaluatorUSN: req.Evaluator,
		Ratings:      req.Ratings,
		Feedback:     req.Feedback,
		SubmittedAt:  a.clock.Now().UTC(),
	}

	stored, err := a.store.Create(ctx, eval)
	if err != nil {
		return nil, fmt.Errorf("store evaluation: %w", err)
	}

	a.broadcast(ctx, events.EventTypeEvaluationSubmitted, events.EvaluationSubmittedPayload{
		Team:      stored.TeamName,
		Evaluator: stored.EvaluatorUSN,
		Evaluation: events.SubmissionBody{
			Ratings:  stored.Ratings,
			Feedback: stored.Feedback,
		},
		EvaluationID: stored.ID.Hex(),
	})

	list, err := a.store.ListByTeam(ctx, req.Team)
	if err != nil {
		log.Error().Err(err).Str("team", req.Team).Msg("failed to reload team evaluations after submit")
		return stored, nil
	}

	a.broadcast(ctx, events.EventTypeTeamEvaluations, events.TeamEvaluationsPayload{
		Team:        req.Team,
		Evaluations: list,
	})

	log.Info().
		Str("team", stored.TeamName).
		Str("evaluator", stored.EvaluatorUSN).
		Str("evaluation_id", stored.ID.Hex()).
		Int("team_total", len(list)).
		Msg("evaluation submitted")

	return stored, nil
}

// ListByTeam returns the stored evaluations for a team.
func (a *App) ListByTeam(ctx context.Context, teamName string) ([]models.Evaluation, error) {
	return a.store.ListByTeam(ctx, teamName)
}

func (a *App) broadcast(ctx context.Context, t events.EventType, payload interface{}) {
	ev, err := events.New(t, payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(t)).Msg("failed to build event")
		return
	}
	if err := a.broadcaster.Broadcast(ctx, ev); err != nil {
		log.Error().Err(err).Str("event_type", string(t)).Msg("failed to broadcast event")
	}
}
