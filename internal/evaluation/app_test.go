package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/peerstage/peerstage/internal/events"
	"github.com/peerstage/peerstage/internal/models"
)

type mockStore struct {
	created   []models.Evaluation
	createErr error
	listErr   error
}

func (m *mockStore) Create(ctx context.Context, eval *models.Evaluation) (*models.Evaluation, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	eval.ID = primitive.NewObjectID()
	m.created = append(m.created, *eval)
	return eval, nil
}

func (m *mockStore) ListByTeam(ctx context.Context, teamName string) ([]models.Evaluation, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.Evaluation
	for _, eval := range m.created {
		if eval.TeamName == teamName {
			out = append(out, eval)
		}
	}
	return out, nil
}

type mockBroadcaster struct {
	events []*events.Event
	err    error
}

func (m *mockBroadcaster) Broadcast(ctx context.Context, ev *events.Event) error {
	m.events = append(m.events, ev)
	return m.err
}

func submitRequest(team, evaluator string) SubmitRequest {
	return SubmitRequest{
		Team:      team,
		Evaluator: evaluator,
		Ratings: []models.CriterionRating{
			{CriterionID: "content", Label: "Content Quality", Score: 8},
			{CriterionID: "presentation", Label: "Presentation Skills", Score: 7},
		},
		Feedback: "solid work",
	}
}

func TestSubmit_PersistsAndBroadcasts(t *testing.T) {
	store := &mockStore{}
	broadcaster := &mockBroadcaster{}
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)
	app := NewApp(store, broadcaster, clock)

	stored, err := app.Submit(context.Background(), submitRequest("Team Alpha", "usn1"))
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	if len(store.created) != 1 {
		t.Fatalf("expected 1 stored evaluation, got %d", len(store.created))
	}
	if stored.ID.IsZero() {
		t.Error("expected generated evaluation ID")
	}
	if !stored.SubmittedAt.Equal(now) {
		t.Errorf("expected submittedAt %v, got %v", now, stored.SubmittedAt)
	}

	if len(broadcaster.events) != 2 {
		t.Fatalf("expected 2 broadcasts, got %d", len(broadcaster.events))
	}
	if broadcaster.events[0].Type != events.EventTypeEvaluationSubmitted {
		t.Errorf("first broadcast: expected %s, got %s", events.EventTypeEvaluationSubmitted, broadcaster.events[0].Type)
	}
	if broadcaster.events[1].Type != events.EventTypeTeamEvaluations {
		t.Errorf("second broadcast: expected %s, got %s", events.EventTypeTeamEvaluations, broadcaster.events[1].Type)
	}

	var submitted events.EvaluationSubmittedPayload
	if err := json.Unmarshal(broadcaster.events[0].Data, &submitted); err != nil {
		t.Fatalf("unmarshal evaluationSubmitted: %v", err)
	}
	if submitted.EvaluationID != stored.ID.Hex() {
		t.Errorf("expected evaluationId %s, got %s", stored.ID.Hex(), submitted.EvaluationID)
	}

	var list events.TeamEvaluationsPayload
	if err := json.Unmarshal(broadcaster.events[1].Data, &list); err != nil {
		t.Fatalf("unmarshal teamEvaluations: %v", err)
	}
	if list.Team != "Team Alpha" || len(list.Evaluations) != 1 {
		t.Errorf("unexpected teamEvaluations payload: %+v", list)
	}
	if list.Evaluations[0].ID != stored.ID {
		t.Error("expected new record in the team list")
	}
}

func TestSubmit_StoreFailureNoBroadcast(t *testing.T) {
	store := &mockStore{createErr: errors.New("write failed")}
	broadcaster := &mockBroadcaster{}
	app := NewApp(store, broadcaster, clockwork.NewFakeClock())

	if _, err := app.Submit(context.Background(), submitRequest("Team Alpha", "usn1")); err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(broadcaster.events) != 0 {
		t.Errorf("expected no broadcasts after store failure, got %d", len(broadcaster.events))
	}
}

func TestSubmit_ListFailureKeepsSubmittedBroadcast(t *testing.T) {
	store := &mockStore{listErr: errors.New("read failed")}
	broadcaster := &mockBroadcaster{}
	app := NewApp(store, broadcaster, clockwork.NewFakeClock())

	stored, err := app.Submit(context.Background(), submitRequest("Team Alpha", "usn1"))
	if err != nil {
		t.Fatalf("expected list failure to be swallowed, got: %v", err)
	}
	if stored == nil {
		t.Fatal("expected stored evaluation")
	}

	if len(broadcaster.events) != 1 {
		t.Fatalf("expected only evaluationSubmitted broadcast, got %d", len(broadcaster.events))
	}
	if broadcaster.events[0].Type != events.EventTypeEvaluationSubmitted {
		t.Errorf("expected %s, got %s", events.EventTypeEvaluationSubmitted, broadcaster.events[0].Type)
	}
}

func TestSubmit_TwoEvaluatorsBothInFinalList(t *testing.T) {
	store := &mockStore{}
	broadcaster := &mockBroadcaster{}
	app := NewApp(store, broadcaster, clockwork.NewFakeClock())

	if _, err := app.Submit(context.Background(), submitRequest("Team Alpha", "usn1")); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := app.Submit(context.Background(), submitRequest("Team Alpha", "usn2")); err != nil {
		t.Fatalf("second submit: %v", err)
	}

	last := broadcaster.events[len(broadcaster.events)-1]
	if last.Type != events.EventTypeTeamEvaluations {
		t.Fatalf("expected final teamEvaluations, got %s", last.Type)
	}

	var list events.TeamEvaluationsPayload
	if err := json.Unmarshal(last.Data, &list); err != nil {
		t.Fatalf("unmarshal teamEvaluations: %v", err)
	}
	if len(list.Evaluations) != 2 {
		t.Fatalf("expected both evaluations in final list, got %d", len(list.Evaluations))
	}

	evaluators := map[string]bool{}
	for _, eval := range list.Evaluations {
		evaluators[eval.EvaluatorUSN] = true
	}
	if !evaluators["usn1"] || !evaluators["usn2"] {
		t.Errorf("expected usn1 and usn2, got %v", evaluators)
	}
}

func TestSubmit_RepeatSubmissionNotRejected(t *testing.T) {
	store := &mockStore{}
	app := NewApp(store, &mockBroadcaster{}, clockwork.NewFakeClock())

	for i := 0; i < 2; i++ {
		if _, err := app.Submit(context.Background(), submitRequest("Team Alpha", "usn1")); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	if len(store.created) != 2 {
		t.Errorf("expected 2 records for repeat submission, got %d", len(store.created))
	}
}
