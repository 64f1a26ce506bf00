package events

import (
	"encoding/json"
	"testing"
)

func TestNewMarshalsPayload(t *testing.T) {
	ev, err := New(EventTypeTimeSync, TimeSyncPayload{Time: 42, Team: "Team Alpha"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if ev.ID == "" {
		t.Error("expected generated event ID")
	}
	if ev.Type != EventTypeTimeSync {
		t.Errorf("expected type %s, got %s", EventTypeTimeSync, ev.Type)
	}

	var payload TimeSyncPayload
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Time != 42 || payload.Team != "Team Alpha" {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestNewNilPayload(t *testing.T) {
	ev, err := New(EventTypePresentationReset, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if len(ev.Data) != 0 {
		t.Errorf("expected empty data, got %s", ev.Data)
	}
}

func TestFromRawKeepsBytes(t *testing.T) {
	raw := json.RawMessage(`{"time":42}`)
	ev := FromRaw(EventTypeTimeSync, raw)
	if string(ev.Data) != `{"time":42}` {
		t.Errorf("expected raw payload preserved, got %s", ev.Data)
	}
}

func TestIsLifecycle(t *testing.T) {
	tests := []struct {
		eventType EventType
		want      bool
	}{
		{EventTypePresentationStarting, true},
		{EventTypePresentationStarted, true},
		{EventTypePresentationEnded, true},
		{EventTypeTimeSync, true},
		{EventTypeEvaluationForm, true},
		{EventTypePresentationReset, true},
		{EventTypeEvaluationSubmitted, false},
		{EventTypeTeamEvaluations, false},
		{EventType("bogus"), false},
	}

	for _, tt := range tests {
		if got := IsLifecycle(tt.eventType); got != tt.want {
			t.Errorf("IsLifecycle(%s) = %v, want %v", tt.eventType, got, tt.want)
		}
	}
}

func TestParsePayload(t *testing.T) {
	ev, err := New(EventTypeEvaluationSubmitted, EvaluationSubmittedPayload{
		Team:      "Team Alpha",
		Evaluator: "usn1",
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	parsed, err := ParsePayload(ev)
	if err != nil {
		t.Fatalf("ParsePayload returned error: %v", err)
	}

	payload, ok := parsed.(EvaluationSubmittedPayload)
	if !ok {
		t.Fatalf("expected EvaluationSubmittedPayload, got %T", parsed)
	}
	if payload.Team != "Team Alpha" || payload.Evaluator != "usn1" {
		t.Errorf("unexpected payload: %+v", payload)
	}
}
