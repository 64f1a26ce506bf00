// Package httpapi exposes the REST surface: roster upload, admin event
// dispatch, channel authorization, status snapshot and health.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/peerstage/peerstage/internal/presentation"
	"github.com/peerstage/peerstage/internal/roster"
)

// ChannelAuthorizer signs hosted-channel subscriptions. Implemented by the
// pusherch client; nil when the hosted binding is not configured.
type ChannelAuthorizer interface {
	AuthorizeChannel(socketID, channelName string) ([]byte, error)
}

// Handler holds the HTTP handlers and their collaborators.
type Handler struct {
	roster     *roster.App
	dispatcher *Dispatcher
	authorizer ChannelAuthorizer
	tracker    *presentation.Tracker
}

// NewHandler creates the API handler. authorizer may be nil.
func NewHandler(rosterApp *roster.App, dispatcher *Dispatcher, authorizer ChannelAuthorizer, tracker *presentation.Tracker) *Handler {
	return &Handler{
		roster:     rosterApp,
		dispatcher: dispatcher,
		authorizer: authorizer,
		tracker:    tracker,
	}
}

// RegisterRoutes registers the API routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/upload", h.handleUpload)
	mux.HandleFunc("/api/pusher-auth", h.handlePusherAuth)
	mux.HandleFunc("/api/presentation", h.handleStatus)
	mux.HandleFunc("/health", h.handleHealth)
}

// uploadRequest is the combined body of POST /api/upload: either a roster
// upload ({type, data}) or an admin event ({event, data}).
type uploadRequest struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "Method not allowed"})
		return
	}

	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	switch {
	case req.Type != "":
		h.handleRosterUpload(w, r, req)
	case req.Event != "":
		h.handleEvent(w, r, req)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid upload type"})
	}
}

func (h *Handler) handleRosterUpload(w http.ResponseWriter, r *http.Request, req uploadRequest) {
	var rows [][]string
	if err := json.Unmarshal(req.Data, &rows); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid upload data"})
		return
	}

	var (
		count int
		err   error
	)
	switch req.Type {
	case "participants":
		count, err = h.roster.LoadParticipants(r.Context(), rows)
	case "teams":
		count, err = h.roster.LoadTeams(r.Context(), rows)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid upload type"})
		return
	}

	if err != nil {
		log.Error().Err(err).Str("type", req.Type).Msg("roster upload failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Successfully processed " + req.Type + " upload",
		"count":   count,
	})
}

func (h *Handler) handleEvent(w http.ResponseWriter, r *http.Request, req uploadRequest) {
	if err := h.dispatcher.Dispatch(r.Context(), req.Event, req.Data); err != nil {
		if errors.Is(err, ErrUnknownEvent) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid event type"})
			return
		}
		log.Error().Err(err).Str("event", req.Event).Msg("event dispatch failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Event processed successfully"})
}

// handlePusherAuth mints a short-lived subscription token for one socket.
// Used only by the hosted-channel binding.
func (h *Handler) handlePusherAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "Method not allowed"})
		return
	}
	if h.authorizer == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "Hosted channel transport is not configured"})
		return
	}

	var req struct {
		SocketID    string `json:"socket_id"`
		ChannelName string `json:"channel_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SocketID == "" || req.ChannelName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "socket_id and channel_name are required"})
		return
	}

	token, err := h.authorizer.AuthorizeChannel(req.SocketID, req.ChannelName)
	if err != nil {
		log.Error().Err(err).Str("channel", req.ChannelName).Msg("channel authorization failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(token)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Snapshot())
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}
