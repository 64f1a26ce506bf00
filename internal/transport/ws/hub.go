// Package ws is the self-hosted transport binding: a websocket hub that owns
// every peer connection and relays events between them. Broadcast sends to
// every open connection; inbound admin frames are routed to the dispatcher.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/peerstage/peerstage/internal/events"
)

// EventSink receives inbound client frames. Implemented by the httpapi
// dispatcher; nil disables inbound routing.
type EventSink interface {
	Dispatch(ctx context.Context, event string, data json.RawMessage) error
}

// Config holds websocket connection tuning.
type Config struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConfig returns default websocket configuration.
func DefaultConfig() Config {
	return Config{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  64 * 1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// Hub manages the presentation channel's websocket connections. There is
// exactly one channel, so one connection pool.
type Hub struct {
	connections map[*Connection]bool
	mu          sync.RWMutex

	upgrader    websocket.Upgrader
	config      Config
	broadcastCh chan []byte

	sinkMu sync.RWMutex
	sink   EventSink
}

// Connection represents one subscribed client.
type Connection struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
	hub  *Hub

	ConnectedAt time.Time
}

// inboundFrame is the shape of admin-sent client messages.
type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// NewHub creates a new websocket hub.
func NewHub(config Config) *Hub {
	return &Hub{
		connections: make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan []byte, 1000),
	}
}

// SetSink installs the inbound event sink. Set once during wiring, before
// connections are accepted.
func (h *Hub) SetSink(sink EventSink) {
	h.sinkMu.Lock()
	defer h.sinkMu.Unlock()
	h.sink = sink
}

// Start begins processing broadcast messages. Blocks until ctx is done.
func (h *Hub) Start(ctx context.Context) {
	log.Info().Msg("websocket hub started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("websocket hub shutting down")
			h.closeAll()
			return
		case payload := <-h.broadcastCh:
			h.fanOut(payload)
		}
	}
}

// Broadcast queues an event for delivery to every open connection. The
// event is marshaled once; every subscriber receives identical bytes.
func (h *Hub) Broadcast(ctx context.Context, ev *events.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", ev.Type, err)
	}

	select {
	case h.broadcastCh <- payload:
		return nil
	default:
		log.Warn().Str("event_type", string(ev.Type)).Msg("broadcast channel full, dropping event")
		return nil
	}
}

// HandleConnection upgrades an HTTP request and registers the client.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade websocket connection")
		return
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, 256),
		hub:         h,
		ConnectedAt: time.Now(),
	}

	h.register(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("remote_addr", r.RemoteAddr).
		Msg("websocket connection established")
}

// ConnectionCount returns the number of open connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

func (h *Hub) register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Int("total_connections", len(h.connections)).
		Msg("connection registered")
}

func (h *Hub) unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.connections[conn]; exists {
		delete(h.connections, conn)
		close(conn.Send)

		log.Info().
			Str("connection_id", conn.ID).
			Int("total_connections", len(h.connections)).
			Msg("connection unregistered")
	}
}

func (h *Hub) fanOut(payload []byte) {
	h.mu.RLock()
	targets := make([]*Connection, 0, len(h.connections))
	for conn := range h.connections {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		select {
		case conn.Send <- payload:
		default:
			// Connection is slow/dead, close it
			log.Warn().
				Str("connection_id", conn.ID).
				Msg("connection send buffer full, closing connection")
			h.unregister(conn)
			conn.Conn.Close()
		}
	}

	log.Debug().Int("connections", len(targets)).Msg("event broadcasted")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.connections {
		delete(h.connections, conn)
		close(conn.Send)
		conn.Conn.Close()
	}
}

func (h *Hub) eventSink() EventSink {
	h.sinkMu.RLock()
	defer h.sinkMu.RUnlock()
	return h.sink
}

// writePump handles sending messages to the websocket connection.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if !ok {
				// Channel was closed
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to websocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump handles messages from the websocket connection. Admin clients
// drive the whole session over their socket, so every inbound frame is
// routed through the event sink.
func (c *Connection) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.hub.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected websocket close error")
			}
			break
		}

		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	}
}

// handleClientMessage routes one inbound frame to the sink. Failures are
// reported to this client only; nothing is broadcast.
func (c *Connection) handleClientMessage(message []byte) {
	sink := c.hub.eventSink()
	if sink == nil {
		log.Debug().
			Str("connection_id", c.ID).
			RawJSON("message", message).
			Msg("inbound frame dropped, no sink installed")
		return
	}

	var frame inboundFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		log.Warn().Err(err).Str("connection_id", c.ID).Msg("malformed client frame")
		c.sendError("malformed frame")
		return
	}

	if err := sink.Dispatch(context.Background(), frame.Event, frame.Data); err != nil {
		log.Error().
			Err(err).
			Str("connection_id", c.ID).
			Str("event", frame.Event).
			Msg("failed to dispatch client event")
		c.sendError(fmt.Sprintf("failed to process %s", frame.Event))
	}
}

func (c *Connection) sendError(message string) {
	ev, err := events.New(events.EventTypeEvaluationError, events.ErrorPayload{Message: message})
	if err != nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}

	select {
	case c.Send <- payload:
	default:
	}
}
