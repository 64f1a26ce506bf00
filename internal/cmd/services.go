package main

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/peerstage/peerstage/internal/evaluation"
	"github.com/peerstage/peerstage/internal/httpapi"
	"github.com/peerstage/peerstage/internal/presentation"
	"github.com/peerstage/peerstage/internal/roster"
	"github.com/peerstage/peerstage/internal/transport"
	"github.com/peerstage/peerstage/internal/transport/natsbridge"
	"github.com/peerstage/peerstage/internal/transport/pusherch"
	"github.com/peerstage/peerstage/internal/transport/ws"
)

type Services struct {
	Roster      *roster.App
	Evaluations *evaluation.App
	Tracker     *presentation.Tracker
	Relay       *presentation.Relay
	Handler     *httpapi.Handler

	// Transport pieces; which are non-nil depends on the binding.
	Hub    *ws.Hub
	Pusher *pusherch.Client
	Bridge *natsbridge.Bridge
}

// setupServices wires the dependency chain: database → repositories → apps →
// transport → dispatcher → handlers.
func setupServices(ctx context.Context, cfg *Config, db *mongo.Database) (*Services, error) {
	rosterRepo := roster.NewRepository(db)
	if err := rosterRepo.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("ensure roster indexes: %w", err)
	}
	rosterApp := roster.NewApp(rosterRepo)

	evalRepo := evaluation.NewRepository(db)

	services := &Services{
		Roster:  rosterApp,
		Tracker: presentation.NewTracker(),
	}

	var broadcaster transport.Broadcaster
	switch cfg.TransportMode {
	case TransportWS:
		services.Hub = ws.NewHub(ws.DefaultConfig())
		broadcaster = services.Hub

	case TransportPusher:
		client, err := pusherch.New(cfg.Pusher)
		if err != nil {
			return nil, fmt.Errorf("setup hosted channel transport: %w", err)
		}
		services.Pusher = client
		broadcaster = client

	case TransportNATS:
		// Events go out through JetStream and come back into the local
		// hub via the bridge consumer.
		services.Hub = ws.NewHub(ws.DefaultConfig())
		bridge, err := natsbridge.New(ctx, cfg.NATS)
		if err != nil {
			return nil, fmt.Errorf("setup NATS transport: %w", err)
		}
		services.Bridge = bridge
		broadcaster = bridge

	default:
		return nil, fmt.Errorf("unknown transport mode %q", cfg.TransportMode)
	}

	clock := clockwork.NewRealClock()

	services.Relay = presentation.NewRelay(services.Tracker, broadcaster)
	services.Evaluations = evaluation.NewApp(evalRepo, broadcaster, clock)

	var ticker *presentation.Ticker
	if cfg.TimerMode == TimerServer {
		ticker = presentation.NewTicker(services.Relay, clock)
	}

	dispatcher := httpapi.NewDispatcher(services.Relay, services.Evaluations, ticker)
	if services.Hub != nil {
		services.Hub.SetSink(dispatcher)
	}

	var authorizer httpapi.ChannelAuthorizer
	if services.Pusher != nil {
		authorizer = services.Pusher
	}
	services.Handler = httpapi.NewHandler(rosterApp, dispatcher, authorizer, services.Tracker)

	return services, nil
}
