package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const dbRetryDelay = 5 * time.Second

// setupDatabase connects to Mongo, retrying on a fixed delay until the
// database is reachable or ctx is canceled. Nothing else in the process is
// retried; a database that never comes up keeps the process waiting here.
func setupDatabase(ctx context.Context, cfg MongoConfig) (*mongo.Database, error) {
	for {
		client, err := connectOnce(ctx, cfg)
		if err == nil {
			log.Info().Str("database", cfg.Database).Msg("connected to MongoDB")
			return client.Database(cfg.Database), nil
		}

		log.Error().Err(err).Dur("retry_in", dbRetryDelay).Msg("MongoDB connection failed, retrying")

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("database connection aborted: %w", ctx.Err())
		case <-time.After(dbRetryDelay):
		}
	}
}

func connectOnce(ctx context.Context, cfg MongoConfig) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to create MongoDB client: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, nil
}
