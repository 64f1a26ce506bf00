package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	if level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := setupDatabase(ctx, cfg.Mongo)
	if err != nil {
		log.Fatal().Err(err).Msg("database setup failed")
	}

	services, err := setupServices(ctx, cfg, db)
	if err != nil {
		log.Fatal().Err(err).Msg("service setup failed")
	}

	if services.Hub != nil {
		go services.Hub.Start(ctx)
	}
	if services.Bridge != nil {
		defer services.Bridge.Close()
		go func() {
			if err := services.Bridge.Start(ctx, services.Hub); err != nil {
				log.Error().Err(err).Msg("NATS bridge consumer failed")
			}
		}()
	}

	server := setupServer(cfg, services)

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	log.Info().
		Str("addr", server.Addr).
		Str("transport", cfg.TransportMode).
		Str("timer", cfg.TimerMode).
		Msg("peerstage server listening")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}
