package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/peerstage/peerstage/internal/transport/natsbridge"
	"github.com/peerstage/peerstage/internal/transport/pusherch"
)

// Transport modes.
const (
	TransportWS     = "ws"     // self-hosted websocket relay
	TransportPusher = "pusher" // hosted channel service
	TransportNATS   = "nats"   // JetStream bridge into the local hub
)

// Timer modes.
const (
	TimerAdmin  = "admin"  // admin client emits timeSync (default)
	TimerServer = "server" // server-owned tick loop
)

type Config struct {
	Port          int
	TransportMode string
	TimerMode     string
	Mongo         MongoConfig
	Pusher        pusherch.Config
	NATS          natsbridge.Config
}

type MongoConfig struct {
	URI      string
	Database string
}

// fileConfig is the optional yaml overlay for deployment choices that are
// not secrets.
type fileConfig struct {
	Transport struct {
		Mode string `yaml:"mode"`
	} `yaml:"transport"`
	Timer struct {
		Mode string `yaml:"mode"`
	} `yaml:"timer"`
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func loadConfig() (*Config, error) {
	natsCfg := natsbridge.DefaultConfig()
	natsCfg.URL = getEnv("NATS_URL", natsCfg.URL)

	cfg := &Config{
		Port:          getEnvAsInt("PORT", 8080),
		TransportMode: getEnv("TRANSPORT_MODE", TransportWS),
		TimerMode:     getEnv("TIMER_MODE", TimerAdmin),
		Mongo: MongoConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DB", "peerstage"),
		},
		Pusher: pusherch.Config{
			AppID:   os.Getenv("PUSHER_APP_ID"),
			Key:     os.Getenv("PUSHER_KEY"),
			Secret:  os.Getenv("PUSHER_SECRET"),
			Cluster: os.Getenv("PUSHER_CLUSTER"),
			Channel: getEnv("PUSHER_CHANNEL", pusherch.DefaultChannel),
		},
		NATS: natsCfg,
	}

	if path := getEnv("CONFIG_PATH", ""); path != "" {
		if err := applyFileConfig(cfg, path); err != nil {
			return nil, err
		}
	}

	switch cfg.TransportMode {
	case TransportWS, TransportPusher, TransportNATS:
	default:
		return nil, fmt.Errorf("unknown transport mode %q", cfg.TransportMode)
	}
	switch cfg.TimerMode {
	case TimerAdmin, TimerServer:
	default:
		return nil, fmt.Errorf("unknown timer mode %q", cfg.TimerMode)
	}

	return cfg, nil
}

func applyFileConfig(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	if file.Transport.Mode != "" {
		cfg.TransportMode = file.Transport.Mode
	}
	if file.Timer.Mode != "" {
		cfg.TimerMode = file.Timer.Mode
	}
	return nil
}
