package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string   `env:"SERVICE_NAME" envDefault:"prizeforge"`
	HTTPPort     string   `env:"HTTP_PORT" envDefault:"8080"`
	PostgresDSN  string   `env:"POSTGRES_DSN"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`

	JWTSecret string `env:"JWT_SECRET"`

	OutboxBatchSize         int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
	WorkerPollInterval      time.Duration `env:"WORKER_POLL_INTERVAL" envDefault:"2s"`
	IdempotencyTTL          time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"168h"`
	EnableActivityProjector bool          `env:"ENABLE_ACTIVITY_PROJECTOR" envDefault:"true"`
	DefaultStrategy         string        `env:"DEFAULT_STRATEGY" envDefault:"linear"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	brokers := make([]string, 0, len(cfg.KafkaBrokers))
	for _, value := range cfg.KafkaBrokers {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}
	cfg.KafkaBrokers = brokers

	if cfg.OutboxBatchSize <= 0 {
		return Config{}, fmt.Errorf("OUTBOX_BATCH_SIZE must be positive, got %d", cfg.OutboxBatchSize)
	}
	if cfg.WorkerPollInterval <= 0 {
		return Config{}, fmt.Errorf("WORKER_POLL_INTERVAL must be positive, got %s", cfg.WorkerPollInterval)
	}
	cfg.DefaultStrategy = strings.ToLower(strings.TrimSpace(cfg.DefaultStrategy))
	return cfg, nil
}
