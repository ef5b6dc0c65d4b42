package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadDefaults(t *testing.T) {
	unsetAll(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	want := Config{
		ServiceName:             "prizeforge",
		HTTPPort:                "8080",
		KafkaBrokers:            []string{"localhost:9092"},
		OutboxBatchSize:         100,
		WorkerPollInterval:      2 * time.Second,
		IdempotencyTTL:          168 * time.Hour,
		EnableActivityProjector: true,
		DefaultStrategy:         "linear",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadOverrides(t *testing.T) {
	unsetAll(t)
	t.Setenv("KAFKA_BROKERS", " a:9092 , ,b:9092")
	t.Setenv("DEFAULT_STRATEGY", " Quadratic ")
	t.Setenv("ENABLE_ACTIVITY_PROJECTOR", "false")
	t.Setenv("WORKER_POLL_INTERVAL", "500ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if diff := cmp.Diff([]string{"a:9092", "b:9092"}, cfg.KafkaBrokers); diff != "" {
		t.Fatalf("brokers mismatch (-want +got):\n%s", diff)
	}
	if cfg.DefaultStrategy != "quadratic" {
		t.Fatalf("expected quadratic, got %q", cfg.DefaultStrategy)
	}
	if cfg.EnableActivityProjector {
		t.Fatalf("expected projector disabled")
	}
	if cfg.WorkerPollInterval != 500*time.Millisecond {
		t.Fatalf("unexpected poll interval %s", cfg.WorkerPollInterval)
	}
}

func TestLoadRejectsInvalidBatchSize(t *testing.T) {
	unsetAll(t)
	t.Setenv("OUTBOX_BATCH_SIZE", "0")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "OUTBOX_BATCH_SIZE") {
		t.Fatalf("expected batch size error, got %v", err)
	}
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	unsetAll(t)
	t.Setenv("IDEMPOTENCY_TTL", "soon")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

var configKeys = []string{
	"SERVICE_NAME", "HTTP_PORT", "POSTGRES_DSN", "KAFKA_BROKERS", "JWT_SECRET",
	"OUTBOX_BATCH_SIZE", "WORKER_POLL_INTERVAL", "IDEMPOTENCY_TTL",
	"ENABLE_ACTIVITY_PROJECTOR", "DEFAULT_STRATEGY",
}

// unsetAll removes every config key for the test and restores it afterwards.
func unsetAll(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		previous, ok := os.LookupEnv(key)
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unset %s: %v", key, err)
		}
		if ok {
			t.Cleanup(func() { _ = os.Setenv(key, previous) })
		}
	}
}
