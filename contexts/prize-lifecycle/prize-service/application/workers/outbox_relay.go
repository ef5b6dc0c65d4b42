package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "prizeforge/contexts/prize-lifecycle/prize-service/application"
	"prizeforge/contexts/prize-lifecycle/prize-service/ports"
)

// OutboxRelay publishes pending prize events in commit order. A failed publish
// stops the cycle so later events never overtake an earlier one.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce relays one batch and returns how many rows were published.
func (r OutboxRelay) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		application.LogEvent(ctx, logger, slog.LevelError, "prize outbox list failed",
			"prize_outbox_list_failed", "worker",
			"error", err.Error(),
		)
		return 0, err
	}

	published := 0
	for _, row := range pending {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			application.LogEvent(ctx, logger, slog.LevelError, "prize outbox decode failed",
				"prize_outbox_decode_failed", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return published, err
		}

		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			application.LogEvent(ctx, logger, slog.LevelError, "prize outbox publish failed",
				"prize_outbox_publish_failed", "worker",
				"outbox_id", row.OutboxID,
				"event_id", event.EventID,
				"topic", topic,
				"error", err.Error(),
			)
			return published, err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, r.now()); err != nil {
			application.LogEvent(ctx, logger, slog.LevelError, "prize outbox mark published failed",
				"prize_outbox_mark_published_failed", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return published, err
		}
		published++
	}

	if published > 0 {
		application.LogEvent(ctx, logger, slog.LevelInfo, "prize outbox relay cycle completed",
			"prize_outbox_relay_completed", "worker",
			"published_count", published,
		)
	}
	return published, nil
}

// Run relays until ctx is cancelled.
func (r OutboxRelay) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			application.LogEvent(ctx, r.Logger, slog.LevelWarn, "prize outbox relay cycle failed",
				"prize_outbox_relay_cycle_failed", "worker",
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (r OutboxRelay) now() time.Time {
	if r.Clock == nil {
		return time.Now().UTC()
	}
	return r.Clock.Now().UTC()
}
