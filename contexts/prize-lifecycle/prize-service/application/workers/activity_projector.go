package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	application "prizeforge/contexts/prize-lifecycle/prize-service/application"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/entities"
	"prizeforge/contexts/prize-lifecycle/prize-service/ports"
)

const defaultActivityConsumerGroup = "prize-service-activity-cg"

// ActivityProjector turns prize events into the per-prize activity feed.
// Redelivered events are dropped through the dedup store.
type ActivityProjector struct {
	Subscriber    ports.EventSubscriber
	Activity      ports.ActivityRepository
	Dedup         ports.EventDedupStore
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Disabled      bool
	Logger        *slog.Logger
}

// Start subscribes to every prize event type. Subscriptions end with ctx.
func (p ActivityProjector) Start(ctx context.Context) error {
	logger := application.ResolveLogger(p.Logger)
	if p.Disabled {
		application.LogEvent(ctx, logger, slog.LevelInfo, "prize activity projector disabled by feature flag",
			"prize_activity_projector_disabled", "worker",
		)
		return nil
	}
	group := strings.TrimSpace(p.ConsumerGroup)
	if group == "" {
		group = defaultActivityConsumerGroup
	}
	for _, topic := range entities.EventTypes {
		if err := p.Subscriber.Subscribe(ctx, topic, group, p.Handle); err != nil {
			return err
		}
	}
	return nil
}

// Handle projects one event.
func (p ActivityProjector) Handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(p.Logger)
	now := time.Now().UTC()
	if p.Clock != nil {
		now = p.Clock.Now().UTC()
	}

	alreadyProcessed, err := p.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(event.Data), now.Add(p.dedupTTL()))
	if err != nil {
		application.LogEvent(ctx, logger, slog.LevelError, "prize activity dedupe failed",
			"prize_activity_dedupe_failed", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	if alreadyProcessed {
		application.LogEvent(ctx, logger, slog.LevelDebug, "prize event already projected",
			"prize_activity_replayed", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	var data map[string]any
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.EventType, err)
	}
	prizeID, _ := data["prize_id"].(string)
	if strings.TrimSpace(prizeID) == "" {
		prizeID = event.PartitionKey
	}
	if strings.TrimSpace(prizeID) == "" {
		return fmt.Errorf("%s payload missing prize_id", event.EventType)
	}

	occurredAt := event.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = now
	}
	entry := ports.ActivityEntry{
		EventID:    event.EventID,
		PrizeID:    prizeID,
		EventType:  event.EventType,
		Actor:      event.Actor,
		Summary:    summarize(event.EventType, data),
		OccurredAt: occurredAt,
	}
	if err := p.Activity.AppendActivity(ctx, entry); err != nil {
		application.LogEvent(ctx, logger, slog.LevelError, "prize activity append failed",
			"prize_activity_append_failed", "worker",
			"event_id", event.EventID,
			"prize_id", prizeID,
			"error", err.Error(),
		)
		return err
	}

	application.LogEvent(ctx, logger, slog.LevelInfo, "prize activity projected",
		"prize_activity_projected", "worker",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"prize_id", prizeID,
	)
	return nil
}

func summarize(eventType string, data map[string]any) string {
	switch eventType {
	case entities.EventPrizeCreated:
		return fmt.Sprintf("prize %v created with pool %v", data["name"], data["pool_size"])
	case entities.EventPrizeFunded:
		return fmt.Sprintf("pool funded with %v", data["amount"])
	case entities.EventEvaluatorsAdded:
		return fmt.Sprintf("evaluators added: %s", joinList(data["evaluators"]))
	case entities.EventEvaluatorsRemoved:
		return fmt.Sprintf("evaluators removed: %s", joinList(data["evaluators"]))
	case entities.EventContributionSubmitted:
		return fmt.Sprintf("contribution %v submitted by %v", data["index"], data["contestant"])
	case entities.EventScoresAssigned:
		return fmt.Sprintf("%v scored %s", data["evaluator"], joinList(data["contestants"]))
	case entities.EventEvaluationsVerified:
		return fmt.Sprintf("evaluations verified up to %v", data["cursor"])
	case entities.EventPhaseAdvanced:
		return fmt.Sprintf("phase %v -> %v", data["from"], data["to"])
	case entities.EventRewardsAllocated:
		return fmt.Sprintf("rewards allocated up to %v", data["cursor"])
	case entities.EventRewardClaimed:
		return fmt.Sprintf("%v claimed %v", data["contestant"], data["amount"])
	case entities.EventPrizeCancelled:
		return fmt.Sprintf("prize cancelled from %v", data["from"])
	case entities.EventFundsWithdrawn:
		return fmt.Sprintf("organizer withdrew %v", data["amount"])
	default:
		return eventType
	}
}

func joinList(raw any) string {
	items, _ := raw.([]any)
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprint(item))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

func (p ActivityProjector) dedupTTL() time.Duration {
	if p.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return p.DedupTTL
}

func hashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
