package workers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"prizeforge/contexts/prize-lifecycle/prize-service/adapters/memory"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/entities"
	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/values"
	"prizeforge/contexts/prize-lifecycle/prize-service/ports"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	failAt int
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ ports.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failAt > 0 && len(p.topics)+1 == p.failAt {
		return errors.New("broker unavailable")
	}
	p.topics = append(p.topics, topic)
	return nil
}

type subscription struct {
	topic string
	group string
}

type recordingSubscriber struct {
	items []subscription
}

func (s *recordingSubscriber) Subscribe(_ context.Context, topic string, group string, _ func(context.Context, ports.EventEnvelope) error) error {
	s.items = append(s.items, subscription{topic: topic, group: group})
	return nil
}

func envelope(t *testing.T, id string, eventType string, data map[string]any) ports.EventEnvelope {
	t.Helper()
	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	return ports.EventEnvelope{
		EventID:      id,
		EventType:    eventType,
		OccurredAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		PartitionKey: "prize-1",
		Actor:        "0xorg",
		Data:         payload,
	}
}

func seedOutbox(t *testing.T, store *memory.Store, events ...ports.EventEnvelope) {
	t.Helper()
	err := store.CreatePrize(context.Background(), entities.Prize{
		PrizeID: "prize-1",
		Phase:   entities.PhaseSetup,
		Version: 1,
	}, events)
	if err != nil {
		t.Fatalf("seed outbox: %v", err)
	}
}

func TestOutboxRelayPublishesInCommitOrder(t *testing.T) {
	store := memory.NewStore(values.PlainScheme{})
	seedOutbox(t, store,
		envelope(t, "e1", entities.EventPrizeCreated, nil),
		envelope(t, "e2", entities.EventPrizeFunded, nil),
		envelope(t, "e3", entities.EventPhaseAdvanced, nil),
	)
	publisher := &recordingPublisher{}
	relay := OutboxRelay{Outbox: store, Publisher: publisher, Clock: store, BatchSize: 2, Logger: quietLogger()}

	published, err := relay.RunOnce(context.Background())
	if err != nil || published != 2 {
		t.Fatalf("first cycle: published=%d err=%v", published, err)
	}
	published, err = relay.RunOnce(context.Background())
	if err != nil || published != 1 {
		t.Fatalf("second cycle: published=%d err=%v", published, err)
	}
	published, err = relay.RunOnce(context.Background())
	if err != nil || published != 0 {
		t.Fatalf("idle cycle: published=%d err=%v", published, err)
	}

	want := []string{entities.EventPrizeCreated, entities.EventPrizeFunded, entities.EventPhaseAdvanced}
	if diff := cmp.Diff(want, publisher.topics); diff != "" {
		t.Fatalf("topics mismatch (-want +got):\n%s", diff)
	}
}

func TestOutboxRelayStopsAtFirstFailure(t *testing.T) {
	store := memory.NewStore(values.PlainScheme{})
	seedOutbox(t, store,
		envelope(t, "e1", entities.EventPrizeCreated, nil),
		envelope(t, "e2", entities.EventPrizeFunded, nil),
		envelope(t, "e3", entities.EventPhaseAdvanced, nil),
	)
	publisher := &recordingPublisher{failAt: 2}
	relay := OutboxRelay{Outbox: store, Publisher: publisher, Logger: quietLogger()}

	published, err := relay.RunOnce(context.Background())
	if err == nil || published != 1 {
		t.Fatalf("expected failure after one publish, got published=%d err=%v", published, err)
	}
	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	ids := make([]string, 0, len(pending))
	for _, row := range pending {
		ids = append(ids, row.OutboxID)
	}
	if diff := cmp.Diff([]string{"e2", "e3"}, ids); diff != "" {
		t.Fatalf("pending mismatch (-want +got):\n%s", diff)
	}
}

func TestOutboxRelayRunStopsOnCancel(t *testing.T) {
	store := memory.NewStore(values.PlainScheme{})
	relay := OutboxRelay{Outbox: store, Publisher: &recordingPublisher{}, Logger: quietLogger()}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx, 10*time.Millisecond) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("relay did not stop")
	}
}

func TestActivityProjectorDedupesRedelivery(t *testing.T) {
	store := memory.NewStore(values.PlainScheme{})
	seedOutbox(t, store)
	projector := ActivityProjector{Activity: store, Dedup: store, Clock: store, Logger: quietLogger()}

	event := envelope(t, "e1", entities.EventRewardClaimed, map[string]any{
		"prize_id":   "prize-1",
		"contestant": "0xa",
		"amount":     "503105",
	})
	if err := projector.Handle(context.Background(), event); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := projector.Handle(context.Background(), event); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	tampered := event
	tampered.Data = json.RawMessage(`{"prize_id":"prize-1","amount":"1"}`)
	if err := projector.Handle(context.Background(), tampered); !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected conflict for changed payload, got %v", err)
	}

	entries, err := store.ListActivity(context.Background(), "prize-1", 10)
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	want := []ports.ActivityEntry{{
		EventID:    "e1",
		PrizeID:    "prize-1",
		EventType:  entities.EventRewardClaimed,
		Actor:      "0xorg",
		Summary:    "0xa claimed 503105",
		OccurredAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Fatalf("activity mismatch (-want +got):\n%s", diff)
	}
}

func TestActivityProjectorFallsBackToPartitionKey(t *testing.T) {
	store := memory.NewStore(values.PlainScheme{})
	projector := ActivityProjector{Activity: store, Dedup: store, Logger: quietLogger()}

	event := envelope(t, "e1", entities.EventEvaluatorsAdded, map[string]any{
		"evaluators": []string{"0xe2", "0xe1"},
	})
	if err := projector.Handle(context.Background(), event); err != nil {
		t.Fatalf("handle: %v", err)
	}
	entries, _ := store.ListActivity(context.Background(), "prize-1", 10)
	if len(entries) != 1 || entries[0].Summary != "evaluators added: 0xe1, 0xe2" {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	missing := envelope(t, "e2", entities.EventPrizeFunded, map[string]any{"amount": "5"})
	missing.PartitionKey = ""
	if err := projector.Handle(context.Background(), missing); err == nil {
		t.Fatalf("expected error for event without prize id")
	}
}

func TestActivityProjectorSubscribesToEveryEventType(t *testing.T) {
	subscriber := &recordingSubscriber{}
	projector := ActivityProjector{Subscriber: subscriber, Logger: quietLogger()}
	if err := projector.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(subscriber.items) != len(entities.EventTypes) {
		t.Fatalf("expected %d subscriptions, got %d", len(entities.EventTypes), len(subscriber.items))
	}
	for _, item := range subscriber.items {
		if item.group != defaultActivityConsumerGroup {
			t.Fatalf("unexpected consumer group %q", item.group)
		}
	}

	disabled := &recordingSubscriber{}
	projector = ActivityProjector{Subscriber: disabled, Disabled: true, Logger: quietLogger()}
	if err := projector.Start(context.Background()); err != nil {
		t.Fatalf("start disabled: %v", err)
	}
	if len(disabled.items) != 0 {
		t.Fatalf("disabled projector subscribed %d topics", len(disabled.items))
	}
}
