package ports

import (
	"context"
	"time"

	"prizeforge/contexts/prize-lifecycle/prize-service/domain/entities"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/values"
	contractsv1 "prizeforge/contracts/gen/events/v1"
)

type PrizeFilter struct {
	Organizer string
	Phase     entities.Phase
}

// MutateFunc edits a private copy of the prize and returns the events to
// record with it. Returning an error discards both.
type MutateFunc func(ctx context.Context, prize *entities.Prize) ([]EventEnvelope, error)

// PrizeStore is the shared storage every facet operates on. Mutate serializes
// calls per prize and commits the copy, version bump and outbox rows together.
type PrizeStore interface {
	CreatePrize(ctx context.Context, prize entities.Prize, events []EventEnvelope) error
	GetPrize(ctx context.Context, prizeID string) (entities.Prize, error)
	ListPrizes(ctx context.Context, filter PrizeFilter) ([]entities.Prize, error)
	Mutate(ctx context.Context, prizeID string, fn MutateFunc) error
}

// Treasury moves value in and out of a prize. Calls happen inside Mutate and
// must honour the ctx they are given so a failure rolls back with the prize.
type Treasury interface {
	Credit(ctx context.Context, prizeID string, from string, amount values.Value) error
	Transfer(ctx context.Context, prizeID string, to string, amount values.Value) error
	Refund(ctx context.Context, prizeID string, to string, amount values.Value) error
}

type IdempotencyRecord struct {
	Key         string
	RequestHash string
	PrizeID     string
	ExpiresAt   time.Time
}

// IdempotencyStore reserves a key before the work it guards. ReserveRecord
// stores record when no live record holds the key and reports true; otherwise
// it returns the live record and false. Expired records are replaced.
type IdempotencyStore interface {
	ReserveRecord(ctx context.Context, record IdempotencyRecord, now time.Time) (IdempotencyRecord, bool, error)
	ReleaseRecord(ctx context.Context, key string, requestHash string) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}

// ActivityEntry is one row of the per-prize activity feed built from events.
type ActivityEntry struct {
	EventID    string
	PrizeID    string
	EventType  string
	Actor      string
	Summary    string
	OccurredAt time.Time
}

type ActivityRepository interface {
	AppendActivity(ctx context.Context, entry ActivityEntry) error
	ListActivity(ctx context.Context, prizeID string, limit int) ([]ActivityEntry, error)
}
