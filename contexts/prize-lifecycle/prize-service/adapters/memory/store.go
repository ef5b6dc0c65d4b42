package memory

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"prizeforge/contexts/prize-lifecycle/prize-service/domain/entities"
	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/values"
	"prizeforge/contexts/prize-lifecycle/prize-service/ports"

	"github.com/google/uuid"
)

type outboxRow struct {
	ports.OutboxMessage
	seq         int64
	PublishedAt *time.Time
}

type dedupEntry struct {
	PayloadHash string
	ExpiresAt   time.Time
}

// Store keeps every prize port in process. Mutations on one prize are
// serialized by a per-prize lock; reads always get a private copy.
type Store struct {
	mu    sync.RWMutex
	locks map[string]*sync.Mutex

	prizes      map[string]entities.Prize
	outbox      map[string]outboxRow
	outboxSeq   int64
	dedup       map[string]dedupEntry
	idempotency map[string]ports.IdempotencyRecord
	activity    map[string][]ports.ActivityEntry

	scheme   values.Scheme
	balances map[string]values.Value
	ledger   []TreasuryEntry
}

func NewStore(scheme values.Scheme) *Store {
	if scheme == nil {
		scheme = values.PlainScheme{}
	}
	return &Store{
		locks:       make(map[string]*sync.Mutex),
		prizes:      make(map[string]entities.Prize),
		outbox:      make(map[string]outboxRow),
		dedup:       make(map[string]dedupEntry),
		idempotency: make(map[string]ports.IdempotencyRecord),
		activity:    make(map[string][]ports.ActivityEntry),
		scheme:      scheme,
		balances:    make(map[string]values.Value),
		ledger:      make([]TreasuryEntry, 0),
	}
}

func (s *Store) CreatePrize(_ context.Context, prize entities.Prize, events []ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(prize.PrizeID) == "" {
		return domainerrors.New(domainerrors.ErrInvalidInput, "prize_id", "")
	}
	if _, exists := s.prizes[prize.PrizeID]; exists {
		return domainerrors.New(domainerrors.ErrInvalidInput, "prize_id", prize.PrizeID, "reason", "exists")
	}
	if err := s.appendOutboxLocked(events); err != nil {
		return err
	}
	s.prizes[prize.PrizeID] = prize.Clone()
	return nil
}

func (s *Store) GetPrize(_ context.Context, prizeID string) (entities.Prize, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.prizes[strings.TrimSpace(prizeID)]
	if !exists {
		return entities.Prize{}, domainerrors.New(domainerrors.ErrPrizeNotFound, "prize_id", prizeID)
	}
	return item.Clone(), nil
}

func (s *Store) ListPrizes(_ context.Context, filter ports.PrizeFilter) ([]entities.Prize, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	organizer := entities.NormalizeAddress(filter.Organizer)
	items := make([]entities.Prize, 0, len(s.prizes))
	for _, prize := range s.prizes {
		if organizer != "" && prize.Organizer != organizer {
			continue
		}
		if filter.Phase != "" && prize.Phase != filter.Phase {
			continue
		}
		items = append(items, prize.Clone())
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].PrizeID > items[j].PrizeID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

// Mutate runs fn on a copy of the prize. The copy, its outbox events and any
// treasury movements staged through ctx are committed together, or not at all.
func (s *Store) Mutate(ctx context.Context, prizeID string, fn ports.MutateFunc) error {
	prizeID = strings.TrimSpace(prizeID)
	lock, err := s.prizeLock(prizeID)
	if err != nil {
		return err
	}
	lock.Lock()
	defer lock.Unlock()

	current, err := s.GetPrize(ctx, prizeID)
	if err != nil {
		return err
	}
	working := current.Clone()
	tx := &vaultTx{store: s, balances: make(map[string]values.Value)}
	events, err := fn(withVaultTx(ctx, tx), &working)
	if err != nil {
		return err
	}
	if working.PrizeID != current.PrizeID || working.Version != current.Version {
		return domainerrors.New(domainerrors.ErrConcurrentModification, "prize_id", prizeID)
	}
	working.Version = current.Version + 1

	s.mu.Lock()
	defer s.mu.Unlock()
	if stored := s.prizes[prizeID]; stored.Version != current.Version {
		return domainerrors.New(domainerrors.ErrConcurrentModification, "prize_id", prizeID)
	}
	if err := s.appendOutboxLocked(events); err != nil {
		return err
	}
	tx.commitLocked()
	s.prizes[prizeID] = working
	return nil
}

// prizeLock returns the per-prize mutex. Locks exist only for stored prizes,
// and prizes are never deleted, so the map is bounded by the prize count.
func (s *Store) prizeLock(prizeID string) (*sync.Mutex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.prizes[prizeID]; !exists {
		return nil, domainerrors.New(domainerrors.ErrPrizeNotFound, "prize_id", prizeID)
	}
	lock, ok := s.locks[prizeID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[prizeID] = lock
	}
	return lock, nil
}

func (s *Store) ReserveRecord(_ context.Context, record ports.IdempotencyRecord, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, exists := s.idempotency[record.Key]; exists && existing.ExpiresAt.After(now) {
		return existing, false, nil
	}
	s.idempotency[record.Key] = record
	return record, true, nil
}

// ReleaseRecord drops a reservation whose create failed. A record that has
// since been taken by another request hash is left alone.
func (s *Store) ReleaseRecord(_ context.Context, key string, requestHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, exists := s.idempotency[key]; exists && existing.RequestHash == requestHash {
		delete(s.idempotency, key)
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows := make([]outboxRow, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.PublishedAt == nil {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].seq < rows[j].seq
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.OutboxMessage)
	}
	return out, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[outboxID]
	if !ok {
		return errors.New("outbox record not found")
	}
	value := publishedAt.UTC()
	row.PublishedAt = &value
	s.outbox[outboxID] = row
	return nil
}

// OutboxEvents returns every recorded event in commit order.
func (s *Store) OutboxEvents() []ports.EventEnvelope {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]outboxRow, 0, len(s.outbox))
	for _, row := range s.outbox {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].seq < rows[j].seq
	})
	items := make([]ports.EventEnvelope, 0, len(rows))
	for _, row := range rows {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err == nil {
			items = append(items, event)
		}
	}
	return items
}

func (s *Store) ReserveEvent(_ context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.dedup[eventID]
	if !ok || !existing.ExpiresAt.After(time.Now().UTC()) {
		s.dedup[eventID] = dedupEntry{
			PayloadHash: payloadHash,
			ExpiresAt:   expiresAt.UTC(),
		}
		return false, nil
	}
	if existing.PayloadHash != payloadHash {
		return false, domainerrors.New(domainerrors.ErrIdempotencyConflict, "event_id", eventID)
	}
	return true, nil
}

func (s *Store) AppendActivity(_ context.Context, entry ports.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.activity[entry.PrizeID] {
		if existing.EventID == entry.EventID {
			return nil
		}
	}
	s.activity[entry.PrizeID] = append(s.activity[entry.PrizeID], entry)
	return nil
}

func (s *Store) ListActivity(_ context.Context, prizeID string, limit int) ([]ports.ActivityEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := append([]ports.ActivityEntry(nil), s.activity[strings.TrimSpace(prizeID)]...)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].OccurredAt.After(items[j].OccurredAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

// NewID returns a time-ordered UUIDv7.
func (s *Store) NewID(_ context.Context) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (s *Store) appendOutboxLocked(events []ports.EventEnvelope) error {
	payloads := make([][]byte, 0, len(events))
	for _, event := range events {
		if _, exists := s.outbox[event.EventID]; exists {
			return domainerrors.New(domainerrors.ErrIdempotencyConflict, "event_id", event.EventID)
		}
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}
		payloads = append(payloads, payload)
	}
	for i, event := range events {
		s.outboxSeq++
		s.outbox[event.EventID] = outboxRow{
			OutboxMessage: ports.OutboxMessage{
				OutboxID:     event.EventID,
				EventType:    event.EventType,
				PartitionKey: event.PartitionKey,
				Payload:      payloads[i],
				CreatedAt:    event.OccurredAt,
			},
			seq: s.outboxSeq,
		}
	}
	return nil
}
