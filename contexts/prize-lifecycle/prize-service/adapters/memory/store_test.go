package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"prizeforge/contexts/prize-lifecycle/prize-service/domain/entities"
	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/values"
	"prizeforge/contexts/prize-lifecycle/prize-service/ports"

	"github.com/google/go-cmp/cmp"
)

func seedPrize(t *testing.T, store *Store, id string, organizer string, createdAt time.Time) {
	t.Helper()
	err := store.CreatePrize(context.Background(), entities.Prize{
		PrizeID:   id,
		Organizer: organizer,
		Phase:     entities.PhaseSetup,
		Version:   1,
		CreatedAt: createdAt,
	}, nil)
	if err != nil {
		t.Fatalf("create prize %s: %v", id, err)
	}
}

func TestMutateCommitsTreasuryWithPrize(t *testing.T) {
	store := NewStore(nil)
	seedPrize(t, store, "p1", "0xorg", time.Now())

	err := store.Mutate(context.Background(), "p1", func(ctx context.Context, prize *entities.Prize) ([]ports.EventEnvelope, error) {
		prize.Funded = true
		return nil, store.Credit(ctx, "p1", "0xORG", values.Plain(40))
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if balance := store.Balance("p1"); balance != values.Plain(40) {
		t.Fatalf("expected balance 40, got %v", balance)
	}

	err = store.Mutate(context.Background(), "p1", func(ctx context.Context, prize *entities.Prize) ([]ports.EventEnvelope, error) {
		prize.Pool = values.Plain(0)
		if err := store.Transfer(ctx, "p1", "0xa", values.Plain(30)); err != nil {
			return nil, err
		}
		return nil, errors.New("abort")
	})
	if err == nil {
		t.Fatalf("expected abort")
	}
	if balance := store.Balance("p1"); balance != values.Plain(40) {
		t.Fatalf("aborted mutation moved funds: %v", balance)
	}
	entries := store.Entries("p1")
	if len(entries) != 1 || entries[0].Kind != EntryCredit || entries[0].Account != "0xorg" {
		t.Fatalf("unexpected ledger: %+v", entries)
	}

	prize, _ := store.GetPrize(context.Background(), "p1")
	if !prize.Funded || prize.Pool != nil || prize.Version != 2 {
		t.Fatalf("unexpected prize after abort: funded=%v pool=%v version=%d", prize.Funded, prize.Pool, prize.Version)
	}
}

func TestTreasuryRejectsOverdraw(t *testing.T) {
	store := NewStore(nil)
	if err := store.Credit(context.Background(), "p1", "0xorg", values.Plain(5)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := store.Refund(context.Background(), "p1", "0xorg", values.Plain(6)); err == nil {
		t.Fatalf("expected overdraw to fail")
	}
	if err := store.Transfer(context.Background(), "p1", "", values.Plain(1)); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected missing account to fail, got %v", err)
	}
	if balance := store.Balance("p1"); balance != values.Plain(5) {
		t.Fatalf("expected balance 5, got %v", balance)
	}
}

func TestMutateRejectsVersionTampering(t *testing.T) {
	store := NewStore(nil)
	seedPrize(t, store, "p1", "0xorg", time.Now())

	err := store.Mutate(context.Background(), "p1", func(_ context.Context, prize *entities.Prize) ([]ports.EventEnvelope, error) {
		prize.Version = 9
		return nil, nil
	})
	if !errors.Is(err, domainerrors.ErrConcurrentModification) {
		t.Fatalf("expected concurrent modification, got %v", err)
	}
	if err := store.Mutate(context.Background(), "missing", nil); !errors.Is(err, domainerrors.ErrPrizeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListPrizesFiltersAndOrdersNewestFirst(t *testing.T) {
	store := NewStore(nil)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedPrize(t, store, "p1", "0xorg", base)
	seedPrize(t, store, "p2", "0xorg", base.Add(time.Hour))
	seedPrize(t, store, "p3", "0xother", base.Add(2*time.Hour))

	items, err := store.ListPrizes(context.Background(), ports.PrizeFilter{Organizer: "0xORG"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.PrizeID)
	}
	if diff := cmp.Diff([]string{"p2", "p1"}, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	items, _ = store.ListPrizes(context.Background(), ports.PrizeFilter{Phase: entities.PhaseOpen})
	if len(items) != 0 {
		t.Fatalf("expected no open prizes, got %d", len(items))
	}
	if err := store.CreatePrize(context.Background(), entities.Prize{PrizeID: "p1"}, nil); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected duplicate id to fail, got %v", err)
	}
}

func TestIdempotencyReservationsExpireAndRelease(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	record := ports.IdempotencyRecord{Key: "k", RequestHash: "h1", PrizeID: "p1", ExpiresAt: now.Add(time.Hour)}

	got, reserved, err := store.ReserveRecord(ctx, record, now)
	if err != nil || !reserved {
		t.Fatalf("first reserve: reserved=%v err=%v", reserved, err)
	}
	if diff := cmp.Diff(record, got); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}

	rival := ports.IdempotencyRecord{Key: "k", RequestHash: "h2", PrizeID: "p2", ExpiresAt: now.Add(time.Hour)}
	got, reserved, err = store.ReserveRecord(ctx, rival, now)
	if err != nil || reserved {
		t.Fatalf("second reserve should see the live record: reserved=%v err=%v", reserved, err)
	}
	if diff := cmp.Diff(record, got); diff != "" {
		t.Fatalf("live record mismatch (-want +got):\n%s", diff)
	}

	if err := store.ReleaseRecord(ctx, "k", "h2"); err != nil {
		t.Fatalf("release with other hash: %v", err)
	}
	if _, reserved, _ := store.ReserveRecord(ctx, rival, now); reserved {
		t.Fatalf("release by another request hash must not free the key")
	}

	if _, reserved, _ := store.ReserveRecord(ctx, rival, now.Add(time.Hour)); !reserved {
		t.Fatalf("record should expire at its deadline")
	}
	if err := store.ReleaseRecord(ctx, "k", "h2"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, reserved, _ := store.ReserveRecord(ctx, record, now); !reserved {
		t.Fatalf("released key should be reservable again")
	}
}

func TestReserveEventDetectsPayloadChange(t *testing.T) {
	store := NewStore(nil)
	expires := time.Now().Add(time.Hour)
	seen, err := store.ReserveEvent(context.Background(), "e1", "h1", expires)
	if err != nil || seen {
		t.Fatalf("first reserve: seen=%v err=%v", seen, err)
	}
	seen, err = store.ReserveEvent(context.Background(), "e1", "h1", expires)
	if err != nil || !seen {
		t.Fatalf("second reserve: seen=%v err=%v", seen, err)
	}
	if _, err := store.ReserveEvent(context.Background(), "e1", "h2", expires); !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestMutateOnUnknownPrizeKeepsNoLock(t *testing.T) {
	store := NewStore(nil)
	seedPrize(t, store, "p1", "0xorg", time.Now())

	for _, id := range []string{"ghost-1", "ghost-2", " ghost-3 "} {
		err := store.Mutate(context.Background(), id, func(context.Context, *entities.Prize) ([]ports.EventEnvelope, error) {
			t.Fatalf("fn must not run for %q", id)
			return nil, nil
		})
		if !errors.Is(err, domainerrors.ErrPrizeNotFound) {
			t.Fatalf("expected not found for %q, got %v", id, err)
		}
	}
	if err := store.Mutate(context.Background(), "p1", func(context.Context, *entities.Prize) ([]ports.EventEnvelope, error) {
		return nil, nil
	}); err != nil {
		t.Fatalf("mutate p1: %v", err)
	}

	store.mu.RLock()
	defer store.mu.RUnlock()
	if diff := cmp.Diff([]string{"p1"}, lockIDs(store)); diff != "" {
		t.Fatalf("locks mismatch (-want +got):\n%s", diff)
	}
}

func lockIDs(store *Store) []string {
	ids := make([]string, 0, len(store.locks))
	for id := range store.locks {
		ids = append(ids, id)
	}
	return ids
}
