package router_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"prizeforge/contexts/prize-lifecycle/prize-service/adapters/memory"
	"prizeforge/contexts/prize-lifecycle/prize-service/application/router"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/entities"
	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/values"

	"github.com/google/go-cmp/cmp"
)

func TestSelectorOfMatchesKeccakPrefix(t *testing.T) {
	selector := router.SelectorOf("transfer(address,uint256)")
	if selector.String() != "0xa9059cbb" {
		t.Fatalf("expected 0xa9059cbb, got %s", selector)
	}
	parsed, err := router.ParseSelector("0xA9059CBB")
	if err != nil || parsed != selector {
		t.Fatalf("parse selector failed: %v %v", parsed, err)
	}
	if _, err := router.ParseSelector("0x1234"); !errors.Is(err, domainerrors.ErrUnknownSelector) {
		t.Fatalf("expected unknown selector, got %v", err)
	}
}

// notes is a small facet that edits the prize description.
type notes struct {
	name   string
	suffix string
	self   **router.Router
}

func (f notes) Name() string { return f.name }

func (f notes) Operations() []router.Operation {
	return []router.Operation{
		{Signature: "append()", Mutates: true, Handle: f.append},
		{Signature: "appendThenFail()", Mutates: true, Handle: f.appendThenFail},
		{Signature: "reenter()", Mutates: true, Handle: f.reenter},
		{Signature: "peek()", Handle: f.peek},
	}
}

func (f notes) append(_ context.Context, x *router.Exec) (any, error) {
	x.Prize.Description += f.suffix
	x.Emit("prize.noted", map[string]any{"suffix": f.suffix})
	return x.Prize.Description, nil
}

func (f notes) appendThenFail(_ context.Context, x *router.Exec) (any, error) {
	x.Prize.Description += "lost"
	x.Emit("prize.noted", nil)
	return nil, errors.New("rejected")
}

func (f notes) reenter(ctx context.Context, x *router.Exec) (any, error) {
	return (*f.self).Dispatch(ctx, router.Call{
		PrizeID:  x.Prize.PrizeID,
		Caller:   x.Caller,
		Selector: router.SelectorOf("append()"),
	})
}

func (f notes) peek(_ context.Context, x *router.Exec) (any, error) {
	return x.Prize.Description, nil
}

type fixture struct {
	store  *memory.Store
	router *router.Router
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.NewStore(values.PlainScheme{})
	if err := store.CreatePrize(context.Background(), entities.Prize{
		PrizeID:   "prize-1",
		Organizer: "0xorg",
		Phase:     entities.PhaseSetup,
		Version:   1,
		CreatedAt: time.Now().UTC(),
	}, nil); err != nil {
		t.Fatalf("create prize failed: %v", err)
	}
	r := router.New(router.Dependencies{Store: store, Clock: store, IDGen: store})
	return fixture{store: store, router: r}
}

func (f fixture) call(signature string) (any, error) {
	return f.router.Dispatch(context.Background(), router.Call{
		PrizeID:  "prize-1",
		Caller:   "0xORG",
		Selector: router.SelectorOf(signature),
	})
}

func TestDispatchCommitsStateAndEventsTogether(t *testing.T) {
	f := newFixture(t)
	if err := f.router.Register(notes{name: "notes", suffix: "a", self: &f.router}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	result, err := f.call("append()")
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if result != "a" {
		t.Fatalf("expected description a, got %v", result)
	}
	prize, err := f.store.GetPrize(context.Background(), "prize-1")
	if err != nil {
		t.Fatalf("get prize failed: %v", err)
	}
	if prize.Description != "a" || prize.Version != 2 {
		t.Fatalf("unexpected prize after append: %q v%d", prize.Description, prize.Version)
	}

	events := f.store.OutboxEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 outbox event, got %d", len(events))
	}
	if events[0].EventType != "prize.noted" || events[0].Actor != "0xorg" || events[0].PartitionKey != "prize-1" {
		t.Fatalf("unexpected envelope: %+v", events[0])
	}
	var data map[string]any
	if err := json.Unmarshal(events[0].Data, &data); err != nil {
		t.Fatalf("decode event data failed: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"suffix": "a", "prize_id": "prize-1"}, data); diff != "" {
		t.Fatalf("event data mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatchFailureLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	if err := f.router.Register(notes{name: "notes", suffix: "a", self: &f.router}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := f.call("appendThenFail()"); err == nil {
		t.Fatalf("expected failure")
	}
	prize, _ := f.store.GetPrize(context.Background(), "prize-1")
	if prize.Description != "" || prize.Version != 1 {
		t.Fatalf("failed call changed prize: %q v%d", prize.Description, prize.Version)
	}
	if len(f.store.OutboxEvents()) != 0 {
		t.Fatalf("failed call wrote outbox events")
	}
}

func TestDispatchRejectsReentrantCall(t *testing.T) {
	f := newFixture(t)
	if err := f.router.Register(notes{name: "notes", suffix: "a", self: &f.router}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.call("reenter()")
		done <- err
	}()
	select {
	case err := <-done:
		if !errors.Is(err, domainerrors.ErrReentrantCall) {
			t.Fatalf("expected reentrant call error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("reentrant call deadlocked")
	}
	prize, _ := f.store.GetPrize(context.Background(), "prize-1")
	if prize.Version != 1 {
		t.Fatalf("reentrant call changed prize version to %d", prize.Version)
	}
}

func TestRegisterRejectsClashes(t *testing.T) {
	f := newFixture(t)
	if err := f.router.Register(notes{name: "notes", self: &f.router}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := f.router.Register(notes{name: "notes", self: &f.router}); !errors.Is(err, domainerrors.ErrSelectorClash) {
		t.Fatalf("expected facet name clash, got %v", err)
	}
	if err := f.router.Register(notes{name: "other", self: &f.router}); !errors.Is(err, domainerrors.ErrSelectorClash) {
		t.Fatalf("expected selector clash, got %v", err)
	}
	if diff := cmp.Diff([]string{"notes"}, f.router.Facets()); diff != "" {
		t.Fatalf("facets mismatch (-want +got):\n%s", diff)
	}
	owner, ok := f.router.Owner(router.SelectorOf("peek()"))
	if !ok || owner != "notes" {
		t.Fatalf("expected notes to own peek(), got %q", owner)
	}
}

func TestReplaceSwapsImplementationWithoutTouchingState(t *testing.T) {
	f := newFixture(t)
	if err := f.router.Register(notes{name: "notes", suffix: "a", self: &f.router}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := f.call("append()"); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := f.router.Replace(notes{name: "notes", suffix: "b", self: &f.router}); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	result, err := f.call("append()")
	if err != nil {
		t.Fatalf("append after replace failed: %v", err)
	}
	if result != "ab" {
		t.Fatalf("expected ab, got %v", result)
	}
	if err := f.router.Replace(notes{name: "missing", self: &f.router}); !errors.Is(err, domainerrors.ErrUnknownSelector) {
		t.Fatalf("expected unknown facet, got %v", err)
	}
}

func TestViewsDoNotMutate(t *testing.T) {
	f := newFixture(t)
	if err := f.router.Register(notes{name: "notes", suffix: "a", self: &f.router}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := f.call("peek()"); err != nil {
		t.Fatalf("peek failed: %v", err)
	}
	if _, err := f.router.View(context.Background(), router.Call{
		PrizeID:  "prize-1",
		Selector: router.SelectorOf("append()"),
	}); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected View to refuse a mutating selector, got %v", err)
	}
	if _, err := f.call("unknown()"); !errors.Is(err, domainerrors.ErrUnknownSelector) {
		t.Fatalf("expected unknown selector, got %v", err)
	}
	prize, _ := f.store.GetPrize(context.Background(), "prize-1")
	if prize.Version != 1 {
		t.Fatalf("views changed version to %d", prize.Version)
	}
}
