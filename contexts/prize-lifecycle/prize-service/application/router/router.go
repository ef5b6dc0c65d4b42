// Package router dispatches prize operations to the facet that owns their
// selector. All facets work on one shared prize record loaded from the
// PrizeStore, so a facet can be replaced without touching the others or the
// storage layout. The router keeps only the selector to facet mapping.
package router

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	application "prizeforge/contexts/prize-lifecycle/prize-service/application"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/entities"
	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"
	"prizeforge/contexts/prize-lifecycle/prize-service/ports"
)

// Call is one external invocation. Caller is the authenticated identity
// supplied by the transport.
type Call struct {
	PrizeID  string
	Caller   string
	Selector Selector
	Args     any
}

// Exec is what a facet operation sees: the call, a private copy of the prize
// and an event sink.
type Exec struct {
	Call   Call
	Caller string
	Prize  *entities.Prize
	Now    time.Time

	events []pendingEvent
}

type pendingEvent struct {
	eventType string
	data      map[string]any
}

// Emit records an event that is committed only if the operation succeeds.
func (x *Exec) Emit(eventType string, data map[string]any) {
	x.events = append(x.events, pendingEvent{eventType: eventType, data: data})
}

type HandlerFunc func(ctx context.Context, x *Exec) (any, error)

type Operation struct {
	Signature string
	// Mutates is false for views, which run against a snapshot.
	Mutates bool
	Handle  HandlerFunc
}

type Facet interface {
	Name() string
	Operations() []Operation
}

// Route describes one selector binding for introspection.
type Route struct {
	Selector  Selector
	Signature string
	Facet     string
	Mutates   bool
}

type binding struct {
	facet string
	op    Operation
}

type Dependencies struct {
	Store  ports.PrizeStore
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

type Router struct {
	mu       sync.RWMutex
	bindings map[Selector]binding
	facets   map[string][]Selector

	store  ports.PrizeStore
	clock  ports.Clock
	idGen  ports.IDGenerator
	logger *slog.Logger
}

func New(deps Dependencies) *Router {
	return &Router{
		bindings: make(map[Selector]binding),
		facets:   make(map[string][]Selector),
		store:    deps.Store,
		clock:    deps.Clock,
		idGen:    deps.IDGen,
		logger:   application.ResolveLogger(deps.Logger),
	}
}

// Register adds a facet. It fails without side effects if any selector is
// already owned.
func (r *Router) Register(facet Facet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := strings.TrimSpace(facet.Name())
	if name == "" {
		return domainerrors.ErrInvalidInput
	}
	if _, exists := r.facets[name]; exists {
		return domainerrors.New(domainerrors.ErrSelectorClash, "facet", name)
	}
	if err := r.checkClashes(facet, ""); err != nil {
		return err
	}
	r.bind(name, facet)
	return nil
}

// Replace swaps an installed facet for a new implementation with the same name.
func (r *Router) Replace(facet Facet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := strings.TrimSpace(facet.Name())
	old, exists := r.facets[name]
	if !exists {
		return domainerrors.New(domainerrors.ErrUnknownSelector, "facet", name)
	}
	if err := r.checkClashes(facet, name); err != nil {
		return err
	}
	for _, selector := range old {
		delete(r.bindings, selector)
	}
	r.bind(name, facet)
	r.logger.Info("prize facet replaced",
		"event", "prize_facet_replaced",
		"module", application.ModuleName,
		"layer", "application",
		"facet", name,
		"selectors", len(r.facets[name]),
	)
	return nil
}

func (r *Router) checkClashes(facet Facet, replacing string) error {
	seen := make(map[Selector]struct{})
	for _, op := range facet.Operations() {
		selector := SelectorOf(op.Signature)
		if _, dup := seen[selector]; dup {
			return domainerrors.New(domainerrors.ErrSelectorClash, "selector", selector.String(), "signature", op.Signature)
		}
		seen[selector] = struct{}{}
		if existing, ok := r.bindings[selector]; ok && existing.facet != replacing {
			return domainerrors.New(domainerrors.ErrSelectorClash,
				"selector", selector.String(),
				"signature", op.Signature,
				"owner", existing.facet,
			)
		}
	}
	return nil
}

func (r *Router) bind(name string, facet Facet) {
	selectors := make([]Selector, 0, len(facet.Operations()))
	for _, op := range facet.Operations() {
		selector := SelectorOf(op.Signature)
		r.bindings[selector] = binding{facet: name, op: op}
		selectors = append(selectors, selector)
	}
	r.facets[name] = selectors
}

// Owner returns the facet that serves selector.
func (r *Router) Owner(selector Selector) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.bindings[selector]
	return item.facet, ok
}

// Facets lists installed facet names in order.
func (r *Router) Facets() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.facets))
	for name := range r.facets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Routes lists every binding ordered by facet then signature.
func (r *Router) Routes() []Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]Route, 0, len(r.bindings))
	for selector, item := range r.bindings {
		items = append(items, Route{
			Selector:  selector,
			Signature: item.op.Signature,
			Facet:     item.facet,
			Mutates:   item.op.Mutates,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Facet == items[j].Facet {
			return items[i].Signature < items[j].Signature
		}
		return items[i].Facet < items[j].Facet
	})
	return items
}

// Dispatch runs the call against the shared prize record. Mutating operations
// apply to a private copy that is committed with its events only on success,
// so a failed call leaves no trace.
func (r *Router) Dispatch(ctx context.Context, call Call) (any, error) {
	r.mu.RLock()
	item, ok := r.bindings[call.Selector]
	r.mu.RUnlock()
	if !ok {
		return nil, domainerrors.New(domainerrors.ErrUnknownSelector, "selector", call.Selector.String())
	}

	prizeID := strings.TrimSpace(call.PrizeID)
	caller := entities.NormalizeAddress(call.Caller)
	if inFlight(ctx, prizeID) {
		r.logger.Warn("prize reentrant call rejected",
			"event", "prize_reentrant_call_rejected",
			"module", application.ModuleName,
			"layer", "application",
			"prize_id", prizeID,
			"operation", item.op.Signature,
		)
		return nil, domainerrors.New(domainerrors.ErrReentrantCall, "prize_id", prizeID, "operation", item.op.Signature)
	}

	if !item.op.Mutates {
		return r.view(ctx, item, call, prizeID, caller)
	}

	var result any
	err := r.store.Mutate(ctx, prizeID, func(ctx context.Context, prize *entities.Prize) ([]ports.EventEnvelope, error) {
		ctx = withInFlight(ctx, prizeID)
		exec := &Exec{
			Call:   call,
			Caller: caller,
			Prize:  prize,
			Now:    r.now(),
		}
		out, err := item.op.Handle(ctx, exec)
		if err != nil {
			return nil, err
		}
		prize.UpdatedAt = exec.Now
		envelopes, err := r.envelopes(ctx, exec)
		if err != nil {
			return nil, err
		}
		result = out
		return envelopes, nil
	})
	if err != nil {
		r.logger.Warn("prize operation rejected",
			"event", "prize_operation_rejected",
			"module", application.ModuleName,
			"layer", "application",
			"prize_id", prizeID,
			"facet", item.facet,
			"operation", item.op.Signature,
			"caller", caller,
			"error", err.Error(),
		)
		return nil, err
	}
	r.logger.Info("prize operation applied",
		"event", "prize_operation_applied",
		"module", application.ModuleName,
		"layer", "application",
		"prize_id", prizeID,
		"facet", item.facet,
		"operation", item.op.Signature,
		"caller", caller,
	)
	return result, nil
}

// View runs a read-only selector against a snapshot of the prize.
func (r *Router) View(ctx context.Context, call Call) (any, error) {
	r.mu.RLock()
	item, ok := r.bindings[call.Selector]
	r.mu.RUnlock()
	if !ok {
		return nil, domainerrors.New(domainerrors.ErrUnknownSelector, "selector", call.Selector.String())
	}
	if item.op.Mutates {
		return nil, domainerrors.New(domainerrors.ErrInvalidInput, "selector", call.Selector.String(), "reason", "mutating operation")
	}
	return r.view(ctx, item, call, strings.TrimSpace(call.PrizeID), entities.NormalizeAddress(call.Caller))
}

func (r *Router) view(ctx context.Context, item binding, call Call, prizeID string, caller string) (any, error) {
	prize, err := r.store.GetPrize(ctx, prizeID)
	if err != nil {
		return nil, err
	}
	return item.op.Handle(withInFlight(ctx, prizeID), &Exec{
		Call:   call,
		Caller: caller,
		Prize:  &prize,
		Now:    r.now(),
	})
}

func (r *Router) envelopes(ctx context.Context, exec *Exec) ([]ports.EventEnvelope, error) {
	items := make([]ports.EventEnvelope, 0, len(exec.events))
	for _, pending := range exec.events {
		eventID, err := r.idGen.NewID(ctx)
		if err != nil {
			return nil, err
		}
		envelope, err := NewEnvelope(eventID, pending.eventType, exec.Prize.PrizeID, exec.Caller, exec.Now, pending.data)
		if err != nil {
			return nil, err
		}
		items = append(items, envelope)
	}
	return items, nil
}

func (r *Router) now() time.Time {
	if r.clock == nil {
		return time.Now().UTC()
	}
	return r.clock.Now().UTC()
}

type inFlightKey struct{}

func withInFlight(ctx context.Context, prizeID string) context.Context {
	held, _ := ctx.Value(inFlightKey{}).(map[string]struct{})
	next := make(map[string]struct{}, len(held)+1)
	for id := range held {
		next[id] = struct{}{}
	}
	next[prizeID] = struct{}{}
	return context.WithValue(ctx, inFlightKey{}, next)
}

func inFlight(ctx context.Context, prizeID string) bool {
	held, _ := ctx.Value(inFlightKey{}).(map[string]struct{})
	_, ok := held[prizeID]
	return ok
}
