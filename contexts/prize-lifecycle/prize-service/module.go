// Package prizeservice wires the prize lifecycle: the facet router over the
// shared prize store, the prize manager, and the workers that relay and
// project prize events.
package prizeservice

import (
	"log/slog"
	"time"

	httpadapter "prizeforge/contexts/prize-lifecycle/prize-service/adapters/http"
	"prizeforge/contexts/prize-lifecycle/prize-service/adapters/memory"
	"prizeforge/contexts/prize-lifecycle/prize-service/application/facets"
	"prizeforge/contexts/prize-lifecycle/prize-service/application/manager"
	"prizeforge/contexts/prize-lifecycle/prize-service/application/queries"
	"prizeforge/contexts/prize-lifecycle/prize-service/application/router"
	"prizeforge/contexts/prize-lifecycle/prize-service/application/workers"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/strategy"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/values"
	"prizeforge/contexts/prize-lifecycle/prize-service/ports"
)

type Module struct {
	Handler   httpadapter.Handler
	Router    *router.Router
	Manager   manager.PrizeManager
	Relay     workers.OutboxRelay
	Projector workers.ActivityProjector
	Store     *memory.Store
}

type Dependencies struct {
	Prizes           ports.PrizeStore
	Treasury         ports.Treasury
	Idempotency      ports.IdempotencyStore
	Outbox           ports.OutboxRepository
	Activity         ports.ActivityRepository
	Dedup            ports.EventDedupStore
	Publisher        ports.EventPublisher
	Subscriber       ports.EventSubscriber
	Clock            ports.Clock
	IDGenerator      ports.IDGenerator
	Scheme           values.Scheme
	Strategies       *strategy.Registry
	IdempotencyTTL   time.Duration
	DefaultStrategy  string
	OutboxBatchSize  int
	DisableProjector bool
	Logger           *slog.Logger
}

// NewModule registers the standard facets. It fails only on a selector clash.
func NewModule(deps Dependencies) (Module, error) {
	if deps.Scheme == nil {
		deps.Scheme = values.PlainScheme{}
	}
	if deps.Strategies == nil {
		deps.Strategies = strategy.DefaultRegistry()
	}
	if deps.IdempotencyTTL <= 0 {
		deps.IdempotencyTTL = 7 * 24 * time.Hour
	}

	dispatcher := router.New(router.Dependencies{
		Store:  deps.Prizes,
		Clock:  deps.Clock,
		IDGen:  deps.IDGenerator,
		Logger: deps.Logger,
	})
	for _, facet := range facets.All(facets.Dependencies{
		Scheme:     deps.Scheme,
		Strategies: deps.Strategies,
		Treasury:   deps.Treasury,
	}) {
		if err := dispatcher.Register(facet); err != nil {
			return Module{}, err
		}
	}

	prizeManager := manager.PrizeManager{
		Store:           deps.Prizes,
		Idempotency:     deps.Idempotency,
		Strategies:      deps.Strategies,
		Scheme:          deps.Scheme,
		Clock:           deps.Clock,
		IDGenerator:     deps.IDGenerator,
		IdempotencyTTL:  deps.IdempotencyTTL,
		DefaultStrategy: deps.DefaultStrategy,
		Logger:          deps.Logger,
	}
	listActivity := queries.ListActivityUseCase{
		Prizes:   deps.Prizes,
		Activity: deps.Activity,
		Logger:   deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			Manager:  prizeManager,
			Router:   dispatcher,
			Activity: listActivity,
			Scheme:   deps.Scheme,
			Logger:   deps.Logger,
		},
		Router:  dispatcher,
		Manager: prizeManager,
		Relay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			BatchSize: deps.OutboxBatchSize,
			Logger:    deps.Logger,
		},
		Projector: workers.ActivityProjector{
			Subscriber: deps.Subscriber,
			Activity:   deps.Activity,
			Dedup:      deps.Dedup,
			Clock:      deps.Clock,
			Disabled:   deps.DisableProjector,
			Logger:     deps.Logger,
		},
	}, nil
}

// NewInMemoryModule backs every port with one memory.Store. Publisher and
// subscriber stay nil until the caller attaches an event bus.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore(values.PlainScheme{})
	module, err := NewModule(Dependencies{
		Prizes:      store,
		Treasury:    store,
		Idempotency: store,
		Outbox:      store,
		Activity:    store,
		Dedup:       store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	if err != nil {
		panic(err)
	}
	module.Store = store
	return module
}
