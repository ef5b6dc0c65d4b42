package strategy

import (
	"sort"
	"strings"
	"sync"

	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"
)

// Registry maps aliases and versioned ids to strategies. Versioned ids are
// write-once, so a prize that stored an id keeps the same arithmetic even when
// its alias is later pointed at a newer version.
type Registry struct {
	mu      sync.RWMutex
	byID    map[string]Strategy
	aliases map[string]string
}

func NewRegistry(items ...Strategy) (*Registry, error) {
	r := &Registry{
		byID:    make(map[string]Strategy),
		aliases: make(map[string]string),
	}
	for _, item := range items {
		if err := r.Register(item); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry holds linear, quadratic and winner_takes_all.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(Linear{}, Quadratic{}, WinnerTakesAll{})
	if err != nil {
		panic(err)
	}
	return r
}

// Register adds a new version and points its alias at it.
func (r *Registry) Register(s Strategy) error {
	if s == nil || strings.TrimSpace(s.ID()) == "" || strings.TrimSpace(s.Name()) == "" {
		return domainerrors.ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id := strings.TrimSpace(s.ID())
	if _, exists := r.byID[id]; exists {
		return domainerrors.New(domainerrors.ErrStrategyRegistered, "strategy_id", id)
	}
	r.byID[id] = s
	r.aliases[strings.ToLower(strings.TrimSpace(s.Name()))] = id
	return nil
}

// Resolve accepts an alias or a versioned id. Prize creation is the only caller
// that should resolve by alias.
func (r *Registry) Resolve(name string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := strings.TrimSpace(name)
	if id, ok := r.aliases[strings.ToLower(key)]; ok {
		key = id
	}
	item, ok := r.byID[key]
	if !ok {
		return nil, domainerrors.New(domainerrors.ErrUnknownStrategy, "strategy", name)
	}
	return item, nil
}

// Lookup resolves an exact versioned id.
func (r *Registry) Lookup(id string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.byID[strings.TrimSpace(id)]
	if !ok {
		return nil, domainerrors.New(domainerrors.ErrUnknownStrategy, "strategy_id", id)
	}
	return item, nil
}

type Entry struct {
	Name string
	ID   string
}

// Entries lists alias bindings sorted by name.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]Entry, 0, len(r.aliases))
	for name, id := range r.aliases {
		items = append(items, Entry{Name: name, ID: id})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Name < items[j].Name
	})
	return items
}
