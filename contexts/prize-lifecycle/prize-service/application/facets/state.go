package facets

import (
	"context"

	"prizeforge/contexts/prize-lifecycle/prize-service/application/router"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/entities"
	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/services"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/strategy"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/values"
)

// State owns the phase machine.
type State struct {
	Scheme     values.Scheme
	Strategies *strategy.Registry
}

func (State) Name() string { return FacetState }

func (f State) Operations() []router.Operation {
	return []router.Operation{
		{Signature: SigAdvance, Mutates: true, Handle: f.advance},
		{Signature: SigCancel, Mutates: true, Handle: f.cancel},
	}
}

// advance performs the single legal forward transition.
func (f State) advance(_ context.Context, x *router.Exec) (any, error) {
	prize := x.Prize
	if err := services.CheckRole(*prize, x.Caller, services.RoleOrganizer); err != nil {
		return nil, err
	}
	from := prize.Phase
	to, ok := from.Next()
	if !ok {
		return nil, domainerrors.New(domainerrors.ErrNoTransition, "phase", string(from))
	}

	switch from {
	case entities.PhaseSetup:
		if !prize.Funded {
			return nil, domainerrors.New(domainerrors.ErrNotFunded, "phase", string(from))
		}
	case entities.PhaseEvaluating:
		if !prize.EvaluationComplete() {
			return nil, domainerrors.New(domainerrors.ErrIncompleteEvaluation,
				"pending", prize.PendingEvaluations(),
				"evaluators", len(prize.Evaluators),
				"contestants", len(prize.Contestants),
			)
		}
		if err := f.openAllocation(prize); err != nil {
			return nil, err
		}
	case entities.PhaseAllocating:
		if !prize.AllRewardsAllocated {
			return nil, domainerrors.New(domainerrors.ErrAllocationIncomplete,
				"cursor", prize.AllocationCursor,
				"total", len(prize.Contestants),
			)
		}
	}

	prize.Phase = to
	x.Emit(entities.EventPhaseAdvanced, map[string]any{
		"from": string(from),
		"to":   string(to),
	})
	return to, nil
}

// openAllocation finishes aggregation and snapshots the strategy basis in
// one full pass so rewards can then be computed in batches.
func (f State) openAllocation(prize *entities.Prize) error {
	if err := aggregateRemaining(f.Scheme, prize); err != nil {
		return err
	}
	selected, err := f.Strategies.Lookup(prize.StrategyID)
	if err != nil {
		return err
	}
	scores := make([]values.Value, 0, len(prize.Contestants))
	for _, contestant := range prize.Contestants {
		scores = append(scores, prize.Contributions[contestant].AggregateScore)
	}
	basis, err := selected.Prepare(f.Scheme, scores)
	if err != nil {
		return err
	}
	prize.Basis = basis
	prize.AllocationCursor = 0
	prize.Allocated = f.Scheme.Zero()
	prize.AllRewardsAllocated = len(prize.Contestants) == 0
	return nil
}

func (State) cancel(_ context.Context, x *router.Exec) (any, error) {
	prize := x.Prize
	err := services.Guard(*prize, x.Caller, services.Rule{
		Roles:  []services.Role{services.RoleOrganizer},
		Phases: []entities.Phase{entities.PhaseSetup, entities.PhaseOpen, entities.PhaseEvaluating},
	})
	if err != nil {
		return nil, err
	}
	from := prize.Phase
	prize.Phase = entities.PhaseCancelled
	x.Emit(entities.EventPrizeCancelled, map[string]any{"from": string(from)})
	return prize.Phase, nil
}
