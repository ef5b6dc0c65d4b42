package facets

import (
	"context"

	"prizeforge/contexts/prize-lifecycle/prize-service/application/router"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/entities"
	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/services"
)

// Access manages the evaluator set. The organizer is fixed at creation.
type Access struct{}

func (Access) Name() string { return FacetAccess }

func (f Access) Operations() []router.Operation {
	return []router.Operation{
		{Signature: SigAddEvaluators, Mutates: true, Handle: f.addEvaluators},
		{Signature: SigRemoveEvaluators, Mutates: true, Handle: f.removeEvaluators},
	}
}

var organizerAnyPhase = services.Rule{Roles: []services.Role{services.RoleOrganizer}}

func (Access) addEvaluators(_ context.Context, x *router.Exec) (any, error) {
	if err := services.Guard(*x.Prize, x.Caller, organizerAnyPhase); err != nil {
		return nil, err
	}
	args, err := argsOf[EvaluatorsArgs](x)
	if err != nil {
		return nil, err
	}
	addresses, err := normalizeAddresses(args.Addresses)
	if err != nil {
		return nil, err
	}

	prize := x.Prize
	added := make([]string, 0, len(addresses))
	for _, address := range addresses {
		if prize.IsOrganizer(address) {
			return nil, domainerrors.New(domainerrors.ErrInvalidInput, "evaluator", address, "reason", "organizer cannot evaluate")
		}
		if _, ok := prize.Contribution(address); ok {
			return nil, domainerrors.New(domainerrors.ErrInvalidInput, "evaluator", address, "reason", "contestant cannot evaluate")
		}
		if prize.IsEvaluator(address) {
			continue
		}
		if prize.Evaluators == nil {
			prize.Evaluators = make(map[string]struct{})
		}
		prize.Evaluators[address] = struct{}{}
		added = append(added, address)
	}
	if len(added) > 0 {
		resetAggregation(prize)
		x.Emit(entities.EventEvaluatorsAdded, map[string]any{"evaluators": added})
	}
	return added, nil
}

// removeEvaluators drops the evaluator and every score vector it wrote.
// Completeness is then measured against the remaining set only.
func (Access) removeEvaluators(_ context.Context, x *router.Exec) (any, error) {
	if err := services.Guard(*x.Prize, x.Caller, organizerAnyPhase); err != nil {
		return nil, err
	}
	args, err := argsOf[EvaluatorsArgs](x)
	if err != nil {
		return nil, err
	}
	addresses, err := normalizeAddresses(args.Addresses)
	if err != nil {
		return nil, err
	}

	prize := x.Prize
	removed := make([]string, 0, len(addresses))
	for _, address := range addresses {
		if !prize.IsEvaluator(address) {
			continue
		}
		for _, contribution := range prize.Contributions {
			if _, scored := contribution.Scores[address]; scored {
				delete(contribution.Scores, address)
				prize.ScoreCount--
			}
		}
		delete(prize.Evaluators, address)
		removed = append(removed, address)
	}
	if len(removed) > 0 {
		resetAggregation(prize)
		x.Emit(entities.EventEvaluatorsRemoved, map[string]any{"evaluators": removed})
	}
	return removed, nil
}

func normalizeAddresses(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, domainerrors.New(domainerrors.ErrInvalidInput, "addresses", 0)
	}
	out := make([]string, 0, len(raw))
	for i, address := range raw {
		normalized := entities.NormalizeAddress(address)
		if normalized == "" {
			return nil, domainerrors.New(domainerrors.ErrInvalidInput, "address_index", i)
		}
		out = append(out, normalized)
	}
	return out, nil
}
