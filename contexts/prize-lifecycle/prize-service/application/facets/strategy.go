package facets

import (
	"context"

	"prizeforge/contexts/prize-lifecycle/prize-service/application/router"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/entities"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/services"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/strategy"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/values"
)

// Strategy exposes the bound allocation strategy and a dry-run of it.
type Strategy struct {
	Scheme     values.Scheme
	Strategies *strategy.Registry
}

type StrategyInfo struct {
	ID   string `json:"strategy_id"`
	Name string `json:"name"`
}

// Allocation is one row of an allocation preview.
type Allocation struct {
	Contestant     string `json:"contestant"`
	Index          int    `json:"index"`
	AggregateScore string `json:"aggregate_score"`
	Reward         string `json:"reward"`
}

func (Strategy) Name() string { return FacetStrategy }

func (f Strategy) Operations() []router.Operation {
	return []router.Operation{
		{Signature: SigStrategyOf, Handle: f.strategyOf},
		{Signature: SigPreviewAllocation, Handle: f.preview},
	}
}

func (f Strategy) strategyOf(_ context.Context, x *router.Exec) (any, error) {
	selected, err := f.Strategies.Lookup(x.Prize.StrategyID)
	if err != nil {
		return nil, err
	}
	return StrategyInfo{ID: selected.ID(), Name: selected.Name()}, nil
}

// preview runs the bound strategy over the current weighted scores without
// touching the prize. Partially scored contestants count with what they have.
func (f Strategy) preview(_ context.Context, x *router.Exec) (any, error) {
	prize := x.Prize
	err := services.Guard(*prize, x.Caller, services.Rule{
		Roles:  []services.Role{services.RoleOrganizer},
		Phases: []entities.Phase{entities.PhaseEvaluating, entities.PhaseAllocating},
	})
	if err != nil {
		return nil, err
	}
	selected, err := f.Strategies.Lookup(prize.StrategyID)
	if err != nil {
		return nil, err
	}

	scores := make([]values.Value, 0, len(prize.Contestants))
	for _, contestant := range prize.Contestants {
		contribution := prize.Contributions[contestant]
		score := contribution.AggregateScore
		if !contribution.Aggregated || score == nil {
			score, err = weightedSum(f.Scheme, *prize, contribution)
			if err != nil {
				return nil, err
			}
		}
		scores = append(scores, score)
	}
	basis, err := selected.Prepare(f.Scheme, scores)
	if err != nil {
		return nil, err
	}

	pool := prize.Pool
	if pool == nil {
		pool = prize.PoolSize
	}
	allocated := f.Scheme.Zero()
	items := make([]Allocation, 0, len(scores))
	for index, score := range scores {
		reward, err := rewardAt(selected, basis, pool, allocated, index, score)
		if err != nil {
			return nil, err
		}
		if allocated, err = allocated.Add(reward); err != nil {
			return nil, err
		}
		items = append(items, Allocation{
			Contestant:     prize.Contestants[index],
			Index:          index,
			AggregateScore: score.String(),
			Reward:         reward.String(),
		})
	}
	return items, nil
}
