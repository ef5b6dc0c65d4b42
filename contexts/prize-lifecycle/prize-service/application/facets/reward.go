package facets

import (
	"context"
	"time"

	"prizeforge/contexts/prize-lifecycle/prize-service/application/router"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/batch"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/entities"
	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/services"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/strategy"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/values"
	"prizeforge/contexts/prize-lifecycle/prize-service/ports"
)

// Reward computes rewards in ordered batches and pays each one exactly once.
type Reward struct {
	Scheme     values.Scheme
	Strategies *strategy.Registry
	Treasury   ports.Treasury
}

func (Reward) Name() string { return FacetReward }

func (f Reward) Operations() []router.Operation {
	return []router.Operation{
		{Signature: SigAllocateRewards, Mutates: true, Handle: f.allocate},
		{Signature: SigClaimReward, Mutates: true, Handle: f.claim},
	}
}

func (f Reward) allocate(_ context.Context, x *router.Exec) (any, error) {
	err := services.Guard(*x.Prize, x.Caller, services.Rule{
		Roles:  []services.Role{services.RoleOrganizer},
		Phases: []entities.Phase{entities.PhaseAllocating},
	})
	if err != nil {
		return nil, err
	}
	args, err := argsOf[RangeArgs](x)
	if err != nil {
		return nil, err
	}

	prize := x.Prize
	selected, err := f.Strategies.Lookup(prize.StrategyID)
	if err != nil {
		return nil, err
	}
	allocated := prize.Allocated
	if allocated == nil {
		allocated = f.Scheme.Zero()
	}
	cursor, err := batch.Run(prize.Contestants, prize.AllocationCursor, args.Start, args.Count,
		func(index int, contestant string) error {
			contribution := prize.Contributions[contestant]
			reward, err := rewardAt(selected, prize.Basis, prize.Pool, allocated, index, contribution.AggregateScore)
			if err != nil {
				return err
			}
			next, err := allocated.Add(reward)
			if err != nil {
				return err
			}
			allocated = next
			contribution.Reward = reward
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	prize.Allocated = allocated
	prize.AllocationCursor = cursor
	prize.AllRewardsAllocated = batch.Done(cursor, len(prize.Contestants))

	x.Emit(entities.EventRewardsAllocated, map[string]any{
		"start":  args.Start,
		"count":  args.Count,
		"cursor": cursor,
		"done":   prize.AllRewardsAllocated,
	})
	return BatchResult{
		Cursor: cursor,
		Total:  len(prize.Contestants),
		Done:   prize.AllRewardsAllocated,
	}, nil
}

// rewardAt is the reward of the contestant at index. The last eligible
// contestant takes whatever the pool still holds so nothing is lost to
// rounding; the strategy bound guarantees that remainder is never negative.
func rewardAt(
	selected strategy.Strategy,
	basis strategy.Basis,
	pool values.Value,
	allocated values.Value,
	index int,
	score values.Value,
) (values.Value, error) {
	if index == basis.LastEligible {
		return pool.Sub(allocated)
	}
	return selected.ComputeReward(score, basis, pool)
}

// claim marks the reward paid and lowers the pool before the transfer runs.
func (f Reward) claim(ctx context.Context, x *router.Exec) (any, error) {
	err := services.Guard(*x.Prize, x.Caller, services.Rule{
		Phases: []entities.Phase{entities.PhaseClaiming, entities.PhaseClosed},
	})
	if err != nil {
		return nil, err
	}

	prize := x.Prize
	contribution, ok := prize.Contribution(x.Caller)
	if !ok {
		return nil, domainerrors.New(domainerrors.ErrContributionNotFound, "contestant", x.Caller)
	}
	if contribution.Claimed {
		return nil, domainerrors.New(domainerrors.ErrRewardAlreadyClaimed, "contestant", x.Caller)
	}
	if contribution.Reward == nil || contribution.Reward.IsZero() {
		return nil, domainerrors.New(domainerrors.ErrNoRewardAvailable, "contestant", x.Caller)
	}

	amount := contribution.Reward
	remaining, err := prize.Pool.Sub(amount)
	if err != nil {
		return nil, err
	}
	claimedAt := x.Now.UTC().Truncate(time.Microsecond)
	contribution.Claimed = true
	contribution.ClaimedAt = &claimedAt
	prize.Pool = remaining

	if err := f.Treasury.Transfer(ctx, prize.PrizeID, x.Caller, amount); err != nil {
		return nil, err
	}
	x.Emit(entities.EventRewardClaimed, map[string]any{
		"contestant": x.Caller,
		"amount":     amount.String(),
	})
	return amount, nil
}
