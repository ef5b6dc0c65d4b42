package facets

import (
	"context"

	"prizeforge/contexts/prize-lifecycle/prize-service/application/router"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/entities"
	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/services"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/values"
)

// Ledger serves read-only views of the shared record, including sealed
// disclosure of scores and rewards.
type Ledger struct{}

func (Ledger) Name() string { return FacetLedger }

func (f Ledger) Operations() []router.Operation {
	return []router.Operation{
		{Signature: SigPrize, Handle: f.prize},
		{Signature: SigContribution, Handle: f.contribution},
		{Signature: SigSealedScore, Handle: f.sealedScore},
		{Signature: SigSealedReward, Handle: f.sealedReward},
	}
}

func (Ledger) prize(_ context.Context, x *router.Exec) (any, error) {
	view := x.Prize.Clone()
	for _, contribution := range view.Contributions {
		redactFor(view, contribution, x.Caller)
	}
	return view, nil
}

func (Ledger) contribution(_ context.Context, x *router.Exec) (any, error) {
	args, err := argsOf[ContributionArgs](x)
	if err != nil {
		return nil, err
	}
	item, ok := x.Prize.Contribution(args.Contestant)
	if !ok {
		return nil, domainerrors.New(domainerrors.ErrContributionNotFound, "contestant", args.Contestant)
	}
	view := item.Clone()
	redactFor(*x.Prize, &view, x.Caller)
	return view, nil
}

// redactFor hides score vectors, the aggregate and the reward from callers
// other than the contestant, the organizer and the evaluators. These are the
// same parties a sealing permit is granted to.
func redactFor(prize entities.Prize, contribution *entities.Contribution, caller string) {
	if caller != "" && (contribution.Contestant == caller || prize.IsOrganizer(caller) || prize.IsEvaluator(caller)) {
		return
	}
	contribution.Scores = nil
	contribution.AggregateScore = nil
	contribution.Aggregated = false
	contribution.Reward = nil
}

func (Ledger) sealedScore(_ context.Context, x *router.Exec) (any, error) {
	contribution, recipient, err := permitted(x)
	if err != nil {
		return nil, err
	}
	if !contribution.Aggregated || contribution.AggregateScore == nil {
		return nil, domainerrors.New(domainerrors.ErrInvalidPhase,
			"contestant", contribution.Contestant,
			"reason", "score not aggregated",
		)
	}
	return contribution.AggregateScore.Seal(recipient)
}

func (Ledger) sealedReward(_ context.Context, x *router.Exec) (any, error) {
	contribution, recipient, err := permitted(x)
	if err != nil {
		return nil, err
	}
	if x.Prize.AllocationCursor <= contribution.Index || contribution.Reward == nil {
		return nil, domainerrors.New(domainerrors.ErrInvalidPhase,
			"contestant", contribution.Contestant,
			"reason", "reward not allocated",
		)
	}
	return contribution.Reward.Seal(recipient)
}

// permitted checks the sealing permit: it must name the caller, and the caller
// must be the contestant, the organizer or an evaluator.
func permitted(x *router.Exec) (*entities.Contribution, values.Recipient, error) {
	args, err := argsOf[SealArgs](x)
	if err != nil {
		return nil, values.Recipient{}, err
	}
	if x.Caller == "" || entities.NormalizeAddress(args.Recipient) != x.Caller {
		return nil, values.Recipient{}, domainerrors.New(domainerrors.ErrInvalidPermit,
			"recipient", args.Recipient,
			"caller", x.Caller,
		)
	}
	contribution, ok := x.Prize.Contribution(args.Contestant)
	if !ok {
		return nil, values.Recipient{}, domainerrors.New(domainerrors.ErrContributionNotFound, "contestant", args.Contestant)
	}
	if contribution.Contestant != x.Caller {
		if err := services.CheckRole(*x.Prize, x.Caller, services.RoleOrganizer, services.RoleEvaluator); err != nil {
			return nil, values.Recipient{}, err
		}
	}
	return contribution, values.Recipient{Address: x.Caller, PublicKey: args.PublicKey}, nil
}
