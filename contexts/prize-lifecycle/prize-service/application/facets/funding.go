package facets

import (
	"context"

	"prizeforge/contexts/prize-lifecycle/prize-service/application/router"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/entities"
	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/services"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/values"
	"prizeforge/contexts/prize-lifecycle/prize-service/ports"
)

// Funding moves the pool in at setup and back out after cancellation.
type Funding struct {
	Scheme   values.Scheme
	Treasury ports.Treasury
}

func (Funding) Name() string { return FacetFunding }

func (f Funding) Operations() []router.Operation {
	return []router.Operation{
		{Signature: SigFund, Mutates: true, Handle: f.fund},
		{Signature: SigWithdrawFunds, Mutates: true, Handle: f.withdrawFunds},
	}
}

// fund credits exactly the declared pool size, once.
func (f Funding) fund(ctx context.Context, x *router.Exec) (any, error) {
	err := services.Guard(*x.Prize, x.Caller, services.Rule{
		Roles:  []services.Role{services.RoleOrganizer},
		Phases: []entities.Phase{entities.PhaseSetup},
	})
	if err != nil {
		return nil, err
	}
	args, err := argsOf[FundArgs](x)
	if err != nil {
		return nil, err
	}
	if args.Amount == nil {
		return nil, domainerrors.New(domainerrors.ErrInvalidInput, "amount", "missing")
	}

	prize := x.Prize
	if prize.Funded {
		return nil, domainerrors.New(domainerrors.ErrAlreadyFunded, "pool", prize.Pool.String())
	}
	exact, err := values.Equal(args.Amount, prize.PoolSize)
	if err != nil {
		return nil, err
	}
	if !exact {
		return nil, domainerrors.New(domainerrors.ErrFundingAmountMismatch,
			"expected", prize.PoolSize.String(),
			"actual", args.Amount.String(),
		)
	}
	if err := f.Treasury.Credit(ctx, prize.PrizeID, prize.Organizer, args.Amount); err != nil {
		return nil, err
	}
	prize.Pool = args.Amount
	prize.Funded = true
	x.Emit(entities.EventPrizeFunded, map[string]any{"amount": args.Amount.String()})
	return args.Amount, nil
}

// withdrawFunds refunds the undistributed pool of a cancelled prize, once.
func (f Funding) withdrawFunds(ctx context.Context, x *router.Exec) (any, error) {
	err := services.Guard(*x.Prize, x.Caller, services.Rule{
		Roles:  []services.Role{services.RoleOrganizer},
		Phases: []entities.Phase{entities.PhaseCancelled},
	})
	if err != nil {
		return nil, err
	}

	prize := x.Prize
	if prize.FundsWithdrawn || !prize.Funded || prize.Pool == nil || prize.Pool.IsZero() {
		return nil, domainerrors.New(domainerrors.ErrNoFundsToWithdraw,
			"funded", prize.Funded,
			"withdrawn", prize.FundsWithdrawn,
		)
	}
	amount := prize.Pool
	prize.FundsWithdrawn = true
	prize.Pool = f.Scheme.Zero()
	if err := f.Treasury.Refund(ctx, prize.PrizeID, prize.Organizer, amount); err != nil {
		return nil, err
	}
	x.Emit(entities.EventFundsWithdrawn, map[string]any{
		"organizer": prize.Organizer,
		"amount":    amount.String(),
	})
	return amount, nil
}
