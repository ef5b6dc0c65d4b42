package facets

import (
	"context"
	"strings"

	"prizeforge/contexts/prize-lifecycle/prize-service/application/router"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/entities"
	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/services"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/values"
)

// Contribution registers one entry per contestant while the prize is open.
type Contribution struct{}

func (Contribution) Name() string { return FacetContribution }

func (f Contribution) Operations() []router.Operation {
	return []router.Operation{
		{Signature: SigSubmitContribution, Mutates: true, Handle: f.submit},
	}
}

func (Contribution) submit(_ context.Context, x *router.Exec) (any, error) {
	err := services.Guard(*x.Prize, x.Caller, services.Rule{
		Roles:  []services.Role{services.RoleParticipant},
		Phases: []entities.Phase{entities.PhaseOpen},
	})
	if err != nil {
		return nil, err
	}
	args, err := argsOf[SubmitArgs](x)
	if err != nil {
		return nil, err
	}

	prize := x.Prize
	if existing, ok := prize.Contribution(x.Caller); ok {
		return nil, domainerrors.New(domainerrors.ErrDuplicateContribution,
			"contestant", x.Caller,
			"index", existing.Index,
		)
	}
	contribution := &entities.Contribution{
		Contestant:  x.Caller,
		Index:       len(prize.Contestants),
		Description: strings.TrimSpace(args.Description),
		Scores:      make(map[string][]values.Value),
		SubmittedAt: x.Now,
	}
	if prize.Contributions == nil {
		prize.Contributions = make(map[string]*entities.Contribution)
	}
	prize.Contributions[x.Caller] = contribution
	prize.Contestants = append(prize.Contestants, x.Caller)

	x.Emit(entities.EventContributionSubmitted, map[string]any{
		"contestant": x.Caller,
		"index":      contribution.Index,
	})
	return contribution.Index, nil
}
