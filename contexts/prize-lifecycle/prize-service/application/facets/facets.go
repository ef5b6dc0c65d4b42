// Package facets holds the independently replaceable modules that the router
// dispatches to. Each facet owns a fixed set of operation signatures and works
// only through the shared prize record handed to it by the router.
package facets

import (
	"prizeforge/contexts/prize-lifecycle/prize-service/application/router"
	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/strategy"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/values"
	"prizeforge/contexts/prize-lifecycle/prize-service/ports"
)

// Operation signatures. Selectors are derived from these strings.
const (
	SigAddEvaluators      = "addEvaluators(address[])"
	SigRemoveEvaluators   = "removeEvaluators(address[])"
	SigFund               = "fund(uint256)"
	SigWithdrawFunds      = "withdrawFunds()"
	SigSubmitContribution = "submitContribution(string)"
	SigEvaluate           = "evaluateContribution(uint256,uint256[])"
	SigAssignScores       = "assignScores(address[],uint256[][])"
	SigVerifyEvaluations  = "verifyEvaluations(uint256,uint256)"
	SigAdvance            = "advance()"
	SigCancel             = "cancel()"
	SigAllocateRewards    = "computeScoresAndAllocateRewards(uint256,uint256)"
	SigClaimReward        = "claimReward()"
	SigStrategyOf         = "strategyOf()"
	SigPreviewAllocation  = "previewAllocation()"
	SigPrize              = "prize()"
	SigContribution       = "contribution(address)"
	SigSealedScore        = "sealedScore(address,bytes32)"
	SigSealedReward       = "sealedReward(address,bytes32)"
)

const (
	FacetAccess       = "access"
	FacetFunding      = "funding"
	FacetContribution = "contribution"
	FacetEvaluation   = "evaluation"
	FacetState        = "state"
	FacetReward       = "reward"
	FacetStrategy     = "strategy"
	FacetLedger       = "ledger"
)

type Dependencies struct {
	Scheme     values.Scheme
	Strategies *strategy.Registry
	Treasury   ports.Treasury
}

// All returns the standard facet set in registration order.
func All(deps Dependencies) []router.Facet {
	return []router.Facet{
		Access{},
		Funding{Scheme: deps.Scheme, Treasury: deps.Treasury},
		Contribution{},
		Evaluation{Scheme: deps.Scheme},
		State{Scheme: deps.Scheme, Strategies: deps.Strategies},
		Reward{Scheme: deps.Scheme, Strategies: deps.Strategies, Treasury: deps.Treasury},
		Strategy{Scheme: deps.Scheme, Strategies: deps.Strategies},
		Ledger{},
	}
}

type EvaluatorsArgs struct {
	Addresses []string
}

type FundArgs struct {
	Amount values.Value
}

type SubmitArgs struct {
	Description string
}

type EvaluateArgs struct {
	ContestantIndex int
	Scores          []values.Value
}

type AssignArgs struct {
	Contestants []string
	Matrix      [][]values.Value
}

// RangeArgs addresses a batch [Start, Start+Count).
type RangeArgs struct {
	Start int
	Count int
}

type ContributionArgs struct {
	Contestant string
}

// SealArgs is a sealing permit: Recipient must be the caller, and PublicKey
// the X25519 key the value is sealed to.
type SealArgs struct {
	Contestant string
	Recipient  string
	PublicKey  [32]byte
}

// BatchResult reports cursor progress after a batched call.
type BatchResult struct {
	Cursor int  `json:"cursor"`
	Total  int  `json:"total"`
	Done   bool `json:"done"`
}

func argsOf[T any](x *router.Exec) (T, error) {
	switch typed := x.Call.Args.(type) {
	case T:
		return typed, nil
	case *T:
		if typed != nil {
			return *typed, nil
		}
	}
	var zero T
	return zero, domainerrors.New(domainerrors.ErrInvalidInput, "args", "missing or malformed")
}
