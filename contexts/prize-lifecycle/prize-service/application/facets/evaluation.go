package facets

import (
	"context"
	"sort"

	"prizeforge/contexts/prize-lifecycle/prize-service/application/router"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/batch"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/entities"
	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/services"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/values"
)

// Evaluation records evaluator score vectors and folds them into aggregate
// scores. Scores are opaque values; only weighted addition is applied to them.
type Evaluation struct {
	Scheme values.Scheme
}

func (Evaluation) Name() string { return FacetEvaluation }

func (f Evaluation) Operations() []router.Operation {
	return []router.Operation{
		{Signature: SigEvaluate, Mutates: true, Handle: f.evaluate},
		{Signature: SigAssignScores, Mutates: true, Handle: f.assign},
		{Signature: SigVerifyEvaluations, Mutates: true, Handle: f.verify},
	}
}

var evaluatorWhileEvaluating = services.Rule{
	Roles:  []services.Role{services.RoleEvaluator},
	Phases: []entities.Phase{entities.PhaseEvaluating},
}

func (Evaluation) evaluate(_ context.Context, x *router.Exec) (any, error) {
	if err := services.Guard(*x.Prize, x.Caller, evaluatorWhileEvaluating); err != nil {
		return nil, err
	}
	args, err := argsOf[EvaluateArgs](x)
	if err != nil {
		return nil, err
	}
	contribution, ok := x.Prize.ContributionAt(args.ContestantIndex)
	if !ok {
		return nil, domainerrors.New(domainerrors.ErrContributionNotFound, "index", args.ContestantIndex)
	}
	if err := checkVector(*x.Prize, args.Scores); err != nil {
		return nil, err
	}
	writeScores(x.Prize, contribution, x.Caller, args.Scores)
	x.Emit(entities.EventScoresAssigned, map[string]any{
		"evaluator":   x.Caller,
		"contestants": []string{contribution.Contestant},
	})
	return 1, nil
}

// assign writes one row of the matrix per listed contestant. Every row is
// validated before any is written.
func (Evaluation) assign(_ context.Context, x *router.Exec) (any, error) {
	if err := services.Guard(*x.Prize, x.Caller, evaluatorWhileEvaluating); err != nil {
		return nil, err
	}
	args, err := argsOf[AssignArgs](x)
	if err != nil {
		return nil, err
	}
	if len(args.Contestants) == 0 || len(args.Contestants) != len(args.Matrix) {
		return nil, domainerrors.New(domainerrors.ErrInvalidInput,
			"contestants", len(args.Contestants),
			"rows", len(args.Matrix),
		)
	}

	targets := make([]*entities.Contribution, 0, len(args.Contestants))
	for row, contestant := range args.Contestants {
		contribution, ok := x.Prize.Contribution(contestant)
		if !ok {
			return nil, domainerrors.New(domainerrors.ErrContributionNotFound, "contestant", contestant)
		}
		if err := checkVector(*x.Prize, args.Matrix[row]); err != nil {
			return nil, err
		}
		targets = append(targets, contribution)
	}

	scored := make([]string, 0, len(targets))
	for row, contribution := range targets {
		writeScores(x.Prize, contribution, x.Caller, args.Matrix[row])
		scored = append(scored, contribution.Contestant)
	}
	x.Emit(entities.EventScoresAssigned, map[string]any{
		"evaluator":   x.Caller,
		"contestants": scored,
	})
	return len(scored), nil
}

// verify aggregates a batch of fully scored contestants under the aggregation
// cursor. Whatever is left is aggregated when evaluation closes.
func (f Evaluation) verify(_ context.Context, x *router.Exec) (any, error) {
	err := services.Guard(*x.Prize, x.Caller, services.Rule{
		Roles:  []services.Role{services.RoleOrganizer},
		Phases: []entities.Phase{entities.PhaseEvaluating},
	})
	if err != nil {
		return nil, err
	}
	args, err := argsOf[RangeArgs](x)
	if err != nil {
		return nil, err
	}

	prize := x.Prize
	cursor, err := batch.Run(prize.Contestants, prize.AggregationCursor, args.Start, args.Count,
		func(_ int, contestant string) error {
			return aggregateOne(f.Scheme, prize, prize.Contributions[contestant])
		},
	)
	if err != nil {
		return nil, err
	}
	prize.AggregationCursor = cursor
	x.Emit(entities.EventEvaluationsVerified, map[string]any{
		"start":  args.Start,
		"count":  args.Count,
		"cursor": cursor,
	})
	return BatchResult{
		Cursor: cursor,
		Total:  len(prize.Contestants),
		Done:   batch.Done(cursor, len(prize.Contestants)),
	}, nil
}

func checkVector(prize entities.Prize, scores []values.Value) error {
	if len(scores) != len(prize.CriteriaNames) {
		return domainerrors.New(domainerrors.ErrCriteriaCountMismatch,
			"expected", len(prize.CriteriaNames),
			"actual", len(scores),
		)
	}
	for i, score := range scores {
		if score == nil {
			return domainerrors.New(domainerrors.ErrInvalidInput, "criterion", i, "reason", "missing score")
		}
	}
	return nil
}

// writeScores overwrites the evaluator's vector. Only a first write counts
// toward completeness.
func writeScores(prize *entities.Prize, contribution *entities.Contribution, evaluator string, scores []values.Value) {
	if contribution.Scores == nil {
		contribution.Scores = make(map[string][]values.Value)
	}
	if _, seen := contribution.Scores[evaluator]; !seen {
		prize.ScoreCount++
	}
	contribution.Scores[evaluator] = append([]values.Value(nil), scores...)
	resetAggregation(prize)
}

// resetAggregation invalidates aggregates computed before the latest score or
// evaluator change. Once allocation has begun aggregates are frozen.
func resetAggregation(prize *entities.Prize) {
	switch prize.Phase {
	case entities.PhaseSetup, entities.PhaseOpen, entities.PhaseEvaluating:
	default:
		return
	}
	prize.AggregationCursor = 0
	for _, contribution := range prize.Contributions {
		contribution.Aggregated = false
		contribution.AggregateScore = nil
	}
}

func aggregateOne(scheme values.Scheme, prize *entities.Prize, contribution *entities.Contribution) error {
	if len(prize.Evaluators) == 0 || len(contribution.Scores) != len(prize.Evaluators) {
		return domainerrors.New(domainerrors.ErrIncompleteEvaluation,
			"contestant", contribution.Contestant,
			"scored_by", len(contribution.Scores),
			"evaluators", len(prize.Evaluators),
		)
	}
	total, err := weightedSum(scheme, *prize, contribution)
	if err != nil {
		return err
	}
	contribution.AggregateScore = total
	contribution.Aggregated = true
	return nil
}

// aggregateRemaining finishes the aggregation pass from the cursor.
func aggregateRemaining(scheme values.Scheme, prize *entities.Prize) error {
	for index := prize.AggregationCursor; index < len(prize.Contestants); index++ {
		if err := aggregateOne(scheme, prize, prize.Contributions[prize.Contestants[index]]); err != nil {
			return err
		}
	}
	prize.AggregationCursor = len(prize.Contestants)
	return nil
}

// weightedSum is sum over evaluators e and criteria c of score[e][c]*weight[c].
func weightedSum(scheme values.Scheme, prize entities.Prize, contribution *entities.Contribution) (values.Value, error) {
	evaluators := make([]string, 0, len(contribution.Scores))
	for evaluator := range contribution.Scores {
		evaluators = append(evaluators, evaluator)
	}
	sort.Strings(evaluators)

	total := scheme.Zero()
	for _, evaluator := range evaluators {
		for criterion, score := range contribution.Scores[evaluator] {
			weighted, err := score.Scale(prize.CriteriaWeights[criterion])
			if err != nil {
				return nil, err
			}
			next, err := total.Add(weighted)
			if err != nil {
				return nil, err
			}
			total = next
		}
	}
	return total, nil
}
