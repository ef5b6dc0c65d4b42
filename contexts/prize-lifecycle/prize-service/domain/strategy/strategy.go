// Package strategy holds the reward allocation strategies and the registry
// prizes bind to at creation.
//
// Allocation is two-phase. Prepare folds every aggregate score into a Basis in
// one pass; ComputeReward then maps one contestant's score to a reward using
// only that Basis and the pool, which lets the reward pass run in batches.
// Every strategy must keep the floor-sum of ComputeReward within the pool; the
// contestant at Basis.LastEligible absorbs the rounding remainder.
package strategy

import (
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/values"
)

// Basis is the strategy denominator snapshot taken when allocation starts.
type Basis struct {
	Denominator values.Value
	Top         values.Value
	// LastEligible is the highest contestant index with a nonzero share, or -1.
	LastEligible int
}

type Strategy interface {
	// ID is the immutable, versioned identity a prize stores, e.g. "linear@1".
	ID() string
	// Name is the registry alias, e.g. "linear".
	Name() string
	Prepare(scheme values.Scheme, scores []values.Value) (Basis, error)
	ComputeReward(score values.Value, basis Basis, pool values.Value) (values.Value, error)
}

const (
	NameLinear         = "linear"
	NameQuadratic      = "quadratic"
	NameWinnerTakesAll = "winner_takes_all"
)

// Linear pays pool * s / sum(s).
type Linear struct{}

func (Linear) ID() string   { return NameLinear + "@1" }
func (Linear) Name() string { return NameLinear }

func (Linear) Prepare(scheme values.Scheme, scores []values.Value) (Basis, error) {
	return prepareWeighted(scheme, scores, func(score values.Value) (values.Value, error) {
		return score, nil
	})
}

func (Linear) ComputeReward(score values.Value, basis Basis, pool values.Value) (values.Value, error) {
	return pool.MulDiv(score, basis.Denominator)
}

// Quadratic pays pool * s^2 / sum(s^2).
type Quadratic struct{}

func (Quadratic) ID() string   { return NameQuadratic + "@1" }
func (Quadratic) Name() string { return NameQuadratic }

func (Quadratic) Prepare(scheme values.Scheme, scores []values.Value) (Basis, error) {
	return prepareWeighted(scheme, scores, square)
}

func (Quadratic) ComputeReward(score values.Value, basis Basis, pool values.Value) (values.Value, error) {
	weight, err := square(score)
	if err != nil {
		return nil, err
	}
	return pool.MulDiv(weight, basis.Denominator)
}

// WinnerTakesAll pays the whole pool to the highest score, split evenly on ties.
type WinnerTakesAll struct{}

func (WinnerTakesAll) ID() string   { return NameWinnerTakesAll + "@1" }
func (WinnerTakesAll) Name() string { return NameWinnerTakesAll }

func (WinnerTakesAll) Prepare(scheme values.Scheme, scores []values.Value) (Basis, error) {
	top := scheme.Zero()
	for _, score := range scores {
		cmp, err := score.Compare(top)
		if err != nil {
			return Basis{}, err
		}
		if cmp > 0 {
			top = score
		}
	}
	basis := Basis{Denominator: scheme.Zero(), Top: top, LastEligible: -1}
	if top.IsZero() {
		return basis, nil
	}
	var ties uint64
	for index, score := range scores {
		equal, err := values.Equal(score, top)
		if err != nil {
			return Basis{}, err
		}
		if equal {
			ties++
			basis.LastEligible = index
		}
	}
	denominator, err := top.Scale(ties)
	if err != nil {
		return Basis{}, err
	}
	basis.Denominator = denominator
	return basis, nil
}

func (WinnerTakesAll) ComputeReward(score values.Value, basis Basis, pool values.Value) (values.Value, error) {
	if basis.Top == nil || basis.Top.IsZero() {
		return pool.MulDiv(score, basis.Denominator)
	}
	winner, err := values.Equal(score, basis.Top)
	if err != nil {
		return nil, err
	}
	if !winner {
		return pool.Sub(pool)
	}
	return pool.MulDiv(score, basis.Denominator)
}

func prepareWeighted(
	scheme values.Scheme,
	scores []values.Value,
	weigh func(values.Value) (values.Value, error),
) (Basis, error) {
	basis := Basis{Denominator: scheme.Zero(), Top: scheme.Zero(), LastEligible: -1}
	for index, score := range scores {
		weight, err := weigh(score)
		if err != nil {
			return Basis{}, err
		}
		total, err := basis.Denominator.Add(weight)
		if err != nil {
			return Basis{}, err
		}
		basis.Denominator = total
		if !weight.IsZero() {
			basis.LastEligible = index
		}
		cmp, err := score.Compare(basis.Top)
		if err != nil {
			return Basis{}, err
		}
		if cmp > 0 {
			basis.Top = score
		}
	}
	return basis, nil
}

func square(score values.Value) (values.Value, error) {
	return score.Mul(score)
}
