package strategy

import (
	"errors"
	"testing"

	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/values"

	"github.com/google/go-cmp/cmp"
)

// allocate mirrors the reward pass: every contestant gets ComputeReward except
// the last eligible one, who takes the remainder.
func allocate(t *testing.T, s Strategy, pool uint64, scores ...uint64) []uint64 {
	t.Helper()
	scheme := values.PlainScheme{}
	items := make([]values.Value, 0, len(scores))
	for _, score := range scores {
		items = append(items, values.Plain(score))
	}
	basis, err := s.Prepare(scheme, items)
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}
	allocated := scheme.Zero()
	out := make([]uint64, 0, len(items))
	for index, score := range items {
		var reward values.Value
		if index == basis.LastEligible {
			reward, err = values.Plain(pool).Sub(allocated)
		} else {
			reward, err = s.ComputeReward(score, basis, values.Plain(pool))
		}
		if err != nil {
			t.Fatalf("reward %d failed: %v", index, err)
		}
		if allocated, err = allocated.Add(reward); err != nil {
			t.Fatalf("accumulate failed: %v", err)
		}
		out = append(out, uint64(reward.(values.Plain)))
	}
	return out
}

func TestLinearSplitsProportionallyWithRemainderOnLast(t *testing.T) {
	got := allocate(t, Linear{}, 1_000_000, 8100, 8000)
	if diff := cmp.Diff([]uint64{503105, 496895}, got); diff != "" {
		t.Fatalf("linear rewards mismatch (-want +got):\n%s", diff)
	}
}

func TestLinearRemainderGoesToLastNonZeroScore(t *testing.T) {
	got := allocate(t, Linear{}, 100, 1, 1, 1, 0)
	if diff := cmp.Diff([]uint64{33, 33, 34, 0}, got); diff != "" {
		t.Fatalf("linear rewards mismatch (-want +got):\n%s", diff)
	}
}

func TestQuadraticFavoursHigherScores(t *testing.T) {
	got := allocate(t, Quadratic{}, 1000, 3, 1)
	if diff := cmp.Diff([]uint64{900, 100}, got); diff != "" {
		t.Fatalf("quadratic rewards mismatch (-want +got):\n%s", diff)
	}
}

func TestWinnerTakesAllSplitsTies(t *testing.T) {
	got := allocate(t, WinnerTakesAll{}, 100, 5, 9, 9, 2)
	if diff := cmp.Diff([]uint64{0, 50, 50, 0}, got); diff != "" {
		t.Fatalf("winner takes all mismatch (-want +got):\n%s", diff)
	}
	odd := allocate(t, WinnerTakesAll{}, 100, 7, 7, 7)
	if diff := cmp.Diff([]uint64{33, 33, 34}, odd); diff != "" {
		t.Fatalf("three-way tie mismatch (-want +got):\n%s", diff)
	}
}

func TestAllZeroScoresAllocateNothing(t *testing.T) {
	for _, s := range []Strategy{Linear{}, Quadratic{}, WinnerTakesAll{}} {
		got := allocate(t, s, 1000, 0, 0, 0)
		if diff := cmp.Diff([]uint64{0, 0, 0}, got); diff != "" {
			t.Fatalf("%s zero scores mismatch (-want +got):\n%s", s.ID(), diff)
		}
	}
}

func TestRegistryResolvesAliasesAndVersionedIDs(t *testing.T) {
	registry := DefaultRegistry()

	byAlias, err := registry.Resolve(" Linear ")
	if err != nil {
		t.Fatalf("resolve alias failed: %v", err)
	}
	if byAlias.ID() != "linear@1" {
		t.Fatalf("expected linear@1, got %s", byAlias.ID())
	}
	byID, err := registry.Lookup("quadratic@1")
	if err != nil || byID.Name() != NameQuadratic {
		t.Fatalf("lookup failed: %v %v", byID, err)
	}
	if _, err := registry.Lookup("linear"); !errors.Is(err, domainerrors.ErrUnknownStrategy) {
		t.Fatalf("lookup by alias should fail, got %v", err)
	}
	if _, err := registry.Resolve("median"); !errors.Is(err, domainerrors.ErrUnknownStrategy) {
		t.Fatalf("expected unknown strategy, got %v", err)
	}
	if err := registry.Register(Linear{}); !errors.Is(err, domainerrors.ErrStrategyRegistered) {
		t.Fatalf("expected duplicate registration error, got %v", err)
	}

	want := []Entry{
		{Name: NameLinear, ID: "linear@1"},
		{Name: NameQuadratic, ID: "quadratic@1"},
		{Name: NameWinnerTakesAll, ID: "winner_takes_all@1"},
	}
	if diff := cmp.Diff(want, registry.Entries()); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
}

type linearV2 struct{ Linear }

func (linearV2) ID() string { return NameLinear + "@2" }

func TestRegistryNewVersionKeepsOldIDResolvable(t *testing.T) {
	registry := DefaultRegistry()
	if err := registry.Register(linearV2{}); err != nil {
		t.Fatalf("register v2 failed: %v", err)
	}
	latest, err := registry.Resolve(NameLinear)
	if err != nil || latest.ID() != "linear@2" {
		t.Fatalf("alias should point at v2, got %v %v", latest, err)
	}
	if _, err := registry.Lookup("linear@1"); err != nil {
		t.Fatalf("v1 should stay resolvable: %v", err)
	}
}
