package postgresadapter

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"prizeforge/contexts/prize-lifecycle/prize-service/domain/entities"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/strategy"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/values"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"
)

func samplePrize() entities.Prize {
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	claimed := created.Add(48 * time.Hour)
	return entities.Prize{
		PrizeID:         "prize-1",
		Organizer:       "0xorg",
		Name:            "Best Paper",
		PoolSize:        values.Plain(1_000_000),
		Pool:            values.Plain(496_895),
		Funded:          true,
		CriteriaNames:   []string{"quality", "clarity"},
		CriteriaWeights: []uint64{2, 1},
		StrategyID:      "linear@1",
		Phase:           entities.PhaseClaiming,
		Evaluators:      map[string]struct{}{"0xe2": {}, "0xe1": {}},
		Contestants:     []string{"0xb", "0xa"},
		Contributions: map[string]*entities.Contribution{
			"0xb": {
				Contestant:     "0xb",
				Index:          0,
				Scores:         map[string][]values.Value{"0xe1": {values.Plain(4), values.Plain(1)}},
				AggregateScore: values.Plain(9),
				Aggregated:     true,
				Reward:         values.Plain(503_105),
				Claimed:        true,
				SubmittedAt:    created,
				ClaimedAt:      &claimed,
			},
			"0xa": {
				Contestant:  "0xa",
				Index:       1,
				Scores:      map[string][]values.Value{},
				SubmittedAt: created,
			},
		},
		ScoreCount:          1,
		AggregationCursor:   2,
		Basis:               strategy.Basis{Denominator: values.Plain(16_100), LastEligible: 1},
		AllocationCursor:    2,
		Allocated:           values.Plain(1_000_000),
		AllRewardsAllocated: true,
		Version:             7,
		CreatedAt:           created,
		UpdatedAt:           claimed,
	}
}

func TestCodecRoundTripsPrize(t *testing.T) {
	c := codec{scheme: values.PlainScheme{}}
	prize := samplePrize()

	row, err := c.prizeRow(prize)
	if err != nil {
		t.Fatalf("prize row: %v", err)
	}
	contributions := make([]contributionModel, 0, len(prize.Contestants))
	for _, contestant := range []string{"0xa", "0xb"} {
		item, err := c.contributionRow(prize.PrizeID, *prize.Contributions[contestant])
		if err != nil {
			t.Fatalf("contribution row: %v", err)
		}
		contributions = append(contributions, item)
	}

	got, err := c.prize(row, contributions)
	if err != nil {
		t.Fatalf("decode prize: %v", err)
	}
	if diff := cmp.Diff(prize.Contestants, got.Contestants); diff != "" {
		t.Fatalf("contestant order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"0xe1", "0xe2"}, got.EvaluatorList()); diff != "" {
		t.Fatalf("evaluators mismatch (-want +got):\n%s", diff)
	}
	if got.Basis.LastEligible != 1 || got.Basis.Denominator != values.Plain(16_100) || !got.Basis.Top.IsZero() {
		t.Fatalf("basis mismatch: %+v", got.Basis)
	}
	if got.Pool != values.Plain(496_895) || got.Phase != entities.PhaseClaiming || got.Version != 7 {
		t.Fatalf("prize fields mismatch: %+v", got)
	}

	winner := got.Contributions["0xb"]
	if winner.Reward != values.Plain(503_105) || !winner.Claimed || !winner.ClaimedAt.Equal(*prize.Contributions["0xb"].ClaimedAt) {
		t.Fatalf("winner mismatch: %+v", winner)
	}
	if diff := cmp.Diff([]values.Value{values.Plain(4), values.Plain(1)}, winner.Scores["0xe1"]); diff != "" {
		t.Fatalf("scores mismatch (-want +got):\n%s", diff)
	}
	if other := got.Contributions["0xa"]; other.Reward != nil || other.AggregateScore != nil || other.ClaimedAt != nil {
		t.Fatalf("unset optional values should stay nil: %+v", other)
	}
}

func TestFingerprintChangesWithContribution(t *testing.T) {
	r := &Repository{codec: codec{scheme: values.PlainScheme{}}}
	item := *samplePrize().Contributions["0xa"]

	before, err := r.fingerprint("prize-1", item)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	same, _ := r.fingerprint("prize-1", item.Clone())
	if !bytes.Equal(before, same) {
		t.Fatalf("identical contributions should share a fingerprint")
	}
	item.Scores["0xe1"] = []values.Value{values.Plain(1), values.Plain(1)}
	after, _ := r.fingerprint("prize-1", item)
	if bytes.Equal(before, after) {
		t.Fatalf("changed scores should change the fingerprint")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})) {
		t.Fatalf("expected wrapped 23505 to be a unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("foreign key violation is not a unique violation")
	}
}
