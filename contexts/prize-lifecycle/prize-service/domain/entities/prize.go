package entities

import (
	"sort"
	"strings"
	"time"

	"prizeforge/contexts/prize-lifecycle/prize-service/domain/strategy"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/values"
)

// Prize is the single shared record every facet reads and writes.
type Prize struct {
	PrizeID         string
	Organizer       string
	Name            string
	Description     string
	PoolSize        values.Value
	Pool            values.Value
	Funded          bool
	FundsWithdrawn  bool
	CriteriaNames   []string
	CriteriaWeights []uint64
	StrategyID      string
	Phase           Phase
	Evaluators      map[string]struct{}

	// Contestants keeps registration order; Contributions is keyed by contestant.
	Contestants   []string
	Contributions map[string]*Contribution

	// ScoreCount counts (contestant, current evaluator) pairs with a score.
	ScoreCount        int
	AggregationCursor int

	Basis               strategy.Basis
	AllocationCursor    int
	Allocated           values.Value
	AllRewardsAllocated bool

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Contribution struct {
	Contestant     string
	Index          int
	Description    string
	Scores         map[string][]values.Value
	AggregateScore values.Value
	Aggregated     bool
	Reward         values.Value
	Claimed        bool
	SubmittedAt    time.Time
	ClaimedAt      *time.Time
}

func (p Prize) IsOrganizer(address string) bool {
	normalized := NormalizeAddress(address)
	return normalized != "" && normalized == p.Organizer
}

func (p Prize) IsEvaluator(address string) bool {
	_, ok := p.Evaluators[NormalizeAddress(address)]
	return ok
}

// EvaluatorList returns the evaluator set in a stable order.
func (p Prize) EvaluatorList() []string {
	items := make([]string, 0, len(p.Evaluators))
	for address := range p.Evaluators {
		items = append(items, address)
	}
	sort.Strings(items)
	return items
}

func (p Prize) Contribution(contestant string) (*Contribution, bool) {
	item, ok := p.Contributions[NormalizeAddress(contestant)]
	return item, ok
}

func (p Prize) ContributionAt(index int) (*Contribution, bool) {
	if index < 0 || index >= len(p.Contestants) {
		return nil, false
	}
	return p.Contribution(p.Contestants[index])
}

// EvaluationComplete reports whether every contribution carries a score from
// every current evaluator. It is O(1) thanks to ScoreCount.
func (p Prize) EvaluationComplete() bool {
	if len(p.Contestants) == 0 {
		return true
	}
	if len(p.Evaluators) == 0 {
		return false
	}
	return p.ScoreCount == len(p.Evaluators)*len(p.Contestants)
}

// PendingEvaluations is the number of missing (contestant, evaluator) scores.
func (p Prize) PendingEvaluations() int {
	return len(p.Evaluators)*len(p.Contestants) - p.ScoreCount
}

// Clone deep-copies everything a facet may mutate. Values are immutable and
// shared.
func (p Prize) Clone() Prize {
	out := p
	out.CriteriaNames = append([]string(nil), p.CriteriaNames...)
	out.CriteriaWeights = append([]uint64(nil), p.CriteriaWeights...)
	out.Evaluators = make(map[string]struct{}, len(p.Evaluators))
	for address := range p.Evaluators {
		out.Evaluators[address] = struct{}{}
	}
	out.Contestants = append([]string(nil), p.Contestants...)
	out.Contributions = make(map[string]*Contribution, len(p.Contributions))
	for key, item := range p.Contributions {
		copied := item.Clone()
		out.Contributions[key] = &copied
	}
	return out
}

func (c Contribution) Clone() Contribution {
	out := c
	out.Scores = make(map[string][]values.Value, len(c.Scores))
	for evaluator, vector := range c.Scores {
		out.Scores[evaluator] = append([]values.Value(nil), vector...)
	}
	if c.ClaimedAt != nil {
		claimedAt := *c.ClaimedAt
		out.ClaimedAt = &claimedAt
	}
	return out
}

// NormalizeAddress is the canonical form for caller identities.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
