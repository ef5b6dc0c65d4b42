package postgresadapter

import (
	"encoding/json"
	"sort"

	"prizeforge/contexts/prize-lifecycle/prize-service/domain/entities"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/strategy"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/values"

	"gorm.io/datatypes"
)

// codec converts between entities and rows. Values are stored in the textual
// form of their scheme.
type codec struct {
	scheme values.Scheme
}

func (c codec) prizeRow(prize entities.Prize) (prizeModel, error) {
	names, err := json.Marshal(nonNilStrings(prize.CriteriaNames))
	if err != nil {
		return prizeModel{}, err
	}
	weights, err := json.Marshal(append([]uint64{}, prize.CriteriaWeights...))
	if err != nil {
		return prizeModel{}, err
	}
	evaluators, err := json.Marshal(nonNilStrings(prize.EvaluatorList()))
	if err != nil {
		return prizeModel{}, err
	}
	basis := basisDocument{LastEligible: prize.Basis.LastEligible}
	if basis.Denominator, err = c.encode(prize.Basis.Denominator); err != nil {
		return prizeModel{}, err
	}
	if basis.Top, err = c.encode(prize.Basis.Top); err != nil {
		return prizeModel{}, err
	}
	basisJSON, err := json.Marshal(basis)
	if err != nil {
		return prizeModel{}, err
	}

	row := prizeModel{
		PrizeID:             prize.PrizeID,
		Organizer:           prize.Organizer,
		Name:                prize.Name,
		Description:         prize.Description,
		Funded:              prize.Funded,
		FundsWithdrawn:      prize.FundsWithdrawn,
		CriteriaNames:       datatypes.JSON(names),
		CriteriaWeights:     datatypes.JSON(weights),
		StrategyID:          prize.StrategyID,
		Phase:               string(prize.Phase),
		Evaluators:          datatypes.JSON(evaluators),
		ScoreCount:          prize.ScoreCount,
		AggregationCursor:   prize.AggregationCursor,
		Basis:               datatypes.JSON(basisJSON),
		AllocationCursor:    prize.AllocationCursor,
		AllRewardsAllocated: prize.AllRewardsAllocated,
		Version:             prize.Version,
		CreatedAt:           prize.CreatedAt.UTC(),
		UpdatedAt:           prize.UpdatedAt.UTC(),
	}
	if row.PoolSize, err = c.encode(prize.PoolSize); err != nil {
		return prizeModel{}, err
	}
	if row.Pool, err = c.encode(prize.Pool); err != nil {
		return prizeModel{}, err
	}
	if row.Allocated, err = c.encode(prize.Allocated); err != nil {
		return prizeModel{}, err
	}
	return row, nil
}

func (c codec) contributionRow(prizeID string, item entities.Contribution) (contributionModel, error) {
	scores := make(map[string][]string, len(item.Scores))
	for evaluator, vector := range item.Scores {
		encoded := make([]string, 0, len(vector))
		for _, score := range vector {
			raw, err := c.encode(score)
			if err != nil {
				return contributionModel{}, err
			}
			encoded = append(encoded, raw)
		}
		scores[evaluator] = encoded
	}
	scoresJSON, err := json.Marshal(scores)
	if err != nil {
		return contributionModel{}, err
	}
	row := contributionModel{
		PrizeID:     prizeID,
		Contestant:  item.Contestant,
		Idx:         item.Index,
		Description: item.Description,
		Scores:      datatypes.JSON(scoresJSON),
		Aggregated:  item.Aggregated,
		Claimed:     item.Claimed,
		SubmittedAt: item.SubmittedAt.UTC(),
		ClaimedAt:   item.ClaimedAt,
	}
	if row.AggregateScore, err = c.encodeOptional(item.AggregateScore); err != nil {
		return contributionModel{}, err
	}
	if row.Reward, err = c.encodeOptional(item.Reward); err != nil {
		return contributionModel{}, err
	}
	return row, nil
}

func (c codec) prize(row prizeModel, contributions []contributionModel) (entities.Prize, error) {
	prize := entities.Prize{
		PrizeID:             row.PrizeID,
		Organizer:           row.Organizer,
		Name:                row.Name,
		Description:         row.Description,
		Funded:              row.Funded,
		FundsWithdrawn:      row.FundsWithdrawn,
		StrategyID:          row.StrategyID,
		Phase:               entities.Phase(row.Phase),
		Evaluators:          make(map[string]struct{}),
		Contributions:       make(map[string]*entities.Contribution, len(contributions)),
		ScoreCount:          row.ScoreCount,
		AggregationCursor:   row.AggregationCursor,
		AllocationCursor:    row.AllocationCursor,
		AllRewardsAllocated: row.AllRewardsAllocated,
		Version:             row.Version,
		CreatedAt:           row.CreatedAt.UTC(),
		UpdatedAt:           row.UpdatedAt.UTC(),
	}
	var err error
	if err = unmarshalJSON(row.CriteriaNames, &prize.CriteriaNames); err != nil {
		return entities.Prize{}, err
	}
	if err = unmarshalJSON(row.CriteriaWeights, &prize.CriteriaWeights); err != nil {
		return entities.Prize{}, err
	}
	var evaluators []string
	if err = unmarshalJSON(row.Evaluators, &evaluators); err != nil {
		return entities.Prize{}, err
	}
	for _, evaluator := range evaluators {
		prize.Evaluators[evaluator] = struct{}{}
	}
	basis := basisDocument{LastEligible: -1}
	if err = unmarshalJSON(row.Basis, &basis); err != nil {
		return entities.Prize{}, err
	}
	prize.Basis = strategy.Basis{LastEligible: basis.LastEligible}
	if prize.Basis.Denominator, err = c.scheme.Decode(basis.Denominator); err != nil {
		return entities.Prize{}, err
	}
	if prize.Basis.Top, err = c.scheme.Decode(basis.Top); err != nil {
		return entities.Prize{}, err
	}
	if prize.PoolSize, err = c.scheme.Decode(row.PoolSize); err != nil {
		return entities.Prize{}, err
	}
	if prize.Pool, err = c.scheme.Decode(row.Pool); err != nil {
		return entities.Prize{}, err
	}
	if prize.Allocated, err = c.scheme.Decode(row.Allocated); err != nil {
		return entities.Prize{}, err
	}

	sort.Slice(contributions, func(i, j int) bool {
		return contributions[i].Idx < contributions[j].Idx
	})
	prize.Contestants = make([]string, 0, len(contributions))
	for _, item := range contributions {
		contribution, err := c.contribution(item)
		if err != nil {
			return entities.Prize{}, err
		}
		prize.Contributions[contribution.Contestant] = &contribution
		prize.Contestants = append(prize.Contestants, contribution.Contestant)
	}
	return prize, nil
}

func (c codec) contribution(row contributionModel) (entities.Contribution, error) {
	var encoded map[string][]string
	if err := unmarshalJSON(row.Scores, &encoded); err != nil {
		return entities.Contribution{}, err
	}
	scores := make(map[string][]values.Value, len(encoded))
	for evaluator, vector := range encoded {
		decoded := make([]values.Value, 0, len(vector))
		for _, raw := range vector {
			score, err := c.scheme.Decode(raw)
			if err != nil {
				return entities.Contribution{}, err
			}
			decoded = append(decoded, score)
		}
		scores[evaluator] = decoded
	}
	item := entities.Contribution{
		Contestant:  row.Contestant,
		Index:       row.Idx,
		Description: row.Description,
		Scores:      scores,
		Aggregated:  row.Aggregated,
		Claimed:     row.Claimed,
		SubmittedAt: row.SubmittedAt.UTC(),
		ClaimedAt:   normalizeOptionalTime(row.ClaimedAt),
	}
	var err error
	if item.AggregateScore, err = c.decodeOptional(row.AggregateScore); err != nil {
		return entities.Contribution{}, err
	}
	if item.Reward, err = c.decodeOptional(row.Reward); err != nil {
		return entities.Contribution{}, err
	}
	return item, nil
}

func (c codec) encode(value values.Value) (string, error) {
	if value == nil {
		return c.scheme.Encode(c.scheme.Zero())
	}
	return c.scheme.Encode(value)
}

func (c codec) encodeOptional(value values.Value) (*string, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := c.scheme.Encode(value)
	if err != nil {
		return nil, err
	}
	return &raw, nil
}

func (c codec) decodeOptional(raw *string) (values.Value, error) {
	if raw == nil {
		return nil, nil
	}
	return c.scheme.Decode(*raw)
}

func unmarshalJSON(raw datatypes.JSON, target any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, target)
}

func nonNilStrings(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
