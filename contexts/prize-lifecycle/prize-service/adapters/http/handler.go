package httpadapter

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"prizeforge/contexts/prize-lifecycle/prize-service/application/facets"
	"prizeforge/contexts/prize-lifecycle/prize-service/application/manager"
	"prizeforge/contexts/prize-lifecycle/prize-service/application/queries"
	"prizeforge/contexts/prize-lifecycle/prize-service/application/router"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/entities"
	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/values"
	"prizeforge/contexts/prize-lifecycle/prize-service/ports"
	httptransport "prizeforge/contexts/prize-lifecycle/prize-service/transport/http"
)

type Handler struct {
	Manager  manager.PrizeManager
	Router   *router.Router
	Activity queries.ListActivityUseCase
	Scheme   values.Scheme
	Logger   *slog.Logger
}

func (h Handler) CreatePrizeHandler(
	ctx context.Context,
	userID string,
	idempotencyKey string,
	req httptransport.CreatePrizeRequest,
) (httptransport.CreatePrizeResponse, error) {
	result, err := h.Manager.CreatePrize(ctx, manager.CreatePrizeCommand{
		Organizer:       userID,
		IdempotencyKey:  idempotencyKey,
		Name:            req.Name,
		Description:     req.Description,
		PoolSize:        req.PoolSize,
		CriteriaNames:   append([]string(nil), req.CriteriaNames...),
		CriteriaWeights: append([]uint64(nil), req.CriteriaWeights...),
		Strategy:        req.Strategy,
	})
	if err != nil {
		return httptransport.CreatePrizeResponse{}, err
	}
	return httptransport.CreatePrizeResponse{
		Prize:    mapPrize(result.Prize),
		Replayed: result.Replayed,
	}, nil
}

func (h Handler) ListPrizesHandler(ctx context.Context, organizer string, phase string) (httptransport.ListPrizesResponse, error) {
	items, err := h.Manager.ListPrizes(ctx, ports.PrizeFilter{
		Organizer: organizer,
		Phase:     entities.Phase(strings.ToLower(strings.TrimSpace(phase))),
	})
	if err != nil {
		return httptransport.ListPrizesResponse{}, err
	}
	out := make([]httptransport.PrizeDTO, 0, len(items))
	for _, item := range items {
		out = append(out, mapPrize(item))
	}
	return httptransport.ListPrizesResponse{Items: out}, nil
}

func (h Handler) GetPrizeHandler(ctx context.Context, userID string, prizeID string) (httptransport.PrizeDTO, error) {
	result, err := h.call(ctx, userID, prizeID, facets.SigPrize, nil)
	if err != nil {
		return httptransport.PrizeDTO{}, err
	}
	return mapPrize(result.(entities.Prize)), nil
}

func (h Handler) GetContributionHandler(ctx context.Context, userID string, prizeID string, contestant string) (httptransport.ContributionDTO, error) {
	result, err := h.call(ctx, userID, prizeID, facets.SigContribution, facets.ContributionArgs{Contestant: contestant})
	if err != nil {
		return httptransport.ContributionDTO{}, err
	}
	return mapContribution(result.(entities.Contribution)), nil
}

func (h Handler) AddEvaluatorsHandler(ctx context.Context, userID string, prizeID string, req httptransport.EvaluatorsRequest) (httptransport.EvaluatorsResponse, error) {
	return h.evaluators(ctx, userID, prizeID, facets.SigAddEvaluators, req)
}

func (h Handler) RemoveEvaluatorsHandler(ctx context.Context, userID string, prizeID string, req httptransport.EvaluatorsRequest) (httptransport.EvaluatorsResponse, error) {
	return h.evaluators(ctx, userID, prizeID, facets.SigRemoveEvaluators, req)
}

func (h Handler) evaluators(ctx context.Context, userID string, prizeID string, signature string, req httptransport.EvaluatorsRequest) (httptransport.EvaluatorsResponse, error) {
	result, err := h.call(ctx, userID, prizeID, signature, facets.EvaluatorsArgs{
		Addresses: append([]string(nil), req.Addresses...),
	})
	if err != nil {
		return httptransport.EvaluatorsResponse{}, err
	}
	return httptransport.EvaluatorsResponse{Changed: result.([]string)}, nil
}

func (h Handler) FundHandler(ctx context.Context, userID string, prizeID string, req httptransport.FundRequest) (httptransport.AmountResponse, error) {
	amount, err := h.decode("amount", req.Amount)
	if err != nil {
		return httptransport.AmountResponse{}, err
	}
	result, err := h.call(ctx, userID, prizeID, facets.SigFund, facets.FundArgs{Amount: amount})
	if err != nil {
		return httptransport.AmountResponse{}, err
	}
	return httptransport.AmountResponse{Amount: result.(values.Value).String()}, nil
}

func (h Handler) WithdrawFundsHandler(ctx context.Context, userID string, prizeID string) (httptransport.AmountResponse, error) {
	result, err := h.call(ctx, userID, prizeID, facets.SigWithdrawFunds, nil)
	if err != nil {
		return httptransport.AmountResponse{}, err
	}
	return httptransport.AmountResponse{Amount: result.(values.Value).String()}, nil
}

func (h Handler) SubmitContributionHandler(
	ctx context.Context,
	userID string,
	prizeID string,
	req httptransport.SubmitContributionRequest,
) (httptransport.SubmitContributionResponse, error) {
	result, err := h.call(ctx, userID, prizeID, facets.SigSubmitContribution, facets.SubmitArgs{Description: req.Description})
	if err != nil {
		return httptransport.SubmitContributionResponse{}, err
	}
	return httptransport.SubmitContributionResponse{Index: result.(int)}, nil
}

func (h Handler) EvaluateHandler(ctx context.Context, userID string, prizeID string, req httptransport.EvaluateRequest) (httptransport.ScoresResponse, error) {
	scores, err := h.decodeVector(req.Scores)
	if err != nil {
		return httptransport.ScoresResponse{}, err
	}
	result, err := h.call(ctx, userID, prizeID, facets.SigEvaluate, facets.EvaluateArgs{
		ContestantIndex: req.ContestantIndex,
		Scores:          scores,
	})
	if err != nil {
		return httptransport.ScoresResponse{}, err
	}
	return httptransport.ScoresResponse{Scored: result.(int)}, nil
}

func (h Handler) AssignScoresHandler(ctx context.Context, userID string, prizeID string, req httptransport.AssignScoresRequest) (httptransport.ScoresResponse, error) {
	matrix := make([][]values.Value, 0, len(req.Matrix))
	for _, row := range req.Matrix {
		scores, err := h.decodeVector(row)
		if err != nil {
			return httptransport.ScoresResponse{}, err
		}
		matrix = append(matrix, scores)
	}
	result, err := h.call(ctx, userID, prizeID, facets.SigAssignScores, facets.AssignArgs{
		Contestants: append([]string(nil), req.Contestants...),
		Matrix:      matrix,
	})
	if err != nil {
		return httptransport.ScoresResponse{}, err
	}
	return httptransport.ScoresResponse{Scored: result.(int)}, nil
}

func (h Handler) VerifyEvaluationsHandler(ctx context.Context, userID string, prizeID string, req httptransport.BatchRequest) (httptransport.BatchResponse, error) {
	return h.batch(ctx, userID, prizeID, facets.SigVerifyEvaluations, req)
}

func (h Handler) AllocateRewardsHandler(ctx context.Context, userID string, prizeID string, req httptransport.BatchRequest) (httptransport.BatchResponse, error) {
	return h.batch(ctx, userID, prizeID, facets.SigAllocateRewards, req)
}

func (h Handler) batch(ctx context.Context, userID string, prizeID string, signature string, req httptransport.BatchRequest) (httptransport.BatchResponse, error) {
	result, err := h.call(ctx, userID, prizeID, signature, facets.RangeArgs{Start: req.Start, Count: req.Count})
	if err != nil {
		return httptransport.BatchResponse{}, err
	}
	progress := result.(facets.BatchResult)
	return httptransport.BatchResponse{
		Cursor: progress.Cursor,
		Total:  progress.Total,
		Done:   progress.Done,
	}, nil
}

func (h Handler) AdvanceHandler(ctx context.Context, userID string, prizeID string) (httptransport.PhaseResponse, error) {
	return h.phase(ctx, userID, prizeID, facets.SigAdvance)
}

func (h Handler) CancelHandler(ctx context.Context, userID string, prizeID string) (httptransport.PhaseResponse, error) {
	return h.phase(ctx, userID, prizeID, facets.SigCancel)
}

func (h Handler) phase(ctx context.Context, userID string, prizeID string, signature string) (httptransport.PhaseResponse, error) {
	result, err := h.call(ctx, userID, prizeID, signature, nil)
	if err != nil {
		return httptransport.PhaseResponse{}, err
	}
	return httptransport.PhaseResponse{Phase: string(result.(entities.Phase))}, nil
}

func (h Handler) ClaimRewardHandler(ctx context.Context, userID string, prizeID string) (httptransport.AmountResponse, error) {
	result, err := h.call(ctx, userID, prizeID, facets.SigClaimReward, nil)
	if err != nil {
		return httptransport.AmountResponse{}, err
	}
	return httptransport.AmountResponse{Amount: result.(values.Value).String()}, nil
}

func (h Handler) StrategyHandler(ctx context.Context, userID string, prizeID string) (httptransport.StrategyResponse, error) {
	result, err := h.call(ctx, userID, prizeID, facets.SigStrategyOf, nil)
	if err != nil {
		return httptransport.StrategyResponse{}, err
	}
	info := result.(facets.StrategyInfo)
	return httptransport.StrategyResponse{StrategyID: info.ID, Name: info.Name}, nil
}

func (h Handler) PreviewAllocationHandler(ctx context.Context, userID string, prizeID string) (httptransport.AllocationPreviewResponse, error) {
	result, err := h.call(ctx, userID, prizeID, facets.SigPreviewAllocation, nil)
	if err != nil {
		return httptransport.AllocationPreviewResponse{}, err
	}
	rows := result.([]facets.Allocation)
	items := make([]httptransport.AllocationPreviewItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, httptransport.AllocationPreviewItem{
			Contestant:     row.Contestant,
			Index:          row.Index,
			AggregateScore: row.AggregateScore,
			Reward:         row.Reward,
		})
	}
	return httptransport.AllocationPreviewResponse{Items: items}, nil
}

func (h Handler) SealedScoreHandler(ctx context.Context, userID string, prizeID string, contestant string, req httptransport.SealRequest) (httptransport.SealedValueResponse, error) {
	return h.sealed(ctx, userID, prizeID, facets.SigSealedScore, contestant, req)
}

func (h Handler) SealedRewardHandler(ctx context.Context, userID string, prizeID string, contestant string, req httptransport.SealRequest) (httptransport.SealedValueResponse, error) {
	return h.sealed(ctx, userID, prizeID, facets.SigSealedReward, contestant, req)
}

func (h Handler) sealed(
	ctx context.Context,
	userID string,
	prizeID string,
	signature string,
	contestant string,
	req httptransport.SealRequest,
) (httptransport.SealedValueResponse, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(req.PublicKey))
	if err != nil || len(key) != 32 {
		return httptransport.SealedValueResponse{}, domainerrors.New(domainerrors.ErrInvalidPermit, "public_key", "must be 32 bytes base64")
	}
	args := facets.SealArgs{Contestant: contestant, Recipient: req.Recipient}
	copy(args.PublicKey[:], key)
	result, err := h.call(ctx, userID, prizeID, signature, args)
	if err != nil {
		return httptransport.SealedValueResponse{}, err
	}
	sealed := result.(values.Sealed)
	return httptransport.SealedValueResponse{
		Recipient:  sealed.Recipient,
		Scheme:     sealed.Scheme,
		Ciphertext: base64.StdEncoding.EncodeToString(sealed.Ciphertext),
	}, nil
}

func (h Handler) ActivityHandler(ctx context.Context, prizeID string, limit int) (httptransport.ActivityResponse, error) {
	rows, err := h.Activity.Execute(ctx, prizeID, limit)
	if err != nil {
		return httptransport.ActivityResponse{}, err
	}
	items := make([]httptransport.ActivityItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, httptransport.ActivityItem{
			EventID:    row.EventID,
			EventType:  row.EventType,
			Actor:      row.Actor,
			Summary:    row.Summary,
			OccurredAt: row.OccurredAt.UTC().Format(time.RFC3339),
		})
	}
	return httptransport.ActivityResponse{Items: items}, nil
}

func (h Handler) RoutesHandler() httptransport.RoutesResponse {
	routes := h.Router.Routes()
	items := make([]httptransport.RouteItem, 0, len(routes))
	for _, route := range routes {
		items = append(items, httptransport.RouteItem{
			Selector:  route.Selector.String(),
			Signature: route.Signature,
			Facet:     route.Facet,
			Mutates:   route.Mutates,
		})
	}
	return httptransport.RoutesResponse{Items: items}
}

func (h Handler) call(ctx context.Context, userID string, prizeID string, signature string, args any) (any, error) {
	return h.Router.Dispatch(ctx, router.Call{
		PrizeID:  prizeID,
		Caller:   userID,
		Selector: router.SelectorOf(signature),
		Args:     args,
	})
}

func (h Handler) decode(field string, raw string) (values.Value, error) {
	value, err := h.Scheme.Decode(strings.TrimSpace(raw))
	if err != nil {
		return nil, domainerrors.New(domainerrors.ErrInvalidInput, field, raw)
	}
	return value, nil
}

func (h Handler) decodeVector(raw []string) ([]values.Value, error) {
	out := make([]values.Value, 0, len(raw))
	for i, item := range raw {
		value, err := h.decode(fmt.Sprintf("scores[%d]", i), item)
		if err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	return out, nil
}

func mapPrize(prize entities.Prize) httptransport.PrizeDTO {
	return httptransport.PrizeDTO{
		PrizeID:             prize.PrizeID,
		Organizer:           prize.Organizer,
		Name:                prize.Name,
		Description:         prize.Description,
		PoolSize:            valueString(prize.PoolSize),
		Pool:                valueString(prize.Pool),
		Funded:              prize.Funded,
		FundsWithdrawn:      prize.FundsWithdrawn,
		CriteriaNames:       append([]string(nil), prize.CriteriaNames...),
		CriteriaWeights:     append([]uint64(nil), prize.CriteriaWeights...),
		StrategyID:          prize.StrategyID,
		Phase:               string(prize.Phase),
		Evaluators:          prize.EvaluatorList(),
		Contestants:         append([]string(nil), prize.Contestants...),
		PendingEvaluations:  prize.PendingEvaluations(),
		AggregationCursor:   prize.AggregationCursor,
		AllocationCursor:    prize.AllocationCursor,
		AllRewardsAllocated: prize.AllRewardsAllocated,
		Version:             prize.Version,
		CreatedAt:           prize.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:           prize.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func mapContribution(item entities.Contribution) httptransport.ContributionDTO {
	scoredBy := make([]string, 0, len(item.Scores))
	scores := make(map[string][]string, len(item.Scores))
	for evaluator, vector := range item.Scores {
		scoredBy = append(scoredBy, evaluator)
		row := make([]string, 0, len(vector))
		for _, score := range vector {
			row = append(row, valueString(score))
		}
		scores[evaluator] = row
	}
	sort.Strings(scoredBy)
	out := httptransport.ContributionDTO{
		Contestant:  item.Contestant,
		Index:       item.Index,
		Description: item.Description,
		ScoredBy:    scoredBy,
		Scores:      scores,
		Claimed:     item.Claimed,
		SubmittedAt: item.SubmittedAt.UTC().Format(time.RFC3339),
	}
	if item.Aggregated {
		out.AggregateScore = valueString(item.AggregateScore)
	}
	if item.Reward != nil {
		out.Reward = item.Reward.String()
	}
	if item.ClaimedAt != nil {
		out.ClaimedAt = item.ClaimedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func valueString(value values.Value) string {
	if value == nil {
		return "0"
	}
	return value.String()
}
