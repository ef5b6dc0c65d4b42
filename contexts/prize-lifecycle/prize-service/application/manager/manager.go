// Package manager creates prizes and binds each one to an allocation
// strategy for its whole life.
package manager

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "prizeforge/contexts/prize-lifecycle/prize-service/application"
	"prizeforge/contexts/prize-lifecycle/prize-service/application/router"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/entities"
	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/strategy"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/values"
	"prizeforge/contexts/prize-lifecycle/prize-service/ports"
)

type CreatePrizeCommand struct {
	Organizer       string
	IdempotencyKey  string
	Name            string
	Description     string
	PoolSize        string
	CriteriaNames   []string
	CriteriaWeights []uint64
	Strategy        string
}

type CreatePrizeResult struct {
	Prize    entities.Prize
	Replayed bool
}

type PrizeManager struct {
	Store           ports.PrizeStore
	Idempotency     ports.IdempotencyStore
	Strategies      *strategy.Registry
	Scheme          values.Scheme
	Clock           ports.Clock
	IDGenerator     ports.IDGenerator
	IdempotencyTTL  time.Duration
	DefaultStrategy string
	Logger          *slog.Logger
}

// CreatePrize validates the command, resolves the strategy alias to a
// versioned id and stores the prize in Setup. The idempotency key is reserved
// before the prize is written, so concurrent creates with one key yield one
// prize; a replayed key returns the prize it created the first time.
func (m PrizeManager) CreatePrize(ctx context.Context, cmd CreatePrizeCommand) (CreatePrizeResult, error) {
	logger := application.ResolveLogger(m.Logger)
	key := strings.TrimSpace(cmd.IdempotencyKey)
	if key == "" {
		return CreatePrizeResult{}, domainerrors.ErrIdempotencyKeyRequired
	}

	now := m.Clock.Now().UTC()
	requestHash, err := hashCreatePrizeCommand(cmd)
	if err != nil {
		return CreatePrizeResult{}, err
	}
	prize, err := m.buildPrize(cmd, now)
	if err != nil {
		return CreatePrizeResult{}, err
	}
	prizeID, err := m.IDGenerator.NewID(ctx)
	if err != nil {
		return CreatePrizeResult{}, err
	}
	prize.PrizeID = prizeID

	record, reserved, err := m.Idempotency.ReserveRecord(ctx, ports.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		PrizeID:     prize.PrizeID,
		ExpiresAt:   now.Add(m.IdempotencyTTL),
	}, now)
	if err != nil {
		return CreatePrizeResult{}, err
	}
	if !reserved {
		return m.replay(ctx, key, requestHash, record)
	}

	eventID, err := m.IDGenerator.NewID(ctx)
	if err == nil {
		err = m.store(ctx, prize, eventID, now)
	}
	if err != nil {
		if releaseErr := m.Idempotency.ReleaseRecord(ctx, key, requestHash); releaseErr != nil {
			logger.Error("idempotency release failed",
				"event", "prize_idempotency_release_failed",
				"module", application.ModuleName,
				"layer", "application",
				"idempotency_key", key,
				"error", releaseErr.Error(),
			)
		}
		return CreatePrizeResult{}, err
	}

	logger.Info("prize created",
		"event", "prize_created",
		"module", application.ModuleName,
		"layer", "application",
		"prize_id", prize.PrizeID,
		"organizer", prize.Organizer,
		"strategy_id", prize.StrategyID,
	)
	return CreatePrizeResult{Prize: prize}, nil
}

// replay answers a request whose key is already held. A live record whose
// prize is not stored yet belongs to a create still in flight.
func (m PrizeManager) replay(ctx context.Context, key string, requestHash string, record ports.IdempotencyRecord) (CreatePrizeResult, error) {
	if record.RequestHash != requestHash {
		return CreatePrizeResult{}, domainerrors.New(domainerrors.ErrIdempotencyConflict, "idempotency_key", key)
	}
	prize, err := m.Store.GetPrize(ctx, record.PrizeID)
	if errors.Is(err, domainerrors.ErrPrizeNotFound) {
		return CreatePrizeResult{}, domainerrors.New(domainerrors.ErrConcurrentModification,
			"idempotency_key", key,
			"reason", "create in progress",
		)
	}
	if err != nil {
		return CreatePrizeResult{}, err
	}
	return CreatePrizeResult{Prize: prize, Replayed: true}, nil
}

func (m PrizeManager) store(ctx context.Context, prize entities.Prize, eventID string, now time.Time) error {
	envelope, err := router.NewEnvelope(eventID, entities.EventPrizeCreated, prize.PrizeID, prize.Organizer, now, map[string]any{
		"organizer":   prize.Organizer,
		"name":        prize.Name,
		"pool_size":   prize.PoolSize.String(),
		"strategy_id": prize.StrategyID,
	})
	if err != nil {
		return err
	}
	return m.Store.CreatePrize(ctx, prize, []ports.EventEnvelope{envelope})
}

func (m PrizeManager) buildPrize(cmd CreatePrizeCommand, now time.Time) (entities.Prize, error) {
	organizer := entities.NormalizeAddress(cmd.Organizer)
	if organizer == "" {
		return entities.Prize{}, domainerrors.New(domainerrors.ErrUnauthorized, "caller", "")
	}
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return entities.Prize{}, domainerrors.New(domainerrors.ErrInvalidInput, "name", "")
	}
	if len(cmd.CriteriaNames) == 0 || len(cmd.CriteriaNames) != len(cmd.CriteriaWeights) {
		return entities.Prize{}, domainerrors.New(domainerrors.ErrInvalidInput,
			"criteria", len(cmd.CriteriaNames),
			"weights", len(cmd.CriteriaWeights),
		)
	}
	criteria := make([]string, 0, len(cmd.CriteriaNames))
	seen := make(map[string]struct{}, len(cmd.CriteriaNames))
	for i, raw := range cmd.CriteriaNames {
		criterion := strings.TrimSpace(raw)
		if criterion == "" {
			return entities.Prize{}, domainerrors.New(domainerrors.ErrInvalidInput, "criterion_index", i)
		}
		if _, dup := seen[criterion]; dup {
			return entities.Prize{}, domainerrors.New(domainerrors.ErrInvalidInput, "criterion", criterion, "reason", "duplicate")
		}
		seen[criterion] = struct{}{}
		criteria = append(criteria, criterion)
	}
	poolSize, err := m.Scheme.Decode(strings.TrimSpace(cmd.PoolSize))
	if err != nil {
		return entities.Prize{}, domainerrors.New(domainerrors.ErrInvalidInput, "pool_size", cmd.PoolSize)
	}
	if poolSize.IsZero() {
		return entities.Prize{}, domainerrors.New(domainerrors.ErrInvalidInput, "pool_size", cmd.PoolSize)
	}

	strategyName := strings.TrimSpace(cmd.Strategy)
	if strategyName == "" {
		strategyName = m.DefaultStrategy
	}
	if strategyName == "" {
		strategyName = strategy.NameLinear
	}
	selected, err := m.Strategies.Resolve(strategyName)
	if err != nil {
		return entities.Prize{}, err
	}

	return entities.Prize{
		Organizer:       organizer,
		Name:            name,
		Description:     strings.TrimSpace(cmd.Description),
		PoolSize:        poolSize,
		Pool:            m.Scheme.Zero(),
		CriteriaNames:   criteria,
		CriteriaWeights: append([]uint64(nil), cmd.CriteriaWeights...),
		StrategyID:      selected.ID(),
		Phase:           entities.PhaseSetup,
		Evaluators:      make(map[string]struct{}),
		Contributions:   make(map[string]*entities.Contribution),
		Allocated:       m.Scheme.Zero(),
		Basis:           strategy.Basis{LastEligible: -1},
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (m PrizeManager) GetPrize(ctx context.Context, prizeID string) (entities.Prize, error) {
	return m.Store.GetPrize(ctx, strings.TrimSpace(prizeID))
}

func (m PrizeManager) ListPrizes(ctx context.Context, filter ports.PrizeFilter) ([]entities.Prize, error) {
	filter.Organizer = entities.NormalizeAddress(filter.Organizer)
	if filter.Phase != "" && !filter.Phase.Valid() {
		return nil, domainerrors.New(domainerrors.ErrInvalidInput, "phase", string(filter.Phase))
	}
	return m.Store.ListPrizes(ctx, filter)
}

func hashCreatePrizeCommand(cmd CreatePrizeCommand) (string, error) {
	payload := map[string]any{
		"organizer":        entities.NormalizeAddress(cmd.Organizer),
		"name":             strings.TrimSpace(cmd.Name),
		"description":      strings.TrimSpace(cmd.Description),
		"pool_size":        strings.TrimSpace(cmd.PoolSize),
		"criteria_names":   append([]string(nil), cmd.CriteriaNames...),
		"criteria_weights": append([]uint64(nil), cmd.CriteriaWeights...),
		"strategy":         strings.ToLower(strings.TrimSpace(cmd.Strategy)),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
