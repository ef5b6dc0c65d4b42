package queries

import (
	"context"
	"log/slog"
	"strings"

	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"
	"prizeforge/contexts/prize-lifecycle/prize-service/ports"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

type ListActivityUseCase struct {
	Prizes   ports.PrizeStore
	Activity ports.ActivityRepository
	Logger   *slog.Logger
}

// Execute returns the newest activity first. Unknown prizes fail with
// ErrPrizeNotFound rather than an empty feed.
func (uc ListActivityUseCase) Execute(ctx context.Context, prizeID string, limit int) ([]ports.ActivityEntry, error) {
	prizeID = strings.TrimSpace(prizeID)
	if prizeID == "" {
		return nil, domainerrors.New(domainerrors.ErrInvalidInput, "prize_id", "")
	}
	if _, err := uc.Prizes.GetPrize(ctx, prizeID); err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = defaultActivityLimit
	case limit > maxActivityLimit:
		limit = maxActivityLimit
	}
	return uc.Activity.ListActivity(ctx, prizeID, limit)
}
