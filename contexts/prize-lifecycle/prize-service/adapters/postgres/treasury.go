package postgresadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "prizeforge/contexts/prize-lifecycle/prize-service/application"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/entities"
	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/values"
	"prizeforge/contexts/prize-lifecycle/prize-service/ports"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Treasury records value movements as ledger rows. Inside Repository.Mutate
// it writes through the open transaction, so a rolled-back call leaves no row.
type Treasury struct {
	db     *gorm.DB
	codec  codec
	logger *slog.Logger
}

func NewTreasury(db *gorm.DB, scheme values.Scheme, logger *slog.Logger) *Treasury {
	if scheme == nil {
		scheme = values.PlainScheme{}
	}
	return &Treasury{
		db:     db,
		codec:  codec{scheme: scheme},
		logger: application.ResolveLogger(logger),
	}
}

func (t *Treasury) Credit(ctx context.Context, prizeID string, from string, amount values.Value) error {
	return t.record(ctx, prizeID, "credit", from, amount)
}

func (t *Treasury) Transfer(ctx context.Context, prizeID string, to string, amount values.Value) error {
	return t.record(ctx, prizeID, "transfer", to, amount)
}

func (t *Treasury) Refund(ctx context.Context, prizeID string, to string, amount values.Value) error {
	return t.record(ctx, prizeID, "refund", to, amount)
}

func (t *Treasury) record(ctx context.Context, prizeID string, kind string, account string, amount values.Value) error {
	prizeID = strings.TrimSpace(prizeID)
	account = entities.NormalizeAddress(account)
	if prizeID == "" || account == "" || amount == nil {
		return domainerrors.New(domainerrors.ErrInvalidInput, "prize_id", prizeID, "account", account)
	}
	encoded, err := t.codec.encode(amount)
	if err != nil {
		return err
	}
	entryID, err := uuid.NewV7()
	if err != nil {
		return err
	}
	row := treasuryEntryModel{
		EntryID:   entryID.String(),
		PrizeID:   prizeID,
		Kind:      kind,
		Account:   account,
		Amount:    encoded,
		CreatedAt: time.Now().UTC(),
	}
	if err := dbFrom(ctx, t.db).Create(&row).Error; err != nil {
		application.LogEvent(ctx, t.logger, slog.LevelError, "prize treasury entry failed",
			"prize_treasury_entry_failed", "adapter",
			"prize_id", prizeID,
			"kind", kind,
			"error", err.Error(),
		)
		return err
	}
	return nil
}

var _ ports.Treasury = (*Treasury)(nil)
