package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "prizeforge/contexts/prize-lifecycle/prize-service/application"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/entities"
	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/values"
	"prizeforge/contexts/prize-lifecycle/prize-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	codec  codec
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, scheme values.Scheme, logger *slog.Logger) *Repository {
	if scheme == nil {
		scheme = values.PlainScheme{}
	}
	return &Repository{
		db:     db,
		codec:  codec{scheme: scheme},
		logger: application.ResolveLogger(logger),
	}
}

type txKey struct{}

// withTx exposes the open transaction to collaborators called inside Mutate.
func withTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func dbFrom(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return fallback.WithContext(ctx)
}

func (r *Repository) CreatePrize(ctx context.Context, prize entities.Prize, events []ports.EventEnvelope) error {
	row, err := r.codec.prizeRow(prize)
	if err != nil {
		return r.logError("prize_repo_create_encode_failed", err, "prize_id", prize.PrizeID)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.New(domainerrors.ErrInvalidInput, "prize_id", prize.PrizeID, "reason", "exists")
			}
			return r.logError("prize_repo_create_failed", err, "prize_id", prize.PrizeID)
		}
		return r.appendOutbox(tx, events)
	})
}

func (r *Repository) GetPrize(ctx context.Context, prizeID string) (entities.Prize, error) {
	return r.loadPrize(r.db.WithContext(ctx), strings.TrimSpace(prizeID), false)
}

func (r *Repository) ListPrizes(ctx context.Context, filter ports.PrizeFilter) ([]entities.Prize, error) {
	query := r.db.WithContext(ctx).Model(&prizeModel{})
	if organizer := entities.NormalizeAddress(filter.Organizer); organizer != "" {
		query = query.Where("organizer = ?", organizer)
	}
	if filter.Phase != "" {
		query = query.Where("phase = ?", string(filter.Phase))
	}
	var rows []prizeModel
	if err := query.Order("created_at DESC").Order("prize_id DESC").Find(&rows).Error; err != nil {
		return nil, r.logError("prize_repo_list_failed", err, "organizer", filter.Organizer)
	}
	if len(rows) == 0 {
		return []entities.Prize{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.PrizeID)
	}
	var contributionRows []contributionModel
	if err := r.db.WithContext(ctx).
		Where("prize_id IN ?", ids).
		Order("idx ASC").
		Find(&contributionRows).Error; err != nil {
		return nil, r.logError("prize_repo_list_contributions_failed", err)
	}
	byPrize := make(map[string][]contributionModel, len(rows))
	for _, item := range contributionRows {
		byPrize[item.PrizeID] = append(byPrize[item.PrizeID], item)
	}

	items := make([]entities.Prize, 0, len(rows))
	for _, row := range rows {
		prize, err := r.codec.prize(row, byPrize[row.PrizeID])
		if err != nil {
			return nil, r.logError("prize_repo_list_decode_failed", err, "prize_id", row.PrizeID)
		}
		items = append(items, prize)
	}
	return items, nil
}

// Mutate locks the prize row, runs fn on the loaded copy and writes back the
// prize, changed contributions and outbox rows in one transaction. The version
// predicate rejects a writer that raced past the row lock.
func (r *Repository) Mutate(ctx context.Context, prizeID string, fn ports.MutateFunc) error {
	prizeID = strings.TrimSpace(prizeID)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := r.loadPrize(tx, prizeID, true)
		if err != nil {
			return err
		}
		before := make(map[string][]byte, len(current.Contributions))
		for contestant, item := range current.Contributions {
			fingerprint, err := r.fingerprint(prizeID, *item)
			if err != nil {
				return err
			}
			before[contestant] = fingerprint
		}

		working := current.Clone()
		events, err := fn(withTx(ctx, tx), &working)
		if err != nil {
			return err
		}
		if working.PrizeID != current.PrizeID || working.Version != current.Version {
			return domainerrors.New(domainerrors.ErrConcurrentModification, "prize_id", prizeID)
		}
		working.Version = current.Version + 1

		row, err := r.codec.prizeRow(working)
		if err != nil {
			return err
		}
		update := tx.Model(&prizeModel{}).
			Where("prize_id = ? AND version = ?", prizeID, current.Version).
			Select("*").
			Updates(&row)
		if update.Error != nil {
			return r.logError("prize_repo_mutate_update_failed", update.Error, "prize_id", prizeID)
		}
		if update.RowsAffected == 0 {
			return domainerrors.New(domainerrors.ErrConcurrentModification, "prize_id", prizeID, "version", current.Version)
		}

		for contestant, item := range working.Contributions {
			fingerprint, err := r.fingerprint(prizeID, *item)
			if err != nil {
				return err
			}
			if previous, ok := before[contestant]; ok && bytes.Equal(previous, fingerprint) {
				continue
			}
			contribution, err := r.codec.contributionRow(prizeID, *item)
			if err != nil {
				return err
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "prize_id"}, {Name: "contestant"}},
				UpdateAll: true,
			}).Create(&contribution).Error; err != nil {
				return r.logError("prize_repo_mutate_contribution_failed", err,
					"prize_id", prizeID,
					"contestant", contestant,
				)
			}
		}
		return r.appendOutbox(tx, events)
	})
}

func (r *Repository) loadPrize(db *gorm.DB, prizeID string, forUpdate bool) (entities.Prize, error) {
	query := db
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row prizeModel
	if err := query.Where("prize_id = ?", prizeID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Prize{}, domainerrors.New(domainerrors.ErrPrizeNotFound, "prize_id", prizeID)
		}
		return entities.Prize{}, r.logError("prize_repo_get_failed", err, "prize_id", prizeID)
	}
	var contributions []contributionModel
	if err := db.Where("prize_id = ?", prizeID).Order("idx ASC").Find(&contributions).Error; err != nil {
		return entities.Prize{}, r.logError("prize_repo_get_contributions_failed", err, "prize_id", prizeID)
	}
	prize, err := r.codec.prize(row, contributions)
	if err != nil {
		return entities.Prize{}, r.logError("prize_repo_decode_failed", err, "prize_id", prizeID)
	}
	return prize, nil
}

func (r *Repository) fingerprint(prizeID string, item entities.Contribution) ([]byte, error) {
	row, err := r.codec.contributionRow(prizeID, item)
	if err != nil {
		return nil, err
	}
	return json.Marshal(row)
}

func (r *Repository) appendOutbox(tx *gorm.DB, events []ports.EventEnvelope) error {
	for _, envelope := range events {
		payload, err := json.Marshal(envelope)
		if err != nil {
			return r.logError("prize_repo_append_outbox_marshal_failed", err, "event_id", envelope.EventID)
		}
		row := outboxModel{
			OutboxID:     strings.TrimSpace(envelope.EventID),
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			Status:       outboxStatusPending,
			CreatedAt:    envelope.OccurredAt.UTC(),
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = time.Now().UTC()
		}
		create := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "outbox_id"}},
			DoNothing: true,
		}).Create(&row)
		if create.Error != nil {
			return r.logError("prize_repo_append_outbox_insert_failed", create.Error, "outbox_id", row.OutboxID)
		}
		if create.RowsAffected == 0 {
			return domainerrors.New(domainerrors.ErrIdempotencyConflict, "event_id", row.OutboxID)
		}
	}
	return nil
}

// ReserveRecord inserts the key first; a unique key turns concurrent creates
// into one winner and readers of its row. An expired row is swept and the
// insert retried once.
func (r *Repository) ReserveRecord(ctx context.Context, record ports.IdempotencyRecord, now time.Time) (ports.IdempotencyRecord, bool, error) {
	row := idempotencyModel{
		Key:         strings.TrimSpace(record.Key),
		RequestHash: strings.TrimSpace(record.RequestHash),
		PrizeID:     strings.TrimSpace(record.PrizeID),
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	for attempt := 0; attempt < 2; attempt++ {
		create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).Create(&row)
		if create.Error != nil {
			return ports.IdempotencyRecord{}, false, r.logError("prize_repo_idempotency_reserve_failed", create.Error,
				"idempotency_key", row.Key,
			)
		}
		if create.RowsAffected > 0 {
			return toIdempotencyRecord(row), true, nil
		}

		var existing idempotencyModel
		err := r.db.WithContext(ctx).
			Where("key = ?", row.Key).
			First(&existing).
			Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return ports.IdempotencyRecord{}, false, r.logError("prize_repo_idempotency_load_existing_failed", err,
				"idempotency_key", row.Key,
			)
		}
		if existing.ExpiresAt.UTC().After(now.UTC()) {
			return toIdempotencyRecord(existing), false, nil
		}
		if err := r.db.WithContext(ctx).
			Where("key = ? AND expires_at <= ?", row.Key, now.UTC()).
			Delete(&idempotencyModel{}).Error; err != nil {
			return ports.IdempotencyRecord{}, false, r.logError("prize_repo_idempotency_expire_delete_failed", err,
				"idempotency_key", row.Key,
			)
		}
	}
	return ports.IdempotencyRecord{}, false, domainerrors.New(domainerrors.ErrConcurrentModification,
		"idempotency_key", row.Key,
		"reason", "key contended",
	)
}

func (r *Repository) ReleaseRecord(ctx context.Context, key string, requestHash string) error {
	key = strings.TrimSpace(key)
	if err := r.db.WithContext(ctx).
		Where("key = ? AND request_hash = ?", key, strings.TrimSpace(requestHash)).
		Delete(&idempotencyModel{}).Error; err != nil {
		return r.logError("prize_repo_idempotency_release_failed", err, "idempotency_key", key)
	}
	return nil
}

func toIdempotencyRecord(row idempotencyModel) ports.IdempotencyRecord {
	return ports.IdempotencyRecord{
		Key:         row.Key,
		RequestHash: row.RequestHash,
		PrizeID:     row.PrizeID,
		ExpiresAt:   row.ExpiresAt.UTC(),
	}
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("seq ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("prize_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("prize_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return errors.New("outbox record not found")
	}
	return nil
}

func (r *Repository) ReserveEvent(
	ctx context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	row := eventDedupModel{
		EventID:     strings.TrimSpace(eventID),
		PayloadHash: strings.TrimSpace(payloadHash),
		ExpiresAt:   expiresAt.UTC(),
		ProcessedAt: time.Now().UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return false, r.logError("prize_repo_reserve_event_failed", create.Error,
			"event_id", strings.TrimSpace(eventID),
		)
	}
	if create.RowsAffected > 0 {
		return false, nil
	}

	var existing eventDedupModel
	if err := r.db.WithContext(ctx).
		Select("payload_hash").
		Where("event_id = ?", row.EventID).
		First(&existing).Error; err != nil {
		return false, r.logError("prize_repo_reserve_event_load_existing_failed", err,
			"event_id", strings.TrimSpace(eventID),
		)
	}
	if existing.PayloadHash != row.PayloadHash {
		return false, domainerrors.New(domainerrors.ErrIdempotencyConflict, "event_id", row.EventID)
	}
	return true, nil
}

func (r *Repository) AppendActivity(ctx context.Context, entry ports.ActivityEntry) error {
	row := activityModel{
		EventID:    strings.TrimSpace(entry.EventID),
		PrizeID:    strings.TrimSpace(entry.PrizeID),
		EventType:  entry.EventType,
		Actor:      entry.Actor,
		Summary:    entry.Summary,
		OccurredAt: entry.OccurredAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&row).Error; err != nil {
		return r.logError("prize_repo_append_activity_failed", err, "event_id", row.EventID)
	}
	return nil
}

func (r *Repository) ListActivity(ctx context.Context, prizeID string, limit int) ([]ports.ActivityEntry, error) {
	query := r.db.WithContext(ctx).
		Where("prize_id = ?", strings.TrimSpace(prizeID)).
		Order("occurred_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []activityModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, r.logError("prize_repo_list_activity_failed", err, "prize_id", prizeID)
	}
	items := make([]ports.ActivityEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.ActivityEntry{
			EventID:    row.EventID,
			PrizeID:    row.PrizeID,
			EventType:  row.EventType,
			Actor:      row.Actor,
			Summary:    row.Summary,
			OccurredAt: row.OccurredAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", application.ModuleName,
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("prize repository operation failed", fields...)
	return err
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.PrizeStore = (*Repository)(nil)
var _ ports.IdempotencyStore = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
var _ ports.EventDedupStore = (*Repository)(nil)
var _ ports.ActivityRepository = (*Repository)(nil)
