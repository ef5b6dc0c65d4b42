package memory

import (
	"context"
	"strings"
	"time"

	"prizeforge/contexts/prize-lifecycle/prize-service/domain/entities"
	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/values"
)

const (
	EntryCredit   = "credit"
	EntryTransfer = "transfer"
	EntryRefund   = "refund"
)

// TreasuryEntry is one movement of value in or out of a prize.
type TreasuryEntry struct {
	PrizeID   string
	Kind      string
	Account   string
	Amount    values.Value
	CreatedAt time.Time
}

// vaultTx stages treasury movements made during Mutate so they commit with
// the prize or vanish with it.
type vaultTx struct {
	store    *Store
	balances map[string]values.Value
	entries  []TreasuryEntry
}

type vaultTxKey struct{}

func withVaultTx(ctx context.Context, tx *vaultTx) context.Context {
	return context.WithValue(ctx, vaultTxKey{}, tx)
}

func vaultTxFrom(ctx context.Context) (*vaultTx, bool) {
	tx, ok := ctx.Value(vaultTxKey{}).(*vaultTx)
	return tx, ok
}

func (s *Store) Credit(ctx context.Context, prizeID string, from string, amount values.Value) error {
	return s.move(ctx, prizeID, EntryCredit, from, amount)
}

func (s *Store) Transfer(ctx context.Context, prizeID string, to string, amount values.Value) error {
	return s.move(ctx, prizeID, EntryTransfer, to, amount)
}

func (s *Store) Refund(ctx context.Context, prizeID string, to string, amount values.Value) error {
	return s.move(ctx, prizeID, EntryRefund, to, amount)
}

// Balance is the committed amount held for a prize.
func (s *Store) Balance(prizeID string) values.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balanceLocked(prizeID)
}

// Entries lists committed movements for a prize in order.
func (s *Store) Entries(prizeID string) []TreasuryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]TreasuryEntry, 0)
	for _, entry := range s.ledger {
		if entry.PrizeID == prizeID {
			items = append(items, entry)
		}
	}
	return items
}

func (s *Store) move(ctx context.Context, prizeID string, kind string, account string, amount values.Value) error {
	prizeID = strings.TrimSpace(prizeID)
	account = entities.NormalizeAddress(account)
	if prizeID == "" || account == "" || amount == nil {
		return domainerrors.New(domainerrors.ErrInvalidInput, "prize_id", prizeID, "account", account)
	}
	entry := TreasuryEntry{
		PrizeID:   prizeID,
		Kind:      kind,
		Account:   account,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}

	if tx, ok := vaultTxFrom(ctx); ok {
		current, staged := tx.balances[prizeID]
		if !staged {
			current = s.Balance(prizeID)
		}
		next, err := apply(current, kind, amount)
		if err != nil {
			return err
		}
		tx.balances[prizeID] = next
		tx.entries = append(tx.entries, entry)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := apply(s.balanceLocked(prizeID), kind, amount)
	if err != nil {
		return err
	}
	s.balances[prizeID] = next
	s.ledger = append(s.ledger, entry)
	return nil
}

func (tx *vaultTx) commitLocked() {
	for prizeID, balance := range tx.balances {
		tx.store.balances[prizeID] = balance
	}
	tx.store.ledger = append(tx.store.ledger, tx.entries...)
}

func (s *Store) balanceLocked(prizeID string) values.Value {
	if balance, ok := s.balances[prizeID]; ok {
		return balance
	}
	return s.scheme.Zero()
}

func apply(balance values.Value, kind string, amount values.Value) (values.Value, error) {
	if kind == EntryCredit {
		return balance.Add(amount)
	}
	return balance.Sub(amount)
}
