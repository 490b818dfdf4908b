package storage

import (
	"context"
	"fmt"
	"sync"

	"flowcast/internal/core"
)

// MemoryStore keeps the ledger in process memory. It backs tests and the
// memory data backend, and mirrors the sqlite repository's semantics: the
// override upsert key and last-writer-wins rule are the same.
type MemoryStore struct {
	mu           sync.RWMutex
	accounts     []core.Account
	cards        []core.CreditCard
	transactions []core.Transaction
	overrides    map[overrideKey]core.RecurrenceOverride
	recurrences  []core.Recurrence
}

type overrideKey struct {
	recurrenceID  string
	effectiveFrom string
	scope         core.OverrideScope
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{overrides: make(map[overrideKey]core.RecurrenceOverride)}
}

// Seed replaces the store contents. Intended for startup fixtures and tests.
func (m *MemoryStore) Seed(snap core.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.accounts = append([]core.Account(nil), snap.Accounts...)
	m.cards = append([]core.CreditCard(nil), snap.Cards...)
	m.transactions = append([]core.Transaction(nil), snap.Transactions...)
	m.recurrences = append([]core.Recurrence(nil), snap.Recurrences...)
	m.overrides = make(map[overrideKey]core.RecurrenceOverride, len(snap.Overrides))
	for _, ov := range snap.Overrides {
		m.overrides[keyOf(ov)] = ov
	}
}

func keyOf(ov core.RecurrenceOverride) overrideKey {
	return overrideKey{
		recurrenceID:  ov.RecurrenceID,
		effectiveFrom: ov.EffectiveFrom.String(),
		scope:         ov.Scope,
	}
}

func (m *MemoryStore) LoadSnapshot(ctx context.Context) (core.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := core.Snapshot{
		Accounts:     append([]core.Account(nil), m.accounts...),
		Cards:        append([]core.CreditCard(nil), m.cards...),
		Transactions: append([]core.Transaction(nil), m.transactions...),
		Recurrences:  append([]core.Recurrence(nil), m.recurrences...),
	}
	for _, ov := range m.overrides {
		snap.Overrides = append(snap.Overrides, ov)
	}
	return snap, nil
}

func (m *MemoryStore) ApplyOverride(ctx context.Context, ov core.RecurrenceOverride) error {
	if err := ov.Validate(); err != nil {
		return fmt.Errorf("invalid override: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := keyOf(ov)
	if existing, ok := m.overrides[key]; ok && existing.CreatedAt.After(ov.CreatedAt) {
		// Stale replay; the stored fact is newer.
		return nil
	}
	m.overrides[key] = ov
	return nil
}

func (m *MemoryStore) CreateTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("invalid transaction: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.transactions {
		if existing.ID == tx.ID {
			// Redelivered message; the record is already persisted.
			return nil
		}
	}
	m.transactions = append(m.transactions, tx)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
