package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"flowcast/internal/amqp"
	"flowcast/internal/core"
	"flowcast/internal/storage"
)

func TestHandleMutationOverrideUpsert(t *testing.T) {
	store := storage.NewMemoryStore()
	store.Seed(core.Snapshot{
		Accounts: []core.Account{
			{ID: "acc-1", Name: "Checking", Type: core.Checking, InitialBalanceCents: 50000},
		},
		Recurrences: []core.Recurrence{
			{
				ID: "rec-1", Description: "Gym", Amount: core.Money{Cents: 4500},
				Type: core.Expense, Frequency: core.FrequencyMonthly,
				StartFrom: core.NewDate(2025, 1, 1), Active: true, DayOfMonth: 1,
				Target: core.AccountTarget("acc-1"),
			},
		},
	})
	w := NewMutationWorker(store, nil, 30)

	ov := core.RecurrenceOverride{
		ID:            "ov-1",
		RecurrenceID:  "rec-1",
		EffectiveFrom: core.NewDate(2025, 3, 1),
		Scope:         core.ScopeSingle,
		Patch:         core.OverridePatch{Amount: &core.Money{Cents: 5500}},
		CreatedAt:     time.Date(2025, 2, 20, 10, 0, 0, 0, time.UTC),
	}
	msg := amqp.NewOverrideUpsertMessage(ov)

	if err := w.HandleMutation(context.Background(), msg); err != nil {
		t.Fatalf("HandleMutation() error = %v", err)
	}

	snap, err := store.LoadSnapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Overrides) != 1 {
		t.Fatalf("got %d overrides, want 1", len(snap.Overrides))
	}
	got := snap.Overrides[0]
	if got.ID != "ov-1" || got.Patch.Amount == nil || got.Patch.Amount.Cents != 5500 {
		t.Errorf("stored override = %+v", got)
	}
}

func TestHandleMutationTransactionCreate(t *testing.T) {
	store := storage.NewMemoryStore()
	store.Seed(core.Snapshot{
		Accounts: []core.Account{
			{ID: "acc-1", Name: "Checking", Type: core.Checking},
		},
	})
	w := NewMutationWorker(store, nil, 30)

	tx := core.Transaction{
		ID: "t-1", Description: "Converted rent", Amount: core.Money{Cents: 150000},
		Date: core.NewDate(2025, 2, 5), Type: core.Expense, Status: core.Pending,
		Target: core.AccountTarget("acc-1"), SourceID: "rec-rent",
		Origin: core.OriginReal,
	}
	msg := amqp.NewTransactionCreateMessage(tx)

	if err := w.HandleMutation(context.Background(), msg); err != nil {
		t.Fatalf("HandleMutation() error = %v", err)
	}

	// Queue redelivery applies the same message twice; the insert must be
	// idempotent on id.
	if err := w.HandleMutation(context.Background(), msg); err != nil {
		t.Fatalf("redelivered HandleMutation() error = %v", err)
	}

	snap, err := store.LoadSnapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(snap.Transactions))
	}
	if snap.Transactions[0].SourceID != "rec-rent" {
		t.Errorf("SourceID = %q, want rec-rent", snap.Transactions[0].SourceID)
	}
}

func TestHandleMutationUnknownKind(t *testing.T) {
	w := NewMutationWorker(storage.NewMemoryStore(), nil, 30)

	err := w.HandleMutation(context.Background(), &amqp.MutationMessage{Kind: "expense_delete"})
	if !errors.Is(err, amqp.ErrUnknownKind) {
		t.Errorf("error = %v, want ErrUnknownKind", err)
	}
}

func TestRunProjectionCheck(t *testing.T) {
	store := storage.NewMemoryStore()
	store.Seed(core.Snapshot{
		Accounts: []core.Account{
			{ID: "acc-1", Name: "Checking", Type: core.Checking, InitialBalanceCents: 10000},
		},
	})
	w := NewMutationWorker(store, core.DefaultHealthLevels(), 14)

	if err := w.RunProjectionCheck(context.Background(), core.NewDate(2025, 1, 1)); err != nil {
		t.Errorf("RunProjectionCheck() error = %v", err)
	}
}

func TestRunProjectionLoopStopsOnCancel(t *testing.T) {
	store := storage.NewMemoryStore()
	store.Seed(core.Snapshot{
		Accounts: []core.Account{{ID: "acc-1", Name: "Checking", Type: core.Checking}},
	})
	w := NewMutationWorker(store, nil, 7)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.RunProjectionLoop(ctx, time.Hour)
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("loop error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("projection loop did not stop on cancel")
	}
}
