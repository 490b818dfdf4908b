// Package worker applies queued mutations to storage and keeps a periodic
// eye on projection health. It is the single writer: every edit from the
// API lands here before it touches the database.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"flowcast/internal/amqp"
	"flowcast/internal/core"
	"flowcast/internal/engine"
	"flowcast/internal/log"
	"flowcast/internal/storage"
)

// MutationWorker consumes mutation messages and applies them through the
// storage layer. Redelivered messages are safe: both write paths are
// idempotent.
type MutationWorker struct {
	store      storage.Store
	levels     []core.HealthLevel
	windowDays int
	logger     *log.StructuredLogger
}

func NewMutationWorker(store storage.Store, levels []core.HealthLevel, windowDays int) *MutationWorker {
	if windowDays <= 0 {
		windowDays = 90
	}
	return &MutationWorker{
		store:      store,
		levels:     levels,
		windowDays: windowDays,
		logger:     log.NewStructuredLogger(log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker)),
	}
}

// HandleMutation applies one queued mutation. A returned error requeues the
// message, so only transient failures should surface here; malformed
// messages are rejected before this point.
func (w *MutationWorker) HandleMutation(ctx context.Context, msg *amqp.MutationMessage) error {
	switch msg.Kind {
	case amqp.KindOverrideUpsert:
		ov := msg.Override.ToCore()
		slog.InfoContext(ctx, "applying override upsert",
			"override_id", ov.ID,
			"recurrence_id", ov.RecurrenceID,
			"scope", string(ov.Scope),
			"effective_from", ov.EffectiveFrom.String())
		if err := w.store.ApplyOverride(ctx, ov); err != nil {
			return fmt.Errorf("apply override %s: %w", ov.ID, err)
		}
		return nil

	case amqp.KindTransactionCreate:
		tx := msg.Transaction.ToCore()
		slog.InfoContext(ctx, "creating transaction",
			"transaction_id", tx.ID,
			"source_id", tx.SourceID,
			"amount_cents", tx.Amount.Cents,
			"date", tx.Date.String())
		if err := w.store.CreateTransaction(ctx, tx); err != nil {
			return fmt.Errorf("create transaction %s: %w", tx.ID, err)
		}
		return nil

	default:
		return fmt.Errorf("%w: %q", amqp.ErrUnknownKind, msg.Kind)
	}
}

// RunProjectionCheck rebuilds the timeline once and logs its health. Data
// problems never fail the worker; they surface as validation issues in the
// log.
func (w *MutationWorker) RunProjectionCheck(ctx context.Context, asOf core.Date) error {
	snap, err := w.store.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	res, err := engine.BuildTimeline(engine.Request{
		Snapshot: snap,
		Start:    asOf,
		Days:     w.windowDays,
		Levels:   w.levels,
	})
	if err != nil {
		return fmt.Errorf("build timeline: %w", err)
	}

	w.logger.LogProjection(ctx, asOf.String(), w.windowDays, len(res.Issues))
	for _, issue := range res.Issues {
		slog.WarnContext(ctx, "projection issue",
			"code", string(issue.Code),
			"subject", issue.Subject,
			"message", issue.Message)
	}
	return nil
}

// RunProjectionLoop re-checks the projection on a fixed interval until the
// context is cancelled. One failed check does not stop the loop.
func (w *MutationWorker) RunProjectionLoop(ctx context.Context, interval time.Duration) error {
	if err := w.RunProjectionCheck(ctx, core.DateOf(time.Now())); err != nil {
		slog.ErrorContext(ctx, "projection check failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.RunProjectionCheck(ctx, core.DateOf(time.Now())); err != nil {
				slog.ErrorContext(ctx, "projection check failed", "error", err)
			}
		}
	}
}
