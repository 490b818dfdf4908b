// Package storage persists the ledger snapshot the projection engine
// consumes. Reads load the whole snapshot; writes are the two mutations the
// queue carries.
package storage

import (
	"context"
	"errors"

	"flowcast/internal/core"
)

var ErrNotFound = errors.New("not found")

// SnapshotReader loads the full ledger state for projection.
type SnapshotReader interface {
	LoadSnapshot(ctx context.Context) (core.Snapshot, error)
}

// MutationApplier applies queued writes. ApplyOverride upserts on the
// override's logical key (recurrence, effective date, scope) so replays and
// edits converge to the latest fact.
type MutationApplier interface {
	ApplyOverride(ctx context.Context, ov core.RecurrenceOverride) error
	CreateTransaction(ctx context.Context, tx core.Transaction) error
}

// Store is the full persistence surface the service needs.
type Store interface {
	SnapshotReader
	MutationApplier
	Close() error
}
