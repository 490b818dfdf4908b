package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"flowcast/internal/core"
)

// Mutation builders translate user edits of projected occurrences into
// requests for the persistence collaborator. The engine constructs them
// but never executes them; the storage layer round-trips the exact field
// semantics without reinterpretation.

var (
	ErrNotProjected      = errors.New("only projected occurrences can be converted")
	ErrUnknownRecurrence = errors.New("unknown recurrence")
)

// BuildOverrideUpsert creates the override record for editing or deleting
// one occurrence (scope single) or an occurrence and all following (scope
// from_here). The caller supplies the write time; last-writer-wins on the
// (recurrence, effectiveFrom, scope) key is driven by it.
func BuildOverrideUpsert(snap core.Snapshot, recurrenceID string, effectiveFrom core.Date, scope core.OverrideScope, patch core.OverridePatch, del bool, now time.Time) (core.RecurrenceOverride, error) {
	found := false
	for _, rec := range snap.Recurrences {
		if rec.ID == recurrenceID {
			found = true
			break
		}
	}
	if !found {
		return core.RecurrenceOverride{}, fmt.Errorf("%w: %q", ErrUnknownRecurrence, recurrenceID)
	}

	ov := core.RecurrenceOverride{
		ID:            uuid.NewString(),
		RecurrenceID:  recurrenceID,
		EffectiveFrom: effectiveFrom,
		Scope:         scope,
		Delete:        del,
		Patch:         patch,
		CreatedAt:     now.UTC(),
	}
	if err := ov.Validate(); err != nil {
		return core.RecurrenceOverride{}, fmt.Errorf("build override: %w", err)
	}
	return ov, nil
}

// BuildConversion turns a projected occurrence into a real transaction
// record: same fields, a fresh persistent id, real origin. For card-bound
// occurrences the date is already the invoice due date, which is exactly
// what gets persisted.
func BuildConversion(occ core.Transaction) (core.Transaction, error) {
	if occ.Origin != core.OriginProjected {
		return core.Transaction{}, fmt.Errorf("%w: %q has origin %q", ErrNotProjected, occ.ID, occ.Origin)
	}
	real := occ
	real.ID = uuid.NewString()
	real.Origin = core.OriginReal
	if err := real.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("build conversion: %w", err)
	}
	return real, nil
}
