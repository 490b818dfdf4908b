package engine

import (
	"sort"

	"flowcast/internal/core"
)

// ResolveOverride finds the single override applicable to one occurrence of
// a recurrence, or nil. Two candidate pools exist: single-scope overrides
// matching the date exactly, and from_here overrides effective on or before
// it. An exact-date single override always beats any from_here override,
// whatever their creation order: an explicit edit to one occurrence is
// stronger than a blanket "from here on" edit. Inside each pool the most
// recently created candidate wins; from_here timestamp ties break by the
// latest effective date, and any remaining tie by id, so resolution never
// depends on input order.
func ResolveOverride(overrides []core.RecurrenceOverride, recurrenceID string, date core.Date) *core.RecurrenceOverride {
	var single, fromHere *core.RecurrenceOverride

	sorted := make([]core.RecurrenceOverride, 0, len(overrides))
	for _, ov := range overrides {
		if ov.RecurrenceID == recurrenceID {
			sorted = append(sorted, ov)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if !a.EffectiveFrom.Equal(b.EffectiveFrom) {
			return a.EffectiveFrom.Before(b.EffectiveFrom)
		}
		return a.ID < b.ID
	})

	// Later entries win, so walking in order and overwriting implements
	// last-writer-wins per pool.
	for i := range sorted {
		ov := sorted[i]
		switch ov.Scope {
		case core.ScopeSingle:
			if ov.EffectiveFrom.Equal(date) {
				single = &sorted[i]
			}
		case core.ScopeFromHere:
			if !ov.EffectiveFrom.After(date) {
				fromHere = &sorted[i]
			}
		}
	}

	if single != nil {
		return single
	}
	return fromHere
}

// ApplyOverride patches one occurrence. The second return value is false
// when the override deletes the occurrence. Retargeting to a card reroutes
// the occurrence date through billing-cycle math using the pre-override
// date as the purchase date and forces the expense type; retargeting to an
// account clears any card binding and leaves the date alone.
func ApplyOverride(occ core.Transaction, ov core.RecurrenceOverride, snap core.Snapshot) (core.Transaction, bool) {
	if ov.Delete {
		return core.Transaction{}, false
	}

	patched := occ
	if ov.Patch.Amount != nil {
		patched.Amount = *ov.Patch.Amount
	}
	if ov.Patch.Description != nil {
		patched.Description = *ov.Patch.Description
	}
	if ov.Patch.Category != nil {
		patched.Category = *ov.Patch.Category
	}
	if ov.Patch.Status != nil {
		patched.Status = *ov.Patch.Status
	}
	if ov.Patch.Target != nil {
		patched.Target = *ov.Patch.Target
		if cardID, ok := ov.Patch.Target.CardID(); ok {
			if card, found := snap.CardByID(cardID); found {
				purchase := occ.Date
				if !occ.PurchaseDate.IsZero() {
					purchase = occ.PurchaseDate
				}
				patched.Date = ResolveDueDate(purchase, card.ClosingDay, card.DueDay)
				patched.PurchaseDate = purchase
			}
			patched.Type = core.Expense
		} else {
			patched.PurchaseDate = core.Date{}
		}
	}
	return patched, true
}
