package engine

import "flowcast/internal/core"

// dupKey matches on calendar day plus exact description; the amount check
// carries the tolerance.
type dupKey struct {
	date string
	desc string
}

// NewDuplicateIndex builds a lookup over manually recorded transactions so
// each projected occurrence costs one map probe instead of a scan.
func NewDuplicateIndex(manual []core.Transaction) DuplicateIndex {
	idx := make(DuplicateIndex, len(manual))
	for _, t := range manual {
		if !t.IsManual() {
			continue
		}
		k := dupKey{date: t.Date.String(), desc: t.Description}
		idx[k] = append(idx[k], t.Amount)
	}
	return idx
}

// DuplicateIndex answers "has the user already recorded this occurrence by
// hand". When a projection matches a manual entry on date, description and
// amount (to the duplicate tolerance), the user graduated that occurrence
// into a real ledger entry and emitting the projection would double count.
type DuplicateIndex map[dupKey][]core.Money

// IsDuplicate reports whether a projected occurrence already exists as a
// manual transaction.
func (idx DuplicateIndex) IsDuplicate(occ core.Transaction) bool {
	for _, amount := range idx[dupKey{date: occ.Date.String(), desc: occ.Description}] {
		if core.AmountsMatch(amount, occ.Amount) {
			return true
		}
	}
	return false
}
