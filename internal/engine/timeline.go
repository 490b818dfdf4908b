package engine

import (
	"errors"
	"fmt"

	"flowcast/internal/core"
)

// MaxWindowDays caps the forward horizon at one year.
const MaxWindowDays = 366

// Request carries everything one projection pass needs. The engine reads
// nothing else: no clock, no globals, no stored state.
type Request struct {
	Snapshot core.Snapshot
	// Start is the requested window start, also the "as-of" date used to
	// classify invoices.
	Start core.Date
	// Days is the window length; the Window slice of the result covers
	// exactly this many days.
	Days int
	// HistoryFoldDays bounds how far before Start the walk may extend to
	// pick up manual history; anything older folds into the opening
	// balance.
	HistoryFoldDays int
	Levels          []core.HealthLevel
}

// Result is one projection pass's output.
type Result struct {
	// History covers [effective start, Start): days walked to reconcile
	// manual history with the opening balance.
	History []core.DailyBalance
	// Window covers exactly [Start, Start+Days).
	Window []core.DailyBalance
	// OpeningCents is the balance carried into the effective start after
	// folding older history.
	OpeningCents int64
	Issues       []core.ValidationIssue
}

var (
	ErrEmptyWindow    = errors.New("window length must be at least one day")
	ErrWindowTooLarge = fmt.Errorf("window length must not exceed %d days", MaxWindowDays)
	ErrNoStartDate    = errors.New("projection start date is required")
)

func (r Request) validate() error {
	if r.Start.IsZero() {
		return ErrNoStartDate
	}
	if r.Days < 1 {
		return ErrEmptyWindow
	}
	if r.Days > MaxWindowDays {
		return ErrWindowTooLarge
	}
	if r.HistoryFoldDays < 0 {
		return errors.New("history fold bound must not be negative")
	}
	return r.Snapshot.Validate()
}

// BuildTimeline runs one projection pass: it folds bounded history into an
// opening balance, expands every active recurrence with overrides applied
// and duplicates suppressed, merges the result with manual transactions,
// and walks day by day accumulating a running balance with a health tier
// per day.
func BuildTimeline(req Request) (Result, error) {
	if err := req.validate(); err != nil {
		return Result{}, fmt.Errorf("invalid projection request: %w", err)
	}
	snap := req.Snapshot

	var issues []core.ValidationIssue
	issues = append(issues, core.ValidateHealthLevels(req.Levels)...)
	levels := req.Levels
	if len(levels) == 0 {
		levels = core.DefaultHealthLevels()
	}

	// Opening balance: investment accounts sit outside daily cash flow.
	var opening int64
	for _, a := range snap.Accounts {
		if a.Type != core.Investment {
			opening += a.InitialBalanceCents
		}
	}

	// Effective start: reach back to the earliest manual transaction, but
	// never further than the history-fold bound allows.
	effectiveStart := req.Start
	for _, t := range snap.Transactions {
		if t.IsManual() && t.Date.Before(effectiveStart) {
			effectiveStart = t.Date
		}
	}
	historyFloor := req.Start.AddDays(-req.HistoryFoldDays)
	effectiveStart = core.MaxDate(effectiveStart, historyFloor)

	// Manual transactions older than the effective start fold into the
	// opening balance instead of appearing as timeline entries.
	windowEnd := req.Start.AddDays(req.Days)
	var pool []core.Transaction
	for _, t := range snap.Transactions {
		if !t.IsManual() {
			continue
		}
		switch {
		case t.Date.Before(effectiveStart):
			if t.Type == core.Income {
				opening += t.Amount.Cents
			} else {
				opening -= t.Amount.Cents
			}
		case t.Date.Before(windowEnd):
			pool = append(pool, t)
		}
	}

	// Projected occurrences: expand, override, dedup.
	dupIndex := NewDuplicateIndex(snap.Transactions)
	for _, rec := range snap.Recurrences {
		occurrences, expandIssues := Expand(rec, snap, effectiveStart, windowEnd)
		issues = append(issues, expandIssues...)
		for _, occ := range occurrences {
			if ov := ResolveOverride(snap.Overrides, rec.ID, occ.Date); ov != nil {
				patched, keep := ApplyOverride(occ, *ov, snap)
				if !keep {
					continue
				}
				occ = patched
			}
			// Overrides may move an occurrence outside the walked range.
			if occ.Date.Before(effectiveStart) || !occ.Date.Before(windowEnd) {
				continue
			}
			if dupIndex.IsDuplicate(occ) {
				continue
			}
			pool = append(pool, occ)
		}
	}

	byDay := make(map[string][]core.Transaction)
	for _, t := range pool {
		key := t.Date.String()
		byDay[key] = append(byDay[key], t)
	}

	res := Result{OpeningCents: opening, Issues: issues}
	res.Window = make([]core.DailyBalance, 0, req.Days)
	balance := opening
	for day := effectiveStart; day.Before(windowEnd); day = day.AddDays(1) {
		entries := append([]core.Transaction(nil), byDay[day.String()]...)
		sortEntries(entries)

		var totals core.DayTotals
		for _, e := range entries {
			switch e.Type {
			case core.Income:
				totals.IncomeCents += e.Amount.Cents
			case core.Expense:
				totals.ExpenseCents += e.Amount.Cents
			case core.Daily:
				totals.DailyCents += e.Amount.Cents
			case core.Economy:
				totals.EconomyCents += e.Amount.Cents
			}
		}

		start := balance
		end := start + totals.IncomeCents - totals.Outgo()
		db := core.DailyBalance{
			Date:       day,
			StartCents: start,
			EndCents:   end,
			Totals:     totals,
			Entries:    entries,
			Health:     core.ClassifyBalance(levels, end),
		}
		if day.Before(req.Start) {
			res.History = append(res.History, db)
		} else {
			res.Window = append(res.Window, db)
		}
		balance = end
	}

	return res, nil
}
