package engine

import (
	"testing"

	"flowcast/internal/core"
)

func monthlyRecurrence() core.Recurrence {
	return core.Recurrence{
		ID:          "rec-rent",
		Description: "Rent",
		Amount:      core.Money{Cents: 150000},
		Type:        core.Expense,
		Category:    "housing",
		Frequency:   core.FrequencyMonthly,
		StartFrom:   core.NewDate(2025, 1, 5),
		Active:      true,
		DayOfMonth:  5,
		Target:      core.AccountTarget("acc-1"),
	}
}

func TestExpandMonthly(t *testing.T) {
	rec := monthlyRecurrence()
	occs, issues := Expand(rec, core.Snapshot{}, core.NewDate(2025, 1, 1), core.NewDate(2025, 4, 1))
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	want := []core.Date{
		core.NewDate(2025, 1, 5),
		core.NewDate(2025, 2, 5),
		core.NewDate(2025, 3, 5),
	}
	if len(occs) != len(want) {
		t.Fatalf("got %d occurrences, want %d", len(occs), len(want))
	}
	for i, w := range want {
		if !occs[i].Date.Equal(w) {
			t.Errorf("occurrence[%d].Date = %s, want %s", i, occs[i].Date, w)
		}
	}
	occ := occs[0]
	if occ.Origin != core.OriginProjected {
		t.Errorf("Origin = %q, want %q", occ.Origin, core.OriginProjected)
	}
	if occ.SourceID != rec.ID {
		t.Errorf("SourceID = %q, want %q", occ.SourceID, rec.ID)
	}
	if occ.ID != "monthly-rec-rent-2025-01-05" {
		t.Errorf("ID = %q, want deterministic id", occ.ID)
	}
}

func TestExpandMonthlyDay31DoesNotDrift(t *testing.T) {
	rec := monthlyRecurrence()
	rec.StartFrom = core.NewDate(2025, 1, 31)
	rec.DayOfMonth = 31
	occs, _ := Expand(rec, core.Snapshot{}, core.NewDate(2025, 1, 1), core.NewDate(2025, 6, 1))

	want := []core.Date{
		core.NewDate(2025, 1, 31),
		core.NewDate(2025, 3, 3),  // Feb 31 normalizes forward
		core.NewDate(2025, 3, 31),
		core.NewDate(2025, 5, 1),  // Apr 31 normalizes forward
		core.NewDate(2025, 5, 31),
	}
	if len(occs) != len(want) {
		t.Fatalf("got %d occurrences, want %d", len(occs), len(want))
	}
	for i, w := range want {
		if !occs[i].Date.Equal(w) {
			t.Errorf("occurrence[%d].Date = %s, want %s", i, occs[i].Date, w)
		}
	}
}

func TestExpandDaily(t *testing.T) {
	rec := core.Recurrence{
		ID:          "rec-coffee",
		Description: "Coffee",
		Amount:      core.Money{Cents: 300},
		Type:        core.Daily,
		Frequency:   core.FrequencyDaily,
		StartFrom:   core.NewDate(2025, 2, 27),
		Active:      true,
		Target:      core.AccountTarget("acc-1"),
	}
	occs, _ := Expand(rec, core.Snapshot{}, core.NewDate(2025, 2, 25), core.NewDate(2025, 3, 3))
	want := []core.Date{
		core.NewDate(2025, 2, 27),
		core.NewDate(2025, 2, 28),
		core.NewDate(2025, 3, 1),
		core.NewDate(2025, 3, 2),
	}
	if len(occs) != len(want) {
		t.Fatalf("got %d occurrences, want %d", len(occs), len(want))
	}
	for i, w := range want {
		if !occs[i].Date.Equal(w) {
			t.Errorf("occurrence[%d].Date = %s, want %s", i, occs[i].Date, w)
		}
	}
}

func TestExpandTermination(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*core.Recurrence)
		want   int
	}{
		{
			name:   "inactive expands to nothing",
			mutate: func(r *core.Recurrence) { r.Active = false },
			want:   0,
		},
		{
			name:   "end date stops expansion",
			mutate: func(r *core.Recurrence) { r.EndDate = core.NewDate(2025, 2, 28) },
			want:   2,
		},
		{
			name:   "occurrence cap stops expansion",
			mutate: func(r *core.Recurrence) { r.OccurrenceCount = 1 },
			want:   1,
		},
		{
			name:   "window end stops expansion",
			mutate: func(r *core.Recurrence) {},
			want:   6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := monthlyRecurrence()
			tt.mutate(&rec)
			occs, _ := Expand(rec, core.Snapshot{}, core.NewDate(2025, 1, 1), core.NewDate(2025, 7, 1))
			if len(occs) != tt.want {
				t.Errorf("got %d occurrences, want %d", len(occs), tt.want)
			}
		})
	}
}

func TestExpandCardBound(t *testing.T) {
	snap := core.Snapshot{
		Cards: []core.CreditCard{{ID: "card-1", Name: "Visa", ClosingDay: 10, DueDay: 5}},
	}
	rec := monthlyRecurrence()
	rec.Type = core.Income // nominal type must be overridden
	rec.Target = core.CardTarget("card-1")
	rec.DayOfMonth = 15

	occs, issues := Expand(rec, snap, core.NewDate(2025, 1, 1), core.NewDate(2025, 2, 1))
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	if len(occs) != 1 {
		t.Fatalf("got %d occurrences, want 1", len(occs))
	}
	occ := occs[0]
	// Purchase on the 15th, closing on the 10th: next month's invoice,
	// due day 5 < closing day 10 pushes one more month.
	if want := core.NewDate(2025, 3, 5); !occ.Date.Equal(want) {
		t.Errorf("Date = %s, want %s", occ.Date, want)
	}
	if want := core.NewDate(2025, 1, 15); !occ.PurchaseDate.Equal(want) {
		t.Errorf("PurchaseDate = %s, want %s", occ.PurchaseDate, want)
	}
	if occ.Type != core.Expense {
		t.Errorf("Type = %q, want %q (card-bound rules are always debt)", occ.Type, core.Expense)
	}
}

func TestExpandUnusableStart(t *testing.T) {
	rec := monthlyRecurrence()
	rec.StartFrom = core.Date{}
	occs, issues := Expand(rec, core.Snapshot{}, core.NewDate(2025, 1, 1), core.NewDate(2025, 12, 31))
	if len(occs) != 0 {
		t.Errorf("got %d occurrences, want 0", len(occs))
	}
	if len(issues) != 1 || issues[0].Code != core.IssueUnparseableStart {
		t.Errorf("issues = %v, want one %s issue", issues, core.IssueUnparseableStart)
	}
}

func TestExpandUnknownCard(t *testing.T) {
	rec := monthlyRecurrence()
	rec.Target = core.CardTarget("card-missing")
	occs, issues := Expand(rec, core.Snapshot{}, core.NewDate(2025, 1, 1), core.NewDate(2025, 2, 1))
	if len(occs) != 1 {
		t.Fatalf("got %d occurrences, want 1", len(occs))
	}
	// Without cycle parameters the occurrence keeps its nominal date.
	if want := core.NewDate(2025, 1, 5); !occs[0].Date.Equal(want) {
		t.Errorf("Date = %s, want %s", occs[0].Date, want)
	}
	if len(issues) != 1 || issues[0].Code != core.IssueUnknownTarget {
		t.Errorf("issues = %v, want one %s issue", issues, core.IssueUnknownTarget)
	}
}
