package engine

import (
	"reflect"
	"testing"
	"time"

	"flowcast/internal/core"
)

func baseSnapshot() core.Snapshot {
	return core.Snapshot{
		Accounts: []core.Account{
			{ID: "acc-1", Name: "Checking", Type: core.Checking, InitialBalanceCents: 100000},
			{ID: "acc-2", Name: "Broker", Type: core.Investment, InitialBalanceCents: 5000000},
		},
		Recurrences: []core.Recurrence{{
			ID:          "rec-rent",
			Description: "Rent",
			Amount:      core.Money{Cents: 150000},
			Type:        core.Expense,
			Category:    "housing",
			Frequency:   core.FrequencyMonthly,
			StartFrom:   core.NewDate(2024, 6, 5),
			Active:      true,
			DayOfMonth:  5,
			Target:      core.AccountTarget("acc-1"),
		}},
	}
}

func baseRequest(snap core.Snapshot) Request {
	return Request{
		Snapshot:        snap,
		Start:           core.NewDate(2025, 1, 1),
		Days:            90,
		HistoryFoldDays: 30,
		Levels:          core.DefaultHealthLevels(),
	}
}

func TestBuildTimelineIdempotent(t *testing.T) {
	req := baseRequest(baseSnapshot())
	first, err := BuildTimeline(req)
	if err != nil {
		t.Fatalf("BuildTimeline() error = %v", err)
	}
	second, err := BuildTimeline(req)
	if err != nil {
		t.Fatalf("BuildTimeline() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("two runs on identical inputs produced different output")
	}
}

func TestBuildTimelineWindowLengthAndChaining(t *testing.T) {
	req := baseRequest(baseSnapshot())
	res, err := BuildTimeline(req)
	if err != nil {
		t.Fatalf("BuildTimeline() error = %v", err)
	}
	if len(res.Window) != req.Days {
		t.Fatalf("window has %d days, want %d", len(res.Window), req.Days)
	}
	if !res.Window[0].Date.Equal(req.Start) {
		t.Errorf("window starts at %s, want %s", res.Window[0].Date, req.Start)
	}

	walked := append(append([]core.DailyBalance(nil), res.History...), res.Window...)
	for i, d := range walked {
		wantEnd := d.StartCents + d.Totals.IncomeCents - d.Totals.Outgo()
		if d.EndCents != wantEnd {
			t.Errorf("day %s: EndCents = %d, want %d", d.Date, d.EndCents, wantEnd)
		}
		if i > 0 && d.StartCents != walked[i-1].EndCents {
			t.Errorf("day %s: StartCents = %d, want previous EndCents %d", d.Date, d.StartCents, walked[i-1].EndCents)
		}
	}
	if walked[0].StartCents != res.OpeningCents {
		t.Errorf("first day starts at %d, want opening %d", walked[0].StartCents, res.OpeningCents)
	}
}

func TestBuildTimelineOpeningBalance(t *testing.T) {
	snap := baseSnapshot()
	snap.Recurrences = nil
	// Older than the history-fold bound: folds into the opening balance.
	snap.Transactions = []core.Transaction{
		{
			ID: "t-old-income", Description: "Salary", Amount: core.Money{Cents: 200000},
			Date: core.NewDate(2024, 10, 1), Type: core.Income, Status: core.Paid,
			Target: core.AccountTarget("acc-1"), Origin: core.OriginReal,
		},
		{
			ID: "t-old-expense", Description: "Repair", Amount: core.Money{Cents: 50000},
			Date: core.NewDate(2024, 10, 2), Type: core.Expense, Status: core.Paid,
			Target: core.AccountTarget("acc-1"), Origin: core.OriginReal,
		},
		// Inside the fold bound: appears as a history entry instead.
		{
			ID: "t-recent", Description: "Groceries", Amount: core.Money{Cents: 10000},
			Date: core.NewDate(2024, 12, 20), Type: core.Daily, Status: core.Paid,
			Target: core.AccountTarget("acc-1"), Origin: core.OriginReal,
		},
	}

	res, err := BuildTimeline(baseRequest(snap))
	if err != nil {
		t.Fatalf("BuildTimeline() error = %v", err)
	}
	// Checking 1000.00 + income 2000.00 - expense 500.00; the investment
	// account stays out.
	if want := int64(250000); res.OpeningCents != want {
		t.Errorf("OpeningCents = %d, want %d", res.OpeningCents, want)
	}
	// The fold bound caps the backward walk at 30 days before the start.
	if len(res.History) != 30 { // 2024-12-02 .. 2024-12-31
		t.Fatalf("history has %d days, want 30", len(res.History))
	}
	var found bool
	for _, d := range res.History {
		for _, e := range d.Entries {
			if e.ID == "t-recent" {
				found = true
				if !d.Date.Equal(core.NewDate(2024, 12, 20)) {
					t.Errorf("t-recent realized on %s, want 2024-12-20", d.Date)
				}
			}
		}
	}
	if !found {
		t.Error("recent transaction missing from history days")
	}
}

func TestBuildTimelineOverridePrecedenceProperty(t *testing.T) {
	snap := baseSnapshot()
	snap.Recurrences[0].Amount = core.Money{Cents: 5000}
	snap.Recurrences[0].DayOfMonth = 15
	snap.Recurrences[0].StartFrom = core.NewDate(2024, 11, 15)
	snap.Overrides = []core.RecurrenceOverride{
		{
			ID: "ov-blanket", RecurrenceID: "rec-rent",
			EffectiveFrom: core.NewDate(2025, 1, 1), Scope: core.ScopeFromHere,
			Patch:     core.OverridePatch{Amount: moneyPtr(10000)},
			CreatedAt: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			ID: "ov-single", RecurrenceID: "rec-rent",
			EffectiveFrom: core.NewDate(2025, 1, 15), Scope: core.ScopeSingle,
			Patch:     core.OverridePatch{Amount: moneyPtr(99900)},
			CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	req := baseRequest(snap)
	req.Start = core.NewDate(2024, 12, 1)
	res, err := BuildTimeline(req)
	if err != nil {
		t.Fatalf("BuildTimeline() error = %v", err)
	}

	amounts := map[string]int64{}
	for _, d := range res.Window {
		for _, e := range d.Entries {
			amounts[d.Date.String()] = e.Amount.Cents
		}
	}
	tests := []struct {
		date string
		want int64
	}{
		{"2024-12-15", 5000},  // before any override: base amount
		{"2025-01-15", 99900}, // the explicit single edit wins
		{"2025-02-15", 10000}, // blanket from_here applies
	}
	for _, tt := range tests {
		if got := amounts[tt.date]; got != tt.want {
			t.Errorf("occurrence on %s has amount %d, want %d", tt.date, got, tt.want)
		}
	}
}

func TestBuildTimelineSingleDeleteSuppressesOneOccurrence(t *testing.T) {
	snap := baseSnapshot()
	snap.Overrides = []core.RecurrenceOverride{{
		ID: "ov-del", RecurrenceID: "rec-rent",
		EffectiveFrom: core.NewDate(2025, 2, 5), Scope: core.ScopeSingle,
		Delete:    true,
		CreatedAt: time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
	}}

	res, err := BuildTimeline(baseRequest(snap))
	if err != nil {
		t.Fatalf("BuildTimeline() error = %v", err)
	}
	var dates []string
	for _, d := range res.Window {
		for range d.Entries {
			dates = append(dates, d.Date.String())
		}
	}
	want := []string{"2025-01-05", "2025-03-05"}
	if !reflect.DeepEqual(dates, want) {
		t.Errorf("occurrence dates = %v, want %v (only 2025-02-05 deleted)", dates, want)
	}
}

func TestBuildTimelineDuplicateSuppression(t *testing.T) {
	tests := []struct {
		name        string
		manualCents int64
		suppressed  bool
	}{
		{"exact amount suppresses", 150000, true},
		{"amount within tolerance suppresses", 150020, true},
		{"amount off by a full unit does not suppress", 150100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := baseSnapshot()
			snap.Transactions = []core.Transaction{{
				ID: "t-manual", Description: "Rent", Amount: core.Money{Cents: tt.manualCents},
				Date: core.NewDate(2025, 3, 5), Type: core.Expense, Status: core.Paid,
				Target: core.AccountTarget("acc-1"), Origin: core.OriginReal,
			}}
			res, err := BuildTimeline(baseRequest(snap))
			if err != nil {
				t.Fatalf("BuildTimeline() error = %v", err)
			}
			var projected int
			for _, d := range res.Window {
				if !d.Date.Equal(core.NewDate(2025, 3, 5)) {
					continue
				}
				for _, e := range d.Entries {
					if e.Origin == core.OriginProjected {
						projected++
					}
				}
			}
			wantProjected := 1
			if tt.suppressed {
				wantProjected = 0
			}
			if projected != wantProjected {
				t.Errorf("projected occurrences on 2025-03-05 = %d, want %d", projected, wantProjected)
			}
		})
	}
}

func TestBuildTimelineInactiveRecurrenceFreeze(t *testing.T) {
	snap := baseSnapshot()
	snap.Recurrences[0].Active = false
	// A historical realized entry tied to the deactivated rule stays put.
	snap.Transactions = []core.Transaction{{
		ID: "t-past-rent", Description: "Rent", Amount: core.Money{Cents: 150000},
		Date: core.NewDate(2024, 12, 5), Type: core.Expense, Status: core.Paid,
		Target: core.AccountTarget("acc-1"), SourceID: "rec-rent", Origin: core.OriginReal,
	}}

	req := baseRequest(snap)
	res, err := BuildTimeline(req)
	if err != nil {
		t.Fatalf("BuildTimeline() error = %v", err)
	}
	for _, d := range append(res.History, res.Window...) {
		for _, e := range d.Entries {
			if e.Origin == core.OriginProjected {
				t.Errorf("inactive recurrence produced a projection on %s", d.Date)
			}
		}
	}
	var foundManual bool
	for _, d := range res.History {
		for _, e := range d.Entries {
			if e.ID == "t-past-rent" {
				foundManual = true
			}
		}
	}
	if !foundManual {
		t.Error("historical manual transaction vanished with the deactivated rule")
	}
}

func TestBuildTimelineRejectsBadRequests(t *testing.T) {
	snap := baseSnapshot()
	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"zero days", func(r *Request) { r.Days = 0 }},
		{"window too large", func(r *Request) { r.Days = MaxWindowDays + 1 }},
		{"missing start", func(r *Request) { r.Start = core.Date{} }},
		{"negative history bound", func(r *Request) { r.HistoryFoldDays = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest(snap)
			tt.mutate(&req)
			if _, err := BuildTimeline(req); err == nil {
				t.Error("BuildTimeline() accepted an invalid request")
			}
		})
	}
}

func TestBuildTimelineDoesNotMutateInputs(t *testing.T) {
	snap := baseSnapshot()
	snap.Transactions = []core.Transaction{{
		ID: "t-1", Description: "Groceries", Amount: core.Money{Cents: 8000},
		Date: core.NewDate(2025, 1, 10), Type: core.Daily, Status: core.Paid,
		Target: core.AccountTarget("acc-1"), Origin: core.OriginReal,
	}}
	before := core.Snapshot{
		Accounts:     append([]core.Account(nil), snap.Accounts...),
		Transactions: append([]core.Transaction(nil), snap.Transactions...),
		Recurrences:  append([]core.Recurrence(nil), snap.Recurrences...),
	}

	if _, err := BuildTimeline(baseRequest(snap)); err != nil {
		t.Fatalf("BuildTimeline() error = %v", err)
	}
	if !reflect.DeepEqual(before.Accounts, snap.Accounts) ||
		!reflect.DeepEqual(before.Transactions, snap.Transactions) ||
		!reflect.DeepEqual(before.Recurrences, snap.Recurrences) {
		t.Error("BuildTimeline() mutated its input snapshot")
	}
}
