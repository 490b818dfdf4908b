package engine

import (
	"testing"

	"flowcast/internal/core"
)

func TestResolveDueDate(t *testing.T) {
	tests := []struct {
		name       string
		purchase   core.Date
		closingDay int
		dueDay     int
		want       core.Date
	}{
		{
			name:       "purchase before closing stays on current invoice",
			purchase:   core.NewDate(2025, 3, 9),
			closingDay: 10,
			dueDay:     5,
			want:       core.NewDate(2025, 4, 5),
		},
		{
			name:       "purchase on closing day rolls to next invoice",
			purchase:   core.NewDate(2025, 3, 10),
			closingDay: 10,
			dueDay:     5,
			want:       core.NewDate(2025, 5, 5),
		},
		{
			name:       "due day after closing day stays in invoice month",
			purchase:   core.NewDate(2025, 3, 9),
			closingDay: 10,
			dueDay:     20,
			want:       core.NewDate(2025, 3, 20),
		},
		{
			name:       "purchase after closing with late due day",
			purchase:   core.NewDate(2025, 3, 15),
			closingDay: 10,
			dueDay:     20,
			want:       core.NewDate(2025, 4, 20),
		},
		{
			name:       "year rollover",
			purchase:   core.NewDate(2025, 12, 28),
			closingDay: 25,
			dueDay:     10,
			want:       core.NewDate(2026, 2, 10),
		},
		{
			name:       "due day 31 normalizes through a short month",
			purchase:   core.NewDate(2025, 4, 1),
			closingDay: 5,
			dueDay:     31,
			want:       core.NewDate(2025, 5, 1), // April 31 rolls forward
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveDueDate(tt.purchase, tt.closingDay, tt.dueDay)
			if !got.Equal(tt.want) {
				t.Errorf("ResolveDueDate() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBucketInvoices(t *testing.T) {
	card := core.CreditCard{ID: "card-1", Name: "Visa", ClosingDay: 10, DueDay: 5}
	today := core.NewDate(2025, 3, 15)

	txs := []core.Transaction{
		{ID: "t1", Description: "Groceries", Amount: core.Money{Cents: 5000}, Date: core.NewDate(2025, 2, 5), Type: core.Expense, Status: core.Paid, Target: core.CardTarget("card-1")},
		{ID: "t2", Description: "Fuel", Amount: core.Money{Cents: 3000}, Date: core.NewDate(2025, 3, 5), Type: core.Expense, Status: core.Pending, Target: core.CardTarget("card-1")},
		{ID: "t3", Description: "Streaming", Amount: core.Money{Cents: 1500}, Date: core.NewDate(2025, 3, 5), Type: core.Expense, Status: core.Pending, Target: core.CardTarget("card-1")},
		{ID: "t4", Description: "Flights", Amount: core.Money{Cents: 40000}, Date: core.NewDate(2025, 5, 5), Type: core.Expense, Status: core.Pending, Target: core.CardTarget("card-1")},
		{ID: "t5", Description: "Other card", Amount: core.Money{Cents: 9999}, Date: core.NewDate(2025, 3, 5), Type: core.Expense, Status: core.Pending, Target: core.CardTarget("card-2")},
		{ID: "t6", Description: "Cash expense", Amount: core.Money{Cents: 100}, Date: core.NewDate(2025, 3, 5), Type: core.Expense, Status: core.Paid, Target: core.AccountTarget("acc-1")},
	}

	invoices := BucketInvoices(card, txs, today)
	if len(invoices) != 3 {
		t.Fatalf("BucketInvoices() returned %d invoices, want 3", len(invoices))
	}

	tests := []struct {
		yearMonth  string
		totalCents int64
		status     string
		entries    int
	}{
		{"2025-02", 5000, InvoiceClosed, 1},
		{"2025-03", 4500, InvoiceOpen, 2},
		{"2025-05", 40000, InvoiceFuture, 1},
	}
	for i, want := range tests {
		inv := invoices[i]
		if inv.YearMonth != want.yearMonth {
			t.Errorf("invoice[%d].YearMonth = %s, want %s", i, inv.YearMonth, want.yearMonth)
		}
		if inv.TotalCents != want.totalCents {
			t.Errorf("invoice[%d].TotalCents = %d, want %d", i, inv.TotalCents, want.totalCents)
		}
		if inv.Status != want.status {
			t.Errorf("invoice[%d].Status = %s, want %s", i, inv.Status, want.status)
		}
		if len(inv.Entries) != want.entries {
			t.Errorf("invoice[%d] has %d entries, want %d", i, len(inv.Entries), want.entries)
		}
	}
}

func TestBucketInvoicesDueDateInPastOfCurrentMonth(t *testing.T) {
	// Due earlier in the as-of month: "before today" wins over the
	// same-month rule.
	card := core.CreditCard{ID: "card-1", Name: "Visa", ClosingDay: 20, DueDay: 5}
	today := core.NewDate(2025, 3, 15)
	txs := []core.Transaction{
		{ID: "t1", Description: "Coffee", Amount: core.Money{Cents: 400}, Date: core.NewDate(2025, 3, 5), Type: core.Expense, Status: core.Paid, Target: core.CardTarget("card-1")},
	}
	invoices := BucketInvoices(card, txs, today)
	if len(invoices) != 1 {
		t.Fatalf("got %d invoices, want 1", len(invoices))
	}
	if invoices[0].Status != InvoiceClosed {
		t.Errorf("Status = %s, want %s", invoices[0].Status, InvoiceClosed)
	}
}
