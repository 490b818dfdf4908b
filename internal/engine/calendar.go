// Package engine implements the cash-flow projection core: billing-cycle
// date math, recurrence expansion, override resolution, duplicate
// suppression and the day-by-day timeline builder.
//
// The engine is pure: it never mutates its input snapshot, never reads the
// system clock, and produces identical output for identical input.
package engine

import (
	"sort"

	"flowcast/internal/core"
)

const (
	InvoiceClosed = "closed"
	InvoiceOpen   = "open"
	InvoiceFuture = "future"
)

// Invoice is the set of card-bound transactions sharing a due-date
// year-month.
type Invoice struct {
	CardID     string             `json:"cardId"`
	YearMonth  string             `json:"yearMonth"`
	DueDate    core.Date          `json:"dueDate"`
	TotalCents int64              `json:"totalCents"`
	Status     string             `json:"status"`
	Entries    []core.Transaction `json:"entries"`
}

// ResolveDueDate maps a card purchase date onto the due date of the invoice
// it lands on. A purchase on or after the closing day belongs to next
// month's invoice. The due month is the invoice month, pushed one further
// month out when the due day precedes the closing day, so the due date
// always falls chronologically after the closing date. Day-of-month values
// that do not exist in the due month normalize forward the standard
// calendar way.
func ResolveDueDate(purchase core.Date, closingDay, dueDay int) core.Date {
	monthOffset := 0
	if purchase.Day() >= closingDay {
		monthOffset = 1
	}
	if dueDay < closingDay {
		monthOffset++
	}
	return core.NewDate(purchase.Year(), purchase.Month()+monthOffset, dueDay)
}

// BucketInvoices groups the card's transactions into per-month invoices by
// the year-month of their due date. Status is relative to the explicit
// as-of date: closed when the due date has passed, open when it falls in
// the as-of month, future otherwise.
func BucketInvoices(card core.CreditCard, txs []core.Transaction, today core.Date) []Invoice {
	byMonth := make(map[string]*Invoice)
	for _, t := range txs {
		cardID, ok := t.Target.CardID()
		if !ok || cardID != card.ID {
			continue
		}
		ym := t.Date.YearMonth()
		inv, ok := byMonth[ym]
		if !ok {
			inv = &Invoice{
				CardID:    card.ID,
				YearMonth: ym,
				DueDate:   core.NewDate(t.Date.Year(), t.Date.Month(), card.DueDay),
			}
			byMonth[ym] = inv
		}
		inv.TotalCents += t.Amount.Cents
		inv.Entries = append(inv.Entries, t)
	}

	invoices := make([]Invoice, 0, len(byMonth))
	for _, inv := range byMonth {
		switch {
		case inv.DueDate.Before(today):
			inv.Status = InvoiceClosed
		case inv.DueDate.YearMonth() == today.YearMonth():
			inv.Status = InvoiceOpen
		default:
			inv.Status = InvoiceFuture
		}
		sortEntries(inv.Entries)
		invoices = append(invoices, *inv)
	}
	sort.Slice(invoices, func(i, j int) bool {
		return invoices[i].YearMonth < invoices[j].YearMonth
	})
	return invoices
}

// sortEntries orders transactions deterministically: date, then
// description, then id. Every output list in the engine goes through this
// so repeated runs are byte-identical.
func sortEntries(entries []core.Transaction) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Description != b.Description {
			return a.Description < b.Description
		}
		return a.ID < b.ID
	})
}
