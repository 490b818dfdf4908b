package engine

import (
	"sort"

	"flowcast/internal/core"
)

// MonthSummary aggregates one calendar month of timeline output.
type MonthSummary struct {
	YearMonth    string  `json:"yearMonth"`
	IncomeCents  int64   `json:"incomeCents"`
	ExpenseCents int64   `json:"expenseCents"`
	DailyCents   int64   `json:"dailyCents"`
	EconomyCents int64   `json:"economyCents"`
	EndCents     int64   `json:"endCents"`
	// SavingsRate is the share of the month's income set aside as economy
	// movements; zero when the month has no income.
	SavingsRate float64 `json:"savingsRate"`
}

// SummarizeMonths is a read-only consumer of the timeline builder's
// output: it folds daily balances into per-month totals and a savings
// rate. EndCents is the balance at the close of the month's last walked
// day.
func SummarizeMonths(days []core.DailyBalance) []MonthSummary {
	byMonth := make(map[string]*MonthSummary)
	for _, d := range days {
		ym := d.Date.YearMonth()
		ms, ok := byMonth[ym]
		if !ok {
			ms = &MonthSummary{YearMonth: ym}
			byMonth[ym] = ms
		}
		ms.IncomeCents += d.Totals.IncomeCents
		ms.ExpenseCents += d.Totals.ExpenseCents
		ms.DailyCents += d.Totals.DailyCents
		ms.EconomyCents += d.Totals.EconomyCents
		ms.EndCents = d.EndCents
	}

	summaries := make([]MonthSummary, 0, len(byMonth))
	for _, ms := range byMonth {
		if ms.IncomeCents > 0 {
			ms.SavingsRate = float64(ms.EconomyCents) / float64(ms.IncomeCents)
		}
		summaries = append(summaries, *ms)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].YearMonth < summaries[j].YearMonth
	})
	return summaries
}
