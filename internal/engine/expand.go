package engine

import (
	"fmt"

	"flowcast/internal/core"
)

// OccurrenceID derives the synthetic id for one occurrence from the
// frequency tag, the recurrence id and the occurrence's nominal date. The
// same calendar date always maps to the same id across runs, which is what
// keeps override targeting and display stable.
func OccurrenceID(freq core.Frequency, recurrenceID string, date core.Date) string {
	return fmt.Sprintf("%s-%s-%s", freq, recurrenceID, date)
}

// Expand turns one recurrence into its concrete occurrences inside
// [windowStart, windowEnd). Inactive rules expand to nothing. A rule whose
// start date is unusable is treated as never starting and reported as an
// issue rather than silently vanishing.
//
// Card-targeted rules emit occurrences dated on the resolved invoice due
// date, with the nominal cursor date preserved as the purchase date and
// the type forced to expense: a card-bound recurrence is always a future
// debt, whatever its nominal type.
func Expand(rec core.Recurrence, snap core.Snapshot, windowStart, windowEnd core.Date) ([]core.Transaction, []core.ValidationIssue) {
	if !rec.Active {
		return nil, nil
	}
	if rec.StartFrom.IsZero() {
		return nil, []core.ValidationIssue{{
			Code:    core.IssueUnparseableStart,
			Subject: rec.ID,
			Message: "recurrence start date is unusable; rule treated as never starting",
		}}
	}
	if err := rec.Validate(); err != nil {
		return nil, []core.ValidationIssue{{
			Code:    core.IssueUnparseableStart,
			Subject: rec.ID,
			Message: "recurrence is malformed: " + err.Error(),
		}}
	}

	var issues []core.ValidationIssue
	var card core.CreditCard
	cardBound := false
	if cardID, ok := rec.Target.CardID(); ok {
		card, cardBound = snap.CardByID(cardID)
		if !cardBound {
			issues = append(issues, core.ValidationIssue{
				Code:    core.IssueUnknownTarget,
				Subject: rec.ID,
				Message: fmt.Sprintf("recurrence targets unknown card %q; occurrences keep their nominal dates", cardID),
			})
		}
	}

	cursorStart := core.MaxDate(rec.StartFrom, windowStart)
	var occurrences []core.Transaction
	emitted := 0

	emit := func(nominal core.Date) {
		occ := core.Transaction{
			ID:          OccurrenceID(rec.Frequency, rec.ID, nominal),
			Description: rec.Description,
			Amount:      rec.Amount,
			Date:        nominal,
			Type:        rec.Type,
			Category:    rec.Category,
			Status:      core.Pending,
			Target:      rec.Target,
			SourceID:    rec.ID,
			Origin:      core.OriginProjected,
		}
		if cardBound {
			occ.Date = ResolveDueDate(nominal, card.ClosingDay, card.DueDay)
			occ.PurchaseDate = nominal
			occ.Type = core.Expense
		}
		occurrences = append(occurrences, occ)
		emitted++
	}

	within := func(d core.Date) bool {
		if !d.Before(windowEnd) {
			return false
		}
		if !rec.EndDate.IsZero() && d.After(rec.EndDate) {
			return false
		}
		if rec.OccurrenceCount > 0 && emitted >= rec.OccurrenceCount {
			return false
		}
		return true
	}

	switch rec.Frequency {
	case core.FrequencyDaily:
		for cursor := cursorStart; within(cursor); cursor = cursor.AddDays(1) {
			emit(cursor)
		}
	case core.FrequencyMonthly:
		// Anchor every occurrence independently on the cursor-start month
		// so a day-31 rule clamps per month instead of drifting after each
		// short month.
		for k := 0; ; k++ {
			nominal := core.MonthAnchor(cursorStart, k, rec.DayOfMonth)
			if nominal.Before(cursorStart) {
				continue
			}
			if !within(nominal) {
				break
			}
			emit(nominal)
		}
	}

	return occurrences, issues
}
