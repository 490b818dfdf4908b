package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"flowcast/internal/core"
	"flowcast/internal/engine"
	"flowcast/internal/log"
)

// entryJSON is the wire form of a timeline or invoice entry.
type entryJSON struct {
	ID           string `json:"id"`
	Description  string `json:"description"`
	AmountCents  int64  `json:"amountCents"`
	Date         string `json:"date"`
	PurchaseDate string `json:"purchaseDate,omitempty"`
	Type         string `json:"type"`
	Category     string `json:"category,omitempty"`
	Status       string `json:"status"`
	AccountID    string `json:"accountId,omitempty"`
	CardID       string `json:"cardId,omitempty"`
	SourceID     string `json:"sourceId,omitempty"`
	Origin       string `json:"origin"`
}

type healthJSON struct {
	Label string `json:"label"`
	Color string `json:"color,omitempty"`
}

type dayJSON struct {
	Date         string      `json:"date"`
	StartCents   int64       `json:"startCents"`
	EndCents     int64       `json:"endCents"`
	IncomeCents  int64       `json:"incomeCents"`
	ExpenseCents int64       `json:"expenseCents"`
	DailyCents   int64       `json:"dailyCents"`
	EconomyCents int64       `json:"economyCents"`
	Entries      []entryJSON `json:"entries"`
	Health       healthJSON  `json:"health"`
}

type issueJSON struct {
	Code    string `json:"code"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

type forecastResponse struct {
	Start        string      `json:"start"`
	Days         int         `json:"days"`
	OpeningCents int64       `json:"openingCents"`
	History      []dayJSON   `json:"history"`
	Window       []dayJSON   `json:"window"`
	Issues       []issueJSON `json:"issues"`
}

type invoiceJSON struct {
	CardID     string      `json:"cardId"`
	YearMonth  string      `json:"yearMonth"`
	DueDate    string      `json:"dueDate"`
	TotalCents int64       `json:"totalCents"`
	Status     string      `json:"status"`
	Entries    []entryJSON `json:"entries"`
}

func entryToJSON(t core.Transaction) entryJSON {
	e := entryJSON{
		ID:          t.ID,
		Description: t.Description,
		AmountCents: t.Amount.Cents,
		Date:        t.Date.String(),
		Type:        string(t.Type),
		Category:    t.Category,
		Status:      string(t.Status),
		SourceID:    t.SourceID,
		Origin:      string(t.Origin),
	}
	if e.Origin == "" {
		e.Origin = string(core.OriginReal)
	}
	if !t.PurchaseDate.IsZero() {
		e.PurchaseDate = t.PurchaseDate.String()
	}
	if id, ok := t.Target.AccountID(); ok {
		e.AccountID = id
	}
	if id, ok := t.Target.CardID(); ok {
		e.CardID = id
	}
	return e
}

func dayToJSON(d core.DailyBalance) dayJSON {
	out := dayJSON{
		Date:         d.Date.String(),
		StartCents:   d.StartCents,
		EndCents:     d.EndCents,
		IncomeCents:  d.Totals.IncomeCents,
		ExpenseCents: d.Totals.ExpenseCents,
		DailyCents:   d.Totals.DailyCents,
		EconomyCents: d.Totals.EconomyCents,
		Entries:      make([]entryJSON, 0, len(d.Entries)),
		Health:       healthJSON{Label: d.Health.Label, Color: d.Health.Color},
	}
	for _, e := range d.Entries {
		out.Entries = append(out.Entries, entryToJSON(e))
	}
	return out
}

func issuesToJSON(issues []core.ValidationIssue) []issueJSON {
	out := make([]issueJSON, 0, len(issues))
	for _, is := range issues {
		out = append(out, issueJSON{Code: string(is.Code), Subject: is.Subject, Message: is.Message})
	}
	return out
}

// parseWindow reads start and days query parameters, defaulting to the
// server's as-of date and configured window.
func (s *Server) parseWindow(r *http.Request) (core.Date, int, error) {
	start := core.DateOf(s.now())
	if v := strings.TrimSpace(r.URL.Query().Get("start")); v != "" {
		parsed, err := core.ParseDate(v)
		if err != nil {
			return core.Date{}, 0, fmt.Errorf("invalid start date %q", v)
		}
		start = parsed
	}

	days := s.windowDays
	if v := strings.TrimSpace(r.URL.Query().Get("days")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return core.Date{}, 0, fmt.Errorf("invalid days %q", v)
		}
		days = n
	}
	return start, days, nil
}

func (s *Server) buildTimeline(r *http.Request, start core.Date, days int) (engine.Result, error) {
	key := start.String() + "|" + strconv.Itoa(days)
	if res, found := s.timelineCache.Get(key); found {
		log.FromContext(r.Context()).DebugContext(r.Context(), "timeline cache hit", "start", start.String(), "days", days)
		return res, nil
	}

	snap, err := s.store.LoadSnapshot(r.Context())
	if err != nil {
		return engine.Result{}, fmt.Errorf("load snapshot: %w", err)
	}

	res, err := engine.BuildTimeline(engine.Request{
		Snapshot:        snap,
		Start:           start,
		Days:            days,
		HistoryFoldDays: s.historyFoldDays,
		Levels:          s.levels,
	})
	if err != nil {
		return engine.Result{}, err
	}

	s.timelineCache.Set(key, res)
	return res, nil
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	start, days, err := s.parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.buildTimeline(r, start, days)
	if err != nil {
		s.writeTimelineError(w, r, err)
		return
	}

	resp := forecastResponse{
		Start:        start.String(),
		Days:         days,
		OpeningCents: res.OpeningCents,
		History:      make([]dayJSON, 0, len(res.History)),
		Window:       make([]dayJSON, 0, len(res.Window)),
		Issues:       issuesToJSON(res.Issues),
	}
	for _, d := range res.History {
		resp.History = append(resp.History, dayToJSON(d))
	}
	for _, d := range res.Window {
		resp.Window = append(resp.Window, dayToJSON(d))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeTimelineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrEmptyWindow),
		errors.Is(err, engine.ErrWindowTooLarge),
		errors.Is(err, engine.ErrNoStartDate):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "projection failed", "error", err)
		writeError(w, http.StatusInternalServerError, "projection failed")
	}
}

func (s *Server) handleInvoices(w http.ResponseWriter, r *http.Request) {
	asOf := core.DateOf(s.now())
	if v := strings.TrimSpace(r.URL.Query().Get("as_of")); v != "" {
		parsed, err := core.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid as_of date %q", v))
			return
		}
		asOf = parsed
	}
	cardFilter := strings.TrimSpace(r.URL.Query().Get("card"))

	snap, err := s.store.LoadSnapshot(r.Context())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "load snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, "load snapshot failed")
		return
	}

	var invoices []invoiceJSON
	matched := false
	for _, card := range snap.Cards {
		if cardFilter != "" && card.ID != cardFilter {
			continue
		}
		matched = true
		for _, inv := range engine.BucketInvoices(card, snap.Transactions, asOf) {
			out := invoiceJSON{
				CardID:     inv.CardID,
				YearMonth:  inv.YearMonth,
				DueDate:    inv.DueDate.String(),
				TotalCents: inv.TotalCents,
				Status:     inv.Status,
				Entries:    make([]entryJSON, 0, len(inv.Entries)),
			}
			for _, e := range inv.Entries {
				out.Entries = append(out.Entries, entryToJSON(e))
			}
			invoices = append(invoices, out)
		}
	}
	if cardFilter != "" && !matched {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown card %q", cardFilter))
		return
	}
	if invoices == nil {
		invoices = []invoiceJSON{}
	}
	writeJSON(w, http.StatusOK, invoices)
}

func (s *Server) handleEconomy(w http.ResponseWriter, r *http.Request) {
	start, days, err := s.parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.buildTimeline(r, start, days)
	if err != nil {
		s.writeTimelineError(w, r, err)
		return
	}

	summaries := engine.SummarizeMonths(res.Window)
	if summaries == nil {
		summaries = []engine.MonthSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

type overrideRequest struct {
	RecurrenceID  string  `json:"recurrenceId"`
	EffectiveFrom string  `json:"effectiveFrom"`
	Scope         string  `json:"scope"`
	Delete        bool    `json:"delete,omitempty"`
	AmountCents   *int64  `json:"amountCents,omitempty"`
	Description   *string `json:"description,omitempty"`
	Category      *string `json:"category,omitempty"`
	AccountID     *string `json:"accountId,omitempty"`
	CardID        *string `json:"cardId,omitempty"`
	Status        *string `json:"status,omitempty"`
}

func (s *Server) handleCreateOverride(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	effectiveFrom, err := core.ParseDate(req.EffectiveFrom)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid effectiveFrom %q", req.EffectiveFrom))
		return
	}

	var patch core.OverridePatch
	if req.AmountCents != nil {
		patch.Amount = &core.Money{Cents: *req.AmountCents}
	}
	patch.Description = req.Description
	patch.Category = req.Category
	if req.Status != nil {
		status := core.TransactionStatus(*req.Status)
		patch.Status = &status
	}
	switch {
	case req.AccountID != nil && req.CardID != nil:
		writeError(w, http.StatusUnprocessableEntity, "accountId and cardId are mutually exclusive")
		return
	case req.AccountID != nil:
		t := core.AccountTarget(*req.AccountID)
		patch.Target = &t
	case req.CardID != nil:
		t := core.CardTarget(*req.CardID)
		patch.Target = &t
	}

	snap, err := s.store.LoadSnapshot(r.Context())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "load snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, "load snapshot failed")
		return
	}

	ov, err := engine.BuildOverrideUpsert(snap, req.RecurrenceID, effectiveFrom,
		core.OverrideScope(req.Scope), patch, req.Delete, s.now())
	if err != nil {
		if errors.Is(err, engine.ErrUnknownRecurrence) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.sink.EnqueueOverride(r.Context(), ov); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "enqueue override", "error", err, "override_id", ov.ID)
		writeError(w, http.StatusInternalServerError, "failed to enqueue override")
		return
	}

	s.timelineCache.Clear()
	writeJSON(w, http.StatusAccepted, map[string]string{"id": ov.ID})
}

type convertRequest struct {
	OccurrenceID string `json:"occurrenceId"`
	Start        string `json:"start,omitempty"`
	Days         int    `json:"days,omitempty"`
}

// handleConvert turns a projected occurrence into a persisted transaction.
// The occurrence is re-derived from the current snapshot so the conversion
// captures any overrides in effect.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.OccurrenceID == "" {
		writeError(w, http.StatusUnprocessableEntity, "occurrenceId is required")
		return
	}

	start := core.DateOf(s.now())
	if req.Start != "" {
		parsed, err := core.ParseDate(req.Start)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid start %q", req.Start))
			return
		}
		start = parsed
	}
	days := req.Days
	if days <= 0 {
		days = s.windowDays
	}

	res, err := s.buildTimeline(r, start, days)
	if err != nil {
		s.writeTimelineError(w, r, err)
		return
	}

	var occurrence *core.Transaction
	for _, day := range append(append([]core.DailyBalance(nil), res.History...), res.Window...) {
		for _, e := range day.Entries {
			if e.ID == req.OccurrenceID {
				occ := e
				occurrence = &occ
				break
			}
		}
	}
	if occurrence == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("occurrence %q not in the projected window", req.OccurrenceID))
		return
	}

	real, err := engine.BuildConversion(*occurrence)
	if err != nil {
		if errors.Is(err, engine.ErrNotProjected) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := s.sink.EnqueueTransaction(r.Context(), real); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "enqueue transaction", "error", err, "transaction_id", real.ID)
		writeError(w, http.StatusInternalServerError, "failed to enqueue transaction")
		return
	}

	s.timelineCache.Clear()
	writeJSON(w, http.StatusAccepted, map[string]string{"id": real.ID})
}
