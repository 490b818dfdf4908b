package core

import "fmt"

// Issue codes for reportable, non-fatal data problems.
const (
	IssueHealthConfig     = "health_config"
	IssueUnparseableStart = "unparseable_start"
	IssueUnknownTarget    = "unknown_target"
)

// ValidationIssue is a non-fatal data problem surfaced to the caller.
// Projection proceeds; the UI decides what to show.
type ValidationIssue struct {
	Code    string `json:"code"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

func (i ValidationIssue) String() string {
	if i.Subject == "" {
		return i.Code + ": " + i.Message
	}
	return i.Code + " (" + i.Subject + "): " + i.Message
}

// Snapshot is the immutable input set for one projection pass. The engine
// never mutates it; callers own the data for the duration of the call.
type Snapshot struct {
	Accounts     []Account
	Cards        []CreditCard
	Transactions []Transaction
	Recurrences  []Recurrence
	Overrides    []RecurrenceOverride
}

// CardByID looks up a credit card.
func (s Snapshot) CardByID(id string) (CreditCard, bool) {
	for _, c := range s.Cards {
		if c.ID == id {
			return c, true
		}
	}
	return CreditCard{}, false
}

// AccountByID looks up an account.
func (s Snapshot) AccountByID(id string) (Account, bool) {
	for _, a := range s.Accounts {
		if a.ID == id {
			return a, true
		}
	}
	return Account{}, false
}

// Validate fails fast on data the engine must not ingest: malformed
// entities and non-positive amounts. Domain-level soft problems (inactive
// rules, unmatchable targets) are not errors; they become issues during
// projection.
func (s Snapshot) Validate() error {
	for _, a := range s.Accounts {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("account %q: %w", a.ID, err)
		}
	}
	for _, c := range s.Cards {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("card %q: %w", c.ID, err)
		}
	}
	for _, t := range s.Transactions {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("transaction %q: %w", t.ID, err)
		}
	}
	for _, o := range s.Overrides {
		if err := o.Validate(); err != nil {
			return fmt.Errorf("override %q: %w", o.ID, err)
		}
	}
	// Recurrences are deliberately not hard-validated here: a rule with an
	// unusable start date must surface as a reportable issue, not kill the
	// whole projection.
	return nil
}
