package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Checking   AccountType = "checking"
	Savings    AccountType = "savings"
	Cash       AccountType = "cash"
	Investment AccountType = "investment"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
	Daily   TransactionType = "daily"
	Economy TransactionType = "economy"
)

const (
	Pending TransactionStatus = "pending"
	Paid    TransactionStatus = "paid"
)

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyMonthly Frequency = "monthly"
)

const (
	ScopeSingle   OverrideScope = "single"
	ScopeFromHere OverrideScope = "from_here"
)

// Origin discriminates real ledger records from synthetic ones. Projected
// and simulated records are never persisted; their IDs are derived, not
// allocated, so a real record can never collide with them.
const (
	OriginReal      Origin = "real"
	OriginProjected Origin = "projected"
	OriginSimulated Origin = "simulated"
)

type (
	AccountType       string
	TransactionType   string
	TransactionStatus string
	Frequency         string
	OverrideScope     string
	Origin            string
)

var (
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidTarget    = errors.New("target must be exactly one of account or card")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidDayOfMonth = errors.New("day of month must be between 1 and 31")
	ErrInvalidCycleDay   = errors.New("closing and due day must be between 1 and 31")
)

type targetKind int

const (
	targetNone targetKind = iota
	targetAccount
	targetCard
)

// Target binds a transaction or recurrence to exactly one of an account or
// a credit card. The zero value means unbound. Keeping the discriminant
// private forces construction through AccountTarget/CardTarget, so the
// one-of invariant cannot be broken by callers.
type Target struct {
	kind targetKind
	id   string
}

// AccountTarget binds to an account.
func AccountTarget(id string) Target { return Target{kind: targetAccount, id: id} }

// CardTarget binds to a credit card.
func CardTarget(id string) Target { return Target{kind: targetCard, id: id} }

// AccountID returns the account id when the target is an account.
func (t Target) AccountID() (string, bool) { return t.id, t.kind == targetAccount }

// CardID returns the card id when the target is a card.
func (t Target) CardID() (string, bool) { return t.id, t.kind == targetCard }

// IsCard reports whether the target is a credit card.
func (t Target) IsCard() bool { return t.kind == targetCard }

// IsZero reports whether no target is set.
func (t Target) IsZero() bool { return t.kind == targetNone }

func (t Target) Validate() error {
	if t.kind == targetNone {
		return nil
	}
	if strings.TrimSpace(t.id) == "" {
		return ErrInvalidTarget
	}
	return nil
}

// Account is a user-owned money container.
type Account struct {
	ID   string
	Name string
	Type AccountType
	// InitialBalanceCents is signed; an account can start in the red.
	InitialBalanceCents int64
	Color               string
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return errors.New("empty account name")
	}
	switch a.Type {
	case Checking, Savings, Cash, Investment:
	default:
		return errors.New("invalid account type")
	}
	return nil
}

// CreditCard carries the billing-cycle parameters that drive due-date math.
type CreditCard struct {
	ID         string
	Name       string
	ClosingDay int
	DueDay     int
	LimitCents int64
	Color      string
}

func (c CreditCard) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("empty card name")
	}
	if c.ClosingDay < 1 || c.ClosingDay > 31 || c.DueDay < 1 || c.DueDay > 31 {
		return ErrInvalidCycleDay
	}
	return nil
}

// Transaction is one dated money movement. For card purchases Date is the
// invoice due date, not the purchase date; PurchaseDate carries the latter.
type Transaction struct {
	ID          string
	Description string
	Amount      Money
	Date        Date
	// PurchaseDate is set only for card-bound entries; zero otherwise.
	PurchaseDate Date
	Type         TransactionType
	Category     string
	Status       TransactionStatus
	Target       Target
	// InstallmentNum/InstallmentTotal are 1-based when the entry is part
	// of an installment plan, zero otherwise.
	InstallmentNum   int
	InstallmentTotal int
	// SourceID links installments and projected occurrences back to the
	// record or recurrence that generated them.
	SourceID string
	Origin   Origin
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	switch t.Type {
	case Income, Expense, Daily, Economy:
	default:
		return errors.New("invalid transaction type")
	}
	switch t.Status {
	case Pending, Paid:
	default:
		return errors.New("invalid transaction status")
	}
	return t.Target.Validate()
}

// IsManual reports whether the transaction is a persisted ledger record, as
// opposed to a synthetic projection.
func (t Transaction) IsManual() bool {
	return t.Origin == OriginReal || t.Origin == ""
}

// Recurrence is a rule that expands into dated occurrences.
type Recurrence struct {
	ID          string
	Description string
	Amount      Money
	Type        TransactionType
	Category    string
	Frequency   Frequency
	StartFrom   Date
	// EndDate is optional; zero means the rule never expires on its own.
	EndDate Date
	// OccurrenceCount caps the number of occurrences; zero means uncapped.
	OccurrenceCount int
	Active          bool
	// DayOfMonth is meaningful only for monthly frequency.
	DayOfMonth int
	Target     Target
}

func (r Recurrence) Validate() error {
	if strings.TrimSpace(r.Description) == "" {
		return ErrEmptyDescription
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	switch r.Frequency {
	case FrequencyDaily, FrequencyMonthly:
	default:
		return ErrInvalidFrequency
	}
	if r.Frequency == FrequencyMonthly && (r.DayOfMonth < 1 || r.DayOfMonth > 31) {
		return ErrInvalidDayOfMonth
	}
	if r.StartFrom.IsZero() {
		return errors.New("recurrence has no start date")
	}
	if !r.EndDate.IsZero() && r.EndDate.Before(r.StartFrom) {
		return errors.New("end date must not precede start date")
	}
	if r.OccurrenceCount < 0 {
		return errors.New("occurrence count must not be negative")
	}
	if r.Target.IsZero() {
		return ErrInvalidTarget
	}
	return r.Target.Validate()
}

// OverridePatch holds the optional field replacements carried by an
// override. Nil pointers mean "leave the occurrence field untouched".
type OverridePatch struct {
	Amount      *Money
	Description *string
	Category    *string
	Target      *Target
	Status      *TransactionStatus
}

// IsEmpty reports whether the patch changes nothing.
func (p OverridePatch) IsEmpty() bool {
	return p.Amount == nil && p.Description == nil && p.Category == nil &&
		p.Target == nil && p.Status == nil
}

// RecurrenceOverride is an append-only fact patching or deleting one or
// more future occurrences of a recurrence. Facts share the logical key
// (RecurrenceID, EffectiveFrom, Scope); the latest CreatedAt wins.
type RecurrenceOverride struct {
	ID            string
	RecurrenceID  string
	EffectiveFrom Date
	Scope         OverrideScope
	Delete        bool
	Patch         OverridePatch
	CreatedAt     time.Time
}

func (o RecurrenceOverride) Validate() error {
	if strings.TrimSpace(o.RecurrenceID) == "" {
		return errors.New("override has no recurrence id")
	}
	if o.EffectiveFrom.IsZero() {
		return ErrInvalidDate
	}
	switch o.Scope {
	case ScopeSingle, ScopeFromHere:
	default:
		return errors.New("invalid override scope")
	}
	if !o.Delete && o.Patch.IsEmpty() {
		return errors.New("override patches nothing and deletes nothing")
	}
	if o.Patch.Amount != nil {
		if err := o.Patch.Amount.Validate(); err != nil {
			return err
		}
	}
	if o.Patch.Target != nil && o.Patch.Target.IsZero() {
		return ErrInvalidTarget
	}
	return nil
}

// DayTotals is the per-type movement sum for one day, in cents.
type DayTotals struct {
	IncomeCents  int64
	ExpenseCents int64
	DailyCents   int64
	EconomyCents int64
}

// Outgo is the sum of all non-income movement.
func (t DayTotals) Outgo() int64 {
	return t.ExpenseCents + t.DailyCents + t.EconomyCents
}

// DailyBalance is one day of projection output. It is derived data, fully
// recomputed from the snapshot on every run and never persisted.
type DailyBalance struct {
	Date       Date
	StartCents int64
	EndCents   int64
	Totals     DayTotals
	// Entries are the occurrences realized on this day, manual and
	// projected, in deterministic order.
	Entries []Transaction
	Health  HealthLevel
}
