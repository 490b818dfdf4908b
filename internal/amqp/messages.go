package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"flowcast/internal/core"
)

// Message kinds carried on the mutation queue.
const (
	KindOverrideUpsert    = "override_upsert"
	KindTransactionCreate = "transaction_create"
)

var ErrUnknownKind = errors.New("unknown mutation kind")

// MutationMessage is one requested write. The engine never mutates state
// itself; edits travel through the queue and the worker applies them, so a
// burst of edits from the UI serializes into one writer.
type MutationMessage struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	Override    *OverridePayload    `json:"override,omitempty"`
	Transaction *TransactionPayload `json:"transaction,omitempty"`
}

// OverridePayload is the wire form of a recurrence override.
type OverridePayload struct {
	ID            string    `json:"id"`
	RecurrenceID  string    `json:"recurrence_id"`
	EffectiveFrom core.Date `json:"effective_from"`
	Scope         string    `json:"scope"`
	Delete        bool      `json:"delete,omitempty"`

	AmountCents *int64  `json:"amount_cents,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	AccountID   *string `json:"account_id,omitempty"`
	CardID      *string `json:"card_id,omitempty"`
	Status      *string `json:"status,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TransactionPayload is the wire form of a ledger transaction.
type TransactionPayload struct {
	ID           string    `json:"id"`
	Description  string    `json:"description"`
	AmountCents  int64     `json:"amount_cents"`
	Date         core.Date `json:"date"`
	PurchaseDate core.Date `json:"purchase_date,omitempty"`
	Type         string    `json:"type"`
	Category     string    `json:"category,omitempty"`
	Status       string    `json:"status"`
	AccountID    string    `json:"account_id,omitempty"`
	CardID       string    `json:"card_id,omitempty"`
	SourceID     string    `json:"source_id,omitempty"`
}

// NewOverrideUpsertMessage wraps an override into a queue message.
func NewOverrideUpsertMessage(ov core.RecurrenceOverride) *MutationMessage {
	payload := &OverridePayload{
		ID:            ov.ID,
		RecurrenceID:  ov.RecurrenceID,
		EffectiveFrom: ov.EffectiveFrom,
		Scope:         string(ov.Scope),
		Delete:        ov.Delete,
		CreatedAt:     ov.CreatedAt,
	}
	if ov.Patch.Amount != nil {
		cents := ov.Patch.Amount.Cents
		payload.AmountCents = &cents
	}
	payload.Description = ov.Patch.Description
	payload.Category = ov.Patch.Category
	if ov.Patch.Status != nil {
		s := string(*ov.Patch.Status)
		payload.Status = &s
	}
	if ov.Patch.Target != nil {
		if id, ok := ov.Patch.Target.AccountID(); ok {
			payload.AccountID = &id
		}
		if id, ok := ov.Patch.Target.CardID(); ok {
			payload.CardID = &id
		}
	}
	return &MutationMessage{
		Kind:      KindOverrideUpsert,
		ID:        ov.ID,
		Timestamp: time.Now(),
		Override:  payload,
	}
}

// NewTransactionCreateMessage wraps a transaction into a queue message.
func NewTransactionCreateMessage(tx core.Transaction) *MutationMessage {
	payload := &TransactionPayload{
		ID:           tx.ID,
		Description:  tx.Description,
		AmountCents:  tx.Amount.Cents,
		Date:         tx.Date,
		PurchaseDate: tx.PurchaseDate,
		Type:         string(tx.Type),
		Category:     tx.Category,
		Status:       string(tx.Status),
		SourceID:     tx.SourceID,
	}
	if id, ok := tx.Target.AccountID(); ok {
		payload.AccountID = id
	}
	if id, ok := tx.Target.CardID(); ok {
		payload.CardID = id
	}
	return &MutationMessage{
		Kind:        KindTransactionCreate,
		ID:          tx.ID,
		Timestamp:   time.Now(),
		Transaction: payload,
	}
}

// Validate checks that the message carries the payload its kind demands.
func (m *MutationMessage) Validate() error {
	switch m.Kind {
	case KindOverrideUpsert:
		if m.Override == nil {
			return fmt.Errorf("%s message without override payload", m.Kind)
		}
	case KindTransactionCreate:
		if m.Transaction == nil {
			return fmt.Errorf("%s message without transaction payload", m.Kind)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, m.Kind)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *MutationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MutationMessageFromJSON creates a message from JSON bytes
func MutationMessageFromJSON(data []byte) (*MutationMessage, error) {
	var msg MutationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ToCore converts the payload back into the domain override.
func (p *OverridePayload) ToCore() core.RecurrenceOverride {
	ov := core.RecurrenceOverride{
		ID:            p.ID,
		RecurrenceID:  p.RecurrenceID,
		EffectiveFrom: p.EffectiveFrom,
		Scope:         core.OverrideScope(p.Scope),
		Delete:        p.Delete,
		CreatedAt:     p.CreatedAt,
	}
	if p.AmountCents != nil {
		ov.Patch.Amount = &core.Money{Cents: *p.AmountCents}
	}
	ov.Patch.Description = p.Description
	ov.Patch.Category = p.Category
	if p.Status != nil {
		s := core.TransactionStatus(*p.Status)
		ov.Patch.Status = &s
	}
	if p.AccountID != nil {
		t := core.AccountTarget(*p.AccountID)
		ov.Patch.Target = &t
	} else if p.CardID != nil {
		t := core.CardTarget(*p.CardID)
		ov.Patch.Target = &t
	}
	return ov
}

// ToCore converts the payload back into the domain transaction.
func (p *TransactionPayload) ToCore() core.Transaction {
	tx := core.Transaction{
		ID:           p.ID,
		Description:  p.Description,
		Amount:       core.Money{Cents: p.AmountCents},
		Date:         p.Date,
		PurchaseDate: p.PurchaseDate,
		Type:         core.TransactionType(p.Type),
		Category:     p.Category,
		Status:       core.TransactionStatus(p.Status),
		SourceID:     p.SourceID,
		Origin:       core.OriginReal,
	}
	if p.AccountID != "" {
		tx.Target = core.AccountTarget(p.AccountID)
	} else if p.CardID != "" {
		tx.Target = core.CardTarget(p.CardID)
	}
	return tx
}
