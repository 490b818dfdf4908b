package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"flowcast/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadSnapshot reads the full ledger in one shot. The dataset is one
// household's finances, so loading everything beats query plumbing.
func (r *SQLiteRepository) LoadSnapshot(ctx context.Context) (core.Snapshot, error) {
	var snap core.Snapshot
	var err error

	if snap.Accounts, err = r.loadAccounts(ctx); err != nil {
		return snap, fmt.Errorf("load accounts: %w", err)
	}
	if snap.Cards, err = r.loadCards(ctx); err != nil {
		return snap, fmt.Errorf("load cards: %w", err)
	}
	if snap.Transactions, err = r.loadTransactions(ctx); err != nil {
		return snap, fmt.Errorf("load transactions: %w", err)
	}
	if snap.Recurrences, err = r.loadRecurrences(ctx); err != nil {
		return snap, fmt.Errorf("load recurrences: %w", err)
	}
	if snap.Overrides, err = r.loadOverrides(ctx); err != nil {
		return snap, fmt.Errorf("load overrides: %w", err)
	}
	return snap, nil
}

func (r *SQLiteRepository) loadAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, type, initial_balance_cents, color FROM accounts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		var typ string
		if err := rows.Scan(&a.ID, &a.Name, &typ, &a.InitialBalanceCents, &a.Color); err != nil {
			return nil, err
		}
		a.Type = core.AccountType(typ)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *SQLiteRepository) loadCards(ctx context.Context) ([]core.CreditCard, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, closing_day, due_day, limit_cents, color FROM credit_cards ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []core.CreditCard
	for rows.Next() {
		var c core.CreditCard
		if err := rows.Scan(&c.ID, &c.Name, &c.ClosingDay, &c.DueDay, &c.LimitCents, &c.Color); err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func (r *SQLiteRepository) loadTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, amount_cents, date, purchase_date, type, category,
		        status, account_id, card_id, installment_num, installment_total, source_id
		 FROM transactions ORDER BY date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var date, purchaseDate, typ, status, accountID, cardID string
		if err := rows.Scan(&t.ID, &t.Description, &t.Amount.Cents, &date, &purchaseDate,
			&typ, &t.Category, &status, &accountID, &cardID,
			&t.InstallmentNum, &t.InstallmentTotal, &t.SourceID); err != nil {
			return nil, err
		}
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		if purchaseDate != "" {
			if t.PurchaseDate, err = core.ParseDate(purchaseDate); err != nil {
				return nil, fmt.Errorf("transaction %s purchase date: %w", t.ID, err)
			}
		}
		t.Type = core.TransactionType(typ)
		t.Status = core.TransactionStatus(status)
		t.Target = targetFromIDs(accountID, cardID)
		t.Origin = core.OriginReal
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (r *SQLiteRepository) loadRecurrences(ctx context.Context) ([]core.Recurrence, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, amount_cents, type, category, frequency, start_from,
		        end_date, occurrence_count, active, day_of_month, account_id, card_id
		 FROM recurrences ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []core.Recurrence
	for rows.Next() {
		var rec core.Recurrence
		var typ, freq, startFrom, endDate, accountID, cardID string
		if err := rows.Scan(&rec.ID, &rec.Description, &rec.Amount.Cents, &typ, &rec.Category,
			&freq, &startFrom, &endDate, &rec.OccurrenceCount, &rec.Active,
			&rec.DayOfMonth, &accountID, &cardID); err != nil {
			return nil, err
		}
		rec.Type = core.TransactionType(typ)
		rec.Frequency = core.Frequency(freq)
		// An unparseable start date is surfaced during projection, not here.
		if startFrom != "" {
			rec.StartFrom, _ = core.ParseDate(startFrom)
		}
		if endDate != "" {
			if rec.EndDate, err = core.ParseDate(endDate); err != nil {
				return nil, fmt.Errorf("recurrence %s end date: %w", rec.ID, err)
			}
		}
		rec.Target = targetFromIDs(accountID, cardID)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (r *SQLiteRepository) loadOverrides(ctx context.Context) ([]core.RecurrenceOverride, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, recurrence_id, effective_from, scope, delete_flag, amount_cents,
		        description, category, account_id, card_id, status, created_at
		 FROM recurrence_overrides ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overrides []core.RecurrenceOverride
	for rows.Next() {
		var ov core.RecurrenceOverride
		var effectiveFrom, scope string
		var amountCents sql.NullInt64
		var description, category, accountID, cardID, status sql.NullString
		if err := rows.Scan(&ov.ID, &ov.RecurrenceID, &effectiveFrom, &scope, &ov.Delete,
			&amountCents, &description, &category, &accountID, &cardID, &status,
			&ov.CreatedAt); err != nil {
			return nil, err
		}
		if ov.EffectiveFrom, err = core.ParseDate(effectiveFrom); err != nil {
			return nil, fmt.Errorf("override %s: %w", ov.ID, err)
		}
		ov.Scope = core.OverrideScope(scope)
		if amountCents.Valid {
			ov.Patch.Amount = &core.Money{Cents: amountCents.Int64}
		}
		if description.Valid {
			ov.Patch.Description = &description.String
		}
		if category.Valid {
			ov.Patch.Category = &category.String
		}
		if status.Valid {
			s := core.TransactionStatus(status.String)
			ov.Patch.Status = &s
		}
		if accountID.Valid && accountID.String != "" {
			t := core.AccountTarget(accountID.String)
			ov.Patch.Target = &t
		} else if cardID.Valid && cardID.String != "" {
			t := core.CardTarget(cardID.String)
			ov.Patch.Target = &t
		}
		overrides = append(overrides, ov)
	}
	return overrides, rows.Err()
}

// ApplyOverride upserts on (recurrence_id, effective_from, scope) so the
// stored row is always the newest fact for that pool.
func (r *SQLiteRepository) ApplyOverride(ctx context.Context, ov core.RecurrenceOverride) error {
	if err := ov.Validate(); err != nil {
		return fmt.Errorf("invalid override: %w", err)
	}

	var amountCents sql.NullInt64
	if ov.Patch.Amount != nil {
		amountCents = sql.NullInt64{Int64: ov.Patch.Amount.Cents, Valid: true}
	}
	description := nullString(ov.Patch.Description)
	category := nullString(ov.Patch.Category)
	var status sql.NullString
	if ov.Patch.Status != nil {
		status = sql.NullString{String: string(*ov.Patch.Status), Valid: true}
	}
	var accountID, cardID sql.NullString
	if ov.Patch.Target != nil {
		if id, ok := ov.Patch.Target.AccountID(); ok {
			accountID = sql.NullString{String: id, Valid: true}
		}
		if id, ok := ov.Patch.Target.CardID(); ok {
			cardID = sql.NullString{String: id, Valid: true}
		}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recurrence_overrides
		   (id, recurrence_id, effective_from, scope, delete_flag, amount_cents,
		    description, category, account_id, card_id, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(recurrence_id, effective_from, scope) DO UPDATE SET
		   id = excluded.id,
		   delete_flag = excluded.delete_flag,
		   amount_cents = excluded.amount_cents,
		   description = excluded.description,
		   category = excluded.category,
		   account_id = excluded.account_id,
		   card_id = excluded.card_id,
		   status = excluded.status,
		   created_at = excluded.created_at
		 WHERE excluded.created_at >= recurrence_overrides.created_at`,
		ov.ID, ov.RecurrenceID, ov.EffectiveFrom.String(), string(ov.Scope), ov.Delete,
		amountCents, description, category, accountID, cardID, status, ov.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert override: %w", err)
	}

	slog.InfoContext(ctx, "override applied",
		"id", ov.ID,
		"recurrence_id", ov.RecurrenceID,
		"effective_from", ov.EffectiveFrom.String(),
		"scope", string(ov.Scope))
	return nil
}

// CreateTransaction persists a ledger record. Inserts are idempotent on ID so
// a redelivered queue message cannot duplicate a row.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("invalid transaction: %w", err)
	}

	accountID, cardID := idsFromTarget(tx.Target)
	purchaseDate := ""
	if !tx.PurchaseDate.IsZero() {
		purchaseDate = tx.PurchaseDate.String()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions
		   (id, description, amount_cents, date, purchase_date, type, category,
		    status, account_id, card_id, installment_num, installment_total, source_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		tx.ID, tx.Description, tx.Amount.Cents, tx.Date.String(), purchaseDate,
		string(tx.Type), tx.Category, string(tx.Status), accountID, cardID,
		tx.InstallmentNum, tx.InstallmentTotal, tx.SourceID)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "transaction saved",
		"id", tx.ID,
		"description", tx.Description,
		"amount_cents", tx.Amount.Cents,
		"date", tx.Date.String())
	return nil
}

func targetFromIDs(accountID, cardID string) core.Target {
	switch {
	case accountID != "":
		return core.AccountTarget(accountID)
	case cardID != "":
		return core.CardTarget(cardID)
	default:
		return core.Target{}
	}
}

func idsFromTarget(t core.Target) (accountID, cardID string) {
	if id, ok := t.AccountID(); ok {
		return id, ""
	}
	if id, ok := t.CardID(); ok {
		return "", id
	}
	return "", ""
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
