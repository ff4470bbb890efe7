package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"moneta/internal/core"
)

// CreateTransaction inserts a single ledger entry and returns it with
// its generated id.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := insertTransaction(ctx, r.db, t); err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", t.ID,
		"account_id", t.AccountID,
		"type", string(t.Type),
		"amount_cents", t.AmountCents,
		"date", t.Date.String())
	return t, nil
}

// CreateTransfer writes both legs of a transfer in one database
// transaction, linked by a shared group id. The engine itself never
// assumes this atomicity exists; the ledger simply provides it.
func (r *SQLiteRepository) CreateTransfer(ctx context.Context, out, in core.Transaction) (string, error) {
	group := uuid.NewString()
	out.ID = uuid.NewString()
	in.ID = uuid.NewString()
	out.TransferGroup = group
	in.TransferGroup = group
	out.Type = core.Transfer
	in.Type = core.Transfer

	if err := out.Validate(); err != nil {
		return "", fmt.Errorf("outgoing leg: %w", err)
	}
	if err := in.Validate(); err != nil {
		return "", fmt.Errorf("incoming leg: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transfer: %w", err)
	}
	defer tx.Rollback()

	if err := insertTransaction(ctx, tx, out); err != nil {
		return "", fmt.Errorf("outgoing leg: %w", err)
	}
	if err := insertTransaction(ctx, tx, in); err != nil {
		return "", fmt.Errorf("incoming leg: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit transfer: %w", err)
	}

	slog.InfoContext(ctx, "Transfer created",
		"group", group,
		"from_account", out.AccountID,
		"to_account", in.AccountID)
	return group, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTransaction(ctx context.Context, db execer, t core.Transaction) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO transactions (id, account_id, category_id, amount_cents, type, description, date, transfer_group)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.AccountID, t.CategoryID, t.AmountCents, string(t.Type), t.Description, t.Date.String(), t.TransferGroup)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// ListTransactions returns an account's entries, newest first. Zero
// bounds leave that side of the date range open.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, accountID string, from, to core.Date) ([]core.Transaction, error) {
	query := `SELECT id, account_id, category_id, amount_cents, type, description, date, transfer_group
	          FROM transactions WHERE account_id = ?`
	args := []any{accountID}
	if !from.IsZero() {
		query += ` AND date >= ?`
		args = append(args, from.String())
	}
	if !to.IsZero() {
		query += ` AND date <= ?`
		args = append(args, to.String())
	}
	query += ` ORDER BY date DESC, created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SearchTransactions returns the account's entries matching every set
// dimension of the filter, newest first. Text matches the description
// case-insensitively; amount bounds compare against the absolute value
// so transfer legs match regardless of sign.
func (r *SQLiteRepository) SearchTransactions(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	query := `SELECT t.id, t.account_id, t.category_id, t.amount_cents, t.type, t.description, t.date, t.transfer_group
	          FROM transactions t`
	var args []any
	if f.TagID != "" {
		query += ` JOIN transaction_tags tt ON tt.transaction_id = t.id AND tt.tag_id = ?`
		args = append(args, f.TagID)
	}
	query += ` WHERE t.account_id = ?`
	args = append(args, f.AccountID)

	if f.CategoryID != "" {
		query += ` AND t.category_id = ?`
		args = append(args, f.CategoryID)
	}
	if f.Type != "" {
		query += ` AND t.type = ?`
		args = append(args, string(f.Type))
	}
	if f.MinAmountCents > 0 {
		query += ` AND ABS(t.amount_cents) >= ?`
		args = append(args, f.MinAmountCents)
	}
	if f.MaxAmountCents > 0 {
		query += ` AND ABS(t.amount_cents) <= ?`
		args = append(args, f.MaxAmountCents)
	}
	if f.Text != "" {
		query += ` AND instr(lower(t.description), lower(?)) > 0`
		args = append(args, f.Text)
	}
	if !f.From.IsZero() {
		query += ` AND t.date >= ?`
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		query += ` AND t.date <= ?`
		args = append(args, f.To.String())
	}
	query += ` ORDER BY t.date DESC, t.created_at DESC, t.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTransaction(rows *sql.Rows) (core.Transaction, error) {
	var t core.Transaction
	var txType, date string
	if err := rows.Scan(&t.ID, &t.AccountID, &t.CategoryID, &t.AmountCents, &txType, &t.Description, &date, &t.TransferGroup); err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Type = core.TransactionType(txType)
	parsed, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date %q: %w", date, err)
	}
	t.Date = parsed
	return t, nil
}

// GetBalance derives the account balance from its entries: income adds,
// expense subtracts, transfer legs carry their own sign.
func (r *SQLiteRepository) GetBalance(ctx context.Context, accountID string) (int64, error) {
	var balance int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(CASE type
		        WHEN 'income' THEN amount_cents
		        WHEN 'expense' THEN -amount_cents
		        ELSE amount_cents END), 0)
		 FROM transactions WHERE account_id = ?`, accountID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

// GetIncomeExpenseTotals returns pre-aggregated income and expense sums
// for the account within [from, to]. Transfers are excluded: moving
// money between own accounts is neither income nor spending.
func (r *SQLiteRepository) GetIncomeExpenseTotals(ctx context.Context, accountID string, from, to core.Date) (income, expenses int64, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT
		   COALESCE(SUM(CASE WHEN type = 'income' THEN amount_cents ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN type = 'expense' THEN amount_cents ELSE 0 END), 0)
		 FROM transactions
		 WHERE account_id = ? AND date >= ? AND date <= ?`,
		accountID, from.String(), to.String()).Scan(&income, &expenses)
	if err != nil {
		return 0, 0, fmt.Errorf("get income/expense totals: %w", err)
	}
	return income, expenses, nil
}

// CategoryTotal is a per-category expense sum in the account's currency.
type CategoryTotal struct {
	CategoryID string
	Cents      int64
}

// GetCategorySpending sums expense entries per category for the account
// within [from, to], ordered by category id for stable output.
func (r *SQLiteRepository) GetCategorySpending(ctx context.Context, accountID string, from, to core.Date) ([]CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category_id, SUM(amount_cents)
		 FROM transactions
		 WHERE account_id = ? AND type = 'expense' AND date >= ? AND date <= ?
		 GROUP BY category_id ORDER BY category_id`,
		accountID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("get category spending: %w", err)
	}
	defer rows.Close()

	var out []CategoryTotal
	for rows.Next() {
		var ct CategoryTotal
		if err := rows.Scan(&ct.CategoryID, &ct.Cents); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}
