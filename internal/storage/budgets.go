package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"moneta/internal/core"
)

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (id, account_id, category_id, name, amount_cents, period, start_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.AccountID, b.CategoryID, b.Name, b.AmountCents, string(b.Period), b.StartDate.String()); err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget created",
		"id", b.ID, "account_id", b.AccountID, "period", string(b.Period))
	return b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, accountID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, category_id, name, amount_cents, period, start_date
		 FROM budgets WHERE account_id = ? AND deleted_at IS NULL ORDER BY created_at, id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func scanBudget(rows *sql.Rows) (core.Budget, error) {
	var b core.Budget
	var period, startDate string
	if err := rows.Scan(&b.ID, &b.AccountID, &b.CategoryID, &b.Name, &b.AmountCents, &period, &startDate); err != nil {
		return core.Budget{}, fmt.Errorf("scan budget: %w", err)
	}
	b.Period = core.BudgetPeriod(period)
	parsed, err := core.ParseDate(startDate)
	if err != nil {
		return core.Budget{}, fmt.Errorf("parse budget start date %q: %w", startDate, err)
	}
	b.StartDate = parsed
	return b, nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}
