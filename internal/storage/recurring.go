package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"moneta/internal/core"
)

func (r *SQLiteRepository) CreateRecurringTemplate(ctx context.Context, rt core.RecurringTemplate) (core.RecurringTemplate, error) {
	if rt.ID == "" {
		rt.ID = uuid.NewString()
	}
	if rt.NextDueDate.IsZero() {
		rt.NextDueDate = rt.StartDate
	}
	if err := rt.Validate(); err != nil {
		return core.RecurringTemplate{}, err
	}

	var endDate any
	if !rt.EndDate.IsZero() {
		endDate = rt.EndDate.String()
	}

	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_templates
		   (id, account_id, category_id, amount_cents, type, description, frequency, start_date, end_date, next_due_date, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rt.ID, rt.AccountID, rt.CategoryID, rt.AmountCents, string(rt.Type), rt.Description,
		string(rt.Frequency), rt.StartDate.String(), endDate, rt.NextDueDate.String(),
		boolToInt(rt.IsActive)); err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("insert recurring template: %w", err)
	}

	slog.InfoContext(ctx, "Recurring template created",
		"id", rt.ID,
		"account_id", rt.AccountID,
		"frequency", string(rt.Frequency),
		"next_due", rt.NextDueDate.String())
	return rt, nil
}

// ListActiveRecurringTemplates returns every active template across all
// accounts, ordered by id so processing order is stable.
func (r *SQLiteRepository) ListActiveRecurringTemplates(ctx context.Context) ([]core.RecurringTemplate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, category_id, amount_cents, type, description, frequency, start_date, end_date, next_due_date, is_active
		 FROM recurring_templates WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list active recurring templates: %w", err)
	}
	defer rows.Close()

	var templates []core.RecurringTemplate
	for rows.Next() {
		rt, err := scanRecurringTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, rt)
	}
	return templates, rows.Err()
}

func (r *SQLiteRepository) ListRecurringTemplates(ctx context.Context, accountID string) ([]core.RecurringTemplate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, category_id, amount_cents, type, description, frequency, start_date, end_date, next_due_date, is_active
		 FROM recurring_templates WHERE account_id = ? ORDER BY created_at, id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list recurring templates: %w", err)
	}
	defer rows.Close()

	var templates []core.RecurringTemplate
	for rows.Next() {
		rt, err := scanRecurringTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, rt)
	}
	return templates, rows.Err()
}

func scanRecurringTemplate(rows *sql.Rows) (core.RecurringTemplate, error) {
	var rt core.RecurringTemplate
	var txType, frequency, startDate, nextDue string
	var endDate sql.NullString
	var active int
	if err := rows.Scan(&rt.ID, &rt.AccountID, &rt.CategoryID, &rt.AmountCents, &txType, &rt.Description,
		&frequency, &startDate, &endDate, &nextDue, &active); err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("scan recurring template: %w", err)
	}
	rt.Type = core.TransactionType(txType)
	rt.Frequency = core.Frequency(frequency)
	rt.IsActive = active != 0

	var err error
	if rt.StartDate, err = core.ParseDate(startDate); err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("parse start date %q: %w", startDate, err)
	}
	if rt.NextDueDate, err = core.ParseDate(nextDue); err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("parse next due date %q: %w", nextDue, err)
	}
	if endDate.Valid {
		if rt.EndDate, err = core.ParseDate(endDate.String); err != nil {
			return core.RecurringTemplate{}, fmt.Errorf("parse end date %q: %w", endDate.String, err)
		}
	}
	return rt, nil
}

// UpdateRecurringTemplate moves a template's cursor and active flag.
func (r *SQLiteRepository) UpdateRecurringTemplate(ctx context.Context, id string, nextDue core.Date, isActive bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_templates SET next_due_date = ?, is_active = ? WHERE id = ?`,
		nextDue.String(), boolToInt(isActive), id)
	if err != nil {
		return fmt.Errorf("update recurring template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ApplyRecurrence persists one template's materialized occurrences and
// its advanced cursor in a single database transaction. All-or-nothing
// per template is what makes reprocessing idempotent: either the cursor
// moved past the occurrences or nothing was written at all.
func (r *SQLiteRepository) ApplyRecurrence(ctx context.Context, templateID string, txns []core.Transaction, nextDue core.Date, isActive bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin apply recurrence: %w", err)
	}
	defer tx.Rollback()

	for _, t := range txns {
		if err := insertTransaction(ctx, tx, t); err != nil {
			return fmt.Errorf("materialize occurrence: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE recurring_templates SET next_due_date = ?, is_active = ? WHERE id = ?`,
		nextDue.String(), boolToInt(isActive), templateID)
	if err != nil {
		return fmt.Errorf("advance template cursor: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit apply recurrence: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
