package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"moneta/internal/core"
)

func (r *SQLiteRepository) CreateTag(ctx context.Context, userID, name, color string) (core.Tag, error) {
	tag := core.Tag{ID: uuid.NewString(), UserID: userID, Name: name, Color: color}
	if err := tag.Validate(); err != nil {
		return core.Tag{}, err
	}

	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO tags (id, user_id, name, color) VALUES (?, ?, ?, ?)`,
		tag.ID, tag.UserID, tag.Name, tag.Color); err != nil {
		return core.Tag{}, fmt.Errorf("insert tag: %w", err)
	}

	slog.InfoContext(ctx, "Tag created", "id", tag.ID, "user_id", userID, "name", name)
	return tag, nil
}

func (r *SQLiteRepository) ListTags(ctx context.Context, userID string) ([]core.Tag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, color FROM tags WHERE user_id = ? ORDER BY name, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []core.Tag
	for rows.Next() {
		var t core.Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Color); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// DeleteTag removes the tag and detaches it from every transaction.
func (r *SQLiteRepository) DeleteTag(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tag: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transaction_tags WHERE tag_id = ?`, id); err != nil {
		return fmt.Errorf("detach tag: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return tx.Commit()
}

// SetTransactionTags replaces a transaction's tag set in one database
// transaction. Passing an empty list clears all tags.
func (r *SQLiteRepository) SetTransactionTags(ctx context.Context, transactionID string, tagIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set transaction tags: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM transactions WHERE id = ?`, transactionID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check transaction: %w", err)
	}

	if len(tagIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(tagIDs)), ",")
		args := make([]any, len(tagIDs))
		for i, id := range tagIDs {
			args[i] = id
		}
		var known int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM tags WHERE id IN (`+placeholders+`)`, args...).Scan(&known)
		if err != nil {
			return fmt.Errorf("check tags: %w", err)
		}
		if known != len(tagIDs) {
			return core.ErrNotFound
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM transaction_tags WHERE transaction_id = ?`, transactionID); err != nil {
		return fmt.Errorf("clear transaction tags: %w", err)
	}
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transaction_tags (transaction_id, tag_id) VALUES (?, ?)`,
			transactionID, tagID); err != nil {
			return fmt.Errorf("attach tag %s: %w", tagID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit set transaction tags: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListTransactionTags(ctx context.Context, transactionID string) ([]core.Tag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.user_id, t.name, t.color
		 FROM tags t JOIN transaction_tags tt ON tt.tag_id = t.id
		 WHERE tt.transaction_id = ? ORDER BY t.name, t.id`, transactionID)
	if err != nil {
		return nil, fmt.Errorf("list transaction tags: %w", err)
	}
	defer rows.Close()

	var tags []core.Tag
	for rows.Next() {
		var t core.Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Color); err != nil {
			return nil, fmt.Errorf("scan transaction tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
