package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"moneta/internal/core"
)

// GetManualRate reads a user-entered override for the exact ordered pair.
func (r *SQLiteRepository) GetManualRate(ctx context.Context, from, to core.Currency) (int64, bool, error) {
	var micro int64
	err := r.db.QueryRowContext(ctx,
		`SELECT micro_rate FROM manual_rates WHERE from_currency = ? AND to_currency = ?`,
		string(from), string(to)).Scan(&micro)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get manual rate: %w", err)
	}
	return micro, true, nil
}

// SetManualRate upserts a manual override for an ordered pair.
func (r *SQLiteRepository) SetManualRate(ctx context.Context, from, to core.Currency, micro int64) error {
	if micro <= 0 {
		return core.ErrInvalidRate
	}
	if from == to {
		return core.ErrCurrencyMismatch
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO manual_rates (from_currency, to_currency, micro_rate, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (from_currency, to_currency)
		 DO UPDATE SET micro_rate = excluded.micro_rate, updated_at = CURRENT_TIMESTAMP`,
		string(from), string(to), micro)
	if err != nil {
		return fmt.Errorf("set manual rate: %w", err)
	}
	slog.InfoContext(ctx, "Manual rate set",
		"from", string(from), "to", string(to), "micro_rate", micro)
	return nil
}

// GetCachedRate reads the market rate last fetched for the ordered pair.
func (r *SQLiteRepository) GetCachedRate(ctx context.Context, from, to core.Currency) (int64, time.Time, bool, error) {
	var micro int64
	var fetchedAt time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT micro_rate, fetched_at FROM cached_rates WHERE from_currency = ? AND to_currency = ?`,
		string(from), string(to)).Scan(&micro, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, time.Time{}, false, nil
	}
	if err != nil {
		return 0, time.Time{}, false, fmt.Errorf("get cached rate: %w", err)
	}
	return micro, fetchedAt, true, nil
}

// CachedRate is one entry of a market-rate batch.
type CachedRate struct {
	From      core.Currency
	To        core.Currency
	MicroRate int64
}

// UpdateCachedRates upserts a fetched batch in one transaction so a
// conversion racing the update sees either the old snapshot or the new
// one per pair, never a torn write within a pair.
func (r *SQLiteRepository) UpdateCachedRates(ctx context.Context, batch []CachedRate, fetchedAt time.Time) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rate batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO cached_rates (from_currency, to_currency, micro_rate, fetched_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (from_currency, to_currency)
		 DO UPDATE SET micro_rate = excluded.micro_rate, fetched_at = excluded.fetched_at`)
	if err != nil {
		return fmt.Errorf("prepare rate upsert: %w", err)
	}
	defer stmt.Close()

	applied := 0
	for _, entry := range batch {
		if entry.MicroRate <= 0 || entry.From == entry.To {
			continue
		}
		if _, err := stmt.ExecContext(ctx, string(entry.From), string(entry.To), entry.MicroRate, fetchedAt); err != nil {
			return fmt.Errorf("upsert cached rate %s/%s: %w", entry.From, entry.To, err)
		}
		applied++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rate batch: %w", err)
	}

	slog.InfoContext(ctx, "Cached rates updated",
		"applied", applied, "skipped", len(batch)-applied, "fetched_at", fetchedAt)
	return nil
}
