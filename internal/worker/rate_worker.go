// Package worker applies market-rate batches to the cached tier.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"moneta/internal/amqp"
	"moneta/internal/core"
	"moneta/internal/storage"
)

// RateStore is the write side of the cached tier.
type RateStore interface {
	UpdateCachedRates(ctx context.Context, batch []storage.CachedRate, fetchedAt time.Time) error
}

// RateWorker turns incoming rate batches into cached-tier upserts.
type RateWorker struct {
	store RateStore
}

func NewRateWorker(store RateStore) *RateWorker {
	return &RateWorker{store: store}
}

// HandleRateBatch applies one batch. Batches without a fetch timestamp
// are stamped on arrival so freshness queries always have an age.
func (w *RateWorker) HandleRateBatch(ctx context.Context, msg *amqp.RateBatchMessage) error {
	if len(msg.Rates) == 0 {
		slog.WarnContext(ctx, "Ignoring empty rate batch")
		return nil
	}

	fetchedAt := msg.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	batch := make([]storage.CachedRate, 0, len(msg.Rates))
	for _, e := range msg.Rates {
		batch = append(batch, storage.CachedRate{
			From:      core.Currency(e.From),
			To:        core.Currency(e.To),
			MicroRate: e.MicroRate,
		})
	}

	if err := w.store.UpdateCachedRates(ctx, batch, fetchedAt); err != nil {
		return fmt.Errorf("update cached rates: %w", err)
	}
	return nil
}
