// Package rates implements rate resolution and integer-exact currency
// conversion. A resolver walks an ordered list of tiers (manual, cached,
// default) and the converter applies the winning micro rate with
// deterministic rounding.
package rates

import (
	"context"
	"fmt"
	"time"

	"moneta/internal/core"
)

// Tier is one prioritized source of exchange rates. Lookup reports a
// miss with ok=false; errors are reserved for the backing store failing.
type Tier interface {
	Source() core.RateSource
	Lookup(ctx context.Context, from, to core.Currency) (micro int64, fetchedAt time.Time, ok bool, err error)
}

// ManualStore reads user-entered rate overrides.
type ManualStore interface {
	GetManualRate(ctx context.Context, from, to core.Currency) (int64, bool, error)
}

// CachedStore reads market rates previously fetched from an upstream
// provider, together with their fetch timestamp.
type CachedStore interface {
	GetCachedRate(ctx context.Context, from, to core.Currency) (int64, time.Time, bool, error)
}

type manualTier struct {
	store ManualStore
}

// NewManualTier wraps a manual-override store as the highest tier.
func NewManualTier(store ManualStore) Tier {
	return &manualTier{store: store}
}

func (t *manualTier) Source() core.RateSource { return core.SourceManual }

func (t *manualTier) Lookup(ctx context.Context, from, to core.Currency) (int64, time.Time, bool, error) {
	micro, ok, err := t.store.GetManualRate(ctx, from, to)
	if err != nil {
		return 0, time.Time{}, false, fmt.Errorf("manual rate lookup: %w", err)
	}
	if !ok || micro <= 0 {
		return 0, time.Time{}, false, nil
	}
	return micro, time.Time{}, true, nil
}

type cachedTier struct {
	store CachedStore
}

// NewCachedTier wraps the market-rate cache as the middle tier.
func NewCachedTier(store CachedStore) Tier {
	return &cachedTier{store: store}
}

func (t *cachedTier) Source() core.RateSource { return core.SourceCached }

func (t *cachedTier) Lookup(ctx context.Context, from, to core.Currency) (int64, time.Time, bool, error) {
	micro, fetchedAt, ok, err := t.store.GetCachedRate(ctx, from, to)
	if err != nil {
		return 0, time.Time{}, false, fmt.Errorf("cached rate lookup: %w", err)
	}
	if !ok || micro <= 0 {
		return 0, time.Time{}, false, nil
	}
	return micro, fetchedAt, true, nil
}

type defaultTier struct {
	table map[pair]int64
}

type pair struct {
	from core.Currency
	to   core.Currency
}

// NewDefaultTier returns the lowest tier, backed by the bundled
// cross-rate table built at init from the shipped USD reference rates.
func NewDefaultTier() Tier {
	return &defaultTier{table: bundledRates}
}

func (t *defaultTier) Source() core.RateSource { return core.SourceDefault }

func (t *defaultTier) Lookup(_ context.Context, from, to core.Currency) (int64, time.Time, bool, error) {
	micro, ok := t.table[pair{from: from, to: to}]
	if !ok {
		return 0, time.Time{}, false, nil
	}
	return micro, time.Time{}, true, nil
}
