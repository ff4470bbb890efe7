package rates

import (
	"context"
	"time"

	"moneta/internal/core"
)

// Resolver answers rate queries by walking its tiers in priority order.
// The first tier with a direct entry wins, even if a lower tier holds a
// fresher value. Only when no tier has a direct entry does the resolver
// try the inverse pair, again in priority order.
type Resolver struct {
	tiers        []Tier
	allowInverse bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithoutInverse disables inverse-pair derivation. The derived inverse
// assumes a symmetric rate, which does not hold for sources that quote
// asymmetric spreads; this switch exists so such deployments can opt out.
func WithoutInverse() Option {
	return func(r *Resolver) { r.allowInverse = false }
}

// NewResolver builds a resolver over tiers ordered highest priority
// first. The usual stack is manual, cached, default.
func NewResolver(tiers []Tier, opts ...Option) *Resolver {
	r := &Resolver{tiers: tiers, allowInverse: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the best available rate for the ordered pair.
// Same-currency pairs resolve to the identity rate without consulting
// any tier. A miss at every tier returns core.ErrRateUnavailable.
func (r *Resolver) Resolve(ctx context.Context, from, to core.Currency) (core.ExchangeRate, error) {
	if from == to {
		return core.IdentityRate(from), nil
	}

	for _, tier := range r.tiers {
		micro, fetchedAt, ok, err := tier.Lookup(ctx, from, to)
		if err != nil {
			return core.ExchangeRate{}, err
		}
		if ok {
			return core.ExchangeRate{
				From:      from,
				To:        to,
				MicroRate: micro,
				Source:    tier.Source(),
				FetchedAt: fetchedAt,
			}, nil
		}
	}

	if r.allowInverse {
		for _, tier := range r.tiers {
			micro, fetchedAt, ok, err := tier.Lookup(ctx, to, from)
			if err != nil {
				return core.ExchangeRate{}, err
			}
			if !ok {
				continue
			}
			inverted := invertMicro(micro)
			if inverted <= 0 {
				continue
			}
			return core.ExchangeRate{
				From:      from,
				To:        to,
				MicroRate: inverted,
				Source:    tier.Source(),
				FetchedAt: fetchedAt,
			}, nil
		}
	}

	return core.ExchangeRate{}, core.ErrRateUnavailable
}

// Freshness reports which tier would currently answer for the pair and
// how old its data is. Age is meaningful only for the cached tier;
// manual and default entries have no decay concept.
type Freshness struct {
	Source    core.RateSource
	FetchedAt time.Time
	Age       time.Duration
	HasAge    bool
}

// FreshnessOf derives provenance from an already-resolved rate. Age
// tracking lives here and nowhere else.
func FreshnessOf(rate core.ExchangeRate, now time.Time) Freshness {
	f := Freshness{Source: rate.Source, FetchedAt: rate.FetchedAt}
	if rate.Source == core.SourceCached && !rate.FetchedAt.IsZero() {
		f.Age = now.Sub(rate.FetchedAt)
		f.HasAge = true
	}
	return f
}

// Freshness resolves the pair like Resolve does and reports provenance
// instead of the rate itself.
func (r *Resolver) Freshness(ctx context.Context, from, to core.Currency, now time.Time) (Freshness, error) {
	rate, err := r.Resolve(ctx, from, to)
	if err != nil {
		return Freshness{}, err
	}
	return FreshnessOf(rate, now), nil
}

// invertMicro derives to→from from a from→to micro rate. With both
// rates at micro scale the identity is micro * inverse == MicroScale².
func invertMicro(micro int64) int64 {
	if micro <= 0 {
		return 0
	}
	return (core.MicroScale * core.MicroScale) / micro
}
