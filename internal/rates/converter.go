package rates

import (
	"context"
	"math"
	"math/big"

	"moneta/internal/core"
)

// Converter turns an amount in one currency into another using the
// resolver's best rate. Rounding is half away from zero and fully
// deterministic: identical inputs always produce identical cents, which
// is what makes repeated aggregation calls byte-identical.
type Converter struct {
	resolver *Resolver
}

// NewConverter builds a converter over a resolver.
func NewConverter(resolver *Resolver) *Converter {
	return &Converter{resolver: resolver}
}

// Convert converts amount into the target currency. Same-currency input
// is returned unchanged with the identity source. A rate miss surfaces
// core.ErrRateUnavailable; the converter never substitutes 1:1 itself.
// That fallback belongs to the aggregation caller, which must also flag
// the result as approximate.
func (c *Converter) Convert(ctx context.Context, amount core.Money, to core.Currency) (core.ConversionResult, error) {
	if amount.Currency == to {
		return core.ConversionResult{
			Original:  amount,
			Converted: amount,
			MicroRate: core.MicroScale,
			Source:    core.SourceIdentity,
		}, nil
	}

	rate, err := c.resolver.Resolve(ctx, amount.Currency, to)
	if err != nil {
		return core.ConversionResult{}, err
	}

	converted := ApplyMicroRate(amount.Cents, rate.MicroRate)
	return core.ConversionResult{
		Original:  amount,
		Converted: core.Money{Cents: converted, Currency: to},
		MicroRate: rate.MicroRate,
		Source:    rate.Source,
		FetchedAt: rate.FetchedAt,
	}, nil
}

// ApplyMicroRate computes round(cents * micro / MicroScale) with
// rounding half away from zero. The int64 product is used when it
// cannot overflow; otherwise the multiplication is done at arbitrary
// precision before dividing, so extreme amounts against four-digit
// rates (COP, ARS, KRW) stay exact.
func ApplyMicroRate(cents, micro int64) int64 {
	if micro <= 0 {
		return 0
	}
	// MinInt64 has no int64 absolute value, so the overflow guard below
	// cannot reason about it.
	if cents == math.MinInt64 {
		return applyMicroRateBig(cents, micro)
	}
	abs := cents
	if abs < 0 {
		abs = -abs
	}
	if abs <= math.MaxInt64/micro {
		return roundDiv(cents*micro, core.MicroScale)
	}
	return applyMicroRateBig(cents, micro)
}

func applyMicroRateBig(cents, micro int64) int64 {
	product := new(big.Int).Mul(big.NewInt(cents), big.NewInt(micro))
	quo, rem := new(big.Int).QuoRem(product, big.NewInt(core.MicroScale), new(big.Int))
	remAbs := new(big.Int).Abs(rem)
	if remAbs.Mul(remAbs, big.NewInt(2)).Cmp(big.NewInt(core.MicroScale)) >= 0 {
		if product.Sign() < 0 {
			quo.Sub(quo, big.NewInt(1))
		} else {
			quo.Add(quo, big.NewInt(1))
		}
	}
	return quo.Int64()
}

// roundDiv divides with rounding half away from zero.
func roundDiv(n, d int64) int64 {
	q := n / d
	r := n % d
	if r < 0 {
		r = -r
	}
	if 2*r >= d {
		if n < 0 {
			return q - 1
		}
		return q + 1
	}
	return q
}
