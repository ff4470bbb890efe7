package core

import "time"

// MicroScale is the fixed-point scale for exchange rates: a decimal rate
// of 0.92 is stored as micro rate 920000. Keeping rates integral keeps
// every conversion reproducible bit for bit.
const MicroScale int64 = 1_000_000

// RateSource identifies which tier answered a rate lookup. Tiers are
// totally ordered: Manual beats Cached beats Default. Identity is the
// implicit same-currency rate and never stored anywhere.
type RateSource int

const (
	SourceIdentity RateSource = iota
	SourceManual
	SourceCached
	SourceDefault
)

func (s RateSource) String() string {
	switch s {
	case SourceIdentity:
		return "identity"
	case SourceManual:
		return "manual"
	case SourceCached:
		return "cached"
	case SourceDefault:
		return "default"
	default:
		return "unknown"
	}
}

// ExchangeRate is a resolved rate for an ordered currency pair.
// FetchedAt is zero except for the cached tier, which records when the
// upstream provider was last consulted.
type ExchangeRate struct {
	From      Currency
	To        Currency
	MicroRate int64
	Source    RateSource
	FetchedAt time.Time
}

// IdentityRate returns the implicit 1:1 rate for a same-currency pair.
func IdentityRate(c Currency) ExchangeRate {
	return ExchangeRate{From: c, To: c, MicroRate: MicroScale, Source: SourceIdentity}
}

// ConversionResult carries a converted amount together with provenance:
// the exact micro rate applied and which tier supplied it.
type ConversionResult struct {
	Original  Money
	Converted Money
	MicroRate int64
	Source    RateSource
	FetchedAt time.Time
}
