package core

import "errors"

var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidCurrency        = errors.New("invalid currency code")
	ErrCurrencyMismatch       = errors.New("currency mismatch")
	ErrInvalidDate            = errors.New("invalid date")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidFrequency       = errors.New("invalid frequency")
	ErrInvalidBudgetPeriod    = errors.New("invalid budget period")
	ErrEmptyName              = errors.New("empty name")
	ErrNameTooLong            = errors.New("name too long (max 50 characters)")
	ErrMissingAccount         = errors.New("missing account id")
	ErrDescriptionTooLong     = errors.New("description too long (max 200 characters)")
	ErrEndBeforeStart         = errors.New("end date must not be before start date")

	// ErrRateUnavailable means no tier could resolve a currency pair,
	// directly or by inversion. Aggregation callers recover from it with
	// the raw-amount fallback; it is never fatal to a summary.
	ErrRateUnavailable = errors.New("exchange rate unavailable")

	// ErrInvalidRate rejects non-positive micro rates on the write path.
	ErrInvalidRate = errors.New("invalid exchange rate")

	// ErrLedgerFetch wraps failures reading base data from the ledger.
	// Unlike rate misses, these are fatal to the calling operation.
	ErrLedgerFetch = errors.New("ledger fetch failed")

	// ErrInvalidBudgetWindow means a budget's period and start date cannot
	// produce a window containing now. Batch progress skips such budgets.
	ErrInvalidBudgetWindow = errors.New("invalid budget window")

	ErrNotFound = errors.New("not found")
)
