package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"moneta/internal/core"
	"moneta/internal/rates"
)

// DefaultTrendMonths is how many trailing months the dashboard trend
// covers when not configured otherwise.
const DefaultTrendMonths = 6

// AggregationService rolls per-account, per-currency ledger data up into
// a single-currency dashboard summary. It is a pure function over the
// snapshot the ledger returns: with unchanged ledger data and unchanged
// rate sources, repeated calls produce identical summaries.
type AggregationService struct {
	ledger      Ledger
	converter   *rates.Converter
	trendMonths int
}

// NewAggregationService creates the dashboard aggregator. trendMonths
// values below 1 fall back to the default.
func NewAggregationService(ledger Ledger, converter *rates.Converter, trendMonths int) *AggregationService {
	if trendMonths < 1 {
		trendMonths = DefaultTrendMonths
	}
	return &AggregationService{ledger: ledger, converter: converter, trendMonths: trendMonths}
}

// accountData is the per-account snapshot fetched up front so every
// later step works over the same data.
type accountData struct {
	account core.Account
	txns    []core.Transaction
}

// Summarize computes the full dashboard rollup for a user in the target
// currency. Only the initial ledger fetch can fail; every rate miss
// after that degrades just its own contribution via the raw-value
// fallback and marks the summary approximate.
func (s *AggregationService) Summarize(ctx context.Context, userID string, target core.Currency, now time.Time) (core.DashboardSummary, error) {
	accounts, err := s.ledger.ListAccounts(ctx, userID)
	if err != nil {
		return core.DashboardSummary{}, fmt.Errorf("%w: list accounts: %v", core.ErrLedgerFetch, err)
	}

	today := core.DateOf(now)
	monthStart := core.NewDate(today.Year(), today.Month(), 1)
	monthEnd := core.NewDate(today.Year(), today.Month(), core.DaysInMonth(today.Year(), today.Month()))
	trendStart := core.NewDate(today.Year(), today.Month()-(s.trendMonths-1), 1)

	cv := &fallbackConverter{converter: s.converter, target: target}

	summary := core.DashboardSummary{
		TargetCurrency: target,
		TotalBalance:   core.Money{Currency: target},
		Period: core.IncomeVsExpenses{
			Income:   core.Money{Currency: target},
			Expenses: core.Money{Currency: target},
			Net:      core.Money{Currency: target},
		},
		SpendingByCategory: []core.CategorySpending{},
	}

	// One fetch per account; every later step reads this snapshot.
	data := make([]accountData, 0, len(accounts))
	for _, account := range accounts {
		txns, err := s.ledger.ListTransactions(ctx, account.ID, trendStart, core.Date{})
		if err != nil {
			return core.DashboardSummary{}, fmt.Errorf("%w: list transactions for %s: %v", core.ErrLedgerFetch, account.ID, err)
		}
		data = append(data, accountData{account: account, txns: txns})
	}

	// Total balance across accounts, converted per account.
	for _, ad := range data {
		balance, err := s.ledger.GetBalance(ctx, ad.account.ID)
		if err != nil {
			return core.DashboardSummary{}, fmt.Errorf("%w: balance for %s: %v", core.ErrLedgerFetch, ad.account.ID, err)
		}
		summary.TotalBalance.Cents += cv.convert(ctx, core.Money{Cents: balance, Currency: ad.account.Currency})
	}

	// Spending by category for the current month, merged by category id.
	categoryTotals := make(map[string]int64)
	for _, ad := range data {
		subtotals, err := s.ledger.GetCategorySpending(ctx, ad.account.ID, monthStart, monthEnd)
		if err != nil {
			return core.DashboardSummary{}, fmt.Errorf("%w: category spending for %s: %v", core.ErrLedgerFetch, ad.account.ID, err)
		}
		for _, st := range subtotals {
			categoryTotals[st.CategoryID] += cv.convert(ctx, core.Money{Cents: st.Cents, Currency: ad.account.Currency})
		}
	}
	summary.SpendingByCategory = s.namedCategories(ctx, userID, categoryTotals, target)

	// Income vs expenses for the current month from the ledger's
	// pre-aggregated sums, recomputed defensively from the raw snapshot
	// if the pre-aggregation claims zero against non-empty data.
	summary.Period = s.incomeVsExpenses(ctx, cv, data, monthStart, monthEnd, target)

	// Trailing monthly trend; every month appears even when empty.
	summary.MonthlyTrend = s.monthlyTrend(ctx, cv, data, today, target)

	summary.Approximate = cv.approximate
	summary.MissingRates = cv.missingPairs()
	return summary, nil
}

func (s *AggregationService) incomeVsExpenses(ctx context.Context, cv *fallbackConverter, data []accountData, monthStart, monthEnd core.Date, target core.Currency) core.IncomeVsExpenses {
	var income, expenses int64
	preAggregatedOK := true
	anyInPeriod := false

	type periodTotals struct {
		income   int64
		expenses int64
		currency core.Currency
	}
	raw := make([]periodTotals, len(data))

	for i, ad := range data {
		for _, t := range ad.txns {
			if t.Date.Before(monthStart.Time) || t.Date.After(monthEnd.Time) {
				continue
			}
			anyInPeriod = anyInPeriod || t.Type == core.Income || t.Type == core.Expense
			switch t.Type {
			case core.Income:
				raw[i].income += t.AmountCents
			case core.Expense:
				raw[i].expenses += t.AmountCents
			}
		}
		raw[i].currency = ad.account.Currency

		inc, exp, err := s.ledger.GetIncomeExpenseTotals(ctx, ad.account.ID, monthStart, monthEnd)
		if err != nil {
			slog.WarnContext(ctx, "Pre-aggregated totals unavailable, will use raw transactions",
				"account_id", ad.account.ID, "error", err)
			preAggregatedOK = false
			continue
		}
		income += cv.convert(ctx, core.Money{Cents: inc, Currency: ad.account.Currency})
		expenses += cv.convert(ctx, core.Money{Cents: exp, Currency: ad.account.Currency})
	}

	// An upstream aggregation returning all zeros against a non-empty
	// transaction set is treated as broken, not as a real zero.
	if !preAggregatedOK || (income == 0 && expenses == 0 && anyInPeriod) {
		income, expenses = 0, 0
		for _, rt := range raw {
			income += cv.convert(ctx, core.Money{Cents: rt.income, Currency: rt.currency})
			expenses += cv.convert(ctx, core.Money{Cents: rt.expenses, Currency: rt.currency})
		}
	}

	return core.IncomeVsExpenses{
		Income:   core.Money{Cents: income, Currency: target},
		Expenses: core.Money{Cents: expenses, Currency: target},
		Net:      core.Money{Cents: income - expenses, Currency: target},
	}
}

func (s *AggregationService) monthlyTrend(ctx context.Context, cv *fallbackConverter, data []accountData, today core.Date, target core.Currency) []core.MonthlyTotal {
	type bucketKey struct {
		year  int
		month int
	}

	buckets := make([]core.MonthlyTotal, s.trendMonths)
	index := make(map[bucketKey]int, s.trendMonths)
	for i := 0; i < s.trendMonths; i++ {
		d := core.NewDate(today.Year(), today.Month()-(s.trendMonths-1-i), 1)
		buckets[i] = core.MonthlyTotal{
			Year:     d.Year(),
			Month:    d.Month(),
			Income:   core.Money{Currency: target},
			Expenses: core.Money{Currency: target},
		}
		index[bucketKey{d.Year(), d.Month()}] = i
	}

	for _, ad := range data {
		perMonthIncome := make(map[bucketKey]int64)
		perMonthExpenses := make(map[bucketKey]int64)
		for _, t := range ad.txns {
			key := bucketKey{t.Date.Year(), t.Date.Month()}
			if _, ok := index[key]; !ok {
				continue
			}
			switch t.Type {
			case core.Income:
				perMonthIncome[key] += t.AmountCents
			case core.Expense:
				perMonthExpenses[key] += t.AmountCents
			}
		}
		for key, i := range index {
			if cents := perMonthIncome[key]; cents != 0 {
				buckets[i].Income.Cents += cv.convert(ctx, core.Money{Cents: cents, Currency: ad.account.Currency})
			}
			if cents := perMonthExpenses[key]; cents != 0 {
				buckets[i].Expenses.Cents += cv.convert(ctx, core.Money{Cents: cents, Currency: ad.account.Currency})
			}
		}
	}

	return buckets
}

// namedCategories resolves category ids to display names and produces a
// deterministically ordered slice: total descending, id ascending on
// ties. Merging happens by id so two categories sharing a name never
// collapse into one.
func (s *AggregationService) namedCategories(ctx context.Context, userID string, totals map[string]int64, target core.Currency) []core.CategorySpending {
	names := make(map[string]string)
	categories, err := s.ledger.ListCategories(ctx, userID)
	if err != nil {
		slog.WarnContext(ctx, "Category names unavailable, falling back to ids", "error", err)
	} else {
		for _, c := range categories {
			names[c.ID] = c.Name
		}
	}

	out := make([]core.CategorySpending, 0, len(totals))
	for id, cents := range totals {
		name, ok := names[id]
		if !ok {
			name = id
		}
		if id == "" {
			name = "Uncategorized"
		}
		out = append(out, core.CategorySpending{
			CategoryID:   id,
			CategoryName: name,
			Total:        core.Money{Cents: cents, Currency: target},
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out
}

// fallbackConverter applies the aggregation conversion policy: convert
// when a rate exists, otherwise keep the raw numeric value as if it were
// already in the target currency and record the miss. Losing precision
// beats blanking the whole dashboard over one exotic currency.
type fallbackConverter struct {
	converter   *rates.Converter
	target      core.Currency
	approximate bool
	missing     map[string]struct{}
}

func (cv *fallbackConverter) convert(ctx context.Context, amount core.Money) int64 {
	if amount.Currency == cv.target {
		return amount.Cents
	}
	result, err := cv.converter.Convert(ctx, amount, cv.target)
	if err == nil {
		return result.Converted.Cents
	}

	if !errors.Is(err, core.ErrRateUnavailable) {
		// Store trouble is isolated the same way a missing rate is: the
		// contribution degrades, the summary survives.
		slog.ErrorContext(ctx, "Rate lookup failed, using raw amount",
			"from", string(amount.Currency), "to", string(cv.target), "error", err)
	}
	cv.approximate = true
	if cv.missing == nil {
		cv.missing = make(map[string]struct{})
	}
	cv.missing[string(amount.Currency)+"/"+string(cv.target)] = struct{}{}
	return amount.Cents
}

func (cv *fallbackConverter) missingPairs() []string {
	if len(cv.missing) == 0 {
		return nil
	}
	out := make([]string, 0, len(cv.missing))
	for pair := range cv.missing {
		out = append(out, pair)
	}
	sort.Strings(out)
	return out
}
