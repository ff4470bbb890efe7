package core

// CategorySpending is a per-category expense subtotal, merged across
// accounts by category id and expressed in the summary's target currency.
type CategorySpending struct {
	CategoryID   string
	CategoryName string
	Total        Money
}

// MonthlyTotal is one bucket of the trailing monthly trend. Months with
// no transactions still appear with zero income and expenses.
type MonthlyTotal struct {
	Year     int
	Month    int // 1-12
	Income   Money
	Expenses Money
}

// IncomeVsExpenses holds period totals in the target currency.
type IncomeVsExpenses struct {
	Income   Money
	Expenses Money
	Net      Money
}

// DashboardSummary is the full currency-normalized rollup for one user.
// Approximate is set when at least one contribution fell back to its raw
// value because no rate was resolvable; MissingRates lists the pairs that
// failed, sorted, so "zero" stays distinguishable from "unknown".
type DashboardSummary struct {
	TargetCurrency     Currency
	TotalBalance       Money
	Period             IncomeVsExpenses
	SpendingByCategory []CategorySpending
	MonthlyTrend       []MonthlyTotal
	Approximate        bool
	MissingRates       []string
}

// BudgetStatus is a coarse signal for the presentation layer, computed
// here as data so every client applies the same thresholds.
type BudgetStatus string

const (
	BudgetOnTrack    BudgetStatus = "on_track"
	BudgetAlmostDone BudgetStatus = "almost_there"
	BudgetReached    BudgetStatus = "reached"
	BudgetOver       BudgetStatus = "over_budget"
)

// BudgetProgress reports spend against a budget inside its current
// window. All amounts are in the budget account's own currency; the
// percentage is display-only and never feeds back into money math.
type BudgetProgress struct {
	BudgetID    string
	BudgetName  string
	Amount      Money
	Spent       Money
	Remaining   Money
	Percentage  float64
	Status      BudgetStatus
	PeriodStart Date
	PeriodEnd   Date
	CategoryID  string
}
