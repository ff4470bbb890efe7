package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"moneta/internal/core"
)

// BudgetService computes budget progress. Budgets are measured in their
// account's own currency; no conversion ever happens here.
type BudgetService struct {
	ledger BudgetLedger
}

// NewBudgetService creates a budget service over a budget ledger.
func NewBudgetService(ledger BudgetLedger) *BudgetService {
	return &BudgetService{ledger: ledger}
}

// Progress computes spent/remaining/percentage for one budget inside
// its current window.
func (s *BudgetService) Progress(ctx context.Context, budget core.Budget, now time.Time) (core.BudgetProgress, error) {
	start, end, err := budgetWindow(budget.Period, budget.StartDate, core.DateOf(now))
	if err != nil {
		return core.BudgetProgress{}, err
	}
	if budget.AmountCents <= 0 {
		return core.BudgetProgress{}, core.ErrInvalidBudgetWindow
	}

	account, err := s.ledger.GetAccount(ctx, budget.AccountID)
	if err != nil {
		return core.BudgetProgress{}, fmt.Errorf("%w: get account: %v", core.ErrLedgerFetch, err)
	}

	// end is exclusive; the transaction query is inclusive on both sides.
	txns, err := s.ledger.ListTransactions(ctx, budget.AccountID, start, end.AddDays(-1))
	if err != nil {
		return core.BudgetProgress{}, fmt.Errorf("%w: list transactions: %v", core.ErrLedgerFetch, err)
	}

	var spent int64
	for _, t := range txns {
		if t.Type != core.Expense {
			continue
		}
		if budget.CategoryID != "" && t.CategoryID != budget.CategoryID {
			continue
		}
		spent += t.AmountCents
	}

	percentage := float64(spent) / float64(budget.AmountCents)
	return core.BudgetProgress{
		BudgetID:    budget.ID,
		BudgetName:  budget.Name,
		Amount:      core.Money{Cents: budget.AmountCents, Currency: account.Currency},
		Spent:       core.Money{Cents: spent, Currency: account.Currency},
		Remaining:   core.Money{Cents: budget.AmountCents - spent, Currency: account.Currency},
		Percentage:  percentage,
		Status:      budgetStatus(percentage),
		PeriodStart: start,
		PeriodEnd:   end,
		CategoryID:  budget.CategoryID,
	}, nil
}

// ProgressAll computes progress for every budget on an account. A budget
// whose window cannot be derived is logged and excluded; it never aborts
// the batch.
func (s *BudgetService) ProgressAll(ctx context.Context, accountID string, now time.Time) ([]core.BudgetProgress, error) {
	budgets, err := s.ledger.ListBudgets(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: list budgets: %v", core.ErrLedgerFetch, err)
	}

	out := make([]core.BudgetProgress, 0, len(budgets))
	for _, b := range budgets {
		progress, err := s.Progress(ctx, b, now)
		if err != nil {
			slog.WarnContext(ctx, "Skipping budget with invalid window",
				"budget_id", b.ID, "period", string(b.Period), "error", err)
			continue
		}
		out = append(out, progress)
	}
	return out, nil
}

// budgetStatus applies the shared display thresholds.
func budgetStatus(percentage float64) core.BudgetStatus {
	switch {
	case percentage < 0.8:
		return core.BudgetOnTrack
	case percentage < 1.0:
		return core.BudgetAlmostDone
	case percentage < 1.2:
		return core.BudgetReached
	default:
		return core.BudgetOver
	}
}

// budgetWindow derives the half-open window [start, end) for the period
// that contains today, rolling forward from the budget's start date by
// whole periods. Weekly windows are anchored to the start date's
// weekday; monthly windows are calendar months; quarterly and yearly
// windows roll in 3- and 12-month steps from the start date's month.
func budgetWindow(period core.BudgetPeriod, startDate, today core.Date) (core.Date, core.Date, error) {
	if startDate.IsZero() {
		return core.Date{}, core.Date{}, core.ErrInvalidBudgetWindow
	}

	switch period {
	case core.PeriodWeekly:
		start := startDate
		if today.After(startDate.Time) {
			days := int(today.Sub(startDate.Time).Hours() / 24)
			start = startDate.AddDays((days / 7) * 7)
		}
		return start, start.AddDays(7), nil

	case core.PeriodMonthly:
		anchor := today
		if today.Before(startDate.Time) {
			anchor = startDate
		}
		start := core.NewDate(anchor.Year(), anchor.Month(), 1)
		return start, core.NewDate(anchor.Year(), anchor.Month()+1, 1), nil

	case core.PeriodQuarterly:
		start, end := rollingMonthWindow(startDate, today, 3)
		return start, end, nil

	case core.PeriodYearly:
		start, end := rollingMonthWindow(startDate, today, 12)
		return start, end, nil

	default:
		return core.Date{}, core.Date{}, core.ErrInvalidBudgetWindow
	}
}

// rollingMonthWindow anchors at the first of the start date's month and
// advances in fixed month steps until the window contains today.
func rollingMonthWindow(startDate, today core.Date, months int) (core.Date, core.Date) {
	start := core.NewDate(startDate.Year(), startDate.Month(), 1)
	for {
		end := core.NewDate(start.Year(), start.Month()+months, 1)
		if today.Before(end.Time) || today.Before(start.Time) {
			return start, end
		}
		start = end
	}
}
