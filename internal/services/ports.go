package services

import (
	"context"

	"moneta/internal/core"
	"moneta/internal/storage"
)

// Ledger is the slice of the datastore the aggregation pipeline reads.
// Summaries are pure functions over what these calls return.
type Ledger interface {
	ListAccounts(ctx context.Context, userID string) ([]core.Account, error)
	GetBalance(ctx context.Context, accountID string) (int64, error)
	ListTransactions(ctx context.Context, accountID string, from, to core.Date) ([]core.Transaction, error)
	ListCategories(ctx context.Context, userID string) ([]core.Category, error)
	GetIncomeExpenseTotals(ctx context.Context, accountID string, from, to core.Date) (income, expenses int64, err error)
	GetCategorySpending(ctx context.Context, accountID string, from, to core.Date) ([]storage.CategoryTotal, error)
}

// BudgetLedger is what budget progress computation needs. The account
// read only supplies the currency label; budget math never converts.
type BudgetLedger interface {
	GetAccount(ctx context.Context, id string) (core.Account, error)
	ListBudgets(ctx context.Context, accountID string) ([]core.Budget, error)
	ListTransactions(ctx context.Context, accountID string, from, to core.Date) ([]core.Transaction, error)
}

// RecurrenceLedger is what template processing needs. ApplyRecurrence
// must persist occurrences and cursor atomically per template.
type RecurrenceLedger interface {
	ListActiveRecurringTemplates(ctx context.Context) ([]core.RecurringTemplate, error)
	ApplyRecurrence(ctx context.Context, templateID string, txns []core.Transaction, nextDue core.Date, isActive bool) error
}

var _ Ledger = (*storage.SQLiteRepository)(nil)
var _ BudgetLedger = (*storage.SQLiteRepository)(nil)
var _ RecurrenceLedger = (*storage.SQLiteRepository)(nil)
