// Package http exposes the engine as a JSON API. Handlers stay thin:
// they parse and validate input, call a service or the store, and map
// domain errors to status codes.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"moneta/internal/cache"
	"moneta/internal/core"
	"moneta/internal/log"
	"moneta/internal/rates"
)

// Store is the persistence surface the handlers write through. The
// SQLite repository satisfies it; tests swap in a fake.
type Store interface {
	CreateUser(ctx context.Context, name, email string) (core.User, error)
	GetUser(ctx context.Context, id string) (core.User, error)

	CreateAccount(ctx context.Context, userID, name string, currency core.Currency) (core.Account, error)
	ListAccounts(ctx context.Context, userID string) ([]core.Account, error)
	GetAccount(ctx context.Context, id string) (core.Account, error)
	DeleteAccount(ctx context.Context, id string) error

	CreateCategory(ctx context.Context, userID, name, icon string) (core.Category, error)
	ListCategories(ctx context.Context, userID string) ([]core.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	CreateTransfer(ctx context.Context, out, in core.Transaction) (string, error)
	ListTransactions(ctx context.Context, accountID string, from, to core.Date) ([]core.Transaction, error)
	SearchTransactions(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error)
	GetBalance(ctx context.Context, accountID string) (int64, error)

	CreateTag(ctx context.Context, userID, name, color string) (core.Tag, error)
	ListTags(ctx context.Context, userID string) ([]core.Tag, error)
	DeleteTag(ctx context.Context, id string) error
	SetTransactionTags(ctx context.Context, transactionID string, tagIDs []string) error
	ListTransactionTags(ctx context.Context, transactionID string) ([]core.Tag, error)

	CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	ListBudgets(ctx context.Context, accountID string) ([]core.Budget, error)
	DeleteBudget(ctx context.Context, id string) error

	CreateRecurringTemplate(ctx context.Context, rt core.RecurringTemplate) (core.RecurringTemplate, error)
	ListRecurringTemplates(ctx context.Context, accountID string) ([]core.RecurringTemplate, error)

	SetManualRate(ctx context.Context, from, to core.Currency, micro int64) error
}

// Summarizer produces the currency-normalized dashboard rollup.
type Summarizer interface {
	Summarize(ctx context.Context, userID string, target core.Currency, now time.Time) (core.DashboardSummary, error)
}

// BudgetReporter computes progress for every budget on an account.
type BudgetReporter interface {
	ProgressAll(ctx context.Context, accountID string, now time.Time) ([]core.BudgetProgress, error)
}

// RecurringRunner materializes due recurring transactions.
type RecurringRunner interface {
	ProcessDue(ctx context.Context, now time.Time) (int, error)
}

type Server struct {
	http.Server

	store     Store
	summaries Summarizer
	budgets   BudgetReporter
	recurring RecurringRunner
	resolver  *rates.Resolver
	converter *rates.Converter

	defaultCurrency core.Currency

	// Dashboard responses are cached briefly; staleness is bounded by
	// the TTL rather than write-path invalidation.
	summaryCache *cache.LRUCache[core.DashboardSummary]

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// Deps bundles the collaborators the server needs.
type Deps struct {
	Store           Store
	Summaries       Summarizer
	Budgets         BudgetReporter
	Recurring       RecurringRunner
	Resolver        *rates.Resolver
	Converter       *rates.Converter
	DefaultCurrency core.Currency
	SummaryCacheTTL time.Duration
	Logger          *log.Logger
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	ttl := deps.SummaryCacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		store:           deps.Store,
		summaries:       deps.Summaries,
		budgets:         deps.Budgets,
		recurring:       deps.Recurring,
		resolver:        deps.Resolver,
		converter:       deps.Converter,
		defaultCurrency: deps.DefaultCurrency,
		summaryCache:    cache.NewLRUCache[core.DashboardSummary](100, ttl),
		rateLimiter:     newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/v1/users", s.handleCreateUser)
	mux.HandleFunc("GET /api/v1/users/{id}", s.handleGetUser)

	mux.HandleFunc("POST /api/v1/users/{id}/accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /api/v1/users/{id}/accounts", s.handleListAccounts)
	mux.HandleFunc("GET /api/v1/accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("DELETE /api/v1/accounts/{id}", s.handleDeleteAccount)

	mux.HandleFunc("POST /api/v1/users/{id}/categories", s.handleCreateCategory)
	mux.HandleFunc("GET /api/v1/users/{id}/categories", s.handleListCategories)
	mux.HandleFunc("DELETE /api/v1/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("POST /api/v1/transactions", s.handleCreateTransaction)
	mux.HandleFunc("POST /api/v1/transactions/search", s.handleSearchTransactions)
	mux.HandleFunc("POST /api/v1/transfers", s.handleCreateTransfer)
	mux.HandleFunc("GET /api/v1/accounts/{id}/transactions", s.handleListTransactions)
	mux.HandleFunc("GET /api/v1/accounts/{id}/balance", s.handleGetBalance)

	mux.HandleFunc("POST /api/v1/users/{id}/tags", s.handleCreateTag)
	mux.HandleFunc("GET /api/v1/users/{id}/tags", s.handleListTags)
	mux.HandleFunc("DELETE /api/v1/tags/{id}", s.handleDeleteTag)
	mux.HandleFunc("PUT /api/v1/transactions/{id}/tags", s.handleSetTransactionTags)
	mux.HandleFunc("GET /api/v1/transactions/{id}/tags", s.handleListTransactionTags)

	mux.HandleFunc("PUT /api/v1/rates/manual", s.handleSetManualRate)
	mux.HandleFunc("GET /api/v1/rates/{from}/{to}", s.handleGetRate)
	mux.HandleFunc("GET /api/v1/convert", s.handleConvert)

	mux.HandleFunc("POST /api/v1/budgets", s.handleCreateBudget)
	mux.HandleFunc("GET /api/v1/accounts/{id}/budgets", s.handleListBudgets)
	mux.HandleFunc("GET /api/v1/accounts/{id}/budgets/progress", s.handleBudgetProgress)
	mux.HandleFunc("DELETE /api/v1/budgets/{id}", s.handleDeleteBudget)

	mux.HandleFunc("POST /api/v1/recurring", s.handleCreateRecurring)
	mux.HandleFunc("GET /api/v1/accounts/{id}/recurring", s.handleListRecurring)
	mux.HandleFunc("POST /api/v1/recurring/process", s.handleProcessRecurring)

	mux.HandleFunc("GET /api/v1/users/{id}/dashboard", s.handleDashboard)

	handler := log.Middleware(logger)(s.withProtection(mux))

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// withProtection adds baseline response headers and rate limiting on
// mutating requests.
func (s *Server) withProtection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Shutdown stops the HTTP server and background cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}
