package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"moneta/internal/core"
	"moneta/internal/rates"
)

// fakeStore is an in-memory Store for handler tests. It doubles as the
// manual and cached rate tiers.
type fakeStore struct {
	users       map[string]core.User
	accounts    map[string]core.Account
	categories  map[string]core.Category
	txns        []core.Transaction
	budgets     map[string]core.Budget
	recurring   map[string]core.RecurringTemplate
	tags        map[string]core.Tag
	txnTags     map[string][]string
	manualRates map[string]int64
	cachedRates map[string]int64
	cachedAt    time.Time
	nextID      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       make(map[string]core.User),
		accounts:    make(map[string]core.Account),
		categories:  make(map[string]core.Category),
		budgets:     make(map[string]core.Budget),
		recurring:   make(map[string]core.RecurringTemplate),
		tags:        make(map[string]core.Tag),
		txnTags:     make(map[string][]string),
		manualRates: make(map[string]int64),
		cachedRates: make(map[string]int64),
	}
}

func (s *fakeStore) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func (s *fakeStore) CreateUser(_ context.Context, name, email string) (core.User, error) {
	u := core.User{ID: s.id("user"), Name: name, Email: email}
	s.users[u.ID] = u
	return u, nil
}

func (s *fakeStore) GetUser(_ context.Context, id string) (core.User, error) {
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (s *fakeStore) CreateAccount(_ context.Context, userID, name string, currency core.Currency) (core.Account, error) {
	a := core.Account{ID: s.id("acc"), UserID: userID, Name: name, Currency: currency}
	s.accounts[a.ID] = a
	return a, nil
}

func (s *fakeStore) ListAccounts(_ context.Context, userID string) ([]core.Account, error) {
	var out []core.Account
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) GetAccount(_ context.Context, id string) (core.Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return core.Account{}, core.ErrNotFound
	}
	return a, nil
}

func (s *fakeStore) DeleteAccount(_ context.Context, id string) error {
	if _, ok := s.accounts[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.accounts, id)
	return nil
}

func (s *fakeStore) CreateCategory(_ context.Context, userID, name, icon string) (core.Category, error) {
	c := core.Category{ID: s.id("cat"), UserID: userID, Name: name, Icon: icon}
	s.categories[c.ID] = c
	return c, nil
}

func (s *fakeStore) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	var out []core.Category
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeStore) DeleteCategory(_ context.Context, id string) error {
	if _, ok := s.categories[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

func (s *fakeStore) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = s.id("txn")
	s.txns = append(s.txns, t)
	return t, nil
}

func (s *fakeStore) CreateTransfer(_ context.Context, out, in core.Transaction) (string, error) {
	group := s.id("group")
	out.ID, in.ID = s.id("txn"), s.id("txn")
	out.TransferGroup, in.TransferGroup = group, group
	s.txns = append(s.txns, out, in)
	return group, nil
}

func (s *fakeStore) ListTransactions(_ context.Context, accountID string, _, _ core.Date) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range s.txns {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeStore) GetBalance(_ context.Context, accountID string) (int64, error) {
	var balance int64
	for _, t := range s.txns {
		if t.AccountID != accountID {
			continue
		}
		switch t.Type {
		case core.Income:
			balance += t.AmountCents
		case core.Expense:
			balance -= t.AmountCents
		default:
			balance += t.AmountCents
		}
	}
	return balance, nil
}

func (s *fakeStore) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	b.ID = s.id("budget")
	s.budgets[b.ID] = b
	return b, nil
}

func (s *fakeStore) ListBudgets(_ context.Context, accountID string) ([]core.Budget, error) {
	var out []core.Budget
	for _, b := range s.budgets {
		if b.AccountID == accountID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *fakeStore) DeleteBudget(_ context.Context, id string) error {
	if _, ok := s.budgets[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.budgets, id)
	return nil
}

func (s *fakeStore) CreateRecurringTemplate(_ context.Context, rt core.RecurringTemplate) (core.RecurringTemplate, error) {
	rt.ID = s.id("tmpl")
	if rt.NextDueDate.IsZero() {
		rt.NextDueDate = rt.StartDate
	}
	s.recurring[rt.ID] = rt
	return rt, nil
}

func (s *fakeStore) ListRecurringTemplates(_ context.Context, accountID string) ([]core.RecurringTemplate, error) {
	var out []core.RecurringTemplate
	for _, rt := range s.recurring {
		if rt.AccountID == accountID {
			out = append(out, rt)
		}
	}
	return out, nil
}

func (s *fakeStore) SetManualRate(_ context.Context, from, to core.Currency, micro int64) error {
	if micro <= 0 {
		return core.ErrInvalidRate
	}
	if from == to {
		return core.ErrCurrencyMismatch
	}
	s.manualRates[string(from)+"/"+string(to)] = micro
	return nil
}

func (s *fakeStore) GetManualRate(_ context.Context, from, to core.Currency) (int64, bool, error) {
	micro, ok := s.manualRates[string(from)+"/"+string(to)]
	return micro, ok, nil
}

func (s *fakeStore) GetCachedRate(_ context.Context, from, to core.Currency) (int64, time.Time, bool, error) {
	micro, ok := s.cachedRates[string(from)+"/"+string(to)]
	return micro, s.cachedAt, ok, nil
}

func (s *fakeStore) CreateTag(_ context.Context, userID, name, color string) (core.Tag, error) {
	tag := core.Tag{ID: s.id("tag"), UserID: userID, Name: name, Color: color}
	if err := tag.Validate(); err != nil {
		return core.Tag{}, err
	}
	s.tags[tag.ID] = tag
	return tag, nil
}

func (s *fakeStore) ListTags(_ context.Context, userID string) ([]core.Tag, error) {
	var out []core.Tag
	for _, t := range s.tags {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeStore) DeleteTag(_ context.Context, id string) error {
	if _, ok := s.tags[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.tags, id)
	return nil
}

func (s *fakeStore) SetTransactionTags(_ context.Context, transactionID string, tagIDs []string) error {
	for _, id := range tagIDs {
		if _, ok := s.tags[id]; !ok {
			return core.ErrNotFound
		}
	}
	s.txnTags[transactionID] = tagIDs
	return nil
}

func (s *fakeStore) ListTransactionTags(_ context.Context, transactionID string) ([]core.Tag, error) {
	var out []core.Tag
	for _, id := range s.txnTags[transactionID] {
		out = append(out, s.tags[id])
	}
	return out, nil
}

func (s *fakeStore) SearchTransactions(_ context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	var out []core.Transaction
	for _, t := range s.txns {
		if t.AccountID != f.AccountID {
			continue
		}
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.Text != "" && !strings.Contains(strings.ToLower(t.Description), strings.ToLower(f.Text)) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

type fakeSummarizer struct {
	calls   int
	summary core.DashboardSummary
	err     error
}

func (f *fakeSummarizer) Summarize(_ context.Context, _ string, _ core.Currency, _ time.Time) (core.DashboardSummary, error) {
	f.calls++
	return f.summary, f.err
}

type fakeBudgetReporter struct {
	progress []core.BudgetProgress
}

func (f *fakeBudgetReporter) ProgressAll(_ context.Context, _ string, _ time.Time) ([]core.BudgetProgress, error) {
	return f.progress, nil
}

type fakeRecurringRunner struct {
	created int
	err     error
}

func (f *fakeRecurringRunner) ProcessDue(_ context.Context, _ time.Time) (int, error) {
	return f.created, f.err
}

type testEnv struct {
	store     *fakeStore
	summaries *fakeSummarizer
	server    *Server
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()
	store := newFakeStore()
	summaries := &fakeSummarizer{
		summary: core.DashboardSummary{
			TargetCurrency: "USD",
			TotalBalance:   core.NewMoney(10_000, "USD"),
		},
	}

	resolver := rates.NewResolver([]rates.Tier{
		rates.NewManualTier(store),
		rates.NewCachedTier(store),
		rates.NewDefaultTier(),
	})

	srv := NewServer(":0", Deps{
		Store:           store,
		Summaries:       summaries,
		Budgets:         &fakeBudgetReporter{},
		Recurring:       &fakeRecurringRunner{created: 2},
		Resolver:        resolver,
		Converter:       rates.NewConverter(resolver),
		DefaultCurrency: "USD",
		SummaryCacheTTL: time.Minute,
	})
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return &testEnv{store: store, summaries: summaries, server: srv}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		if rec := env.do(t, http.MethodGet, path, ""); rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestCreateUser(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodPost, "/api/v1/users", `{"name":"Ada","email":"ada@example.com"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}
	var resp struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	decodeBody(t, rec, &resp)
	if resp.ID == "" || resp.Name != "Ada" {
		t.Errorf("response = %+v", resp)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}

func TestCreateUser_BadInput(t *testing.T) {
	env := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty name", `{"name":"  ","email":"a@b.c"}`},
		{"malformed json", `{"name":`},
		{"unknown field", `{"name":"Ada","admin":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := env.do(t, http.MethodPost, "/api/v1/users", tt.body); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestGetUser_NotFound(t *testing.T) {
	env := newTestServer(t)
	if rec := env.do(t, http.MethodGet, "/api/v1/users/missing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestCreateAccount_InvalidCurrency(t *testing.T) {
	env := newTestServer(t)
	rec := env.do(t, http.MethodPost, "/api/v1/users/user-1/accounts", `{"name":"Checking","currency":"EURO"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body)
	}
}

func TestCreateTransaction(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodPost, "/api/v1/transactions",
		`{"account_id":"acc-1","amount_cents":2500,"type":"expense","description":"Lunch","date":"2025-03-15"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}
	var resp struct {
		ID          string `json:"id"`
		AmountCents int64  `json:"amount_cents"`
		Date        string `json:"date"`
	}
	decodeBody(t, rec, &resp)
	if resp.ID == "" || resp.AmountCents != 2500 || resp.Date != "2025-03-15" {
		t.Errorf("response = %+v", resp)
	}

	t.Run("bad date", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/transactions",
			`{"account_id":"acc-1","amount_cents":2500,"type":"expense","date":"15/03/2025"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
	t.Run("bad type", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/transactions",
			`{"account_id":"acc-1","amount_cents":2500,"type":"refund","date":"2025-03-15"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestCreateTransfer_CrossCurrency(t *testing.T) {
	env := newTestServer(t)
	ctx := context.Background()
	usd, _ := env.store.CreateAccount(ctx, "user-1", "Checking", "USD")
	eur, _ := env.store.CreateAccount(ctx, "user-1", "Savings", "EUR")
	env.store.manualRates["USD/EUR"] = 2_000_000

	body := fmt.Sprintf(`{"from_account_id":%q,"to_account_id":%q,"amount_cents":10000,"date":"2025-03-15"}`, usd.ID, eur.ID)
	rec := env.do(t, http.MethodPost, "/api/v1/transfers", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}

	var resp struct {
		TransferGroup string `json:"transfer_group"`
		Out           struct {
			AmountCents int64  `json:"amount_cents"`
			Type        string `json:"type"`
		} `json:"out"`
		In struct {
			AmountCents int64 `json:"amount_cents"`
		} `json:"in"`
	}
	decodeBody(t, rec, &resp)
	if resp.TransferGroup == "" {
		t.Error("missing transfer_group")
	}
	if resp.Out.AmountCents != -10_000 || resp.Out.Type != "transfer" {
		t.Errorf("out leg = %+v", resp.Out)
	}
	// 10000 cents at micro rate 2000000 doubles.
	if resp.In.AmountCents != 20_000 {
		t.Errorf("in leg = %d, want 20000", resp.In.AmountCents)
	}
}

func TestCreateTransfer_Rejections(t *testing.T) {
	env := newTestServer(t)
	ctx := context.Background()
	usd, _ := env.store.CreateAccount(ctx, "user-1", "Checking", "USD")
	// No tier knows THB, so conversion must fail rather than assume 1:1.
	thb, _ := env.store.CreateAccount(ctx, "user-1", "Bangkok", "THB")

	t.Run("missing rate", func(t *testing.T) {
		body := fmt.Sprintf(`{"from_account_id":%q,"to_account_id":%q,"amount_cents":10000,"date":"2025-03-15"}`, usd.ID, thb.ID)
		rec := env.do(t, http.MethodPost, "/api/v1/transfers", body)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422: %s", rec.Code, rec.Body)
		}
	})
	t.Run("same account", func(t *testing.T) {
		body := fmt.Sprintf(`{"from_account_id":%q,"to_account_id":%q,"amount_cents":10000,"date":"2025-03-15"}`, usd.ID, usd.ID)
		if rec := env.do(t, http.MethodPost, "/api/v1/transfers", body); rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
	t.Run("non-positive amount", func(t *testing.T) {
		body := fmt.Sprintf(`{"from_account_id":%q,"to_account_id":%q,"amount_cents":0,"date":"2025-03-15"}`, usd.ID, thb.ID)
		if rec := env.do(t, http.MethodPost, "/api/v1/transfers", body); rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
	t.Run("unknown account", func(t *testing.T) {
		body := fmt.Sprintf(`{"from_account_id":"missing","to_account_id":%q,"amount_cents":100,"date":"2025-03-15"}`, thb.ID)
		if rec := env.do(t, http.MethodPost, "/api/v1/transfers", body); rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestManualRateRoundTrip(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodPut, "/api/v1/rates/manual", `{"from":" usd ","to":"eur","micro_rate":950000}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("PUT status = %d, want 204: %s", rec.Code, rec.Body)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/rates/USD/EUR", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var resp struct {
		MicroRate int64  `json:"micro_rate"`
		Source    string `json:"source"`
	}
	decodeBody(t, rec, &resp)
	if resp.MicroRate != 950_000 || resp.Source != "manual" {
		t.Errorf("rate = %+v, want manual 950000", resp)
	}

	t.Run("invalid micro rate", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/v1/rates/manual", `{"from":"USD","to":"EUR","micro_rate":0}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
	t.Run("identity pair", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/v1/rates/manual", `{"from":"USD","to":"USD","micro_rate":1000000}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestGetRate_FallsBackToBundled(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodGet, "/api/v1/rates/USD/JPY", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var resp struct {
		Source string `json:"source"`
	}
	decodeBody(t, rec, &resp)
	if resp.Source != "default" {
		t.Errorf("source = %q, want default", resp.Source)
	}

	if rec := env.do(t, http.MethodGet, "/api/v1/rates/USD/THB", ""); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("unresolvable pair status = %d, want 422", rec.Code)
	}
}

func TestGetRate_CachedReportsAge(t *testing.T) {
	env := newTestServer(t)
	env.store.cachedRates["USD/EUR"] = 930_000
	env.store.cachedAt = time.Now().Add(-2 * time.Hour)

	rec := env.do(t, http.MethodGet, "/api/v1/rates/USD/EUR", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var resp struct {
		MicroRate int64  `json:"micro_rate"`
		Source    string `json:"source"`
		FetchedAt string `json:"fetched_at"`
		AgeSecs   int64  `json:"age_seconds"`
	}
	decodeBody(t, rec, &resp)
	if resp.MicroRate != 930_000 || resp.Source != "cached" {
		t.Errorf("rate = %+v, want cached 930000", resp)
	}
	if resp.FetchedAt == "" {
		t.Error("fetched_at missing for cached rate")
	}
	if resp.AgeSecs < 7100 || resp.AgeSecs > 7300 {
		t.Errorf("age_seconds = %d, want roughly 7200", resp.AgeSecs)
	}

	// Manual overrides shadow the cache and carry no age.
	env.store.manualRates["USD/EUR"] = 950_000
	rec = env.do(t, http.MethodGet, "/api/v1/rates/USD/EUR", "")
	resp = struct {
		MicroRate int64  `json:"micro_rate"`
		Source    string `json:"source"`
		FetchedAt string `json:"fetched_at"`
		AgeSecs   int64  `json:"age_seconds"`
	}{}
	decodeBody(t, rec, &resp)
	if resp.Source != "manual" || resp.AgeSecs != 0 {
		t.Errorf("shadowed rate = %+v, want manual with no age", resp)
	}
}

func TestConvert(t *testing.T) {
	env := newTestServer(t)
	env.store.manualRates["USD/EUR"] = 2_000_000

	rec := env.do(t, http.MethodGet, "/api/v1/convert?from=USD&to=EUR&amount_cents=10000", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var resp struct {
		Converted struct {
			Cents    int64  `json:"cents"`
			Currency string `json:"currency"`
		} `json:"converted"`
		Source string `json:"source"`
	}
	decodeBody(t, rec, &resp)
	if resp.Converted.Cents != 20_000 || resp.Converted.Currency != "EUR" || resp.Source != "manual" {
		t.Errorf("response = %+v", resp)
	}

	t.Run("missing params", func(t *testing.T) {
		if rec := env.do(t, http.MethodGet, "/api/v1/convert?from=USD&to=EUR", ""); rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestDashboard_CachesSummary(t *testing.T) {
	env := newTestServer(t)

	for i := 0; i < 3; i++ {
		rec := env.do(t, http.MethodGet, "/api/v1/users/user-1/dashboard", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
		}
	}
	if env.summaries.calls != 1 {
		t.Errorf("Summarize called %d times, want 1 (cached)", env.summaries.calls)
	}

	// A different target currency is a different cache key.
	if rec := env.do(t, http.MethodGet, "/api/v1/users/user-1/dashboard?currency=EUR", ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if env.summaries.calls != 2 {
		t.Errorf("Summarize called %d times, want 2", env.summaries.calls)
	}

	var resp struct {
		TargetCurrency string `json:"target_currency"`
		TotalBalance   struct {
			Cents   int64  `json:"cents"`
			Display string `json:"display"`
		} `json:"total_balance"`
	}
	rec := env.do(t, http.MethodGet, "/api/v1/users/user-1/dashboard", "")
	decodeBody(t, rec, &resp)
	if resp.TargetCurrency != "USD" || resp.TotalBalance.Cents != 10_000 {
		t.Errorf("response = %+v", resp)
	}
	if resp.TotalBalance.Display == "" {
		t.Error("display string is empty")
	}
}

func TestProcessRecurring(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodPost, "/api/v1/recurring/process", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var resp struct {
		Created int `json:"created"`
	}
	decodeBody(t, rec, &resp)
	if resp.Created != 2 {
		t.Errorf("created = %d, want 2", resp.Created)
	}
}

func TestRateLimiter_MutatingRequests(t *testing.T) {
	env := newTestServer(t)

	var last *httptest.ResponseRecorder
	for i := 0; i <= rateLimitPerMinute; i++ {
		last = env.do(t, http.MethodPut, "/api/v1/rates/manual", `{"from":"USD","to":"EUR","micro_rate":950000}`)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("status after %d requests = %d, want 429", rateLimitPerMinute+1, last.Code)
	}
	if last.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", last.Header().Get("Retry-After"))
	}

	// Reads are never limited.
	if rec := env.do(t, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("GET after limit = %d, want 200", rec.Code)
	}
}

func TestTagLifecycle(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodPost, "/api/v1/users/user-1/tags", `{"name":"Vacation","color":"#ff8800"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", rec.Code, rec.Body)
	}
	var created struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	decodeBody(t, rec, &created)
	if created.ID == "" || created.Name != "Vacation" || created.Color != "#ff8800" {
		t.Errorf("created = %+v", created)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/users/user-1/tags", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var listed []struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &listed)
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Errorf("listed = %+v", listed)
	}

	if rec := env.do(t, http.MethodDelete, "/api/v1/tags/"+created.ID, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, "/api/v1/tags/"+created.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}

	t.Run("empty name", func(t *testing.T) {
		if rec := env.do(t, http.MethodPost, "/api/v1/users/user-1/tags", `{"name":"  "}`); rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
	t.Run("name too long", func(t *testing.T) {
		body := fmt.Sprintf(`{"name":%q}`, strings.Repeat("x", 51))
		if rec := env.do(t, http.MethodPost, "/api/v1/users/user-1/tags", body); rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestTransactionTags(t *testing.T) {
	env := newTestServer(t)
	ctx := context.Background()
	tag, _ := env.store.CreateTag(ctx, "user-1", "Groceries", "")
	txn, _ := env.store.CreateTransaction(ctx, core.Transaction{
		AccountID: "acc-1", AmountCents: 2500, Type: core.Expense,
	})

	body := fmt.Sprintf(`{"tag_ids":[%q]}`, tag.ID)
	if rec := env.do(t, http.MethodPut, "/api/v1/transactions/"+txn.ID+"/tags", body); rec.Code != http.StatusNoContent {
		t.Fatalf("set status = %d, want 204: %s", rec.Code, rec.Body)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/transactions/"+txn.ID+"/tags", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var tags []struct {
		Name string `json:"name"`
	}
	decodeBody(t, rec, &tags)
	if len(tags) != 1 || tags[0].Name != "Groceries" {
		t.Errorf("tags = %+v", tags)
	}

	t.Run("unknown tag", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/v1/transactions/"+txn.ID+"/tags", `{"tag_ids":["missing"]}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
	t.Run("clear", func(t *testing.T) {
		if rec := env.do(t, http.MethodPut, "/api/v1/transactions/"+txn.ID+"/tags", `{"tag_ids":[]}`); rec.Code != http.StatusNoContent {
			t.Fatalf("clear status = %d, want 204", rec.Code)
		}
		rec := env.do(t, http.MethodGet, "/api/v1/transactions/"+txn.ID+"/tags", "")
		var cleared []struct{}
		decodeBody(t, rec, &cleared)
		if len(cleared) != 0 {
			t.Errorf("tags after clear = %d, want 0", len(cleared))
		}
	})
}

func TestSearchTransactions(t *testing.T) {
	env := newTestServer(t)
	ctx := context.Background()
	env.store.CreateTransaction(ctx, core.Transaction{
		AccountID: "acc-1", AmountCents: 2500, Type: core.Expense, Description: "Lunch at Mario's",
	})
	env.store.CreateTransaction(ctx, core.Transaction{
		AccountID: "acc-1", AmountCents: 500_000, Type: core.Income, Description: "Salary",
	})
	env.store.CreateTransaction(ctx, core.Transaction{
		AccountID: "acc-2", AmountCents: 900, Type: core.Expense, Description: "Coffee",
	})

	rec := env.do(t, http.MethodPost, "/api/v1/transactions/search",
		`{"account_id":"acc-1","type":"expense","text":"mario"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var found []struct {
		Description string `json:"description"`
	}
	decodeBody(t, rec, &found)
	if len(found) != 1 || found[0].Description != "Lunch at Mario's" {
		t.Errorf("found = %+v", found)
	}

	t.Run("missing account", func(t *testing.T) {
		if rec := env.do(t, http.MethodPost, "/api/v1/transactions/search", `{"text":"mario"}`); rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
	t.Run("bad type", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/transactions/search", `{"account_id":"acc-1","type":"refund"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
	t.Run("bad date", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/transactions/search", `{"account_id":"acc-1","from":"15/03/2025"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}
