// Package ratefeed pulls live market rates from the upstream provider
// (open.er-api.com, free, no key) and turns them into micro-rate batch
// entries for the cached tier.
package ratefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"moneta/internal/amqp"
	"moneta/internal/core"
	"moneta/internal/rates"
)

// DefaultBaseURL is the upstream endpoint; the base currency is
// appended as a path segment.
const DefaultBaseURL = "https://open.er-api.com/v6/latest"

// Fetcher retrieves rates for a set of base currencies and emits both
// the direct and the inverse pair for every quote, as the upstream only
// quotes one direction per base.
type Fetcher struct {
	client  *http.Client
	baseURL string
	bases   []core.Currency
	targets map[core.Currency]bool
}

// NewFetcher builds a fetcher. Bases default to USD and EUR; targets
// default to the currencies the bundled default table covers.
func NewFetcher(client *http.Client, baseURL string, bases []core.Currency) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if len(bases) == 0 {
		bases = []core.Currency{"USD", "EUR"}
	}
	targets := make(map[core.Currency]bool)
	for _, c := range rates.SupportedCurrencies() {
		targets[c] = true
	}
	return &Fetcher{client: client, baseURL: baseURL, bases: bases, targets: targets}
}

// apiResponse matches the provider's JSON shape:
// {"result":"success","base_code":"USD","rates":{"EUR":0.92,...}}
type apiResponse struct {
	Result   string             `json:"result"`
	BaseCode string             `json:"base_code"`
	Rates    map[string]float64 `json:"rates"`
}

// FetchAll queries every base concurrently and merges the results into
// one deterministic, sorted entry list. A base failing wholesale fails
// the fetch; the caller simply retries on the next tick.
func (f *Fetcher) FetchAll(ctx context.Context) ([]amqp.RateEntry, error) {
	var mu sync.Mutex
	merged := make(map[string]amqp.RateEntry)

	g, gctx := errgroup.WithContext(ctx)
	for _, base := range f.bases {
		g.Go(func() error {
			entries, err := f.fetchBase(gctx, base)
			if err != nil {
				return err
			}
			mu.Lock()
			for _, e := range entries {
				merged[e.From+"/"+e.To] = e
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]amqp.RateEntry, 0, len(merged))
	for _, e := range merged {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out, nil
}

func (f *Fetcher) fetchBase(ctx context.Context, base core.Currency) ([]amqp.RateEntry, error) {
	url := fmt.Sprintf("%s/%s", f.baseURL, base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", base, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates for %s: %w", base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate provider returned status %d for %s", resp.StatusCode, base)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rates for %s: %w", base, err)
	}
	if body.Result != "success" {
		return nil, fmt.Errorf("rate provider result %q for %s", body.Result, base)
	}

	var entries []amqp.RateEntry
	skipped := 0
	for currency, rate := range body.Rates {
		to := core.Currency(currency)
		if !f.targets[to] || to == base || rate <= 0 {
			skipped++
			continue
		}
		micro := int64(math.Round(rate * float64(core.MicroScale)))
		if micro <= 0 {
			skipped++
			continue
		}
		entries = append(entries, amqp.RateEntry{From: string(base), To: string(to), MicroRate: micro})
		// The provider quotes one direction per base; store the inverse
		// too so either ordering of the pair hits the cache directly.
		if inverse := (core.MicroScale * core.MicroScale) / micro; inverse > 0 {
			entries = append(entries, amqp.RateEntry{From: string(to), To: string(base), MicroRate: inverse})
		}
	}

	slog.InfoContext(ctx, "Fetched upstream rates",
		"base", string(base),
		"pairs", len(entries),
		"skipped", skipped)
	return entries, nil
}
