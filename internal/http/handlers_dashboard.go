package http

import (
	"net/http"
	"time"

	money "github.com/Rhymond/go-money"

	"moneta/internal/core"
)

type moneyResponse struct {
	Cents    int64  `json:"cents"`
	Currency string `json:"currency"`
	Display  string `json:"display"`
}

// displayMoney renders cents as a localized currency string. Unknown
// codes fall back to go-money's generic formatting.
func displayMoney(cents int64, currency core.Currency) string {
	return money.New(cents, string(currency)).Display()
}

func moneyToResponse(m core.Money) moneyResponse {
	return moneyResponse{Cents: m.Cents, Currency: string(m.Currency), Display: displayMoney(m.Cents, m.Currency)}
}

type categorySpendingResponse struct {
	CategoryID   string        `json:"category_id"`
	CategoryName string        `json:"category_name"`
	Total        moneyResponse `json:"total"`
}

type monthlyTotalResponse struct {
	Year     int           `json:"year"`
	Month    int           `json:"month"`
	Income   moneyResponse `json:"income"`
	Expenses moneyResponse `json:"expenses"`
}

type dashboardResponse struct {
	TargetCurrency     string                     `json:"target_currency"`
	TotalBalance       moneyResponse              `json:"total_balance"`
	Income             moneyResponse              `json:"income"`
	Expenses           moneyResponse              `json:"expenses"`
	Net                moneyResponse              `json:"net"`
	SpendingByCategory []categorySpendingResponse `json:"spending_by_category"`
	MonthlyTrend       []monthlyTotalResponse     `json:"monthly_trend"`
	Approximate        bool                       `json:"approximate"`
	MissingRates       []string                   `json:"missing_rates,omitempty"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	target, err := currencyParam(r, "currency", s.defaultCurrency)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	cacheKey := userID + "/" + string(target)
	summary, ok := s.summaryCache.Get(cacheKey)
	if !ok {
		summary, err = s.summaries.Summarize(r.Context(), userID, target, time.Now())
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		s.summaryCache.Set(cacheKey, summary)
	}

	writeJSON(w, http.StatusOK, summaryToResponse(summary))
}

func summaryToResponse(sum core.DashboardSummary) dashboardResponse {
	categories := make([]categorySpendingResponse, 0, len(sum.SpendingByCategory))
	for _, c := range sum.SpendingByCategory {
		categories = append(categories, categorySpendingResponse{
			CategoryID:   c.CategoryID,
			CategoryName: c.CategoryName,
			Total:        moneyToResponse(c.Total),
		})
	}

	trend := make([]monthlyTotalResponse, 0, len(sum.MonthlyTrend))
	for _, m := range sum.MonthlyTrend {
		trend = append(trend, monthlyTotalResponse{
			Year:     m.Year,
			Month:    m.Month,
			Income:   moneyToResponse(m.Income),
			Expenses: moneyToResponse(m.Expenses),
		})
	}

	return dashboardResponse{
		TargetCurrency:     string(sum.TargetCurrency),
		TotalBalance:       moneyToResponse(sum.TotalBalance),
		Income:             moneyToResponse(sum.Period.Income),
		Expenses:           moneyToResponse(sum.Period.Expenses),
		Net:                moneyToResponse(sum.Period.Net),
		SpendingByCategory: categories,
		MonthlyTrend:       trend,
		Approximate:        sum.Approximate,
		MissingRates:       sum.MissingRates,
	}
}
