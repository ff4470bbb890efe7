package http

import (
	"net/http"
	"time"

	"moneta/internal/core"
)

type createBudgetRequest struct {
	AccountID   string `json:"account_id"`
	CategoryID  string `json:"category_id"`
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
	Period      string `json:"period"`
	StartDate   string `json:"start_date"`
}

type budgetResponse struct {
	ID          string `json:"id"`
	AccountID   string `json:"account_id"`
	CategoryID  string `json:"category_id,omitempty"`
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
	Period      string `json:"period"`
	StartDate   string `json:"start_date"`
}

func budgetToResponse(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:          b.ID,
		AccountID:   b.AccountID,
		CategoryID:  b.CategoryID,
		Name:        b.Name,
		AmountCents: b.AmountCents,
		Period:      string(b.Period),
		StartDate:   b.StartDate.String(),
	}
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req createBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	start, err := core.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid start_date, want YYYY-MM-DD")
		return
	}

	budget := core.Budget{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Name:        sanitizeInput(req.Name),
		AmountCents: req.AmountCents,
		Period:      core.BudgetPeriod(req.Period),
		StartDate:   start,
	}
	if err := budget.Validate(); err != nil {
		writeDomainError(w, r, err)
		return
	}

	created, err := s.store.CreateBudget(r.Context(), budget)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, budgetToResponse(created))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.store.ListBudgets(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, budgetToResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteBudget(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type budgetProgressResponse struct {
	BudgetID    string        `json:"budget_id"`
	BudgetName  string        `json:"budget_name"`
	CategoryID  string        `json:"category_id,omitempty"`
	Amount      moneyResponse `json:"amount"`
	Spent       moneyResponse `json:"spent"`
	Remaining   moneyResponse `json:"remaining"`
	Percentage  float64       `json:"percentage"`
	Status      string        `json:"status"`
	PeriodStart string        `json:"period_start"`
	PeriodEnd   string        `json:"period_end"`
}

func (s *Server) handleBudgetProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := s.budgets.ProgressAll(r.Context(), r.PathValue("id"), time.Now())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]budgetProgressResponse, 0, len(progress))
	for _, p := range progress {
		out = append(out, budgetProgressResponse{
			BudgetID:    p.BudgetID,
			BudgetName:  p.BudgetName,
			CategoryID:  p.CategoryID,
			Amount:      moneyToResponse(p.Amount),
			Spent:       moneyToResponse(p.Spent),
			Remaining:   moneyToResponse(p.Remaining),
			Percentage:  p.Percentage,
			Status:      string(p.Status),
			PeriodStart: p.PeriodStart.String(),
			PeriodEnd:   p.PeriodEnd.String(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
