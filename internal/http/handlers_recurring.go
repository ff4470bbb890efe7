package http

import (
	"net/http"
	"time"

	"moneta/internal/core"
)

type createRecurringRequest struct {
	AccountID   string `json:"account_id"`
	CategoryID  string `json:"category_id"`
	AmountCents int64  `json:"amount_cents"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Frequency   string `json:"frequency"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

type recurringResponse struct {
	ID          string `json:"id"`
	AccountID   string `json:"account_id"`
	CategoryID  string `json:"category_id,omitempty"`
	AmountCents int64  `json:"amount_cents"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Frequency   string `json:"frequency"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date,omitempty"`
	NextDueDate string `json:"next_due_date"`
	IsActive    bool   `json:"is_active"`
}

func recurringToResponse(rt core.RecurringTemplate) recurringResponse {
	resp := recurringResponse{
		ID:          rt.ID,
		AccountID:   rt.AccountID,
		CategoryID:  rt.CategoryID,
		AmountCents: rt.AmountCents,
		Type:        string(rt.Type),
		Description: rt.Description,
		Frequency:   string(rt.Frequency),
		StartDate:   rt.StartDate.String(),
		NextDueDate: rt.NextDueDate.String(),
		IsActive:    rt.IsActive,
	}
	if !rt.EndDate.IsZero() {
		resp.EndDate = rt.EndDate.String()
	}
	return resp
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req createRecurringRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	start, err := core.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid start_date, want YYYY-MM-DD")
		return
	}
	var end core.Date
	if req.EndDate != "" {
		end, err = core.ParseDate(req.EndDate)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid end_date, want YYYY-MM-DD")
			return
		}
	}

	tmpl := core.RecurringTemplate{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		AmountCents: req.AmountCents,
		Type:        core.TransactionType(req.Type),
		Description: sanitizeInput(req.Description),
		Frequency:   core.Frequency(req.Frequency),
		StartDate:   start,
		EndDate:     end,
		IsActive:    true,
	}
	if err := tmpl.Validate(); err != nil {
		writeDomainError(w, r, err)
		return
	}

	created, err := s.store.CreateRecurringTemplate(r.Context(), tmpl)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, recurringToResponse(created))
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	templates, err := s.store.ListRecurringTemplates(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]recurringResponse, 0, len(templates))
	for _, rt := range templates {
		out = append(out, recurringToResponse(rt))
	}
	writeJSON(w, http.StatusOK, out)
}

type processRecurringResponse struct {
	Created int `json:"created"`
}

// handleProcessRecurring triggers a catch-up run on demand, the same
// code path the recurring worker runs on its ticker.
func (s *Server) handleProcessRecurring(w http.ResponseWriter, r *http.Request) {
	created, err := s.recurring.ProcessDue(r.Context(), time.Now())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, processRecurringResponse{Created: created})
}
