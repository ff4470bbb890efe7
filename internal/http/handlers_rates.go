package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"moneta/internal/core"
	"moneta/internal/rates"
)

type setManualRateRequest struct {
	From      string `json:"from"`
	To        string `json:"to"`
	MicroRate int64  `json:"micro_rate"`
}

// handleSetManualRate pins an exchange rate for an ordered pair. Manual
// rates shadow cached and default rates until removed.
func (s *Server) handleSetManualRate(w http.ResponseWriter, r *http.Request) {
	var req setManualRateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	from := core.Currency(strings.ToUpper(strings.TrimSpace(req.From)))
	to := core.Currency(strings.ToUpper(strings.TrimSpace(req.To)))
	if err := core.ValidateCurrency(from); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := core.ValidateCurrency(to); err != nil {
		writeDomainError(w, r, err)
		return
	}

	if err := s.store.SetManualRate(r.Context(), from, to, req.MicroRate); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type rateResponse struct {
	From      string `json:"from"`
	To        string `json:"to"`
	MicroRate int64  `json:"micro_rate"`
	Source    string `json:"source"`
	FetchedAt string `json:"fetched_at,omitempty"`
	AgeSecs   int64  `json:"age_seconds,omitempty"`
}

// handleGetRate resolves a pair through the tier chain and reports the
// rate with its provenance.
func (s *Server) handleGetRate(w http.ResponseWriter, r *http.Request) {
	from := core.Currency(strings.ToUpper(r.PathValue("from")))
	to := core.Currency(strings.ToUpper(r.PathValue("to")))
	if err := core.ValidateCurrency(from); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := core.ValidateCurrency(to); err != nil {
		writeDomainError(w, r, err)
		return
	}

	rate, err := s.resolver.Resolve(r.Context(), from, to)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	fresh := rates.FreshnessOf(rate, time.Now())

	resp := rateResponse{
		From:      string(rate.From),
		To:        string(rate.To),
		MicroRate: rate.MicroRate,
		Source:    fresh.Source.String(),
	}
	if !fresh.FetchedAt.IsZero() {
		resp.FetchedAt = fresh.FetchedAt.UTC().Format(time.RFC3339)
		if fresh.HasAge {
			resp.AgeSecs = int64(fresh.Age.Seconds())
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type convertResponse struct {
	Original  moneyResponse `json:"original"`
	Converted moneyResponse `json:"converted"`
	MicroRate int64         `json:"micro_rate"`
	Source    string        `json:"source"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	from, err := currencyParam(r, "from", "")
	if err != nil || from == "" {
		writeError(w, r, http.StatusBadRequest, "from currency is required")
		return
	}
	to, err := currencyParam(r, "to", "")
	if err != nil || to == "" {
		writeError(w, r, http.StatusBadRequest, "to currency is required")
		return
	}
	cents, err := strconv.ParseInt(r.URL.Query().Get("amount_cents"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "amount_cents must be an integer")
		return
	}

	res, err := s.converter.Convert(r.Context(), core.NewMoney(cents, from), to)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, convertResponse{
		Original:  moneyToResponse(res.Original),
		Converted: moneyToResponse(res.Converted),
		MicroRate: res.MicroRate,
		Source:    res.Source.String(),
	})
}
