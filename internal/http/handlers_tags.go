package http

import (
	"net/http"

	"moneta/internal/core"
)

type createTagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type tagResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

func tagToResponse(t core.Tag) tagResponse {
	return tagResponse{ID: t.ID, Name: t.Name, Color: t.Color}
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var req createTagRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	tag, err := s.store.CreateTag(r.Context(), r.PathValue("id"),
		sanitizeInput(req.Name), sanitizeInput(req.Color))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tagToResponse(tag))
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.store.ListTags(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]tagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, tagToResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTag(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setTransactionTagsRequest struct {
	TagIDs []string `json:"tag_ids"`
}

// handleSetTransactionTags replaces the transaction's tag set; an empty
// list clears it.
func (s *Server) handleSetTransactionTags(w http.ResponseWriter, r *http.Request) {
	var req setTransactionTagsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.store.SetTransactionTags(r.Context(), r.PathValue("id"), req.TagIDs); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTransactionTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.store.ListTransactionTags(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]tagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, tagToResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

type searchTransactionsRequest struct {
	AccountID      string `json:"account_id"`
	CategoryID     string `json:"category_id"`
	Type           string `json:"type"`
	MinAmountCents int64  `json:"min_amount_cents"`
	MaxAmountCents int64  `json:"max_amount_cents"`
	Text           string `json:"text"`
	TagID          string `json:"tag_id"`
	From           string `json:"from"`
	To             string `json:"to"`
}

// handleSearchTransactions runs a typed, validated filter query. Every
// field is optional except account_id.
func (s *Server) handleSearchTransactions(w http.ResponseWriter, r *http.Request) {
	var req searchTransactionsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var from, to core.Date
	var err error
	if req.From != "" {
		if from, err = core.ParseDate(req.From); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid from date, want YYYY-MM-DD")
			return
		}
	}
	if req.To != "" {
		if to, err = core.ParseDate(req.To); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid to date, want YYYY-MM-DD")
			return
		}
	}

	filter := core.TransactionFilter{
		AccountID:      req.AccountID,
		CategoryID:     req.CategoryID,
		Type:           core.TransactionType(req.Type),
		MinAmountCents: req.MinAmountCents,
		MaxAmountCents: req.MaxAmountCents,
		Text:           sanitizeInput(req.Text),
		TagID:          req.TagID,
		From:           from,
		To:             to,
	}
	if err := filter.Validate(); err != nil {
		writeDomainError(w, r, err)
		return
	}

	txns, err := s.store.SearchTransactions(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]transactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, transactionToResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}
