package http

import (
	"net/http"

	"moneta/internal/core"
)

type createTransactionRequest struct {
	AccountID   string `json:"account_id"`
	CategoryID  string `json:"category_id"`
	AmountCents int64  `json:"amount_cents"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

type transactionResponse struct {
	ID            string `json:"id"`
	AccountID     string `json:"account_id"`
	CategoryID    string `json:"category_id,omitempty"`
	AmountCents   int64  `json:"amount_cents"`
	Type          string `json:"type"`
	Description   string `json:"description,omitempty"`
	Date          string `json:"date"`
	TransferGroup string `json:"transfer_group,omitempty"`
}

func transactionToResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:            t.ID,
		AccountID:     t.AccountID,
		CategoryID:    t.CategoryID,
		AmountCents:   t.AmountCents,
		Type:          string(t.Type),
		Description:   t.Description,
		Date:          t.Date.String(),
		TransferGroup: t.TransferGroup,
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}

	txn := core.Transaction{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		AmountCents: req.AmountCents,
		Type:        core.TransactionType(req.Type),
		Description: sanitizeInput(req.Description),
		Date:        date,
	}
	if err := txn.Validate(); err != nil {
		writeDomainError(w, r, err)
		return
	}

	created, err := s.store.CreateTransaction(r.Context(), txn)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, transactionToResponse(created))
}

type createTransferRequest struct {
	FromAccountID string `json:"from_account_id"`
	ToAccountID   string `json:"to_account_id"`
	AmountCents   int64  `json:"amount_cents"`
	Description   string `json:"description"`
	Date          string `json:"date"`
}

type transferResponse struct {
	TransferGroup string `json:"transfer_group"`
	Out           transactionResponse `json:"out"`
	In            transactionResponse `json:"in"`
}

// handleCreateTransfer writes both legs of a transfer in one store call.
// The amount is given in the source account's currency; a cross-currency
// destination leg is converted through the resolver, so a missing rate
// rejects the transfer rather than guessing 1:1.
func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req createTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.AmountCents <= 0 {
		writeError(w, r, http.StatusBadRequest, "amount_cents must be positive")
		return
	}
	if req.FromAccountID == req.ToAccountID {
		writeError(w, r, http.StatusBadRequest, "cannot transfer to the same account")
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}

	from, err := s.store.GetAccount(r.Context(), req.FromAccountID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	to, err := s.store.GetAccount(r.Context(), req.ToAccountID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	inCents := req.AmountCents
	if from.Currency != to.Currency {
		res, err := s.converter.Convert(r.Context(), core.NewMoney(req.AmountCents, from.Currency), to.Currency)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		inCents = res.Converted.Cents
	}

	description := sanitizeInput(req.Description)
	out := core.Transaction{
		AccountID:   from.ID,
		AmountCents: -req.AmountCents,
		Type:        core.Transfer,
		Description: description,
		Date:        date,
	}
	in := core.Transaction{
		AccountID:   to.ID,
		AmountCents: inCents,
		Type:        core.Transfer,
		Description: description,
		Date:        date,
	}

	group, err := s.store.CreateTransfer(r.Context(), out, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out.TransferGroup = group
	in.TransferGroup = group

	writeJSON(w, http.StatusCreated, transferResponse{
		TransferGroup: group,
		Out:           transactionToResponse(out),
		In:            transactionToResponse(in),
	})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	from, err := parseDateParam(r, "from")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid from date, want YYYY-MM-DD")
		return
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid to date, want YYYY-MM-DD")
		return
	}

	txns, err := s.store.ListTransactions(r.Context(), r.PathValue("id"), from, to)
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

type balanceResponse struct {
	AccountID    string `json:"account_id"`
	Currency     string `json:"currency"`
	BalanceCents int64  `json:"balance_cents"`
	Display      string `json:"display"`
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	account, err := s.store.GetAccount(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	cents, err := s.store.GetBalance(r.Context(), account.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{
		AccountID:    account.ID,
		Currency:     string(account.Currency),
		BalanceCents: cents,
		Display:      displayMoney(cents, account.Currency),
	})
}
