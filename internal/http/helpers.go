package http

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"moneta/internal/core"
	"moneta/internal/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if status >= 500 {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, status,
			log.FieldError, msg)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeDomainError maps domain sentinels to status codes. Anything not
// recognized is a 500 with a generic body so internals never leak.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrRateUnavailable):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidCurrency),
		errors.Is(err, core.ErrCurrencyMismatch),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidTransactionType),
		errors.Is(err, core.ErrInvalidFrequency),
		errors.Is(err, core.ErrInvalidBudgetPeriod),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrNameTooLong),
		errors.Is(err, core.ErrMissingAccount),
		errors.Is(err, core.ErrDescriptionTooLong),
		errors.Is(err, core.ErrEndBeforeStart),
		errors.Is(err, core.ErrInvalidRate),
		errors.Is(err, core.ErrInvalidBudgetWindow):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Unhandled error",
			log.FieldPath, r.URL.Path,
			log.FieldError, err.Error())
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// decodeJSON reads a request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// parseDateParam reads an optional YYYY-MM-DD query parameter. A missing
// parameter returns the zero Date, which the store treats as an open bound.
func parseDateParam(r *http.Request, key string) (core.Date, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(v)
}

// currencyParam reads an optional currency query parameter, falling back
// to def when absent.
func currencyParam(r *http.Request, key string, def core.Currency) (core.Currency, error) {
	v := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get(key)))
	if v == "" {
		return def, nil
	}
	c := core.Currency(v)
	if err := core.ValidateCurrency(c); err != nil {
		return "", err
	}
	return c, nil
}

// clientIP extracts the caller's address, trusting forwarding headers
// only as far as the immediate peer.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, ok := strings.Cut(xff, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
