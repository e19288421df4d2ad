package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cleared-dev/teller/internal/guard"
	"github.com/cleared-dev/teller/internal/ledger"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg})
}

// writeErr maps a domain error to its status code.
func writeErr(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	// Locked errors also match ErrInvalidCredentials.
	case errors.Is(err, guard.ErrLockedOut):
		return http.StatusLocked
	case errors.Is(err, ledger.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidKind),
		errors.Is(err, guard.ErrWeakPassword):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrInactive):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
