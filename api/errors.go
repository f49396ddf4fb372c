package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// RequestError carries the HTTP status a handler failure should produce.
type RequestError struct {
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewRequestError wraps err with an HTTP status code.
func NewRequestError(status int, err error) *RequestError {
	return &RequestError{StatusCode: status, Err: err}
}

// WriteError writes err as plain text. Errors that are not a RequestError
// are reported as 500 without exposing their message.
func WriteError(w http.ResponseWriter, log *slog.Logger, err error) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		http.Error(w, reqErr.Error(), reqErr.StatusCode)
		return
	}
	log.Error("Internal error", "err", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

// WriteJSON writes v with status 200.
func WriteJSON(w http.ResponseWriter, log *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", "err", err)
	}
}
