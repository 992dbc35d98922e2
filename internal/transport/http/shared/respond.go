// Package shared holds response helpers used by every HTTP handler package.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "cohort/pkg/domain-errors"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON serializes v with the given status. Encoding failures are
// unrecoverable at this point since the status line is already out.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error to its HTTP status and a stable error body.
// Non-domain errors surface as internal_error without leaking detail.
func WriteError(w http.ResponseWriter, err error) {
	status := dErrors.ToHTTPStatus(err)
	body := errorBody{Error: string(dErrors.CodeOf(err))}

	var de *dErrors.DomainError
	if errors.As(err, &de) {
		body.Message = de.Message
	}
	WriteJSON(w, status, body)
}
