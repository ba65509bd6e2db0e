// Package http provides the HTTP handlers for the stub invoicing API. The
// error bodies deliberately mirror the real backend: a "detail" field that
// is either a plain string or a validation array of {loc, msg} entries.
package http

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// writeDetail answers with a string detail, e.g. {"detail": "User not found"}.
func writeDetail(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}

// validationError is one entry of a 422 validation body.
type validationError struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// writeValidation answers with a 422 validation array.
func writeValidation(w http.ResponseWriter, errs ...validationError) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": errs})
}

func fieldError(field, msg string) validationError {
	return validationError{Loc: []any{"body", field}, Msg: msg, Type: "value_error"}
}
