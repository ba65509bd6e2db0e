package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FallbackErrorMessage is shown whenever a server error cannot be decoded
// into something more specific (malformed body, missing detail, transport
// failure).
const FallbackErrorMessage = "Ocurrió un error desconocido al procesar la respuesta del servidor."

// Error is a failed API operation reduced to what the UI needs: an HTTP
// status (0 for transport-level failures) and a display message.
type Error struct {
	// Status is the HTTP status code, or 0 when the request never
	// produced a response.
	Status int
	// Message is the normalized, user-facing description.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

// Unauthorized reports whether the failure means the session token is
// invalid or expired.
func (e *Error) Unauthorized() bool { return e.Status == 401 }

// validationEntry mirrors one element of a FastAPI-style validation error
// array. Loc segments may be strings or integers, so they are decoded
// loosely.
type validationEntry struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// NormalizeErrorBody converts a server error body into a single display
// string. A non-empty string "detail" is returned verbatim; an array
// "detail" of {loc, msg} entries is rendered as "<last loc segment>: <msg>"
// joined by "; "; anything else, including a null or empty detail, yields
// FallbackErrorMessage. It never panics.
func NormalizeErrorBody(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return FallbackErrorMessage
	}

	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		// A JSON null also decodes into an empty string; neither makes
		// a usable message.
		if s == "" {
			return FallbackErrorMessage
		}
		return s
	}

	var entries []validationEntry
	if err := json.Unmarshal(payload.Detail, &entries); err == nil && len(entries) > 0 {
		parts := make([]string, 0, len(entries))
		for _, e := range entries {
			field := "campo"
			if len(e.Loc) > 0 {
				field = fmt.Sprintf("%v", e.Loc[len(e.Loc)-1])
			}
			parts = append(parts, fmt.Sprintf("%s: %s", field, e.Msg))
		}
		return strings.Join(parts, "; ")
	}

	return FallbackErrorMessage
}
