// Package shared holds the JSON response helpers every handler uses, so
// error rendering stays uniform across the API.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "simkah/pkg/domain-errors"
)

type errorBody struct {
	Error            string         `json:"error"`
	ErrorDescription string         `json:"error_description,omitempty"`
	Details          map[string]any `json:"details,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError renders a coded error as JSON. Internal errors hide the message
// so infrastructure details never leak; everything else carries the message
// and any structured details.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := errorBody{Error: string(code)}
	if code != dErrors.CodeInternal {
		var de *dErrors.Error
		if errors.As(err, &de) {
			body.ErrorDescription = de.Message
			body.Details = de.Details
		}
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}
