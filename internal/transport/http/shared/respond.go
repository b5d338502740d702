// Package shared holds the single place where domain error codes become
// HTTP status codes, so handlers never hand-pick statuses.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "rollcall/pkg/domain-errors"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidDescriptor:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error to its status. Internal failures are
// reported generically; the coded message is for client errors only.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := errorBody{Error: string(code)}
	if code == dErrors.CodeInternal {
		body.Message = "internal server error"
	} else {
		var de *dErrors.Error
		if errors.As(err, &de) {
			body.Message = de.Message
		}
	}
	WriteJSON(w, statusFor(code), body)
}
