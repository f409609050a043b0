package response

import (
	"encoding/json"
	"net/http"

	"github.com/edvin/grantdesk/internal/result"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is the body of requests rejected before reaching a client.
type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// StatusFor maps a failure kind to the HTTP status reported to the dashboard.
func StatusFor(kind result.ErrorKind) int {
	switch kind {
	case result.Validation:
		return http.StatusBadRequest
	case result.BusinessLogic:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

// WriteResult writes res as-is. Successes use status, failures the status of
// their kind.
func WriteResult[T any](w http.ResponseWriter, status int, res result.Result[T]) {
	if !res.Success {
		status = StatusFor(res.ErrorType)
	}
	WriteJSON(w, status, res)
}
