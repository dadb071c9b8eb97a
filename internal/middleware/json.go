package middleware

import (
	"encoding/json"
	"net/http"

	"mavon-shop/internal/model"
)

// writeJSON emits an envelope from inside the middleware chain, for failures
// that never reach a handler (panics, rate limits).
func writeJSON(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   &model.APIError{Code: code, Message: message},
	})
}
