package middleware

import (
	"net/http"
	"time"
)

// Timeout cuts off API handlers that outlive the request budget. The body
// mirrors the usual envelope; http.TimeoutHandler only takes a string.
// Hijack-based endpoints must be mounted outside this wrapper.
func Timeout(limit time.Duration) func(http.Handler) http.Handler {
	if limit <= 0 {
		limit = 30 * time.Second
	}

	body := `{"success":false,"error":{"code":"REQUEST_TIMEOUT","message":"request timed out"}}`

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, limit, body)
	}
}
