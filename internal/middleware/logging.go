package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// errorEnvelope picks the error fields back out of a JSON response body so
// failed requests carry their cause in the access log.
type errorEnvelope struct {
	Error *errorCause `json:"error"`
}

type errorCause struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// Logging assigns every request an ID, echoes it in the response headers and
// writes one slog line per request, leveled by status class.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		started := time.Now()
		lw := &loggingWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lw, r)

		attrs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", lw.status,
			"duration_ms", time.Since(started).Milliseconds(),
			"client_ip", r.RemoteAddr,
		}

		if lw.status >= 400 {
			if r.URL.RawQuery != "" {
				attrs = append(attrs, "query", r.URL.RawQuery)
			}
			if cause := lw.errorCause(); cause != nil {
				attrs = append(attrs, "error_code", cause.Code, "error_message", cause.Message)
				if cause.Details != "" {
					attrs = append(attrs, "error_details", cause.Details)
				}
			}
		}

		switch {
		case lw.status >= 500:
			slog.Error("request", attrs...)
		case lw.status >= 400:
			slog.Warn("request", attrs...)
		default:
			slog.Info("request", attrs...)
		}
	})
}

// loggingWriter records the status and, for failed requests, buffers the body
// so the error envelope can be pulled into the log line.
type loggingWriter struct {
	http.ResponseWriter
	status      int
	body        bytes.Buffer
	wroteHeader bool
}

func (lw *loggingWriter) WriteHeader(statusCode int) {
	if lw.wroteHeader {
		return
	}
	lw.status = statusCode
	lw.wroteHeader = true
	lw.ResponseWriter.WriteHeader(statusCode)
}

func (lw *loggingWriter) Write(b []byte) (int, error) {
	if lw.status >= 400 {
		lw.body.Write(b)
	}
	return lw.ResponseWriter.Write(b)
}

// Hijack lets websocket upgrades pass through the logging wrapper.
func (lw *loggingWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := lw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

func (lw *loggingWriter) Unwrap() http.ResponseWriter {
	return lw.ResponseWriter
}

func (lw *loggingWriter) errorCause() *errorCause {
	if lw.body.Len() == 0 {
		return nil
	}
	var parsed errorEnvelope
	if err := json.Unmarshal(lw.body.Bytes(), &parsed); err != nil {
		return nil
	}
	return parsed.Error
}
