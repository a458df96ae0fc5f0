package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultSlowRequest is the threshold used when Timing is given zero.
const DefaultSlowRequest = 200 * time.Millisecond

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestTiming describes one finished request.
type RequestTiming struct {
	RequestID  string
	Method     string
	Path       string
	Status     int
	DurationMs float64
	Slow       bool
}

// statusWriter captures the response status.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

// Timing assigns a request id, echoes it in the response and logs the duration:
// DEBUG normally, WARN at or above slow. Health probes pass through untimed.
// observe, when set, receives every timed request, including ones whose handler panics.
func Timing(slow time.Duration, observe func(RequestTiming)) func(http.Handler) http.Handler {
	if slow <= 0 {
		slow = DefaultSlowRequest
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/healthz") {
				next.ServeHTTP(w, r)
				return
			}

			id := r.Header.Get(RequestIDHeader)
			if id == "" || len(id) > 64 {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)

			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			defer func() {
				elapsed := time.Since(start)
				rt := RequestTiming{
					RequestID:  id,
					Method:     r.Method,
					Path:       r.URL.Path,
					Status:     sw.status,
					DurationMs: float64(elapsed.Microseconds()) / 1000.0,
					Slow:       elapsed >= slow,
				}
				level := slog.LevelDebug
				event := "request"
				if rt.Slow {
					level, event = slog.LevelWarn, "slow_request"
				}
				slog.Log(r.Context(), level, "request_event", "event", event,
					"request_id", rt.RequestID, "method", rt.Method, "path", rt.Path,
					"status", rt.Status, "duration_ms", rt.DurationMs)
				if observe != nil {
					observe(rt)
				}
			}()

			next.ServeHTTP(sw, r)
		})
	}
}
