package middleware

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/variantdb/sheetsearch/pkg/logger"
)

// Timeout enforces a per-request deadline. Queries run against in-memory
// snapshots and normally finish in microseconds, so a deadline hit almost
// always means a stalled reindex request; the 504 body matches the API's
// JSON error shape.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			done := make(chan struct{})
			tw := &timeoutWriter{ResponseWriter: w}
			go func() {
				next.ServeHTTP(tw, r.WithContext(ctx))
				close(done)
			}()
			select {
			case <-done:
			case <-ctx.Done():
				if !tw.written {
					logger.FromContext(r.Context()).Warn("request deadline exceeded",
						"method", r.Method,
						"path", r.URL.Path,
						"timeout", timeout,
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusGatewayTimeout)
					io.WriteString(w, `{"error":"request deadline exceeded"}`)
				}
			}
		})
	}
}

// timeoutWriter tracks whether the handler produced output before the
// deadline, so the timeout response never interleaves with a late write.
type timeoutWriter struct {
	http.ResponseWriter
	written bool
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.written = true
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.written = true
	return tw.ResponseWriter.Write(b)
}
