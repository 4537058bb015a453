package httpapi

import (
	"net"
	"net/http"
	"time"

	"github.com/MrEthical07/phoneauth"
	"github.com/MrEthical07/phoneauth/internal/logging"
)

// clientIP stores the peer address for the sign-in attempt budget.
func clientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		next.ServeHTTP(w, r.WithContext(phoneauth.WithClientIP(r.Context(), host)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLogger(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if rec.status >= http.StatusInternalServerError {
				log.Error(r.Context(), "request failed", args...)
				return
			}
			log.Debug(r.Context(), "request", args...)
		})
	}
}
