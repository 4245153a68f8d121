package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"instaview/pkg/apierr"
)

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.log.InfoWithFields("request", map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
			"remote":      clientIP(r),
		})
	})
}

// tokenBucket refills to capacity once per period.
type tokenBucket struct {
	capacity   int
	tokens     int
	period     time.Duration
	lastRefill time.Time
}

func (tb *tokenBucket) allow(now time.Time) bool {
	if now.Sub(tb.lastRefill) >= tb.period {
		tb.tokens = tb.capacity
		tb.lastRefill = now
	}
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// rateLimiter throttles each client IP with its own token bucket. A zero or
// negative limit disables throttling.
func (s *Server) rateLimiter(requestsPerMinute int) func(http.Handler) http.Handler {
	var mu sync.Mutex
	buckets := make(map[string]*tokenBucket)

	return func(next http.Handler) http.Handler {
		if requestsPerMinute <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			mu.Lock()
			tb, ok := buckets[ip]
			if !ok {
				tb = &tokenBucket{
					capacity:   requestsPerMinute,
					tokens:     requestsPerMinute,
					period:     time.Minute,
					lastRefill: time.Now(),
				}
				buckets[ip] = tb
			}
			allowed := tb.allow(time.Now())
			mu.Unlock()

			if !allowed {
				s.respondError(w, apierr.New(apierr.CodeRateLimit, ""))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
