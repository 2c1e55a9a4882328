// Package ratelimit implements per-client-IP token-bucket rate
// limiting for the gateway's HTTP surface, grounded on the
// ingress-middleware rate limiter pattern: one golang.org/x/time/rate
// limiter per client IP, created lazily and periodically compacted.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/olifog/yamos/internal/logging"
)

// CleanupInterval is how often idle limiter state is compacted.
const CleanupInterval = 60 * time.Second

// idleLimiterCap bounds how large the per-IP map is allowed to grow
// before a cleanup pass clears it outright, rather than tracking
// per-entry last-access time.
const idleLimiterCap = 10000

// Limiter is a per-client-IP token bucket keyed by extracted client IP.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
}

// New builds a Limiter allowing rps requests per second per client IP,
// with the given burst capacity.
func New(rps float64, burst int) *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    burst,
	}
}

// Allow reports whether the request from r's client IP may proceed.
func (l *Limiter) Allow(r *http.Request) bool {
	ip := getClientIP(r)

	l.mu.Lock()
	limiter, ok := l.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(l.rps), l.burst)
		l.limiters[ip] = limiter
	}
	l.mu.Unlock()

	allowed := limiter.Allow()
	if !allowed {
		logging.WithComponent("ratelimit").Warn().Str("client_ip", ip).Msg("rate limit exceeded")
	}
	return allowed
}

// Cleanup compacts idle limiter state. The gateway runs this every
// CleanupInterval in a background goroutine.
func (l *Limiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.limiters) > idleLimiterCap {
		logging.WithComponent("ratelimit").Info().Int("count", len(l.limiters)).Msg("clearing rate limiter state")
		l.limiters = make(map[string]*rate.Limiter)
	}
}

// StartCleanupJob runs Cleanup every CleanupInterval until stop is
// closed.
func (l *Limiter) StartCleanupJob(stop <-chan struct{}) {
	ticker := time.NewTicker(CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Cleanup()
			case <-stop:
				return
			}
		}
	}()
}

// Middleware wraps next, responding 429 to requests that exceed the
// per-client-IP rate.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(r) {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// getClientIP extracts the client IP with trusted-proxy-aware logic:
// X-Forwarded-For's first hop, then X-Real-IP, then the TCP peer
// address.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			if ip := strings.TrimSpace(parts[0]); ip != "" {
				return ip
			}
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
