package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client key. Buckets idle for longer than the eviction
// window are dropped.
type RateLimiter struct {
	buckets *cache.Cache
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	keyFn   func(*http.Request) string
}

const limiterIdleTTL = 10 * time.Minute

// NewRateLimiter creates a keyed limiter. limit is events per second; for N per minute use
// rate.Limit(float64(N)/60.0). burst is max tokens per bucket. keyFn defaults to ActorOrIP.
func NewRateLimiter(limit rate.Limit, burst int, keyFn func(*http.Request) string) *RateLimiter {
	if keyFn == nil {
		keyFn = ActorOrIP
	}
	return &RateLimiter{
		buckets: cache.New(limiterIdleTTL, limiterIdleTTL),
		limit:   limit,
		burst:   burst,
		keyFn:   keyFn,
	}
}

func (l *RateLimiter) getLimiter(k string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.buckets.Get(k); ok {
		lim := v.(*rate.Limiter)
		l.buckets.SetDefault(k, lim)
		return lim
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.buckets.SetDefault(k, lim)
	return lim
}

// clientIP returns the client IP from X-Forwarded-For, X-Real-IP, or RemoteAddr without the port.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First value is the client when behind a single proxy
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// ActorOrIP keys authenticated requests by actor id and anonymous ones by client IP.
func ActorOrIP(r *http.Request) string {
	if a, ok := ActorFromContext(r.Context()); ok {
		return "actor:" + strconv.Itoa(a.ID)
	}
	return "ip:" + clientIP(r)
}

// Middleware returns 429 when the client exceeds its rate.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.getLimiter(l.keyFn(r)).Allow() {
			writeError(w, http.StatusTooManyRequests, "too many requests", "rate_limited")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AuthRateLimiter suits login: 10 requests per minute per IP, burst 5.
func AuthRateLimiter() *RateLimiter {
	return NewRateLimiter(rate.Limit(10.0/60.0), 5, func(r *http.Request) string { return clientIP(r) })
}

// WriteRateLimiter suits transition routes: 60 per minute per actor, burst 10.
func WriteRateLimiter() *RateLimiter {
	return NewRateLimiter(rate.Limit(1), 10, ActorOrIP)
}
