package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/markethall/storefront-api/internal/metrics"
)

// Limiter decides whether a request identified by key may proceed. The
// interface exists so a multi-instance deployment can back it with a shared
// counter store; the in-memory implementation is single-instance only.
type Limiter interface {
	Allow(key string) bool
}

// sweepEvery is how many Allow calls pass between sweeps of expired buckets.
const sweepEvery = 1024

// WindowLimiter is a fixed-window in-memory rate limiter.
type WindowLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string]*windowBucket
	calls   int
	now     func() time.Time
}

type windowBucket struct {
	start time.Time
	count int
}

// NewWindowLimiter allows limit requests per key per window.
func NewWindowLimiter(limit int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*windowBucket),
		now:     time.Now,
	}
}

// Allow reports whether another request from key fits in the current window.
func (l *WindowLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	// Periodically drop expired buckets so one-off client IPs that never
	// return do not grow the map forever.
	l.calls++
	if l.calls%sweepEvery == 0 {
		for k, b := range l.buckets {
			if now.Sub(b.start) >= l.window {
				delete(l.buckets, k)
			}
		}
	}

	b, ok := l.buckets[key]
	if !ok || now.Sub(b.start) >= l.window {
		l.buckets[key] = &windowBucket{start: now, count: 1}
		return true
	}

	if b.count >= l.limit {
		return false
	}
	b.count++
	return true
}

// RateLimit rejects requests exceeding the limiter's budget with 429. Keys
// are the client IP as resolved by upstream middleware (RealIP).
func RateLimit(limiter Limiter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(r.RemoteAddr) {
				metrics.RateLimited.Inc()
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
