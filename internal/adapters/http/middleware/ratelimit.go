package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// visitorTTL is how long an idle client address is remembered.
const visitorTTL = 5 * time.Minute

// RateLimiter is a per-address token bucket. Buckets refill continuously at
// rate tokens per interval and hold at most rate tokens.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	rate      float64
	interval  time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	tokens float64
	seen   time.Time
}

// NewRateLimiter creates a limiter allowing rate requests per interval.
// PRE: rate > 0, interval > 0
func NewRateLimiter(rate int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets:  make(map[string]*bucket),
		rate:     float64(rate),
		interval: interval,
		now:      time.Now,
	}
}

// Allow takes a token from addr's bucket.
// POST: false when the bucket is empty; idle buckets are dropped along the way
func (rl *RateLimiter) Allow(addr string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > time.Minute {
		for k, b := range rl.buckets {
			if now.Sub(b.seen) > visitorTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lastSweep = now
	}

	b, ok := rl.buckets[addr]
	if !ok {
		b = &bucket{tokens: rl.rate, seen: now}
		rl.buckets[addr] = b
	}
	b.tokens = min(rl.rate, b.tokens+rl.rate*float64(now.Sub(b.seen))/float64(rl.interval))
	b.seen = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// tracked reports how many client addresses currently hold a bucket.
func (rl *RateLimiter) tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// RateLimit returns middleware that limits form posts per client address.
// Page loads are not limited.
func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			addr := r.RemoteAddr
			if host, _, err := net.SplitHostPort(addr); err == nil {
				addr = host
			}
			if !limiter.Allow(addr) {
				slog.Warn("rate_limit_exceeded", "addr", addr, "path", r.URL.Path)
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Çok fazla istek gönderildi. Lütfen biraz bekleyip tekrar deneyin.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
