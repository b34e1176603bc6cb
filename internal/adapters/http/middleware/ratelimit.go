package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// idleBucketTTL is how long an untouched client bucket is kept.
const idleBucketTTL = 5 * time.Minute

// RateLimiter is a per-client token bucket. Tokens refill continuously at
// perSecond up to burst.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	perSecond float64
	burst     float64
	lastPrune time.Time
	now       func() time.Time
}

type bucket struct {
	tokens float64
	seen   time.Time
}

// NewRateLimiter creates a limiter allowing perSecond requests per client
// with bursts of up to burst.
// PRE: perSecond > 0, burst >= 1
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		buckets:   make(map[string]*bucket),
		perSecond: perSecond,
		burst:     float64(burst),
		now:       time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	rl.now = now
	rl.lastPrune = now()
	return rl
}

// Allow takes a token for client.
// POST: when false, the returned duration is how long until a token is available
func (rl *RateLimiter) Allow(client string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.pruneLocked(now)

	b, ok := rl.buckets[client]
	if !ok {
		b = &bucket{tokens: rl.burst, seen: now}
		rl.buckets[client] = b
	}
	b.tokens = math.Min(rl.burst, b.tokens+now.Sub(b.seen).Seconds()*rl.perSecond)
	b.seen = now

	if b.tokens < 1 {
		wait := time.Duration((1 - b.tokens) / rl.perSecond * float64(time.Second))
		return false, wait
	}
	b.tokens--
	return true, 0
}

// pruneLocked drops idle buckets at most once per idleBucketTTL.
func (rl *RateLimiter) pruneLocked(now time.Time) {
	if now.Sub(rl.lastPrune) < idleBucketTTL {
		return
	}
	for k, b := range rl.buckets {
		if now.Sub(b.seen) > idleBucketTTL {
			delete(rl.buckets, k)
		}
	}
	rl.lastPrune = now
}

// clientIP strips the port from RemoteAddr so every connection from one
// host shares a bucket.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit rejects clients that exceed the limiter with 429 and Retry-After.
// Static assets are not counted.
func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isStatic(r) {
				next.ServeHTTP(w, r)
				return
			}
			ip := clientIP(r)
			if ok, wait := limiter.Allow(ip); !ok {
				slog.Warn("rate_limit_exceeded", "ip", ip, "path", r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
