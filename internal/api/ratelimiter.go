package api

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Each readiness miss writes the sentinel record, so the server allows only a few checks per second.
const (
	defaultRateLimitRPS   = 5.0
	defaultRateLimitBurst = 10
)

type rateLimiter interface {
	Allow() bool
}

// retryHinter is implemented by limiters that know when the next token frees up.
type retryHinter interface {
	RetryAfter() time.Duration
}

type readinessLimiter struct {
	bucket *rate.Limiter
}

func newTokenBucketLimiter(ratePerSecond float64, burst int) *readinessLimiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	return &readinessLimiter{
		bucket: rate.NewLimiter(rate.Limit(ratePerSecond), max(burst, 1)),
	}
}

func (l *readinessLimiter) Allow() bool {
	return l.bucket.Allow()
}

// RetryAfter peeks at the delay until the next token without consuming it.
func (l *readinessLimiter) RetryAfter() time.Duration {
	r := l.bucket.Reserve()
	defer r.Cancel()
	return r.Delay()
}

func retryAfterSeconds(limiter rateLimiter) string {
	seconds := 1
	if h, ok := limiter.(retryHinter); ok {
		seconds = max(int(math.Ceil(h.RetryAfter().Seconds())), 1)
	}
	return strconv.Itoa(seconds)
}

func rateLimitMiddleware(limiter rateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			w.Header().Set("Retry-After", retryAfterSeconds(limiter))
			writeError(w, http.StatusTooManyRequests, "Too many requests", "readiness checks are rate limited, please retry shortly")
			return
		}
		next.ServeHTTP(w, r)
	})
}
