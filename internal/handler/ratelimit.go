package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/agencei/internal/metrics"
)

// CheckInLimiter caps attendance scans per caller in fixed windows counted in
// Redis. A limiter without a client lets everything through.
type CheckInLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	log    zerolog.Logger
	now    func() time.Time
}

// NewCheckInLimiter creates a limiter allowing limit scans per window.
func NewCheckInLimiter(client *redis.Client, limit int, window time.Duration, log zerolog.Logger) *CheckInLimiter {
	return &CheckInLimiter{client: client, limit: limit, window: window, log: log, now: time.Now}
}

func (l *CheckInLimiter) enabled() bool {
	return l != nil && l.client != nil && l.limit > 0 && l.window > 0
}

// Allow counts one scan for key and reports whether it is within the limit.
func (l *CheckInLimiter) Allow(ctx context.Context, key string) (allowed bool, remaining int, resetAt time.Time, err error) {
	now := l.now()
	bucket := now.UnixNano() / int64(l.window)
	windowKey := fmt.Sprintf("ratelimit:checkin:%s:%d", key, bucket)
	resetAt = time.Unix(0, (bucket+1)*int64(l.window))

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, l.limit, resetAt, fmt.Errorf("count check-in: %w", err)
	}

	count := int(incr.Val())
	remaining = l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= l.limit, remaining, resetAt, nil
}

// Middleware enforces the limit. Redis failures let the request through.
func (l *CheckInLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.enabled() {
			next.ServeHTTP(w, r)
			return
		}

		key := "ip:" + r.RemoteAddr
		if a, ok := ActorFrom(r.Context()); ok {
			key = "user:" + a.ID.String()
		}

		allowed, remaining, resetAt, err := l.Allow(r.Context(), key)
		if err != nil {
			l.log.Warn().Err(err).Str("request_id", chimw.GetReqID(r.Context())).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			metrics.RateLimitHits.WithLabelValues("checkin").Inc()
			l.log.Warn().Str("key", key).Msg("check-in rate limit exceeded")
			w.Header().Set("Retry-After", strconv.Itoa(int(resetAt.Sub(l.now()).Seconds())+1))
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many check-in attempts")
			return
		}

		next.ServeHTTP(w, r)
	})
}
