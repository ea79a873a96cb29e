package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/segyhp/invoice-followups/pkg/response"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const keyPrefix = "ratelimit"

// Limiter is a fixed-window request counter kept in redis so every instance shares it
type Limiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
	logger logrus.FieldLogger
	now    func() time.Time
}

type Result struct {
	Allowed   bool
	Count     int
	Remaining int
	ResetIn   time.Duration
}

func New(client *redis.Client, limit int, window time.Duration, logger logrus.FieldLogger) *Limiter {
	return &Limiter{
		redis:  client,
		limit:  limit,
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

// Allow counts one hit for key in the current window
func (l *Limiter) Allow(ctx context.Context, key string) (*Result, error) {
	now := l.now()
	windowStart := now.Truncate(l.window)
	redisKey := fmt.Sprintf("%s:%s:%d", keyPrefix, key, windowStart.Unix())

	pipe := l.redis.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed counting request: %w", err)
	}

	count := int(incr.Val())
	return &Result{
		Allowed:   count <= l.limit,
		Count:     count,
		Remaining: max(0, l.limit-count),
		ResetIn:   windowStart.Add(l.window).Sub(now),
	}, nil
}

// Middleware rejects requests over the limit with 429. keyFunc picks the bucket for a request.
// When redis is unreachable requests are let through.
func (l *Limiter) Middleware(keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)

			result, err := l.Allow(r.Context(), key)
			if err != nil {
				l.logger.WithError(err).WithField("key", key).Warn("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

			if !result.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(result.ResetIn.Seconds())+1))
				response.TooManyRequests(w, result.ResetIn)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
