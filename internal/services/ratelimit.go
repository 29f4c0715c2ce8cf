package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/healthbridge/healthbridge-backend/internal/pkg/envutil"
	"github.com/healthbridge/healthbridge-backend/internal/pkg/logger"
)

type RateLimitService interface {
	// Allow reports whether the key may proceed within the current window and
	// how many requests it has left.
	Allow(ctx context.Context, key string) (allowed bool, remaining int, err error)
	// Window is the bucket length, exposed for Retry-After headers.
	Window() time.Duration
}

type rateLimitService struct {
	log    *logger.Logger
	rdb    *redis.Client
	limit  int
	window time.Duration
}

// NewRateLimitService uses fixed Redis TTL buckets: one INCR-with-expiry
// counter per key per window. Counters expire on their own, so the limiter
// carries no cleanup job and survives process restarts.
func NewRateLimitService(baseLog *logger.Logger, rdb *redis.Client) RateLimitService {
	return &rateLimitService{
		log:    baseLog.With("service", "RateLimitService"),
		rdb:    rdb,
		limit:  envutil.Int("RATE_LIMIT_REQUESTS", 30),
		window: envutil.Duration("RATE_LIMIT_WINDOW", time.Minute),
	}
}

func (s *rateLimitService) Window() time.Duration { return s.window }

func (s *rateLimitService) Allow(ctx context.Context, key string) (bool, int, error) {
	bucket := fmt.Sprintf("ratelimit:%s:%d", key, time.Now().Unix()/int64(s.window.Seconds()))

	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, bucket)
	pipe.Expire(ctx, bucket, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		// Fail open: a limiter outage must not take triage down with it.
		s.log.Error("rate limit check failed, allowing request", "error", err)
		return true, s.limit, nil
	}

	count := int(incr.Val())
	if count > s.limit {
		return false, 0, nil
	}
	return true, s.limit - count, nil
}
