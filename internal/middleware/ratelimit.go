package middleware

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RateLimiter throttles money-moving endpoints per user. Redis backs the
// shared counter when configured; otherwise, or when Redis errors, an
// in-process token bucket takes over.
type RateLimiter struct {
	limiter  *redis_rate.Limiter
	fallback *localLimiter
	limit    redis_rate.Limit
}

func NewRateLimiter(rdb *redis.Client, limit redis_rate.Limit) *RateLimiter {
	rl := &RateLimiter{
		fallback: newLocalLimiter(),
		limit:    limit,
	}
	if rdb != nil {
		rl.limiter = redis_rate.NewLimiter(rdb)
	}
	return rl
}

func PerMinute(requests int) redis_rate.Limit {
	burst := requests / 3
	if burst < 1 {
		burst = 1
	}
	return redis_rate.Limit{Rate: requests, Burst: burst, Period: time.Minute}
}

func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := rateLimitKey(c)
		res, err := rl.allow(c.UserContext(), key)
		if err != nil {
			zerolog.Ctx(c.UserContext()).Warn().Err(err).Str("key", key).Msg("rate limiter failing open")
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.limit.Rate))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if res.Allowed == 0 {
			retryAfter := int(res.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": fmt.Sprintf("Rate limit exceeded. Retry after %d seconds.", retryAfter),
			})
		}
		return c.Next()
	}
}

func (rl *RateLimiter) allow(ctx context.Context, key string) (*redis_rate.Result, error) {
	if rl.limiter != nil {
		res, err := rl.limiter.Allow(ctx, key, rl.limit)
		if err == nil {
			return res, nil
		}
		zerolog.Ctx(ctx).Debug().Err(err).Msg("redis rate limiter unavailable, using local bucket")
	}
	return rl.fallback.allow(key, rl.limit)
}

func rateLimitKey(c *fiber.Ctx) string {
	if userID, ok := c.Locals("user_id").(string); ok && userID != "" {
		return "ratelimit:user:" + userID + ":" + c.Route().Path
	}
	return "ratelimit:ip:" + c.IP() + ":" + c.Route().Path
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

type localLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	lastScan time.Time
}

const entryTTL = 10 * time.Minute

func newLocalLimiter() *localLimiter {
	return &localLimiter{limiters: make(map[string]*limiterEntry), lastScan: time.Now()}
}

func (l *localLimiter) allow(key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	if limit.Rate <= 0 || limit.Period <= 0 {
		return nil, fmt.Errorf("invalid rate limit %v", limit)
	}
	ratePerSec := float64(limit.Rate) / limit.Period.Seconds()
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastScan) > entryTTL {
		for k, entry := range l.limiters {
			if now.Sub(entry.lastAccess) > entryTTL {
				delete(l.limiters, k)
			}
		}
		l.lastScan = now
	}

	entry, ok := l.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(ratePerSec), limit.Burst)}
		l.limiters[key] = entry
	}
	entry.lastAccess = now

	allowed := entry.limiter.AllowN(now, 1)
	remaining := int(entry.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}

	res := &redis_rate.Result{
		Limit:      limit,
		Remaining:  remaining,
		RetryAfter: -1,
		ResetAfter: time.Duration(float64(time.Second) / ratePerSec),
	}
	if allowed {
		res.Allowed = 1
	} else {
		res.RetryAfter = time.Duration(float64(time.Second) / ratePerSec)
	}
	return res, nil
}
