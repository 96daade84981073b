package repositories

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/pawtraits-dev/pawtraits-sub013/services"
)

// RedisQuota enforces the per-IP daily generation quota with an atomic Redis
// INCR, so concurrent requests from the same address never undercount.
type RedisQuota struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewRedisQuota reads the daily limit from GENERATION_DAILY_LIMIT (default 10).
func NewRedisQuota(client *redis.Client) *RedisQuota {
	limit := int64(10)
	if v := os.Getenv("GENERATION_DAILY_LIMIT"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}

	return &RedisQuota{
		client: client,
		limit:  limit,
		window: 24 * time.Hour,
	}
}

// Allow counts this request against the caller's window and returns the
// remaining quota. When Redis is unavailable the quota degrades open rather
// than blocking generation entirely.
func (q *RedisQuota) Allow(ctx context.Context, ip string) (int64, error) {
	if q.client == nil {
		return q.limit, nil
	}

	key := fmt.Sprintf("generation:quota:%s:%s", ip, time.Now().UTC().Format("2006-01-02"))
	count, err := q.client.Incr(ctx, key).Result()
	if err != nil {
		log.Printf("WARNING: generation quota check failed for %s: %v", ip, err)
		return q.limit, nil
	}
	if count == 1 {
		q.client.Expire(ctx, key, q.window)
	}

	if count > q.limit {
		return 0, services.ErrQuotaExceeded
	}
	return q.limit - count, nil
}
