package middlewares

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const rateLimitPrefix = "ratelimit:whatsapp:"

// HitCounter counts hits on key within a fixed window starting at the
// first hit.
type HitCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisHitCounter keeps counters in Redis with INCR and a TTL set on the
// first hit.
type RedisHitCounter struct {
	Client *redis.Client
}

func (r RedisHitCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := r.Client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := r.Client.Expire(ctx, key, window).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

// WebhookRateLimiter allows each sender limit messages per window. Messages
// over the limit are answered by onLimit. Counter failures let the message
// through.
func WebhookRateLimiter(counter HitCounter, limit int, window time.Duration, onLimit gin.HandlerFunc, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sender := c.PostForm("From")
		if sender == "" || limit <= 0 {
			c.Next()
			return
		}

		count, err := counter.Hit(c.Request.Context(), rateLimitPrefix+sender, window)
		if err != nil {
			log.WithField("sender", sender).WithError(err).Error("rate limit counter failed")
			c.Next()
			return
		}

		if count > int64(limit) {
			log.WithField("sender", sender).WithField("count", count).Warn("sender rate limited")
			onLimit(c)
			c.Abort()
			return
		}

		c.Next()
	}
}
