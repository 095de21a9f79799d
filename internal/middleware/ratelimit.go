package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkrealm/blog/internal/pkg/response"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitRule limits one scope to Max requests per Window.
type RateLimitRule struct {
	Scope  string
	Max    int64
	Window time.Duration
}

// RateLimit returns a fixed-window limiter keyed by user (or client IP for
// anonymous callers) and rule scope. A nil client disables the limiter, and
// redis errors let the request through.
func RateLimit(rdb *redis.Client, log *zap.Logger, rule RateLimitRule) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		who := CurrentUserID(c)
		if who == "" {
			who = c.ClientIP()
		}
		if who == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		window := time.Now().UnixNano() / int64(rule.Window)
		key := fmt.Sprintf("inkrealm:rate_limit:%s:%s:%d", rule.Scope, who, window)

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			if log != nil {
				log.Warn("rate limit unavailable", zap.String("scope", rule.Scope), zap.Error(err))
			}
			c.Next()
			return
		}
		if count == 1 {
			rdb.PExpire(ctx, key, rule.Window+time.Second)
		}

		if count > rule.Max {
			retry := int(rule.Window / time.Second)
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			response.TooManyRequests(c)
			return
		}

		c.Next()
	}
}
