package middleware

import (
	"fmt"
	"net/http"
	"time"

	pkgredis "github.com/etherbrian/etherbrian.github.io/internal/pkg/redis"
	"github.com/etherbrian/etherbrian.github.io/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

const (
	rateLimitMax    = 10
	rateLimitWindow = time.Second
)

// RateLimit returns a middleware that enforces a per-IP per-second limit
// on public form submissions. A nil client disables limiting entirely.
func RateLimit(rc *pkgredis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rc == nil {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		windowKey := time.Now().Unix()
		key := fmt.Sprintf("site:rate_limit:%s:%d", ip, windowKey)

		count, err := rc.Raw().Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}

		if count == 1 {
			rc.Raw().PExpire(ctx, key, rateLimitWindow+time.Second)
		}

		if count > rateLimitMax {
			c.Header("Retry-After", "1")
			response.Fail(c, http.StatusTooManyRequests, "too many requests", "rate_limited")
			return
		}

		c.Next()
	}
}
