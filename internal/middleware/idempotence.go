package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkrealm/blog/internal/pkg/response"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotenceHeader     = "Idempotency-Key"
	DefaultIdempotenceTTL = 60 * time.Second

	idempotencePending = "0"
	idempotenceDone    = "1"
)

// Idempotence rejects a repeated write while the first one is in flight or
// for ttl after it succeeded. Requests are identified by caller, method and
// path together with the Idempotency-Key header, or with the body when no
// header is sent. Failed requests release
// their key so the client can retry.
func Idempotence(rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = DefaultIdempotenceTTL
	}
	return func(c *gin.Context) {
		if rdb == nil || c.Request.Method == http.MethodGet {
			c.Next()
			return
		}

		key, err := resolveIdempotenceKey(c)
		if err != nil || key == "" {
			c.Next()
			return
		}

		redisKey := fmt.Sprintf("inkrealm:idempotence:%s", key)
		ctx := c.Request.Context()

		ok, err := rdb.SetNX(ctx, redisKey, idempotencePending, ttl).Result()
		if err != nil {
			c.Next()
			return
		}
		if !ok {
			val, err := rdb.Get(ctx, redisKey).Result()
			if errors.Is(err, redis.Nil) {
				c.Next()
				return
			}
			msg := "this request was already accepted"
			if val == idempotencePending {
				msg = "this request is still being processed"
			}
			response.Conflict(c, msg)
			return
		}

		c.Next()

		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			rdb.Set(ctx, redisKey, idempotenceDone, redis.KeepTTL)
		} else {
			rdb.Del(ctx, redisKey)
		}
	}
}

func resolveIdempotenceKey(c *gin.Context) (string, error) {
	who := CurrentUserID(c)
	if who == "" {
		who = c.ClientIP()
	}

	if hdr := c.GetHeader(IdempotenceHeader); hdr != "" {
		return hashKey(who, c.Request.Method, c.Request.URL.Path, hdr), nil
	}

	var body []byte
	if c.Request.Body != nil {
		b, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return "", err
		}
		body = b
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	}

	if len(body) == 0 && who == "" {
		return "", nil
	}
	return hashKey(c.Request.Method, c.Request.URL.String(), string(body), who), nil
}

func hashKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{'|'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
