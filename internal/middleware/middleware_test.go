package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/inkrealm/blog/internal/pkg/session"
	"github.com/inkrealm/blog/internal/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func do(r http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.CreateUser(t, db, "alice")
	token, s, err := session.Issue(db, u.ID, "", "", time.Hour)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", Auth(db), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUserID(c)+"/"+CurrentSessionID(c))
	})

	w := do(r, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/me", "", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, u.ID+"/"+s.ID, w.Body.String())

	require.NoError(t, session.Revoke(db, u.ID, s.ID))
	w = do(r, http.MethodGet, "/me", "", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireStaff(t *testing.T) {
	db := testutil.NewDB(t)
	reader := testutil.CreateUser(t, db, "reader")
	editor := testutil.CreateUser(t, db, "editor")
	require.NoError(t, db.Model(editor).Update("is_staff", true).Error)

	r := gin.New()
	r.POST("/admin", func(c *gin.Context) {
		if id := c.GetHeader("X-User"); id != "" {
			c.Set(ContextKeyUserID, id)
		}
	}, RequireStaff(db), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/admin", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/admin", "", map[string]string{"X-User": reader.ID}).Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodPost, "/admin", "", map[string]string{"X-User": editor.ID}).Code)
}

func TestOptionalAuth(t *testing.T) {
	db := testutil.NewDB(t)

	r := gin.New()
	r.GET("/", OptionalAuth(db), func(c *gin.Context) {
		if IsAuthenticated(c) {
			c.String(http.StatusOK, "user")
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	w := do(r, http.MethodGet, "/", "", map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anonymous", w.Body.String())
}

func TestNormalizeToken(t *testing.T) {
	assert.Equal(t, "abc", NormalizeToken("  Bearer abc "))
	assert.Equal(t, "abc", NormalizeToken("bearer abc"))
	assert.Equal(t, "abc", NormalizeToken("abc"))
	assert.Equal(t, "", NormalizeToken("   "))
}

func TestRateLimit(t *testing.T) {
	_, rdb := newRedis(t)

	r := gin.New()
	r.POST("/login", RateLimit(rdb, zap.NewNop(), RateLimitRule{Scope: "login", Max: 2, Window: time.Minute}), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for i := 0; i < 2; i++ {
		w := do(r, http.MethodPost, "/login", "", nil)
		require.Equal(t, http.StatusNoContent, w.Code)
	}
	w := do(r, http.MethodPost, "/login", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestRateLimitFailsOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()

	r := gin.New()
	r.POST("/login", RateLimit(rdb, zap.NewNop(), RateLimitRule{Scope: "login", Max: 1, Window: time.Minute}), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for i := 0; i < 3; i++ {
		w := do(r, http.MethodPost, "/login", "", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}

func TestRateLimitDisabledWithoutRedis(t *testing.T) {
	r := gin.New()
	r.POST("/x", RateLimit(nil, nil, RateLimitRule{Scope: "x", Max: 0, Window: time.Second}), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodPost, "/x", "", nil).Code)
}

func TestIdempotence(t *testing.T) {
	_, rdb := newRedis(t)

	calls := 0
	r := gin.New()
	r.POST("/posts", Idempotence(rdb, time.Minute), func(c *gin.Context) {
		calls++
		if strings.Contains(c.Query("fail"), "1") {
			c.Status(http.StatusUnprocessableEntity)
			return
		}
		c.Status(http.StatusCreated)
	})

	w := do(r, http.MethodPost, "/posts", `{"title":"hello"}`, nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	w = do(r, http.MethodPost, "/posts", `{"title":"hello"}`, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = do(r, http.MethodPost, "/posts", `{"title":"other"}`, nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 2, calls)

	// failures release the key
	for i := 0; i < 2; i++ {
		w = do(r, http.MethodPost, "/posts?fail=1", `{}`, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	}
	assert.Equal(t, 4, calls)
}

func TestIdempotenceHeaderKey(t *testing.T) {
	_, rdb := newRedis(t)

	r := gin.New()
	r.POST("/posts", Idempotence(rdb, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	r.POST("/posts/:slug/comments", Idempotence(rdb, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	h := map[string]string{IdempotenceHeader: "k-1"}
	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/posts", `{"a":1}`, h).Code)
	assert.Equal(t, http.StatusConflict, do(r, http.MethodPost, "/posts", `{"a":2}`, h).Code)

	// the same key on another route is a different request
	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/posts/hello/comments", `{"a":1}`, h).Code)
	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/posts/other/comments", `{"a":1}`, h).Code)
	assert.Equal(t, http.StatusConflict, do(r, http.MethodPost, "/posts/hello/comments", `{"a":1}`, h).Code)
}

func TestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	r := gin.New()
	r.Use(Logger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	do(r, http.MethodGet, "/ok", "", nil)
	do(r, http.MethodGet, "/missing", "", nil)
	do(r, http.MethodGet, "/boom", "", nil)

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "/boom", entries[2].ContextMap()["path"])
}
