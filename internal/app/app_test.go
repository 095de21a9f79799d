package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/inkrealm/blog/internal/config"
	"github.com/inkrealm/blog/internal/models"
	"github.com/inkrealm/blog/internal/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestApp(t *testing.T, cfg *config.AppConfig) *App {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	if cfg == nil {
		cfg = &config.AppConfig{Port: 8000, Env: "development"}
	}
	return build(zap.NewNop(), cfg, testutil.NewDB(t), rdb)
}

func request(a *App, method, path, token, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, req)
	return w
}

func login(t *testing.T, a *App, username string) string {
	t.Helper()
	testutil.CreateUser(t, a.db, username)
	w := request(a, http.MethodPost, "/api/v1/accounts/login", "", `{"username":"`+username+`","password":"password123"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Token
}

func TestPingAndErrors(t *testing.T) {
	a := newTestApp(t, nil)

	w := request(a, http.MethodGet, "/api/v1/ping", "", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":"pong"}`, w.Body.String())

	w = request(a, http.MethodGet, "/api/v1/nowhere", "", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"ok":0,"code":404,"message":"not found"}`, w.Body.String())

	w = request(a, http.MethodPatch, "/api/v1/ping", "", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestNotFoundSuggestsRecentPosts(t *testing.T) {
	a := newTestApp(t, nil)
	token := login(t, a, "alice")
	for _, title := range []string{"Post number one", "Post number two", "Post number three", "Post number four"} {
		w := request(a, http.MethodPost, "/api/v1/posts", token,
			`{"title":"`+title+`","content":"some body text","status":"published"}`, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := request(a, http.MethodGet, "/missing/page", "", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	var body struct {
		Code        int               `json:"code"`
		RecentPosts []json.RawMessage `json:"recent_posts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusNotFound, body.Code)
	assert.Len(t, body.RecentPosts, 3)
}

func TestBlogFlow(t *testing.T) {
	a := newTestApp(t, nil)
	alice := login(t, a, "alice")
	bob := login(t, a, "bob")

	w := request(a, http.MethodPost, "/api/v1/posts", alice,
		`{"title":"Hello World","content":"first post body","status":"published","tags":["go","web"]}`, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = request(a, http.MethodPost, "/api/v1/posts", alice,
		`{"title":"Hello World","content":"second post body","status":"published"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var second struct {
		Slug string `json:"slug"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Regexp(t, `^hello-world-\d{4}$`, second.Slug)

	w = request(a, http.MethodPost, "/api/v1/posts/hello-world/comments", bob, `{"content":"nice post"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = request(a, http.MethodPost, "/api/v1/posts/hello-world/comments", bob, `{"content":"nice post"}`, nil)
	assert.Equal(t, http.StatusConflict, w.Code, "a repeated comment is rejected")

	w = request(a, http.MethodGet, "/api/v1/posts/hello-world", "", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Views    int               `json:"views"`
		Comments []json.RawMessage `json:"comments"`
		Related  []json.RawMessage `json:"related"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, 1, detail.Views)
	assert.Len(t, detail.Comments, 1)
	assert.Len(t, detail.Related, 1)

	w = request(a, http.MethodGet, "/api/v1/tags/popular", "", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"post_count":1`)

	w = request(a, http.MethodGet, "/api/v1/tags/go/posts", "", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = request(a, http.MethodGet, "/api/v1/aggregate", "", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = request(a, http.MethodDelete, "/api/v1/posts/hello-world", bob, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = request(a, http.MethodDelete, "/api/v1/posts/hello-world", alice, "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCategoryWritesAreStaffOnly(t *testing.T) {
	a := newTestApp(t, nil)
	reader := login(t, a, "reader")

	w := request(a, http.MethodPost, "/api/v1/categories", reader, `{"name":"Go"}`, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	require.NoError(t, a.db.Model(&models.UserModel{}).Where("username = ?", "reader").Update("is_staff", true).Error)
	w = request(a, http.MethodPost, "/api/v1/categories", reader, `{"name":"Go"}`, nil)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestLoginRateLimited(t *testing.T) {
	a := newTestApp(t, nil)
	body := `{"username":"ghost","password":"whatever"}`
	for i := 0; i < int(loginLimit.Max); i++ {
		w := request(a, http.MethodPost, "/api/v1/accounts/login", "", body, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := request(a, http.MethodPost, "/api/v1/accounts/login", "", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestCORS(t *testing.T) {
	a := newTestApp(t, &config.AppConfig{
		Port:           8000,
		Env:            "production",
		AllowedOrigins: []string{"*.example.com", "localhost:*"},
	})

	for origin, allowed := range map[string]bool{
		"https://blog.example.com": true,
		"http://localhost:5173":    true,
		"https://evil.test":        false,
	} {
		w := request(a, http.MethodGet, "/api/v1/ping", "", "", map[string]string{"Origin": origin})
		if allowed {
			assert.Equal(t, origin, w.Header().Get("Access-Control-Allow-Origin"), origin)
		} else {
			assert.Equal(t, http.StatusForbidden, w.Code, origin)
		}
	}
}

func TestMatchOriginPattern(t *testing.T) {
	assert.True(t, matchOriginPattern("example.com", "example.com"))
	assert.True(t, matchOriginPattern("*.example.com", "a.b.example.com"))
	assert.False(t, matchOriginPattern("*.example.com", "example.com"))
	assert.True(t, matchOriginPattern("localhost:*", "localhost:3000"))
	assert.False(t, matchOriginPattern("localhost:*", "localhost.evil:3000"))
	assert.Equal(t, "a.com:8080", extractOriginHost("https://a.com:8080"))
}

func TestHumanizeDuration(t *testing.T) {
	assert.Equal(t, "42s", humanizeDuration(42*time.Second+300*time.Millisecond))
	assert.Equal(t, "5m0s", humanizeDuration(5*time.Minute+10*time.Second))
	assert.Equal(t, "3h0m0s", humanizeDuration(3*time.Hour+59*time.Minute))
	assert.Equal(t, "48h0m0s", humanizeDuration(50*time.Hour))
}
