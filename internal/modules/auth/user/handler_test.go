package user

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/inkrealm/blog/internal/config"
	"github.com/inkrealm/blog/internal/middleware"
	"github.com/inkrealm/blog/internal/modules/content/comment"
	"github.com/inkrealm/blog/internal/modules/content/post"
	"github.com/inkrealm/blog/internal/modules/content/tag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccountsRouter(t *testing.T) (*gin.Engine, *post.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, db := newService(t)

	posts := post.NewService(db, post.NewStore(db), tag.NewService(db), nil)
	comments := comment.NewService(db, posts, config.CommentOptions{})
	posts.SetComments(comments)

	r := gin.New()
	NewHandler(svc, posts, comments).RegisterRoutes(r.Group("/api/v1"), middleware.Auth(db), nil, nil)
	return r, posts
}

func call(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAccountFlow(t *testing.T) {
	r, posts := newAccountsRouter(t)

	w := call(r, http.MethodPost, "/api/v1/accounts/register", "",
		`{"username":"alice","email":"alice@example.com","password1":"long-enough","password2":"long-enough"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = call(r, http.MethodPost, "/api/v1/accounts/register", "",
		`{"username":"alice","email":"other@example.com","password1":"long-enough","password2":"long-enough"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = call(r, http.MethodPost, "/api/v1/accounts/login", "", `{"username":"alice","password":"wrong-one"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), errInvalidCredentials.Error())

	w = call(r, http.MethodPost, "/api/v1/accounts/login", "", `{"username":"alice","password":"long-enough"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login loginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)

	_, err := posts.Create(login.User.ID, &post.CreatePostDTO{Title: "My draft post", Content: "draft body text"})
	require.NoError(t, err)

	w = call(r, http.MethodGet, "/api/v1/accounts/profile", login.Token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var profile struct {
		User     userResponse             `json:"user"`
		Posts    []map[string]interface{} `json:"posts"`
		Comments []map[string]interface{} `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "alice", profile.User.Username)
	require.Len(t, profile.Posts, 1, "drafts show on the owner's profile")
	assert.Equal(t, "draft", profile.Posts[0]["status"])
	assert.Empty(t, profile.Comments)

	w = call(r, http.MethodGet, "/api/v1/accounts/sessions", login.Token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"current":true`)

	w = call(r, http.MethodDelete, "/api/v1/accounts/sessions/no-such-session", login.Token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = call(r, http.MethodPost, "/api/v1/accounts/logout", login.Token, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = call(r, http.MethodGet, "/api/v1/accounts/profile", login.Token, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfileRequiresAuth(t *testing.T) {
	r, _ := newAccountsRouter(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/accounts/profile"},
		{http.MethodPatch, "/api/v1/accounts/profile"},
		{http.MethodPatch, "/api/v1/accounts/password"},
		{http.MethodPost, "/api/v1/accounts/logout"},
	} {
		w := call(r, tc.method, tc.path, "", "{}")
		assert.Equal(t, http.StatusUnauthorized, w.Code, tc.path)
	}
}
