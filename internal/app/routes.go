package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkrealm/blog/internal/middleware"
	"github.com/inkrealm/blog/internal/modules/auth/user"
	"github.com/inkrealm/blog/internal/modules/content/category"
	"github.com/inkrealm/blog/internal/modules/content/comment"
	"github.com/inkrealm/blog/internal/modules/content/post"
	"github.com/inkrealm/blog/internal/modules/content/tag"
	"github.com/inkrealm/blog/internal/modules/stats/aggregate"
	"github.com/inkrealm/blog/internal/pkg/response"
)

const apiPrefix = "/api/v1"

var (
	registerLimit = middleware.RateLimitRule{Scope: "register", Max: 5, Window: time.Hour}
	loginLimit    = middleware.RateLimitRule{Scope: "login", Max: 10, Window: time.Minute}
	commentLimit  = middleware.RateLimitRule{Scope: "comment", Max: 10, Window: time.Minute}
)

func (a *App) registerRoutes() {
	r := a.router
	db := a.db
	authMW := middleware.Auth(db)
	optionalAuthMW := middleware.OptionalAuth(db)
	idempotence := middleware.Idempotence(a.rdb, middleware.DefaultIdempotenceTTL)

	r.NoMethod(response.MethodNotAllowed)

	api := r.Group(apiPrefix)
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	api.GET("/uptime", func(c *gin.Context) {
		up := time.Since(a.started)
		c.JSON(http.StatusOK, gin.H{
			"timestamp": up.Milliseconds(),
			"humanize":  humanizeDuration(up),
		})
	})

	tagSvc := tag.NewService(db)
	postSvc := post.NewService(db, post.NewStore(db), tagSvc, a.logger.Named("post"))
	commentSvc := comment.NewService(db, postSvc, a.cfg.Comments)
	postSvc.SetComments(commentSvc)
	categorySvc := category.NewService(db)
	userSvc := user.NewService(db)

	// unknown routes suggest a few recent posts
	r.NoRoute(func(c *gin.Context) {
		recent, err := postSvc.Recent(post.RecentLimit)
		if err != nil || len(recent) == 0 {
			response.NotFound(c)
			return
		}
		response.NotFoundWith(c, "recent_posts", post.ToResponses(recent))
	})

	post.NewHandler(postSvc, a.logger.Named("post")).RegisterRoutes(api, authMW, optionalAuthMW, idempotence)
	comment.NewHandler(commentSvc).RegisterRoutes(api, authMW,
		middleware.RateLimit(a.rdb, a.logger, commentLimit),
		idempotence,
	)
	category.NewHandler(categorySvc).RegisterRoutes(api, authMW, middleware.RequireStaff(db))
	tag.NewHandler(tagSvc).RegisterRoutes(api)
	aggregate.RegisterRoutes(api, aggregate.NewService(categorySvc, tagSvc, postSvc, commentSvc))
	user.NewHandler(userSvc, postSvc, commentSvc).RegisterRoutes(api, authMW,
		middleware.RateLimit(a.rdb, a.logger, registerLimit),
		middleware.RateLimit(a.rdb, a.logger, loginLimit),
	)
}
