package post

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkrealm/blog/internal/middleware"
	"github.com/inkrealm/blog/internal/pkg/pagination"
	"github.com/inkrealm/blog/internal/pkg/response"
	"github.com/inkrealm/blog/internal/pkg/validation"
	"go.uber.org/zap"
)

// Handler handles post HTTP requests.
type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes mounts post routes onto the given router group, including
// the category and tag listings. createMW runs before create, after
// authentication.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, optionalAuthMW gin.HandlerFunc, createMW ...gin.HandlerFunc) {
	posts := rg.Group("/posts")
	posts.GET("", h.list)
	posts.GET("/:slug", optionalAuthMW, h.detail)

	create := append([]gin.HandlerFunc{authMW}, createMW...)
	posts.POST("", append(create, h.create)...)
	posts.PUT("/:slug", authMW, h.update)
	posts.DELETE("/:slug", authMW, h.delete)

	rg.GET("/categories/:slug/posts", h.byCategory)
	rg.GET("/tags/:slug/posts", h.byTag)
}

// list GET /posts
func (h *Handler) list(c *gin.Context) {
	var lq ListQuery
	if err := c.ShouldBindQuery(&lq); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	posts, pag, err := h.svc.Index(lq, pagination.FromContext(c, IndexPageSize))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, ToResponses(posts), pag)
}

// detail GET /posts/:slug
func (h *Handler) detail(c *gin.Context) {
	d, err := h.svc.Detail(c.Param("slug"), middleware.CurrentUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, toDetailResponse(d))
}

// create POST /posts  [auth]
func (h *Handler) create(c *gin.Context) {
	var dto CreatePostDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p, err := h.svc.Create(middleware.CurrentUserID(c), &dto)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Created(c, ToResponse(p, true))
}

// update PUT /posts/:slug  [auth]
func (h *Handler) update(c *gin.Context) {
	var dto UpdatePostDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p, err := h.svc.Update(c.Param("slug"), middleware.CurrentUserID(c), &dto)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, ToResponse(p, true))
}

// delete DELETE /posts/:slug  [auth]
func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("slug"), middleware.CurrentUserID(c)); err != nil {
		h.writeError(c, err)
		return
	}
	response.NoContent(c)
}

// byCategory GET /categories/:slug/posts
func (h *Handler) byCategory(c *gin.Context) {
	cat, posts, pag, err := h.svc.ByCategory(c.Param("slug"), pagination.FromContext(c, ListingPageSize))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"category":   cat,
		"data":       ToResponses(posts),
		"pagination": pag,
	})
}

// byTag GET /tags/:slug/posts
func (h *Handler) byTag(c *gin.Context) {
	t, posts, pag, err := h.svc.ByTag(c.Param("slug"), pagination.FromContext(c, ListingPageSize))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tag":        gin.H{"name": t.Name, "slug": t.Slug},
		"data":       ToResponses(posts),
		"pagination": pag,
	})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	if ve, ok := validation.As(err); ok {
		response.ValidationFailed(c, ve)
		return
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrCategoryNotFound), errors.Is(err, ErrTagNotFound):
		response.NotFoundMsg(c, err.Error())
	case errors.Is(err, ErrSlugExhausted):
		response.Conflict(c, err.Error())
	default:
		h.log.Error("post request failed", zap.String("path", c.FullPath()), zap.Error(err))
		response.InternalError(c, err)
	}
}
