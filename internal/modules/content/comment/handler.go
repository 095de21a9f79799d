package comment

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/inkrealm/blog/internal/middleware"
	"github.com/inkrealm/blog/internal/pkg/response"
	"github.com/inkrealm/blog/internal/pkg/validation"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts comment routes. createMW runs before create, after
// authentication, so rate limits can key on the user.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, createMW ...gin.HandlerFunc) {
	create := append([]gin.HandlerFunc{authMW}, createMW...)
	create = append(create, h.create)
	rg.POST("/posts/:slug/comments", create...)
	rg.DELETE("/comments/:id", authMW, h.delete)
}

// create POST /posts/:slug/comments  [auth]
func (h *Handler) create(c *gin.Context) {
	var dto CreateCommentDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	cm, err := h.svc.Create(c.Param("slug"), middleware.CurrentUserID(c), c.ClientIP(), &dto)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, ToResponse(cm))
}

// delete DELETE /comments/:id  [auth]
func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id"), middleware.CurrentUserID(c)); err != nil {
		writeError(c, err)
		return
	}
	response.NoContent(c)
}

func writeError(c *gin.Context, err error) {
	if ve, ok := validation.As(err); ok {
		response.ValidationFailed(c, ve)
		return
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrPostNotFound):
		response.NotFoundMsg(c, err.Error())
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrCommentsClosed):
		response.ForbiddenMsg(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
