package category

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/inkrealm/blog/internal/pkg/response"
	"github.com/inkrealm/blog/internal/pkg/validation"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts category routes. Reads use the slug and writes the
// id; the post handler owns /categories/:slug/posts. Writes are staff only.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, staffMW gin.HandlerFunc) {
	cats := rg.Group("/categories")
	cats.GET("", h.list)
	cats.GET("/:slug", h.get)

	staff := cats.Group("", authMW, staffMW)
	staff.POST("", h.create)
	staff.PUT("/:id", h.update)
	staff.PATCH("/:id", h.update)
	staff.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	cats, err := h.svc.List()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, cats)
}

func (h *Handler) get(c *gin.Context) {
	cat, err := h.svc.GetBySlug(c.Param("slug"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if cat == nil {
		response.NotFoundMsg(c, ErrNotFound.Error())
		return
	}
	response.OK(c, cat)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateCategoryDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cat, err := h.svc.Create(&dto)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, cat)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateCategoryDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cat, err := h.svc.Update(c.Param("id"), &dto)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, cat)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
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
	if errors.Is(err, ErrNotFound) {
		response.NotFoundMsg(c, err.Error())
		return
	}
	response.InternalError(c, err)
}
