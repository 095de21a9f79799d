package tag

import (
	"github.com/gin-gonic/gin"
	"github.com/inkrealm/blog/internal/pkg/response"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts tag routes. Posts by tag are served by the post handler.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tags/popular", h.popular)
}

// popular GET /tags/popular
func (h *Handler) popular(c *gin.Context) {
	tags, err := h.svc.Popular(PopularLimit)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, tags)
}
