package aggregate

import (
	"github.com/gin-gonic/gin"
	"github.com/inkrealm/blog/internal/pkg/response"
)

func RegisterRoutes(rg *gin.RouterGroup, svc *Service) {
	rg.GET("/aggregate", func(c *gin.Context) {
		data, err := svc.Build()
		if err != nil {
			response.InternalError(c, err)
			return
		}
		response.OK(c, data)
	})
}
