package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/inkrealm/blog/internal/models"
	"github.com/inkrealm/blog/internal/pkg/response"
	"gorm.io/gorm"
)

// RequireStaff lets through only authenticated staff accounts. Mount it after
// Auth.
func RequireStaff(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := CurrentUserID(c)
		if userID == "" {
			response.Unauthorized(c)
			return
		}
		var n int64
		err := db.Model(&models.UserModel{}).
			Where("id = ? AND is_staff = ?", userID, true).
			Count(&n).Error
		if err != nil {
			response.InternalError(c, err)
			return
		}
		if n == 0 {
			response.ForbiddenMsg(c, "staff only")
			return
		}
		c.Next()
	}
}
