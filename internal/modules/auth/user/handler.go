package user

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/inkrealm/blog/internal/middleware"
	"github.com/inkrealm/blog/internal/modules/content/comment"
	"github.com/inkrealm/blog/internal/modules/content/post"
	"github.com/inkrealm/blog/internal/pkg/response"
	"github.com/inkrealm/blog/internal/pkg/session"
	"github.com/inkrealm/blog/internal/pkg/validation"
)

type Handler struct {
	svc      *Service
	posts    *post.Service
	comments *comment.Service
}

func NewHandler(svc *Service, posts *post.Service, comments *comment.Service) *Handler {
	return &Handler{svc: svc, posts: posts, comments: comments}
}

// RegisterRoutes mounts the /accounts routes. registerMW and loginMW guard
// the anonymous endpoints and may be nil.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, registerMW, loginMW gin.HandlerFunc) {
	g := rg.Group("/accounts")
	g.POST("/register", chain(registerMW, h.register)...)
	g.POST("/login", chain(loginMW, h.login)...)

	a := g.Group("", authMW)
	a.POST("/logout", h.logout)
	a.GET("/profile", h.profile)
	a.PATCH("/profile", h.updateProfile)
	a.PATCH("/password", h.changePassword)
	a.GET("/sessions", h.listSessions)
	a.DELETE("/sessions/:id", h.deleteSession)
}

func chain(mw gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	if mw == nil {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{mw, h}
}

func (h *Handler) register(c *gin.Context) {
	var dto RegisterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.Register(&dto)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, toResponse(u))
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	token, u, err := h.svc.Login(dto.Username, dto.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		if errors.Is(err, errInvalidCredentials) {
			response.UnauthorizedMsg(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, loginResponse{Token: token, User: toResponse(u)})
}

func (h *Handler) logout(c *gin.Context) {
	err := session.Revoke(h.svc.db, middleware.CurrentUserID(c), middleware.CurrentSessionID(c))
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) profile(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	u, err := h.svc.GetByID(userID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if u == nil {
		response.NotFound(c)
		return
	}
	posts, err := h.posts.ByAuthor(userID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	comments, err := h.comments.ListByAuthor(userID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{
		"user":     toResponse(u),
		"posts":    post.ToResponses(posts),
		"comments": comment.ToResponses(comments),
	})
}

func (h *Handler) updateProfile(c *gin.Context) {
	var dto UpdateProfileDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.UpdateProfile(middleware.CurrentUserID(c), &dto)
	if err != nil {
		writeError(c, err)
		return
	}
	if u == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, toResponse(u))
}

func (h *Handler) changePassword(c *gin.Context) {
	var dto ChangePasswordDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.ChangePassword(middleware.CurrentUserID(c), middleware.CurrentSessionID(c), &dto); err != nil {
		writeError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) listSessions(c *gin.Context) {
	current := middleware.CurrentSessionID(c)
	sessions, err := session.ListActive(h.svc.db, middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	data := make([]gin.H, 0, len(sessions))
	for _, s := range sessions {
		data = append(data, gin.H{
			"id":      s.ID,
			"ua":      s.UA,
			"ip":      s.IP,
			"date":    s.CreatedAt,
			"current": s.ID == current,
		})
	}
	response.OK(c, data)
}

func (h *Handler) deleteSession(c *gin.Context) {
	err := session.Revoke(h.svc.db, middleware.CurrentUserID(c), c.Param("id"))
	if errors.Is(err, session.ErrNotFound) {
		response.NotFoundMsg(c, err.Error())
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func writeError(c *gin.Context, err error) {
	if ve, ok := validation.As(err); ok {
		response.ValidationFailed(c, ve)
		return
	}
	response.InternalError(c, err)
}
