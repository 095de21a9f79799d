package comment

import (
	"errors"
	"time"

	"github.com/inkrealm/blog/internal/models"
)

// RecentLimit is the number of comments in the recent-comments list.
const RecentLimit = 5

const contentMaxLen = 5000

var (
	ErrNotFound       = errors.New("comment not found")
	ErrPostNotFound   = errors.New("post not found")
	ErrForbidden      = errors.New("only the comment author or the post author may delete a comment")
	ErrCommentsClosed = errors.New("comments are closed for this post")
)

// CreateCommentDTO is the request body for commenting on a post.
type CreateCommentDTO struct {
	Content  string  `json:"content"`
	ParentID *string `json:"parent_id"`
}

type authorResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type postRefResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

type Response struct {
	ID         string           `json:"id"`
	PostID     string           `json:"post_id"`
	Post       *postRefResponse `json:"post,omitempty"`
	Author     *authorResponse  `json:"author,omitempty"`
	Content    string           `json:"content"`
	IsApproved bool             `json:"is_approved"`
	ParentID   *string          `json:"parent_id"`
	Created    time.Time        `json:"created"`
	Modified   time.Time        `json:"modified"`
}

// ToResponse converts a comment for JSON output.
func ToResponse(c *models.CommentModel) Response {
	r := Response{
		ID:         c.ID,
		PostID:     c.PostID,
		Content:    c.Content,
		IsApproved: c.IsApproved,
		ParentID:   c.ParentID,
		Created:    c.CreatedAt,
		Modified:   c.UpdatedAt,
	}
	if c.Author != nil {
		r.Author = &authorResponse{ID: c.Author.ID, Username: c.Author.Username}
	}
	if c.Post != nil {
		r.Post = &postRefResponse{ID: c.Post.ID, Title: c.Post.Title, Slug: c.Post.Slug}
	}
	return r
}

// ToResponses converts a slice of comments, never returning nil.
func ToResponses(list []models.CommentModel) []Response {
	out := make([]Response, len(list))
	for i := range list {
		out[i] = ToResponse(&list[i])
	}
	return out
}
