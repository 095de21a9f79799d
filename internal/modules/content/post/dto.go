package post

import (
	"time"

	"github.com/inkrealm/blog/internal/models"
	"github.com/inkrealm/blog/internal/modules/content/comment"
)

// CreatePostDTO is the request body for creating a post.
type CreatePostDTO struct {
	Title         string   `json:"title"`
	Slug          string   `json:"slug"`
	Content       string   `json:"content"`
	Excerpt       string   `json:"excerpt"`
	CategoryID    *string  `json:"category_id"`
	Status        string   `json:"status"`
	AllowComments *bool    `json:"allow_comments"`
	Tags          []string `json:"tags"`
}

// UpdatePostDTO is the request body for updating a post. Nil fields are left
// unchanged; an empty slug is re-derived from the title and an empty
// category_id clears the category.
type UpdatePostDTO struct {
	Title         *string  `json:"title"`
	Slug          *string  `json:"slug"`
	Content       *string  `json:"content"`
	Excerpt       *string  `json:"excerpt"`
	CategoryID    *string  `json:"category_id"`
	Status        *string  `json:"status"`
	AllowComments *bool    `json:"allow_comments"`
	Tags          []string `json:"tags"`
}

// ListQuery holds query params for the post index.
type ListQuery struct {
	Q        string `form:"q"`
	Category string `form:"category"`
}

type authorResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type categoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type tagResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type postResponse struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Slug          string            `json:"slug"`
	Author        *authorResponse   `json:"author"`
	Category      *categoryResponse `json:"category"`
	Content       string            `json:"content,omitempty"`
	Excerpt       string            `json:"excerpt"`
	Status        models.PostStatus `json:"status"`
	PublishedAt   *time.Time        `json:"published_at"`
	Views         uint              `json:"views"`
	AllowComments bool              `json:"allow_comments"`
	Tags          []tagResponse     `json:"tags"`
	Created       time.Time         `json:"created"`
	Modified      time.Time         `json:"modified"`
}

type detailResponse struct {
	postResponse
	Comments []comment.Response `json:"comments"`
	Related  []postResponse     `json:"related"`
}

// ToResponse converts a post for JSON output. List views omit the body.
func ToResponse(p *models.PostModel, withContent bool) postResponse {
	r := postResponse{
		ID:            p.ID,
		Title:         p.Title,
		Slug:          p.Slug,
		Excerpt:       p.Excerpt,
		Status:        p.Status,
		PublishedAt:   p.PublishedAt,
		Views:         p.Views,
		AllowComments: p.AllowComments,
		Tags:          make([]tagResponse, len(p.Tags)),
		Created:       p.CreatedAt,
		Modified:      p.UpdatedAt,
	}
	if withContent {
		r.Content = p.Content
	}
	if p.Author != nil {
		r.Author = &authorResponse{ID: p.Author.ID, Username: p.Author.Username}
	}
	if p.Category != nil {
		r.Category = &categoryResponse{ID: p.Category.ID, Name: p.Category.Name, Slug: p.Category.Slug}
	}
	for i, t := range p.Tags {
		r.Tags[i] = tagResponse{Name: t.Name, Slug: t.Slug}
	}
	return r
}

// ToResponses converts a page of posts without their bodies.
func ToResponses(posts []models.PostModel) []postResponse {
	out := make([]postResponse, len(posts))
	for i := range posts {
		out[i] = ToResponse(&posts[i], false)
	}
	return out
}

func toDetailResponse(d *Detail) detailResponse {
	return detailResponse{
		postResponse: ToResponse(d.Post, true),
		Comments:     comment.ToResponses(d.Comments),
		Related:      ToResponses(d.Related),
	}
}
