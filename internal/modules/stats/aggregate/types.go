package aggregate

import (
	"github.com/inkrealm/blog/internal/models"
	"github.com/inkrealm/blog/internal/modules/content/comment"
	"github.com/inkrealm/blog/internal/modules/content/post"
	"github.com/inkrealm/blog/internal/modules/content/tag"
)

const (
	PopularTagLimit    = tag.PopularLimit
	PopularPostLimit   = post.PopularLimit
	RecentCommentLimit = comment.RecentLimit
)

type aggregateData struct {
	Categories     []models.CategoryModel `json:"categories"`
	PopularTags    []tag.Popular          `json:"popular_tags"`
	PopularPosts   []popularPost          `json:"popular_posts"`
	RecentComments []recentComment        `json:"recent_comments"`
	Count          postCount              `json:"count"`
}

type postCount struct {
	Posts      int64 `json:"posts"`
	Categories int   `json:"categories"`
}

type popularPost struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
	Views uint   `json:"views"`
}

type recentComment struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Author    string `json:"author"`
	PostTitle string `json:"post_title"`
	PostSlug  string `json:"post_slug"`
}
