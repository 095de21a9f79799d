package aggregate

import (
	"github.com/inkrealm/blog/internal/modules/content/category"
	"github.com/inkrealm/blog/internal/modules/content/comment"
	"github.com/inkrealm/blog/internal/modules/content/post"
	"github.com/inkrealm/blog/internal/modules/content/tag"
)

// Service assembles the sidebar shown next to every post listing.
type Service struct {
	categories *category.Service
	tags       *tag.Service
	posts      *post.Service
	comments   *comment.Service
}

func NewService(categories *category.Service, tags *tag.Service, posts *post.Service, comments *comment.Service) *Service {
	return &Service{categories: categories, tags: tags, posts: posts, comments: comments}
}

func (s *Service) Build() (*aggregateData, error) {
	cats, err := s.categories.List()
	if err != nil {
		return nil, err
	}
	popularTags, err := s.tags.Popular(PopularTagLimit)
	if err != nil {
		return nil, err
	}
	popularPosts, err := s.posts.Popular(PopularPostLimit)
	if err != nil {
		return nil, err
	}
	recent, err := s.comments.Recent(RecentCommentLimit)
	if err != nil {
		return nil, err
	}
	published, err := s.posts.CountPublished()
	if err != nil {
		return nil, err
	}

	data := &aggregateData{
		Categories:     cats,
		PopularTags:    popularTags,
		PopularPosts:   make([]popularPost, 0, len(popularPosts)),
		RecentComments: make([]recentComment, 0, len(recent)),
		Count:          postCount{Posts: published, Categories: len(cats)},
	}
	for _, p := range popularPosts {
		data.PopularPosts = append(data.PopularPosts, popularPost{
			ID: p.ID, Title: p.Title, Slug: p.Slug, Views: p.Views,
		})
	}
	for _, c := range recent {
		rc := recentComment{ID: c.ID, Content: c.Content}
		if c.Author != nil {
			rc.Author = c.Author.Username
		}
		if c.Post != nil {
			rc.PostTitle = c.Post.Title
			rc.PostSlug = c.Post.Slug
		}
		data.RecentComments = append(data.RecentComments, rc)
	}
	return data, nil
}
