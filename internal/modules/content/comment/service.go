package comment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/inkrealm/blog/internal/config"
	"github.com/inkrealm/blog/internal/models"
	"github.com/inkrealm/blog/internal/pkg/validation"
	"gorm.io/gorm"
)

// PostFinder resolves the post a reader is allowed to see by slug.
type PostFinder interface {
	FindVisible(slug, viewerID string) (*models.PostModel, error)
}

type Service struct {
	db    *gorm.DB
	posts PostFinder
	spam  *spamFilter
}

func NewService(db *gorm.DB, posts PostFinder, opts config.CommentOptions) *Service {
	return &Service{db: db, posts: posts, spam: newSpamFilter(opts)}
}

func (s *Service) GetByID(id string) (*models.CommentModel, error) {
	var c models.CommentModel
	if err := s.db.Preload("Post").First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// Create adds a comment by authorID to the post with postSlug. The post must
// be visible to the author and accept comments.
func (s *Service) Create(postSlug, authorID, ip string, dto *CreateCommentDTO) (*models.CommentModel, error) {
	post, err := s.posts.FindVisible(postSlug, authorID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if !post.AllowComments {
		return nil, ErrCommentsClosed
	}

	content := strings.TrimSpace(dto.Content)
	errs := validation.Errors{}
	validation.Length(errs, "content", content, 1, contentMaxLen)

	var parentID *string
	if dto.ParentID != nil && strings.TrimSpace(*dto.ParentID) != "" {
		pid := strings.TrimSpace(*dto.ParentID)
		var count int64
		if err := s.db.Model(&models.CommentModel{}).
			Where("id = ? AND post_id = ?", pid, post.ID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			errs.Add("parent_id", "parent comment does not belong to this post")
		}
		parentID = &pid
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	c := models.CommentModel{
		PostID:     post.ID,
		AuthorID:   authorID,
		Content:    content,
		IsApproved: !s.spam.Check(content, ip),
		ParentID:   parentID,
	}
	if err := s.db.Create(&c).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	if err := s.db.Preload("Author").First(&c, "id = ?", c.ID).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListApproved returns the approved comments of a post, oldest first.
func (s *Service) ListApproved(postID string) ([]models.CommentModel, error) {
	var list []models.CommentModel
	err := s.db.Preload("Author").
		Where("post_id = ? AND is_approved = ?", postID, true).
		Order("created_at ASC").
		Find(&list).Error
	if list == nil {
		list = []models.CommentModel{}
	}
	return list, err
}

// ListByAuthor returns every comment written by userID, newest first.
func (s *Service) ListByAuthor(userID string) ([]models.CommentModel, error) {
	var list []models.CommentModel
	err := s.db.Preload("Post").
		Where("author_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error
	if list == nil {
		list = []models.CommentModel{}
	}
	return list, err
}

// Recent returns the newest comments whatever their approval state, each
// with its post and author.
func (s *Service) Recent(limit int) ([]models.CommentModel, error) {
	if limit <= 0 {
		limit = RecentLimit
	}
	var list []models.CommentModel
	err := s.db.Preload("Post").Preload("Author").
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error
	if list == nil {
		list = []models.CommentModel{}
	}
	return list, err
}

// Delete removes a comment and its replies. Only the comment author or the
// author of the post may delete; anyone else gets ErrForbidden and nothing
// changes.
func (s *Service) Delete(id, userID string) error {
	c, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrNotFound
	}
	if c.AuthorID != userID && (c.Post == nil || c.Post.AuthorID != userID) {
		return ErrForbidden
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		ids, err := collectThread(tx, c.ID)
		if err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.CommentModel{}).Error
	})
}

// DeleteByPost removes every comment on a post.
func (s *Service) DeleteByPost(tx *gorm.DB, postID string) error {
	return tx.Where("post_id = ?", postID).Delete(&models.CommentModel{}).Error
}

// collectThread returns rootID and the IDs of all its descendants.
func collectThread(tx *gorm.DB, rootID string) ([]string, error) {
	ids := []string{rootID}
	frontier := []string{rootID}
	for len(frontier) > 0 {
		var children []string
		if err := tx.Model(&models.CommentModel{}).
			Where("parent_id IN ?", frontier).
			Pluck("id", &children).Error; err != nil {
			return nil, err
		}
		ids = append(ids, children...)
		frontier = children
	}
	return ids, nil
}
