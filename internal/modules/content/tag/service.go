package tag

import (
	"errors"
	"strings"

	"github.com/inkrealm/blog/internal/models"
	"github.com/inkrealm/blog/internal/pkg/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PopularLimit is the number of tags shown in the popular-tags list.
const PopularLimit = 15

// Popular is a tag with the number of published posts carrying it.
type Popular struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	PostCount int64  `json:"post_count"`
}

// Service manages tags and their attachment to content objects.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// WithTx returns a Service running on tx.
func (s *Service) WithTx(tx *gorm.DB) *Service {
	return &Service{db: tx}
}

// GetBySlug returns the tag with slug, or (nil, nil) when missing.
func (s *Service) GetBySlug(slugValue string) (*models.TagModel, error) {
	var t models.TagModel
	if err := s.db.Where("slug = ?", slugValue).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// Normalize trims labels, drops empties and labels without slug characters,
// and removes duplicates by slug keeping the first spelling.
func Normalize(labels []string) []models.TagModel {
	seen := make(map[string]bool, len(labels))
	out := make([]models.TagModel, 0, len(labels))
	for _, l := range labels {
		name := strings.TrimSpace(l)
		if name == "" {
			continue
		}
		sl := slug.Truncate(slug.Slugify(name), 100)
		if sl == "" || seen[sl] {
			continue
		}
		seen[sl] = true
		if r := []rune(name); len(r) > 100 {
			name = string(r[:100])
		}
		out = append(out, models.TagModel{Name: name, Slug: sl})
	}
	return out
}

// SetPostTags replaces the tags attached to a post with labels, creating
// missing tags on the way.
func (s *Service) SetPostTags(postID string, labels []string) ([]models.TagModel, error) {
	wanted := Normalize(labels)

	var tags []models.TagModel
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("content_type = ? AND object_id = ?", models.ContentTypePost, postID).
			Delete(&models.TaggedItemModel{}).Error; err != nil {
			return err
		}

		for i := range wanted {
			t, err := getOrCreate(tx, wanted[i])
			if err != nil {
				return err
			}
			item := models.TaggedItemModel{TagID: t.ID, ContentType: models.ContentTypePost, ObjectID: postID}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			tags = append(tags, *t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []models.TagModel{}
	}
	return tags, nil
}

// getOrCreate looks a tag up by slug and inserts it when missing. A
// concurrent insert of the same slug is resolved by reading the winner.
func getOrCreate(tx *gorm.DB, want models.TagModel) (*models.TagModel, error) {
	t := models.TagModel{Name: want.Name, Slug: want.Slug}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&t).Error; err != nil {
		return nil, err
	}

	var stored models.TagModel
	if err := tx.Where("slug = ?", want.Slug).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// DeletePostTags detaches every tag from a post.
func (s *Service) DeletePostTags(tx *gorm.DB, postID string) error {
	return tx.Where("content_type = ? AND object_id = ?", models.ContentTypePost, postID).
		Delete(&models.TaggedItemModel{}).Error
}

// TagsForPosts loads tags for the given posts keyed by post ID, ordered by name.
func (s *Service) TagsForPosts(postIDs []string) (map[string][]models.TagModel, error) {
	out := make(map[string][]models.TagModel, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		models.TagModel
		ObjectID string
	}
	err := s.db.Table("tags").
		Select("tags.*, tagged_items.object_id").
		Joins("JOIN tagged_items ON tagged_items.tag_id = tags.id").
		Where("tagged_items.content_type = ? AND tagged_items.object_id IN ?", models.ContentTypePost, postIDs).
		Order("tags.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ObjectID] = append(out[r.ObjectID], r.TagModel)
	}
	return out, nil
}

// Attach fills the Tags field of every post.
func (s *Service) Attach(posts []models.PostModel) error {
	ids := make([]string, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	byPost, err := s.TagsForPosts(ids)
	if err != nil {
		return err
	}
	for i := range posts {
		posts[i].Tags = byPost[posts[i].ID]
		if posts[i].Tags == nil {
			posts[i].Tags = []models.TagModel{}
		}
	}
	return nil
}

// Popular returns the tags most used by published posts. Associations with
// drafts are not counted, so a tag used only by drafts is absent.
func (s *Service) Popular(limit int) ([]Popular, error) {
	if limit <= 0 {
		limit = PopularLimit
	}

	var out []Popular
	err := s.db.Table("tags").
		Select("tags.id, tags.name, tags.slug, COUNT(tagged_items.id) AS post_count").
		Joins("JOIN tagged_items ON tagged_items.tag_id = tags.id AND tagged_items.content_type = ?", models.ContentTypePost).
		Joins("JOIN posts ON posts.id = tagged_items.object_id").
		Where("posts.status = ?", models.PostPublished).
		Group("tags.id, tags.name, tags.slug").
		Order("post_count DESC, tags.name ASC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Popular{}
	}
	return out, nil
}

// PostIDs returns a subquery selecting the IDs of posts carrying tagID.
func (s *Service) PostIDs(tagID string) *gorm.DB {
	return s.db.Model(&models.TaggedItemModel{}).
		Select("object_id").
		Where("tag_id = ? AND content_type = ?", tagID, models.ContentTypePost)
}
