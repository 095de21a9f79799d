package post

import (
	"errors"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/inkrealm/blog/internal/models"
	"github.com/inkrealm/blog/internal/pkg/pagination"
	"github.com/inkrealm/blog/internal/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicateSlug is returned by Store.Save when another post owns the slug.
var ErrDuplicateSlug = errors.New("slug already in use")

// Filter narrows a post query. Zero fields are ignored.
type Filter struct {
	AuthorID   string
	CategoryID string
	TagID      string
	Search     string
	ExcludeID  string
}

// Store persists posts. Implementations must report a slug collision as
// ErrDuplicateSlug so the caller can pick another slug.
type Store interface {
	// Save inserts p when it has no ID, otherwise rewrites its editable
	// columns. The view counter is never written.
	Save(p *models.PostModel) error
	// FindBySlug returns the post with slug in any status, or (nil, nil).
	FindBySlug(slug string) (*models.PostModel, error)
	// FilterByStatus pages through posts with status, newest first. An empty
	// status matches every post.
	FilterByStatus(status models.PostStatus, f Filter, q pagination.Query) ([]models.PostModel, response.Pagination, error)
	// Top returns up to limit posts with status in the given order.
	Top(status models.PostStatus, f Filter, order string, limit int) ([]models.PostModel, error)
	CountBy(status models.PostStatus, f Filter) (int64, error)
	IncrementViews(id string) error
	Delete(tx *gorm.DB, id string) error
	// WithTx returns a Store running on tx.
	WithTx(tx *gorm.DB) Store
}

// editableColumns are written on update; views only move through IncrementViews.
var editableColumns = []string{
	"title", "slug", "category_id", "content", "excerpt",
	"status", "published_at", "allow_comments", "updated_at",
}

type gormStore struct {
	db *gorm.DB
}

// NewStore returns a Store backed by db.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) WithTx(tx *gorm.DB) Store {
	return &gormStore{db: tx}
}

// Save runs each attempt in its own (nested) transaction so a rejected
// insert inside an outer transaction rolls back to a savepoint.
func (s *gormStore) Save(p *models.PostModel) error {
	insert := p.ID == ""
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if insert {
			return tx.Omit(clause.Associations).Create(p).Error
		}
		return tx.Model(p).Omit(clause.Associations).Select(editableColumns).Updates(p).Error
	})
	if err != nil && insert {
		// BeforeCreate assigned an ID; the row does not exist.
		p.ID = ""
	}
	if isDuplicateKey(err) {
		return ErrDuplicateSlug
	}
	return err
}

func (s *gormStore) FindBySlug(slug string) (*models.PostModel, error) {
	var p models.PostModel
	err := s.db.Scopes(withRelations).Where("slug = ?", slug).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (s *gormStore) FilterByStatus(status models.PostStatus, f Filter, q pagination.Query) ([]models.PostModel, response.Pagination, error) {
	tx := s.query(status, f).Order("posts.created_at DESC")

	var posts []models.PostModel
	pag, err := pagination.Paginate(tx, q, &posts, withRelations)
	return posts, pag, err
}

func (s *gormStore) Top(status models.PostStatus, f Filter, order string, limit int) ([]models.PostModel, error) {
	var posts []models.PostModel
	err := s.query(status, f).
		Scopes(withRelations).
		Order(order).
		Limit(limit).
		Find(&posts).Error
	if posts == nil {
		posts = []models.PostModel{}
	}
	return posts, err
}

func (s *gormStore) CountBy(status models.PostStatus, f Filter) (int64, error) {
	var n int64
	err := s.query(status, f).Count(&n).Error
	return n, err
}

func (s *gormStore) IncrementViews(id string) error {
	return s.db.Model(&models.PostModel{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
}

func (s *gormStore) Delete(tx *gorm.DB, id string) error {
	return tx.Where("id = ?", id).Delete(&models.PostModel{}).Error
}

func withRelations(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Author").Preload("Category")
}

func (s *gormStore) query(status models.PostStatus, f Filter) *gorm.DB {
	tx := s.db.Model(&models.PostModel{})
	if status != "" {
		tx = tx.Where("posts.status = ?", status)
	}
	if f.AuthorID != "" {
		tx = tx.Where("posts.author_id = ?", f.AuthorID)
	}
	if f.CategoryID != "" {
		tx = tx.Where("posts.category_id = ?", f.CategoryID)
	}
	if f.TagID != "" {
		sub := s.db.Model(&models.TaggedItemModel{}).
			Select("object_id").
			Where("tag_id = ? AND content_type = ?", f.TagID, models.ContentTypePost)
		tx = tx.Where("posts.id IN (?)", sub)
	}
	if f.ExcludeID != "" {
		tx = tx.Where("posts.id <> ?", f.ExcludeID)
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
		tx = tx.Where(
			"(LOWER(posts.title) LIKE ? ESCAPE '!' OR LOWER(posts.content) LIKE ? ESCAPE '!' OR LOWER(posts.excerpt) LIKE ? ESCAPE '!')",
			pattern, pattern, pattern,
		)
	}
	return tx
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *mysqldriver.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
