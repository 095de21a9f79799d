package post

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/inkrealm/blog/internal/models"
	"github.com/inkrealm/blog/internal/modules/content/comment"
	"github.com/inkrealm/blog/internal/modules/content/tag"
	"github.com/inkrealm/blog/internal/pkg/excerpt"
	"github.com/inkrealm/blog/internal/pkg/pagination"
	"github.com/inkrealm/blog/internal/pkg/response"
	"github.com/inkrealm/blog/internal/pkg/slug"
	"github.com/inkrealm/blog/internal/pkg/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	IndexPageSize   = 9
	ListingPageSize = 10
	RelatedLimit    = 4
	PopularLimit    = 5
	RecentLimit     = 3

	// maxSlugRetries bounds the suffixed attempts after the plain candidate.
	maxSlugRetries = 10

	titleMinLen   = 5
	contentMinLen = 10
)

var (
	ErrNotFound         = errors.New("post not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrTagNotFound      = errors.New("tag not found")
	ErrSlugExhausted    = errors.New("no free slug left for this title, choose a different slug")
)

// Detail is everything shown on a post page.
type Detail struct {
	Post     *models.PostModel
	Comments []models.CommentModel
	Related  []models.PostModel
}

// Service handles post business logic.
type Service struct {
	db       *gorm.DB
	store    Store
	tags     *tag.Service
	comments *comment.Service
	log      *zap.Logger

	suffix func() int
	now    func() time.Time
}

func NewService(db *gorm.DB, store Store, tags *tag.Service, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:     db,
		store:  store,
		tags:   tags,
		log:    log,
		suffix: slug.RandomSuffix,
		now:    time.Now,
	}
}

// SetComments wires up the comment service used by Detail and Delete.
func (s *Service) SetComments(c *comment.Service) { s.comments = c }

// Create validates dto and stores a new post owned by authorID.
func (s *Service) Create(authorID string, dto *CreatePostDTO) (*models.PostModel, error) {
	p := &models.PostModel{
		AuthorID:      authorID,
		Title:         strings.TrimSpace(dto.Title),
		Content:       dto.Content,
		Excerpt:       strings.TrimSpace(dto.Excerpt),
		Status:        models.PostStatus(strings.TrimSpace(dto.Status)),
		CategoryID:    normalizeID(dto.CategoryID),
		AllowComments: true,
	}
	if p.Status == "" {
		p.Status = models.PostDraft
	}
	if dto.AllowComments != nil {
		p.AllowComments = *dto.AllowComments
	}

	explicit := strings.TrimSpace(dto.Slug)
	if err := s.validate(p, explicit); err != nil {
		return nil, err
	}
	if p.Excerpt == "" {
		p.Excerpt = excerpt.FromMarkdown(p.Content, excerpt.MaxLength)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		txs := s.withTx(tx)
		if err := txs.persist(p, slug.Make(explicit, p.Title)); err != nil {
			return err
		}
		if _, err := txs.tags.SetPostTags(p.ID, dto.Tags); err != nil {
			return fmt.Errorf("set tags: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.reload(p)
}

// Update applies dto to the post with postSlug owned by userID. A post that
// does not exist or belongs to someone else yields ErrNotFound.
func (s *Service) Update(postSlug, userID string, dto *UpdatePostDTO) (*models.PostModel, error) {
	p, err := s.store.FindBySlug(postSlug)
	if err != nil {
		return nil, err
	}
	if p == nil || p.AuthorID != userID {
		return nil, ErrNotFound
	}

	if dto.Title != nil {
		p.Title = strings.TrimSpace(*dto.Title)
	}
	if dto.Content != nil {
		p.Content = *dto.Content
	}
	if dto.Excerpt != nil {
		p.Excerpt = strings.TrimSpace(*dto.Excerpt)
	}
	if dto.Status != nil {
		p.Status = models.PostStatus(strings.TrimSpace(*dto.Status))
	}
	if dto.CategoryID != nil {
		p.CategoryID = normalizeID(dto.CategoryID)
		p.Category = nil
	}
	if dto.AllowComments != nil {
		p.AllowComments = *dto.AllowComments
	}

	base := p.Slug
	explicit := ""
	if dto.Slug != nil {
		explicit = strings.TrimSpace(*dto.Slug)
		base = slug.Make(explicit, p.Title)
	}
	if err := s.validate(p, explicit); err != nil {
		return nil, err
	}
	if p.Excerpt == "" {
		p.Excerpt = excerpt.FromMarkdown(p.Content, excerpt.MaxLength)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		txs := s.withTx(tx)
		if err := txs.persist(p, base); err != nil {
			return err
		}
		if dto.Tags != nil {
			if _, err := txs.tags.SetPostTags(p.ID, dto.Tags); err != nil {
				return fmt.Errorf("set tags: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.reload(p)
}

// Delete removes the post with postSlug owned by userID together with its
// comments and tag associations.
func (s *Service) Delete(postSlug, userID string) error {
	p, err := s.store.FindBySlug(postSlug)
	if err != nil {
		return err
	}
	if p == nil || p.AuthorID != userID {
		return ErrNotFound
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if s.comments != nil {
			if err := s.comments.DeleteByPost(tx, p.ID); err != nil {
				return err
			}
		}
		if err := s.tags.DeletePostTags(tx, p.ID); err != nil {
			return err
		}
		return s.store.Delete(tx, p.ID)
	})
}

// withTx returns a copy of s whose writes go through tx.
func (s *Service) withTx(tx *gorm.DB) *Service {
	c := *s
	c.db = tx
	c.store = s.store.WithTx(tx)
	c.tags = s.tags.WithTx(tx)
	return &c
}

// persist stamps the publish time and saves p under base, falling back to
// base with a random numeric suffix while another post owns the slug.
//
// When every suffixed candidate is taken too, persist gives up with
// ErrSlugExhausted instead of storing a duplicate. The unique index on
// posts.slug could not hold a duplicate anyway, so running out of candidates
// is reported to the caller as a conflict.
func (s *Service) persist(p *models.PostModel, base string) error {
	if p.Status == models.PostPublished && p.PublishedAt == nil {
		now := s.now()
		p.PublishedAt = &now
	}

	p.Slug = base
	err := s.store.Save(p)
	for attempt := 0; attempt < maxSlugRetries && errors.Is(err, ErrDuplicateSlug); attempt++ {
		p.Slug = slug.WithSuffix(base, s.suffix())
		err = s.store.Save(p)
	}
	if errors.Is(err, ErrDuplicateSlug) {
		s.log.Warn("slug candidates exhausted",
			zap.String("base", base),
			zap.Int("attempts", maxSlugRetries+1),
		)
		return ErrSlugExhausted
	}
	if err != nil {
		return fmt.Errorf("save post: %w", err)
	}
	return nil
}

func (s *Service) validate(p *models.PostModel, explicitSlug string) error {
	errs := validation.Errors{}
	validation.Length(errs, "title", p.Title, titleMinLen, models.PostTitleMaxLen)
	validation.Length(errs, "content", strings.TrimSpace(p.Content), contentMinLen, 0)
	validation.Length(errs, "excerpt", p.Excerpt, 0, models.PostExcerptMaxLen)
	if !p.Status.Valid() {
		errs.Add("status", fmt.Sprintf("must be %q or %q", models.PostDraft, models.PostPublished))
	}
	if explicitSlug != "" && strings.ContainsAny(explicitSlug, " \t\r\n/?#%") {
		errs.Add("slug", "may not contain whitespace or URL delimiters")
	}
	if p.CategoryID != nil {
		var n int64
		if err := s.db.Model(&models.CategoryModel{}).Where("id = ?", *p.CategoryID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			errs.Add("category_id", ErrCategoryNotFound.Error())
		}
	}
	return errs.Err()
}

func (s *Service) reload(p *models.PostModel) (*models.PostModel, error) {
	fresh, err := s.store.FindBySlug(p.Slug)
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		return nil, ErrNotFound
	}
	posts := []models.PostModel{*fresh}
	if err := s.tags.Attach(posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// FindVisible returns the post with postSlug when it is published or owned
// by viewerID. Percent-encoded slugs are also tried decoded.
func (s *Service) FindVisible(postSlug, viewerID string) (*models.PostModel, error) {
	for _, candidate := range slugCandidates(postSlug) {
		p, err := s.store.FindBySlug(candidate)
		if err != nil {
			return nil, err
		}
		if p == nil {
			continue
		}
		if p.IsPublished() || (viewerID != "" && p.AuthorID == viewerID) {
			return p, nil
		}
	}
	return nil, nil
}

func slugCandidates(raw string) []string {
	out := []string{raw}
	if decoded, err := url.PathUnescape(raw); err == nil && decoded != raw {
		out = append(out, decoded)
	}
	return out
}

// Detail loads a post page and counts the view. Every render counts,
// including the author reading their own draft.
func (s *Service) Detail(postSlug, viewerID string) (*Detail, error) {
	p, err := s.FindVisible(postSlug, viewerID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}

	if err := s.store.IncrementViews(p.ID); err != nil {
		return nil, fmt.Errorf("increment views: %w", err)
	}
	p.Views++

	posts := []models.PostModel{*p}
	if err := s.tags.Attach(posts); err != nil {
		return nil, err
	}
	d := &Detail{Post: &posts[0], Comments: []models.CommentModel{}}

	if s.comments != nil {
		if d.Comments, err = s.comments.ListApproved(p.ID); err != nil {
			return nil, err
		}
	}
	if d.Related, err = s.Related(p); err != nil {
		return nil, err
	}
	return d, nil
}

// Related returns other published posts, from the same category when p has one.
func (s *Service) Related(p *models.PostModel) ([]models.PostModel, error) {
	f := Filter{ExcludeID: p.ID}
	if p.CategoryID != nil {
		f.CategoryID = *p.CategoryID
	}
	return s.top(f, "posts.created_at DESC", RelatedLimit)
}

// Popular returns the most viewed published posts.
func (s *Service) Popular(limit int) ([]models.PostModel, error) {
	if limit <= 0 {
		limit = PopularLimit
	}
	return s.top(Filter{}, "posts.views DESC, posts.created_at DESC", limit)
}

// Recent returns the newest published posts.
func (s *Service) Recent(limit int) ([]models.PostModel, error) {
	if limit <= 0 {
		limit = RecentLimit
	}
	return s.top(Filter{}, "posts.created_at DESC", limit)
}

// CountPublished returns the number of published posts.
func (s *Service) CountPublished() (int64, error) {
	return s.store.CountBy(models.PostPublished, Filter{})
}

func (s *Service) top(f Filter, order string, limit int) ([]models.PostModel, error) {
	posts, err := s.store.Top(models.PostPublished, f, order, limit)
	if err != nil {
		return nil, err
	}
	return posts, s.tags.Attach(posts)
}

// Index pages through published posts, optionally narrowed by a search term
// matched against title, content and excerpt, and by category ID.
func (s *Service) Index(lq ListQuery, q pagination.Query) ([]models.PostModel, response.Pagination, error) {
	f := Filter{
		Search:     lq.Q,
		CategoryID: strings.TrimSpace(lq.Category),
	}
	return s.page(models.PostPublished, f, q)
}

// ByCategory pages through the published posts of the category with catSlug.
func (s *Service) ByCategory(catSlug string, q pagination.Query) (*models.CategoryModel, []models.PostModel, response.Pagination, error) {
	var cat models.CategoryModel
	if err := s.db.Where("slug = ?", catSlug).First(&cat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, response.Pagination{}, ErrCategoryNotFound
		}
		return nil, nil, response.Pagination{}, err
	}
	posts, pag, err := s.page(models.PostPublished, Filter{CategoryID: cat.ID}, q)
	return &cat, posts, pag, err
}

// ByTag pages through the published posts carrying the tag with tagSlug.
func (s *Service) ByTag(tagSlug string, q pagination.Query) (*models.TagModel, []models.PostModel, response.Pagination, error) {
	t, err := s.tags.GetBySlug(tagSlug)
	if err != nil {
		return nil, nil, response.Pagination{}, err
	}
	if t == nil {
		return nil, nil, response.Pagination{}, ErrTagNotFound
	}
	posts, pag, err := s.page(models.PostPublished, Filter{TagID: t.ID}, q)
	return t, posts, pag, err
}

// ByAuthor returns every post of userID in any status, newest first.
func (s *Service) ByAuthor(userID string) ([]models.PostModel, error) {
	posts, err := s.store.Top("", Filter{AuthorID: userID}, "posts.created_at DESC", -1)
	if err != nil {
		return nil, err
	}
	return posts, s.tags.Attach(posts)
}

func (s *Service) page(status models.PostStatus, f Filter, q pagination.Query) ([]models.PostModel, response.Pagination, error) {
	posts, pag, err := s.store.FilterByStatus(status, f, q)
	if err != nil {
		return nil, response.Pagination{}, err
	}
	return posts, pag, s.tags.Attach(posts)
}

func normalizeID(id *string) *string {
	if id == nil {
		return nil
	}
	v := strings.TrimSpace(*id)
	if v == "" {
		return nil
	}
	return &v
}
