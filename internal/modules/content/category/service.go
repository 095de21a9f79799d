package category

import (
	"errors"
	"strings"

	"github.com/inkrealm/blog/internal/models"
	"github.com/inkrealm/blog/internal/pkg/slug"
	"github.com/inkrealm/blog/internal/pkg/validation"
	"gorm.io/gorm"
)

const (
	nameMaxLen = 100
	slugMaxLen = 100
)

var ErrNotFound = errors.New("category not found")

type CreateCategoryDTO struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

type UpdateCategoryDTO struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// List returns every category ordered by name.
func (s *Service) List() ([]models.CategoryModel, error) {
	cats := []models.CategoryModel{}
	return cats, s.db.Order("name ASC").Find(&cats).Error
}

func (s *Service) GetByID(id string) (*models.CategoryModel, error) {
	return s.first("id = ?", id)
}

func (s *Service) GetBySlug(slugValue string) (*models.CategoryModel, error) {
	return s.first("slug = ?", slugValue)
}

func (s *Service) first(query string, arg string) (*models.CategoryModel, error) {
	var cat models.CategoryModel
	if err := s.db.Where(query, arg).First(&cat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cat, nil
}

func (s *Service) Create(dto *CreateCategoryDTO) (*models.CategoryModel, error) {
	cat := &models.CategoryModel{
		Name:        strings.TrimSpace(dto.Name),
		Slug:        strings.TrimSpace(dto.Slug),
		Description: strings.TrimSpace(dto.Description),
	}
	if cat.Slug == "" {
		cat.Slug = slug.Truncate(slug.Slugify(cat.Name), slugMaxLen)
	}
	if err := s.validate(cat); err != nil {
		return nil, err
	}
	return cat, s.db.Create(cat).Error
}

// Update applies dto to the category with id. An empty slug is re-derived
// from the name.
func (s *Service) Update(id string, dto *UpdateCategoryDTO) (*models.CategoryModel, error) {
	cat, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, ErrNotFound
	}

	if dto.Name != nil {
		cat.Name = strings.TrimSpace(*dto.Name)
	}
	if dto.Description != nil {
		cat.Description = strings.TrimSpace(*dto.Description)
	}
	if dto.Slug != nil {
		cat.Slug = strings.TrimSpace(*dto.Slug)
		if cat.Slug == "" {
			cat.Slug = slug.Truncate(slug.Slugify(cat.Name), slugMaxLen)
		}
	}
	if err := s.validate(cat); err != nil {
		return nil, err
	}

	err = s.db.Model(cat).Select("name", "slug", "description").Updates(cat).Error
	return cat, err
}

// Delete removes the category. Its posts stay, without a category.
func (s *Service) Delete(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PostModel{}).
			Where("category_id = ?", id).
			UpdateColumn("category_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.CategoryModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Service) validate(cat *models.CategoryModel) error {
	errs := validation.Errors{}
	validation.Length(errs, "name", cat.Name, 1, nameMaxLen)
	validation.Length(errs, "slug", cat.Slug, 1, slugMaxLen)
	if strings.ContainsAny(cat.Slug, " \t\r\n/?#%") {
		errs.Add("slug", "may not contain whitespace or URL delimiters")
	}

	for field, value := range map[string]string{"name": cat.Name, "slug": cat.Slug} {
		if _, bad := errs[field]; bad {
			continue
		}
		q := s.db.Model(&models.CategoryModel{}).Where(field+" = ?", value)
		if cat.ID != "" {
			q = q.Where("id <> ?", cat.ID)
		}
		var n int64
		if err := q.Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			errs.Add(field, "a category with this "+field+" already exists")
		}
	}
	return errs.Err()
}
