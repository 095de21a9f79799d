package models

import "time"

// PostStatus is the publication state of a post.
type PostStatus string

const (
	PostDraft     PostStatus = "draft"
	PostPublished PostStatus = "published"
)

// Valid reports whether s is a known status.
func (s PostStatus) Valid() bool {
	return s == PostDraft || s == PostPublished
}

const (
	PostTitleMaxLen   = 200
	PostSlugMaxLen    = 200
	PostExcerptMaxLen = 300
)

// PostModel is a blog post. Tags are attached through TaggedItemModel rows and
// loaded separately into Tags.
type PostModel struct {
	Base
	Title         string         `json:"title"          gorm:"type:varchar(200);not null"`
	Slug          string         `json:"slug"           gorm:"type:varchar(200);uniqueIndex;not null"`
	AuthorID      string         `json:"author_id"      gorm:"type:char(36);index;not null"`
	Author        *UserModel     `json:"author,omitempty"   gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	CategoryID    *string        `json:"category_id"    gorm:"type:char(36);index"`
	Category      *CategoryModel `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	Content       string         `json:"content"        gorm:"type:longtext;not null"`
	Excerpt       string         `json:"excerpt"        gorm:"type:varchar(300)"`
	Status        PostStatus     `json:"status"         gorm:"type:varchar(10);default:'draft';index;not null"`
	PublishedAt   *time.Time     `json:"published_at"`
	Views         uint           `json:"views"          gorm:"default:0;not null"`
	AllowComments bool           `json:"allow_comments" gorm:"not null"`

	Tags []TagModel `json:"tags" gorm:"-"`
}

func (PostModel) TableName() string { return "posts" }

// IsPublished reports whether the post is publicly visible.
func (p *PostModel) IsPublished() bool { return p.Status == PostPublished }
