package models

// ContentType names the kind of entity a tag is attached to.
type ContentType string

const ContentTypePost ContentType = "post"

// TagModel is a free-text label with a unique slug.
type TagModel struct {
	Base
	Name string `json:"name" gorm:"type:varchar(100);not null"`
	Slug string `json:"slug" gorm:"type:varchar(100);uniqueIndex;not null"`
}

func (TagModel) TableName() string { return "tags" }

// TaggedItemModel is the association row between a tag and a content object.
type TaggedItemModel struct {
	Base
	TagID       string      `json:"tag_id"       gorm:"type:char(36);not null;uniqueIndex:idx_tagged_item"`
	Tag         *TagModel   `json:"tag,omitempty" gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE"`
	ContentType ContentType `json:"content_type" gorm:"type:varchar(32);not null;uniqueIndex:idx_tagged_item;index:idx_tagged_object"`
	ObjectID    string      `json:"object_id"    gorm:"type:char(36);not null;uniqueIndex:idx_tagged_item;index:idx_tagged_object"`
}

func (TaggedItemModel) TableName() string { return "tagged_items" }
