package models

// CategoryModel groups posts. Deleting a category leaves its posts uncategorized.
type CategoryModel struct {
	Base
	Name        string `json:"name"        gorm:"type:varchar(100);uniqueIndex;not null"`
	Slug        string `json:"slug"        gorm:"type:varchar(100);uniqueIndex;not null"`
	Description string `json:"description" gorm:"type:text"`
}

func (CategoryModel) TableName() string { return "categories" }
