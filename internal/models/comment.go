package models

// CommentModel is a reader comment on a post, optionally replying to another comment.
type CommentModel struct {
	Base
	PostID     string         `json:"post_id"     gorm:"type:char(36);index;not null"`
	Post       *PostModel     `json:"post,omitempty"   gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	AuthorID   string         `json:"author_id"   gorm:"type:char(36);index;not null"`
	Author     *UserModel     `json:"author,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Content    string         `json:"content"     gorm:"type:text;not null"`
	IsApproved bool           `json:"is_approved" gorm:"index;not null"`
	ParentID   *string        `json:"parent_id"   gorm:"type:char(36);index"`
	Replies    []CommentModel `json:"replies,omitempty" gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`
}

func (CommentModel) TableName() string { return "comments" }
