package models

import "time"

// UserModel is a registered account. Any user may author posts and comments;
// staff accounts also manage categories.
type UserModel struct {
	Base
	Username      string     `json:"username"        gorm:"type:varchar(150);uniqueIndex;not null"`
	Email         string     `json:"email"           gorm:"type:varchar(254);uniqueIndex;not null"`
	FirstName     string     `json:"first_name"      gorm:"type:varchar(30)"`
	LastName      string     `json:"last_name"       gorm:"type:varchar(150)"`
	Password      string     `json:"-"               gorm:"not null"`
	LastLoginTime *time.Time `json:"last_login_time"`
	LastLoginIP   string     `json:"-"`
	IsStaff       bool       `json:"is_staff"        gorm:"not null;default:false"`
}

func (UserModel) TableName() string { return "users" }
