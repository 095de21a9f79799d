package user

import (
	"errors"
	"time"

	"github.com/inkrealm/blog/internal/models"
)

const (
	usernameMaxLen  = 150
	firstNameMaxLen = 30
	lastNameMaxLen  = 150
	emailMaxLen     = 254
	passwordMinLen  = 8
)

type RegisterDTO struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
}

type LoginDTO struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileDTO struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type ChangePasswordDTO struct {
	OldPassword  string `json:"old_password"`
	NewPassword1 string `json:"new_password1"`
	NewPassword2 string `json:"new_password2"`
}

type userResponse struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	LastLoginTime *time.Time `json:"last_login_time"`
	IsStaff       bool       `json:"is_staff"`
	Created       time.Time  `json:"created"`
}

type loginResponse struct {
	Token string        `json:"token"`
	User  *userResponse `json:"user"`
}

var (
	errInvalidCredentials = errors.New("incorrect username or password")
	errWrongPassword      = errors.New("old password is incorrect")
)

func toResponse(u *models.UserModel) *userResponse {
	return &userResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		LastLoginTime: u.LastLoginTime,
		IsStaff:       u.IsStaff,
		Created:       u.CreatedAt,
	}
}
