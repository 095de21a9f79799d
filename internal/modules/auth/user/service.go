package user

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/inkrealm/blog/internal/models"
	"github.com/inkrealm/blog/internal/pkg/session"
	"github.com/inkrealm/blog/internal/pkg/validation"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)
	allDigits       = regexp.MustCompile(`^[0-9]+$`)
	validate        = validator.New()
)

type Service struct {
	db   *gorm.DB
	cost int
}

func NewService(db *gorm.DB) *Service { return &Service{db: db, cost: bcrypt.DefaultCost} }

func (s *Service) GetByID(id string) (*models.UserModel, error) {
	var u models.UserModel
	if err := s.db.First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// GrantStaff marks the accounts with the given usernames as staff and
// returns how many of them exist.
func (s *Service) GrantStaff(usernames []string) (int64, error) {
	if len(usernames) == 0 {
		return 0, nil
	}
	var found int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.UserModel{}).Where("username IN ?", usernames)
		if err := q.Update("is_staff", true).Error; err != nil {
			return err
		}
		return tx.Model(&models.UserModel{}).Where("username IN ?", usernames).Count(&found).Error
	})
	return found, err
}

// Register creates an account. Every problem with the input comes back as
// a validation.Errors keyed by field.
func (s *Service) Register(dto *RegisterDTO) (*models.UserModel, error) {
	u := &models.UserModel{
		Username:  strings.TrimSpace(dto.Username),
		Email:     strings.TrimSpace(dto.Email),
		FirstName: strings.TrimSpace(dto.FirstName),
		LastName:  strings.TrimSpace(dto.LastName),
	}

	errs := validation.Errors{}
	if err := s.checkProfile(errs, u); err != nil {
		return nil, err
	}
	if dto.Password1 != dto.Password2 {
		errs.Add("password2", "the two password fields didn't match")
	}
	checkPassword(errs, "password1", dto.Password1, u.Username)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password1), s.cost)
	if err != nil {
		return nil, err
	}
	u.Password = string(hash)
	return u, s.db.Create(u).Error
}

// Login verifies the credentials and opens a new session for the user.
func (s *Service) Login(username, password, ip, ua string) (string, *models.UserModel, error) {
	var u models.UserModel
	if err := s.db.Where("username = ?", strings.TrimSpace(username)).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, errInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return "", nil, errInvalidCredentials
	}

	now := time.Now()
	if err := s.db.Model(&u).UpdateColumns(map[string]interface{}{
		"last_login_time": now,
		"last_login_ip":   ip,
	}).Error; err != nil {
		return "", nil, err
	}
	u.LastLoginTime = &now
	u.LastLoginIP = ip

	token, _, err := session.Issue(s.db, u.ID, ip, ua, session.DefaultTTL)
	return token, &u, err
}

func (s *Service) UpdateProfile(id string, dto *UpdateProfileDTO) (*models.UserModel, error) {
	u, err := s.GetByID(id)
	if err != nil || u == nil {
		return u, err
	}
	if dto.Username != nil {
		u.Username = strings.TrimSpace(*dto.Username)
	}
	if dto.Email != nil {
		u.Email = strings.TrimSpace(*dto.Email)
	}
	if dto.FirstName != nil {
		u.FirstName = strings.TrimSpace(*dto.FirstName)
	}
	if dto.LastName != nil {
		u.LastName = strings.TrimSpace(*dto.LastName)
	}

	errs := validation.Errors{}
	if err := s.checkProfile(errs, u); err != nil {
		return nil, err
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return u, s.db.Model(u).Select("username", "email", "first_name", "last_name").Updates(u).Error
}

// ChangePassword replaces the password and signs out every other session.
func (s *Service) ChangePassword(id, currentSessionID string, dto *ChangePasswordDTO) error {
	var u models.UserModel
	if err := s.db.Select("id, username, password").First(&u, "id = ?", id).Error; err != nil {
		return err
	}

	errs := validation.Errors{}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(dto.OldPassword)); err != nil {
		errs.Add("old_password", errWrongPassword.Error())
	}
	if dto.NewPassword1 != dto.NewPassword2 {
		errs.Add("new_password2", "the two password fields didn't match")
	}
	checkPassword(errs, "new_password1", dto.NewPassword1, u.Username)
	if err := errs.Err(); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.NewPassword1), s.cost)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&u).UpdateColumn("password", string(hash)).Error; err != nil {
			return err
		}
		return session.RevokeAllExcept(tx, u.ID, currentSessionID)
	})
}

// checkProfile validates the editable account fields of u. Uniqueness checks
// skip u itself once it has an ID.
func (s *Service) checkProfile(errs validation.Errors, u *models.UserModel) error {
	validation.Length(errs, "username", u.Username, 1, usernameMaxLen)
	if _, bad := errs["username"]; !bad && !usernamePattern.MatchString(u.Username) {
		errs.Add("username", "may contain only letters, numbers and @/./+/-/_ characters")
	}
	validation.Length(errs, "email", u.Email, 1, emailMaxLen)
	if _, bad := errs["email"]; !bad && validate.Var(u.Email, "email") != nil {
		errs.Add("email", "enter a valid email address")
	}
	validation.Length(errs, "first_name", u.FirstName, 0, firstNameMaxLen)
	validation.Length(errs, "last_name", u.LastName, 0, lastNameMaxLen)

	for _, field := range []string{"username", "email"} {
		if _, bad := errs[field]; bad {
			continue
		}
		value := u.Username
		if field == "email" {
			value = u.Email
		}
		q := s.db.Model(&models.UserModel{}).Where(field+" = ?", value)
		if u.ID != "" {
			q = q.Where("id <> ?", u.ID)
		}
		var n int64
		if err := q.Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			errs.Add(field, "a user with that "+field+" already exists")
		}
	}
	return nil
}

func checkPassword(errs validation.Errors, field, password, username string) {
	switch {
	case len([]rune(password)) < passwordMinLen:
		errs.Add(field, "this password is too short, it must contain at least 8 characters")
	case allDigits.MatchString(password):
		errs.Add(field, "this password is entirely numeric")
	case username != "" && strings.EqualFold(password, username):
		errs.Add(field, "the password is too similar to the username")
	}
}
