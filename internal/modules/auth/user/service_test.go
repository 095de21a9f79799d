package user

import (
	"strings"
	"testing"
	"time"

	"github.com/inkrealm/blog/internal/models"
	"github.com/inkrealm/blog/internal/pkg/session"
	"github.com/inkrealm/blog/internal/pkg/validation"
	"github.com/inkrealm/blog/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	svc := NewService(db)
	svc.cost = bcrypt.MinCost
	return svc, db
}

func fieldErrors(t *testing.T, err error) validation.Errors {
	t.Helper()
	ve, ok := validation.As(err)
	require.True(t, ok, "expected field errors, got %v", err)
	return ve
}

func TestRegister(t *testing.T) {
	svc, _ := newService(t)

	u, err := svc.Register(&RegisterDTO{
		Username:  "zhang.san",
		Email:     "zs@example.com",
		FirstName: "San",
		Password1: "s3cret-pass",
		Password2: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("s3cret-pass")))
}

func TestRegisterValidation(t *testing.T) {
	svc, db := newService(t)
	testutil.CreateUser(t, db, "taken")

	tests := []struct {
		name  string
		dto   RegisterDTO
		field string
	}{
		{"bad username chars", RegisterDTO{Username: "no spaces", Email: "a@b.co", Password1: "goodpass1", Password2: "goodpass1"}, "username"},
		{"username too long", RegisterDTO{Username: strings.Repeat("u", 151), Email: "a@b.co", Password1: "goodpass1", Password2: "goodpass1"}, "username"},
		{"duplicate username", RegisterDTO{Username: "taken", Email: "a@b.co", Password1: "goodpass1", Password2: "goodpass1"}, "username"},
		{"duplicate email", RegisterDTO{Username: "fresh", Email: "taken@example.com", Password1: "goodpass1", Password2: "goodpass1"}, "email"},
		{"invalid email", RegisterDTO{Username: "fresh", Email: "not-an-email", Password1: "goodpass1", Password2: "goodpass1"}, "email"},
		{"passwords differ", RegisterDTO{Username: "fresh", Email: "a@b.co", Password1: "goodpass1", Password2: "goodpass2"}, "password2"},
		{"short password", RegisterDTO{Username: "fresh", Email: "a@b.co", Password1: "short", Password2: "short"}, "password1"},
		{"numeric password", RegisterDTO{Username: "fresh", Email: "a@b.co", Password1: "1234567890", Password2: "1234567890"}, "password1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(&tt.dto)
			assert.Contains(t, fieldErrors(t, err), tt.field)
		})
	}

	var n int64
	require.NoError(t, db.Model(&models.UserModel{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestRegisterAcceptsUnicodeUsername(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Register(&RegisterDTO{Username: "张三_01", Email: "z@example.com", Password1: "goodpass1", Password2: "goodpass1"})
	assert.NoError(t, err)
}

func TestLogin(t *testing.T) {
	svc, db := newService(t)
	alice := testutil.CreateUser(t, db, "alice")

	_, _, err := svc.Login("alice", "wrong-password", "1.2.3.4", "ua")
	assert.ErrorIs(t, err, errInvalidCredentials)
	_, _, err = svc.Login("nobody", "password123", "1.2.3.4", "ua")
	assert.ErrorIs(t, err, errInvalidCredentials)

	token, u, err := svc.Login("alice", "password123", "1.2.3.4", "ua")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, alice.ID, u.ID)

	var stored models.UserModel
	require.NoError(t, db.First(&stored, "id = ?", alice.ID).Error)
	require.NotNil(t, stored.LastLoginTime)
	assert.WithinDuration(t, time.Now(), *stored.LastLoginTime, time.Minute)
	assert.Equal(t, "1.2.3.4", stored.LastLoginIP)
}

func TestUpdateProfileUniquenessExcludesSelf(t *testing.T) {
	svc, db := newService(t)
	alice := testutil.CreateUser(t, db, "alice")
	testutil.CreateUser(t, db, "bob")

	same := "alice@example.com"
	first := "Alice"
	u, err := svc.UpdateProfile(alice.ID, &UpdateProfileDTO{Email: &same, FirstName: &first})
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.FirstName)

	bobs := "bob"
	_, err = svc.UpdateProfile(alice.ID, &UpdateProfileDTO{Username: &bobs})
	assert.Contains(t, fieldErrors(t, err), "username")

	u, err = svc.UpdateProfile("missing", &UpdateProfileDTO{})
	assert.NoError(t, err)
	assert.Nil(t, u)
}

func TestChangePassword(t *testing.T) {
	svc, db := newService(t)
	alice := testutil.CreateUser(t, db, "alice")
	_, current, err := session.Issue(db, alice.ID, "", "", time.Hour)
	require.NoError(t, err)
	_, other, err := session.Issue(db, alice.ID, "", "", time.Hour)
	require.NoError(t, err)

	err = svc.ChangePassword(alice.ID, current.ID, &ChangePasswordDTO{
		OldPassword: "nope", NewPassword1: "brand-new-pw", NewPassword2: "brand-new-pw",
	})
	assert.Contains(t, fieldErrors(t, err), "old_password")

	err = svc.ChangePassword(alice.ID, current.ID, &ChangePasswordDTO{
		OldPassword: "password123", NewPassword1: "brand-new-pw", NewPassword2: "different-pw",
	})
	assert.Contains(t, fieldErrors(t, err), "new_password2")

	err = svc.ChangePassword(alice.ID, current.ID, &ChangePasswordDTO{
		OldPassword: "password123", NewPassword1: "alice", NewPassword2: "alice",
	})
	assert.Contains(t, fieldErrors(t, err), "new_password1")

	require.NoError(t, svc.ChangePassword(alice.ID, current.ID, &ChangePasswordDTO{
		OldPassword: "password123", NewPassword1: "brand-new-pw", NewPassword2: "brand-new-pw",
	}))

	_, _, err = svc.Login("alice", "brand-new-pw", "", "")
	assert.NoError(t, err)

	active, err := session.IsActive(db, alice.ID, current.ID)
	require.NoError(t, err)
	assert.True(t, active)
	active, err = session.IsActive(db, alice.ID, other.ID)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestGrantStaff(t *testing.T) {
	svc, db := newService(t)
	admin := testutil.CreateUser(t, db, "admin")
	reader := testutil.CreateUser(t, db, "reader")

	n, err := svc.GrantStaff([]string{"admin", "ghost"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := svc.GetByID(admin.ID)
	require.NoError(t, err)
	assert.True(t, got.IsStaff)
	got, err = svc.GetByID(reader.ID)
	require.NoError(t, err)
	assert.False(t, got.IsStaff)
}
