// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"

	"github.com/inkrealm/blog/internal/database"
	"github.com/inkrealm/blog/internal/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory sqlite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(sqlite.Open(":memory:"), logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to ":memory:" is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// CreateUser inserts a user whose password is "password123".
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.UserModel {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.UserModel{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateCategory inserts a category with the given name and slug.
func CreateCategory(t *testing.T, db *gorm.DB, name, slug string) *models.CategoryModel {
	t.Helper()

	c := &models.CategoryModel{Name: name, Slug: slug}
	require.NoError(t, db.Create(c).Error)
	return c
}
