package service

import (
	"fmt"
	"strings"
	"testing"

	"colloquy/internal/database"
	"colloquy/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory sqlite database with the full
// schema migrated. Each test gets its own database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A shared-cache in-memory database disappears when its last
	// connection closes; pin a single connection for the test.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string, moderator bool) models.User {
	t.Helper()
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		IsModerator:  moderator,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createTestPost(t *testing.T, db *gorm.DB, slug string) *models.Post {
	t.Helper()
	post := models.Post{Title: "Test post", Slug: slug}
	require.NoError(t, db.Create(&post).Error)
	return &post
}

// createTestComment inserts a comment plus its binding row on the
// given post.
func createTestComment(t *testing.T, db *gorm.DB, post *models.Post, userID uint, replyTo *uint) *models.Comment {
	t.Helper()
	comment := models.Comment{
		UserID:    &userID,
		ReplyToID: replyTo,
		Message:   "test message",
	}
	require.NoError(t, db.Create(&comment).Error)
	require.NoError(t, db.Create(post.NewCommentBinding(comment.ID)).Error)
	return &comment
}

func reloadComment(t *testing.T, db *gorm.DB, id uint) *models.Comment {
	t.Helper()
	var comment models.Comment
	require.NoError(t, db.First(&comment, id).Error)
	return &comment
}
