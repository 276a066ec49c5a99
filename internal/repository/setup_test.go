package repository

import (
	"fmt"
	"testing"
	"time"

	"chirp/internal/database"
	"chirp/internal/models"
	"chirp/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	return testutil.NewSQLiteDB(t)
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), database.GormConfig())
	require.NoError(t, err)

	return gormDB, mock
}

func mkAccount(t *testing.T, db *gorm.DB, handle string) *models.Account {
	t.Helper()
	a := &models.Account{Handle: handle, DisplayName: "Display " + handle}
	require.NoError(t, db.Create(a).Error)
	return a
}

func mkPost(t *testing.T, db *gorm.DB, authorID uint, content string, at time.Time) *models.Post {
	t.Helper()
	p := &models.Post{AuthorID: authorID, Content: content, CreatedAt: at}
	require.NoError(t, db.Omit("Author").Create(p).Error)
	return p
}

func mkReply(t *testing.T, db *gorm.DB, authorID, parentID uint, at time.Time) *models.Post {
	t.Helper()
	p := &models.Post{AuthorID: authorID, Content: fmt.Sprintf("reply to %d", parentID), ParentID: &parentID, CreatedAt: at}
	require.NoError(t, db.Omit("Author").Create(p).Error)
	return p
}

func reloadAccount(t *testing.T, db *gorm.DB, id uint) models.Account {
	t.Helper()
	var a models.Account
	require.NoError(t, db.First(&a, id).Error)
	return a
}

func reloadPost(t *testing.T, db *gorm.DB, id uint) models.Post {
	t.Helper()
	var p models.Post
	require.NoError(t, db.First(&p, id).Error)
	return p
}
