package repository

import (
	"context"
	"testing"

	"chirp/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewerStateRepository_TwoQueriesPerBatch(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewViewerStateRepository(db)

	mock.ExpectQuery(`SELECT .*post_id.* FROM "likes" WHERE account_id = \$1 AND post_id IN \(\$2,\$3,\$4\)`).
		WithArgs(7, 1, 2, 3).
		WillReturnRows(sqlmock.NewRows([]string{"post_id"}).AddRow(1).AddRow(3))
	mock.ExpectQuery(`SELECT .*post_id.* FROM "reposts" WHERE account_id = \$1 AND post_id IN \(\$2,\$3,\$4\)`).
		WithArgs(7, 1, 2, 3).
		WillReturnRows(sqlmock.NewRows([]string{"post_id"}).AddRow(3))

	states, err := repo.Resolve(context.Background(), 7, []uint{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, models.ViewerState{Liked: true}, states[1])
	assert.Equal(t, models.ViewerState{}, states[2])
	assert.Equal(t, models.ViewerState{Liked: true, Reposted: true}, states[3])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestViewerStateRepository_AnonymousSkipsQueries(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewViewerStateRepository(db)

	states, err := repo.Resolve(context.Background(), 0, []uint{1, 2})
	require.NoError(t, err)
	assert.Len(t, states, 2)
	assert.False(t, states[1].Liked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyViewerState(t *testing.T) {
	posts := []*models.Post{{ID: 1}, {ID: 2}, nil}
	ApplyViewerState(posts, map[uint]models.ViewerState{2: {Reposted: true}})
	assert.False(t, posts[0].Reposted)
	assert.True(t, posts[1].Reposted)
}
