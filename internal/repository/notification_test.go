package repository

import (
	"context"
	"testing"
	"time"

	"chirp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRepository_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	alice := mkAccount(t, db, "alice")
	bob := mkAccount(t, db, "bob")
	post := mkPost(t, db, alice.ID, "hi", baseTime)

	older := &models.Notification{RecipientID: alice.ID, ActorID: bob.ID, Kind: models.NotificationFollow, CreatedAt: baseTime}
	newer := &models.Notification{RecipientID: alice.ID, ActorID: bob.ID, Kind: models.NotificationLike, PostID: &post.ID, CreatedAt: baseTime.Add(time.Minute), IsRead: true}
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))
	assert.False(t, newer.IsRead, "new notifications start unread")

	list, err := repo.List(ctx, alice.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	require.NotNil(t, list[0].Actor)
	assert.Equal(t, "bob", list[0].Actor.Handle)

	unread, err := repo.CountUnread(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	t.Run("MarkRead requires ownership", func(t *testing.T) {
		err := repo.MarkRead(ctx, older.ID, bob.ID)
		assert.True(t, models.IsCode(err, models.CodeNotFound))

		require.NoError(t, repo.MarkRead(ctx, older.ID, alice.ID))
		unread, err := repo.CountUnread(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), unread)
	})

	t.Run("MarkAllRead", func(t *testing.T) {
		n, err := repo.MarkAllRead(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		unread, err := repo.CountUnread(ctx, alice.ID)
		require.NoError(t, err)
		assert.Zero(t, unread)
	})

	t.Run("Delete requires ownership", func(t *testing.T) {
		assert.True(t, models.IsCode(repo.Delete(ctx, newer.ID, bob.ID), models.CodeNotFound))
		require.NoError(t, repo.Delete(ctx, newer.ID, alice.ID))
		assert.True(t, models.IsCode(repo.Delete(ctx, newer.ID, alice.ID), models.CodeNotFound))
	})
}
