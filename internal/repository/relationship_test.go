package repository

import (
	"context"
	"sync"
	"testing"

	"chirp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelationshipRepository_Follow(t *testing.T) {
	db := newTestDB(t)
	repo := NewRelationshipRepository(db)
	ctx := context.Background()

	alice := mkAccount(t, db, "alice")
	bob := mkAccount(t, db, "bob")

	t.Run("Create increments both counters", func(t *testing.T) {
		edge, err := repo.CreateEdge(ctx, models.EdgeFollow, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, models.EdgeFollow, edge.Kind)
		assert.False(t, edge.CreatedAt.IsZero())

		assert.Equal(t, 1, reloadAccount(t, db, alice.ID).FollowingCount)
		assert.Equal(t, 1, reloadAccount(t, db, bob.ID).FollowersCount)
	})

	t.Run("Duplicate is rejected without counter change", func(t *testing.T) {
		_, err := repo.CreateEdge(ctx, models.EdgeFollow, alice.ID, bob.ID)
		require.Error(t, err)
		assert.True(t, models.IsCode(err, models.CodeAlreadyExists))
		assert.Equal(t, 1, reloadAccount(t, db, bob.ID).FollowersCount)
	})

	t.Run("Self follow is invalid", func(t *testing.T) {
		_, err := repo.CreateEdge(ctx, models.EdgeFollow, alice.ID, alice.ID)
		assert.True(t, models.IsCode(err, models.CodeInvalidOperation))
	})

	t.Run("Missing target is not found", func(t *testing.T) {
		_, err := repo.CreateEdge(ctx, models.EdgeFollow, alice.ID, 9999)
		assert.True(t, models.IsCode(err, models.CodeNotFound))
	})

	t.Run("Exists and ListTargets", func(t *testing.T) {
		ok, err := repo.ExistsEdge(ctx, models.EdgeFollow, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.ExistsEdge(ctx, models.EdgeFollow, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		targets, err := repo.ListTargets(ctx, alice.ID, models.EdgeFollow)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uint{bob.ID}, targets)
	})

	t.Run("Followers and following lists", func(t *testing.T) {
		followers, err := repo.ListFollowers(ctx, bob.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, followers, 1)
		assert.Equal(t, "alice", followers[0].Handle)

		following, err := repo.ListFollowing(ctx, bob.ID, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, following)
	})

	t.Run("Delete decrements and a second delete is not found", func(t *testing.T) {
		edge, err := repo.DeleteEdge(ctx, models.EdgeFollow, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, bob.ID, edge.TargetID)
		assert.Equal(t, 0, reloadAccount(t, db, alice.ID).FollowingCount)
		assert.Equal(t, 0, reloadAccount(t, db, bob.ID).FollowersCount)

		_, err = repo.DeleteEdge(ctx, models.EdgeFollow, alice.ID, bob.ID)
		assert.True(t, models.IsCode(err, models.CodeNotFound))
	})
}

func TestRelationshipRepository_LikeAndRepostCounters(t *testing.T) {
	db := newTestDB(t)
	repo := NewRelationshipRepository(db)
	ctx := context.Background()

	alice := mkAccount(t, db, "alice")
	bob := mkAccount(t, db, "bob")
	post := mkPost(t, db, bob.ID, "hello", baseTime)

	_, err := repo.CreateEdge(ctx, models.EdgeLike, alice.ID, post.ID)
	require.NoError(t, err)
	_, err = repo.CreateEdge(ctx, models.EdgeRepost, alice.ID, post.ID)
	require.NoError(t, err)
	_, err = repo.CreateEdge(ctx, models.EdgeLike, bob.ID, post.ID)
	require.NoError(t, err)

	got := reloadPost(t, db, post.ID)
	assert.Equal(t, 2, got.LikesCount)
	assert.Equal(t, 1, got.RepostsCount)

	_, err = repo.CreateEdge(ctx, models.EdgeLike, alice.ID, 4242)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	_, err = repo.DeleteEdge(ctx, models.EdgeRepost, alice.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloadPost(t, db, post.ID).RepostsCount)
}

func TestRelationshipRepository_DecrementFloorsAtZero(t *testing.T) {
	db := newTestDB(t)
	repo := NewRelationshipRepository(db)
	ctx := context.Background()

	alice := mkAccount(t, db, "alice")
	post := mkPost(t, db, alice.ID, "hello", baseTime)

	_, err := repo.CreateEdge(ctx, models.EdgeLike, alice.ID, post.ID)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", post.ID).UpdateColumn("likes_count", 0).Error)

	_, err = repo.DeleteEdge(ctx, models.EdgeLike, alice.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloadPost(t, db, post.ID).LikesCount)
}

func TestRelationshipRepository_ConcurrentLikesCountOnce(t *testing.T) {
	db := newTestDB(t)
	repo := NewRelationshipRepository(db)
	ctx := context.Background()

	alice := mkAccount(t, db, "alice")
	post := mkPost(t, db, alice.ID, "hello", baseTime)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.CreateEdge(ctx, models.EdgeLike, alice.ID, post.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case models.IsCode(err, models.CodeAlreadyExists):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, conflicts)
	assert.Equal(t, 1, reloadPost(t, db, post.ID).LikesCount)
}

func TestRelationshipRepository_UnknownKind(t *testing.T) {
	repo := NewRelationshipRepository(newTestDB(t))
	_, err := repo.CreateEdge(context.Background(), models.EdgeKind("BLOCK"), 1, 2)
	assert.True(t, models.IsCode(err, models.CodeValidation))
}
