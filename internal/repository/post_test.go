package repository

import (
	"context"
	"testing"
	"time"

	"chirp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_CreateReplyBumpsParent(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := mkAccount(t, db, "alice")
	parent := &models.Post{
		AuthorID: alice.ID,
		Content:  "root",
		Attachments: []models.PostAttachment{
			{Ref: "img/b"}, {Ref: "img/a"},
		},
		LikesCount: 7,
	}
	require.NoError(t, repo.Create(ctx, parent))
	assert.NotZero(t, parent.ID)
	assert.Zero(t, parent.LikesCount)

	reply := &models.Post{AuthorID: alice.ID, Content: "child", ParentID: &parent.ID}
	require.NoError(t, repo.Create(ctx, reply))
	assert.Equal(t, 1, reloadPost(t, db, parent.ID).RepliesCount)

	got, err := repo.GetByID(ctx, parent.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Author)
	assert.Equal(t, "alice", got.Author.Handle)
	require.Len(t, got.Attachments, 2)
	assert.Equal(t, "img/b", got.Attachments[0].Ref)
	assert.Equal(t, "img/a", got.Attachments[1].Ref)
}

func TestPostRepository_CreateReplyToMissingParent(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	alice := mkAccount(t, db, "alice")

	missing := uint(404)
	err := repo.Create(context.Background(), &models.Post{AuthorID: alice.ID, Content: "orphan", ParentID: &missing})
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	var n int64
	db.Model(&models.Post{}).Count(&n)
	assert.Zero(t, n)
}

func TestPostRepository_DeleteCascade(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	rel := NewRelationshipRepository(db)
	ctx := context.Background()

	alice := mkAccount(t, db, "alice")
	bob := mkAccount(t, db, "bob")
	parent := mkPost(t, db, alice.ID, "root", baseTime)
	require.NoError(t, db.Create(&models.PostAttachment{PostID: parent.ID, Position: 0, Ref: "x"}).Error)
	reply := &models.Post{AuthorID: bob.ID, Content: "reply", ParentID: &parent.ID}
	require.NoError(t, repo.Create(ctx, reply))
	_, err := rel.CreateEdge(ctx, models.EdgeLike, bob.ID, parent.ID)
	require.NoError(t, err)
	_, err = rel.CreateEdge(ctx, models.EdgeRepost, bob.ID, parent.ID)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Notification{RecipientID: alice.ID, ActorID: bob.ID, Kind: models.NotificationLike, PostID: &parent.ID}).Error)

	recipients, err := repo.Delete(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{alice.ID}, recipients)

	for _, table := range []string{"likes", "reposts", "notifications", "post_attachments"} {
		var n int64
		require.NoError(t, db.Table(table).Where("post_id = ?", parent.ID).Count(&n).Error)
		assert.Zero(t, n, table)
	}

	orphan, err := repo.GetByID(ctx, reply.ID)
	require.NoError(t, err)
	require.NotNil(t, orphan.ParentID)
	assert.Equal(t, parent.ID, *orphan.ParentID)
	assert.True(t, orphan.ParentMissing)

	_, err = repo.GetByID(ctx, parent.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
	_, err = repo.Delete(ctx, parent.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestPostRepository_DeletingReplyKeepsParentCount(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := mkAccount(t, db, "alice")
	parent := mkPost(t, db, alice.ID, "root", baseTime)
	reply := &models.Post{AuthorID: alice.ID, Content: "reply", ParentID: &parent.ID}
	require.NoError(t, repo.Create(ctx, reply))

	_, err := repo.Delete(ctx, reply.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloadPost(t, db, parent.ID).RepliesCount)
}

func TestPostRepository_Listing(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := mkAccount(t, db, "alice")
	bob := mkAccount(t, db, "bob")
	root := mkPost(t, db, alice.ID, "Root about 100% Gophers", baseTime)
	r1 := mkReply(t, db, bob.ID, root.ID, baseTime.Add(time.Minute))
	r2 := mkReply(t, db, alice.ID, root.ID, baseTime.Add(2*time.Minute))
	mkPost(t, db, alice.ID, "later", baseTime.Add(3*time.Minute))

	replies, err := repo.ListReplies(ctx, root.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, r1.ID, replies[0].ID)
	assert.Equal(t, r2.ID, replies[1].ID)

	byAlice, err := repo.ListByAuthor(ctx, alice.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, byAlice, 2)
	assert.Equal(t, "later", byAlice[0].Content)
	assert.Equal(t, r2.ID, byAlice[1].ID)

	found, err := repo.Search(ctx, "GOPHER", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, root.ID, found[0].ID)

	found, err = repo.Search(ctx, "100%", 10)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, err = repo.Search(ctx, "%", 10)
	require.NoError(t, err)
	assert.Len(t, found, 1, "percent is matched literally")
}
