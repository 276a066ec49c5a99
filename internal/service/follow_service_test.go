package service

import (
	"context"
	"testing"

	"chirp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowServiceFollowEmitsNotification(t *testing.T) {
	emitter := &recordingEmitter{}
	svc := NewFollowService(noopRelRepo(), emitter)

	edge, err := svc.Follow(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, models.EdgeFollow, edge.Kind)

	events := emitter.Events()
	require.Len(t, events, 1)
	assert.Equal(t, models.NotificationFollow, events[0].Kind)
	assert.Equal(t, uint(2), events[0].RecipientID)
	assert.Nil(t, events[0].PostID)
}

func TestFollowServiceSelfFollowRejected(t *testing.T) {
	rels := noopRelRepo()
	rels.createEdgeFn = func(context.Context, models.EdgeKind, uint, uint) (*models.Edge, error) {
		return nil, models.NewInvalidOperationError("cannot follow yourself")
	}
	emitter := &recordingEmitter{}
	svc := NewFollowService(rels, emitter)

	_, err := svc.Follow(context.Background(), 1, 1)
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeInvalidOperation))
	assert.Empty(t, emitter.Events())
}

func TestFollowServiceUnfollowAndIsFollowing(t *testing.T) {
	rels := noopRelRepo()
	rels.existsEdgeFn = func(_ context.Context, kind models.EdgeKind, actor, target uint) (bool, error) {
		return kind == models.EdgeFollow && actor == 1 && target == 2, nil
	}
	emitter := &recordingEmitter{}
	svc := NewFollowService(rels, emitter)

	ok, err := svc.IsFollowing(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.Unfollow(context.Background(), 1, 2))
	assert.Empty(t, emitter.Events())
}
