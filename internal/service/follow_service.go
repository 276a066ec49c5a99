package service

import (
	"context"

	"chirp/internal/cache"
	"chirp/internal/models"
	"chirp/internal/observability"
	"chirp/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// FollowService mutates the follow graph and notifies the followed account.
type FollowService struct {
	rels    repository.RelationshipRepository
	emitter NotificationEmitter
}

func NewFollowService(rels repository.RelationshipRepository, emitter NotificationEmitter) *FollowService {
	return &FollowService{rels: rels, emitter: emitter}
}

func (s *FollowService) Follow(ctx context.Context, followerID, followingID uint) (edge *models.Edge, err error) {
	ctx, span := observability.StartSpan(ctx, "follows", "follow",
		attribute.Int64("follower_id", int64(followerID)),
		attribute.Int64("following_id", int64(followingID)),
	)
	defer func() { observability.EndSpan(span, err) }()

	edge, err = s.rels.CreateEdge(ctx, models.EdgeFollow, followerID, followingID)
	if err != nil {
		return nil, err
	}
	cache.InvalidateAccount(ctx, followerID, followingID)

	s.emitter.Emit(ctx, NotificationEvent{
		Kind:        models.NotificationFollow,
		ActorID:     followerID,
		RecipientID: followingID,
	})
	return edge, nil
}

// Unfollow removes the edge. No notification is produced.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followingID uint) error {
	if _, err := s.rels.DeleteEdge(ctx, models.EdgeFollow, followerID, followingID); err != nil {
		return err
	}
	cache.InvalidateAccount(ctx, followerID, followingID)
	return nil
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.rels.ExistsEdge(ctx, models.EdgeFollow, followerID, followingID)
}
