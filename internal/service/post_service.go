package service

import (
	"context"
	"strings"

	"chirp/internal/cache"
	"chirp/internal/models"
	"chirp/internal/observability"
	"chirp/internal/repository"
	"chirp/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

type CreatePostInput struct {
	AuthorID    uint     `json:"-"`
	Content     string   `json:"content" validate:"required,notblank,max=280"`
	ParentID    *uint    `json:"parent_id"`
	Attachments []string `json:"attachments" validate:"max=5,dive,required,max=512"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	City        string   `json:"city" validate:"max=100"`
	Country     string   `json:"country" validate:"max=100"`
}

type DeletePostInput struct {
	PostID      uint
	RequesterID uint
}

// PostService owns the post graph: posts, replies, likes and reposts.
type PostService struct {
	posts   repository.PostRepository
	rels    repository.RelationshipRepository
	viewer  repository.ViewerStateRepository
	emitter NotificationEmitter
}

func NewPostService(
	posts repository.PostRepository,
	rels repository.RelationshipRepository,
	viewer repository.ViewerStateRepository,
	emitter NotificationEmitter,
) *PostService {
	return &PostService{posts: posts, rels: rels, viewer: viewer, emitter: emitter}
}

// CreatePost stores a post or reply. A reply notifies the parent's author.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	if err = validation.Struct(in); err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, "posts", "create",
		attribute.Int64("author_id", int64(in.AuthorID)),
		attribute.Bool("reply", in.ParentID != nil),
	)
	defer func() { observability.EndSpan(span, err) }()

	var parent *models.Post
	if in.ParentID != nil {
		if parent, err = s.posts.GetByID(ctx, *in.ParentID); err != nil {
			return nil, err
		}
	}

	post = &models.Post{
		AuthorID: in.AuthorID,
		Content:  in.Content,
		ParentID: in.ParentID,
		City:     strings.TrimSpace(in.City),
		Country:  strings.TrimSpace(in.Country),
	}
	// Coordinates are kept only as a pair.
	if in.Latitude != nil && in.Longitude != nil {
		post.Latitude, post.Longitude = in.Latitude, in.Longitude
	}
	for _, ref := range in.Attachments {
		post.Attachments = append(post.Attachments, models.PostAttachment{Ref: ref})
	}

	if err = s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	if parent != nil {
		s.emitter.Emit(ctx, NotificationEvent{
			Kind:        models.NotificationReply,
			ActorID:     in.AuthorID,
			RecipientID: parent.AuthorID,
			PostID:      &post.ID,
			Snippet:     post.Content,
		})
	}

	if created, getErr := s.posts.GetByID(ctx, post.ID); getErr == nil {
		return created, nil
	}
	return post, nil
}

// DeletePost removes a post with its likes, reposts, notifications and
// attachments. The parent's replies_count and the post's own replies are left alone.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) (err error) {
	ctx, span := observability.StartSpan(ctx, "posts", "delete", attribute.Int64("post_id", int64(in.PostID)))
	defer func() { observability.EndSpan(span, err) }()

	post, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		return err
	}
	if post.AuthorID != in.RequesterID {
		return models.NewForbiddenError("only the author can delete this post")
	}
	recipients, err := s.posts.Delete(ctx, in.PostID)
	if err != nil {
		return err
	}
	for _, id := range recipients {
		cache.InvalidateUnreadCount(ctx, id)
	}
	return nil
}

func (s *PostService) Like(ctx context.Context, postID, actorID uint) error {
	return s.interact(ctx, models.EdgeLike, models.NotificationLike, postID, actorID)
}

func (s *PostService) Unlike(ctx context.Context, postID, actorID uint) error {
	_, err := s.rels.DeleteEdge(ctx, models.EdgeLike, actorID, postID)
	return err
}

func (s *PostService) Repost(ctx context.Context, postID, actorID uint) error {
	return s.interact(ctx, models.EdgeRepost, models.NotificationRepost, postID, actorID)
}

func (s *PostService) Unrepost(ctx context.Context, postID, actorID uint) error {
	_, err := s.rels.DeleteEdge(ctx, models.EdgeRepost, actorID, postID)
	return err
}

func (s *PostService) interact(ctx context.Context, kind models.EdgeKind, notif models.NotificationKind, postID, actorID uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "posts", strings.ToLower(string(kind)),
		attribute.Int64("post_id", int64(postID)),
		attribute.Int64("actor_id", int64(actorID)),
	)
	defer func() { observability.EndSpan(span, err) }()

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if _, err = s.rels.CreateEdge(ctx, kind, actorID, postID); err != nil {
		return err
	}

	s.emitter.Emit(ctx, NotificationEvent{
		Kind:        notif,
		ActorID:     actorID,
		RecipientID: post.AuthorID,
		PostID:      &post.ID,
		Snippet:     post.Content,
	})
	return nil
}

// GetPost returns one post with the viewer's liked/reposted flags.
func (s *PostService) GetPost(ctx context.Context, postID, viewerID uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.applyViewer(ctx, viewerID, []*models.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

// ListReplies returns direct replies oldest first.
func (s *PostService) ListReplies(ctx context.Context, postID, viewerID uint, limit, offset int) ([]*models.Post, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	replies, err := s.posts.ListReplies(ctx, postID, limit, offset)
	if err != nil {
		return nil, err
	}
	if err := s.applyViewer(ctx, viewerID, replies); err != nil {
		return nil, err
	}
	return replies, nil
}

// ListByAuthor returns the author's posts and replies newest first.
func (s *PostService) ListByAuthor(ctx context.Context, authorID, viewerID uint, limit, offset int) ([]*models.Post, error) {
	posts, err := s.posts.ListByAuthor(ctx, authorID, limit, offset)
	if err != nil {
		return nil, err
	}
	if err := s.applyViewer(ctx, viewerID, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *PostService) applyViewer(ctx context.Context, viewerID uint, posts []*models.Post) error {
	return resolveViewer(ctx, s.viewer, viewerID, posts)
}

func resolveViewer(ctx context.Context, viewer repository.ViewerStateRepository, viewerID uint, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(posts))
	seen := make(map[uint]struct{}, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		ids = append(ids, p.ID)
	}
	states, err := viewer.Resolve(ctx, viewerID, ids)
	if err != nil {
		return err
	}
	repository.ApplyViewerState(posts, states)
	return nil
}
