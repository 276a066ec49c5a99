package service

import (
	"context"
	"time"

	"chirp/internal/featureflags"
	"chirp/internal/models"
	"chirp/internal/observability"
	"chirp/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const maxFeedLimit = 100

// FeedRequest selects one page of a viewer's home timeline. Cursor, when
// present, wins over Offset.
type FeedRequest struct {
	ViewerID uint
	Limit    int
	Offset   int
	Cursor   string
}

// FeedService assembles the home timeline from followed authors' posts and reposts.
type FeedService struct {
	rels         repository.RelationshipRepository
	feed         repository.FeedRepository
	viewer       repository.ViewerStateRepository
	flags        featureflags.Checker
	defaultLimit int
}

func NewFeedService(
	rels repository.RelationshipRepository,
	feed repository.FeedRepository,
	viewer repository.ViewerStateRepository,
	flags featureflags.Checker,
	defaultLimit int,
) *FeedService {
	if defaultLimit <= 0 || defaultLimit > maxFeedLimit {
		defaultLimit = 20
	}
	return &FeedService{rels: rels, feed: feed, viewer: viewer, flags: flags, defaultLimit: defaultLimit}
}

func (s *FeedService) GetFeed(ctx context.Context, req FeedRequest) (page *models.FeedPage, err error) {
	if req.ViewerID == 0 {
		return nil, models.NewUnauthorizedError("authentication required")
	}
	if req.Offset < 0 {
		return nil, models.NewValidationError("offset must not be negative")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}

	var after *repository.FeedCursor
	mode := "offset"
	if req.Cursor != "" {
		if after, err = DecodeFeedCursor(req.Cursor); err != nil {
			return nil, err
		}
		mode = "cursor"
	}

	defer observability.ObserveSince(observability.FeedAssemblyLatency.WithLabelValues(mode), time.Now())
	ctx, span := observability.StartSpan(ctx, "feed", "assemble",
		attribute.Int64("viewer_id", int64(req.ViewerID)),
		attribute.String("mode", mode),
		attribute.Int("limit", limit),
	)
	defer func() { observability.EndSpan(span, err) }()

	authors, err := s.visibleAuthors(ctx, req.ViewerID)
	if err != nil {
		return nil, err
	}

	batch, err := s.feed.Page(ctx, repository.FeedQuery{
		AuthorIDs: authors,
		Limit:     limit,
		Offset:    req.Offset,
		After:     after,
	})
	if err != nil {
		return nil, err
	}
	total, err := s.feed.Count(ctx, authors)
	if err != nil {
		return nil, err
	}

	// Paging follows the rows scanned, not the items that survived hydration.
	items := batch.Items
	page = &models.FeedPage{Total: total}
	if batch.Scanned == limit && len(items) > 0 {
		page.NextCursor = EncodeFeedCursor(cursorOf(items[len(items)-1]))
	}

	if s.flags != nil && s.flags.Enabled(featureflags.FeedDedupSelfReposts, req.ViewerID) {
		items = dedupSelfReposts(items)
	}

	posts := make([]*models.Post, 0, len(items))
	for _, it := range items {
		posts = append(posts, it.Post)
	}
	if err = resolveViewer(ctx, s.viewer, req.ViewerID, posts); err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.FeedItem{}
	}
	page.Items = items

	page.TotalPages = int((total + int64(limit) - 1) / int64(limit))
	if after != nil {
		page.HasNextPage = page.NextCursor != ""
	} else {
		page.CurrentPage = req.Offset/limit + 1
		page.HasNextPage = int64(req.Offset+batch.Scanned) < total
	}
	return page, nil
}

// visibleAuthors is the viewer's followees plus the viewer.
func (s *FeedService) visibleAuthors(ctx context.Context, viewerID uint) ([]uint, error) {
	following, err := s.rels.ListTargets(ctx, viewerID, models.EdgeFollow)
	if err != nil {
		return nil, err
	}
	authors := make([]uint, 0, len(following)+1)
	authors = append(authors, viewerID)
	for _, id := range following {
		if id != viewerID {
			authors = append(authors, id)
		}
	}
	return authors, nil
}

// dedupSelfReposts keeps the first of an authored entry and the author's own
// repost of the same post. Reposts by other accounts are untouched.
func dedupSelfReposts(items []models.FeedItem) []models.FeedItem {
	seen := make(map[uint]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		own := it.RepostedBy == nil || it.RepostedBy.ID == it.Post.AuthorID
		if own {
			if _, dup := seen[it.Post.ID]; dup {
				continue
			}
			seen[it.Post.ID] = struct{}{}
		}
		out = append(out, it)
	}
	return out
}
