package repository

import (
	"context"
	"time"

	"chirp/internal/models"

	"gorm.io/gorm"
)

// FeedCursor is the sort tuple of the last item on a page. Authored entries
// have ReposterID 0.
type FeedCursor struct {
	SortAt     time.Time
	ReposterID uint
	PostID     uint
}

// FeedQuery selects one page of the merged timeline. After, when set, takes
// precedence over Offset.
type FeedQuery struct {
	AuthorIDs []uint
	Limit     int
	Offset    int
	After     *FeedCursor
}

// FeedBatch is one page of hydrated items. Scanned counts the timeline rows
// the page covered, including rows whose post vanished before hydration.
type FeedBatch struct {
	Items   []models.FeedItem
	Scanned int
}

// FeedRepository reads the merged authored-post and repost timeline.
type FeedRepository interface {
	Page(ctx context.Context, q FeedQuery) (*FeedBatch, error)
	Count(ctx context.Context, authorIDs []uint) (int64, error)
}

type feedRepository struct {
	db       *gorm.DB
	posts    *postRepository
	accounts *accountRepository
}

// NewFeedRepository creates a new feed repository
func NewFeedRepository(db *gorm.DB) FeedRepository {
	return &feedRepository{
		db:       db,
		posts:    &postRepository{db: db},
		accounts: &accountRepository{db: db},
	}
}

// feedUnion yields (post_id, reposter_id, sort_at) for top-level posts and
// reposts by the given authors. Both branches bind the author set.
const feedUnion = `
SELECT p.id AS post_id, 0 AS reposter_id, p.created_at AS sort_at
FROM posts p
WHERE p.parent_id IS NULL AND p.author_id IN @authors
UNION ALL
SELECT r.post_id AS post_id, r.account_id AS reposter_id, r.created_at AS sort_at
FROM reposts r
WHERE r.account_id IN @authors`

const feedKeyset = `
WHERE feed.sort_at < @at
   OR (feed.sort_at = @at AND feed.reposter_id < @reposter)
   OR (feed.sort_at = @at AND feed.reposter_id = @reposter AND feed.post_id < @post)`

type feedRow struct {
	PostID     uint
	ReposterID uint
}

func (r *feedRepository) Page(ctx context.Context, q FeedQuery) (*FeedBatch, error) {
	if len(q.AuthorIDs) == 0 {
		return &FeedBatch{Items: []models.FeedItem{}}, nil
	}
	limit, offset := clampPage(q.Limit, q.Offset)

	args := map[string]any{"authors": q.AuthorIDs, "limit": limit, "offset": offset}
	query := "SELECT feed.post_id AS post_id, feed.reposter_id AS reposter_id FROM (" + feedUnion + ") feed"
	if q.After != nil {
		query += feedKeyset
		args["at"] = q.After.SortAt
		args["reposter"] = q.After.ReposterID
		args["post"] = q.After.PostID
		args["offset"] = 0
	}
	query += "\nORDER BY feed.sort_at DESC, feed.reposter_id DESC, feed.post_id DESC LIMIT @limit OFFSET @offset"

	var rows []feedRow
	if err := readDB(r.db).WithContext(ctx).Raw(query, args).Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return r.hydrate(ctx, rows)
}

// hydrate batch-loads posts, reposting accounts and repost timestamps for
// rows and assembles items in row order. Rows whose post vanished between
// queries are dropped.
func (r *feedRepository) hydrate(ctx context.Context, rows []feedRow) (*FeedBatch, error) {
	items := make([]models.FeedItem, 0, len(rows))
	if len(rows) == 0 {
		return &FeedBatch{Items: items}, nil
	}

	postIDs := make([]uint, 0, len(rows))
	var reposterIDs, repostedIDs []uint
	for _, row := range rows {
		postIDs = append(postIDs, row.PostID)
		if row.ReposterID != 0 {
			reposterIDs = append(reposterIDs, row.ReposterID)
			repostedIDs = append(repostedIDs, row.PostID)
		}
	}

	posts, err := r.posts.GetByIDs(ctx, postIDs)
	if err != nil {
		return nil, err
	}
	reposters, err := r.accounts.GetByIDs(ctx, reposterIDs)
	if err != nil {
		return nil, err
	}

	type repostKey struct{ account, post uint }
	repostTimes := make(map[repostKey]time.Time, len(reposterIDs))
	if len(reposterIDs) > 0 {
		var reposts []models.Repost
		err := readDB(r.db).WithContext(ctx).
			Where("account_id IN ? AND post_id IN ?", reposterIDs, repostedIDs).
			Find(&reposts).Error
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		for _, rp := range reposts {
			repostTimes[repostKey{rp.AccountID, rp.PostID}] = rp.CreatedAt
		}
	}

	for _, row := range rows {
		post, ok := posts[row.PostID]
		if !ok {
			continue
		}
		item := models.FeedItem{Post: post, SortAt: post.CreatedAt}
		if row.ReposterID != 0 {
			at, ok := repostTimes[repostKey{row.ReposterID, row.PostID}]
			if !ok {
				continue
			}
			item.RepostedBy = reposters[row.ReposterID]
			item.SortAt = at
		}
		items = append(items, item)
	}
	return &FeedBatch{Items: items, Scanned: len(rows)}, nil
}

// Count returns the size of the whole merged timeline for the author set.
func (r *feedRepository) Count(ctx context.Context, authorIDs []uint) (int64, error) {
	if len(authorIDs) == 0 {
		return 0, nil
	}
	var total int64
	err := readDB(r.db).WithContext(ctx).
		Raw("SELECT COUNT(*) FROM ("+feedUnion+") feed", map[string]any{"authors": authorIDs}).
		Scan(&total).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return total, nil
}
