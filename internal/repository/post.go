package repository

import (
	"context"

	"chirp/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.Post, error)
	Delete(ctx context.Context, id uint) ([]uint, error)
	ListReplies(ctx context.Context, parentID uint, limit, offset int) ([]*models.Post, error)
	ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Post, error)
	Search(ctx context.Context, query string, limit int) ([]*models.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// withDetails preloads the author and position-ordered attachments.
func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Attachments", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

// Create inserts the post and its attachments. A reply also bumps its
// parent's replies_count in the same transaction.
func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	post.ID = 0
	post.LikesCount, post.RepliesCount, post.RepostsCount = 0, 0, 0
	for i := range post.Attachments {
		post.Attachments[i].Position = i
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if post.ParentID != nil {
			var n int64
			if err := tx.Model(&models.Post{}).Where("id = ?", *post.ParentID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return models.NewNotFoundError("Post", *post.ParentID)
			}
		}

		if err := tx.Omit("Author").Create(post).Error; err != nil {
			return err
		}

		if post.ParentID != nil {
			return bumpCounter(tx, "posts", *post.ParentID, colRepliesCount, 1)
		}
		return nil
	})
	return translateErr(err, "Post", post.ID)
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := withDetails(readDB(r.db).WithContext(ctx)).First(&post, id).Error; err != nil {
		return nil, translateErr(err, "Post", id)
	}
	if err := r.markMissingParents(ctx, []*models.Post{&post}); err != nil {
		return nil, err
	}
	return &post, nil
}

// GetByIDs loads posts keyed by ID; IDs that no longer exist are absent.
func (r *postRepository) GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.Post, error) {
	out := make(map[uint]*models.Post, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var posts []*models.Post
	if err := withDetails(readDB(r.db).WithContext(ctx)).Where("id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := r.markMissingParents(ctx, posts); err != nil {
		return nil, err
	}
	for _, p := range posts {
		out[p.ID] = p
	}
	return out, nil
}

// Delete removes the post with its likes, reposts, notifications and
// attachments. Replies keep their dangling parent reference and the parent's
// replies_count is left alone. It returns the accounts whose notifications
// were removed.
func (r *postRepository) Delete(ctx context.Context, id uint) ([]uint, error) {
	var recipients []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Notification{}).
			Where("post_id = ?", id).
			Distinct("recipient_id").
			Pluck("recipient_id", &recipients).Error; err != nil {
			return err
		}
		for _, dependent := range []any{&models.Like{}, &models.Repost{}, &models.Notification{}, &models.PostAttachment{}} {
			if err := tx.Where("post_id = ?", id).Delete(dependent).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, translateErr(err, "Post", id)
	}
	return recipients, nil
}

// ListReplies returns direct replies oldest first.
func (r *postRepository) ListReplies(ctx context.Context, parentID uint, limit, offset int) ([]*models.Post, error) {
	limit, offset = clampPage(limit, offset)
	posts := []*models.Post{}
	err := withDetails(readDB(r.db).WithContext(ctx)).
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := r.markMissingParents(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ListByAuthor returns every post by the author, replies included, newest first.
func (r *postRepository) ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Post, error) {
	limit, offset = clampPage(limit, offset)
	posts := []*models.Post{}
	err := withDetails(readDB(r.db).WithContext(ctx)).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := r.markMissingParents(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) Search(ctx context.Context, query string, limit int) ([]*models.Post, error) {
	limit, _ = clampPage(limit, 0)
	posts := []*models.Post{}
	err := withDetails(readDB(r.db).WithContext(ctx)).
		Where(`LOWER(content) LIKE ? ESCAPE '\'`, containsPattern(query)).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := r.markMissingParents(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// markMissingParents flags replies whose parent has been deleted.
func (r *postRepository) markMissingParents(ctx context.Context, posts []*models.Post) error {
	parentIDs := make([]uint, 0, len(posts))
	for _, p := range posts {
		if p.ParentID != nil {
			parentIDs = append(parentIDs, *p.ParentID)
		}
	}
	if len(parentIDs) == 0 {
		return nil
	}

	var existing []uint
	if err := readDB(r.db).WithContext(ctx).Model(&models.Post{}).Where("id IN ?", parentIDs).Pluck("id", &existing).Error; err != nil {
		return models.NewInternalError(err)
	}
	present := make(map[uint]struct{}, len(existing))
	for _, id := range existing {
		present[id] = struct{}{}
	}
	for _, p := range posts {
		if p.ParentID == nil {
			continue
		}
		_, ok := present[*p.ParentID]
		p.ParentMissing = !ok
	}
	return nil
}
