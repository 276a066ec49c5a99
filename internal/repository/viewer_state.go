package repository

import (
	"context"

	"chirp/internal/models"

	"gorm.io/gorm"
)

// ViewerStateRepository resolves liked/reposted flags for a batch of posts.
type ViewerStateRepository interface {
	Resolve(ctx context.Context, viewerID uint, postIDs []uint) (map[uint]models.ViewerState, error)
}

type viewerStateRepository struct {
	db *gorm.DB
}

func NewViewerStateRepository(db *gorm.DB) ViewerStateRepository {
	return &viewerStateRepository{db: db}
}

// Resolve issues one query per edge table regardless of batch size. The
// anonymous viewer (0) gets all-false flags without touching the database.
func (r *viewerStateRepository) Resolve(ctx context.Context, viewerID uint, postIDs []uint) (map[uint]models.ViewerState, error) {
	states := make(map[uint]models.ViewerState, len(postIDs))
	for _, id := range postIDs {
		states[id] = models.ViewerState{}
	}
	if viewerID == 0 || len(postIDs) == 0 {
		return states, nil
	}

	db := readDB(r.db).WithContext(ctx)

	var liked []uint
	if err := db.Model(&models.Like{}).Where("account_id = ? AND post_id IN ?", viewerID, postIDs).Pluck("post_id", &liked).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	var reposted []uint
	if err := db.Model(&models.Repost{}).Where("account_id = ? AND post_id IN ?", viewerID, postIDs).Pluck("post_id", &reposted).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	for _, id := range liked {
		s := states[id]
		s.Liked = true
		states[id] = s
	}
	for _, id := range reposted {
		s := states[id]
		s.Reposted = true
		states[id] = s
	}
	return states, nil
}

// ApplyViewerState copies resolved flags onto posts.
func ApplyViewerState(posts []*models.Post, states map[uint]models.ViewerState) {
	for _, p := range posts {
		if p == nil {
			continue
		}
		s := states[p.ID]
		p.Liked, p.Reposted = s.Liked, s.Reposted
	}
}
