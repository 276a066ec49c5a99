package repository

import (
	"context"
	"fmt"
	"time"

	"chirp/internal/models"
	"chirp/internal/observability"

	"gorm.io/gorm"
)

// RelationshipRepository owns the follow, like and repost edge tables and
// keeps the denormalized counters in step with them.
type RelationshipRepository interface {
	CreateEdge(ctx context.Context, kind models.EdgeKind, actorID, targetID uint) (*models.Edge, error)
	DeleteEdge(ctx context.Context, kind models.EdgeKind, actorID, targetID uint) (*models.Edge, error)
	ExistsEdge(ctx context.Context, kind models.EdgeKind, actorID, targetID uint) (bool, error)
	ListTargets(ctx context.Context, actorID uint, kind models.EdgeKind) ([]uint, error)
	ListFollowers(ctx context.Context, accountID uint, limit, offset int) ([]models.Account, error)
	ListFollowing(ctx context.Context, accountID uint, limit, offset int) ([]models.Account, error)
}

type counterRef struct {
	table    string
	column   string
	useActor bool
}

type edgeSpec struct {
	table       string
	actorCol    string
	targetCol   string
	targetTable string
	resource    string
	counters    []counterRef
	newRow      func(actorID, targetID uint, at time.Time) any
}

var edgeSpecs = map[models.EdgeKind]edgeSpec{
	models.EdgeFollow: {
		table: "follows", actorCol: "follower_id", targetCol: "following_id",
		targetTable: "accounts", resource: "Account",
		counters: []counterRef{
			{table: "accounts", column: colFollowingCount, useActor: true},
			{table: "accounts", column: colFollowersCount},
		},
		newRow: func(a, t uint, at time.Time) any {
			return &models.Follow{FollowerID: a, FollowingID: t, CreatedAt: at}
		},
	},
	models.EdgeLike: {
		table: "likes", actorCol: "account_id", targetCol: "post_id",
		targetTable: "posts", resource: "Post",
		counters: []counterRef{{table: "posts", column: colLikesCount}},
		newRow: func(a, t uint, at time.Time) any {
			return &models.Like{AccountID: a, PostID: t, CreatedAt: at}
		},
	},
	models.EdgeRepost: {
		table: "reposts", actorCol: "account_id", targetCol: "post_id",
		targetTable: "posts", resource: "Post",
		counters: []counterRef{{table: "posts", column: colRepostsCount}},
		newRow: func(a, t uint, at time.Time) any {
			return &models.Repost{AccountID: a, PostID: t, CreatedAt: at}
		},
	},
}

func specFor(kind models.EdgeKind) (edgeSpec, error) {
	spec, ok := edgeSpecs[kind]
	if !ok {
		return edgeSpec{}, models.NewValidationError(fmt.Sprintf("unknown edge kind %q", kind))
	}
	return spec, nil
}

func (s edgeSpec) bump(tx *gorm.DB, actorID, targetID uint, delta int) error {
	for _, c := range s.counters {
		id := targetID
		if c.useActor {
			id = actorID
		}
		if err := bumpCounter(tx, c.table, id, c.column, delta); err != nil {
			return err
		}
	}
	return nil
}

type relationshipRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRelationshipRepository creates a new relationship repository
func NewRelationshipRepository(db *gorm.DB) RelationshipRepository {
	return &relationshipRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// CreateEdge inserts the edge and applies its counter increments in one
// transaction. The pair's primary key serializes concurrent creators: the
// loser gets ALREADY_EXISTS and no counter moves.
func (r *relationshipRepository) CreateEdge(ctx context.Context, kind models.EdgeKind, actorID, targetID uint) (*models.Edge, error) {
	spec, err := specFor(kind)
	if err != nil {
		return nil, err
	}
	if kind == models.EdgeFollow && actorID == targetID {
		return nil, models.NewInvalidOperationError("cannot follow yourself")
	}

	edge := &models.Edge{Kind: kind, ActorID: actorID, TargetID: targetID, CreatedAt: r.now()}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Table(spec.targetTable).Where("id = ?", targetID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return models.NewNotFoundError(spec.resource, targetID)
		}

		if err := tx.Create(spec.newRow(actorID, targetID, edge.CreatedAt)).Error; err != nil {
			if isUniqueViolation(err) {
				observability.EdgeConflicts.WithLabelValues(string(kind)).Inc()
				return models.NewAlreadyExistsError(fmt.Sprintf("%s edge already exists", kind))
			}
			return err
		}
		return spec.bump(tx, actorID, targetID, 1)
	})
	if err != nil {
		return nil, translateErr(err, spec.resource, targetID)
	}

	observability.EdgeMutations.WithLabelValues(string(kind), "create").Inc()
	return edge, nil
}

// DeleteEdge removes the edge and decrements its counters in one transaction.
// Only the deleter whose statement removed the row decrements.
func (r *relationshipRepository) DeleteEdge(ctx context.Context, kind models.EdgeKind, actorID, targetID uint) (*models.Edge, error) {
	spec, err := specFor(kind)
	if err != nil {
		return nil, err
	}

	edge := &models.Edge{Kind: kind, ActorID: actorID, TargetID: targetID}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := spec.newRow(0, 0, time.Time{})
		where := fmt.Sprintf("%s = ? AND %s = ?", spec.actorCol, spec.targetCol)
		if err := tx.Where(where, actorID, targetID).First(row).Error; err != nil {
			return err
		}
		edge.CreatedAt = edgeCreatedAt(row)

		res := tx.Where(where, actorID, targetID).Delete(spec.newRow(0, 0, time.Time{}))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return spec.bump(tx, actorID, targetID, -1)
	})
	if err != nil {
		return nil, translateErr(err, string(kind)+" edge", fmt.Sprintf("%d->%d", actorID, targetID))
	}

	observability.EdgeMutations.WithLabelValues(string(kind), "delete").Inc()
	return edge, nil
}

func edgeCreatedAt(row any) time.Time {
	switch e := row.(type) {
	case *models.Follow:
		return e.CreatedAt
	case *models.Like:
		return e.CreatedAt
	case *models.Repost:
		return e.CreatedAt
	}
	return time.Time{}
}

func (r *relationshipRepository) ExistsEdge(ctx context.Context, kind models.EdgeKind, actorID, targetID uint) (bool, error) {
	spec, err := specFor(kind)
	if err != nil {
		return false, err
	}
	var n int64
	err = readDB(r.db).WithContext(ctx).
		Table(spec.table).
		Where(fmt.Sprintf("%s = ? AND %s = ?", spec.actorCol, spec.targetCol), actorID, targetID).
		Count(&n).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

// ListTargets returns the unordered set of targets the actor has an edge to.
func (r *relationshipRepository) ListTargets(ctx context.Context, actorID uint, kind models.EdgeKind) ([]uint, error) {
	spec, err := specFor(kind)
	if err != nil {
		return nil, err
	}
	ids := []uint{}
	err = readDB(r.db).WithContext(ctx).
		Table(spec.table).
		Where(spec.actorCol+" = ?", actorID).
		Pluck(spec.targetCol, &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *relationshipRepository) ListFollowers(ctx context.Context, accountID uint, limit, offset int) ([]models.Account, error) {
	return r.listFollowAccounts(ctx, "follows.follower_id", "follows.following_id", accountID, limit, offset)
}

func (r *relationshipRepository) ListFollowing(ctx context.Context, accountID uint, limit, offset int) ([]models.Account, error) {
	return r.listFollowAccounts(ctx, "follows.following_id", "follows.follower_id", accountID, limit, offset)
}

// listFollowAccounts joins accounts on joinCol and filters by filterCol,
// newest edge first.
func (r *relationshipRepository) listFollowAccounts(ctx context.Context, joinCol, filterCol string, accountID uint, limit, offset int) ([]models.Account, error) {
	limit, offset = clampPage(limit, offset)
	accounts := []models.Account{}
	err := readDB(r.db).WithContext(ctx).
		Select("accounts.*").
		Joins("JOIN follows ON accounts.id = "+joinCol).
		Where(filterCol+" = ?", accountID).
		Order("follows.created_at DESC").
		Order("accounts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&accounts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return accounts, nil
}
