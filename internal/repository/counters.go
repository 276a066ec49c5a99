package repository

import (
	"context"
	"fmt"
	"log/slog"

	"chirp/internal/middleware"
	"chirp/internal/models"

	"gorm.io/gorm"
)

// Counter columns maintained alongside edge and reply mutations.
const (
	colFollowersCount = "followers_count"
	colFollowingCount = "following_count"
	colLikesCount     = "likes_count"
	colRepliesCount   = "replies_count"
	colRepostsCount   = "reposts_count"
)

// bumpCounter adds delta to one counter column, flooring the result at zero.
// It must run on the mutation's transaction.
func bumpCounter(tx *gorm.DB, table string, id uint, column string, delta int) error {
	expr := gorm.Expr(fmt.Sprintf("CASE WHEN %[1]s + ? < 0 THEN 0 ELSE %[1]s + ? END", column), delta, delta)
	return tx.Table(table).Where("id = ?", id).UpdateColumn(column, expr).Error
}

// CounterDrift is one stored counter that disagrees with its edge table.
type CounterDrift struct {
	Table  string `json:"table"`
	ID     uint   `json:"id"`
	Column string `json:"column"`
	Stored int64  `json:"stored"`
	Actual int64  `json:"actual"`
}

// ReconcileOptions controls Reconcile.
type ReconcileOptions struct {
	// IncludeReplies also recounts replies_count. Reply counts are monotonic
	// in normal operation, so recounting them drops replies of deleted posts.
	IncludeReplies bool
	DryRun         bool
}

// ReconcileReport lists every drifted row found and whether it was repaired.
type ReconcileReport struct {
	Drifts   []CounterDrift `json:"drifts"`
	Repaired bool           `json:"repaired"`
}

// CounterRepository recomputes denormalized counters from edge tables.
type CounterRepository interface {
	Reconcile(ctx context.Context, opts ReconcileOptions) (*ReconcileReport, error)
}

type counterRepository struct {
	db *gorm.DB
}

func NewCounterRepository(db *gorm.DB) CounterRepository {
	return &counterRepository{db: db}
}

type counterSource struct {
	table  string
	column string
	count  string
}

func counterSources(includeReplies bool) []counterSource {
	sources := []counterSource{
		{"accounts", colFollowersCount, "SELECT COUNT(*) FROM follows e WHERE e.following_id = t.id"},
		{"accounts", colFollowingCount, "SELECT COUNT(*) FROM follows e WHERE e.follower_id = t.id"},
		{"posts", colLikesCount, "SELECT COUNT(*) FROM likes e WHERE e.post_id = t.id"},
		{"posts", colRepostsCount, "SELECT COUNT(*) FROM reposts e WHERE e.post_id = t.id"},
	}
	if includeReplies {
		sources = append(sources, counterSource{"posts", colRepliesCount, "SELECT COUNT(*) FROM posts e WHERE e.parent_id = t.id"})
	}
	return sources
}

func (r *counterRepository) Reconcile(ctx context.Context, opts ReconcileOptions) (*ReconcileReport, error) {
	report := &ReconcileReport{Drifts: []CounterDrift{}}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, src := range counterSources(opts.IncludeReplies) {
			var rows []struct {
				ID     uint
				Stored int64
				Actual int64
			}
			query := fmt.Sprintf(
				"SELECT t.id AS id, t.%[2]s AS stored, (%[3]s) AS actual FROM %[1]s t WHERE t.%[2]s <> (%[3]s) ORDER BY t.id",
				src.table, src.column, src.count,
			)
			if err := tx.Raw(query).Scan(&rows).Error; err != nil {
				return fmt.Errorf("scan %s.%s: %w", src.table, src.column, err)
			}

			for _, row := range rows {
				report.Drifts = append(report.Drifts, CounterDrift{
					Table: src.table, ID: row.ID, Column: src.column, Stored: row.Stored, Actual: row.Actual,
				})
				if opts.DryRun {
					continue
				}
				if err := tx.Table(src.table).Where("id = ?", row.ID).UpdateColumn(src.column, row.Actual).Error; err != nil {
					return fmt.Errorf("repair %s.%s id=%d: %w", src.table, src.column, row.ID, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	report.Repaired = !opts.DryRun && len(report.Drifts) > 0
	if len(report.Drifts) > 0 {
		middleware.Logger.WarnContext(ctx, "counter drift detected",
			slog.Int("rows", len(report.Drifts)),
			slog.Bool("repaired", report.Repaired),
		)
	}
	return report, nil
}
