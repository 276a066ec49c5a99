// Package bootstrap wires the database and Redis for the command-line tools.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"chirp/internal/cache"
	"chirp/internal/config"
	"chirp/internal/database"
	"chirp/internal/middleware"
	"chirp/internal/models"
	"chirp/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SkipSchema connects without applying DB_SCHEMA_MODE.
	SkipSchema bool
	// DevPreset seeds the named preset into an empty development database.
	DevPreset string
}

// InitRuntime connects to DB and Redis. The Redis client is nil when Redis
// is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: !opts.SkipSchema})
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.DevPreset != "" {
		if err := seedEmptyDevDatabase(ctx, cfg, db, opts.DevPreset); err != nil {
			return nil, nil, fmt.Errorf("failed to seed development preset: %w", err)
		}
	}
	return db, r, nil
}

func seedEmptyDevDatabase(ctx context.Context, cfg *config.Config, db *gorm.DB, preset string) error {
	if !strings.EqualFold(cfg.Env, "development") {
		return nil
	}

	var n int64
	if err := db.WithContext(ctx).Model(&models.Account{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	sc, err := seed.Preset(preset)
	if err != nil {
		return err
	}
	res, err := seed.NewSeeder(db, seed.Options{}).ApplyScenario(ctx, sc)
	if err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "development preset seeded",
		slog.String("preset", preset),
		slog.Int("accounts", len(res.Accounts)),
		slog.Int("posts", len(res.Posts)),
	)
	return nil
}
