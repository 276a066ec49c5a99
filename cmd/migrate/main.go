// Command migrate applies and inspects the chirp database schema.
//
//	migrate list                   embedded SQL migrations
//	migrate up                     apply pending SQL migrations
//	migrate auto                   gorm AutoMigrate (never in production)
//	migrate status                 schema policy and pending versions
//	migrate [-force] down <ver>    revert one version
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"chirp/internal/config"
	"chirp/internal/database"
	"chirp/internal/middleware"

	"gorm.io/gorm"
)

const usageText = "usage: migrate [-force] <list|up|auto|status|down <version>>"

var errUsage = errors.New(usageText)

type migrator struct {
	out     io.Writer
	load    func() (*config.Config, error)
	connect func(*config.Config) (*gorm.DB, error)
}

func main() {
	m := migrator{
		out:  os.Stdout,
		load: config.LoadConfig,
		connect: func(cfg *config.Config) (*gorm.DB, error) {
			return database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
		},
	}
	if err := m.run(context.Background(), os.Args[1:]); err != nil {
		middleware.Logger.Error("migrate failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func (m migrator) run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	force := fs.Bool("force", false, "allow down in production")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() < 1 {
		return errUsage
	}

	cmd := strings.ToLower(strings.TrimSpace(fs.Arg(0)))
	if cmd == "list" {
		for _, mig := range database.GetMigrations() {
			fmt.Fprintln(m.out, mig.String())
		}
		return nil
	}

	var version int
	switch cmd {
	case "up", "auto", "status":
	case "down":
		if fs.NArg() < 2 {
			return fmt.Errorf("down needs a version: %s", usageText)
		}
		v, err := strconv.Atoi(fs.Arg(1))
		if err != nil || database.GetMigrationByVersion(v) == nil {
			return fmt.Errorf("unknown migration version %q", fs.Arg(1))
		}
		version = v
	default:
		return errUsage
	}

	cfg, err := m.load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd == "down" && cfg.IsProduction() && !*force {
		return fmt.Errorf("refusing to revert %06d in %s without -force", version, cfg.Env)
	}

	db, err := m.connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	switch cmd {
	case "up":
		if err := database.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations: %w", err)
		}
		fmt.Fprintln(m.out, "sql migrations applied")
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		fmt.Fprintf(m.out, "automigrated %d models\n", len(database.PersistentModels()))
	case "status":
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status: %w", err)
		}
		fmt.Fprintf(m.out, "mode=%s env=%s run_sql=%t run_auto=%t applied=%d pending=%d\n",
			status.Mode, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate,
			len(status.AppliedVersions), len(status.PendingMigrations))
		for _, mig := range status.PendingMigrations {
			fmt.Fprintf(m.out, "pending %s\n", mig.String())
		}
	case "down":
		if err := database.RollbackMigration(ctx, db, version); err != nil {
			return fmt.Errorf("revert %06d: %w", version, err)
		}
		fmt.Fprintf(m.out, "reverted %06d\n", version)
	}
	return nil
}
