// Package admincli implements the operator command line: counter repair,
// token minting and feature flag inspection.
package admincli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"chirp/internal/config"
	"chirp/internal/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Runtime supplies configuration and the database connection. Tests
// replace both.
type Runtime struct {
	LoadConfig func() (*config.Config, error)
	OpenDB     func(ctx context.Context, cfg *config.Config) (*gorm.DB, error)
}

// DefaultRuntime reads the environment and connects without applying the schema.
func DefaultRuntime() Runtime {
	return Runtime{
		LoadConfig: config.LoadConfig,
		OpenDB: func(_ context.Context, cfg *config.Config) (*gorm.DB, error) {
			return database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
		},
	}
}

// NewRootCommand creates the root command for the admin CLI.
func NewRootCommand(rt Runtime) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "chirp-admin",
		Short: "Chirp operator tools",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewRecountCommand(opts, rt))
	cmd.AddCommand(NewTokenCommand(opts, rt))
	cmd.AddCommand(NewFlagsCommand(opts, rt))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
