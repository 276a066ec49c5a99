package admincli

import (
	"fmt"
	"strconv"
	"time"

	"chirp/internal/server"

	"github.com/spf13/cobra"
)

// NewTokenCommand creates the token command.
func NewTokenCommand(rootOpts *RootOptions, rt Runtime) *cobra.Command {
	var (
		admin bool
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <account-id>",
		Short: "Mint a bearer token for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid account id %q", args[0])
			}
			if ttl <= 0 {
				return fmt.Errorf("--ttl must be positive")
			}

			cfg, err := rt.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			role := ""
			if admin {
				role = server.RoleAdmin
			}
			token, err := server.IssueToken(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, uint(id), role, ttl)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				return writeJSON(out, map[string]any{
					"token":      token,
					"account_id": id,
					"role":       role,
					"expires_at": time.Now().Add(ttl).UTC(),
				})
			}
			fmt.Fprintln(out, token)
			return nil
		},
	}

	cmd.Flags().BoolVar(&admin, "admin", false, "grant the admin role")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
