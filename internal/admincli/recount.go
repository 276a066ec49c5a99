package admincli

import (
	"fmt"

	"chirp/internal/repository"

	"github.com/spf13/cobra"
)

// NewRecountCommand creates the recount command.
func NewRecountCommand(rootOpts *RootOptions, rt Runtime) *cobra.Command {
	var opts repository.ReconcileOptions

	cmd := &cobra.Command{
		Use:   "recount",
		Short: "Recompute follower, like and repost counters from edge tables",
		Long: `Compare every denormalized counter with a fresh COUNT over its edge
table and repair the rows that drifted.

replies_count is only recounted with --replies: reply counts are monotonic,
so a recount forgets replies whose posts were deleted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rt.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			db, err := rt.OpenDB(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}

			report, err := repository.NewCounterRepository(db).Reconcile(cmd.Context(), opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				return writeJSON(out, report)
			}
			for _, d := range report.Drifts {
				fmt.Fprintf(out, "%s[%d].%s: stored=%d actual=%d\n", d.Table, d.ID, d.Column, d.Stored, d.Actual)
			}
			switch {
			case len(report.Drifts) == 0:
				fmt.Fprintln(out, "counters are consistent")
			case report.Repaired:
				fmt.Fprintf(out, "repaired %d counter(s)\n", len(report.Drifts))
			default:
				fmt.Fprintf(out, "%d counter(s) drifted (dry run, nothing written)\n", len(report.Drifts))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.IncludeReplies, "replies", false, "also recount replies_count")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report drift without repairing it")
	return cmd
}
