package admincli

import (
	"fmt"
	"sort"

	"chirp/internal/featureflags"

	"github.com/spf13/cobra"
)

// NewFlagsCommand creates the flags command.
func NewFlagsCommand(rootOpts *RootOptions, rt Runtime) *cobra.Command {
	var accountID uint

	cmd := &cobra.Command{
		Use:   "flags",
		Short: "Show configured feature flags and their value for one account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rt.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			m := featureflags.NewManager(cfg.FeatureFlags)
			raw, evaluated := m.Raw(), m.Snapshot(accountID)

			out := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				return writeJSON(out, map[string]any{"raw": raw, "evaluated": evaluated})
			}

			names := make([]string, 0, len(evaluated))
			for name := range evaluated {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				value := raw[name]
				if value == "" {
					value = "(unset)"
				}
				fmt.Fprintf(out, "%-28s %-8s enabled=%t\n", name, value, evaluated[name])
			}
			return nil
		},
	}

	cmd.Flags().UintVar(&accountID, "account", 0, "account ID used for percentage rollouts")
	return cmd
}
