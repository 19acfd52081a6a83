package cli

import (
	"github.com/spf13/cobra"
)

// NewDashboardCommand creates the interactive dashboard.
func NewDashboardCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Open your book in an interactive session",
		Long: `Open your book in an interactive session. New messages arrive live; they
stay sealed until the reveal deadline, after which each can be opened once
and stays open on this machine.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			a, err := NewApp(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout(), newLogger(cmd, opts))
			if err != nil {
				return err
			}
			defer a.Close()

			return a.Dashboard(cmd.Context())
		},
	}
}
