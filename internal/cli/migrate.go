package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stamped/internal/sqlite"
)

func newMigrateCmd(a *app) *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Migrate brings the journal schema up to date and prints the state of
every known migration. With --status nothing is applied.

Example:
  stamped migrate
  stamped migrate --status`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if statusOnly {
				dataDir, err := a.resolveDataDir()
				if err != nil {
					return sysErr(err)
				}
				status, err := sqlite.StatusAt(commandContext(cmd), dataDir)
				if err != nil {
					return sysErr(err)
				}
				return writeJSON(cmd, status)
			}

			var status []sqlite.MigrationStatus
			err := a.withJournal(cmd, func(ctx context.Context, s session) error {
				var err error
				status, err = s.journal.MigrationStatus(ctx)
				return err
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd, status)
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "report migration status without applying")
	return cmd
}
