package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write every table as JSON Lines into dir",
		Long: `Export writes one <table>.jsonl file per table into dir, creating it if
needed. Photo files are not copied.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withJournal(cmd, func(ctx context.Context, s session) error {
				counts, err := s.journal.Export(ctx, args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd, counts)
			})
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Load an export into an empty journal",
		Long: `Import reads the <table>.jsonl files written by export, keeping ids. The
journal must hold nothing but the default categories, which are replaced.
Either every record is imported or none is.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withJournal(cmd, func(ctx context.Context, s session) error {
				counts, err := s.journal.Import(ctx, args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd, counts)
			})
		},
	}
}
