package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stamped/pkg/stamped"
)

const modulePath = "github.com/mesh-intelligence/stamped"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the stamped version",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "stamped v%s\nmodule: %s\n", stamped.Version, modulePath)
			return nil
		},
	}
}
