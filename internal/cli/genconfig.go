package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/potx/potx/internal/config"
)

func newGenConfigCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "gen-config",
		Short: "Generate default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.DefaultConfig().Save(*configPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated default configuration at: %s\n", *configPath)
			return nil
		},
	}
}
