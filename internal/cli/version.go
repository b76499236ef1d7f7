package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/potx/potx/internal/constants"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s v%s (%s %s/%s)\n",
				constants.AppName, constants.AppVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
