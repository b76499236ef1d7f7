// Package cli wires the potx command line: loading configuration, building
// the logger and running the honeypot until the process is signalled.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/potx/potx/internal/constants"
)

const banner = `
             _
 _ __   ___ | |___  __
| '_ \ / _ \| __\ \/ /
| |_) | (_) | |_ >  <
| .__/ \___/ \__/_/\_\
|_|   v%s
`

// NewRootCommand builds the potx command tree.
func NewRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   constants.AppName,
		Short: constants.AppDescription,
		Long: `potx binds a set of TCP ports, accepts every connection, records what the
peer sends, answers "Access denied." and hangs up.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHoneypot(cmd, configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", constants.DefaultConfigPath, "Path to configuration file")

	root.AddCommand(newVersionCommand())
	root.AddCommand(newGenConfigCommand(&configPath))
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}
