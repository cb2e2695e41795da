// Package plugin provides commands that work on whole plugin directories.
package plugin

import "github.com/spf13/cobra"

// Cmd is the parent command for all plugin subcommands.
var Cmd = &cobra.Command{
	Use:   "plugin",
	Short: "Validate and list whole plugins",
	Long: `Commands that scan plugin roots for skills, agents and
.claude-plugin/plugin.json manifests.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}
