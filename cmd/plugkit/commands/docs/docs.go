// Package docs provides commands for project documentation.
package docs

import "github.com/spf13/cobra"

// Cmd is the parent command for all docs subcommands.
var Cmd = &cobra.Command{
	Use:   "docs",
	Short: "Validate, generate and sync project documents",
	Long: `Commands that keep a project's markdown documents in shape: check
required sections, links and leaked secrets, fill templates, and list the
documents a change should update.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}
