// Package skill provides commands for checking and browsing skills.
package skill

import "github.com/spf13/cobra"

// Cmd is the parent command for all skill subcommands.
var Cmd = &cobra.Command{
	Use:   "skill",
	Short: "Validate and browse skills",
	Long: `Commands for the skills of a plugin collection.

A skill is a directory under skills/ holding a SKILL.md file: YAML
frontmatter (name, description, allowed-tools, triggers) followed by
markdown instructions.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}
