// Package agent provides commands for checking and browsing agents.
package agent

import "github.com/spf13/cobra"

// Cmd is the parent command for all agent subcommands.
var Cmd = &cobra.Command{
	Use:   "agent",
	Short: "Validate and browse agents",
	Long: `Commands for the agents of a plugin collection.

An agent is a markdown file under agents/. Optional YAML frontmatter sets
name, description, model and tools; the body is the agent's prompt.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}
