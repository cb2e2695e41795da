package agent

import (
	"github.com/spf13/cobra"

	"github.com/thoreinstein/plugkit/internal/cli"
	"github.com/thoreinstein/plugkit/internal/cli/prompt"
)

var (
	showJSON  bool
	showRoots []string
)

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output in JSON format")
	showCmd.Flags().StringSliceVar(&showRoots, "root", nil, "plugin root to search (repeatable)")
	Cmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show an agent",
	Long: `Show an agent's frontmatter and prompt.

Without a name, an interactive finder lists every agent when running in a
terminal. When several roots hold an agent with the same name you are asked
which one to show.`,
	Example: `  # Show the code-reviewer agent
  plugkit agent show code-reviewer

  # Pick an agent interactively
  plugkit agent show`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	entries, err := scan(cmd, showRoots)
	if err != nil {
		return err
	}

	var name string
	if len(args) > 0 {
		name = args[0]
	}
	sel := prompt.NewSelectorWithIO(cmd.InOrStdin(), cmd.ErrOrStderr())
	e, err := cli.Pick(entries, name, cli.Interactive(cmd), sel)
	if err != nil {
		return err
	}
	return cli.Show(cmd.OutOrStdout(), *e, showJSON)
}
