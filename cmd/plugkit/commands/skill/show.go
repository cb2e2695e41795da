package skill

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
	Short: "Show a skill",
	Long: `Show a skill's frontmatter and instructions.

Without a name, an interactive finder lists every skill when running in a
terminal. When several roots hold a skill with the same name you are asked
which one to show.`,
	Example: `  # Show the commit skill
  plugkit skill show commit

  # Pick a skill interactively
  plugkit skill show`,
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
