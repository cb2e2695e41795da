package skill

import (
	"github.com/spf13/cobra"

	"github.com/thoreinstein/plugkit/internal/cli"
	"github.com/thoreinstein/plugkit/internal/cli/prompt"
	"github.com/thoreinstein/plugkit/internal/editor"
)

var editRoots []string

// openEditor is swapped out in tests.
var openEditor cli.OpenFunc = editor.Open

func init() {
	editCmd.Flags().StringSliceVar(&editRoots, "root", nil, "plugin root to search (repeatable)")
	Cmd.AddCommand(editCmd)
}

var editCmd = &cobra.Command{
	Use:   "edit [name]",
	Short: "Open a skill in your editor",
	Long: `Open a skill's SKILL.md in $EDITOR (then $VISUAL, nano, vi) and validate
it once the editor exits.`,
	Example: `  # Edit the commit skill
  plugkit skill edit commit

  # Use VS Code and wait for the tab to close
  EDITOR="code --wait" plugkit skill edit commit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEdit,
}

func runEdit(cmd *cobra.Command, args []string) error {
	entries, err := scan(cmd, editRoots)
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
	return cli.Edit(cmd.OutOrStdout(), *e, openEditor)
}
