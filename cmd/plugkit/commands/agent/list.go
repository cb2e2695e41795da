package agent

import (
	"github.com/spf13/cobra"

	"github.com/thoreinstein/plugkit/cmd/plugkit/commands/flags"
	"github.com/thoreinstein/plugkit/internal/cli"
	"github.com/thoreinstein/plugkit/internal/plugin"
)

var listJSON bool

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	Cmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list [root]...",
	Short: "List agents",
	Long: `List the agents found under the given plugin roots.

Without arguments the project's .claude directory, ~/.claude and the
configured plugin_dirs are scanned. Agents that fail to parse are listed
with their error.`,
	Example: `  # List agents in this project and the user directory
  plugkit agent list

  # List agents of one plugin as JSON
  plugkit agent list ./plugins/common-dev-workflow --json`,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	entries, err := scan(cmd, args)
	if err != nil {
		return err
	}
	return cli.List(cmd.OutOrStdout(), entries, listJSON)
}

// scan returns the agent entries under the roots named by args.
func scan(cmd *cobra.Command, args []string) ([]plugin.Entry, error) {
	cfg, err := flags.Config()
	if err != nil {
		return nil, err
	}
	roots, err := cli.Roots(cfg, args)
	if err != nil {
		return nil, err
	}
	catalog, err := cli.Scan(cli.Context(cmd), cli.Logger(cmd), roots)
	if err != nil {
		return nil, err
	}
	return catalog.Filter(plugin.KindAgent), nil
}
