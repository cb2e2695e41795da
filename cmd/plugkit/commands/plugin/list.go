package plugin

import (
	"github.com/spf13/cobra"

	"github.com/thoreinstein/plugkit/cmd/plugkit/commands/flags"
	"github.com/thoreinstein/plugkit/internal/cli"
	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/internal/plugin"
)

var (
	listJSON bool
	listKind string
)

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&listKind, "kind", "", "only list one kind: skill, agent or manifest")
	Cmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list [root]...",
	Short: "List everything found under plugin roots",
	Long: `List skills, agents and manifests found under plugin roots, ordered
by kind and name.`,
	Example: `  # List everything in this project and the user directory
  plugkit plugin list

  # Only manifests, as JSON
  plugkit plugin list ./plugins --kind manifest --json`,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	kind := plugin.Kind(listKind)
	switch kind {
	case "", plugin.KindSkill, plugin.KindAgent, plugin.KindManifest:
	default:
		return errors.NewUserError(errors.Newf("unknown kind %q", listKind),
			"Use --kind skill, --kind agent or --kind manifest")
	}

	cfg, err := flags.Config()
	if err != nil {
		return err
	}
	roots, err := cli.Roots(cfg, args)
	if err != nil {
		return err
	}
	catalog, err := cli.Scan(cli.Context(cmd), cli.Logger(cmd), roots)
	if err != nil {
		return err
	}

	entries := catalog.Entries
	if kind != "" {
		entries = catalog.Filter(kind)
	}
	return cli.List(cmd.OutOrStdout(), entries, listJSON)
}
