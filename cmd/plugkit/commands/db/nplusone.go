package db

import (
	"github.com/spf13/cobra"

	"github.com/thoreinstein/plugkit/internal/cli"
	"github.com/thoreinstein/plugkit/internal/dbscan"
)

func init() {
	Cmd.AddCommand(nplusoneCmd)
}

var nplusoneCmd = &cobra.Command{
	Use:     "n-plus-one [path]",
	Aliases: []string{"nplusone"},
	Short:   "Find queries issued inside loops",
	Long: `Report loops whose bodies run a query, the N+1 pattern. JavaScript and
TypeScript loops are matched by their brace block, Python loops by
indentation, and Go loops are read from the syntax tree.

Exit codes:
  0 - No finding reached --fail-on
  1 - At least one loop issues queries`,
	Example: `  plugkit db n-plus-one ./src`,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runNPlusOne,
}

func runNPlusOne(cmd *cobra.Command, args []string) error {
	findings, err := dbscan.DetectNPlusOne(cli.Context(cmd), pathArg(args))
	if err != nil {
		return err
	}
	if findings == nil {
		findings = []dbscan.Finding{}
	}
	w := cmd.OutOrStdout()
	return report(w, findings, findings, func() error {
		printFindings(w, findings)
		return nil
	})
}
