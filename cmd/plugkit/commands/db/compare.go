package db

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/plugkit/internal/cli"
	"github.com/thoreinstein/plugkit/internal/dbscan"
)

func init() {
	addDSNFlag(compareCmd)
	Cmd.AddCommand(compareCmd)
}

var compareCmd = &cobra.Command{
	Use:   "compare [path]",
	Short: "Diff the tables in code against a live database",
	Long: `Compare the tables and columns declared by migrations and models, and
the tables named in SQL literals, with those in the database.

Missing tables and columns usually mean unapplied migrations. Tables that
exist only in the database are reported at low severity; migration tool
bookkeeping tables are ignored.

Exit codes:
  0 - No finding reached --fail-on
  1 - A finding reached --fail-on, or the DSN is missing or unsupported
  2 - The database could not be reached`,
	Example: `  plugkit db compare . --dsn postgres://app@localhost/app`,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runCompare,
}

func runCompare(cmd *cobra.Command, args []string) error {
	dsn, err := requireDSN()
	if err != nil {
		return err
	}
	c, err := dbscan.Compare(cli.Context(cmd), pathArg(args), dsn)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	return report(w, c, c.Findings, func() error {
		fmt.Fprintf(w, "%d tables in code, %d in %s\n\n", len(c.CodeTables), len(c.LiveTables), c.Database)
		printFindings(w, c.Findings)
		return nil
	})
}
