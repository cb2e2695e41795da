package db

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/plugkit/cmd/plugkit/commands/flags"
	"github.com/thoreinstein/plugkit/internal/cli"
	"github.com/thoreinstein/plugkit/internal/dbscan"
)

func init() {
	addDSNFlag(analyzeCmd)
	Cmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Run every database check",
	Long: `Run db queries, db n-plus-one and db schema over a project at once.
When a DSN is available the database is inspected too and, for PostgreSQL
and SQLite, compared with the code.

Exit codes:
  0 - No finding reached --fail-on
  1 - A finding reached --fail-on
  2 - The database could not be reached`,
	Example: `  # Static checks only
  plugkit db analyze

  # Everything, failing on medium findings as well
  plugkit db analyze ./service --dsn ./var/app.db --fail-on medium`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	dsn, err := resolveDSN()
	if err != nil {
		return err
	}
	cfg, err := flags.Config()
	if err != nil {
		return err
	}

	a, err := dbscan.Analyze(cli.Context(cmd), pathArg(args), dsn, dbscan.InspectOptions{SampleKeys: cfg.DB.SampleKeys})
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	return report(w, a, a.Findings, func() error {
		s := a.Queries.Summary
		fmt.Fprintf(w, "Queries:  %d (%d raw SQL, %d ORM)\n", s.Total, s.RawSQL, s.ORM)
		fmt.Fprintf(w, "Loops:    %d issue queries\n", len(a.NPlusOne))
		fmt.Fprintf(w, "Tables:   %d declared\n", len(a.Schema.Tables))
		if a.Live != nil {
			fmt.Fprintf(w, "Database: %s %s\n", a.Live.Driver, a.Live.Database)
		}
		fmt.Fprintln(w)
		printFindings(w, a.Findings)
		return nil
	})
}
