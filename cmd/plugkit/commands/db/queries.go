package db

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/plugkit/internal/cli"
	"github.com/thoreinstein/plugkit/internal/dbscan"
	"github.com/thoreinstein/plugkit/internal/errors"
)

var queriesLimit int

func init() {
	queriesCmd.Flags().IntVar(&queriesLimit, "limit", 50, "rows to print in text mode, 0 for all")
	Cmd.AddCommand(queriesCmd)
}

var queriesCmd = &cobra.Command{
	Use:   "queries [path]",
	Short: "List SQL literals and ORM calls",
	Long: `Find every SQL string literal and ORM call in JavaScript, TypeScript,
Python, Ruby, Go, Java and PHP sources. SQL built by interpolation or
concatenation is reported as an injection risk.

The JSON output can be passed to plugkit db explain.

Exit codes:
  0 - No finding reached --fail-on
  1 - At least one query looks injectable`,
	Example: `  # Summarise the queries in this project
  plugkit db queries

  # Save them for db explain
  plugkit db queries ./api --json > queries.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQueries,
}

func runQueries(cmd *cobra.Command, args []string) error {
	rep, err := dbscan.FindQueries(cli.Context(cmd), pathArg(args))
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	findings := rep.Findings()
	return report(w, rep, findings, func() error {
		if err := printQueries(w, rep, queriesLimit); err != nil {
			return err
		}
		fmt.Fprintln(w)
		printFindings(w, findings)
		return nil
	})
}

func printQueries(w io.Writer, rep *dbscan.QueryReport, limit int) error {
	s := rep.Summary
	fmt.Fprintf(w, "%d queries: %d raw SQL, %d ORM, %d injection risks\n",
		s.Total, s.RawSQL, s.ORM, s.InjectionRisks)
	for _, fc := range s.TopFiles {
		fmt.Fprintf(w, "  %4d  %s\n", fc.Count, fc.File)
	}
	if len(rep.Queries) == 0 {
		return nil
	}
	fmt.Fprintln(w)

	bold := color.New(color.Bold)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\n", bold.Sprint("LOCATION"), bold.Sprint("TYPE"), bold.Sprint("QUERY"))
	for i, q := range rep.Queries {
		if limit > 0 && i == limit {
			fmt.Fprintf(tw, "...\t\t%d more\n", len(rep.Queries)-limit)
			break
		}
		text := dbscan.Truncate(q.Text, 70)
		if q.InjectionRisk {
			text = color.RedString("%s", text)
		}
		fmt.Fprintf(tw, "%s:%d\t%s\t%s\n", q.File, q.Line, q.Type, text)
	}
	return errors.Wrap(tw.Flush(), "writing table")
}
