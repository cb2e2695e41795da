package db

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/plugkit/internal/cli"
	"github.com/thoreinstein/plugkit/internal/dbscan"
	"github.com/thoreinstein/plugkit/internal/errors"
)

func init() {
	Cmd.AddCommand(schemaCmd)
}

var schemaCmd = &cobra.Command{
	Use:   "schema [path]",
	Short: "Check migrations and ORM models",
	Long: `Read the tables declared by SQL migrations, Prisma schemas, TypeORM
entities and SQLAlchemy models, then report tables without a primary key,
foreign keys no index leads with, wide tables with no index at all and
duplicate indexes.

Migrations are applied in file name order, so ALTER TABLE and DROP TABLE
in later files are taken into account.

Exit codes:
  0 - No finding reached --fail-on
  1 - At least one table has a problem`,
	Example: `  plugkit db schema
  plugkit db schema ./prisma --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSchema,
}

func runSchema(cmd *cobra.Command, args []string) error {
	rep, err := dbscan.AnalyzeSchema(cli.Context(cmd), pathArg(args))
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	return report(w, rep, rep.Findings, func() error {
		if err := printTables(w, rep.Tables, nil); err != nil {
			return err
		}
		fmt.Fprintln(w)
		printFindings(w, rep.Findings)
		return nil
	})
}

// printTables lists tables with their keys and, when stats is non-nil,
// their row counts.
func printTables(w io.Writer, tables []*dbscan.Table, stats []dbscan.TableStats) error {
	if len(tables) == 0 {
		fmt.Fprintln(w, "(no tables found)")
		return nil
	}
	rows := make(map[string]int64, len(stats))
	for _, s := range stats {
		rows[s.Table] = s.Rows
	}

	bold := color.New(color.Bold)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := []string{"TABLE", "COLUMNS", "PRIMARY KEY", "INDEXES"}
	if stats != nil {
		header = append(header, "ROWS")
	} else {
		header = append(header, "SOURCE")
	}
	for i, h := range header {
		header[i] = bold.Sprint(h)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, t := range tables {
		pk := strings.Join(t.PrimaryKey, ", ")
		if pk == "" {
			pk = color.RedString("none")
		}
		last := t.Source
		if t.Line > 0 {
			last += ":" + strconv.Itoa(t.Line)
		}
		if stats != nil {
			last = strconv.FormatInt(rows[t.Name], 10)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\n", t.Name, len(t.Columns), pk, len(t.Indexes), last)
	}
	return errors.Wrap(tw.Flush(), "writing table")
}
