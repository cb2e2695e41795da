package db

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/plugkit/cmd/plugkit/commands/flags"
	"github.com/thoreinstein/plugkit/internal/cli"
	"github.com/thoreinstein/plugkit/internal/dbscan"
)

var (
	explainMax  int
	explainSlow time.Duration
)

func init() {
	addDSNFlag(explainCmd)
	explainCmd.Flags().IntVar(&explainMax, "max", 0, "statements to explain (default db.max_explain)")
	explainCmd.Flags().DurationVar(&explainSlow, "slow", 0, "report statements slower than this (default db.slow_query)")
	Cmd.AddCommand(explainCmd)
}

var explainCmd = &cobra.Command{
	Use:   "explain [path | queries.json]",
	Short: "Run found queries through the planner",
	Long: `Find the SQL in a project, or read it from a saved db queries --json
report, and ask the database how it would run each plain SELECT.

Statements with bind parameters or template holes are skipped, as is
anything that is not a SELECT. PostgreSQL statements run under EXPLAIN
ANALYZE inside a READ ONLY transaction that is rolled back. SQLite
statements are planned with EXPLAIN QUERY PLAN and then timed.

Full table scans and statements slower than --slow are reported.

Exit codes:
  0 - No finding reached --fail-on
  1 - A finding reached --fail-on, or the DSN is missing or unsupported
  2 - The database could not be reached`,
	Example: `  plugkit db explain ./api --dsn postgres://app@localhost/app
  plugkit db queries --json > q.json && plugkit db explain q.json --slow 50ms`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExplain,
}

func runExplain(cmd *cobra.Command, args []string) error {
	dsn, err := requireDSN()
	if err != nil {
		return err
	}
	cfg, err := flags.Config()
	if err != nil {
		return err
	}
	opts := dbscan.ExplainOptions{SlowQuery: cfg.DB.SlowQuery, Max: cfg.DB.MaxExplain}
	if explainSlow > 0 {
		opts.SlowQuery = explainSlow
	}
	if explainMax > 0 {
		opts.Max = explainMax
	}

	ctx := cli.Context(cmd)
	queries, err := dbscan.LoadQueries(ctx, pathArg(args))
	if err != nil {
		return err
	}
	rep, err := dbscan.Explain(ctx, dsn, queries, opts)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	return report(w, rep, rep.Findings, func() error {
		printPlans(w, rep.Plans)
		printFindings(w, rep.Findings)
		return nil
	})
}

func printPlans(w io.Writer, plans []dbscan.Plan) {
	skipped := 0
	for _, p := range plans {
		if p.Skipped != "" {
			skipped++
			continue
		}
		fmt.Fprintf(w, "%s:%d  %s\n", p.File, p.Line, dbscan.Truncate(p.Query, 80))
		if p.Error != "" {
			fmt.Fprintf(w, "  %s\n\n", color.RedString("error: %s", p.Error))
			continue
		}
		for _, step := range p.Steps {
			fmt.Fprintf(w, "  %s\n", step)
		}
		fmt.Fprintf(w, "  %.1fms\n\n", p.Millis)
	}
	if skipped > 0 {
		fmt.Fprintf(w, "%d statements skipped (parameters, not a SELECT, or over --max)\n\n", skipped)
	}
}
