package db

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/plugkit/cmd/plugkit/commands/flags"
	"github.com/thoreinstein/plugkit/internal/cli"
	"github.com/thoreinstein/plugkit/internal/dbscan"
)

var inspectSample int

func init() {
	addDSNFlag(inspectCmd)
	inspectCmd.Flags().IntVar(&inspectSample, "sample", 0, "Redis keys to sample (default db.sample_keys)")
	Cmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Snapshot a live database",
	Long: `Connect to a database and report what its catalog shows.

PostgreSQL and SQLite: tables, columns, keys, indexes and row counts, with
the same checks as db schema. PostgreSQL also reports large tables read
mostly by sequential scans. Redis: a SCAN sample of keys by type, prefix
and expiry.

Nothing is written. PostgreSQL reads run in a READ ONLY transaction that is
rolled back and SQLite files are opened read-only.

Exit codes:
  0 - No finding reached --fail-on
  1 - A finding reached --fail-on, or the DSN is missing or unsupported
  2 - The database could not be reached`,
	Example: `  plugkit db inspect --dsn postgres://app@localhost:5432/app
  plugkit db inspect --dsn ./var/app.db
  DATABASE_URL=redis://localhost:6379 plugkit db inspect --sample 500`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, _ []string) error {
	dsn, err := requireDSN()
	if err != nil {
		return err
	}
	cfg, err := flags.Config()
	if err != nil {
		return err
	}
	sample := inspectSample
	if sample <= 0 {
		sample = cfg.DB.SampleKeys
	}

	snap, err := dbscan.Inspect(cli.Context(cmd), dsn, dbscan.InspectOptions{SampleKeys: sample})
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	return report(w, snap, snap.Findings, func() error {
		fmt.Fprintf(w, "%s %s\n\n", snap.Driver, snap.Database)
		if snap.Keyspace != nil {
			printKeyspace(w, snap.Keyspace)
		} else if err := printTables(w, snap.Tables, snap.Stats); err != nil {
			return err
		}
		fmt.Fprintln(w)
		printFindings(w, snap.Findings)
		return nil
	})
}

func printKeyspace(w io.Writer, ks *dbscan.Keyspace) {
	fmt.Fprintf(w, "%d keys", ks.Keys)
	if ks.UsedMemory != "" {
		fmt.Fprintf(w, ", %s used", ks.UsedMemory)
	}
	fmt.Fprintf(w, "; sampled %d, %d without TTL\n", ks.Sampled, ks.WithoutTTL)
	printCounts(w, "Types", ks.Types)
	printCounts(w, "Prefixes", ks.Prefixes)
}

// printCounts writes counts largest first.
func printCounts(w io.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := slices.SortedFunc(maps.Keys(counts), func(a, b string) int {
		if counts[a] != counts[b] {
			return counts[b] - counts[a]
		}
		return strings.Compare(a, b)
	})
	fmt.Fprintf(w, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(w, "  %6d  %s\n", counts[k], k)
	}
}
