// Package db provides commands that look for database access problems in a
// project and, given a DSN, in the database behind it.
package db

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/plugkit/cmd/plugkit/commands/flags"
	"github.com/thoreinstein/plugkit/internal/dbscan"
	"github.com/thoreinstein/plugkit/internal/errors"
)

// dsnEnv is read when neither --dsn nor db.dsn is set.
const dsnEnv = "DATABASE_URL"

var (
	outputJSON bool
	failOn     string
	dsnFlag    string
)

// Cmd is the parent command for all db subcommands.
var Cmd = &cobra.Command{
	Use:   "db",
	Short: "Find database access problems",
	Long: `Commands that scan a project for SQL literals, ORM calls, queries
issued inside loops and schema mistakes, and that inspect a live PostgreSQL,
SQLite or Redis database without writing to it.

The DSN comes from --dsn, then db.dsn in the config, then $DATABASE_URL.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

func init() {
	Cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output results as JSON")
	Cmd.PersistentFlags().StringVar(&failOn, "fail-on", "high",
		"exit 1 when a finding is at least this severe: critical, high, medium, low")
}

// addDSNFlag registers --dsn on a subcommand that talks to a database.
func addDSNFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&dsnFlag, "dsn", "",
		"database URL: postgres://..., sqlite:path, path.db or redis://...")
}

// resolveDSN returns the DSN from the flag, the config or the environment,
// in that order. The result may be empty.
func resolveDSN() (string, error) {
	if dsnFlag != "" {
		return dsnFlag, nil
	}
	cfg, err := flags.Config()
	if err != nil {
		return "", err
	}
	if cfg.DB.DSN != "" {
		return cfg.DB.DSN, nil
	}
	return os.Getenv(dsnEnv), nil
}

// requireDSN is resolveDSN for commands that cannot run without one.
func requireDSN() (string, error) {
	dsn, err := resolveDSN()
	if err != nil {
		return "", err
	}
	if dsn == "" {
		_, err := dbscan.Detect("")
		return "", err
	}
	return dsn, nil
}

// pathArg returns the project path argument, defaulting to the working
// directory.
func pathArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "encoding output")
}

func severityColor(s dbscan.Severity) *color.Color {
	switch s {
	case dbscan.SeverityCritical:
		return color.New(color.FgRed, color.Bold)
	case dbscan.SeverityHigh:
		return color.New(color.FgRed)
	case dbscan.SeverityMedium:
		return color.New(color.FgYellow)
	}
	return color.New(color.FgCyan)
}

// printFindings writes one block per finding, most severe first.
func printFindings(w io.Writer, findings []dbscan.Finding) {
	if len(findings) == 0 {
		fmt.Fprintln(w, color.GreenString("No problems found."))
		return
	}

	counts := make(map[dbscan.Severity]int)
	for _, f := range findings {
		counts[f.Severity]++
	}

	for _, f := range findings {
		label := severityColor(f.Severity).Sprint(strings.ToUpper(f.Severity.String()))
		fmt.Fprintf(w, "%s %s [%s]\n", label, f.Location(), f.Kind)
		fmt.Fprintf(w, "  %s\n", f.Message)
		for _, line := range f.Context {
			fmt.Fprintf(w, "  | %s\n", line)
		}
		if f.Suggestion != "" {
			fmt.Fprintf(w, "  Fix: %s\n", f.Suggestion)
		}
	}

	var parts []string
	for s := dbscan.SeverityCritical; s <= dbscan.SeverityLow; s++ {
		if counts[s] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[s], s))
		}
	}
	fmt.Fprintf(w, "\n%d problems: %s\n", len(findings), strings.Join(parts, ", "))
}

// verdict returns errors.ErrValidationFailed when a finding reaches the
// --fail-on severity.
func verdict(findings []dbscan.Finding) error {
	var threshold dbscan.Severity
	if err := threshold.UnmarshalText([]byte(failOn)); err != nil {
		return errors.NewUserError(err, "Use --fail-on critical, high, medium or low")
	}
	if worst, ok := dbscan.Worst(findings); ok && worst.AtLeast(threshold) {
		return errors.ErrValidationFailed
	}
	return nil
}

// report writes v as JSON or runs text, then applies the verdict.
func report(w io.Writer, v any, findings []dbscan.Finding, text func() error) error {
	var err error
	if outputJSON {
		err = writeJSON(w, v)
	} else {
		err = text()
	}
	if err != nil {
		return err
	}
	return verdict(findings)
}
