package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/plugkit/cmd/plugkit/commands/flags"
	"github.com/thoreinstein/plugkit/cmd/plugkit/commands/hook"
	"github.com/thoreinstein/plugkit/internal/cli"
	"github.com/thoreinstein/plugkit/internal/config"
	"github.com/thoreinstein/plugkit/internal/doctor"
	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/internal/paths"
	"github.com/thoreinstein/plugkit/internal/plugin"
)

var (
	doctorJSON    bool
	doctorQuiet   bool
	doctorVerbose bool
	doctorBinary  string
)

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false,
		"output results as JSON")
	doctorCmd.Flags().BoolVar(&doctorQuiet, "quiet", false,
		"suppress output, exit code only")
	doctorCmd.Flags().BoolVar(&doctorVerbose, "verbose", false,
		"show detailed check-by-check output")
	doctorCmd.Flags().StringVar(&doctorBinary, "binary", "plugkit",
		"command name the hooks were installed with")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the plugkit installation",
	Long: `Run diagnostic checks on plugkit and the Claude Code settings it uses.

Checks that the linters and git are on PATH, that the project and user
settings.json parse and register the plugkit hooks, that the plugkit config
loads, and that every plugin file under the plugin roots parses.

Output modes (mutually exclusive):
  (default)   Show errors and warnings
  --verbose   Show all checks including passed ones
  --quiet     No output, exit code only
  --json      Machine-readable JSON output

Exit codes:
  0 - No errors or warnings
  1 - Warnings present, no errors
  2 - Errors present`,
	Args:    cobra.NoArgs,
	PreRunE: validateDoctorFlags,
	RunE:    runDoctor,
}

// validateDoctorFlags ensures output flags are mutually exclusive.
func validateDoctorFlags(_ *cobra.Command, _ []string) error {
	count := 0
	for _, set := range []bool{doctorJSON, doctorQuiet, doctorVerbose} {
		if set {
			count++
		}
	}
	if count > 1 {
		return errors.NewUserError(errors.New("flags --json, --quiet, and --verbose are mutually exclusive"), "")
	}
	return nil
}

// doctorChecks assembles the checks for the current directory and config.
func doctorChecks(cmd *cobra.Command) ([]doctor.Check, error) {
	cfg, loadErr := flags.ConfigOrDefault()

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "resolving working directory")
	}

	expected := hook.Commands(doctorBinary)
	checks := []doctor.Check{
		&doctor.ConfigCheck{File: config.FileUsed(), Err: loadErr},
		&doctor.ToolCheck{Lint: cfg.Lint},
		&doctor.SettingsCheck{Scope: paths.ScopeProject, Path: paths.SettingsPath(paths.ScopeProject, wd), Hooks: expected},
	}
	if user := paths.SettingsPath(paths.ScopeUser, ""); user != "" {
		checks = append(checks, &doctor.SettingsCheck{Scope: paths.ScopeUser, Path: user, Hooks: expected})
	}

	roots, err := cli.Roots(cfg, nil)
	if err != nil && !errors.Is(err, cli.ErrNoRoots) {
		return nil, err
	}
	checks = append(checks, &doctor.PluginCheck{Roots: roots, Scanner: plugin.NewScanner(cli.Logger(cmd))})
	return checks, nil
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	checks, err := doctorChecks(cmd)
	if err != nil {
		return err
	}
	report := doctor.NewRunner(checks...).Run(cli.Context(cmd))

	if err := outputDoctorReport(cmd.OutOrStdout(), report); err != nil {
		return err
	}

	if report.HasErrors() {
		return &errors.ExitError{Err: errDoctorErrors, Code: errors.ExitSystem, Silent: true}
	}
	if report.HasWarnings() {
		return &errors.ExitError{Err: errDoctorWarnings, Code: errors.ExitUser, Silent: true}
	}
	return nil
}

func outputDoctorReport(w io.Writer, report *doctor.DoctorReport) error {
	switch {
	case doctorQuiet:
		return nil
	case doctorJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(report), "encoding JSON")
	default:
		outputDoctorText(w, report)
		return nil
	}
}

func outputDoctorText(w io.Writer, report *doctor.DoctorReport) {
	hasOutput := false
	for _, result := range report.Results {
		problem := result.Status == doctor.SeverityError || result.Status == doctor.SeverityWarning
		if !doctorVerbose && !problem {
			continue
		}

		hasOutput = true
		fmt.Fprintf(w, "%s [%s] %s: %s\n", statusIcon(result.Status), result.Category, result.Name, result.Message)
		if result.FixHint != "" && (problem || doctorVerbose) {
			fmt.Fprintf(w, "  hint: %s\n", result.FixHint)
		}
	}

	if hasOutput {
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Summary: %d passed, %d info, %d warnings, %d errors\n",
		report.Summary.Passed, report.Summary.Info, report.Summary.Warnings, report.Summary.Errors)
}

func statusIcon(s doctor.Severity) string {
	switch s {
	case doctor.SeverityPass:
		return "✓"
	case doctor.SeverityInfo:
		return "ℹ"
	case doctor.SeverityWarning:
		return "⚠"
	case doctor.SeverityError:
		return "✗"
	default:
		return "?"
	}
}

var (
	errDoctorWarnings = errors.New("warnings found")
	errDoctorErrors   = errors.New("errors found")
)
