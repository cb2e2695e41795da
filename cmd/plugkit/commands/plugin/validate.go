package plugin

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/plugkit/cmd/plugkit/commands/flags"
	"github.com/thoreinstein/plugkit/internal/cli"
	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/internal/plugin"
	"github.com/thoreinstein/plugkit/internal/validator"
)

var (
	validateStrict bool
	validateJSON   bool
	validateWatch  bool
)

func init() {
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false,
		"enable strict validation (tool syntax and recommendations)")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false,
		"output results as JSON")
	validateCmd.Flags().BoolVarP(&validateWatch, "watch", "w", false,
		"revalidate whenever a file under the roots changes")
	Cmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate [root]...",
	Short: "Validate every skill, agent and manifest under plugin roots",
	Long: `Scan plugin roots and validate everything found.

Files that fail to parse are reported as errors alongside validation
results. Without arguments the project's .claude directory, ~/.claude and
the configured plugin_dirs are scanned.

With --watch the roots are revalidated after every change until
interrupted.

Exit codes:
  0 - Everything is valid
  1 - At least one file failed validation`,
	Example: `  # Validate one plugin
  plugkit plugin validate ./plugins/common-dev-workflow

  # Keep validating while editing
  plugkit plugin validate ./plugins --watch`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := flags.Config()
	if err != nil {
		return err
	}
	roots, err := cli.Roots(cfg, args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	err = validateRoots(cmd, out, roots)
	if !validateWatch {
		return err
	}
	if err != nil && !errors.Is(err, errors.ErrValidationFailed) {
		return err
	}

	ctx, stop := signal.NotifyContext(cli.Context(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := cli.Logger(cmd)
	logger.Info("watching for changes", "roots", strings.Join(roots, ", "))
	return plugin.NewWatcher(logger).Watch(ctx, roots, func(paths []string) {
		fmt.Fprintf(out, "\nChanged: %s\n", strings.Join(paths, ", "))
		if err := validateRoots(cmd, out, roots); err != nil && !errors.Is(err, errors.ErrValidationFailed) {
			logger.Error("validation run failed", "error", err)
		}
	})
}

// validateRoots scans roots and reports every entry.
func validateRoots(cmd *cobra.Command, w io.Writer, roots []string) error {
	catalog, err := cli.Scan(cli.Context(cmd), cli.Logger(cmd), roots)
	if err != nil {
		return err
	}

	if len(catalog.Entries) == 0 {
		r := validator.NewResult(strings.Join(roots, ", "))
		r.AddWarning("", "no skills, agents or manifests found", nil)
		return cli.Report(w, validateJSON, validateStrict, r)
	}

	results := make([]*validator.Result, 0, len(catalog.Entries))
	for _, e := range catalog.Entries {
		results = append(results, cli.ValidateEntry(e, validateStrict))
	}
	return cli.Report(w, validateJSON, validateStrict, results...)
}
