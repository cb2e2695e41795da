package hook

import (
	"github.com/spf13/cobra"

	"github.com/thoreinstein/plugkit/internal/config"
	"github.com/thoreinstein/plugkit/internal/hook"
	"github.com/thoreinstein/plugkit/internal/hook/lint"
)

func init() {
	Cmd.AddCommand(lintCmd)
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Format and lint an edited file (PostToolUse)",
	Long: `Run the formatter and linters for the edited file's language and relay
their output to the model.

  python      ruff format, ruff check --fix, bandit (lint.security)
  rust        cargo fmt and cargo clippy in the crate, or rustfmt
  javascript  eslint --fix, preferring the project's node_modules/.bin

Tools that are not installed are skipped. This hook never blocks: it always
exits 0.`,
	Example: `  echo '{"hook_event_name":"PostToolUse","tool_input":{"file_path":"app.py"}}' | plugkit hook lint`,
	Args:    cobra.NoArgs,
	RunE:    runLint,
}

// runnerFor builds the runner for external tools; tests replace it.
var runnerFor = func(cfg config.LintConfig) lint.Runner {
	return &lint.ExecRunner{Timeout: cfg.Timeout}
}

func runLint(cmd *cobra.Command, _ []string) error {
	if hook.Disabled() {
		return nil
	}

	logger := invocationLogger(cmd, "lint")
	in := decode(cmd, logger)
	if in == nil {
		return nil
	}
	path := targetPath(in)
	if path == "" {
		return nil
	}

	cfg := hookConfig(logger)
	report := lint.New(runnerFor(cfg.Lint), cfg.Lint, logger).Run(contextOf(cmd), path)
	if report == nil {
		logger.Debug("no linters for file", "path", path)
		return nil
	}

	text := report.Format(cfg.Lint.MaxOutput)
	if text == "" {
		return nil
	}

	event := in.HookEventName
	if event == "" {
		event = hook.EventPostToolUse
	}
	if err := hook.WriteContext(cmd.OutOrStdout(), event, text); err != nil {
		logger.Warn("writing lint context", "error", err)
	}
	return nil
}
