// Package lint runs the formatter and linters that match an edited file's
// language and collects their output for the model.
//
// Each language has a fixed plan of external tools. Missing tools are
// skipped and failing tools are reported, so a lint run never blocks an edit.
package lint

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/thoreinstein/plugkit/internal/config"
	"github.com/thoreinstein/plugkit/internal/logging"
)

// TruncatedMarker is appended when a report exceeds the output limit.
const TruncatedMarker = "... (truncated)"

// Status describes what happened to a planned step.
type Status int

const (
	// StatusOK means the tool ran and exited zero.
	StatusOK Status = iota
	// StatusFailed means the tool exited non-zero or could not run.
	StatusFailed
	// StatusSkipped means the tool was not installed.
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Step is the outcome of one planned command.
type Step struct {
	Command Command
	Status  Status
	Result  Result
	Err     error
}

// Report collects the steps run for one file.
type Report struct {
	File     string
	Language Language
	Steps    []Step
}

// Dispatcher picks and runs the tool plan for a file.
type Dispatcher struct {
	runner Runner
	cfg    config.LintConfig
	logger *slog.Logger
}

// New returns a Dispatcher. A nil logger discards log output.
func New(runner Runner, cfg config.LintConfig, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NewDiscard()
	}
	return &Dispatcher{runner: runner, cfg: cfg, logger: logger}
}

// Run lints file. It returns nil when the file has no known language or its
// language is disabled.
func (d *Dispatcher) Run(ctx context.Context, file string) *Report {
	lang, ok := Detect(file)
	if !ok {
		d.logger.Debug("no linter for file", "file", file)
		return nil
	}
	if !d.cfg.LanguageEnabled(string(lang)) {
		d.logger.Info("linting disabled for language", "language", lang)
		return nil
	}

	if abs, err := filepath.Abs(file); err == nil {
		file = abs
	}

	report := &Report{File: file, Language: lang}
	for _, cmd := range d.plan(lang, file) {
		report.Steps = append(report.Steps, d.runStep(ctx, cmd))
	}
	return report
}

func (d *Dispatcher) runStep(ctx context.Context, cmd Command) Step {
	step := Step{Command: cmd}

	if !filepath.IsAbs(cmd.Name) {
		if _, err := d.runner.LookPath(cmd.Name); err != nil {
			d.logger.Info("tool not found, skipping", "tool", cmd.Tool)
			step.Status = StatusSkipped
			return step
		}
	}

	d.logger.Debug("running tool", "tool", cmd.Tool, "command", cmd.String(), "dir", cmd.Dir)
	res, err := d.runner.Run(ctx, cmd)
	step.Result = res
	switch {
	case err != nil:
		d.logger.Warn("tool failed to run", "tool", cmd.Tool, "error", err)
		step.Status = StatusFailed
		step.Err = err
	case res.ExitCode != 0:
		d.logger.Debug("tool reported problems", "tool", cmd.Tool, "exit_code", res.ExitCode)
		step.Status = StatusFailed
	default:
		step.Status = StatusOK
	}
	d.logger.Log(ctx, logging.LevelTrace, "tool output", "tool", cmd.Tool, "output", res.Output)
	return step
}

// Format renders the report as "[tool] output" blocks, truncated to max bytes.
// Steps that succeeded silently are omitted. A max of zero or less means no
// limit. The result is empty when there is nothing to report.
func (r *Report) Format(max int) string {
	if r == nil {
		return ""
	}

	var blocks []string
	for _, s := range r.Steps {
		out := strings.TrimSpace(s.Result.Output)
		switch {
		case s.Status == StatusSkipped:
			continue
		case s.Err != nil:
			if out != "" {
				out += "\n"
			}
			out += "error: " + s.Err.Error()
		case out == "" && s.Status == StatusFailed:
			out = fmt.Sprintf("exited with status %d", s.Result.ExitCode)
		case out == "":
			continue
		}
		blocks = append(blocks, fmt.Sprintf("[%s] %s", s.Command.Tool, out))
	}
	return Truncate(strings.Join(blocks, "\n"), max)
}

// Failed reports whether any step failed.
func (r *Report) Failed() bool {
	if r == nil {
		return false
	}
	for _, s := range r.Steps {
		if s.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Truncate shortens s to at most max bytes without splitting a rune, then
// appends TruncatedMarker on its own line.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimRight(s[:cut], "\n") + "\n" + TruncatedMarker
}
