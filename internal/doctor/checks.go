package doctor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"

	"github.com/thoreinstein/plugkit/internal/config"
	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/internal/hook/lint"
	"github.com/thoreinstein/plugkit/internal/paths"
	"github.com/thoreinstein/plugkit/internal/plugin"
	"github.com/thoreinstein/plugkit/internal/settings"
)

// ToolCheck looks up git and the linters the post-edit hook dispatches to.
type ToolCheck struct {
	Lint config.LintConfig

	// LookPath defaults to exec.LookPath.
	LookPath func(string) (string, error)
}

var _ Check = (*ToolCheck)(nil)

// Name returns the unique identifier for this check.
func (c *ToolCheck) Name() string { return "tools" }

// Category returns the grouping for this check.
func (c *ToolCheck) Category() string { return "tools" }

// Run reports missing executables. Missing linters are skipped by the hook,
// so they are warnings rather than errors.
func (c *ToolCheck) Run(_ context.Context) *CheckResult {
	lookPath := c.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	var checked int
	var missing []string
	look := func(tool, usedBy string) {
		checked++
		if _, err := lookPath(tool); err != nil {
			missing = append(missing, fmt.Sprintf("%s (%s)", tool, usedBy))
		}
	}

	look("git", "docs sync")
	tools := lint.Tools(c.Lint)
	langs := make([]lint.Language, 0, len(tools))
	for lang := range tools {
		langs = append(langs, lang)
	}
	slices.Sort(langs)
	for _, lang := range langs {
		for _, tool := range tools[lang] {
			look(tool, string(lang))
		}
	}

	if len(missing) == 0 {
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityPass,
			Message:  fmt.Sprintf("all %d tools found on PATH", checked),
		}
	}
	return &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   SeverityWarning,
		Message:  "not on PATH: " + strings.Join(missing, ", "),
		Details:  map[string]any{"missing": missing, "checked": checked},
		FixHint:  "Install the missing tools or list their languages in lint.disabled",
	}
}

// SettingsCheck verifies a Claude Code settings file parses and registers
// the expected hook commands.
type SettingsCheck struct {
	Scope string
	Path  string

	// Hooks maps each hook event to the command expected under it.
	Hooks map[string]string
}

var _ Check = (*SettingsCheck)(nil)

// Name returns the unique identifier for this check.
func (c *SettingsCheck) Name() string { return c.Scope + "-settings" }

// Category returns the grouping for this check.
func (c *SettingsCheck) Category() string { return "settings" }

func (c *SettingsCheck) installHint() string {
	if c.Scope == paths.ScopeUser {
		return "Run: plugkit hook install --user"
	}
	return "Run: plugkit hook install"
}

func (c *SettingsCheck) result(status Severity, msg string) *CheckResult {
	return &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   status,
		Message:  msg,
		Details:  map[string]any{"path": c.Path},
	}
}

// Run reads the settings file. A missing file or one without plugkit hooks
// is informational; a partial install is a warning.
func (c *SettingsCheck) Run(_ context.Context) *CheckResult {
	data, err := os.ReadFile(c.Path)
	if os.IsNotExist(err) {
		r := c.result(SeverityInfo, c.Path+" does not exist")
		r.FixHint = c.installHint()
		return r
	}
	if err != nil {
		return c.result(SeverityError, fmt.Sprintf("cannot read %s: %v", c.Path, err))
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		r := c.result(SeverityError, formatJSONError(err, data))
		r.FixHint = "Fix the syntax, or put back a snapshot with: plugkit hook restore"
		return r
	}

	s, err := settings.Load(c.Path)
	if err != nil {
		return c.result(SeverityError, err.Error())
	}

	events := make([]string, 0, len(c.Hooks))
	for event := range c.Hooks {
		events = append(events, event)
	}
	slices.Sort(events)

	var missing []string
	for _, event := range events {
		if !s.Has(event, c.Hooks[event]) {
			missing = append(missing, event)
		}
	}

	switch {
	case len(missing) == 0:
		return c.result(SeverityPass, fmt.Sprintf("all %d hooks installed", len(events)))
	case len(missing) == len(events):
		r := c.result(SeverityInfo, "plugkit hooks are not installed")
		r.FixHint = c.installHint()
		return r
	default:
		r := c.result(SeverityWarning, "hooks missing for "+strings.Join(missing, ", "))
		r.Details["missing"] = missing
		r.FixHint = c.installHint()
		return r
	}
}

// ConfigCheck reports the outcome of loading plugkit's own configuration.
type ConfigCheck struct {
	// File is the config file in use, empty when defaults apply.
	File string
	Err  error
}

var _ Check = (*ConfigCheck)(nil)

// Name returns the unique identifier for this check.
func (c *ConfigCheck) Name() string { return "config" }

// Category returns the grouping for this check.
func (c *ConfigCheck) Category() string { return "config" }

// Run reports the load error, if any.
func (c *ConfigCheck) Run(_ context.Context) *CheckResult {
	r := &CheckResult{Name: c.Name(), Category: c.Category()}
	switch {
	case c.Err != nil:
		r.Status = SeverityError
		r.Message = c.Err.Error()
		r.FixHint = "Fix the file, then run: plugkit config show"
	case c.File == "":
		r.Status = SeverityPass
		r.Message = "no config file, using defaults"
	default:
		r.Status = SeverityPass
		r.Message = "loaded " + c.File
	}
	return r
}

// PluginCheck scans the plugin roots and reports files that fail to parse.
type PluginCheck struct {
	Roots   []string
	Scanner *plugin.Scanner
}

var _ Check = (*PluginCheck)(nil)

// Name returns the unique identifier for this check.
func (c *PluginCheck) Name() string { return "plugins" }

// Category returns the grouping for this check.
func (c *PluginCheck) Category() string { return "plugins" }

// Run scans every root. Parse failures are warnings since the remaining
// entries still load.
func (c *PluginCheck) Run(ctx context.Context) *CheckResult {
	r := &CheckResult{Name: c.Name(), Category: c.Category()}
	if len(c.Roots) == 0 {
		r.Status = SeverityInfo
		r.Message = "no plugin roots found"
		r.FixHint = "Add directories to plugin_dirs in the config"
		return r
	}

	catalog, err := c.Scanner.Scan(ctx, c.Roots...)
	if err != nil {
		r.Status = SeverityError
		r.Message = errors.Wrap(err, "scanning plugin roots").Error()
		return r
	}

	r.Details = map[string]any{"roots": c.Roots}
	failed := catalog.Failed()
	if len(failed) > 0 {
		failedPaths := make([]string, 0, len(failed))
		for _, e := range failed {
			failedPaths = append(failedPaths, e.Path)
		}
		r.Status = SeverityWarning
		r.Message = fmt.Sprintf("%d of %d plugin files failed to parse", len(failed), len(catalog.Entries))
		r.Details["failed"] = failedPaths
		r.FixHint = "Run: plugkit plugin validate"
		return r
	}

	r.Status = SeverityPass
	r.Message = fmt.Sprintf("%d skills, %d agents, %d manifests",
		len(catalog.Skills()), len(catalog.Agents()), len(catalog.Manifests()))
	return r
}

// formatJSONError extracts position information from JSON syntax errors.
func formatJSONError(err error, data []byte) string {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(data, int(syntaxErr.Offset))
		return fmt.Sprintf("JSON syntax error at line %d, column %d: %s", line, col, syntaxErr.Error())
	}

	return fmt.Sprintf("JSON error: %v", err)
}

// offsetToLineCol converts a byte offset to line and column numbers.
// Lines and columns are 1-indexed.
func offsetToLineCol(data []byte, offset int) (line, col int) {
	if offset > len(data) {
		offset = len(data)
	}
	if offset < 0 {
		offset = 0
	}

	line = 1
	lineStart := 0

	for i := range offset {
		if data[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}

	col = offset - lineStart + 1
	return line, col
}
