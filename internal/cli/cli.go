// Package cli provides helpers shared by the plugkit maintenance commands:
// resolving plugin roots, scanning them and reporting validation results.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/thoreinstein/plugkit/internal/config"
	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/internal/paths"
	"github.com/thoreinstein/plugkit/internal/plugin"
	"github.com/thoreinstein/plugkit/internal/validator"
)

// ErrNoRoots is returned when no plugin root was given and none of the
// default locations exist.
var ErrNoRoots = errors.New("no plugin roots found")

// Roots returns args when non-empty. Otherwise it returns the default plugin
// roots for the working directory followed by cfg.PluginDirs.
func Roots(cfg *config.Config, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "resolving working directory")
	}
	roots := paths.DefaultPluginRoots(wd)
	if cfg != nil {
		roots = append(roots, cfg.PluginDirs...)
	}
	if len(roots) == 0 {
		return nil, errors.NewUserError(ErrNoRoots,
			"Pass a plugin directory or set plugin_dirs in the config")
	}
	return roots, nil
}

// Scan scans roots and wraps failures as system errors.
func Scan(ctx context.Context, logger *slog.Logger, roots []string) (*plugin.Catalog, error) {
	catalog, err := plugin.NewScanner(logger).Scan(ctx, roots...)
	if err != nil {
		return nil, errors.NewSystemError(errors.Wrap(err, "scanning plugin roots"), "Check that every root is a readable directory")
	}
	return catalog, nil
}

// Report writes results as text or JSON and returns
// errors.ErrValidationFailed when any result has errors.
func Report(w io.Writer, asJSON, showInfo bool, results ...*validator.Result) error {
	format := validator.FormatText
	if asJSON {
		format = validator.FormatJSON
	}
	rep := validator.NewReporter(w, format)
	rep.ShowInfo = showInfo
	if err := rep.Report(results...); err != nil {
		return errors.Wrap(err, "writing report")
	}

	for _, r := range results {
		if r.HasErrors() {
			return errors.ErrValidationFailed
		}
	}
	return nil
}

// ParseFailure turns a parse error into a single-error result so it is
// reported alongside validation results.
func ParseFailure(path string, err error) *validator.Result {
	r := validator.NewResult(path)
	var pe *plugin.ParseError
	if errors.As(err, &pe) {
		err = pe.Err
	}
	if os.IsNotExist(err) {
		r.AddError("", "file not found", nil)
		return r
	}
	r.AddError("", err.Error(), nil)
	return r
}

// ValidateEntry validates a scanned entry, reporting a parse failure as a
// single error.
func ValidateEntry(e plugin.Entry, strict bool) *validator.Result {
	opt := plugin.WithStrict(strict)
	switch {
	case e.Err != nil:
		return ParseFailure(e.Path, e.Err)
	case e.Skill != nil:
		return plugin.ValidateSkill(e.Skill, opt)
	case e.Agent != nil:
		return plugin.ValidateAgent(e.Agent, opt)
	case e.Manifest != nil:
		return plugin.ValidateManifest(e.Manifest, opt)
	default:
		r := validator.NewResult(e.Path)
		r.AddError("", "nothing was loaded", nil)
		return r
	}
}
