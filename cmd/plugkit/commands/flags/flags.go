// Package flags provides shared state for CLI commands.
// This package exists to avoid import cycles between the root command
// and noun subpackages (hook, skill, agent, etc.).
package flags

import (
	"github.com/thoreinstein/plugkit/internal/config"
	"github.com/thoreinstein/plugkit/internal/errors"
)

var (
	loaded  *config.Config
	loadErr error
)

// SetConfig records the result of loading the configuration.
// The root command calls it once flags are parsed.
func SetConfig(cfg *config.Config, err error) {
	loaded, loadErr = cfg, err
}

// Config returns the loaded configuration. A load failure is returned as a
// config error so the command can exit with a suggestion.
func Config() (*config.Config, error) {
	if loadErr != nil {
		return nil, errors.NewConfigError(loadErr)
	}
	if loaded == nil {
		return config.Default(), nil
	}
	return loaded, nil
}

// ConfigOrDefault returns the loaded configuration, or the defaults together
// with the load error. Hooks use it: a broken config file must not stop an
// edit.
func ConfigOrDefault() (*config.Config, error) {
	if loadErr != nil || loaded == nil {
		return config.Default(), loadErr
	}
	return loaded, nil
}
