// Package config provides configuration management for plugkit using Viper.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/internal/paths"
)

// EnvPrefix is the prefix for environment variable overrides (PLUGKIT_LINT_TIMEOUT, ...).
const EnvPrefix = "PLUGKIT"

// Languages the lint dispatcher knows about.
const (
	LangPython     = "python"
	LangRust       = "rust"
	LangJavaScript = "javascript"
)

// Languages returns the language names accepted in lint.disabled.
func Languages() []string {
	return []string{LangPython, LangRust, LangJavaScript}
}

// Config represents the top-level configuration structure.
type Config struct {
	Version    int           `mapstructure:"version" yaml:"version"`
	PluginDirs []string      `mapstructure:"plugin_dirs" yaml:"plugin_dirs"`
	Guard      GuardConfig   `mapstructure:"guard" yaml:"guard"`
	Lint       LintConfig    `mapstructure:"lint" yaml:"lint"`
	Suggest    SuggestConfig `mapstructure:"suggest" yaml:"suggest"`
	Docs       DocsConfig    `mapstructure:"docs" yaml:"docs"`
	DB         DBConfig      `mapstructure:"db" yaml:"db"`
}

// GuardConfig tunes the sensitive-file guard.
type GuardConfig struct {
	// Deny holds extra path regexes that block edits.
	Deny []string `mapstructure:"deny" yaml:"deny"`
	// Allow holds regexes that override a deny match.
	Allow []string `mapstructure:"allow" yaml:"allow"`
	// NoDefaults drops the built-in deny and allow lists.
	NoDefaults bool `mapstructure:"no_defaults" yaml:"no_defaults"`
}

// LintConfig tunes the post-edit linter dispatcher.
type LintConfig struct {
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxOutput int           `mapstructure:"max_output" yaml:"max_output"`
	Disabled  []string      `mapstructure:"disabled" yaml:"disabled"`
	Security  bool          `mapstructure:"security" yaml:"security"`
}

// SuggestConfig tunes agent and skill suggestions.
type SuggestConfig struct {
	Limit    int `mapstructure:"limit" yaml:"limit"`
	MinScore int `mapstructure:"min_score" yaml:"min_score"`
}

// DocsConfig configures the documentation helpers.
type DocsConfig struct {
	TemplateDir string `mapstructure:"template_dir" yaml:"template_dir"`
	Author      string `mapstructure:"author" yaml:"author"`
}

// DBConfig configures the database analyzers.
type DBConfig struct {
	// DSN is the database used when --dsn is not given.
	DSN string `mapstructure:"dsn" yaml:"dsn"`
	// SlowQuery is the execution time above which explain flags a query.
	SlowQuery time.Duration `mapstructure:"slow_query" yaml:"slow_query"`
	// MaxExplain caps the statements explain runs.
	MaxExplain int `mapstructure:"max_explain" yaml:"max_explain"`
	// SampleKeys caps the Redis keys inspect examines.
	SampleKeys int `mapstructure:"sample_keys" yaml:"sample_keys"`
}

// LanguageEnabled reports whether lang is not listed in lint.disabled.
func (c LintConfig) LanguageEnabled(lang string) bool {
	for _, d := range c.Disabled {
		if d == lang {
			return false
		}
	}
	return true
}

// Init resets Viper and installs plugkit's search paths, env binding and defaults.
// Call it once at startup, before Load.
func Init() {
	viper.Reset()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Search paths (in order of precedence)
	viper.AddConfigPath(".")
	viper.AddConfigPath(paths.AppConfigDir())

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("version", d.Version)
	v.SetDefault("plugin_dirs", d.PluginDirs)
	v.SetDefault("guard.deny", d.Guard.Deny)
	v.SetDefault("guard.allow", d.Guard.Allow)
	v.SetDefault("guard.no_defaults", d.Guard.NoDefaults)
	v.SetDefault("lint.timeout", d.Lint.Timeout)
	v.SetDefault("lint.max_output", d.Lint.MaxOutput)
	v.SetDefault("lint.disabled", d.Lint.Disabled)
	v.SetDefault("lint.security", d.Lint.Security)
	v.SetDefault("suggest.limit", d.Suggest.Limit)
	v.SetDefault("suggest.min_score", d.Suggest.MinScore)
	v.SetDefault("docs.template_dir", d.Docs.TemplateDir)
	v.SetDefault("docs.author", d.Docs.Author)
	v.SetDefault("db.dsn", d.DB.DSN)
	v.SetDefault("db.slow_query", d.DB.SlowQuery)
	v.SetDefault("db.max_explain", d.DB.MaxExplain)
	v.SetDefault("db.sample_keys", d.DB.SampleKeys)
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Version:    1,
		PluginDirs: []string{},
		Guard: GuardConfig{
			Deny:  []string{},
			Allow: []string{},
		},
		Lint: LintConfig{
			Timeout:   60 * time.Second,
			MaxOutput: 2000,
			Disabled:  []string{},
			Security:  true,
		},
		Suggest: SuggestConfig{
			Limit:    3,
			MinScore: 1,
		},
		Docs: DocsConfig{
			TemplateDir: "templates",
		},
		DB: DBConfig{
			SlowQuery:  100 * time.Millisecond,
			MaxExplain: 20,
			SampleKeys: 100,
		},
	}
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file and a missing file is an error.
// If path is empty, it searches the default locations and falls back to defaults.
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound) && path == "":
			// Implicit load without a file: defaults apply.
		case errors.As(err, &notFound):
			return nil, errors.Wrapf(err, "config file not found at %s", path)
		default:
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, errors.Wrap(errs[0], "validating config")
	}

	return &cfg, nil
}

// FileUsed returns the config file Viper loaded, or "" when defaults are in effect.
func FileUsed() string {
	return viper.ConfigFileUsed()
}
