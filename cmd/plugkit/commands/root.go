// Package commands implements the CLI commands for plugkit.
package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/plugkit/cmd/plugkit/commands/agent"
	"github.com/thoreinstein/plugkit/cmd/plugkit/commands/db"
	"github.com/thoreinstein/plugkit/cmd/plugkit/commands/docs"
	"github.com/thoreinstein/plugkit/cmd/plugkit/commands/flags"
	"github.com/thoreinstein/plugkit/cmd/plugkit/commands/hook"
	"github.com/thoreinstein/plugkit/cmd/plugkit/commands/mapspec"
	"github.com/thoreinstein/plugkit/cmd/plugkit/commands/plugin"
	"github.com/thoreinstein/plugkit/cmd/plugkit/commands/skill"
	"github.com/thoreinstein/plugkit/internal/config"
	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/internal/logging"
)

// debugEnv raises the log level when no -v flag is given: 1 or true for
// debug, 2 for trace.
const debugEnv = "PLUGKIT_DEBUG"

// verbosity holds the count of -v flags.
var verbosity int

// quiet holds the value of the -q/--quiet flag.
var quiet bool

// logFormat holds the value of the --log-format flag.
var logFormat string

// logFile holds the path to the log file.
var logFile string

// configFile holds the value of the --config flag.
var configFile string

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"log format: text, json")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"also write logs to file in JSON format")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default: ./config.yaml or $XDG_CONFIG_HOME/plugkit/config.yaml)")

	rootCmd.AddCommand(hook.Cmd)
	rootCmd.AddCommand(skill.Cmd)
	rootCmd.AddCommand(agent.Cmd)
	rootCmd.AddCommand(plugin.Cmd)
	rootCmd.AddCommand(mapspec.Cmd)
	rootCmd.AddCommand(docs.Cmd)
	rootCmd.AddCommand(db.Cmd)

	// Silence errors and usage so main controls error output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func initConfig() {
	config.Init()
	flags.SetConfig(config.Load(configFile))
}

var rootCmd = &cobra.Command{
	Use:   "plugkit",
	Short: "Hooks and tooling for Claude Code plugin collections",
	Long: `plugkit runs the hooks of a Claude Code plugin collection and helps
maintain the collection itself.

Hooks read the host's JSON payload on stdin. The guard refuses edits to
sensitive files, the linter formats and checks edited files, and the
suggester points the model at relevant skills and agents. Set
CLAUDE_HOOKS_DISABLED=1 to switch every hook off.

Maintenance commands validate skills, agents, plugin manifests, map-builder
specs and project documents. The db commands look for database access
problems in a project and its database.`,
	Example: `  # Register the hooks in this project's .claude/settings.json
  plugkit hook install

  # Validate every skill, agent and manifest under a plugin root
  plugkit plugin validate ./plugins/common-dev-workflow

  # Check a map-builder document
  plugkit mapspec validate office.json

  See Also: plugkit hook, plugkit config`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return setupLogging(cmd)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// setupLogging configures the default logger based on verbosity flags.
// Logs never go to stdout: hooks answer the host there.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return errors.NewUserError(errors.New("--quiet and --verbose are mutually exclusive"),
			"Use one of -q or -v")
	}

	var level slog.Level
	if quiet {
		level = slog.LevelError
	} else {
		v := verbosity

		// CLI flags take precedence, but if not set, check env var
		if v == 0 {
			if val, ok := os.LookupEnv(debugEnv); ok {
				switch val {
				case "1", "true":
					v = 2 // Debug
				case "2":
					v = 3 // Trace
				}
			}
		}
		level = logging.LevelFromVerbosity(v)
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var primaryHandler slog.Handler
	switch logging.Format(logFormat) {
	case logging.FormatJSON:
		primaryHandler = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	case logging.FormatText, "":
		primaryHandler = logging.NewHandler(cmd.ErrOrStderr(), opts)
	default:
		return errors.NewUserError(errors.Newf("unknown log format %q", logFormat),
			"Use --log-format text or --log-format json")
	}

	handlers := []slog.Handler{primaryHandler}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return errors.NewUserError(errors.Wrap(err, "opening log file"), "Check the --log-file path")
		}
		// File output uses JSON format
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{
			Level: level,
		}))
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = logging.NewMultiHandler(handlers...)
	} else {
		handler = handlers[0]
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.NewContext(ctx, logger))

	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
