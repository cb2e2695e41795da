// Package hook provides the commands Claude Code runs as hooks, and the
// command that registers them.
package hook

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/plugkit/cmd/plugkit/commands/flags"
	"github.com/thoreinstein/plugkit/internal/config"
	"github.com/thoreinstein/plugkit/internal/hook"
	"github.com/thoreinstein/plugkit/internal/logging"
)

// Cmd is the parent command for all hook subcommands.
var Cmd = &cobra.Command{
	Use:   "hook",
	Short: "Run and install Claude Code hooks",
	Long: `Commands run by Claude Code as hooks, plus 'install' to register them.

Every hook reads the host's JSON payload on stdin. A hook only ever exits
non-zero to block a tool call (exit 2); anything it cannot make sense of is
allowed. Set ` + hook.DisableEnv + `=1 to switch every hook off.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// invocationLogger returns the context logger tagged with the hook name and
// a fresh invocation id.
func invocationLogger(cmd *cobra.Command, name string) *slog.Logger {
	return logging.FromContext(cmd.Context()).With(
		slog.String("hook", name),
		slog.String("invocation", uuid.NewString()),
	)
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// hookConfig returns the loaded configuration, falling back to defaults when
// the config file is broken.
func hookConfig(logger *slog.Logger) *config.Config {
	cfg, err := flags.ConfigOrDefault()
	if err != nil {
		logger.Warn("config unusable, using defaults", "error", err)
	}
	return cfg
}

// decode reads the payload. A malformed payload is logged and reported as
// nil so the caller allows the tool call.
func decode(cmd *cobra.Command, logger *slog.Logger) *hook.Input {
	in, err := hook.Decode(cmd.InOrStdin())
	if err != nil {
		logger.Debug("ignoring unreadable payload", "error", err)
		return nil
	}
	logger.Log(contextOf(cmd), logging.LevelTrace, "payload",
		"event", in.HookEventName, "tool", in.ToolName, "session", in.SessionID)
	return in
}

// targetPath returns the payload's file path, resolved against its cwd when
// relative.
func targetPath(in *hook.Input) string {
	p := in.FilePath()
	if p == "" || filepath.IsAbs(p) || in.Cwd == "" {
		return p
	}
	return filepath.Join(in.Cwd, p)
}
