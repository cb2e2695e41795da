package hook

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/plugkit/internal/config"
	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/internal/hook"
	"github.com/thoreinstein/plugkit/internal/hook/guard"
)

func init() {
	Cmd.AddCommand(guardCmd)
}

var guardCmd = &cobra.Command{
	Use:   "guard",
	Short: "Refuse edits to sensitive files (PreToolUse)",
	Long: `Refuse Edit, MultiEdit and Write calls that target sensitive files such as
.env files, private keys, credentials and anything under .git, .ssh or .aws.

The denylist is extended with guard.deny and overridden by guard.allow in the
configuration. Template files like .env.example are always allowed.

Exit codes:
  0 - Edit allowed (no output)
  2 - Edit blocked (decision JSON on stdout, reason on stderr)`,
	Example: `  echo '{"tool_input":{"file_path":".env"}}' | plugkit hook guard`,
	Args:    cobra.NoArgs,
	RunE:    runGuard,
}

func runGuard(cmd *cobra.Command, _ []string) error {
	if hook.Disabled() {
		return nil
	}

	logger := invocationLogger(cmd, "guard")
	in := decode(cmd, logger)
	if in == nil {
		return nil
	}

	cfg := hookConfig(logger)
	g, err := guard.New(cfg.Guard)
	if err != nil {
		logger.Warn("guard patterns invalid, using defaults", "error", err)
		if g, err = guard.New(config.GuardConfig{}); err != nil {
			return nil
		}
	}

	path := targetPath(in)
	v := g.Check(path)
	logger.Debug("guard verdict", "path", path, "decision", v.Decision.String(), "pattern", v.Pattern)
	if v.Decision == hook.Allow {
		return nil
	}

	reason := v.Reason()
	if err := hook.WriteBlock(cmd.OutOrStdout(), reason); err != nil {
		logger.Warn("writing block decision", "error", err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), reason)
	return errors.NewBlockError(reason)
}
