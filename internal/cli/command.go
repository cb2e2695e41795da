package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/plugkit/internal/logging"
)

// Context returns the command's context, or context.Background when the
// command is run without one.
func Context(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// Logger returns the logger carried by the command's context.
func Logger(cmd *cobra.Command) *slog.Logger {
	return logging.FromContext(Context(cmd))
}

// Interactive reports whether the command talks to a terminal on both
// stdin and stdout.
func Interactive(cmd *cobra.Command) bool {
	in, ok := cmd.InOrStdin().(*os.File)
	if !ok {
		return false
	}
	return logging.IsTTY(in) && logging.IsTTY(cmd.OutOrStdout())
}
