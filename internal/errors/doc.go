// Package errors provides error handling conventions for the plugkit CLI.
//
// Wrapping helpers delegate to github.com/cockroachdb/errors so every error
// created inside plugkit carries a stack trace. The package also defines the
// sentinel errors shared across commands, the [ExitError] type, and the exit
// codes the hook host understands.
//
// # Exit Codes
//
//   - ExitSuccess (0): command completed, or a hook allowed the tool call
//   - ExitUser (1): invalid input, configuration, or failed validation
//   - ExitSystem (2): I/O or environment failure
//   - ExitBlock (2): a hook refused the tool call
//
// # ExitError
//
//	err := plugerrors.NewUserError(plugerrors.ErrInvalidConfig, "Check your config file")
//	os.Exit(plugerrors.ExitCode(err))
package errors
