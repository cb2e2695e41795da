// Package logging provides structured logging for the plugkit CLI using slog.
//
// Hooks share stdout with the host protocol, so every logger built here
// writes to stderr or a log file, never to stdout.
//
// # Basic Usage
//
//	logger := logging.New(logging.Config{
//		Level:  logging.LevelFromVerbosity(verbosity),
//		Format: logging.FormatText,
//	})
//	ctx = logging.NewContext(ctx, logger)
//
// Commands retrieve the logger with [FromContext]. Attribute values whose key
// looks like a secret are masked by the text handler.
//
// # Testing
//
//	func TestSomething(t *testing.T) {
//		logger := logging.ForTest(t)
//	}
package logging
