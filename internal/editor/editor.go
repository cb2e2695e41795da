// Package editor launches the user's preferred text editor on a plugin file.
package editor

import (
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/thoreinstein/plugkit/internal/errors"
)

// ErrNoEditor is returned when no editor command can be resolved.
var ErrNoEditor = errors.New("no editor configured")

// Editor runs an editor process attached to the given streams.
type Editor struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// New returns an Editor attached to the process's terminal.
func New() *Editor {
	return &Editor{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Open launches the user's editor on path and waits for it to exit.
// $EDITOR may carry arguments, as in "code --wait".
func (e *Editor) Open(path string) error {
	argv := strings.Fields(detectEditor())
	if len(argv) == 0 {
		return ErrNoEditor
	}

	cmd := exec.Command(argv[0], append(argv[1:], path)...) //nolint:gosec // the user picks the editor
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "running editor %s", argv[0])
	}
	return nil
}

// Open launches the user's editor on path using the process's terminal.
func Open(path string) error {
	return New().Open(path)
}

// detectEditor resolves the editor command: $EDITOR, $VISUAL, nano, then vi.
func detectEditor() string {
	if editor := strings.TrimSpace(os.Getenv("EDITOR")); editor != "" {
		return editor
	}
	if visual := strings.TrimSpace(os.Getenv("VISUAL")); visual != "" {
		return visual
	}
	if _, err := exec.LookPath("nano"); err == nil {
		return "nano"
	}
	return "vi"
}
