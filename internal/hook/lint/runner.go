package lint

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/thoreinstein/plugkit/internal/errors"
)

// Command is a single external tool invocation.
type Command struct {
	// Tool is the label used in reports, e.g. "ruff check".
	Tool string
	Name string
	Args []string
	Dir  string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Result is the captured outcome of a Command that started.
type Result struct {
	Output   string
	ExitCode int
}

// Runner locates and runs external tools.
type Runner interface {
	LookPath(name string) (string, error)
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner runs commands with os/exec, bounding each one by Timeout.
type ExecRunner struct {
	Timeout time.Duration
}

// LookPath searches PATH for name.
func (ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Run executes cmd and returns its combined output. A non-zero exit is
// reported in Result, not as an error.
func (r ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	var out bytes.Buffer
	c.Stdout = &out
	c.Stderr = &out

	err := c.Run()
	res := Result{Output: out.String()}
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		return res, errors.Wrapf(ctx.Err(), "%s timed out", cmd.Tool)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, errors.Wrapf(err, "running %s", cmd.Tool)
}
