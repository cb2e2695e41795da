// Package main is the entry point for the plugkit CLI.
package main

import (
	"fmt"
	"os"

	"github.com/thoreinstein/plugkit/cmd/plugkit/commands"
	"github.com/thoreinstein/plugkit/internal/errors"
)

func main() {
	err := commands.Execute()
	if err == nil {
		return
	}

	var exitErr *errors.ExitError
	if errors.As(err, &exitErr) {
		if !exitErr.Silent {
			if exitErr.Err != nil && !errors.Is(exitErr.Err, errors.ErrValidationFailed) {
				fmt.Fprintf(os.Stderr, "Error: %v\n", exitErr.Err)
			}
			if exitErr.Suggestion != "" {
				fmt.Fprintln(os.Stderr, exitErr.Suggestion)
			}
		}
	} else if !errors.Is(err, errors.ErrValidationFailed) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(errors.ExitCode(err))
}
