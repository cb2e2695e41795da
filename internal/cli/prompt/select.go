// Package prompt provides interactive CLI prompts for choosing plugin entries.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/internal/plugin"
)

// Sentinel errors for entry selection.
var (
	ErrNoEntries          = errors.New("nothing to select from")
	ErrInvalidSelection   = errors.New("invalid selection")
	ErrSelectionCancelled = errors.New("selection cancelled")
)

// Selector handles numbered selection prompts.
type Selector struct {
	reader io.Reader
	writer io.Writer
}

// NewSelector creates a new Selector using stdin and stderr. The prompt goes
// to stderr so stdout stays clean for the selected entry.
func NewSelector() *Selector {
	return &Selector{
		reader: os.Stdin,
		writer: os.Stderr,
	}
}

// NewSelectorWithIO creates a Selector with custom reader and writer for testing.
func NewSelectorWithIO(r io.Reader, w io.Writer) *Selector {
	return &Selector{
		reader: r,
		writer: w,
	}
}

// Select prompts the user to choose between entries sharing a name.
//
// Returns:
//   - ErrNoEntries if the list is empty
//   - The entry if only one exists (auto-selects without prompting)
//   - The selected entry based on user input
//   - ErrInvalidSelection if the selection is out of range
//   - ErrSelectionCancelled if input is EOF (e.g., Ctrl+D)
func (s *Selector) Select(query string, entries []plugin.Entry) (*plugin.Entry, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}

	// Auto-select if only one entry
	if len(entries) == 1 {
		return &entries[0], nil
	}

	fmt.Fprintf(s.writer, "Multiple matches for %q:\n", query)
	for i, e := range entries {
		fmt.Fprintf(s.writer, "  [%d] %s (%s)\n", i+1, e.Name(), e.Path)
	}
	fmt.Fprintf(s.writer, "Select [1]: ")

	reader := bufio.NewReader(s.reader)
	input, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && strings.TrimSpace(input) == "" {
			return nil, ErrSelectionCancelled
		}
		if !errors.Is(err, io.EOF) {
			return nil, errors.Wrap(err, "reading selection")
		}
	}

	input = strings.TrimSpace(input)

	// Default to first option if empty
	if input == "" {
		return &entries[0], nil
	}

	selection, err := strconv.Atoi(input)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidSelection, "%q is not a number", input)
	}

	// Validate range (1-indexed)
	if selection < 1 || selection > len(entries) {
		return nil, errors.Wrapf(ErrInvalidSelection, "%d is out of range [1-%d]", selection, len(entries))
	}

	return &entries[selection-1], nil
}

// Fuzzy lets the user pick an entry with an interactive fuzzy finder.
// The terminal must be interactive.
func Fuzzy(entries []plugin.Entry) (*plugin.Entry, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}

	idx, err := fuzzyfinder.Find(
		entries,
		func(i int) string {
			return fmt.Sprintf("%s: %s", entries[i].Kind, entries[i].Name())
		},
		fuzzyfinder.WithPreviewWindow(func(i, _, _ int) string {
			if i == -1 {
				return ""
			}
			return Preview(entries[i])
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return nil, ErrSelectionCancelled
		}
		return nil, errors.Wrap(err, "interactive selection failed")
	}
	return &entries[idx], nil
}

// Preview summarises an entry for the fuzzy finder's preview pane.
func Preview(e plugin.Entry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Kind: %s\nName: %s\nPath: %s\n", e.Kind, e.Name(), e.Path)
	switch {
	case e.Err != nil:
		fmt.Fprintf(&sb, "\nError:\n%v\n", e.Err)
	case e.Skill != nil:
		fmt.Fprintf(&sb, "\nDescription:\n%s\n", e.Skill.Description)
	case e.Agent != nil:
		if e.Agent.Model != "" {
			fmt.Fprintf(&sb, "Model: %s\n", e.Agent.Model)
		}
		fmt.Fprintf(&sb, "\nDescription:\n%s\n", e.Agent.Description)
	case e.Manifest != nil:
		fmt.Fprintf(&sb, "Version: %s\n\nDescription:\n%s\n", e.Manifest.Version, e.Manifest.Description)
	}
	return sb.String()
}
