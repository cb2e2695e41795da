package cli

import (
	"fmt"
	"io"

	"github.com/thoreinstein/plugkit/internal/plugin"
)

// OpenFunc opens path for editing and returns once the user is done.
type OpenFunc func(path string) error

// Edit opens e in the user's editor and validates the saved file.
// A file that no longer validates is reported, not treated as a failure of the edit.
func Edit(w io.Writer, e plugin.Entry, open OpenFunc) error {
	fmt.Fprintf(w, "Location: %s\n", e.Path)
	if err := open(e.Path); err != nil {
		return err
	}
	r := ValidateEntry(plugin.Reload(e), false)
	if err := Report(w, false, false, r); err != nil {
		fmt.Fprintln(w, "Fix the errors above and run edit again.")
	}
	return nil
}
