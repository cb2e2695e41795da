package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/thoreinstein/plugkit/internal/cli/prompt"
	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/internal/plugin"
)

// EntryInfo is the listing form of a plugin entry.
type EntryInfo struct {
	Kind        plugin.Kind `json:"kind"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Path        string      `json:"path"`
	Error       string      `json:"error,omitempty"`
}

// Info summarises e for listings.
func Info(e plugin.Entry) EntryInfo {
	info := EntryInfo{Kind: e.Kind, Name: e.Name(), Path: e.Path}
	switch {
	case e.Err != nil:
		info.Error = e.Err.Error()
	case e.Skill != nil:
		info.Description = e.Skill.Description
	case e.Agent != nil:
		info.Description = e.Agent.Description
	case e.Manifest != nil:
		info.Description = e.Manifest.Description
	}
	return info
}

// List writes entries as an aligned table or as a JSON array.
func List(w io.Writer, entries []plugin.Entry, asJSON bool) error {
	infos := make([]EntryInfo, len(entries))
	for i, e := range entries {
		infos[i] = Info(e)
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(infos), "encoding output")
	}

	if len(infos) == 0 {
		fmt.Fprintln(w, "(none found)")
		return nil
	}

	bold := color.New(color.Bold)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\n", bold.Sprint("KIND"), bold.Sprint("NAME"), bold.Sprint("DESCRIPTION"))
	for _, info := range infos {
		desc := truncate(firstLine(info.Description), 60)
		if info.Error != "" {
			desc = color.RedString("error: %s", truncate(info.Error, 60))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", info.Kind, info.Name, desc)
	}
	return errors.Wrap(tw.Flush(), "writing table")
}

// Show writes the full detail of one entry, instructions included.
func Show(w io.Writer, e plugin.Entry, asJSON bool) error {
	if asJSON {
		var v any = Info(e)
		switch {
		case e.Skill != nil:
			v = e.Skill
		case e.Agent != nil:
			v = e.Agent
		case e.Manifest != nil:
			v = e.Manifest
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(v), "encoding output")
	}

	fmt.Fprint(w, prompt.Preview(e))

	var instructions string
	switch {
	case e.Skill != nil:
		instructions = e.Skill.Instructions
		if len(e.Skill.AllowedTools) > 0 {
			fmt.Fprintf(w, "\nAllowed tools: %s\n", plugin.ToolList(e.Skill.AllowedTools))
		}
	case e.Agent != nil:
		instructions = e.Agent.Instructions
		if len(e.Agent.Tools) > 0 {
			fmt.Fprintf(w, "\nTools: %s\n", plugin.ToolList(e.Agent.Tools))
		}
	}
	if instructions != "" {
		fmt.Fprintf(w, "\n%s\n\n%s\n", color.New(color.Bold).Sprint("Instructions:"), instructions)
	}
	return nil
}

// Pick resolves name among entries. Several entries with the same name are
// disambiguated with sel. An empty name opens the fuzzy finder when
// interactive is set.
func Pick(entries []plugin.Entry, name string, interactive bool, sel *prompt.Selector) (*plugin.Entry, error) {
	if name == "" {
		if !interactive {
			return nil, errors.NewUserError(errors.ErrMissingName, "Pass a name, or run in a terminal to pick one")
		}
		e, err := prompt.Fuzzy(entries)
		if errors.Is(err, prompt.ErrNoEntries) {
			return nil, errors.NewUserError(errors.ErrNotFound, "Check the plugin roots with: plugkit plugin list")
		}
		return e, err
	}

	var matches []plugin.Entry
	for _, e := range entries {
		if e.Name() == name {
			matches = append(matches, e)
		}
	}
	if len(matches) == 0 {
		return nil, errors.NewUserError(errors.Wrapf(errors.ErrNotFound, "%q", name),
			"List what is available with the list command")
	}
	return sel.Select(name, matches)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
