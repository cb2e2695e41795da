package dbscan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/internal/logging"
	"github.com/thoreinstein/plugkit/pkg/fileutil"
)

// Severity ranks a finding. Lower values are more severe.
type Severity int

// Severity levels, most severe first.
const (
	SeverityCritical Severity = iota
	SeverityHigh
	SeverityMedium
	SeverityLow
)

var severityNames = []string{"critical", "high", "medium", "low"}

// String returns the lowercase name of the severity.
func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "unknown"
	}
	return severityNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	i := slices.Index(severityNames, strings.ToLower(string(text)))
	if i < 0 {
		return errors.Newf("unknown severity %q", text)
	}
	*s = Severity(i)
	return nil
}

// AtLeast reports whether s is as severe as threshold or more.
func (s Severity) AtLeast(threshold Severity) bool {
	return s <= threshold
}

// Finding is one problem reported by an analyzer.
type Finding struct {
	Severity   Severity `json:"severity"`
	Kind       string   `json:"kind"`
	File       string   `json:"file,omitempty"`
	Line       int      `json:"line,omitempty"`
	Table      string   `json:"table,omitempty"`
	Column     string   `json:"column,omitempty"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
	// Context holds the source lines around Line.
	Context []string `json:"context,omitempty"`
}

// Location renders file:line, file, or the table name.
func (f Finding) Location() string {
	switch {
	case f.File != "" && f.Line > 0:
		return f.File + ":" + strconv.Itoa(f.Line)
	case f.File != "":
		return f.File
	default:
		return f.Table
	}
}

// SortFindings orders findings by severity, then location.
func SortFindings(findings []Finding) {
	slices.SortStableFunc(findings, func(a, b Finding) int {
		if a.Severity != b.Severity {
			return int(a.Severity) - int(b.Severity)
		}
		if c := strings.Compare(a.File, b.File); c != 0 {
			return c
		}
		if a.Line != b.Line {
			return a.Line - b.Line
		}
		if c := strings.Compare(a.Table, b.Table); c != 0 {
			return c
		}
		return strings.Compare(a.Column, b.Column)
	})
}

// Worst returns the most severe level among findings and false when there
// are none.
func Worst(findings []Finding) (Severity, bool) {
	if len(findings) == 0 {
		return SeverityLow, false
	}
	worst := SeverityLow
	for _, f := range findings {
		if f.Severity < worst {
			worst = f.Severity
		}
	}
	return worst, true
}

// skipDirs are never descended into while walking a project.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"venv":         true,
	".venv":        true,
	"__pycache__":  true,
	"dist":         true,
	"build":        true,
	"target":       true,
}

// sourceFile is a file handed to an analyzer by walkSources.
type sourceFile struct {
	// Rel is the slash-separated path relative to the walk root.
	Rel  string
	Path string
	Data []byte
}

// walkSources calls fn for every file under root whose name is accepted by
// match. Unreadable and oversized files are logged and skipped.
func walkSources(ctx context.Context, root string, match func(name string) bool, fn func(sourceFile) error) error {
	logger := logging.FromContext(ctx)

	info, err := os.Stat(root)
	if err != nil {
		return errors.Wrapf(err, "reading %s", root)
	}
	if !info.IsDir() {
		if !match(filepath.Base(root)) {
			return nil
		}
		data, err := fileutil.ReadFileWithLimit(root)
		if err != nil {
			return errors.Wrapf(err, "reading %s", root)
		}
		return fn(sourceFile{Rel: filepath.ToSlash(filepath.Base(root)), Path: root, Data: data})
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != root && skipDirs[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		if !match(d.Name()) {
			return nil
		}

		data, err := fileutil.ReadFileWithLimit(path)
		if err != nil {
			logger.Debug("skipping source file", "path", path, "error", err)
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		return fn(sourceFile{Rel: filepath.ToSlash(rel), Path: path, Data: data})
	})
}

// hasExt returns a matcher accepting file names with one of exts.
func hasExt(exts ...string) func(string) bool {
	return func(name string) bool {
		return slices.Contains(exts, filepath.Ext(name))
	}
}

// lineAt returns the 1-based line of byte offset off in content.
func lineAt(content string, off int) int {
	return strings.Count(content[:off], "\n") + 1
}

// contextLines returns lines[line-1-before : line+after], clamped.
func contextLines(lines []string, line, before, after int) []string {
	start := max(0, line-1-before)
	end := min(len(lines), line+after)
	if start >= end {
		return nil
	}
	return slices.Clone(lines[start:end])
}
