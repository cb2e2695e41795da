// Package docs checks, generates and tracks project documentation.
//
// Validation looks for the sections every document is expected to carry,
// secrets pasted into prose and relative links that no longer resolve.
// Generation fills a template from the template directory. Sync maps changed
// source files to the documents that describe them.
package docs

import (
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/internal/redact"
	"github.com/thoreinstein/plugkit/internal/validator"
	"github.com/thoreinstein/plugkit/pkg/fileutil"
)

// Section is a heading or marker a document should contain.
type Section struct {
	Name    string
	Pattern *regexp.Regexp
}

// RequiredSections must appear in every document.
var RequiredSections = []Section{
	{"title", regexp.MustCompile(`(?m)^#\s+\S`)},
	{"author/date line", regexp.MustCompile(`\*\*(작성|Author|Written)\*\*:`)},
	{"purpose", regexp.MustCompile(`(?mi)^##\s+(목적|개요|목표|purpose|overview|goals?)`)},
}

// RecommendedSections are reported as warnings when missing.
var RecommendedSections = []Section{
	{"quick start", regexp.MustCompile(`(?mi)^##\s+(빠른\s*시작|quick\s*start)`)},
	{"references", regexp.MustCompile(`(?mi)^##\s+(참고|references?)`)},
}

var linkPattern = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)

// ValidateFile checks the document at path. The error is non-nil only when
// the file cannot be read.
func ValidateFile(path string) (*validator.Result, error) {
	data, err := fileutil.ReadFileWithLimit(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading document %s", path)
	}
	r := Validate(string(data), filepath.Dir(path))
	r.Path = path
	return r, nil
}

// Validate checks document content. Relative links are resolved against
// baseDir.
func Validate(content, baseDir string) *validator.Result {
	r := validator.NewResult("")

	for _, s := range RequiredSections {
		if !s.Pattern.MatchString(content) {
			r.AddError("sections", "missing required section: "+s.Name, nil)
		}
	}
	for _, s := range RecommendedSections {
		if !s.Pattern.MatchString(content) {
			r.AddWarning("sections", "missing recommended section: "+s.Name, nil)
		}
	}

	for _, f := range redact.Scan(content) {
		r.Add(validator.Issue{
			Severity: validator.SeverityError,
			Field:    "content",
			Message:  "sensitive value detected: " + string(f.Kind),
			Line:     f.Line,
		})
	}

	checkLinks(r, content, baseDir)
	return r
}

func checkLinks(r *validator.Result, content, baseDir string) {
	for i, line := range strings.Split(content, "\n") {
		for _, m := range linkPattern.FindAllStringSubmatch(line, -1) {
			target, ok := localTarget(m[2])
			if !ok {
				continue
			}
			if _, err := os.Stat(filepath.Join(baseDir, filepath.FromSlash(target))); err != nil {
				r.Add(validator.Issue{
					Severity: validator.SeverityWarning,
					Field:    "links",
					Message:  "broken link: [" + m[1] + "]",
					Value:    m[2],
					Line:     i + 1,
				})
			}
		}
	}
}

// localTarget returns the file part of a relative link, or ok=false for
// external links and same-page anchors.
func localTarget(link string) (string, bool) {
	if strings.HasPrefix(link, "#") {
		return "", false
	}
	u, err := url.Parse(link)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}
	if u.Path == "" {
		return "", false
	}
	return u.Path, true
}
