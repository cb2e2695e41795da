package validator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/thoreinstein/plugkit/internal/errors"
)

// Severity represents the impact of a validation issue.
type Severity int

const (
	// SeverityError indicates a blocking validation failure.
	SeverityError Severity = iota
	// SeverityWarning indicates a recommended but non-blocking issue.
	SeverityWarning
	// SeverityInfo indicates an informational note.
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the severity by name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a severity name.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "error":
		*s = SeverityError
	case "warning":
		*s = SeverityWarning
	case "info":
		*s = SeverityInfo
	default:
		return errors.Newf("unknown severity %q", name)
	}
	return nil
}

// Issue represents a single validation problem.
type Issue struct {
	Severity Severity `json:"severity"`
	// Field locates the problem inside the document, e.g. "rooms[2].height".
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	// Value is the offending value, if useful to show.
	Value any `json:"value,omitempty"`
	// Line is the 1-based source line, when known.
	Line    int               `json:"line,omitempty"`
	Context map[string]string `json:"context,omitempty"`
}

// Error implements the error interface.
func (i Issue) Error() string {
	var sb strings.Builder
	sb.WriteString(i.Severity.String())
	sb.WriteString(": ")
	if i.Field != "" {
		sb.WriteString("field \"")
		sb.WriteString(i.Field)
		sb.WriteString("\": ")
	}
	if i.Line > 0 {
		fmt.Fprintf(&sb, "line %d: ", i.Line)
	}
	sb.WriteString(i.Message)
	if i.Value != nil {
		fmt.Fprintf(&sb, " (got %v)", i.Value)
	}
	return sb.String()
}

// Result aggregates the issues found in one file or object.
type Result struct {
	// Path names what was validated. It may be empty.
	Path   string  `json:"path,omitempty"`
	Issues []Issue `json:"issues"`
}

// NewResult returns an empty result for path.
func NewResult(path string) *Result {
	return &Result{Path: path, Issues: []Issue{}}
}

// Add appends issue.
func (r *Result) Add(issue Issue) {
	r.Issues = append(r.Issues, issue)
}

// AddError adds an error issue to the result.
func (r *Result) AddError(field, message string, value any) {
	r.Add(Issue{Severity: SeverityError, Field: field, Message: message, Value: value})
}

// AddWarning adds a warning issue to the result.
func (r *Result) AddWarning(field, message string, value any) {
	r.Add(Issue{Severity: SeverityWarning, Field: field, Message: message, Value: value})
}

// AddInfo adds an info issue to the result.
func (r *Result) AddInfo(field, message string, value any) {
	r.Add(Issue{Severity: SeverityInfo, Field: field, Message: message, Value: value})
}

// Merge appends other's issues. Fields from other are prefixed with prefix
// when both are non-empty.
func (r *Result) Merge(prefix string, other *Result) {
	if other == nil {
		return
	}
	for _, i := range other.Issues {
		if prefix != "" && i.Field != "" {
			i.Field = prefix + "." + i.Field
		} else if prefix != "" {
			i.Field = prefix
		}
		r.Add(i)
	}
}

// HasErrors returns true if any issue has SeverityError.
func (r *Result) HasErrors() bool {
	return r.count(SeverityError) > 0
}

// HasWarnings returns true if any issue has SeverityWarning.
func (r *Result) HasWarnings() bool {
	return r.count(SeverityWarning) > 0
}

// Valid reports whether the result has no errors.
func (r *Result) Valid() bool {
	return !r.HasErrors()
}

// Errors returns a slice of all issues with SeverityError.
func (r *Result) Errors() []Issue {
	return r.filter(SeverityError)
}

// Warnings returns a slice of all issues with SeverityWarning.
func (r *Result) Warnings() []Issue {
	return r.filter(SeverityWarning)
}

// Infos returns a slice of all issues with SeverityInfo.
func (r *Result) Infos() []Issue {
	return r.filter(SeverityInfo)
}

// Sort orders issues by severity, then line, then field. The order among
// equal issues is preserved.
func (r *Result) Sort() {
	if r == nil {
		return
	}
	sort.SliceStable(r.Issues, func(a, b int) bool {
		x, y := r.Issues[a], r.Issues[b]
		if x.Severity != y.Severity {
			return x.Severity < y.Severity
		}
		if x.Line != y.Line {
			return x.Line < y.Line
		}
		return x.Field < y.Field
	})
}

func (r *Result) count(s Severity) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, i := range r.Issues {
		if i.Severity == s {
			n++
		}
	}
	return n
}

func (r *Result) filter(s Severity) []Issue {
	if r == nil {
		return nil
	}
	var res []Issue
	for _, i := range r.Issues {
		if i.Severity == s {
			res = append(res, i)
		}
	}
	return res
}
