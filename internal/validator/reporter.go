package validator

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/thoreinstein/plugkit/internal/errors"
)

// Format specifies the output format for validation reports.
type Format string

const (
	// FormatText produces human-readable text output.
	FormatText Format = "text"
	// FormatJSON produces machine-readable JSON output.
	FormatJSON Format = "json"
)

// maxValueLen bounds how much of an offending value is echoed in text output.
const maxValueLen = 50

// Reporter formats and writes validation results.
type Reporter struct {
	out    io.Writer
	format Format
	// ShowInfo includes info-level issues in text output.
	ShowInfo bool
}

// NewReporter creates a new Reporter.
func NewReporter(out io.Writer, format Format) *Reporter {
	return &Reporter{
		out:    out,
		format: format,
	}
}

// jsonReport is the document written in FormatJSON.
type jsonReport struct {
	Valid    bool      `json:"valid"`
	Errors   int       `json:"errors"`
	Warnings int       `json:"warnings"`
	Results  []*Result `json:"results"`
}

// Report writes the validation results to the output. Nil results are skipped.
func (r *Reporter) Report(results ...*Result) error {
	var kept []*Result
	for _, res := range results {
		if res != nil {
			kept = append(kept, res)
		}
	}

	switch r.format {
	case FormatJSON:
		return r.reportJSON(kept)
	default:
		return r.reportText(kept)
	}
}

func (r *Reporter) reportJSON(results []*Result) error {
	doc := jsonReport{Valid: true, Results: results}
	if doc.Results == nil {
		doc.Results = []*Result{}
	}
	for _, res := range results {
		doc.Errors += len(res.Errors())
		doc.Warnings += len(res.Warnings())
	}
	doc.Valid = doc.Errors == 0

	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return errors.Wrap(encoder.Encode(doc), "encoding JSON report")
}

func (r *Reporter) reportText(results []*Result) error {
	var nErrors, nWarnings int
	for _, res := range results {
		nErrors += len(res.Errors())
		nWarnings += len(res.Warnings())
	}

	if nErrors == 0 && nWarnings == 0 {
		r.printInfos(results)
		fmt.Fprintln(r.out, color.GreenString("✓ Validation passed"))
		return nil
	}

	summary := []string{}
	if nErrors > 0 {
		summary = append(summary, color.RedString("%d error(s)", nErrors))
	}
	if nWarnings > 0 {
		summary = append(summary, color.YellowString("%d warning(s)", nWarnings))
	}
	if nErrors > 0 {
		fmt.Fprintf(r.out, "Validation failed: %s\n\n", strings.Join(summary, ", "))
	} else {
		fmt.Fprintf(r.out, "Validation passed with %s\n\n", strings.Join(summary, ", "))
	}

	for _, res := range results {
		errs, warns := res.Errors(), res.Warnings()
		var infos []Issue
		if r.ShowInfo {
			infos = res.Infos()
		}
		if len(errs)+len(warns)+len(infos) == 0 {
			continue
		}

		if res.Path != "" {
			fmt.Fprintln(r.out, color.New(color.Bold).Sprint(res.Path))
		}
		r.printSection("Errors", errs, color.FgRed)
		r.printSection("Warnings", warns, color.FgYellow)
		r.printSection("Info", infos, color.FgCyan)
	}

	return nil
}

func (r *Reporter) printInfos(results []*Result) {
	if !r.ShowInfo {
		return
	}
	for _, res := range results {
		for _, i := range res.Infos() {
			r.printIssue(i, color.FgCyan)
		}
	}
}

func (r *Reporter) printSection(title string, issues []Issue, c color.Attribute) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(r.out, "%s:\n", title)
	for _, i := range issues {
		r.printIssue(i, c)
	}
	fmt.Fprintln(r.out)
}

// printIssue writes one line:  • field: [line N] message (context) [value]
func (r *Reporter) printIssue(i Issue, c color.Attribute) {
	printer := color.New(c).SprintFunc()
	dim := color.New(color.FgHiBlack)

	var sb strings.Builder
	sb.WriteString("  • ")

	if i.Field != "" {
		sb.WriteString(printer(i.Field))
		sb.WriteString(": ")
	}
	if i.Line > 0 {
		fmt.Fprintf(&sb, "line %d: ", i.Line)
	}

	sb.WriteString(i.Message)

	if len(i.Context) > 0 {
		ctxParts := make([]string, 0, len(i.Context))
		for k, v := range i.Context {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%s", k, v))
		}
		sort.Strings(ctxParts)

		sb.WriteString(" ")
		sb.WriteString(dim.Sprintf("(%s)", strings.Join(ctxParts, ", ")))
	}

	if i.Value != nil {
		valStr := fmt.Sprintf("%v", i.Value)
		if len(valStr) > maxValueLen {
			valStr = valStr[:maxValueLen-3] + "..."
		}
		sb.WriteString(dim.Sprintf(" [%s]", valStr))
	}

	fmt.Fprintln(r.out, sb.String())
}
