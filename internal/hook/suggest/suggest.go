// Package suggest ranks installed skills and agents against a user prompt.
//
// Each candidate contributes a set of keywords: its declared triggers, or
// the words of its name when it declares none. A candidate's score is the
// number of distinct keywords that appear in the prompt as whole words,
// ignoring case. Multi-word triggers match as phrases.
package suggest

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Kind distinguishes skills from agents in suggestions.
type Kind string

// Candidate kinds.
const (
	KindSkill Kind = "skill"
	KindAgent Kind = "agent"
)

// Candidate is something that can be suggested.
type Candidate struct {
	Kind        Kind
	Name        string
	Description string
	Triggers    []string
}

// Keywords returns the normalised, de-duplicated keywords for c.
func (c Candidate) Keywords() []string {
	source := c.Triggers
	if len(source) == 0 {
		source = strings.Split(c.Name, "-")
	}

	seen := make(map[string]bool, len(source))
	var kws []string
	for _, s := range source {
		kw := normalize(s)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		kws = append(kws, kw)
	}
	return kws
}

// Suggestion is a scored candidate.
type Suggestion struct {
	Candidate
	Score   int
	Matched []string
}

// Options bounds the ranking. MinScore below 1 is treated as 1.
type Options struct {
	Limit    int
	MinScore int
}

// Rank scores every candidate against prompt and returns those meeting
// opts.MinScore, highest score first, ties broken by name. Limit of zero or
// less returns every match.
func Rank(prompt string, candidates []Candidate, opts Options) []Suggestion {
	text := " " + normalize(prompt) + " "
	minScore := max(opts.MinScore, 1)

	var out []Suggestion
	for _, c := range candidates {
		var matched []string
		for _, kw := range c.Keywords() {
			if strings.Contains(text, " "+kw+" ") {
				matched = append(matched, kw)
			}
		}
		if len(matched) < minScore {
			continue
		}
		out = append(out, Suggestion{Candidate: c, Score: len(matched), Matched: matched})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Kind < out[j].Kind
	})

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

// Format renders suggestions as context for the model. It returns "" for none.
func Format(suggestions []Suggestion) string {
	if len(suggestions) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Relevant plugin resources for this request:\n")
	for _, s := range suggestions {
		fmt.Fprintf(&sb, "- %s %s", s.Kind, s.Name)
		if s.Description != "" {
			fmt.Fprintf(&sb, ": %s", firstLine(s.Description))
		}
		fmt.Fprintf(&sb, " (matched: %s)\n", strings.Join(s.Matched, ", "))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// normalize lowercases s and collapses every run of non-alphanumeric
// characters into a single space.
func normalize(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
