package docs

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/internal/git"
)

// Rule maps a kind of change, recognised by file path, to the documents
// that describe it. A document may name {placeholders}; each is filled from
// the pattern's capture group of the same name, e.g. mcps/{server}/README.md.
type Rule struct {
	Change   string
	Patterns []*regexp.Regexp
	Docs     []string
}

func rule(change string, docs []string, patterns ...string) Rule {
	r := Rule{Change: change, Docs: docs}
	for _, p := range patterns {
		r.Patterns = append(r.Patterns, regexp.MustCompile(p))
	}
	return r
}

// DefaultRules covers the layout of a plugin repository with a service
// alongside it.
var DefaultRules = []Rule{
	rule("new_agent",
		[]string{"AGENTS.md", "docs/status/architecture.md", "README.md"},
		`(^|/)agents/[^/]+\.md$`, `_agent\.py$`),
	rule("new_skill",
		[]string{"README.md", ".claude-plugin/plugin.json"},
		`(^|/)skills/[^/]+/SKILL\.md$`),
	rule("mcp_tool",
		[]string{"mcps/{server}/README.md", "docs/status/architecture.md", "docs/status/mcp_guide.md"},
		`(^|/)mcps/(?P<server>[^/]+)/(.*/)?(tools|resources)\.py$`, `(^|/)\.mcp\.json$`),
	rule("config_change",
		[]string{"config/README.md", ".env.example", "AGENTS.md"},
		`(^|/)config/.*\.ya?ml$`, `(^|/)\.env`),
	rule("prompt_change",
		[]string{"prompts/README.md", "prompts/{agent}_agent.yaml"},
		`(^|/)prompts/(?P<agent>[^/]+)_agent\.ya?ml$`, `(^|/)prompts/.*\.ya?ml$`),
	rule("sdk_update",
		[]string{"docs/sdk_info/openai_agents.md", "pyproject.toml"},
		`(^|/)pyproject\.toml$`),
	rule("architecture_change",
		[]string{"AGENTS.md", "docs/status/architecture.md", "{package}/README.md"},
		`^(?P<package>.+)/(__init__\.py|doc\.go)$`, `(^|/)docker-compose\.ya?ml$`),
	rule("dependency_update",
		[]string{"README.md"},
		`(^|/)(pyproject\.toml|go\.mod|package\.json|Cargo\.toml)$`),
	rule("hook_change",
		[]string{"README.md", "AGENTS.md"},
		`(^|/)hooks/hooks\.json$`),
}

// SyncReport lists the documents to revisit for a set of changed files.
type SyncReport struct {
	Files   []string
	Changes []string
	Docs    []string
}

// Checker matches changed files against sync rules.
type Checker struct {
	Rules []Rule
}

// NewChecker returns a Checker using rules, or DefaultRules when none are
// given.
func NewChecker(rules ...Rule) *Checker {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Checker{Rules: rules}
}

// Analyze classifies files and collects the union of affected documents.
func (c *Checker) Analyze(files []string) *SyncReport {
	report := &SyncReport{}
	changes := make(map[string]bool)
	docs := make(map[string]bool)

	for _, f := range files {
		f = filepath.ToSlash(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		report.Files = append(report.Files, f)

		for _, r := range c.Rules {
			p, m := r.match(f)
			if m == nil {
				continue
			}
			changes[r.Change] = true
			for _, d := range r.Docs {
				if doc, ok := expand(d, p, m); ok {
					docs[doc] = true
				}
			}
		}
	}

	for _, r := range c.Rules {
		if changes[r.Change] {
			report.Changes = append(report.Changes, r.Change)
		}
	}
	for d := range docs {
		report.Docs = append(report.Docs, d)
	}
	slices.Sort(report.Docs)
	return report
}

// AnalyzeRepo runs Analyze over the files changed since HEAD in root, plus
// untracked files that are not ignored.
func (c *Checker) AnalyzeRepo(ctx context.Context, root string) (*SyncReport, error) {
	if err := git.ValidateRepo(root); err != nil {
		return nil, err
	}
	files, err := git.ChangedFiles(ctx, root)
	if err != nil {
		return nil, errors.Wrap(err, "listing changed files")
	}
	untracked, err := git.Untracked(ctx, root)
	if err != nil {
		return nil, errors.Wrap(err, "listing untracked files")
	}
	return c.Analyze(append(files, untracked...)), nil
}

// match returns the first pattern matching path and its submatches.
func (r Rule) match(path string) (*regexp.Regexp, []string) {
	for _, p := range r.Patterns {
		if m := p.FindStringSubmatch(path); m != nil {
			return p, m
		}
	}
	return nil, nil
}

var placeholderRe = regexp.MustCompile(`\{(\w+)\}`)

// expand fills the placeholders of doc from the named groups in m. It
// reports false when a placeholder has no value, so the document is skipped.
func expand(doc string, p *regexp.Regexp, m []string) (string, bool) {
	ok := true
	out := placeholderRe.ReplaceAllStringFunc(doc, func(ph string) string {
		i := p.SubexpIndex(ph[1 : len(ph)-1])
		if i < 0 || m[i] == "" {
			ok = false
			return ph
		}
		return m[i]
	})
	return out, ok
}

// Checklist renders the report as a markdown checklist.
func (s *SyncReport) Checklist() string {
	if len(s.Docs) == 0 {
		return "No documentation updates needed.\n"
	}

	var sb strings.Builder
	sb.WriteString("## Documentation Update Checklist\n\n")
	fmt.Fprintf(&sb, "**Detected changes**: %s\n\n", strings.Join(s.Changes, ", "))
	sb.WriteString("**Files to update**:\n")
	for _, d := range s.Docs {
		fmt.Fprintf(&sb, "- [ ] %s\n", d)
	}
	return sb.String()
}
