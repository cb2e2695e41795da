package plugin

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/thoreinstein/plugkit/internal/plugin/toolperm"
	"github.com/thoreinstein/plugkit/internal/validator"
)

const (
	maxNameLength        = 64
	maxDescriptionLength = 1024
)

// nameRegex validates skill and agent names: lowercase alphanumeric segments
// joined by single hyphens.
var nameRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// semverRegex accepts MAJOR.MINOR.PATCH with an optional pre-release or build suffix.
var semverRegex = regexp.MustCompile(`^\d+\.\d+\.\d+([-+][0-9A-Za-z.-]+)?$`)

// Model aliases accepted in agent frontmatter.
var modelAliases = []string{"sonnet", "opus", "haiku", "inherit"}

// Option configures validation.
type Option func(*options)

type options struct {
	strict bool
}

// WithStrict enables strict validation: tool permission syntax is checked
// and recommended fields become warnings.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ValidateName checks a skill or agent name and records problems under field.
func ValidateName(r *validator.Result, field, name string) {
	if name == "" {
		r.AddError(field, "name is required", nil)
		return
	}

	if utf8.RuneCountInString(name) > maxNameLength {
		r.AddError(field, fmt.Sprintf("name exceeds maximum length of %d characters", maxNameLength), name)
	}

	if !nameRegex.MatchString(name) {
		msg := "name must be lowercase alphanumeric with single hyphens between segments"
		switch {
		case strings.HasPrefix(name, "-") || strings.HasSuffix(name, "-"):
			msg = "name cannot start or end with a hyphen"
		case strings.Contains(name, "--"):
			msg = "name cannot contain consecutive hyphens"
		case strings.ToLower(name) != name:
			msg = "name must be lowercase"
		}
		r.AddError(field, msg, name)
	}
}

// ValidateSkill checks s. The name must also match the skill's directory.
func ValidateSkill(s *Skill, opts ...Option) *validator.Result {
	o := newOptions(opts)
	r := validator.NewResult(s.Path)

	ValidateName(r, "name", s.Name)
	if s.Name != "" && s.Path != "" {
		dir := filepath.Base(filepath.Dir(s.Path))
		if dir != s.Name {
			r.Add(validator.Issue{
				Severity: validator.SeverityError,
				Field:    "name",
				Message:  "skill name must match directory name",
				Value:    s.Name,
				Context:  map[string]string{"directory": dir},
			})
		}
	}

	validateDescription(r, s.Description)

	if o.strict && len(s.AllowedTools) > 0 {
		validateTools(r, "allowed-tools", ToolList(s.AllowedTools))
	}

	if s.Instructions == "" {
		r.AddWarning("body", "skill has no instructions", nil)
	}
	for _, k := range s.UnknownKeys {
		r.AddWarning(k, "unknown frontmatter key", nil)
	}
	if o.strict && s.License == "" {
		r.AddInfo("license", "license is recommended for shared skills", nil)
	}
	return r
}

// ValidateAgent checks a. The name must match the file stem.
func ValidateAgent(a *Agent, opts ...Option) *validator.Result {
	o := newOptions(opts)
	r := validator.NewResult(a.Path)

	ValidateName(r, "name", a.Name)
	if a.Name != "" && a.Path != "" {
		if stem := AgentNameFromPath(a.Path); stem != a.Name {
			r.Add(validator.Issue{
				Severity: validator.SeverityError,
				Field:    "name",
				Message:  "agent name must match file name",
				Value:    a.Name,
				Context:  map[string]string{"file": stem},
			})
		}
	}

	validateDescription(r, a.Description)

	if a.Model != "" && !validModel(a.Model) {
		r.AddWarning("model", "unknown model; use sonnet, opus, haiku, inherit or a full claude- model id", a.Model)
	}

	if len(a.Tools) > 0 {
		validateTools(r, "tools", ToolList(a.Tools))
	}

	if a.Instructions == "" {
		r.AddError("body", "agent has no instructions", nil)
	}
	for _, k := range a.UnknownKeys {
		r.AddWarning(k, "unknown frontmatter key", nil)
	}
	if o.strict && a.Model == "" {
		r.AddInfo("model", "model not set; the agent inherits the session model", nil)
	}
	return r
}

// ValidateManifest checks a plugin manifest.
func ValidateManifest(m *Manifest, opts ...Option) *validator.Result {
	o := newOptions(opts)
	r := validator.NewResult(m.Path)

	ValidateName(r, "name", m.Name)

	if m.Version == "" {
		r.AddWarning("version", "version is recommended", nil)
	} else if !semverRegex.MatchString(m.Version) {
		r.AddError("version", "version must be semantic (MAJOR.MINOR.PATCH)", m.Version)
	}

	if strings.TrimSpace(m.Description) == "" {
		r.AddWarning("description", "description is recommended", nil)
	}

	if m.Author != nil && m.Author.Name == "" {
		r.AddError("author.name", "author name is required when author is set", nil)
	}
	if o.strict && m.Author == nil {
		r.AddWarning("author", "author is recommended", nil)
	}

	for _, k := range m.UnknownKeys {
		r.AddWarning(k, "unknown manifest key", nil)
	}
	return r
}

func validateDescription(r *validator.Result, description string) {
	switch {
	case description == "":
		r.AddError("description", "description is required", nil)
	case strings.TrimSpace(description) == "":
		r.AddError("description", "description cannot be only whitespace", description)
	case utf8.RuneCountInString(description) > maxDescriptionLength:
		r.AddError("description", fmt.Sprintf("description exceeds maximum length of %d characters", maxDescriptionLength),
			utf8.RuneCountInString(description))
	}
}

func validateTools(r *validator.Result, field string, tools ToolList) {
	if _, err := toolperm.Parse(tools); err != nil {
		r.AddError(field, err.Error(), tools.String())
	}
}

func validModel(model string) bool {
	return slices.Contains(modelAliases, model) || strings.HasPrefix(model, "claude-")
}
