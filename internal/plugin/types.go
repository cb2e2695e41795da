package plugin

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/internal/plugin/toolperm"
)

// Kind identifies a plugin artifact.
type Kind string

// Artifact kinds.
const (
	KindSkill    Kind = "skill"
	KindAgent    Kind = "agent"
	KindManifest Kind = "manifest"
)

// ToolList is a list of tool permissions. In YAML it may be written as a
// list or as a single delimited string.
type ToolList []string

// String returns the space-delimited form.
func (t ToolList) String() string {
	return strings.Join(t, " ")
}

func decodeTools(value *yaml.Node, field, delims string) (ToolList, error) {
	var multi []string
	if err := value.Decode(&multi); err == nil {
		return multi, nil
	}

	var single string
	if err := value.Decode(&single); err == nil {
		return toolperm.Split(single, delims), nil
	}

	return nil, errors.Newf("%s must be a string or list of strings, got %s", field, value.Tag)
}

// SkillTools is a skill's allowed-tools: whitespace separated.
type SkillTools ToolList

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *SkillTools) UnmarshalYAML(value *yaml.Node) error {
	list, err := decodeTools(value, "allowed-tools", toolperm.Spaces)
	*t = SkillTools(list)
	return err
}

// AgentTools is an agent's tools: comma or whitespace separated.
type AgentTools ToolList

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *AgentTools) UnmarshalYAML(value *yaml.Node) error {
	list, err := decodeTools(value, "tools", toolperm.SpacesOrCommas)
	*t = AgentTools(list)
	return err
}

// Skill is a SKILL.md file: YAML frontmatter plus markdown instructions.
type Skill struct {
	// Name must be 1-64 chars of lowercase alphanumerics and single hyphens,
	// and equal the containing directory name.
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`

	License       string            `yaml:"license,omitempty" json:"license,omitempty"`
	Compatibility []string          `yaml:"compatibility,omitempty" json:"compatibility,omitempty"`
	Metadata      map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
	AllowedTools  SkillTools        `yaml:"allowed-tools,omitempty" json:"allowed-tools,omitempty"`

	// Triggers are keywords that make the skill a suggestion candidate.
	Triggers []string `yaml:"triggers,omitempty" json:"triggers,omitempty"`

	Instructions string `yaml:"-" json:"-"`
	// Path is the SKILL.md file the skill was read from.
	Path string `yaml:"-" json:"path,omitempty"`
	// UnknownKeys lists frontmatter keys outside the known set.
	UnknownKeys []string `yaml:"-" json:"-"`
}

// Agent is an agents/<name>.md file. Frontmatter is optional.
type Agent struct {
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Model       string     `yaml:"model,omitempty" json:"model,omitempty"`
	Tools       AgentTools `yaml:"tools,omitempty" json:"tools,omitempty"`
	Color       string     `yaml:"color,omitempty" json:"color,omitempty"`
	Triggers    []string   `yaml:"triggers,omitempty" json:"triggers,omitempty"`

	Instructions string   `yaml:"-" json:"-"`
	Path         string   `yaml:"-" json:"path,omitempty"`
	UnknownKeys  []string `yaml:"-" json:"-"`
}

// Author identifies a plugin author.
type Author struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Manifest is .claude-plugin/plugin.json.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version,omitempty"`
	Description string   `json:"description,omitempty"`
	Author      *Author  `json:"author,omitempty"`
	Homepage    string   `json:"homepage,omitempty"`
	Repository  string   `json:"repository,omitempty"`
	License     string   `json:"license,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`

	Path        string   `json:"-"`
	UnknownKeys []string `json:"-"`
}

var (
	skillKeys    = []string{"name", "description", "license", "compatibility", "metadata", "allowed-tools", "triggers"}
	agentKeys    = []string{"name", "description", "model", "tools", "color", "triggers"}
	manifestKeys = []string{"name", "version", "description", "author", "homepage", "repository", "license", "keywords", "commands", "agents", "hooks", "mcpServers"}
)
