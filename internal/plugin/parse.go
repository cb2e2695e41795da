package plugin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/pkg/fileutil"
	"github.com/thoreinstein/plugkit/pkg/frontmatter"
)

// ParseError is returned when a plugin file cannot be read or decoded.
type ParseError struct {
	Kind Kind
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parsing %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("parsing %s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseSkillFile reads and parses a SKILL.md file.
func ParseSkillFile(path string) (*Skill, error) {
	data, err := fileutil.ReadFileWithLimit(path)
	if err != nil {
		return nil, &ParseError{Kind: KindSkill, Path: path, Err: err}
	}
	return ParseSkill(data, path)
}

// ParseSkill parses SKILL.md content. Frontmatter is required.
// The path is used for error context and recorded on the skill.
func ParseSkill(data []byte, path string) (*Skill, error) {
	var s Skill
	body, err := frontmatter.MustParse(bytes.NewReader(data), &s)
	if err != nil {
		return nil, &ParseError{Kind: KindSkill, Path: path, Err: err}
	}

	s.Instructions = strings.TrimSpace(string(body))
	s.Path = path
	s.UnknownKeys, err = unknownKeys(data, skillKeys)
	if err != nil {
		return nil, &ParseError{Kind: KindSkill, Path: path, Err: err}
	}
	return &s, nil
}

// ParseAgentFile reads and parses an agent markdown file.
func ParseAgentFile(path string) (*Agent, error) {
	data, err := fileutil.ReadFileWithLimit(path)
	if err != nil {
		return nil, &ParseError{Kind: KindAgent, Path: path, Err: err}
	}
	return ParseAgent(data, path)
}

// ParseAgent parses agent content. Without frontmatter the whole file is
// the instructions and the name is left empty.
func ParseAgent(data []byte, path string) (*Agent, error) {
	var a Agent
	body, err := frontmatter.Parse(bytes.NewReader(data), &a)
	if err != nil {
		return nil, &ParseError{Kind: KindAgent, Path: path, Err: err}
	}

	a.Instructions = strings.TrimSpace(string(body))
	a.Path = path
	a.UnknownKeys, err = unknownKeys(data, agentKeys)
	if err != nil {
		return nil, &ParseError{Kind: KindAgent, Path: path, Err: err}
	}
	return &a, nil
}

// ParseManifestFile reads and parses a plugin.json file.
func ParseManifestFile(path string) (*Manifest, error) {
	data, err := fileutil.ReadFileWithLimit(path)
	if err != nil {
		return nil, &ParseError{Kind: KindManifest, Path: path, Err: err}
	}
	return ParseManifest(data, path)
}

// ParseManifest parses plugin.json content.
func ParseManifest(data []byte, path string) (*Manifest, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Kind: KindManifest, Path: path, Err: err}
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &ParseError{Kind: KindManifest, Path: path, Err: err}
	}
	m.Path = path

	for k := range raw {
		if !slices.Contains(manifestKeys, k) {
			m.UnknownKeys = append(m.UnknownKeys, k)
		}
	}
	slices.Sort(m.UnknownKeys)
	return &m, nil
}

func unknownKeys(data []byte, known []string) ([]string, error) {
	keys, err := frontmatter.Keys(data)
	if err != nil {
		return nil, errors.Wrap(err, "reading frontmatter keys")
	}
	var unknown []string
	for _, k := range keys {
		if !slices.Contains(known, k) {
			unknown = append(unknown, k)
		}
	}
	return unknown, nil
}

// SkillDirName is the directory that holds one directory per skill.
const SkillDirName = "skills"

// AgentDirName is the directory that holds agent markdown files.
const AgentDirName = "agents"

// SkillFileName is the entry point of a skill directory.
const SkillFileName = "SKILL.md"

// ManifestPath is the manifest location relative to a plugin root.
var ManifestPath = filepath.Join(".claude-plugin", "plugin.json")

// AgentNameFromPath returns the file stem of an agent path.
func AgentNameFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
