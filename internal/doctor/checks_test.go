package doctor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/plugkit/internal/config"
	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/internal/logging"
	"github.com/thoreinstein/plugkit/internal/paths"
	"github.com/thoreinstein/plugkit/internal/plugin"
)

func lookPathOf(found ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, f := range found {
			if f == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", errors.Newf("%s: not found", name)
	}
}

func TestToolCheck(t *testing.T) {
	t.Run("all present", func(t *testing.T) {
		c := &ToolCheck{Lint: config.LintConfig{}, LookPath: lookPathOf("git", "ruff", "rustfmt", "cargo", "eslint")}
		r := c.Run(context.Background())
		assert.Equal(t, SeverityPass, r.Status)
		assert.Equal(t, "all 5 tools found on PATH", r.Message)
	})

	t.Run("missing linters", func(t *testing.T) {
		c := &ToolCheck{
			Lint:     config.LintConfig{Security: true, Disabled: []string{config.LangRust}},
			LookPath: lookPathOf("git", "ruff"),
		}
		r := c.Run(context.Background())
		assert.Equal(t, SeverityWarning, r.Status)
		assert.Equal(t, "not on PATH: eslint (javascript), bandit (python)", r.Message)
		assert.NotEmpty(t, r.FixHint)
	})
}

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".claude", "settings.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

var expectedHooks = map[string]string{
	"PreToolUse":  "plugkit hook guard",
	"PostToolUse": "plugkit hook lint",
}

func TestSettingsCheck(t *testing.T) {
	installed := `{"hooks":{
  "PreToolUse":[{"matcher":"Edit|Write","hooks":[{"type":"command","command":"plugkit hook guard"}]}],
  "PostToolUse":[{"matcher":"Edit|Write","hooks":[{"type":"command","command":"plugkit hook lint"}]}]
}}`
	partial := `{"hooks":{
  "PreToolUse":[{"matcher":"Edit|Write","hooks":[{"type":"command","command":"plugkit hook guard"}]}]
}}`

	tests := []struct {
		name    string
		path    string
		want    Severity
		message string
	}{
		{"installed", writeSettings(t, installed), SeverityPass, "all 2 hooks installed"},
		{"partial", writeSettings(t, partial), SeverityWarning, "hooks missing for PostToolUse"},
		{"none", writeSettings(t, `{"model":"opus"}`), SeverityInfo, "plugkit hooks are not installed"},
		{"syntax error", writeSettings(t, "{\n  \"model\": \"opus\",\n}"), SeverityError, "JSON syntax error at line 3"},
		{"missing file", filepath.Join(t.TempDir(), "settings.json"), SeverityInfo, "does not exist"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &SettingsCheck{Scope: paths.ScopeProject, Path: tt.path, Hooks: expectedHooks}
			r := c.Run(context.Background())
			assert.Equal(t, tt.want, r.Status, r.Message)
			assert.Contains(t, r.Message, tt.message)
			assert.Equal(t, "project-settings", r.Name)
		})
	}
}

func TestSettingsCheck_UserHint(t *testing.T) {
	c := &SettingsCheck{Scope: paths.ScopeUser, Path: filepath.Join(t.TempDir(), "settings.json"), Hooks: expectedHooks}
	r := c.Run(context.Background())
	assert.Equal(t, "Run: plugkit hook install --user", r.FixHint)
}

func TestConfigCheck(t *testing.T) {
	r := (&ConfigCheck{}).Run(context.Background())
	assert.Equal(t, SeverityPass, r.Status)
	assert.Equal(t, "no config file, using defaults", r.Message)

	r = (&ConfigCheck{File: "/home/me/.config/plugkit/config.yaml"}).Run(context.Background())
	assert.Equal(t, "loaded /home/me/.config/plugkit/config.yaml", r.Message)

	r = (&ConfigCheck{Err: errors.New("validating config: lint.timeout out of range")}).Run(context.Background())
	assert.Equal(t, SeverityError, r.Status)
	assert.Contains(t, r.Message, "lint.timeout")
}

func TestPluginCheck(t *testing.T) {
	root := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	write("skills/commit/SKILL.md", "---\nname: commit\ndescription: Commit.\n---\nBody.\n")
	write("agents/reviewer.md", "---\nname: reviewer\ndescription: Reviews.\n---\nReview.\n")

	scanner := plugin.NewScanner(logging.ForTest(t))
	c := &PluginCheck{Roots: []string{root}, Scanner: scanner}
	r := c.Run(context.Background())
	assert.Equal(t, SeverityPass, r.Status)
	assert.Equal(t, "1 skills, 1 agents, 0 manifests", r.Message)

	write("skills/broken/SKILL.md", "no frontmatter\n")
	r = c.Run(context.Background())
	assert.Equal(t, SeverityWarning, r.Status)
	assert.Equal(t, "1 of 3 plugin files failed to parse", r.Message)
	assert.Equal(t, []string{filepath.Join(root, "skills", "broken", "SKILL.md")}, r.Details["failed"])

	r = (&PluginCheck{Scanner: scanner}).Run(context.Background())
	assert.Equal(t, SeverityInfo, r.Status)
}

func TestOffsetToLineCol(t *testing.T) {
	data := []byte("ab\ncd\nef")
	tests := []struct {
		offset    int
		line, col int
	}{
		{0, 1, 1},
		{2, 1, 3},
		{3, 2, 1},
		{7, 3, 2},
		{100, 3, 3},
		{-1, 1, 1},
	}
	for _, tt := range tests {
		line, col := offsetToLineCol(data, tt.offset)
		assert.Equal(t, tt.line, line, "offset %d", tt.offset)
		assert.Equal(t, tt.col, col, "offset %d", tt.offset)
	}
}
