package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/plugkit/internal/config"
	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/internal/logging"
	"github.com/thoreinstein/plugkit/internal/plugin"
	"github.com/thoreinstein/plugkit/internal/validator"
)

func TestRoots_Args(t *testing.T) {
	roots, err := Roots(nil, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, roots)
}

func TestRoots_Defaults(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(project)

	require.NoError(t, os.MkdirAll(filepath.Join(project, ".claude", "skills"), 0o755))

	cfg := config.Default()
	cfg.PluginDirs = []string{"/opt/plugins"}

	roots, err := Roots(cfg, nil)
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, "skills", filepath.Base(roots[0]))
	assert.Equal(t, ".claude", filepath.Base(filepath.Dir(roots[0])))
	assert.Equal(t, "/opt/plugins", roots[1])
}

func TestRoots_NoneFound(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	_, err := Roots(config.Default(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoRoots))
	assert.Equal(t, 1, errors.ExitCode(err))
}

func TestScan_RootIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plugin.json")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0o644))

	_, err := Scan(context.Background(), logging.ForTest(t), []string{file})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a directory")

	var exitErr *errors.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.NotEmpty(t, exitErr.Suggestion)
}

func TestReport(t *testing.T) {
	t.Parallel()

	clean := validator.NewResult("clean.md")
	broken := validator.NewResult("broken.md")
	broken.AddError("name", "name is required", nil)

	t.Run("passes", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, Report(&buf, false, false, clean))
		assert.Contains(t, buf.String(), "Validation passed")
	})

	t.Run("fails", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		err := Report(&buf, false, false, clean, broken)
		assert.True(t, errors.Is(err, errors.ErrValidationFailed))
		assert.Contains(t, buf.String(), "broken.md")
		assert.Contains(t, buf.String(), "name is required")
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		err := Report(&buf, true, false, broken)
		assert.True(t, errors.Is(err, errors.ErrValidationFailed))
		assert.Contains(t, buf.String(), `"valid": false`)
	})
}

func TestParseFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := plugin.ParseAgentFile(filepath.Join(dir, "missing.md"))
	require.Error(t, err)
	r := ParseFailure("missing.md", err)
	require.Len(t, r.Errors(), 1)
	assert.Equal(t, "file not found", r.Errors()[0].Message)

	r = ParseFailure("odd.md", errors.New("frontmatter is not closed"))
	require.Len(t, r.Errors(), 1)
	assert.Equal(t, "frontmatter is not closed", r.Errors()[0].Message)
	assert.Equal(t, "odd.md", r.Path)
}

func TestValidateEntry(t *testing.T) {
	t.Parallel()

	ok := ValidateEntry(plugin.Entry{
		Kind: plugin.KindAgent,
		Path: "/p/agents/reviewer.md",
		Agent: &plugin.Agent{
			Name:         "reviewer",
			Description:  "Reviews pull requests for correctness and style",
			Instructions: "Review the diff.",
			Path:         "/p/agents/reviewer.md",
		},
	}, false)
	assert.False(t, ok.HasErrors(), "%+v", ok.Issues)

	failed := ValidateEntry(plugin.Entry{
		Kind: plugin.KindSkill,
		Path: "/p/skills/x/SKILL.md",
		Err:  errors.New("frontmatter is not closed"),
	}, false)
	require.Len(t, failed.Errors(), 1)
	assert.Equal(t, "/p/skills/x/SKILL.md", failed.Path)
}
