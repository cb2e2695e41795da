package docs

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/plugkit/cmd/plugkit/commands/flags"
	"github.com/thoreinstein/plugkit/internal/config"
	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/internal/logging"
)

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(logging.NewContext(context.Background(), logging.ForTest(t)))
	t.Cleanup(func() { cmd.SetOut(nil) })

	err := cmd.RunE(cmd, args)
	return out.String(), err
}

func write(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const goodDoc = `# Cache layer

**Author**: Claude (AI Assistant)
**Date**: 2026-03-09

## Purpose

Describe the cache.

## Quick Start

Run it.

## References

- [Design](design.md)
`

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "design.md"), "# Design\n")
	good := write(t, filepath.Join(dir, "cache.md"), goodDoc)
	bad := write(t, filepath.Join(dir, "notes.md"), "Some notes.\npassword = hunter22\n")

	out, err := run(t, validateCmd, good)
	require.NoError(t, err)
	assert.Contains(t, out, "Validation passed")

	out, err = run(t, validateCmd, good, bad)
	assert.True(t, errors.Is(err, errors.ErrValidationFailed))
	assert.Contains(t, out, "missing required section: title")
	assert.Contains(t, out, "sensitive value detected: password")

	out, err = run(t, validateCmd, filepath.Join(dir, "missing.md"))
	assert.True(t, errors.Is(err, errors.ErrValidationFailed))
	assert.Contains(t, out, "missing.md")
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	templates := filepath.Join(dir, "templates")
	write(t, filepath.Join(templates, "note.md"), "# {TITLE}\n\n**Author**: {AUTHOR}\n")

	cfg := config.Default()
	cfg.Docs.TemplateDir = templates
	cfg.Docs.Author = "Docs Team"
	flags.SetConfig(cfg, nil)
	t.Cleanup(func() { flags.SetConfig(nil, nil) })

	output := filepath.Join(dir, "out", "note.md")
	out, err := run(t, generateCmd, "note.md", output, "TITLE=Cache layer")
	require.NoError(t, err)
	assert.Equal(t, "Created "+output+"\n", out)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "# Cache layer\n\n**Author**: Docs Team\n", string(data))

	// Existing output needs --force.
	_, err = run(t, generateCmd, "note.md", output, "TITLE=Other")
	require.Error(t, err)
	var exitErr *errors.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Contains(t, exitErr.Suggestion, "--force")

	generateForce = true
	t.Cleanup(func() { generateForce = false })
	_, err = run(t, generateCmd, "note.md", output, "TITLE=Other")
	require.NoError(t, err)
	data, err = os.ReadFile(output)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# Other\n"))
}

func TestGenerate_BadInput(t *testing.T) {
	dir := t.TempDir()
	generateTemplateDir = dir
	t.Cleanup(func() { generateTemplateDir = "" })

	_, err := run(t, generateCmd, "missing.md", filepath.Join(dir, "out.md"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template not found")

	_, err = run(t, generateCmd, "missing.md", filepath.Join(dir, "out.md"), "NOEQUALS")
	assert.Equal(t, errors.ExitUser, errors.ExitCode(err))
}

func TestSync_Files(t *testing.T) {
	syncFiles = []string{"plugins/x/skills/deploy/SKILL.md", "hooks/hooks.json"}
	t.Cleanup(func() { syncFiles = nil })

	out, err := run(t, syncCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "## Documentation Update Checklist")
	assert.Contains(t, out, "new_skill")
	assert.Contains(t, out, "- [ ] README.md")
}

func TestSync_NotRepository(t *testing.T) {
	_, err := run(t, syncCmd, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a git repository")
	assert.Equal(t, errors.ExitUser, errors.ExitCode(err))
}
