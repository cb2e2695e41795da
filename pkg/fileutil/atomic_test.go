package fileutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "SKILL.md")

	require.NoError(t, AtomicWriteFile(path, []byte("---\nname: a\n---\n"), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "---\nname: a\n---\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	assertNoTempFiles(t, dir)
}

func TestAtomicWriteFile_CreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".claude", "settings.json")

	require.NoError(t, AtomicWriteFile(path, []byte("{}\n"), 0o644))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestAtomicWriteFile_OverwriteExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	require.NoError(t, AtomicWriteFile(path, []byte("new"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	assertNoTempFiles(t, dir)
}

func TestAtomicWriteFile_TargetIsDirectory(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "occupied")
	require.NoError(t, os.Mkdir(target, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "child"), nil, 0o644))

	err := AtomicWriteFile(target, []byte("x"), 0o644)
	assert.Error(t, err)
	assertNoTempFiles(t, dir)
}

func TestAtomicWriteJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	v := map[string]any{"hooks": map[string]any{}, "model": "opus"}
	require.NoError(t, AtomicWriteJSON(path, v))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "}\n"), "trailing newline expected")
	assert.Contains(t, string(data), "\n  \"model\": \"opus\"")

	var back map[string]any
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "opus", back["model"])
}

func TestAtomicWriteJSON_PreservesPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	require.NoError(t, AtomicWriteJSON(path, map[string]int{"a": 1}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestAtomicWriteJSON_Unmarshalable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	err := AtomicWriteJSON(path, map[string]any{"ch": make(chan int)})
	assert.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".plugkit-*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches, "temp files left behind")
}
