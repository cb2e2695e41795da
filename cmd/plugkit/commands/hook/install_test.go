package hook

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/plugkit/internal/backup"
	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/internal/settings"
)

// inProject switches the working directory to a fresh project for the test.
func inProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

// resetInstallFlags restores flag defaults and keeps snapshots in a temp dir.
func resetInstallFlags(t *testing.T) {
	t.Helper()
	installUser, installDryRun, installBinary, installNoBackup = false, false, "plugkit", false
	restoreList = false
	backupDir := t.TempDir()
	newBackupManager = func() *backup.Manager { return backup.NewManager(backup.WithDir(backupDir)) }
	t.Cleanup(func() {
		installUser, installDryRun, installBinary, installNoBackup = false, false, "plugkit", false
		restoreList = false
		newBackupManager = func() *backup.Manager { return backup.NewManager() }
	})
}

func runCmd(t *testing.T, run func() error) string {
	t.Helper()
	var out bytes.Buffer
	installCmd.SetOut(&out)
	uninstallCmd.SetOut(&out)
	restoreCmd.SetOut(&out)
	t.Cleanup(func() {
		installCmd.SetOut(nil)
		uninstallCmd.SetOut(nil)
		restoreCmd.SetOut(nil)
	})
	require.NoError(t, run())
	return out.String()
}

func TestInstall_ProjectSettings(t *testing.T) {
	dir := inProject(t)
	resetInstallFlags(t)

	path := filepath.Join(dir, ".claude", "settings.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"model":"opus","hooks":{"PreToolUse":[{"matcher":"Bash","hooks":[{"type":"command","command":"audit"}]}]}}`), 0o644))

	out := runCmd(t, func() error { return installCmd.RunE(installCmd, nil) })
	assert.Equal(t, 3, strings.Count(out, "Installed "))

	s, err := settings.Load(path)
	require.NoError(t, err)
	assert.True(t, s.Has("PreToolUse", "plugkit hook guard"))
	assert.True(t, s.Has("PreToolUse", "audit"))
	assert.True(t, s.Has("PostToolUse", "plugkit hook lint"))
	assert.True(t, s.Has("UserPromptSubmit", "plugkit hook suggest"))
	require.Len(t, s.Hooks["PreToolUse"], 2)
	assert.Equal(t, EditMatcher, s.Hooks["PreToolUse"][1].Matcher)

	var raw map[string]json.RawMessage
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `"opus"`, string(raw["model"]))
}

func TestInstall_Idempotent(t *testing.T) {
	dir := inProject(t)
	resetInstallFlags(t)

	runCmd(t, func() error { return installCmd.RunE(installCmd, nil) })
	path := filepath.Join(dir, ".claude", "settings.json")
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	out := runCmd(t, func() error { return installCmd.RunE(installCmd, nil) })
	assert.Contains(t, out, "already installed")

	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestInstall_DryRun(t *testing.T) {
	dir := inProject(t)
	resetInstallFlags(t)
	installDryRun = true
	installBinary = "/opt/bin/plugkit"

	out := runCmd(t, func() error { return installCmd.RunE(installCmd, nil) })
	assert.Contains(t, out, "/opt/bin/plugkit hook guard")

	_, err := os.Stat(filepath.Join(dir, ".claude", "settings.json"))
	assert.True(t, os.IsNotExist(err), "dry run must not write settings")
}

func TestInstall_User(t *testing.T) {
	inProject(t)
	resetInstallFlags(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	installUser = true

	runCmd(t, func() error { return installCmd.RunE(installCmd, nil) })

	s, err := settings.Load(filepath.Join(home, ".claude", "settings.json"))
	require.NoError(t, err)
	assert.True(t, s.Has("PostToolUse", "plugkit hook lint"))
}

func TestUninstall(t *testing.T) {
	dir := inProject(t)
	resetInstallFlags(t)

	runCmd(t, func() error { return installCmd.RunE(installCmd, nil) })
	out := runCmd(t, func() error { return uninstallCmd.RunE(uninstallCmd, nil) })
	assert.Equal(t, 3, strings.Count(out, "Removed "))

	s, err := settings.Load(filepath.Join(dir, ".claude", "settings.json"))
	require.NoError(t, err)
	assert.Empty(t, s.Hooks)

	out = runCmd(t, func() error { return uninstallCmd.RunE(uninstallCmd, nil) })
	assert.Contains(t, out, "no plugkit hooks found")
}

func TestInstall_BacksUpAndRestores(t *testing.T) {
	dir := inProject(t)
	resetInstallFlags(t)

	path := filepath.Join(dir, ".claude", "settings.json")
	original := `{"model":"opus"}`
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(original), 0o644))

	out := runCmd(t, func() error { return installCmd.RunE(installCmd, nil) })
	assert.Contains(t, out, "Backed up "+path)

	out = runCmd(t, func() error { return restoreCmd.RunE(restoreCmd, nil) })
	assert.Contains(t, out, "Restored "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
}

func TestInstall_NoBackup(t *testing.T) {
	dir := inProject(t)
	resetInstallFlags(t)
	installNoBackup = true

	path := filepath.Join(dir, ".claude", "settings.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	out := runCmd(t, func() error { return installCmd.RunE(installCmd, nil) })
	assert.NotContains(t, out, "Backed up")

	restoreList = true
	out = runCmd(t, func() error { return restoreCmd.RunE(restoreCmd, nil) })
	assert.Contains(t, out, "no backups of")

	restoreList = false
	err := restoreCmd.RunE(restoreCmd, nil)
	assert.True(t, errors.Is(err, backup.ErrNoBackups))
}

func TestRestore_List(t *testing.T) {
	dir := inProject(t)
	resetInstallFlags(t)

	path := filepath.Join(dir, ".claude", "settings.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	runCmd(t, func() error { return installCmd.RunE(installCmd, nil) })
	runCmd(t, func() error { return uninstallCmd.RunE(uninstallCmd, nil) })

	restoreList = true
	out := runCmd(t, func() error { return restoreCmd.RunE(restoreCmd, nil) })
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 3, out)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
}

func TestCommands(t *testing.T) {
	assert.Equal(t, map[string]string{
		"PreToolUse":       "pk hook guard",
		"PostToolUse":      "pk hook lint",
		"UserPromptSubmit": "pk hook suggest",
	}, Commands("pk"))
}
