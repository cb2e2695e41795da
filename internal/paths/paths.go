package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
)

// AppName is used for the config directory name.
const AppName = "plugkit"

// Settings scopes for Claude Code.
const (
	ScopeUser    = "user"
	ScopeProject = "project"
)

// ClaudeDirName is the directory Claude Code reads in both scopes.
const ClaudeDirName = ".claude"

// SettingsFileName is the Claude Code settings file inside ClaudeDirName.
const SettingsFileName = "settings.json"

// ErrHomeDirNotFound indicates the user's home directory could not be determined.
var ErrHomeDirNotFound = errors.New("home directory not found")

// DefaultDirPerm is the default permission for newly created directories.
const DefaultDirPerm = 0o755

// EnsureDir creates the directory and any necessary parents.
// If perm is 0, DefaultDirPerm is used.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultDirPerm
	}
	return os.MkdirAll(path, perm)
}

// ResolveHome returns the user's home directory.
func ResolveHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", errors.Wrap(ErrHomeDirNotFound, "resolving home")
	}
	return home, nil
}

// ConfigHome returns the XDG config home directory.
func ConfigHome() string {
	return xdg.ConfigHome
}

// AppConfigDir returns plugkit's configuration directory.
// PLUGKIT_CONFIG_DIR takes precedence over <ConfigHome>/plugkit.
func AppConfigDir() string {
	if dir := os.Getenv("PLUGKIT_CONFIG_DIR"); dir != "" {
		return dir
	}
	return filepath.Join(ConfigHome(), AppName)
}

// ValidScope reports whether scope is a known settings scope.
func ValidScope(scope string) bool {
	return scope == ScopeUser || scope == ScopeProject
}

// ClaudeDir returns the Claude Code directory for scope.
// projectRoot is only consulted for ScopeProject.
func ClaudeDir(scope, projectRoot string) string {
	switch scope {
	case ScopeUser:
		home, err := ResolveHome()
		if err != nil {
			return ""
		}
		return filepath.Join(home, ClaudeDirName)
	case ScopeProject:
		if projectRoot == "" {
			return ""
		}
		return filepath.Join(projectRoot, ClaudeDirName)
	default:
		return ""
	}
}

// SettingsPath returns the settings.json path for scope.
func SettingsPath(scope, projectRoot string) string {
	dir := ClaudeDir(scope, projectRoot)
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, SettingsFileName)
}

// PluginSubdirs are the directories under a Claude Code directory that hold
// skills, agents and installed plugins. Siblings such as projects/ and todos/
// hold session data and are never scanned.
var PluginSubdirs = []string{"skills", "agents", "plugins"}

// DefaultPluginRoots returns the directories scanned for skills and agents
// when none are configured: the PluginSubdirs of the project's .claude and
// of the user's ~/.claude. Roots that do not exist are omitted.
func DefaultPluginRoots(projectRoot string) []string {
	var roots []string
	seen := make(map[string]bool)
	for _, base := range []string{ClaudeDir(ScopeProject, projectRoot), ClaudeDir(ScopeUser, "")} {
		if base == "" {
			continue
		}
		for _, sub := range PluginSubdirs {
			dir := filepath.Join(base, sub)
			if seen[dir] {
				continue
			}
			if info, err := os.Stat(dir); err == nil && info.IsDir() {
				roots = append(roots, dir)
				seen[dir] = true
			}
		}
	}
	return roots
}
