package hook

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/plugkit/internal/backup"
	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/internal/hook"
	"github.com/thoreinstein/plugkit/internal/paths"
	"github.com/thoreinstein/plugkit/internal/settings"
)

// EditMatcher selects the file-writing tools guarded and linted by plugkit.
const EditMatcher = "Edit|MultiEdit|Write"

var (
	installUser     bool
	installDryRun   bool
	installBinary   string
	installNoBackup bool
)

// newBackupManager is replaced in tests.
var newBackupManager = func() *backup.Manager { return backup.NewManager() }

func init() {
	for _, c := range []*cobra.Command{installCmd, uninstallCmd} {
		c.Flags().BoolVar(&installUser, "user", false,
			"use ~/.claude/settings.json instead of the project's")
		c.Flags().BoolVar(&installDryRun, "dry-run", false,
			"print the resulting settings without writing them")
		c.Flags().StringVar(&installBinary, "binary", "plugkit",
			"command used to invoke plugkit from the hook")
		c.Flags().BoolVar(&installNoBackup, "no-backup", false,
			"do not snapshot the settings file before changing it")
	}
	Cmd.AddCommand(installCmd)
	Cmd.AddCommand(uninstallCmd)
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Register plugkit's hooks in Claude Code settings",
	Long: `Merge plugkit's hook entries into .claude/settings.json:

  PreToolUse        ` + EditMatcher + `  plugkit hook guard
  PostToolUse       ` + EditMatcher + `  plugkit hook lint
  UserPromptSubmit                        plugkit hook suggest

Entries that are already present are left alone, so running install twice
changes nothing. Every other key in the settings file is preserved, and
the previous file is snapshotted first; 'plugkit hook restore' brings it
back.`,
	Example: `  # Project settings
  plugkit hook install

  # User settings, preview only
  plugkit hook install --user --dry-run

  See Also: plugkit hook uninstall`,
	Args: cobra.NoArgs,
	RunE: runInstall,
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove plugkit's hooks from Claude Code settings",
	Long:  `Remove the entries added by 'plugkit hook install', leaving other hooks untouched.`,
	Args:  cobra.NoArgs,
	RunE:  runUninstall,
}

// hookEntry is one hook plugkit registers.
type hookEntry struct {
	Event   string
	Matcher string
	Sub     string
}

var hookEntries = []hookEntry{
	{hook.EventPreToolUse, EditMatcher, "guard"},
	{hook.EventPostToolUse, EditMatcher, "lint"},
	{hook.EventUserPromptSubmit, "", "suggest"},
}

func (e hookEntry) command(binary string) string {
	return binary + " hook " + e.Sub
}

// Commands maps each hook event to the command install registers for it.
func Commands(binary string) map[string]string {
	m := make(map[string]string, len(hookEntries))
	for _, e := range hookEntries {
		m[e.Event] = e.command(binary)
	}
	return m
}

func settingsPath() (string, error) {
	scope := paths.ScopeProject
	root := ""
	if installUser {
		scope = paths.ScopeUser
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return "", errors.Wrap(err, "resolving project directory")
		}
		root = wd
	}
	path := paths.SettingsPath(scope, root)
	if path == "" {
		return "", errors.NewSystemError(paths.ErrHomeDirNotFound, "Set $HOME or use project settings")
	}
	return path, nil
}

func runInstall(cmd *cobra.Command, _ []string) error {
	return updateSettings(cmd, func(s *settings.Settings) []string {
		var changed []string
		for _, e := range hookEntries {
			if s.AddHook(e.Event, e.Matcher, settings.HookCommand{Command: e.command(installBinary)}) {
				changed = append(changed, e.Event)
			}
		}
		return changed
	}, "Installed", "plugkit hooks already installed in")
}

func runUninstall(cmd *cobra.Command, _ []string) error {
	return updateSettings(cmd, func(s *settings.Settings) []string {
		var changed []string
		for _, e := range hookEntries {
			if s.RemoveHook(e.Event, e.command(installBinary)) {
				changed = append(changed, e.Event)
			}
		}
		return changed
	}, "Removed", "no plugkit hooks found in")
}

func updateSettings(cmd *cobra.Command, apply func(*settings.Settings) []string, verb, unchanged string) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}

	s, err := settings.Load(path)
	if err != nil {
		return errors.NewUserError(err, "Fix the JSON in "+path)
	}

	changed := apply(s)
	out := cmd.OutOrStdout()

	if installDryRun {
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return errors.Wrap(err, "encoding settings")
		}
		fmt.Fprintf(out, "# %s (dry run)\n%s\n", path, data)
		return nil
	}

	if len(changed) == 0 {
		fmt.Fprintf(out, "%s %s\n", unchanged, path)
		return nil
	}
	if !installNoBackup {
		manifest, err := newBackupManager().Backup(path)
		if err != nil {
			return errors.NewSystemError(errors.Wrap(err, "backing up settings"), "Retry with --no-backup to skip the snapshot")
		}
		if manifest != nil {
			fmt.Fprintf(out, "Backed up %s (%s)\n", path, manifest.ID)
		}
	}
	if err := settings.Save(path, s); err != nil {
		return err
	}
	for _, event := range changed {
		fmt.Fprintf(out, "%s %s hook in %s\n", verb, event, path)
	}
	return nil
}
