package hook

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/plugkit/internal/backup"
	"github.com/thoreinstein/plugkit/internal/errors"
)

var restoreList bool

func init() {
	restoreCmd.Flags().BoolVar(&installUser, "user", false,
		"use ~/.claude/settings.json instead of the project's")
	restoreCmd.Flags().BoolVar(&restoreList, "list", false,
		"list the available snapshots instead of restoring")
	Cmd.AddCommand(restoreCmd)
}

var restoreCmd = &cobra.Command{
	Use:   "restore [id]",
	Short: "Restore settings saved before install or uninstall",
	Long: `Put back a settings.json snapshot taken by 'plugkit hook install' or
'plugkit hook uninstall'. Without an id the most recent snapshot is used.`,
	Example: `  # Undo the last install in this project
  plugkit hook restore

  # Show the snapshots of the user settings
  plugkit hook restore --user --list`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRestore,
}

func runRestore(cmd *cobra.Command, args []string) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}
	mgr := newBackupManager()
	out := cmd.OutOrStdout()

	if restoreList {
		manifests, err := mgr.List(path)
		if errors.Is(err, backup.ErrNoBackups) {
			fmt.Fprintf(out, "no backups of %s\n", path)
			return nil
		}
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCREATED")
		for _, m := range manifests {
			fmt.Fprintf(tw, "%s\t%s\n", m.ID, m.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		}
		return errors.Wrap(tw.Flush(), "writing table")
	}

	var id string
	if len(args) > 0 {
		id = args[0]
	}
	manifest, err := mgr.Restore(path, id)
	switch {
	case errors.Is(err, backup.ErrNoBackups):
		return errors.NewUserError(err, "List snapshots with: plugkit hook restore --list")
	case errors.Is(err, backup.ErrCorrupted):
		return errors.NewSystemError(err, "Pick another snapshot with: plugkit hook restore --list")
	case err != nil:
		return err
	}
	fmt.Fprintf(out, "Restored %s from %s\n", path, manifest.ID)
	return nil
}
