package docs

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/plugkit/internal/cli"
	"github.com/thoreinstein/plugkit/internal/docs"
	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/internal/git"
)

var syncFiles []string

func init() {
	syncCmd.Flags().StringSliceVar(&syncFiles, "file", nil,
		"changed file to classify instead of asking git (repeatable)")
	Cmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync [repo]",
	Short: "List the documents a change should update",
	Long: `Classify changed files (new agents and skills, MCP tools, config,
prompts, dependencies, hooks) and print a checklist of the documents to
revisit.

Changed files come from 'git diff --name-only HEAD' in the repository, or
from --file when given.`,
	Example: `  # Check the working tree of this repository
  plugkit docs sync

  # Classify a list of files
  plugkit docs sync --file agents/new-agent.md --file package.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	checker := docs.NewChecker()

	var report *docs.SyncReport
	if len(syncFiles) > 0 {
		report = checker.Analyze(syncFiles)
	} else {
		root := "."
		if len(args) > 0 {
			root = args[0]
		}
		var err error
		report, err = checker.AnalyzeRepo(cli.Context(cmd), root)
		if errors.Is(err, git.ErrNotRepository) {
			return errors.NewUserError(err, "Run inside a git repository or pass --file")
		}
		if err != nil {
			return errors.NewSystemError(err, "Check that git is installed")
		}
	}

	cli.Logger(cmd).Debug("sync analysis", "files", len(report.Files), "changes", report.Changes)
	fmt.Fprint(cmd.OutOrStdout(), report.Checklist())
	return nil
}
