package agent

import (
	"github.com/spf13/cobra"

	"github.com/thoreinstein/plugkit/internal/cli"
	"github.com/thoreinstein/plugkit/internal/plugin"
	"github.com/thoreinstein/plugkit/internal/validator"
)

var (
	validateStrict bool
	validateJSON   bool
)

func init() {
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false,
		"also report recommendations such as a missing model")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false,
		"output results as JSON")
	Cmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validate agent files",
	Long: `Parse and validate one or more agent files.

The name must be lowercase alphanumerics with single hyphens and match the
file name. Tool permissions are always checked.

Exit codes:
  0 - All agents are valid
  1 - At least one agent failed validation`,
	Example: `  # Validate one agent
  plugkit agent validate agents/code-reviewer.md

  # Validate every agent as JSON
  plugkit agent validate agents/*.md --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	results := make([]*validator.Result, 0, len(args))
	for _, path := range args {
		a, err := plugin.ParseAgentFile(path)
		if err != nil {
			results = append(results, cli.ParseFailure(path, err))
			continue
		}
		results = append(results, plugin.ValidateAgent(a, plugin.WithStrict(validateStrict)))
	}
	return cli.Report(cmd.OutOrStdout(), validateJSON, validateStrict, results...)
}
