package docs

import (
	"github.com/spf13/cobra"

	"github.com/thoreinstein/plugkit/internal/cli"
	"github.com/thoreinstein/plugkit/internal/docs"
	"github.com/thoreinstein/plugkit/internal/validator"
)

var validateJSON bool

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "output results as JSON")
	Cmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validate markdown documents",
	Long: `Check documents for required sections (title, author/date line,
purpose), recommended sections, broken relative links and secrets such as
API keys or passwords.

Exit codes:
  0 - No errors (warnings are allowed)
  1 - At least one document has errors`,
	Example: `  # Validate a design note
  plugkit docs validate docs/design/cache.md`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	results := make([]*validator.Result, 0, len(args))
	for _, path := range args {
		r, err := docs.ValidateFile(path)
		if err != nil {
			r = validator.NewResult(path)
			r.AddError("", err.Error(), nil)
		}
		results = append(results, r)
	}
	return cli.Report(cmd.OutOrStdout(), validateJSON, false, results...)
}
