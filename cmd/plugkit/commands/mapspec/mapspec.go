// Package mapspec provides commands for map-builder documents.
package mapspec

import (
	"github.com/spf13/cobra"

	"github.com/thoreinstein/plugkit/internal/cli"
	"github.com/thoreinstein/plugkit/internal/mapspec"
	"github.com/thoreinstein/plugkit/internal/validator"
)

var (
	validateJSON bool
	validateInfo bool
)

// Cmd is the parent command for all mapspec subcommands.
var Cmd = &cobra.Command{
	Use:   "mapspec",
	Short: "Check Unity map-builder documents",
	Long: `Commands for the JSON or YAML documents the unity-map-builder skill
turns into scenes: floors, rooms, openings, connections and structures.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "output results as JSON")
	validateCmd.Flags().BoolVar(&validateInfo, "summary", false, "also print the element counts")
	Cmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validate map specs",
	Long: `Check map specs for broken references and impossible geometry before
a scene is generated.

Files ending in .yaml or .yml are read as YAML, anything else as JSON.
Fields outside the schema are reported as a warning.

Exit codes:
  0 - All documents are valid
  1 - At least one document has errors`,
	Example: `  # Validate a floor plan
  plugkit mapspec validate office.json

  # Show element counts too
  plugkit mapspec validate house.yaml --summary`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	results := make([]*validator.Result, 0, len(args))
	for _, path := range args {
		r, err := mapspec.CheckFile(path)
		if err != nil {
			r = validator.NewResult(path)
			r.AddError("", err.Error(), nil)
		}
		results = append(results, r)
	}
	return cli.Report(cmd.OutOrStdout(), validateJSON, validateInfo, results...)
}
