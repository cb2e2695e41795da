package skill

import (
	"os"
	"path/filepath"

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
		"enable strict validation (validates allowed-tools syntax)")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false,
		"output results as JSON")
	Cmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate <path>...",
	Short: "Validate skills",
	Long: `Parse and validate one or more skills.

Each path is a skill directory or its SKILL.md file. The name must be
lowercase alphanumerics with single hyphens and match the directory.

Use --strict to also validate allowed-tools syntax.
Use --json for machine-readable output.

Exit codes:
  0 - All skills are valid
  1 - At least one skill failed validation`,
	Example: `  # Validate skill in current directory
  plugkit skill validate .

  # Strict validation of several skills
  plugkit skill validate skills/* --strict

  See Also:
    plugkit plugin validate  - Validate a whole plugin`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	results := make([]*validator.Result, 0, len(args))
	for _, arg := range args {
		results = append(results, validateSkill(skillFile(arg), validateStrict))
	}
	return cli.Report(cmd.OutOrStdout(), validateJSON, validateStrict, results...)
}

// skillFile returns path itself when it names a file, otherwise the SKILL.md
// inside it.
func skillFile(path string) string {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path
	}
	return filepath.Join(path, plugin.SkillFileName)
}

func validateSkill(path string, strict bool) *validator.Result {
	s, err := plugin.ParseSkillFile(path)
	if err != nil {
		return cli.ParseFailure(path, err)
	}
	return plugin.ValidateSkill(s, plugin.WithStrict(strict))
}
