package docs

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/plugkit/cmd/plugkit/commands/flags"
	"github.com/thoreinstein/plugkit/internal/cli"
	"github.com/thoreinstein/plugkit/internal/docs"
	"github.com/thoreinstein/plugkit/internal/errors"
)

var (
	generateForce       bool
	generateTemplateDir string
)

func init() {
	generateCmd.Flags().BoolVarP(&generateForce, "force", "f", false, "overwrite the output file")
	generateCmd.Flags().StringVar(&generateTemplateDir, "templates", "",
		"template directory (default: docs.template_dir from the config)")
	Cmd.AddCommand(generateCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate <template> <output> [KEY=VALUE]...",
	Short: "Create a document from a template",
	Long: `Render a template into a new document.

Placeholders are written {KEY}. {DATE}, {TIMESTAMP} and {AUTHOR} are always
filled; KEY=VALUE arguments add or override variables. An existing output
file is only replaced with --force.`,
	Example: `  # New design note
  plugkit docs generate design.md docs/design/cache.md TITLE="Cache layer"

  # Regenerate over an existing file
  plugkit docs generate readme.md README.md NAME=plugkit --force`,
	Args: cobra.MinimumNArgs(2),
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := flags.Config()
	if err != nil {
		return err
	}

	vars, err := docs.ParseVars(args[2:])
	if err != nil {
		return errors.NewUserError(err, "Pass variables as KEY=VALUE")
	}

	g := &docs.Generator{
		TemplateDir: cfg.Docs.TemplateDir,
		Author:      cfg.Docs.Author,
	}
	if generateTemplateDir != "" {
		g.TemplateDir = generateTemplateDir
	}

	out, err := g.Generate(args[0], args[1], docs.GenerateOptions{Vars: vars, Force: generateForce})
	if err != nil {
		if errors.Is(err, docs.ErrOutputExists) {
			return errors.NewUserError(err, "Pass --force to overwrite it")
		}
		return errors.NewUserError(err, "Check the template name and --templates directory")
	}

	cli.Logger(cmd).Debug("document generated", "template", args[0], "output", out)
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", out)
	return nil
}
