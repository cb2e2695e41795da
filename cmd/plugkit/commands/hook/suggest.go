package hook

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/plugkit/internal/hook"
	"github.com/thoreinstein/plugkit/internal/hook/suggest"
	"github.com/thoreinstein/plugkit/internal/paths"
	"github.com/thoreinstein/plugkit/internal/plugin"
)

func init() {
	Cmd.AddCommand(suggestCmd)
}

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Point the model at relevant skills and agents (UserPromptSubmit)",
	Long: `Score installed skills and agents against the submitted prompt and add
the best matches to the model's context.

Skills and agents are discovered under the project's .claude directory,
~/.claude and every directory in plugin_dirs. A candidate scores one point
per trigger keyword found in the prompt; without triggers, the words of its
name are used. suggest.min_score and suggest.limit tune the result.

Prints nothing when nothing matches. Always exits 0.`,
	Example: `  echo '{"hook_event_name":"UserPromptSubmit","prompt":"review this sql query"}' | plugkit hook suggest`,
	Args:    cobra.NoArgs,
	RunE:    runSuggest,
}

func runSuggest(cmd *cobra.Command, _ []string) error {
	if hook.Disabled() {
		return nil
	}

	logger := invocationLogger(cmd, "suggest")
	in := decode(cmd, logger)
	if in == nil || in.Prompt == "" {
		return nil
	}

	cfg := hookConfig(logger)

	projectRoot := in.Cwd
	if projectRoot == "" {
		projectRoot, _ = os.Getwd()
	}
	roots := append(paths.DefaultPluginRoots(projectRoot), cfg.PluginDirs...)
	if len(roots) == 0 {
		return nil
	}

	catalog, err := plugin.NewScanner(logger).Scan(contextOf(cmd), roots...)
	if err != nil {
		logger.Warn("scanning plugin roots", "error", err)
		return nil
	}

	suggestions := suggest.Rank(in.Prompt, candidates(catalog), suggest.Options{
		Limit:    cfg.Suggest.Limit,
		MinScore: cfg.Suggest.MinScore,
	})
	logger.Debug("ranked candidates", "matches", len(suggestions))
	if len(suggestions) == 0 {
		return nil
	}

	if err := hook.WriteContext(cmd.OutOrStdout(), hook.EventUserPromptSubmit, suggest.Format(suggestions)); err != nil {
		logger.Warn("writing suggestions", "error", err)
	}
	return nil
}

func candidates(c *plugin.Catalog) []suggest.Candidate {
	var out []suggest.Candidate
	for _, s := range c.Skills() {
		out = append(out, suggest.Candidate{
			Kind:        suggest.KindSkill,
			Name:        s.Name,
			Description: s.Description,
			Triggers:    s.Triggers,
		})
	}
	for _, a := range c.Agents() {
		out = append(out, suggest.Candidate{
			Kind:        suggest.KindAgent,
			Name:        a.Name,
			Description: a.Description,
			Triggers:    a.Triggers,
		})
	}
	return out
}
