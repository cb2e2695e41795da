package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/plugkit/cmd/plugkit/commands/flags"
	"github.com/thoreinstein/plugkit/internal/config"
	"github.com/thoreinstein/plugkit/internal/errors"
)

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect plugkit configuration",
	Long: `Inspect the configuration plugkit is running with.

Configuration is read from ./config.yaml, then
$XDG_CONFIG_HOME/plugkit/config.yaml. Any key can be overridden with a
PLUGKIT_ environment variable, e.g. PLUGKIT_LINT_TIMEOUT=30s.

Without a subcommand, shows the effective configuration.`,
	Example: `  # Show effective configuration
  plugkit config

  # Show which file was loaded
  plugkit config path

See Also: plugkit config show`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Print the effective configuration, defaults included, as YAML.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file in use",
	Long:  `Print the path of the loaded configuration file, or a note when defaults are in effect.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := flags.Config()
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return errors.Wrap(err, "encoding config")
	}
	return errors.Wrap(enc.Close(), "encoding config")
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if path := config.FileUsed(); path != "" {
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), "no config file found, using defaults")
	return nil
}
