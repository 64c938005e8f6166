// Package configcmder provides the config command for managing persistent
// innerself configuration stored in the .innerself/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/innerself/pkg/cliui"
	"github.com/papercomputeco/innerself/pkg/config"
)

const configLongDesc string = `Manage persistent innerself configuration.

Configuration is stored as config.toml in the .innerself/ directory and
provides default values for command flags. CLI flags and INNERSELF_*
environment variables take precedence over config file values. A running
server picks up changes to the [innerself] section without a restart.

Keys use dotted notation matching the TOML section structure:
  innerself.enabled, innerself.thought_formation_chance, innerself.characters,
  innerself.thought_chance_half_for_input, innerself.debug_mode,
  innerself.user_name, innerself.context_max_length,
  generator.provider, generator.model, generator.target, generator.timeout,
  storage.driver, storage.sqlite_path, storage.postgres_dsn,
  persistence.interval, persistence.key,
  eventstream.provider, eventstream.brokers, eventstream.topic,
  api.listen

Use subcommands to get, set, or list configuration values:
  innerself config set <key> <value>    Set a configuration value
  innerself config get <key>            Get a configuration value
  innerself config list                 List all configuration values

Examples:
  innerself config set innerself.thought_formation_chance 30
  innerself config set innerself.characters "Alice,Bob"
  innerself config get generator.provider
  innerself config list`

const configShortDesc string = "Manage persistent innerself configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func checkKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func printTarget(w io.Writer, target string) {
	if target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
