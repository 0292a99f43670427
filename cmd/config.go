package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/signup/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or edit the config file",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file in use",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), configPath())
		return err
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value, keeping the file's comments",
	Long: `Set one config value in the config file in use.

Known keys:
  ` + strings.Join(config.Keys, "\n  ") + `

A running form picks up form.debounce, form.uniqueness_cache_ttl and the
theme colours without a restart.

Examples:
  signup config set form.debounce 500ms
  signup config set api.base_url https://app.example.com`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		path := configPath()
		if err := config.SetValue(path, key, value); err != nil {
			return err
		}

		// Validate the result the same way startup would.
		viper.SetConfigFile(path)
		if _, err := reloadConfig(); err != nil {
			return fmt.Errorf("%s saved, but the config is now invalid: %w", key, err)
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s = %s (%s)\n", key, value, path)
		return err
	},
}

func init() {
	configCmd.AddCommand(configPathCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
