package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/aatumaykin/subpurge/internal/constants"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate [config-file]",
	Short: "Validate configuration file",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := loadConfig(resolveConfigPath(args)); err != nil {
			printConfigError(err)
			os.Exit(1)
		}
		fmt.Fprintln(cmd.OutOrStdout(), constants.MsgConfigValid)
	},
}

// configShowCmd prints the effective configuration with secrets masked.
var configShowCmd = &cobra.Command{
	Use:   "show [config-file]",
	Short: "Print the effective configuration",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(resolveConfigPath(args))
		if err != nil {
			printConfigError(err)
			os.Exit(1)
		}
		if err := toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg.Redacted()); err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to encode configuration: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
}
