package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/subpurge/internal/config"
	"github.com/aatumaykin/subpurge/internal/constants"
	"github.com/aatumaykin/subpurge/internal/logger"
)

var (
	configPath string
	debug      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "subpurge",
	Short: "Subpurge - inactive subscriber cleanup",
	Long: `Subpurge periodically deletes subscriber accounts that never engaged
with the site, one account per cycle, and notifies the user and the administrator.`,
	Version:      Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default ./config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(scheduleCmd)
}

func resolveConfigPath(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	if configPath != "" {
		return configPath
	}
	return constants.DefaultConfigPath
}

// loadConfig reads .env, the config file and validates the result.
func loadConfig(path string) (*config.Config, error) {
	if err := config.LoadEnvOptional(constants.DefaultEnvPath); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", constants.DefaultEnvPath, err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Logging.Level = "debug"
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, &validationErrors{errs: errs}
	}
	return cfg, nil
}

type validationErrors struct {
	errs []error
}

func (v *validationErrors) Error() string {
	return fmt.Sprintf("%d configuration errors", len(v.errs))
}

// mustSetup loads configuration and the logger, exiting on failure.
func mustSetup() (*config.Config, *logger.Logger) {
	cfg, err := loadConfig(resolveConfigPath(nil))
	if err != nil {
		printConfigError(err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Printf("❌ Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)
	return cfg, log
}

func printConfigError(err error) {
	var v *validationErrors
	if errors.As(err, &v) {
		fmt.Print(constants.MsgConfigValidationError)
		for _, e := range v.errs {
			fmt.Printf(constants.MsgConfigValidatePrefix, e)
		}
		return
	}
	fmt.Printf(constants.MsgConfigLoadError, err)
}
