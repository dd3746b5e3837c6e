package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aatumaykin/subpurge/internal/constants"
	"github.com/aatumaykin/subpurge/internal/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change purge settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := buildApp(ctx)
		defer a.Shutdown()

		if err := printSettings(cmd.OutOrStdout(), a.Settings().Page(ctx)); err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		}
	},
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := checkSettingKey(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(1)
		}

		ctx := context.Background()
		a := buildApp(ctx)
		defer a.Shutdown()

		fmt.Fprintln(cmd.OutOrStdout(), a.Settings().Load(ctx).Map()[args[0]])
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: `Change one setting. Values are coerced like the admin form:
days_inactive is clamped to 1..365, booleans accept 1/0, true/false, on/off.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]
		if err := checkSettingKey(key); err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(1)
		}

		ctx := context.Background()
		a := buildApp(ctx)
		ok := a.Settings().Update(ctx, key, args[1])
		_ = a.Shutdown()

		if !ok {
			fmt.Fprintf(os.Stderr, constants.MsgSettingsUpdateError, "backend rejected the write")
			os.Exit(1)
		}
		fmt.Fprintf(cmd.OutOrStdout(), constants.MsgSettingsUpdated, key)
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

func checkSettingKey(key string) error {
	if settings.IsKnown(key) {
		return nil
	}
	return fmt.Errorf(constants.MsgSettingsUnknownKey, key, strings.Join(settings.Keys(), ", "))
}

// printSettings writes the page heading, the field values as YAML and the
// explanatory notes.
func printSettings(w io.Writer, page settings.Page) error {
	values := make(map[string]any, len(page.Fields))
	for _, f := range page.Fields {
		values[f.Key] = f.Value
	}
	out, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	fmt.Fprintf(w, "%s\n\n", page.Title)
	if _, err := w.Write(out); err != nil {
		return err
	}
	if len(page.HowItWorks) > 0 {
		fmt.Fprintln(w)
		for _, line := range page.HowItWorks {
			fmt.Fprintf(w, "  - %s\n", line)
		}
	}
	return nil
}
