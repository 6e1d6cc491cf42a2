package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// ConfigCmd is the top-level config command.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect pagelock configuration",
	Long: `Provides commands for inspecting the configuration pagelock resolves from
flags, PAGELOCK_ environment variables, .pagelock/config.toml and the
built-in defaults, in that order.

Examples:
  # Show the effective configuration
  pagelock config show

  # Output in JSON format
  pagelock config show --json`,
}

// GetConfigCmd returns the ConfigCmd for testing.
func GetConfigCmd() *cobra.Command {
	return ConfigCmd
}

// ResetConfigState resets all config command global variables to their default values for testing.
func ResetConfigState() {
	resetConfigShowState()
	ConfigCmd.Flags().VisitAll(func(flag *pflag.Flag) {
		flag.Changed = false
	})
}
