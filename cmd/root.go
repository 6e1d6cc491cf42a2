package cmd

import (
	"fmt"
	"strings"

	logger "github.com/PolarWolf314/pagelock/internal/logging"
	"github.com/PolarWolf314/pagelock/internal/ui"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger

	// RootCmd is the pagelock command every subcommand hangs off.
	RootCmd = &cobra.Command{
		Use:   "pagelock",
		Short: "Password-protect regions of static HTML pages",
		Long: `pagelock encrypts marked regions of static HTML pages so they can be
published anywhere and unlocked in the reader's browser with a password.

Mark the regions to protect with comment markers:

  <!-- start -->
  <p>Members only.</p>
  <!-- end -->

then run pagelock encrypt on the site. Readers unlock the page with the
password, or with a link made by pagelock share.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
			Logger.Debugf("Initializing %s with verbose=%t, debug=%t", cmd.CommandPath(), verbose, debug)
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println()
			figure.NewColorFigure("pagelock", "standard", "cyan", true).Print()
			fmt.Println()
			fmt.Println("Run " + ui.Code.Sprint("pagelock --help") + " to see available commands.")
		},
	}
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
	RootCmd.SetGlobalNormalizationFunc(normalizeFlagName)

	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(encryptCmd)
	RootCmd.AddCommand(decryptCmd)
	RootCmd.AddCommand(shareCmd)
	RootCmd.AddCommand(unlockCmd)
	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(logCmd)
	RootCmd.AddCommand(cleanCmd)
	RootCmd.AddCommand(doctorCmd)
	RootCmd.AddCommand(ConfigCmd)
}

// normalizeFlagName accepts --remember_days as --remember-days.
func normalizeFlagName(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// GetRootCmd returns the RootCmd for testing.
func GetRootCmd() *cobra.Command {
	return RootCmd
}

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	resetInitCommandState()
	resetEncryptCommandState()
	resetDecryptCommandState()
	resetShareCommandState()
	resetUnlockCommandState()
	resetStatusCommandState()
	resetLogCommandState()
	resetCleanCommandState()
	resetDoctorCommandState()
	resetConfigShowState()
	resetCobraFlagState(RootCmd)
}

// resetCobraFlagState puts every flag of cmd and its subcommands back to its
// default so tests do not see flags set by earlier runs.
func resetCobraFlagState(cmd *cobra.Command) {
	visit := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(visit)
	cmd.PersistentFlags().VisitAll(visit)
	for _, sub := range cmd.Commands() {
		resetCobraFlagState(sub)
	}
}

// SetVerbose sets the verbose flag for testing.
func SetVerbose(v bool) {
	verbose = v
}

// SetDebug sets the debug flag for testing.
func SetDebug(d bool) {
	debug = d
}

// SetLogger sets the logger for testing.
func SetLogger(l logger.Logger) {
	Logger = l
}
