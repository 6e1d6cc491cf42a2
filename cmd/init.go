package cmd

import (
	"context"

	"github.com/PolarWolf314/pagelock/internal/ui"
	"github.com/PolarWolf314/pagelock/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	initSalt string
	initName string
)

func init() {
	initCmd.Flags().StringVar(&initSalt, "salt", "", "salt to reuse instead of generating one")
	initCmd.Flags().StringVar(&initName, "name", "", "project name (defaults to the directory name)")
}

func resetInitCommandState() {
	initSalt = ""
	initName = ""
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a pagelock project in the current directory",
	Long: `Creates .pagelock/config.toml holding the project's salt and encoding
defaults. Pages encrypted inside the project share the salt, so a password
remembered on one page unlocks the others.

Examples:
  pagelock init
  pagelock init --name docs --salt 9f86d081884c7d659a2feaa0c55ad015`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting init command")
		spinner, cleanup := startSpinner("Initializing pagelock...", verbose)
		defer cleanup()

		result, err := workflows.Init(context.Background(), workflows.InitOptions{
			ProjectName: initName,
			Salt:        initSalt,
		})
		if err != nil {
			Logger.Errorf("Init failed: %v", err)
			spinner.FinalMSG = formatError(err)
			if isUnexpectedError(err) {
				return err
			}
			return nil
		}
		Logger.Infof("Created project %s (%s) at %s", result.ProjectName, result.ProjectUUID, result.ProjectPath)

		finalMessage := ui.Success.Sprint("✓") + " pagelock initialized for " + ui.Highlight.Sprint(result.ProjectName) + "\n" +
			"  Config: " + ui.Path.Sprint(displayPath(result.ConfigPath, workingDir())) + "\n"
		if result.SaltGenerated {
			finalMessage += "  Salt:   " + ui.Secret.Sprint(result.Salt) + " (generated)\n"
		} else {
			finalMessage += "  Salt:   " + ui.Secret.Sprint(result.Salt) + "\n"
		}
		finalMessage += ui.Info.Sprint("→") + " Mark regions with " + ui.Code.Sprint("<!-- start -->") + " and " +
			ui.Code.Sprint("<!-- end -->") + ", then run " + ui.Code.Sprint("pagelock encrypt .")

		spinner.FinalMSG = finalMessage
		return nil
	},
}
