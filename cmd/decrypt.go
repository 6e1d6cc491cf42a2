package cmd

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/pagelock/internal/ui"
	"github.com/PolarWolf314/pagelock/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	decryptPassword      string
	decryptPasswordStdin bool
	decryptOutput        string
)

func init() {
	decryptCmd.Flags().StringVarP(&decryptPassword, "password", "p", "", "password the pages were encrypted with")
	decryptCmd.Flags().BoolVar(&decryptPasswordStdin, "password-stdin", false, "read the password from stdin")
	decryptCmd.Flags().StringVarP(&decryptOutput, "output", "o", "", "output directory (default \"decrypted\")")
}

func resetDecryptCommandState() {
	decryptPassword = ""
	decryptPasswordStdin = false
	decryptOutput = ""
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt <paths>...",
	Short: "Restore encrypted pages to their original content",
	Long: `Decrypts pages written by pagelock encrypt and writes them, with the
protected regions back in place, to the output directory.

Decrypted pages contain the protected content in plain text. Keep the output
directory out of version control.

Examples:
  pagelock decrypt encrypted
  pagelock decrypt encrypted/index.html -o restored`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting decrypt command")
		Logger.Debugf("Paths: %v", args)

		password, err := readPasswordFlag(decryptPassword, decryptPasswordStdin)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to read password: %v", err)
		}

		spinner, cleanup := startSpinner("Decrypting pages...", verbose)
		defer cleanup()

		result, err := workflows.Decrypt(context.Background(), workflows.DecryptOptions{
			Paths:     args,
			Password:  password,
			OutputDir: decryptOutput,
			Prompt:    promptPassword(spinner, "Password"),
		})
		if err != nil {
			Logger.Errorf("Decrypt failed: %v", err)
			spinner.FinalMSG = formatError(err)
			if isUnexpectedError(err) {
				return err
			}
			return nil
		}

		wd := workingDir()
		done := len(result.Files) - result.Failed
		var finalMessage string
		if result.Failed > 0 {
			finalMessage = ui.Warning.Sprint("⚠") + fmt.Sprintf(" Decrypted %s, %d failed\n", ui.Plural(done, "page"), result.Failed)
		} else {
			finalMessage = ui.Success.Sprint("✓") + fmt.Sprintf(" Decrypted %s into ", ui.Plural(done, "page")) +
				ui.Path.Sprint(displayPath(result.OutputDir, wd)) + "\n"
		}
		finalMessage += formatFileResults(result.Files, wd)
		finalMessage += ui.Warning.Sprint("⚠") + " Decrypted pages contain the protected content in plain text"

		spinner.FinalMSG = finalMessage
		if result.Failed > 0 {
			return fmt.Errorf("%d of %d pages failed to decrypt", result.Failed, len(result.Files))
		}
		return nil
	},
}
