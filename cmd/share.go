package cmd

import (
	"context"

	"github.com/PolarWolf314/pagelock/internal/page"
	"github.com/PolarWolf314/pagelock/internal/ui"
	"github.com/PolarWolf314/pagelock/internal/workflows"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

var (
	sharePassword      string
	sharePasswordStdin bool
	shareSalt          string
	sharePage          string
	shareRemember      bool
	shareCopy          bool
)

// writeClipboard is replaced in tests, which have no clipboard.
var writeClipboard = clipboard.WriteAll

func init() {
	shareCmd.Flags().StringVarP(&sharePassword, "password", "p", "", "password the page was encrypted with")
	shareCmd.Flags().BoolVar(&sharePasswordStdin, "password-stdin", false, "read the password from stdin")
	shareCmd.Flags().StringVar(&shareSalt, "salt", "", "salt the page was encrypted with (defaults to the project salt)")
	shareCmd.Flags().StringVar(&sharePage, "page", "", "local copy of the encrypted page to take the salt from and check the password against")
	shareCmd.Flags().BoolVar(&shareRemember, "remember", false, "let the reader's browser remember the key")
	shareCmd.Flags().BoolVarP(&shareCopy, "copy", "c", false, "copy the link to the clipboard")
}

func resetShareCommandState() {
	sharePassword = ""
	sharePasswordStdin = false
	shareSalt = ""
	sharePage = ""
	shareRemember = false
	shareCopy = false
}

var shareCmd = &cobra.Command{
	Use:   "share <url>",
	Short: "Make a link that unlocks a page without the password",
	Long: `Derives the page key and appends it to the page URL as a fragment.
Opening the link unlocks the page straight away. Browsers never send the
fragment to the server, but anyone holding the link can read the page.

Examples:
  pagelock share https://example.com/members.html
  pagelock share https://example.com/members.html --page encrypted/members.html --copy
  pagelock share https://example.com/members.html --remember`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting share command")

		password, err := readPasswordFlag(sharePassword, sharePasswordStdin)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to read password: %v", err)
		}

		spinner, cleanup := startSpinner("Deriving page key...", verbose)
		defer cleanup()

		result, err := workflows.Share(context.Background(), workflows.ShareOptions{
			URL:      args[0],
			Page:     sharePage,
			Password: password,
			Salt:     shareSalt,
			Remember: shareRemember,
			Prompt:   promptPassword(spinner, "Password"),
		})
		if err != nil {
			Logger.Errorf("Share failed: %v", err)
			spinner.FinalMSG = formatError(err)
			if isUnexpectedError(err) {
				return err
			}
			return nil
		}

		if key, _, ok := page.ParseShareLink(result.Link); ok {
			Logger.Infof("Derived key %s with salt %s", ui.MaskKey(key), result.Salt)
		}

		finalMessage := ui.Success.Sprint("✓") + " Share link created"
		if result.Verified {
			finalMessage += " and checked against " + ui.Path.Sprint(sharePage)
		}
		finalMessage += "\n  " + ui.Secret.Sprint(result.Link) + "\n"

		if shareCopy {
			if err := writeClipboard(result.Link); err != nil {
				Logger.Warnf("Failed to copy link: %v", err)
				finalMessage += ui.Warning.Sprint("⚠") + " Could not copy the link to the clipboard: " + err.Error() + "\n"
			} else {
				finalMessage += ui.Info.Sprint("→") + " Copied to the clipboard\n"
			}
		}
		finalMessage += ui.Warning.Sprint("⚠") + " Anyone with this link can read the page"

		spinner.FinalMSG = finalMessage
		return nil
	},
}
