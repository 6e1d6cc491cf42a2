package cmd

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/pagelock/internal/configs"
	"github.com/PolarWolf314/pagelock/internal/ui"
	"github.com/PolarWolf314/pagelock/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	encryptPassword      string
	encryptPasswordStdin bool
	encryptSalt          string
	encryptRememberDays  int
	encryptNoRemember    bool
	encryptOutput        string
	encryptMode          string
	encryptStartMarker   string
	encryptEndMarker     string
	encryptCTALabel      string
)

func init() {
	encryptCmd.Flags().StringVarP(&encryptPassword, "password", "p", "", "password readers unlock the pages with")
	encryptCmd.Flags().BoolVar(&encryptPasswordStdin, "password-stdin", false, "read the password from stdin")
	encryptCmd.Flags().StringVar(&encryptSalt, "salt", "", "salt for key derivation (defaults to the project salt)")
	encryptCmd.Flags().IntVar(&encryptRememberDays, "remember-days", configs.DefaultRememberDays, "days a remembered password stays valid (0 disables, negative never expires)")
	encryptCmd.Flags().BoolVar(&encryptNoRemember, "no-remember", false, "do not let readers remember the password")
	encryptCmd.Flags().StringVarP(&encryptOutput, "output", "o", "", "output directory (default \"encrypted\")")
	encryptCmd.Flags().StringVarP(&encryptMode, "mode", "m", "", "unlock mode: document or section (default \"document\")")
	encryptCmd.Flags().StringVar(&encryptStartMarker, "start-marker", "", "name of the comment opening a region (default \"start\")")
	encryptCmd.Flags().StringVar(&encryptEndMarker, "end-marker", "", "name of the comment closing a region (default \"end\")")
	encryptCmd.Flags().StringVar(&encryptCTALabel, "cta-label", "", "label of the placeholder unlock button")
}

func resetEncryptCommandState() {
	encryptPassword = ""
	encryptPasswordStdin = false
	encryptSalt = ""
	encryptRememberDays = configs.DefaultRememberDays
	encryptNoRemember = false
	encryptOutput = ""
	encryptMode = ""
	encryptStartMarker = ""
	encryptEndMarker = ""
	encryptCTALabel = ""
}

var encryptCmd = &cobra.Command{
	Use:   "encrypt <paths>...",
	Short: "Encrypt the marked regions of HTML pages",
	Long: `Encrypts every region between <!-- start --> and <!-- end --> comments
and writes the pages to the output directory, mirroring their layout.
Pages without markers are copied unchanged.

Paths may be HTML files, directories or globs such as 'site/**/*.html'.
Flags override PAGELOCK_ environment variables, which override
.pagelock/config.toml.

Examples:
  pagelock encrypt site
  pagelock encrypt index.html --mode section
  echo "$PASSWORD" | pagelock encrypt site --password-stdin`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting encrypt command")
		Logger.Debugf("Paths: %v", args)

		password, err := readPasswordFlag(encryptPassword, encryptPasswordStdin)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to read password: %v", err)
		}

		spinner, cleanup := startSpinner("Encrypting pages...", verbose)
		defer cleanup()

		flags := &configs.Settings{
			Password:    password,
			Salt:        encryptSalt,
			Mode:        encryptMode,
			StartMarker: encryptStartMarker,
			EndMarker:   encryptEndMarker,
			OutputDir:   encryptOutput,
			CTALabel:    encryptCTALabel,
		}
		if cmd.Flags().Changed("remember-days") {
			days := encryptRememberDays
			flags.RememberDays = &days
		}
		if encryptNoRemember {
			disabled := false
			flags.RememberEnabled = &disabled
		}

		result, err := workflows.Encrypt(context.Background(), workflows.EncryptOptions{
			Paths:  args,
			Flags:  flags,
			Prompt: promptNewPassword(spinner),
		})
		if err != nil {
			Logger.Errorf("Encrypt failed: %v", err)
			spinner.FinalMSG = formatError(err)
			if isUnexpectedError(err) {
				return err
			}
			return nil
		}

		wd := workingDir()
		for _, f := range result.Files {
			Logger.Debugf("%s -> %s sections=%v skipped=%t err=%v", f.Source, f.Output, f.SectionIDs, f.Skipped, f.Err)
		}

		done := len(result.Files) - result.Failed
		var finalMessage string
		if result.Failed > 0 {
			finalMessage = ui.Warning.Sprint("⚠") + fmt.Sprintf(" Encrypted %s, %d failed\n", ui.Plural(done, "page"), result.Failed)
		} else {
			finalMessage = ui.Success.Sprint("✓") + fmt.Sprintf(" Encrypted %s into ", ui.Plural(done, "page")) +
				ui.Path.Sprint(displayPath(result.OutputDir, wd)) + " (" + string(result.Mode) + " mode)\n"
		}
		finalMessage += formatFileResults(result.Files, wd)

		if result.SaltGenerated {
			finalMessage += ui.Warning.Sprint("⚠") + " No salt was configured, generated " + ui.Secret.Sprint(result.Salt) + "\n" +
				ui.Info.Sprint("→") + " Keep it with " + ui.Code.Sprint("pagelock init --salt "+result.Salt) +
				" or " + ui.Code.Sprint("PAGELOCK_SALT") + " so readers stay unlocked across pages"
		} else {
			finalMessage += ui.Info.Sprint("→") + " Publish the contents of " + ui.Path.Sprint(displayPath(result.OutputDir, wd))
		}

		spinner.FinalMSG = finalMessage
		if result.Failed > 0 {
			return fmt.Errorf("%d of %d pages failed to encrypt", result.Failed, len(result.Files))
		}
		return nil
	},
}
