package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/PolarWolf314/pagelock/internal/credentials"
	kerrors "github.com/PolarWolf314/pagelock/internal/errors"
	"github.com/PolarWolf314/pagelock/internal/page"
	"github.com/PolarWolf314/pagelock/internal/ui"
	"github.com/PolarWolf314/pagelock/internal/utils"
	"github.com/PolarWolf314/pagelock/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	unlockPassword  string
	unlockRemember  bool
	unlockForget    bool
	unlockShareLink string
	unlockOutput    string
	unlockAttempts  int
)

// unlockPrompt asks for a scope's password when canPrompt allows it.
// Tests replace both.
var (
	unlockPrompt workflows.ScopePrompt = terminalScopePrompt
	canPrompt                          = func() bool { return utils.IsTerminal() || utils.IsTTYAvailable() }
)

func init() {
	unlockCmd.Flags().StringVarP(&unlockPassword, "password", "p", "", "password to try before prompting")
	unlockCmd.Flags().BoolVarP(&unlockRemember, "remember", "r", false, "remember the key if the page allows it")
	unlockCmd.Flags().BoolVar(&unlockForget, "forget", false, "forget the remembered keys of the page")
	unlockCmd.Flags().StringVar(&unlockShareLink, "share-link", "", "link made by pagelock share")
	unlockCmd.Flags().StringVarP(&unlockOutput, "output", "o", "", "write the unlocked page to this file (- for stdout)")
	unlockCmd.Flags().IntVar(&unlockAttempts, "attempts", workflows.DefaultMaxAttempts, "passwords asked per section before giving up")
}

func resetUnlockCommandState() {
	unlockPassword = ""
	unlockRemember = false
	unlockForget = false
	unlockShareLink = ""
	unlockOutput = ""
	unlockAttempts = workflows.DefaultMaxAttempts
	unlockPrompt = terminalScopePrompt
	canPrompt = func() bool { return utils.IsTerminal() || utils.IsTTYAvailable() }
}

var unlockCmd = &cobra.Command{
	Use:   "unlock <file>",
	Short: "Unlock an encrypted page in the terminal",
	Long: `Unlocks an encrypted page the way a reader's browser does: remembered keys
are tried first, then the share link, then the password is asked for.
Remembered keys are kept in the pagelock credentials file in your config
directory.

Examples:
  pagelock unlock encrypted/index.html -o -
  pagelock unlock encrypted/index.html --remember
  pagelock unlock encrypted/index.html --share-link 'https://example.com/#pagelock_key=...'
  pagelock unlock encrypted/index.html --forget`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting unlock command")

		out := io.Writer(os.Stdout)
		output := unlockOutput
		if output == "-" {
			// The page goes to stdout, everything else to stderr.
			out = os.Stderr
			output = ""
		}

		opts := workflows.UnlockOptions{
			File:        args[0],
			Password:    unlockPassword,
			Remember:    unlockRemember,
			Forget:      unlockForget,
			ShareLink:   unlockShareLink,
			Output:      output,
			Messages:    out,
			MaxAttempts: unlockAttempts,
		}
		if canPrompt() {
			opts.Prompt = unlockPrompt
		}

		result, err := workflows.Unlock(context.Background(), opts)
		if err != nil {
			Logger.Errorf("Unlock failed: %v", err)
			fmt.Fprint(out, ui.EnsureNewline(formatUnlockError(err)))
			return err
		}

		if unlockForget {
			fmt.Fprintln(out, ui.Success.Sprint("✓")+" Forgot the remembered keys of "+ui.Path.Sprint(args[0]))
			return nil
		}

		if unlockOutput == "-" {
			fmt.Print(result.HTML)
		}
		fmt.Fprint(out, formatUnlockResult(result, args[0]))

		if len(result.Locked) > 0 {
			return fmt.Errorf("%s still locked", ui.Plural(len(result.Locked), "section"))
		}
		return nil
	},
}

// terminalScopePrompt asks on the terminal. Section mode names the section.
func terminalScopePrompt(scope string, attempt int) (string, error) {
	label := "Password: "
	if scope != credentials.DocumentScope {
		label = fmt.Sprintf("Password for section %s: ", scope)
	}
	return utils.ReadPassword(label)
}

func formatUnlockResult(result *workflows.UnlockResult, file string) string {
	var msg string
	switch {
	case len(result.Locked) == 0:
		msg = ui.Success.Sprint("✓") + " Unlocked " + ui.Path.Sprint(file)
		if result.Mode == page.ModeSection {
			msg += " (" + ui.Plural(len(result.Unlocked), "section") + ")"
		}
		msg += "\n"
	case len(result.Unlocked) == 0:
		msg = ui.Error.Sprint("✗") + " " + ui.Path.Sprint(file) + " is still locked\n"
	default:
		msg = ui.Warning.Sprint("⚠") + fmt.Sprintf(" Unlocked %d of %d sections of ", len(result.Unlocked), len(result.Unlocked)+len(result.Locked)) +
			ui.Path.Sprint(file) + "\n"
		for _, id := range result.Locked {
			msg += "  " + ui.Error.Sprint("✗") + " section " + ui.Highlight.Sprint(id) + "\n"
		}
	}
	if result.Output != "" {
		msg += ui.Info.Sprint("→") + " Written to " + ui.Path.Sprint(result.Output) + "\n"
	}
	return msg
}

func formatUnlockError(err error) string {
	switch {
	case errors.Is(err, kerrors.ErrFileNotFound):
		return ui.Error.Sprint("✗") + " " + err.Error()
	case errors.Is(err, kerrors.ErrNoPassword):
		return ui.Error.Sprint("✗") + " No password given\n" +
			ui.Info.Sprint("→") + " Use " + ui.Flag.Sprint("--password") + " or run in a terminal"
	default:
		return formatError(err)
	}
}
