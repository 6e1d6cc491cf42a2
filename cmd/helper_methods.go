package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	kerrors "github.com/PolarWolf314/pagelock/internal/errors"
	"github.com/PolarWolf314/pagelock/internal/ui"
	"github.com/PolarWolf314/pagelock/internal/unlock"
	"github.com/PolarWolf314/pagelock/internal/utils"
	"github.com/PolarWolf314/pagelock/internal/workflows"

	"github.com/briandowns/spinner"
)

// startSpinner creates and starts a spinner with the given message when not in verbose or debug mode.
// Returns the spinner and a function that should be deferred to clean up.
//
// IMPORTANT: spinner.FinalMSG values do NOT need trailing newlines. The cleanup function
// automatically calls ui.EnsureNewline() on the final message before printing it.
func startSpinner(message string, verbose bool) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	if err := s.Color("cyan"); err != nil {
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	quiet := !verbose && !debug
	if quiet {
		s.Start()
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		if quiet {
			log.SetOutput(os.Stdout)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		if quiet {
			s.Stop()
		}

		// Print final message to stdout (for tests to capture).
		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

// promptPassword returns a prompt that pauses the spinner while the
// password is typed.
func promptPassword(s *spinner.Spinner, label string) workflows.PasswordPrompt {
	return func() (string, error) {
		if s != nil && s.Active() {
			s.Stop()
			defer s.Start()
		}
		return utils.ReadPassword(label + ": ")
	}
}

// promptNewPassword asks twice and fails when the answers differ.
func promptNewPassword(s *spinner.Spinner) workflows.PasswordPrompt {
	return func() (string, error) {
		if s != nil && s.Active() {
			s.Stop()
			defer s.Start()
		}
		pw, err := utils.ReadPassword("Password: ")
		if err != nil {
			return "", err
		}
		confirm, err := utils.ReadPassword("Confirm password: ")
		if err != nil {
			return "", err
		}
		if pw != confirm {
			return "", fmt.Errorf("passwords do not match")
		}
		return pw, nil
	}
}

// readPasswordFlag returns the password given with --password-stdin, or
// value when stdin was not requested.
func readPasswordFlag(value string, fromStdin bool) (string, error) {
	if !fromStdin {
		return value, nil
	}
	if value != "" {
		return "", fmt.Errorf("--password and --password-stdin cannot be used together")
	}
	return utils.ReadPasswordStdin()
}

// formatError turns a workflow error into the final spinner message.
func formatError(err error) string {
	switch {
	case errors.Is(err, kerrors.ErrProjectNotInitialized):
		return ui.Error.Sprint("✗") + " pagelock has not been initialized\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("pagelock init") + " first"

	case errors.Is(err, kerrors.ErrProjectAlreadyInitialized):
		return ui.Error.Sprint("✗") + " pagelock is already initialized in this directory\n" +
			ui.Info.Sprint("→") + " See " + ui.Code.Sprint("pagelock config show") + " for its settings"

	case errors.Is(err, kerrors.ErrInvalidProjectConfig):
		return ui.Error.Sprint("✗") + " The pagelock configuration is invalid\n" +
			ui.Error.Sprint("Error: ") + err.Error()

	case errors.Is(err, kerrors.ErrNoFilesFound):
		return ui.Error.Sprint("✗") + " No HTML files found\n" +
			ui.Info.Sprint("→") + " Pass HTML files, directories or globs such as " + ui.Code.Sprint("'site/**/*.html'")

	case errors.Is(err, kerrors.ErrFileNotFound):
		return ui.Error.Sprint("✗") + " " + err.Error()

	case errors.Is(err, kerrors.ErrNoPassword):
		return ui.Error.Sprint("✗") + " No password given\n" +
			ui.Info.Sprint("→") + " Use " + ui.Flag.Sprint("--password") + ", " + ui.Flag.Sprint("--password-stdin") +
			" or set " + ui.Code.Sprint("PAGELOCK_PASSWORD")

	case errors.Is(err, kerrors.ErrNoSalt):
		return ui.Error.Sprint("✗") + " No salt configured\n" +
			ui.Info.Sprint("→") + " Use " + ui.Flag.Sprint("--salt") + ", " + ui.Flag.Sprint("--page") +
			" or run " + ui.Code.Sprint("pagelock init")

	case errors.Is(err, kerrors.ErrDecryption):
		return ui.Error.Sprint("✗") + " " + unlock.IncorrectPasswordMessage

	case errors.Is(err, kerrors.ErrFormat):
		return ui.Error.Sprint("✗") + " The page is not a pagelock page or is damaged\n" +
			ui.Error.Sprint("Error: ") + err.Error()

	default:
		return ui.Error.Sprint("✗") + " " + err.Error()
	}
}

// isUnexpectedError returns true if the error is unexpected and should cause a non-zero exit.
func isUnexpectedError(err error) bool {
	switch {
	case errors.Is(err, kerrors.ErrProjectNotInitialized),
		errors.Is(err, kerrors.ErrProjectAlreadyInitialized),
		errors.Is(err, kerrors.ErrNoFilesFound):
		return false
	default:
		return true
	}
}

// formatFileResults renders one status line per file of a batch.
func formatFileResults(results []workflows.FileResult, baseDir string) string {
	var b strings.Builder
	for _, r := range results {
		path := displayPath(r.Source, baseDir)
		switch {
		case r.Err != nil:
			b.WriteString(ui.StatusLine(false, path, r.Err.Error()))
		case r.Skipped:
			b.WriteString(ui.StatusLine(true, path, "unchanged"))
		default:
			b.WriteString(ui.StatusLine(true, path, ui.Plural(len(r.SectionIDs), "section")))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// displayPath shortens path to be relative to baseDir when it lies inside it.
func displayPath(path, baseDir string) string {
	if baseDir == "" {
		return path
	}
	rel, err := filepath.Rel(baseDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// workingDir returns the working directory, or "" when it cannot be read.
func workingDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}
