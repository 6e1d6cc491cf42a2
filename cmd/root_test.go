package cmd

import (
	"os"
	"strings"
	"testing"

	"github.com/PolarWolf314/pagelock/internal/secrets"
)

func TestMain(m *testing.M) {
	restore := secrets.SetIterations(1000)
	code := m.Run()
	restore()
	os.Exit(code)
}

const (
	testProtectedPage = `<html><head><title>Members</title></head><body><p>public</p><!-- start --><p>members only</p><!-- end --><p>footer</p><!-- start --><p>second secret</p><!-- end --></body></html>`
	testPlainPage     = `<html><body><p>nothing to hide</p></body></html>`
)

// writeTestSite creates site/index.html with two protected regions and a
// page without markers.
func writeTestSite(t *testing.T) {
	t.Helper()
	writeTestFile(t, "site/index.html", testProtectedPage)
	writeTestFile(t, "site/posts/plain.html", testPlainPage)
}

func TestRootCommand_PrintsBanner(t *testing.T) {
	setupTestEnvironment(t)

	output, err := runCommand(t)
	if err != nil {
		t.Fatalf("root command failed: %v", err)
	}
	if !strings.Contains(output, "pagelock --help") {
		t.Errorf("expected help hint, got: %s", output)
	}
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	want := []string{"init", "encrypt", "decrypt", "share", "unlock", "status", "log", "clean", "doctor", "config"}
	for _, name := range want {
		found := false
		for _, c := range GetRootCmd().Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q is not registered", name)
		}
	}
}

func TestNormalizeFlagName_AcceptsUnderscores(t *testing.T) {
	setupTestEnvironment(t)
	writeTestSite(t)

	output, err := runCommand(t, "encrypt", "site", "--password", "pw", "--salt", "s", "--remember_days", "7")
	if err != nil {
		t.Fatalf("encrypt with --remember_days failed: %v\n%s", err, output)
	}
	if encryptRememberDays != 7 {
		t.Errorf("expected remember days 7, got %d", encryptRememberDays)
	}
}

func TestResetGlobalState(t *testing.T) {
	SetVerbose(true)
	SetDebug(true)
	encryptPassword = "leftover"
	unlockAttempts = 9

	ResetGlobalState()

	if verbose || debug {
		t.Error("verbose and debug should be reset")
	}
	if encryptPassword != "" {
		t.Error("encrypt password should be reset")
	}
	if unlockAttempts != 3 {
		t.Errorf("unlock attempts should be reset to 3, got %d", unlockAttempts)
	}
}
