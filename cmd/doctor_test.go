package cmd

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/PolarWolf314/pagelock/internal/configs"
)

// stubDoctorExit records the exit code doctor asks for.
func stubDoctorExit(t *testing.T) *int {
	t.Helper()
	code := 0
	SetDoctorExitFunc(func(c int) { code = c })
	return &code
}

func TestDoctorCommand_HealthyProject(t *testing.T) {
	setupTestEnvironment(t)
	code := stubDoctorExit(t)

	if _, err := runCommand(t, "init"); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	writeTestFile(t, ".gitignore", "decrypted/\n")
	encryptTestSite(t)

	output, err := runCommand(t, "doctor")
	if err != nil {
		t.Fatalf("doctor failed: %v\n%s", err, output)
	}
	if *code != 0 {
		t.Errorf("expected exit code 0, got %d\n%s", *code, output)
	}
	if !strings.Contains(output, "Health checks completed") {
		t.Errorf("expected completion message, got: %s", output)
	}
}

func TestDoctorCommand_WarnsOutsideProject(t *testing.T) {
	setupTestEnvironment(t)
	code := stubDoctorExit(t)

	output, err := runCommand(t, "doctor")
	if err != nil {
		t.Fatalf("doctor failed: %v\n%s", err, output)
	}
	if *code != 1 {
		t.Errorf("expected exit code 1 for warnings, got %d", *code)
	}
	if !strings.Contains(output, "Suggestions:") {
		t.Errorf("expected suggestions, got: %s", output)
	}
}

func TestDoctorCommand_ErrorsOnInvalidPages(t *testing.T) {
	setupTestEnvironment(t)
	code := stubDoctorExit(t)

	if _, err := runCommand(t, "init"); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	writeTestFile(t, "broken.html", "<!-- start --><p>never closed</p>")

	if _, err := runCommand(t, "doctor"); err != nil {
		t.Fatalf("doctor failed: %v", err)
	}
	if *code != 2 {
		t.Errorf("expected exit code 2 for errors, got %d", *code)
	}
}

func TestDoctorCommand_JSON(t *testing.T) {
	setupTestEnvironment(t)
	stubDoctorExit(t)

	if _, err := runCommand(t, "init"); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	credentials := configs.UserPagelockSettings.CredentialsPath
	writeTestFile(t, credentials, "{}")
	if err := os.Chmod(credentials, 0644); err != nil {
		t.Fatalf("chmod failed: %v", err)
	}

	output, err := runCommand(t, "doctor", "--json")
	if err != nil {
		t.Fatalf("doctor failed: %v\n%s", err, output)
	}

	var result struct {
		Checks []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"checks"`
	}
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("doctor --json is not valid JSON: %v\n%s", err, output)
	}
	if len(result.Checks) == 0 {
		t.Fatal("expected checks in JSON output")
	}
	found := false
	for _, c := range result.Checks {
		if strings.Contains(strings.ToLower(c.Name), "credentials") {
			found = true
			if c.Status != "warning" {
				t.Errorf("expected a warning for a world-readable credentials file, got %q", c.Status)
			}
		}
	}
	if !found {
		t.Error("expected a credentials check")
	}
}
