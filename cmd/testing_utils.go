// Package cmd contains testing utilities shared between command tests.
// This file provides common functions for setting up test environments,
// capturing output, and running the root command.
package cmd

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/PolarWolf314/pagelock/internal/configs"
	logger "github.com/PolarWolf314/pagelock/internal/logging"
)

// pagelockEnvVars lists every PAGELOCK_ variable the commands read.
var pagelockEnvVars = []string{
	"PASSWORD", "SALT", "REMEMBER_ENABLED", "REMEMBER_DAYS", "MODE",
	"START_MARKER", "END_MARKER", "OUTPUT_DIR", "CTA_LABEL",
}

// setupTestEnvironment changes into a fresh temporary directory, points the
// user settings at another one and resets all command state. It returns the
// project directory.
func setupTestEnvironment(t *testing.T) string {
	t.Helper()

	tempDir := t.TempDir()
	tempUserDir := t.TempDir()

	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(tempDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}

	originalUserSettings := configs.UserPagelockSettings
	originalProjectSettings := configs.ProjectPagelockSettings

	t.Cleanup(func() {
		if err := os.Chdir(originalWd); err != nil {
			t.Fatalf("Failed to change to original directory: %v", err)
		}
		configs.UserPagelockSettings = originalUserSettings
		configs.ProjectPagelockSettings = originalProjectSettings
		ResetGlobalState()
	})

	configs.UserPagelockSettings = &configs.UserSettings{
		UserConfigsPath: filepath.Join(tempUserDir, "config"),
		CredentialsPath: filepath.Join(tempUserDir, "config", configs.CredentialsFileName),
		Username:        "testuser",
	}
	configs.ProjectPagelockSettings = &configs.ProjectSettings{}

	for _, name := range pagelockEnvVars {
		t.Setenv(configs.EnvPrefix+name, "")
	}
	t.Setenv("NO_COLOR", "1")

	ResetGlobalState()
	Logger = logger.Logger{}

	return tempDir
}

// captureOutput captures both stdout and stderr during function execution.
func captureOutput(fn func() error) (string, error) {
	originalStdout := os.Stdout
	originalStderr := os.Stderr

	stdoutReader, stdoutWriter, _ := os.Pipe()
	stderrReader, stderrWriter, _ := os.Pipe()

	os.Stdout = stdoutWriter
	os.Stderr = stderrWriter

	stdoutChan := make(chan string, 1)
	stderrChan := make(chan string, 1)

	go func() {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, stdoutReader); err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		stdoutChan <- buf.String()
	}()

	go func() {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, stderrReader); err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		stderrChan <- buf.String()
	}()

	err := fn()

	stdoutWriter.Close()
	stderrWriter.Close()

	os.Stdout = originalStdout
	os.Stderr = originalStderr

	stdout := <-stdoutChan
	stderr := <-stderrChan

	return stdout + stderr, err
}

// runCommand executes the root command with args and returns its output.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetCobraFlagState(RootCmd)
	if args == nil {
		// cobra falls back to os.Args on a nil slice.
		args = []string{}
	}
	RootCmd.SetArgs(args)
	return captureOutput(func() error {
		return RootCmd.Execute()
	})
}

// writeTestFile writes content to path relative to the working directory.
func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// readTestFile returns the content of path, failing the test if it is missing.
func readTestFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(data)
}

// verifyProjectStructure verifies that pagelock init created the project files.
func verifyProjectStructure(t *testing.T, projectDir string) {
	t.Helper()
	configPath := configs.ProjectConfigPath(projectDir)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Errorf("%s was not created", configPath)
	}
}
