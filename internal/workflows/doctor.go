package workflows

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PolarWolf314/pagelock/internal/configs"
	kerrors "github.com/PolarWolf314/pagelock/internal/errors"
	"github.com/PolarWolf314/pagelock/internal/secrets"
)

// CheckStatus represents the result status of a health check.
type CheckStatus int

const (
	// CheckPass means the check passed.
	CheckPass CheckStatus = iota
	// CheckWarning means the check found a non-critical issue.
	CheckWarning
	// CheckError means the check found a critical issue.
	CheckError
)

// String returns a string representation of CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarning:
		return "warning"
	case CheckError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for CheckStatus.
func (s CheckStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// CheckResult holds the result of a single health check.
type CheckResult struct {
	Name       string      `json:"name"`
	Status     CheckStatus `json:"status"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// DoctorResult holds the complete result of the doctor workflow.
type DoctorResult struct {
	Checks      []CheckResult `json:"checks"`
	Summary     DoctorSummary `json:"summary"`
	Suggestions []string      `json:"suggestions,omitempty"`
}

// DoctorSummary holds counts of checks by status.
type DoctorSummary struct {
	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
}

// DoctorOptions configures the doctor workflow.
type DoctorOptions struct {
	// BaseDir locates the project. Defaults to the working directory.
	BaseDir string
}

// doctorContext is what every check may look at.
type doctorContext struct {
	ctx      context.Context
	env      *environment
	envErr   error
	credPath string
}

// Doctor runs health checks on the pagelock project.
//
// The doctor workflow checks:
//   - Project configuration validity
//   - The configured salt
//   - Permissions of the remembered credentials file
//   - Gitignore entries for decrypted output
//   - Pages that are unencrypted, stale or have broken markers
func Doctor(ctx context.Context, opts DoctorOptions) (*DoctorResult, error) {
	dc := &doctorContext{ctx: ctx, credPath: configs.UserPagelockSettings.CredentialsPath}
	dc.env, dc.envErr = loadEnvironment(opts.BaseDir, nil)

	checks := []func(*doctorContext) CheckResult{
		checkProjectConfig,
		checkSalt,
		checkCredentialsPermissions,
		checkGitignore,
		checkPages,
	}

	var results []CheckResult
	for _, check := range checks {
		results = append(results, check(dc))
	}

	var suggestions []string
	seen := make(map[string]bool)
	for _, result := range results {
		if result.Suggestion != "" && result.Status != CheckPass && !seen[result.Suggestion] {
			suggestions = append(suggestions, result.Suggestion)
			seen[result.Suggestion] = true
		}
	}

	return &DoctorResult{
		Checks:      results,
		Summary:     calculateDoctorSummary(results),
		Suggestions: suggestions,
	}, nil
}

func (dc *doctorContext) projectPath() string {
	if dc.env == nil {
		return ""
	}
	return dc.env.projectPath
}

// checkProjectConfig checks that .pagelock/config.toml exists and parses.
func checkProjectConfig(dc *doctorContext) CheckResult {
	const name = "Project configuration"

	if dc.envErr != nil {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("Failed to load configuration: %v", dc.envErr),
			Suggestion: "Fix .pagelock/config.toml or the PAGELOCK_ environment variables",
		}
	}
	if dc.projectPath() == "" || dc.env.project == nil {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    "Not inside a pagelock project",
			Suggestion: "Run 'pagelock init' to keep the salt and defaults in .pagelock/config.toml",
		}
	}
	if unknown := dc.env.project.Unknown; len(unknown) > 0 {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    fmt.Sprintf("Unknown keys in config: %s", strings.Join(unknown, ", ")),
			Suggestion: "Remove or correct the unknown keys in .pagelock/config.toml",
		}
	}

	return CheckResult{
		Name:    name,
		Status:  CheckPass,
		Message: "Project configuration is valid",
	}
}

// checkSalt checks that a salt is configured and is long enough.
func checkSalt(dc *doctorContext) CheckResult {
	const name = "Salt"

	if dc.env == nil {
		return CheckResult{Name: name, Status: CheckError, Message: "Cannot check salt: configuration failed to load"}
	}
	salt := dc.env.settings.Salt
	if salt == "" {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    "No salt configured, every encrypt run will generate a new one",
			Suggestion: "Run 'pagelock init' or set PAGELOCK_SALT so remembered passwords work across pages",
		}
	}
	if raw, err := hex.DecodeString(salt); err == nil && len(raw) < secrets.SaltSize {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    fmt.Sprintf("Salt is only %d bytes", len(raw)),
			Suggestion: fmt.Sprintf("Use a salt of at least %d random bytes", secrets.SaltSize),
		}
	}

	return CheckResult{
		Name:    name,
		Status:  CheckPass,
		Message: "Salt is configured",
	}
}

// checkCredentialsPermissions checks that remembered keys are private to the user.
func checkCredentialsPermissions(dc *doctorContext) CheckResult {
	const name = "Credentials permissions"

	info, err := os.Stat(dc.credPath)
	if errors.Is(err, os.ErrNotExist) {
		return CheckResult{
			Name:    name,
			Status:  CheckPass,
			Message: "No remembered credentials",
		}
	}
	if err != nil {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("Failed to stat credentials file: %v", err),
			Suggestion: "Check that the credentials file is accessible",
		}
	}

	if mode := info.Mode().Perm(); mode != 0600 {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    fmt.Sprintf("Credentials file has insecure permissions (%04o)", mode),
			Suggestion: fmt.Sprintf("Run 'chmod 600 %s' to fix permissions", dc.credPath),
		}
	}

	return CheckResult{
		Name:    name,
		Status:  CheckPass,
		Message: "Credentials file has correct permissions (0600)",
	}
}

// checkGitignore checks that decrypted pages are kept out of version control.
func checkGitignore(dc *doctorContext) CheckResult {
	const name = "Gitignore configuration"

	projectPath := dc.projectPath()
	if projectPath == "" {
		return CheckResult{
			Name:    name,
			Status:  CheckPass,
			Message: "Not inside a pagelock project (skipped)",
		}
	}

	content, err := os.ReadFile(filepath.Join(projectPath, ".gitignore"))
	if errors.Is(err, os.ErrNotExist) {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    "No .gitignore file found",
			Suggestion: fmt.Sprintf("Create a .gitignore containing %s/ so decrypted pages are never committed", configs.DefaultDecryptOutputDir),
		}
	}
	if err != nil {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("Failed to read .gitignore: %v", err),
			Suggestion: "Check that the .gitignore file is accessible",
		}
	}

	for _, line := range strings.Split(string(content), "\n") {
		line = strings.Trim(strings.TrimSpace(line), "/")
		if line == configs.DefaultDecryptOutputDir {
			return CheckResult{
				Name:    name,
				Status:  CheckPass,
				Message: "Decrypted output is ignored",
			}
		}
	}

	return CheckResult{
		Name:       name,
		Status:     CheckWarning,
		Message:    fmt.Sprintf("%s/ not found in .gitignore", configs.DefaultDecryptOutputDir),
		Suggestion: fmt.Sprintf("Add %s/ to .gitignore so decrypted pages are never committed", configs.DefaultDecryptOutputDir),
	}
}

// checkPages checks that every marked page has a current encrypted copy.
func checkPages(dc *doctorContext) CheckResult {
	const name = "Pages"

	projectPath := dc.projectPath()
	if projectPath == "" {
		return CheckResult{
			Name:    name,
			Status:  CheckPass,
			Message: "Not inside a pagelock project (skipped)",
		}
	}

	status, err := Status(dc.ctx, StatusOptions{BaseDir: projectPath})
	if errors.Is(err, kerrors.ErrNoFilesFound) {
		return CheckResult{
			Name:    name,
			Status:  CheckPass,
			Message: "No HTML pages in the project",
		}
	}
	if err != nil {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("Failed to scan pages: %v", err),
			Suggestion: "Check that the project directory is accessible",
		}
	}

	s := status.Summary
	if s.Invalid > 0 {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("%d page(s) have unbalanced markers", s.Invalid),
			Suggestion: "Run 'pagelock status' to see which pages cannot be encrypted",
		}
	}
	if s.Unencrypted > 0 || s.Stale > 0 {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    fmt.Sprintf("%d unencrypted and %d stale page(s)", s.Unencrypted, s.Stale),
			Suggestion: "Run 'pagelock encrypt .' to update encrypted pages",
		}
	}

	return CheckResult{
		Name:    name,
		Status:  CheckPass,
		Message: fmt.Sprintf("%d protected page(s) are up to date", s.Current),
	}
}

// calculateDoctorSummary calculates the counts of checks by status.
func calculateDoctorSummary(results []CheckResult) DoctorSummary {
	var summary DoctorSummary
	for _, result := range results {
		switch result.Status {
		case CheckPass:
			summary.Passed++
		case CheckWarning:
			summary.Warnings++
		case CheckError:
			summary.Errors++
		}
	}
	return summary
}
