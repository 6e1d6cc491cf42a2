package workflows

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PolarWolf314/pagelock/internal/configs"
	kerrors "github.com/PolarWolf314/pagelock/internal/errors"
	"github.com/PolarWolf314/pagelock/internal/secrets"
	"github.com/PolarWolf314/pagelock/internal/utils"
)

// PasswordPrompt asks the user for a password. It is only called when
// neither a flag nor PAGELOCK_PASSWORD supplied one.
type PasswordPrompt func() (string, error)

// environment is what a workflow knows about where it runs.
type environment struct {
	baseDir     string
	projectPath string
	project     *configs.ProjectConfig
	settings    *configs.Settings
}

// loadEnvironment locates the project enclosing baseDir and resolves the
// effective settings. Running outside a project is allowed.
func loadEnvironment(baseDir string, flags *configs.Settings) (*environment, error) {
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		baseDir = wd
	}
	baseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolving base directory: %w", err)
	}

	projectPath, err := utils.FindProjectRootFrom(baseDir)
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}
	configs.SetProjectPath(projectPath)

	var project *configs.ProjectConfig
	if projectPath != "" {
		project, err = configs.LoadProjectConfig(projectPath)
		if err != nil && !errors.Is(err, kerrors.ErrProjectNotInitialized) {
			return nil, err
		}
	}

	settings, err := configs.NewBuilder().
		WithFlags(flags).
		WithEnv().
		WithProject(project).
		WithDefaults().
		Build()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidProjectConfig, err)
	}

	return &environment{
		baseDir:     baseDir,
		projectPath: projectPath,
		project:     project,
		settings:    settings,
	}, nil
}

// outputDir returns dir as an absolute path, relative paths being taken
// from the base directory.
func (e *environment) outputDir(dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(e.baseDir, dir)
}

// password returns the configured password, falling back to prompt.
func (e *environment) password(prompt PasswordPrompt) (string, error) {
	if e.settings.Password != "" {
		return e.settings.Password, nil
	}
	if prompt == nil {
		return "", kerrors.ErrNoPassword
	}

	pw, err := prompt()
	if err != nil {
		return "", fmt.Errorf("%w: %v", kerrors.ErrNoPassword, err)
	}
	if pw == "" {
		return "", kerrors.ErrNoPassword
	}
	return pw, nil
}

// keyCache derives the key for each salt once per run.
type keyCache struct {
	password string
	keys     map[string]string
}

func newKeyCache(password string) *keyCache {
	return &keyCache{password: password, keys: make(map[string]string)}
}

func (c *keyCache) key(ctx context.Context, salt string) (string, error) {
	if k, ok := c.keys[salt]; ok {
		return k, nil
	}
	k, err := secrets.DeriveKeyContext(ctx, c.password, salt)
	if err != nil {
		return "", err
	}
	c.keys[salt] = k
	return k, nil
}

// isWithin reports whether path lies inside dir.
func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// FileResult is the outcome for one input file of a batch workflow.
type FileResult struct {
	// Source is the input file.
	Source string

	// Output is the written file. Empty when Err is set.
	Output string

	// SectionIDs lists the protected sections of the page.
	SectionIDs []string

	// Skipped is set when the page had nothing to encrypt or decrypt and was
	// copied unchanged.
	Skipped bool

	// Err is the per-file failure. Other files are still processed.
	Err error
}

// countFailed returns the number of results with an error.
func countFailed(results []FileResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// succeeded returns the outputs of the results without an error.
func succeeded(results []FileResult) []string {
	var out []string
	for _, r := range results {
		if r.Err == nil {
			out = append(out, r.Output)
		}
	}
	return out
}
