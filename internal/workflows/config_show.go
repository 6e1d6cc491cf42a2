package workflows

import (
	"context"

	"github.com/PolarWolf314/pagelock/internal/configs"
)

// ConfigShowOptions configures the config show workflow.
type ConfigShowOptions struct {
	// BaseDir locates the project. Defaults to the working directory.
	BaseDir string
}

// ConfigShowResult holds the effective configuration.
type ConfigShowResult struct {
	// ProjectPath is empty outside a project.
	ProjectPath string
	Project     *configs.ProjectConfig

	// Settings are the merged values. Password is included if one is set
	// in the environment; callers must not print it.
	Settings *configs.Settings

	// CredentialsPath is where pagelock unlock remembers keys.
	CredentialsPath string
}

// ConfigShow resolves the configuration the other commands would use.
func ConfigShow(ctx context.Context, opts ConfigShowOptions) (*ConfigShowResult, error) {
	env, err := loadEnvironment(opts.BaseDir, nil)
	if err != nil {
		return nil, err
	}

	return &ConfigShowResult{
		ProjectPath:     env.projectPath,
		Project:         env.project,
		Settings:        env.settings,
		CredentialsPath: configs.UserPagelockSettings.CredentialsPath,
	}, nil
}
