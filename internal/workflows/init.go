package workflows

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/PolarWolf314/pagelock/internal/audit"
	"github.com/PolarWolf314/pagelock/internal/configs"
	kerrors "github.com/PolarWolf314/pagelock/internal/errors"
	"github.com/PolarWolf314/pagelock/internal/secrets"
	"github.com/PolarWolf314/pagelock/internal/utils"
)

// InitOptions configures the init workflow.
type InitOptions struct {
	// BaseDir is the directory to initialize. Defaults to the working directory.
	BaseDir string

	// ProjectName is the name for the project. If empty, uses the directory name.
	ProjectName string

	// Salt reuses an existing salt, e.g. one printed by an earlier encrypt.
	// If empty, a new one is generated.
	Salt string
}

// InitResult contains the outcome of an init operation.
type InitResult struct {
	ProjectName string
	ProjectUUID string
	ProjectPath string
	ConfigPath  string

	// Salt is the project salt written to the config.
	Salt string

	// SaltGenerated is set when Salt was made by this run.
	SaltGenerated bool
}

// Init creates .pagelock/config.toml in the base directory.
//
// Returns ErrProjectAlreadyInitialized if the directory already has one.
func Init(ctx context.Context, opts InitOptions) (*InitResult, error) {
	baseDir := opts.BaseDir
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

	projectDir := filepath.Join(baseDir, utils.ProjectDirName)
	if _, err := os.Stat(projectDir); err == nil {
		return nil, kerrors.ErrProjectAlreadyInitialized
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("checking %s: %w", projectDir, err)
	}

	projectName := opts.ProjectName
	if projectName == "" {
		projectName = filepath.Base(baseDir)
	}

	result := &InitResult{
		ProjectName: projectName,
		ProjectPath: baseDir,
		ConfigPath:  configs.ProjectConfigPath(baseDir),
		Salt:        opts.Salt,
	}
	if result.Salt == "" {
		if result.Salt, err = secrets.GenerateSalt(); err != nil {
			return nil, err
		}
		result.SaltGenerated = true
	}

	config := configs.NewProjectConfig(projectName, result.Salt)
	result.ProjectUUID = config.Project.UUID

	if err := configs.SaveProjectConfig(baseDir, config); err != nil {
		os.RemoveAll(projectDir)
		return nil, err
	}
	configs.SetProjectPath(baseDir)

	entry := audit.LogWithUser(audit.OpInit)
	entry.ProjectName = projectName
	entry.ProjectUUID = config.Project.UUID
	audit.Log(entry)

	return result, nil
}
