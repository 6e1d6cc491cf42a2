package configs

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/PolarWolf314/pagelock/internal/utils"
)

const (
	ConfigFileName      = "config.toml"
	AuditLogFileName    = "audit.jsonl"
	CredentialsFileName = "credentials.toml"
)

type UserSettings struct {
	UserConfigsPath string
	CredentialsPath string
	Username        string
}

type ProjectSettings struct {
	ProjectUUID  string
	ProjectName  string
	ProjectPath  string
	ConfigPath   string
	AuditLogPath string
}

var (
	UserPagelockSettings    *UserSettings
	ProjectPagelockSettings *ProjectSettings
)

func init() {
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, homeErr := os.UserHomeDir()
		if homeErr != nil {
			log.Fatalf("error getting config directory: %s", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	username, err := utils.GetUsername()
	if err != nil {
		username = "unknown"
	}

	// Independent of the working directory, so it is safe to set up here.
	UserPagelockSettings = &UserSettings{
		UserConfigsPath: filepath.Join(configDir, "pagelock"),
		CredentialsPath: filepath.Join(configDir, "pagelock", CredentialsFileName),
		Username:        username,
	}
	ProjectPagelockSettings = &ProjectSettings{}
}

// InitProjectSettings locates the enclosing project. Outside a project the
// settings stay empty and no error is returned.
func InitProjectSettings() error {
	projectPath, err := utils.FindProjectRoot()
	if err != nil {
		return fmt.Errorf("error getting project root: %w", err)
	}
	SetProjectPath(projectPath)
	return nil
}

// SetProjectPath points the project settings at projectPath, or clears them
// when it is empty.
func SetProjectPath(projectPath string) {
	if projectPath == "" {
		ProjectPagelockSettings = &ProjectSettings{}
		return
	}

	ProjectPagelockSettings = &ProjectSettings{
		ProjectName:  filepath.Base(projectPath),
		ProjectPath:  projectPath,
		ConfigPath:   ProjectConfigPath(projectPath),
		AuditLogPath: filepath.Join(projectPath, utils.ProjectDirName, AuditLogFileName),
	}
}

// ProjectConfigPath returns the config file of the project at projectPath.
func ProjectConfigPath(projectPath string) string {
	return filepath.Join(projectPath, utils.ProjectDirName, ConfigFileName)
}
