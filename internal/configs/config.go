package configs

import (
	"errors"
	"fmt"
	"os"
	"time"

	kerrors "github.com/PolarWolf314/pagelock/internal/errors"

	"github.com/google/uuid"
)

type ProjectConfig struct {
	Project    Project    `toml:"project"`
	Encryption Encryption `toml:"encryption"`

	// Unknown lists keys in the file that pagelock does not understand.
	Unknown []string `toml:"-"`
}

type Project struct {
	UUID      string    `toml:"project_uuid"`
	Name      string    `toml:"name"`
	CreatedAt time.Time `toml:"created_at"`
}

// Encryption holds the project's encoding defaults. Unset fields fall
// through to the built-in defaults.
type Encryption struct {
	Salt            string `toml:"salt"`
	RememberEnabled *bool  `toml:"remember_enabled,omitempty"`
	RememberDays    *int   `toml:"remember_days,omitempty"`
	Mode            string `toml:"mode,omitempty"`
	StartMarker     string `toml:"start_marker,omitempty"`
	EndMarker       string `toml:"end_marker,omitempty"`
	OutputDir       string `toml:"output_dir,omitempty"`
	CTALabel        string `toml:"cta_label,omitempty"`
}

// NewProjectConfig returns the config written by pagelock init.
func NewProjectConfig(name, salt string) *ProjectConfig {
	enabled := true
	days := DefaultRememberDays
	return &ProjectConfig{
		Project: Project{
			UUID:      GenerateProjectUUID(),
			Name:      name,
			CreatedAt: time.Now().UTC().Truncate(time.Second),
		},
		Encryption: Encryption{
			Salt:            salt,
			RememberEnabled: &enabled,
			RememberDays:    &days,
			Mode:            DefaultMode,
			StartMarker:     DefaultStartMarker,
			EndMarker:       DefaultEndMarker,
			OutputDir:       DefaultEncryptOutputDir,
		},
	}
}

// LoadProjectConfig loads the config of the project at projectPath.
func LoadProjectConfig(projectPath string) (*ProjectConfig, error) {
	configPath := ProjectConfigPath(projectPath)

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s does not exist", kerrors.ErrProjectNotInitialized, configPath)
	}

	config := &ProjectConfig{}
	unknown, err := LoadTOML(configPath, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidProjectConfig, err)
	}
	config.Unknown = unknown

	if err := settingsFromProject(config).validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidProjectConfig, err)
	}

	return config, nil
}

// SaveProjectConfig writes config for the project at projectPath.
func SaveProjectConfig(projectPath string, config *ProjectConfig) error {
	if err := SaveTOML(ProjectConfigPath(projectPath), config); err != nil {
		return fmt.Errorf("failed to save project config: %w", err)
	}
	return nil
}

// GenerateProjectUUID generates a new UUID for the project.
func GenerateProjectUUID() string {
	return uuid.New().String()
}
