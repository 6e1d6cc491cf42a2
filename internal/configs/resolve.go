package configs

import (
	"errors"
	"fmt"

	"github.com/PolarWolf314/pagelock/internal/page"
	"github.com/PolarWolf314/pagelock/internal/sections"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every environment variable pagelock reads.
const EnvPrefix = "PAGELOCK_"

const (
	DefaultRememberDays     = 30
	DefaultMode             = string(page.ModeDocument)
	DefaultStartMarker      = "start"
	DefaultEndMarker        = "end"
	DefaultEncryptOutputDir = "encrypted"
	DefaultDecryptOutputDir = "decrypted"
)

// Settings is the effective configuration of one command run, merged from
// flags, environment, project config and defaults, in that order of
// precedence. Pointer fields distinguish "unset" from an explicit zero.
type Settings struct {
	Password        string `env:"PASSWORD"`
	Salt            string `env:"SALT"`
	RememberEnabled *bool  `env:"REMEMBER_ENABLED"`
	RememberDays    *int   `env:"REMEMBER_DAYS"`
	Mode            string `env:"MODE"`
	StartMarker     string `env:"START_MARKER"`
	EndMarker       string `env:"END_MARKER"`
	OutputDir       string `env:"OUTPUT_DIR"`
	CTALabel        string `env:"CTA_LABEL"`
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() *Settings {
	enabled := true
	days := DefaultRememberDays
	return &Settings{
		RememberEnabled: &enabled,
		RememberDays:    &days,
		Mode:            DefaultMode,
		StartMarker:     DefaultStartMarker,
		EndMarker:       DefaultEndMarker,
		OutputDir:       DefaultEncryptOutputDir,
		CTALabel:        sections.DefaultCallToAction,
	}
}

// Remember returns whether pages let readers remember their password and for
// how many days. Zero days turns remembering off; a negative value keeps
// remembered passwords until the reader forgets them, which the page encodes
// as zero.
func (s *Settings) Remember() (enabled bool, days int) {
	if s.RememberEnabled != nil && !*s.RememberEnabled {
		return false, 0
	}
	if s.RememberDays == nil {
		return true, DefaultRememberDays
	}
	switch d := *s.RememberDays; {
	case d == 0:
		return false, 0
	case d < 0:
		return true, 0
	default:
		return true, d
	}
}

// PageMode returns the parsed unlock mode.
func (s *Settings) PageMode() (page.Mode, error) {
	return page.ParseMode(s.Mode)
}

// Segmenter builds a segmenter from the configured markers and label.
func (s *Settings) Segmenter() (*sections.Segmenter, error) {
	return sections.New(
		sections.WithMarkers(sections.Markers{Start: s.StartMarker, End: s.EndMarker}),
		sections.WithCallToAction(s.CTALabel),
	)
}

func (s *Settings) validate() error {
	if _, err := s.PageMode(); err != nil {
		return err
	}
	if _, err := s.Segmenter(); err != nil {
		return err
	}
	return nil
}

func settingsFromProject(cfg *ProjectConfig) *Settings {
	e := cfg.Encryption
	return &Settings{
		Salt:            e.Salt,
		RememberEnabled: e.RememberEnabled,
		RememberDays:    e.RememberDays,
		Mode:            e.Mode,
		StartMarker:     e.StartMarker,
		EndMarker:       e.EndMarker,
		OutputDir:       e.OutputDir,
		CTALabel:        e.CTALabel,
	}
}

// Builder collects configuration layers. Layers added first win.
type Builder struct {
	layers []*Settings
	err    error
}

func NewBuilder() *Builder {
	return &Builder{layers: make([]*Settings, 0, 4)}
}

// WithFlags adds values taken from command-line flags.
func (b *Builder) WithFlags(s *Settings) *Builder {
	if s != nil {
		b.layers = append(b.layers, s)
	}
	return b
}

// WithEnv adds PAGELOCK_* environment variables.
func (b *Builder) WithEnv() *Builder {
	s := &Settings{}
	if err := env.ParseWithOptions(s, env.Options{Prefix: EnvPrefix}); err != nil {
		b.err = errors.Join(b.err, fmt.Errorf("error reading environment: %w", err))
		return b
	}
	b.layers = append(b.layers, s)
	return b
}

// WithProject adds the project config. A nil config is skipped.
func (b *Builder) WithProject(cfg *ProjectConfig) *Builder {
	if cfg != nil {
		b.layers = append(b.layers, settingsFromProject(cfg))
	}
	return b
}

// WithDefaults adds the built-in defaults. It is normally added last.
func (b *Builder) WithDefaults() *Builder {
	b.layers = append(b.layers, DefaultSettings())
	return b
}

// Build merges the layers and validates the result.
func (b *Builder) Build() (*Settings, error) {
	if b.err != nil {
		return nil, fmt.Errorf("error occurred while building config: %w", b.err)
	}

	settings := new(Settings)
	for _, layer := range b.layers {
		if err := mergo.Merge(settings, layer, mergo.WithoutDereference); err != nil {
			return nil, fmt.Errorf("error merging configs: %w", err)
		}
	}

	if err := settings.validate(); err != nil {
		return nil, err
	}
	return settings, nil
}
