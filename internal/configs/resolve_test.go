package configs

import (
	"testing"

	"github.com/PolarWolf314/pagelock/internal/page"
	"github.com/PolarWolf314/pagelock/internal/sections"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestBuilder_DefaultsOnly(t *testing.T) {
	s, err := NewBuilder().WithDefaults().Build()
	require.NoError(t, err)

	assert.Equal(t, DefaultEncryptOutputDir, s.OutputDir)
	assert.Equal(t, DefaultMode, s.Mode)
	assert.Equal(t, sections.DefaultCallToAction, s.CTALabel)

	enabled, days := s.Remember()
	assert.True(t, enabled)
	assert.Equal(t, DefaultRememberDays, days)
}

func TestBuilder_Precedence(t *testing.T) {
	t.Setenv("PAGELOCK_SALT", "env-salt")
	t.Setenv("PAGELOCK_OUTPUT_DIR", "env-out")
	t.Setenv("PAGELOCK_REMEMBER_DAYS", "5")
	t.Setenv("PAGELOCK_PASSWORD", "env-password")

	project := &ProjectConfig{Encryption: Encryption{
		Salt:         "file-salt",
		RememberDays: intPtr(9),
		Mode:         "section",
		OutputDir:    "file-out",
	}}
	flags := &Settings{OutputDir: "flag-out"}

	s, err := NewBuilder().WithFlags(flags).WithEnv().WithProject(project).WithDefaults().Build()
	require.NoError(t, err)

	assert.Equal(t, "flag-out", s.OutputDir)
	assert.Equal(t, "env-salt", s.Salt)
	assert.Equal(t, "env-password", s.Password)
	require.NotNil(t, s.RememberDays)
	assert.Equal(t, 5, *s.RememberDays)

	mode, err := s.PageMode()
	require.NoError(t, err)
	assert.Equal(t, page.ModeSection, mode)
}

func TestBuilder_ExplicitZeroWins(t *testing.T) {
	project := &ProjectConfig{Encryption: Encryption{RememberDays: intPtr(9)}}
	flags := &Settings{RememberDays: intPtr(0)}

	s, err := NewBuilder().WithFlags(flags).WithProject(project).WithDefaults().Build()
	require.NoError(t, err)

	require.NotNil(t, s.RememberDays)
	assert.Equal(t, 0, *s.RememberDays)
	assert.Equal(t, 9, *project.Encryption.RememberDays, "merging must not write through to a lower layer")

	enabled, _ := s.Remember()
	assert.False(t, enabled)
}

func TestBuilder_InvalidEnv(t *testing.T) {
	t.Setenv("PAGELOCK_REMEMBER_DAYS", "a week")

	_, err := NewBuilder().WithEnv().WithDefaults().Build()
	require.Error(t, err)
}

func TestBuilder_InvalidMode(t *testing.T) {
	_, err := NewBuilder().WithFlags(&Settings{Mode: "paragraph"}).WithDefaults().Build()
	require.Error(t, err)
}

func TestSettings_Remember(t *testing.T) {
	tests := []struct {
		name        string
		settings    Settings
		wantEnabled bool
		wantDays    int
	}{
		{"Unset", Settings{}, true, DefaultRememberDays},
		{"Days", Settings{RememberDays: intPtr(7)}, true, 7},
		{"ZeroDisables", Settings{RememberDays: intPtr(0)}, false, 0},
		{"NegativeNeverExpires", Settings{RememberDays: intPtr(-1)}, true, 0},
		{"Disabled", Settings{RememberEnabled: boolPtr(false), RememberDays: intPtr(7)}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enabled, days := tt.settings.Remember()
			assert.Equal(t, tt.wantEnabled, enabled)
			assert.Equal(t, tt.wantDays, days)
		})
	}
}

func TestSettings_Segmenter(t *testing.T) {
	s := &Settings{StartMarker: "secret", EndMarker: "/secret"}
	seg, err := s.Segmenter()
	require.NoError(t, err)

	_, secs, err := seg.Extract(`<p>a</p><!-- secret -->hidden<!-- /secret -->`)
	require.NoError(t, err)
	require.Len(t, secs, 1)
	assert.Equal(t, "hidden", secs[0].Content)
}
