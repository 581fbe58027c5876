package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	prismerrors "github.com/alexisbeaulieu97/prism/pkg/errors"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "prism.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseConfigOverlaysDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), `
version: "1.0.0"
defaults:
  palette: ocean
  mode: dark
  variant: compact
  accessibility:
    high_contrast: true
    focus_ring_width: 3px
  customizations:
    color-primary: "#ff0000"
engine:
  transition_duration: 150ms
analytics:
  backend: sqlite
  path: /tmp/usage.db
  threshold: 0.8
logging:
  level: debug
  format: json
`)

	cfg, err := ParseConfig(path)
	require.NoError(t, err)
	require.Equal(t, "ocean", cfg.Defaults.Palette)
	require.Equal(t, "dark", cfg.Defaults.Mode)
	require.Equal(t, "md", cfg.Defaults.Size)
	require.True(t, cfg.Defaults.Accessibility.HighContrast)
	require.Equal(t, "3px", cfg.Defaults.Accessibility.FocusRingWidth)
	require.Equal(t, 150*time.Millisecond, cfg.Engine.TransitionDuration)
	require.Equal(t, "sqlite", cfg.Analytics.Backend)
	require.InDelta(t, 0.8, cfg.Analytics.Threshold, 1e-9)
	require.Equal(t, 168*time.Hour, cfg.Analytics.HalfLife)
	require.Equal(t, "json", cfg.Logging.Format)

	comp := cfg.Defaults.Composition(true)
	require.Equal(t, "ocean", comp.Base)
	require.Equal(t, "#ff0000", comp.Customizations["color-primary"])
	require.NoError(t, comp.Validate())
}

func TestParseConfigReportsLine(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), "defaults:\n  palette: [unterminated\n")
	_, err := ParseConfig(path)

	var parseErr *prismerrors.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, path, parseErr.Path)
	require.Positive(t, parseErr.Line)
}

func TestParseConfigRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"defaults.palette":                        "defaults:\n  palette: Not Valid\n",
		"defaults.mode":                           "defaults:\n  mode: dusk\n",
		"analytics.threshold":                     "analytics:\n  threshold: 1.5\n",
		"logging.format":                          "logging:\n  format: xml\n",
		"defaults.accessibility.focus_ring_width": "defaults:\n  accessibility:\n    focus_ring_width: wide\n",
	}
	for field, content := range cases {
		path := writeConfig(t, t.TempDir(), content)
		_, err := ParseConfig(path)

		var valErr *prismerrors.ValidationError
		require.ErrorAs(t, err, &valErr, field)
		require.Equal(t, field, valErr.Field)
	}
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	var parseErr *prismerrors.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestApplyEnvOverridesStatePaths(t *testing.T) {
	t.Parallel()

	cfg := Default()
	env := map[string]string{
		EnvStateDir:   "/srv/prism",
		EnvLogLevel:   "DEBUG",
		EnvAppearance: "dark",
	}
	cfg.applyEnv(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})

	require.Equal(t, filepath.Join("/srv/prism", "state"), cfg.Storage.Dir)
	require.Equal(t, filepath.Join("/srv/prism", "usage.db"), cfg.Analytics.Path)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "dark", cfg.Engine.Appearance)
	require.NoError(t, ValidateConfig(cfg))
}

func TestLoadReadsDotEnvNextToConfig(t *testing.T) {
	t.Setenv(EnvAppearance, "")
	require.NoError(t, os.Unsetenv(EnvAppearance))

	dir := t.TempDir()
	path := writeConfig(t, dir, "defaults:\n  palette: forest\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PRISM_APPEARANCE=light\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "forest", cfg.Defaults.Palette)
	require.Equal(t, "light", cfg.Engine.Appearance)
}
