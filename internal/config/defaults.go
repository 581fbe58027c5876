package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/alexisbeaulieu97/prism/internal/domain/theme"
)

const (
	// DefaultDirName is the per-user state directory under the home directory.
	DefaultDirName = ".prism"
	// DefaultFileName is the configuration file looked up inside the state directory.
	DefaultFileName = "prism.yaml"
	// DefaultStorageKey is the key the theme record is stored under.
	DefaultStorageKey = "prism-theme"
)

// Default returns the built-in configuration.
func Default() *Config {
	dir := DefaultStateDir()
	return &Config{
		Version: "1.0.0",
		Defaults: DefaultsConfig{
			Palette: theme.DefaultPaletteID,
			Mode:    string(theme.ModeSystem),
			Variant: string(theme.VariantDefault),
			Size:    string(theme.SizeMedium),
			Density: string(theme.DensityMedium),
		},
		Engine: EngineConfig{
			TransitionDuration: 300 * time.Millisecond,
			Appearance:         "auto",
			Context:            "cli",
		},
		Storage: StorageConfig{
			Backend: "file",
			Dir:     filepath.Join(dir, "state"),
			Key:     DefaultStorageKey,
		},
		Analytics: AnalyticsConfig{
			Enabled:       true,
			Backend:       "memory",
			Path:          filepath.Join(dir, "usage.db"),
			Threshold:     0.7,
			HalfLife:      168 * time.Hour,
			ContextWeight: 0.25,
			MinSamples:    3,
			MaxEvents:     500,
			MaxAge:        90 * 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Palettes: PalettesConfig{
			Dir: filepath.Join(dir, "palettes"),
		},
		Output: OutputConfig{
			CSSPath:  filepath.Join(dir, "theme.css"),
			Selector: ":root",
		},
	}
}

// DefaultStateDir returns ~/.prism, or a relative .prism when the home
// directory cannot be determined.
func DefaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return DefaultDirName
	}
	return filepath.Join(home, DefaultDirName)
}

// DefaultPath returns the default configuration file location.
func DefaultPath() string {
	return filepath.Join(DefaultStateDir(), DefaultFileName)
}
