package config

import (
	"time"

	"github.com/alexisbeaulieu97/prism/internal/domain/theme"
)

// Config is the top-level prism.yaml document.
type Config struct {
	Version   string          `yaml:"version" validate:"omitempty,semver"`
	Defaults  DefaultsConfig  `yaml:"defaults"`
	Engine    EngineConfig    `yaml:"engine"`
	Storage   StorageConfig   `yaml:"storage"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Logging   LoggingConfig   `yaml:"logging"`
	Palettes  PalettesConfig  `yaml:"palettes"`
	Output    OutputConfig    `yaml:"output"`
}

// DefaultsConfig is the composition applied on first run and on reset.
type DefaultsConfig struct {
	Palette        string              `yaml:"palette" validate:"required,palette_id"`
	Mode           string              `yaml:"mode" validate:"required,oneof=light dark system"`
	Variant        string              `yaml:"variant" validate:"required,oneof=default compact comfortable accessible"`
	Size           string              `yaml:"size" validate:"required,oneof=sm md lg xl"`
	Density        string              `yaml:"density" validate:"required,oneof=low medium high"`
	Accessibility  theme.Accessibility `yaml:"accessibility"`
	Customizations map[string]string   `yaml:"customizations" validate:"omitempty,dive,keys,token_name,endkeys,required"`
}

// EngineConfig tunes the engine's timing and ambient detection.
type EngineConfig struct {
	TransitionDuration time.Duration `yaml:"transition_duration" validate:"gte=0"`
	Appearance         string        `yaml:"appearance" validate:"oneof=auto light dark"`
	PollInterval       time.Duration `yaml:"poll_interval" validate:"gte=0"`
	Context            string        `yaml:"context"`
}

// StorageConfig selects the durable backend shared by every context.
type StorageConfig struct {
	Backend    string `yaml:"backend" validate:"oneof=file memory"`
	Dir        string `yaml:"dir" validate:"required_if=Backend file"`
	Key        string `yaml:"key" validate:"required,token_name"`
	QuotaBytes int    `yaml:"quota_bytes" validate:"gte=0"`
}

// AnalyticsConfig configures usage tracking and the recommendation scorer.
type AnalyticsConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Backend       string        `yaml:"backend" validate:"oneof=memory sqlite"`
	Path          string        `yaml:"path" validate:"required_if=Backend sqlite"`
	Threshold     float64       `yaml:"threshold" validate:"gt=0,lt=1"`
	HalfLife      time.Duration `yaml:"half_life" validate:"gt=0"`
	ContextWeight float64       `yaml:"context_weight" validate:"gte=0,lte=1"`
	MinSamples    int           `yaml:"min_samples" validate:"gte=1"`
	MaxEvents     int           `yaml:"max_events" validate:"gte=1"`
	MaxAge        time.Duration `yaml:"max_age" validate:"gte=0"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json logfmt"`
}

// PalettesConfig points at extra palette files loaded after the built-in set.
type PalettesConfig struct {
	Dir string `yaml:"dir"`
}

// OutputConfig controls the stylesheet document.
type OutputConfig struct {
	CSSPath  string `yaml:"css_path"`
	Selector string `yaml:"selector" validate:"required"`
}

// Composition returns the default composition described by the configuration.
func (d DefaultsConfig) Composition(dark bool) theme.Composition {
	a11y := d.Accessibility
	return theme.Composition{
		Base:           d.Palette,
		Dark:           dark,
		Variant:        theme.Variant(d.Variant),
		Size:           theme.Size(d.Size),
		Density:        theme.Density(d.Density),
		Customizations: d.Customizations,
		Accessibility:  &a11y,
	}.Normalize()
}
