package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	prismerrors "github.com/alexisbeaulieu97/prism/pkg/errors"
)

const (
	EnvStateDir   = "PRISM_STATE_DIR"
	EnvLogLevel   = "PRISM_LOG_LEVEL"
	EnvAppearance = "PRISM_APPEARANCE"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// ParseConfig reads a configuration file, overlays it on the defaults and
// validates the result.
func ParseConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, prismerrors.NewParseError(path, 0, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, prismerrors.NewParseError(path, extractLine(err), err)
	}
	cfg.expandPaths()

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load resolves the effective configuration. A .env file next to the
// configuration is loaded first without overriding variables already set.
// A missing configuration file yields the defaults. Environment overrides
// are applied last.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	var cfg *Config
	parsed, err := ParseConfig(path)
	switch {
	case err == nil:
		cfg = parsed
	case !explicit && isNotExist(err):
		cfg = Default()
	default:
		return nil, err
	}

	cfg.applyEnv(os.LookupEnv)
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return prismerrors.NewParseError(path, 0, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if dir, ok := lookup(EnvStateDir); ok && dir != "" {
		c.UseStateDir(dir)
	}
	if level, ok := lookup(EnvLogLevel); ok && level != "" {
		c.Logging.Level = strings.ToLower(level)
	}
	if appearance, ok := lookup(EnvAppearance); ok && appearance != "" {
		c.Engine.Appearance = strings.ToLower(appearance)
	}
}

// UseStateDir relocates every path derived from the state directory.
func (c *Config) UseStateDir(dir string) {
	dir = expandHome(dir)
	c.Storage.Dir = filepath.Join(dir, "state")
	c.Analytics.Path = filepath.Join(dir, "usage.db")
	c.Palettes.Dir = filepath.Join(dir, "palettes")
	c.Output.CSSPath = filepath.Join(dir, "theme.css")
}

func (c *Config) expandPaths() {
	c.Storage.Dir = expandHome(c.Storage.Dir)
	c.Analytics.Path = expandHome(c.Analytics.Path)
	c.Palettes.Dir = expandHome(c.Palettes.Dir)
	c.Output.CSSPath = expandHome(c.Output.CSSPath)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func isNotExist(err error) bool {
	var parseErr *prismerrors.ParseError
	return errors.As(err, &parseErr) && errors.Is(parseErr.Err, os.ErrNotExist)
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	if _, scanErr := fmt.Sscanf(matches[1], "%d", &line); scanErr != nil {
		return 0
	}

	return line
}
