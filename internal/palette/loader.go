package palette

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/prism/internal/config"
	"github.com/alexisbeaulieu97/prism/internal/domain/theme"
	"github.com/alexisbeaulieu97/prism/internal/logger"
	prismerrors "github.com/alexisbeaulieu97/prism/pkg/errors"
)

//go:embed palettes/*.yaml
var builtin embed.FS

// File is the on-disk YAML shape of a palette.
type File struct {
	ID       string            `yaml:"id" validate:"required,palette_id"`
	Name     string            `yaml:"name" validate:"required"`
	Category string            `yaml:"category"`
	Light    map[string]string `yaml:"light" validate:"required,min=1,dive,keys,token_name,endkeys,required"`
	Dark     map[string]string `yaml:"dark" validate:"required,min=1,dive,keys,token_name,endkeys,required"`
}

// Palette converts the file into a domain palette.
func (f File) Palette() theme.Palette {
	return theme.Palette{
		ID:          f.ID,
		DisplayName: f.Name,
		Category:    f.Category,
		Light:       f.Light,
		Dark:        f.Dark,
	}
}

// Validate checks the struct tags and that every color-* token holds a CSS colour.
func (f File) Validate() error {
	if err := config.GetValidator().Struct(f); err != nil {
		return config.ConvertValidationError(err)
	}
	for side, vars := range map[string]map[string]string{"light": f.Light, "dark": f.Dark} {
		for _, key := range sortedKeys(vars) {
			if strings.HasPrefix(key, "color-") && !config.IsCSSColor(vars[key]) {
				return prismerrors.NewValidationError(side+"."+key, fmt.Sprintf("%q is not a CSS colour", vars[key]), nil)
			}
		}
	}
	return nil
}

// Loader registers palettes parsed from YAML sources.
type Loader struct {
	registry *Registry
	log      *logger.Logger
}

// NewLoader creates a Loader writing into registry.
func NewLoader(registry *Registry, log *logger.Logger) *Loader {
	if log == nil {
		log = logger.Nop()
	}
	return &Loader{registry: registry, log: log.Component("palette_loader")}
}

// LoadBuiltin registers the palettes shipped with prism.
func (l *Loader) LoadBuiltin() (int, error) {
	return l.loadFS(builtin, "palettes", "builtin")
}

// LoadDir registers every *.yaml or *.yml file in dir. A missing directory is
// not an error. The first file that fails to parse or register aborts loading.
func (l *Loader) LoadDir(dir string) (int, error) {
	if dir == "" {
		return 0, nil
	}
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		l.log.Debug("palette directory not found", "dir", dir)
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("palette path %s is not a directory", dir)
	}
	return l.loadFS(os.DirFS(dir), ".", dir)
}

func (l *Loader) loadFS(fsys fs.FS, root, source string) (int, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return 0, fmt.Errorf("read palettes from %s: %w", source, err)
	}

	log := l.log.Source(source)
	loaded := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		p, err := l.parse(fsys, path.Join(root, name), path.Join(source, name))
		if err != nil {
			log.Error(err, "palette rejected", "file", name)
			return loaded, err
		}
		if err := l.registry.Register(p); err != nil {
			log.Error(err, "palette rejected", "file", name)
			return loaded, err
		}
		log.Debug("palette registered", "palette_id", p.ID, "tokens", len(p.Light))
		loaded++
	}
	return loaded, nil
}

func (l *Loader) parse(fsys fs.FS, name, display string) (theme.Palette, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return theme.Palette{}, prismerrors.NewParseError(display, 0, err)
	}
	return Parse(display, data)
}

// Parse decodes and validates a single palette document.
func Parse(name string, data []byte) (theme.Palette, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return theme.Palette{}, prismerrors.NewParseError(name, 0, err)
	}
	if err := file.Validate(); err != nil {
		return theme.Palette{}, err
	}
	return file.Palette(), nil
}

// NewBuiltinRegistry returns a registry preloaded with the built-in palettes.
func NewBuiltinRegistry() (*Registry, error) {
	reg := NewRegistry()
	if _, err := NewLoader(reg, nil).LoadBuiltin(); err != nil {
		return nil, err
	}
	return reg, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
