package theme

import (
	"maps"
	"regexp"
	"slices"

	perrors "github.com/alexisbeaulieu97/prism/pkg/errors"
)

// Palette is a named set of style variables for light and dark appearance.
type Palette struct {
	ID          string
	DisplayName string
	Category    string
	Light       map[string]string
	Dark        map[string]string
}

var paletteIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,63}$`)

// ValidPaletteID reports whether id is an acceptable palette identifier.
func ValidPaletteID(id string) bool {
	return paletteIDPattern.MatchString(id)
}

// Validate checks the identifier and that both variable maps share one key set.
func (p Palette) Validate() error {
	if !ValidPaletteID(p.ID) {
		return perrors.NewSchemaError(p.ID, "palette id must match "+paletteIDPattern.String())
	}
	if len(p.Light) == 0 {
		return perrors.NewSchemaError(p.ID, "palette defines no variables")
	}
	var missingDark, missingLight []string
	for key := range p.Light {
		if _, ok := p.Dark[key]; !ok {
			missingDark = append(missingDark, key)
		}
	}
	for key := range p.Dark {
		if _, ok := p.Light[key]; !ok {
			missingLight = append(missingLight, key)
		}
	}
	if len(missingDark) > 0 || len(missingLight) > 0 {
		return perrors.NewKeyParityError(p.ID, missingDark, missingLight)
	}
	return nil
}

// Map returns the variable map for the requested appearance.
func (p Palette) Map(dark bool) map[string]string {
	if dark {
		return p.Dark
	}
	return p.Light
}

// Keys returns the sorted variable names defined by the palette.
func (p Palette) Keys() []string {
	return slices.Sorted(maps.Keys(p.Light))
}

// Clone returns a deep copy of the palette.
func (p Palette) Clone() Palette {
	out := p
	out.Light = maps.Clone(p.Light)
	out.Dark = maps.Clone(p.Dark)
	return out
}

// Label returns the display name, falling back to the identifier.
func (p Palette) Label() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.ID
}
