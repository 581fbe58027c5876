package engine

import (
	"maps"

	"github.com/alexisbeaulieu97/prism/internal/domain/theme"
)

// Request describes a theme to apply. Zero-valued layers take their defaults;
// an empty Mode keeps the engine's default mode and an empty Context the
// engine's usage context.
type Request struct {
	PaletteID      string
	Mode           theme.Mode
	Variant        theme.Variant
	Size           theme.Size
	Density        theme.Density
	Accessibility  *theme.Accessibility
	Customizations map[string]string
	Context        string
}

// DefaultRequest is the built-in default composition in system mode.
func DefaultRequest() Request {
	c := theme.DefaultComposition(false)
	return Request{
		PaletteID: c.Base,
		Mode:      theme.ModeSystem,
		Variant:   c.Variant,
		Size:      c.Size,
		Density:   c.Density,
	}
}

// RequestFromState rebuilds the request that produced s.
func RequestFromState(s theme.State) Request {
	return Request{
		PaletteID:      s.PaletteID,
		Mode:           s.Mode,
		Variant:        s.Variant,
		Size:           s.Size,
		Density:        s.Density,
		Accessibility:  s.Accessibility.Clone(),
		Customizations: maps.Clone(s.Customizations),
	}
}

// RequestFromRecord rebuilds the request a persisted record describes.
func RequestFromRecord(r theme.Record) Request {
	return Request{
		PaletteID:      r.ColorThemeID,
		Mode:           r.Mode,
		Variant:        r.Variant,
		Size:           r.Size,
		Density:        r.Density,
		Accessibility:  r.Accessibility.Clone(),
		Customizations: maps.Clone(r.Customizations),
	}
}

// Composition returns the normalized composition for the resolved appearance.
func (r Request) Composition(dark bool) theme.Composition {
	return theme.Composition{
		Base:           r.PaletteID,
		Dark:           dark,
		Variant:        r.Variant,
		Size:           r.Size,
		Density:        r.Density,
		Customizations: r.Customizations,
		Accessibility:  r.Accessibility,
	}.Normalize()
}
