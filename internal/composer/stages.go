package composer

import (
	"maps"
	"strings"

	"github.com/alexisbeaulieu97/prism/internal/domain/theme"
)

// Foundation tokens exist in every composition before the palette is laid
// over them.
var foundation = map[string]string{
	"space-xs":            "0.25rem",
	"space-sm":            "0.5rem",
	"space-md":            "1rem",
	"space-lg":            "1.5rem",
	"space-xl":            "2rem",
	"space-2xl":           "3rem",
	"font-size-xs":        "0.75rem",
	"font-size-sm":        "0.875rem",
	"font-size-md":        "1rem",
	"font-size-lg":        "1.125rem",
	"font-size-xl":        "1.25rem",
	"font-size-2xl":       "1.5rem",
	"line-height":         "1.5",
	"focus-ring-width":    "2px",
	"transition-duration": "200ms",
	"animation-duration":  "300ms",
}

const (
	spacePrefix    = "space-"
	fontSizePrefix = "font-size-"
)

type scale struct {
	spacing float64
	text    float64
}

var variantScales = map[theme.Variant]scale{
	theme.VariantDefault:     {spacing: 1, text: 1},
	theme.VariantCompact:     {spacing: 0.75, text: 0.9375},
	theme.VariantComfortable: {spacing: 1.25, text: 1.0625},
	theme.VariantAccessible:  {spacing: 1.25, text: 1.125},
}

var sizeFactors = map[theme.Size]float64{
	theme.SizeSmall:      0.875,
	theme.SizeMedium:     1,
	theme.SizeLarge:      1.125,
	theme.SizeExtraLarge: 1.25,
}

var densityFactors = map[theme.Density]float64{
	theme.DensityLow:    1.25,
	theme.DensityMedium: 1,
	theme.DensityHigh:   0.75,
}

const largerTextFactor = 1.25

// Stage transforms one variable map into a new one. Stages never mutate their input.
type Stage func(in map[string]string) map[string]string

func foundationStage() Stage {
	return func(map[string]string) map[string]string {
		return maps.Clone(foundation)
	}
}

func paletteStage(p theme.Palette, dark bool) Stage {
	return func(in map[string]string) map[string]string {
		out := maps.Clone(in)
		maps.Copy(out, p.Map(dark))
		return out
	}
}

func scaleStage(spacing, text float64) Stage {
	return func(in map[string]string) map[string]string {
		out := make(map[string]string, len(in))
		for name, value := range in {
			switch {
			case strings.HasPrefix(name, spacePrefix):
				out[name] = scaleLength(value, spacing)
			case strings.HasPrefix(name, fontSizePrefix):
				out[name] = scaleLength(value, text)
			default:
				out[name] = value
			}
		}
		return out
	}
}

func variantStage(v theme.Variant) Stage {
	s := variantScales[v]
	return scaleStage(s.spacing, s.text)
}

func sizeStage(s theme.Size) Stage {
	f := sizeFactors[s]
	return scaleStage(f, f)
}

func densityStage(d theme.Density) Stage {
	return scaleStage(densityFactors[d], 1)
}

func accessibilityStage(a *theme.Accessibility, dark bool) Stage {
	return func(in map[string]string) map[string]string {
		out := maps.Clone(in)
		if a.IsZero() {
			return out
		}
		if a.HighContrast {
			applyHighContrast(out, dark)
			out["focus-ring-width"] = scaleLength(out["focus-ring-width"], 2)
		}
		if a.FocusRingWidth != "" {
			out["focus-ring-width"] = a.FocusRingWidth
		}
		if a.ReducedMotion {
			out["transition-duration"] = "0ms"
			out["animation-duration"] = "0ms"
		}
		if a.LargerText {
			return scaleStage(1, largerTextFactor)(out)
		}
		return out
	}
}

// applyHighContrast pins background-like tokens to the mode extreme and
// pushes every other colour token to MinContrast against the background.
func applyHighContrast(vars map[string]string, dark bool) {
	extreme := white
	if dark {
		extreme = black
	}
	for name, value := range vars {
		if _, ok := parseColor(value); ok && theme.IsSurfaceName(name) {
			vars[name] = extreme.Hex()
		}
	}

	bg := extreme
	if c, ok := parseColor(theme.Alias(vars, dark).Get(theme.CanonicalBackground)); ok {
		bg = c
	}
	for name, value := range vars {
		if theme.IsSurfaceName(name) {
			continue
		}
		c, ok := parseColor(value)
		if !ok {
			continue
		}
		if adjusted := ensureContrast(c, bg, MinContrast); adjusted != c {
			vars[name] = adjusted.Hex()
		}
	}
}

func customizationStage(custom map[string]string) Stage {
	return func(in map[string]string) map[string]string {
		out := maps.Clone(in)
		maps.Copy(out, custom)
		return out
	}
}

// pipeline returns the ordered stages for a composition. Later stages win.
func pipeline(p theme.Palette, c theme.Composition) []Stage {
	return []Stage{
		foundationStage(),
		paletteStage(p, c.Dark),
		variantStage(c.Variant),
		sizeStage(c.Size),
		densityStage(c.Density),
		accessibilityStage(c.Accessibility, c.Dark),
		customizationStage(c.Customizations),
	}
}

func build(p theme.Palette, c theme.Composition) *theme.Variables {
	var vars map[string]string
	for _, stage := range pipeline(p, c) {
		vars = stage(vars)
	}
	return &theme.Variables{
		Raw:       vars,
		Canonical: theme.Alias(vars, c.Dark),
	}
}
