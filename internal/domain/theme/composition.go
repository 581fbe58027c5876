package theme

import (
	"encoding/json"
	"maps"
	"regexp"
	"slices"
	"strings"
)

// Variant selects the spacing and type scale of a composition.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantCompact     Variant = "compact"
	VariantComfortable Variant = "comfortable"
	VariantAccessible  Variant = "accessible"
)

// Valid reports whether v is a known variant.
func (v Variant) Valid() bool {
	switch v {
	case VariantDefault, VariantCompact, VariantComfortable, VariantAccessible:
		return true
	}
	return false
}

// Size scales spacing and typography tokens.
type Size string

const (
	SizeSmall      Size = "sm"
	SizeMedium     Size = "md"
	SizeLarge      Size = "lg"
	SizeExtraLarge Size = "xl"
)

// Valid reports whether s is a known size.
func (s Size) Valid() bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge, SizeExtraLarge:
		return true
	}
	return false
}

// Density scales spacing tokens only.
type Density string

const (
	DensityLow    Density = "low"
	DensityMedium Density = "medium"
	DensityHigh   Density = "high"
)

// Valid reports whether d is a known density.
func (d Density) Valid() bool {
	switch d {
	case DensityLow, DensityMedium, DensityHigh:
		return true
	}
	return false
}

// Accessibility holds optional overrides applied after size and density.
type Accessibility struct {
	HighContrast   bool   `json:"highContrast,omitempty" yaml:"high_contrast"`
	ReducedMotion  bool   `json:"reducedMotion,omitempty" yaml:"reduced_motion"`
	LargerText     bool   `json:"largerText,omitempty" yaml:"larger_text"`
	FocusRingWidth string `json:"focusRingWidth,omitempty" yaml:"focus_ring_width"`
}

// IsZero reports whether no override is requested.
func (a *Accessibility) IsZero() bool {
	return a == nil || *a == Accessibility{}
}

// Clone returns a copy of a, or nil when no override is requested.
func (a *Accessibility) Clone() *Accessibility {
	if a.IsZero() {
		return nil
	}
	c := *a
	return &c
}

// Composition is the resolved combination of a palette with the presentation
// layers applied on top of it.
type Composition struct {
	Base           string            `json:"base"`
	Dark           bool              `json:"dark"`
	Variant        Variant           `json:"variant"`
	Size           Size              `json:"size"`
	Density        Density           `json:"density"`
	Customizations map[string]string `json:"customizations,omitempty"`
	Accessibility  *Accessibility    `json:"accessibility,omitempty"`
}

// DefaultComposition is the composition substituted for invalid input.
func DefaultComposition(dark bool) Composition {
	return Composition{
		Base:    DefaultPaletteID,
		Dark:    dark,
		Variant: VariantDefault,
		Size:    SizeMedium,
		Density: DensityMedium,
	}
}

// DefaultPaletteID names the palette every installation ships with.
const DefaultPaletteID = "default"

// Normalize fills empty enum fields with their defaults and drops empty
// optional layers so equivalent compositions share a key.
func (c Composition) Normalize() Composition {
	out := c
	if out.Variant == "" {
		out.Variant = VariantDefault
	}
	if out.Size == "" {
		out.Size = SizeMedium
	}
	if out.Density == "" {
		out.Density = DensityMedium
	}
	if len(out.Customizations) == 0 {
		out.Customizations = nil
	} else {
		out.Customizations = maps.Clone(out.Customizations)
	}
	out.Accessibility = out.Accessibility.Clone()
	return out
}

// Validate checks enum members and the focus ring width. It does not check
// that Base is registered.
func (c Composition) Validate() error {
	n := c.Normalize()
	if n.Base == "" {
		return newMissingFieldError("base")
	}
	if !n.Variant.Valid() {
		return newEnumError("variant", string(n.Variant))
	}
	if !n.Size.Valid() {
		return newEnumError("size", string(n.Size))
	}
	if !n.Density.Valid() {
		return newEnumError("density", string(n.Density))
	}
	if n.Accessibility != nil && n.Accessibility.FocusRingWidth != "" && !IsCSSLength(n.Accessibility.FocusRingWidth) {
		return newEnumError("focusRingWidth", n.Accessibility.FocusRingWidth)
	}
	return validateCustomizations(n.Customizations)
}

// Key returns the stable cache key of the normalized composition. Map keys
// are serialized in sorted order, so the key does not depend on insertion order.
func (c Composition) Key() string {
	data, err := json.Marshal(c.Normalize())
	if err != nil {
		return ""
	}
	return string(data)
}

var cssLengthPattern = regexp.MustCompile(`^(0|\d+(\.\d+)?(px|rem|em|pt|%))$`)

// IsCSSLength reports whether s is a plain CSS length such as 2px or 0.125rem.
func IsCSSLength(s string) bool {
	return cssLengthPattern.MatchString(s)
}

var tokenNamePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// ValidTokenName reports whether name can be written as a custom property.
func ValidTokenName(name string) bool {
	return tokenNamePattern.MatchString(name)
}

// ValidTokenValue reports whether v stays inside a single declaration.
func ValidTokenValue(v string) bool {
	return !strings.ContainsAny(v, ";{}\r\n")
}

func validateCustomizations(m map[string]string) error {
	for _, name := range slices.Sorted(maps.Keys(m)) {
		if !ValidTokenName(name) {
			return newEnumError("customization name", name)
		}
		if !ValidTokenValue(m[name]) {
			return newEnumError("customization "+name, m[name])
		}
	}
	return nil
}
