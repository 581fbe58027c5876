package theme

import (
	"iter"
	"maps"
	"slices"
)

// CanonicalName is one of the semantic variables every palette guarantees to
// UI consumers.
type CanonicalName int

const (
	CanonicalBackground CanonicalName = iota
	CanonicalSurface
	CanonicalForeground
	CanonicalMutedForeground
	CanonicalBorder
	CanonicalPrimary

	canonicalCount
)

var canonicalNames = [canonicalCount]string{
	CanonicalBackground:      "background",
	CanonicalSurface:         "surface",
	CanonicalForeground:      "foreground",
	CanonicalMutedForeground: "muted-foreground",
	CanonicalBorder:          "border",
	CanonicalPrimary:         "primary",
}

// String returns the variable name without the leading dashes.
func (n CanonicalName) String() string {
	if n < 0 || n >= canonicalCount {
		return "unknown"
	}
	return canonicalNames[n]
}

// CanonicalNames lists every canonical name in declaration order.
func CanonicalNames() []CanonicalName {
	out := make([]CanonicalName, canonicalCount)
	for i := range out {
		out[i] = CanonicalName(i)
	}
	return out
}

// ParseCanonicalName maps a variable name back onto the enumeration.
func ParseCanonicalName(s string) (CanonicalName, bool) {
	for i, name := range canonicalNames {
		if name == s {
			return CanonicalName(i), true
		}
	}
	return 0, false
}

// CanonicalMap holds one value per canonical name.
type CanonicalMap [canonicalCount]string

// Get returns the value for name.
func (m CanonicalMap) Get(name CanonicalName) string {
	if name < 0 || name >= canonicalCount {
		return ""
	}
	return m[name]
}

// All yields every canonical name with its value.
func (m CanonicalMap) All() iter.Seq2[CanonicalName, string] {
	return func(yield func(CanonicalName, string) bool) {
		for i, v := range m {
			if !yield(CanonicalName(i), v) {
				return
			}
		}
	}
}

// Variables is the output of a composition: the open map of theme-internal
// names plus the canonical aliases derived from it. Values are shared between
// cache readers and must not be mutated.
type Variables struct {
	Raw       map[string]string
	Canonical CanonicalMap
}

// Get returns a raw variable.
func (v *Variables) Get(name string) (string, bool) {
	if v == nil {
		return "", false
	}
	value, ok := v.Raw[name]
	return value, ok
}

// Names returns the sorted raw variable names.
func (v *Variables) Names() []string {
	if v == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(v.Raw))
}

// Len returns the number of raw variables.
func (v *Variables) Len() int {
	if v == nil {
		return 0
	}
	return len(v.Raw)
}
