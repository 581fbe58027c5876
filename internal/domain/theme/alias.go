package theme

// aliasSources lists, per canonical name, the richer source name followed by
// the legacy name.
var aliasSources = [canonicalCount][2]string{
	CanonicalBackground:      {"color-background", "bg"},
	CanonicalSurface:         {"color-surface", "bg-secondary"},
	CanonicalForeground:      {"color-text", "text"},
	CanonicalMutedForeground: {"color-text-muted", "text-secondary"},
	CanonicalBorder:          {"color-border", "border"},
	CanonicalPrimary:         {"color-primary", "accent"},
}

var modeDefaults = [2]CanonicalMap{
	{
		CanonicalBackground:      "#ffffff",
		CanonicalSurface:         "#f5f5f5",
		CanonicalForeground:      "#111111",
		CanonicalMutedForeground: "#666666",
		CanonicalBorder:          "#d0d0d0",
		CanonicalPrimary:         "#2563eb",
	},
	{
		CanonicalBackground:      "#0a0a0a",
		CanonicalSurface:         "#171717",
		CanonicalForeground:      "#f5f5f5",
		CanonicalMutedForeground: "#a3a3a3",
		CanonicalBorder:          "#2e2e2e",
		CanonicalPrimary:         "#60a5fa",
	},
}

// AliasSources returns the richer and legacy source names for a canonical name.
func AliasSources(name CanonicalName) (rich, legacy string) {
	if name < 0 || name >= canonicalCount {
		return "", ""
	}
	return aliasSources[name][0], aliasSources[name][1]
}

// IsSurfaceName reports whether a raw name is a background-like token.
func IsSurfaceName(name string) bool {
	for _, c := range []CanonicalName{CanonicalBackground, CanonicalSurface} {
		if name == aliasSources[c][0] || name == aliasSources[c][1] {
			return true
		}
	}
	return false
}

// Alias derives the canonical map from raw variables, preferring the richer
// source, then the legacy name, then the built-in default for the mode.
func Alias(raw map[string]string, dark bool) CanonicalMap {
	defaults := modeDefaults[0]
	if dark {
		defaults = modeDefaults[1]
	}
	var out CanonicalMap
	for i, sources := range aliasSources {
		switch {
		case raw[sources[0]] != "":
			out[i] = raw[sources[0]]
		case raw[sources[1]] != "":
			out[i] = raw[sources[1]]
		default:
			out[i] = defaults[i]
		}
	}
	return out
}
