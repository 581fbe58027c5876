package theme

import (
	"maps"
	"time"
)

// SchemaVersion is the version stamped on every persisted record. Records
// carrying any other version are discarded.
const SchemaVersion = "1.0"

// State is the engine's view of the committed theme.
type State struct {
	Mode           Mode
	PaletteID      string
	Variant        Variant
	Size           Size
	Density        Density
	Accessibility  *Accessibility
	Customizations map[string]string
	ResolvedDark   bool
	Transitioning  bool
	LastChanged    time.Time
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := s
	out.Accessibility = s.Accessibility.Clone()
	out.Customizations = maps.Clone(s.Customizations)
	return out
}

// Composition returns the composition the state was built from.
func (s State) Composition() Composition {
	return Composition{
		Base:           s.PaletteID,
		Dark:           s.ResolvedDark,
		Variant:        s.Variant,
		Size:           s.Size,
		Density:        s.Density,
		Customizations: s.Customizations,
		Accessibility:  s.Accessibility,
	}.Normalize()
}

// Record converts the state into its persisted form.
func (s State) Record() Record {
	rec := Record{
		Mode:           s.Mode,
		ColorThemeID:   s.PaletteID,
		Variant:        s.Variant,
		Customizations: maps.Clone(s.Customizations),
		Timestamp:      s.LastChanged.UTC(),
		SchemaVersion:  SchemaVersion,
		Accessibility:  s.Accessibility.Clone(),
	}
	if s.Size != SizeMedium {
		rec.Size = s.Size
	}
	if s.Density != DensityMedium {
		rec.Density = s.Density
	}
	if rec.Customizations == nil {
		rec.Customizations = map[string]string{}
	}
	return rec
}

// Record is the versioned, persisted theme choice. It doubles as the
// export/import blob.
type Record struct {
	Mode           Mode              `json:"mode"`
	ColorThemeID   string            `json:"colorThemeId"`
	Variant        Variant           `json:"variant"`
	Customizations map[string]string `json:"customizations"`
	Timestamp      time.Time         `json:"timestamp"`
	SchemaVersion  string            `json:"schemaVersion"`
	Size           Size              `json:"size,omitempty"`
	Density        Density           `json:"density,omitempty"`
	Accessibility  *Accessibility    `json:"accessibility,omitempty"`
}

// Validate checks required fields, enum members and the schema version.
func (r Record) Validate() error {
	switch {
	case r.SchemaVersion == "":
		return newMissingFieldError("schemaVersion")
	case r.SchemaVersion != SchemaVersion:
		return newVersionError(r.SchemaVersion)
	case r.Mode == "":
		return newMissingFieldError("mode")
	case !r.Mode.Valid():
		return newEnumError("mode", string(r.Mode))
	case r.ColorThemeID == "":
		return newMissingFieldError("colorThemeId")
	case !ValidPaletteID(r.ColorThemeID):
		return newEnumError("colorThemeId", r.ColorThemeID)
	case r.Variant == "":
		return newMissingFieldError("variant")
	case !r.Variant.Valid():
		return newEnumError("variant", string(r.Variant))
	case r.Timestamp.IsZero():
		return newMissingFieldError("timestamp")
	case r.Size != "" && !r.Size.Valid():
		return newEnumError("size", string(r.Size))
	case r.Density != "" && !r.Density.Valid():
		return newEnumError("density", string(r.Density))
	case r.Accessibility != nil && r.Accessibility.FocusRingWidth != "" && !IsCSSLength(r.Accessibility.FocusRingWidth):
		return newEnumError("focusRingWidth", r.Accessibility.FocusRingWidth)
	}
	return validateCustomizations(r.Customizations)
}

// Composition rebuilds the composition a record describes for the given appearance.
func (r Record) Composition(dark bool) Composition {
	return Composition{
		Base:           r.ColorThemeID,
		Dark:           dark,
		Variant:        r.Variant,
		Size:           r.Size,
		Density:        r.Density,
		Customizations: r.Customizations,
		Accessibility:  r.Accessibility,
	}.Normalize()
}
