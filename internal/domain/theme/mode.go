package theme

// Mode is the user-selected appearance mode.
type Mode string

const (
	ModeLight  Mode = "light"
	ModeDark   Mode = "dark"
	ModeSystem Mode = "system"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeLight, ModeDark, ModeSystem:
		return true
	}
	return false
}

// ModeFor returns the concrete mode matching a resolved appearance.
func ModeFor(dark bool) Mode {
	if dark {
		return ModeDark
	}
	return ModeLight
}

// Modes lists every mode in display order.
func Modes() []Mode {
	return []Mode{ModeLight, ModeDark, ModeSystem}
}
