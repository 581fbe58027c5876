package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/prism/internal/domain/theme"
)

// Swatch renders one block per canonical variable, filled with its colour.
func Swatch(canonical theme.CanonicalMap, cellWidth int) string {
	if cellWidth <= 0 {
		cellWidth = 2
	}
	cell := strings.Repeat(" ", cellWidth)
	var b strings.Builder
	for _, value := range canonical.All() {
		b.WriteString(lipgloss.NewStyle().Background(lipgloss.Color(value)).Render(cell))
	}
	return b.String()
}

// PaletteSwatch renders the canonical colours of p for the given appearance.
func PaletteSwatch(p theme.Palette, dark bool, cellWidth int) string {
	return Swatch(theme.Alias(p.Map(dark), dark), cellWidth)
}
