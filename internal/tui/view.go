package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/prism/internal/tui/components"
)

// View renders the picker.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		m.styles.title.Render("Prism • palettes"),
		m.styles.section.Render("Palettes"),
		m.renderList(),
		m.styles.status.Render(m.renderStatus()),
	}
	if m.errMsg != "" {
		sections = append(sections, m.styles.err.Render(m.errMsg))
	}
	sections = append(sections, "", m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderList() string {
	if len(m.palettes) == 0 {
		return m.styles.muted.Render("  no palettes registered")
	}

	bar := components.NewConfidence(12)
	lines := make([]string, 0, len(m.palettes))
	for i, p := range m.palettes {
		pointer := "  "
		if i == m.cursor {
			pointer = m.styles.cursor.Render("▸ ")
		}

		name := fmt.Sprintf("%-16s", p.Label())
		if p.ID == m.state.PaletteID {
			name = m.styles.active.Render(name)
		}

		line := pointer + name + " " + components.PaletteSwatch(p, m.state.ResolvedDark, 2)
		if p.Category != "" {
			line += " " + m.styles.category.Render(p.Category)
		}
		if rec, ok := m.recs[p.ID]; ok {
			line += "  " + bar.View(rec.Confidence)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderStatus() string {
	st := m.state
	appearance := "light"
	if st.ResolvedDark {
		appearance = "dark"
	}
	status := fmt.Sprintf("active: %s • mode %s (%s) • variant %s", st.PaletteID, st.Mode, appearance, st.Variant)
	if m.busy {
		status += m.styles.muted.Render(" • applying…")
	}
	return status
}
