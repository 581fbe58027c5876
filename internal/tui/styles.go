package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/prism/internal/domain/theme"
)

type styles struct {
	title    lipgloss.Style
	section  lipgloss.Style
	cursor   lipgloss.Style
	active   lipgloss.Style
	muted    lipgloss.Style
	err      lipgloss.Style
	status   lipgloss.Style
	category lipgloss.Style
}

// newStyles colours the picker with the applied theme's canonical values so
// the picker itself previews the active theme. Without variables it falls
// back to fixed ANSI colours.
func newStyles(vars *theme.Variables) styles {
	primary := lipgloss.TerminalColor(lipgloss.Color("205"))
	foreground := lipgloss.TerminalColor(lipgloss.Color("39"))
	muted := lipgloss.TerminalColor(lipgloss.Color("244"))
	if vars != nil {
		if v := vars.Canonical.Get(theme.CanonicalPrimary); v != "" {
			primary = lipgloss.Color(v)
		}
		if v := vars.Canonical.Get(theme.CanonicalForeground); v != "" {
			foreground = lipgloss.Color(v)
		}
		if v := vars.Canonical.Get(theme.CanonicalMutedForeground); v != "" {
			muted = lipgloss.Color(v)
		}
	}

	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(primary),
		section:  lipgloss.NewStyle().Bold(true).Foreground(foreground).MarginTop(1),
		cursor:   lipgloss.NewStyle().Bold(true).Foreground(primary),
		active:   lipgloss.NewStyle().Underline(true).Foreground(primary),
		muted:    lipgloss.NewStyle().Foreground(muted),
		err:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		status:   lipgloss.NewStyle().MarginTop(1),
		category: lipgloss.NewStyle().Italic(true).Foreground(muted),
	}
}
