package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/prism/internal/engine"
)

// Update handles Bubbletea messages and updates model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil
	case AppliedMsg:
		m.busy = false
		m.state = msg.State
		if msg.Variables != nil {
			m.styles = newStyles(msg.Variables)
		}
		if msg.OK {
			m.errMsg = ""
		} else {
			m.errMsg = "theme could not be applied; previous theme kept"
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.palettes)-1 {
			m.cursor++
		}
		return m, nil
	}

	if m.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Apply):
		p, ok := m.selected()
		if !ok {
			return m, nil
		}
		req := engine.RequestFromState(m.state)
		req.PaletteID = p.ID
		req.Context = m.context
		m.busy = true
		return m, applyCmd(m.service, req)
	case key.Matches(msg, m.keys.Toggle):
		m.busy = true
		return m, toggleCmd(m.service)
	case key.Matches(msg, m.keys.Variant):
		req := engine.RequestFromState(m.state)
		req.Variant = nextVariant(m.state.Variant)
		req.Context = m.context
		m.busy = true
		return m, applyCmd(m.service, req)
	}
	return m, nil
}
