package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/prism/internal/domain/theme"
	"github.com/alexisbeaulieu97/prism/internal/engine"
)

// ThemeService is the part of the theme engine the picker drives.
type ThemeService interface {
	ApplyTheme(ctx context.Context, req engine.Request) bool
	ToggleMode(ctx context.Context) bool
	State() theme.State
	Variables() *theme.Variables
}

// AppliedMsg reports the outcome of an apply or toggle.
type AppliedMsg struct {
	OK        bool
	State     theme.State
	Variables *theme.Variables
}

// Model is the Bubbletea state of the palette picker.
type Model struct {
	service  ThemeService
	palettes []theme.Palette
	recs     map[string]theme.Recommendation
	context  string

	keys keyMap
	help help.Model

	cursor   int
	state    theme.State
	busy     bool
	errMsg   string
	quitting bool
	width    int
	styles   styles
}

// NewModel creates a picker over palettes. recs, keyed by palette id, are
// shown next to matching palettes.
func NewModel(service ThemeService, palettes []theme.Palette, recs []theme.Recommendation, usageContext string) Model {
	m := Model{
		service:  service,
		palettes: palettes,
		recs:     make(map[string]theme.Recommendation),
		context:  usageContext,
		keys:     defaultKeyMap(),
		help:     help.New(),
		state:    service.State(),
		styles:   newStyles(service.Variables()),
		width:    80,
	}
	for _, r := range recs {
		if _, seen := m.recs[r.PaletteID]; !seen {
			m.recs[r.PaletteID] = r
		}
	}
	for i, p := range palettes {
		if p.ID == m.state.PaletteID {
			m.cursor = i
			break
		}
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// State returns the last state reported by the engine.
func (m Model) State() theme.State {
	return m.state
}

// Cursor returns the highlighted palette index.
func (m Model) Cursor() int {
	return m.cursor
}

// Quitting reports whether the user asked to leave.
func (m Model) Quitting() bool {
	return m.quitting
}

func (m Model) selected() (theme.Palette, bool) {
	if m.cursor < 0 || m.cursor >= len(m.palettes) {
		return theme.Palette{}, false
	}
	return m.palettes[m.cursor], true
}

func applyCmd(service ThemeService, req engine.Request) tea.Cmd {
	return func() tea.Msg {
		ok := service.ApplyTheme(context.Background(), req)
		return AppliedMsg{OK: ok, State: service.State(), Variables: service.Variables()}
	}
}

func toggleCmd(service ThemeService) tea.Cmd {
	return func() tea.Msg {
		ok := service.ToggleMode(context.Background())
		return AppliedMsg{OK: ok, State: service.State(), Variables: service.Variables()}
	}
}

var variantOrder = []theme.Variant{
	theme.VariantDefault,
	theme.VariantCompact,
	theme.VariantComfortable,
	theme.VariantAccessible,
}

func nextVariant(v theme.Variant) theme.Variant {
	for i, candidate := range variantOrder {
		if candidate == v {
			return variantOrder[(i+1)%len(variantOrder)]
		}
	}
	return theme.VariantDefault
}
