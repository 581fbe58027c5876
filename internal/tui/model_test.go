package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/prism/internal/domain/theme"
	"github.com/alexisbeaulieu97/prism/internal/engine"
)

type fakeService struct {
	state    theme.State
	requests []engine.Request
	toggles  int
	fail     bool
	vars     *theme.Variables
}

func (f *fakeService) ApplyTheme(_ context.Context, req engine.Request) bool {
	f.requests = append(f.requests, req)
	if f.fail {
		return false
	}
	f.state.PaletteID = req.PaletteID
	f.state.Variant = req.Variant
	return true
}

func (f *fakeService) ToggleMode(context.Context) bool {
	f.toggles++
	f.state.ResolvedDark = !f.state.ResolvedDark
	f.state.Mode = theme.ModeFor(f.state.ResolvedDark)
	return true
}

func (f *fakeService) State() theme.State { return f.state }

func (f *fakeService) Variables() *theme.Variables { return f.vars }

func testPalettes() []theme.Palette {
	mk := func(id string) theme.Palette {
		return theme.Palette{
			ID:    id,
			Light: map[string]string{"bg": "#ffffff", "text": "#111111"},
			Dark:  map[string]string{"bg": "#000000", "text": "#eeeeee"},
		}
	}
	return []theme.Palette{mk("default"), mk("ocean"), mk("forest")}
}

func newTestModel(svc *fakeService) Model {
	return NewModel(svc, testPalettes(), []theme.Recommendation{{PaletteID: "forest", Confidence: 0.8}}, "tui")
}

// run feeds msg to m and executes any returned command once.
func run(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, cmd := m.Update(msg)
	m = updated.(Model)
	if cmd != nil {
		if out := cmd(); out != nil {
			if _, quit := out.(tea.QuitMsg); !quit {
				updated, _ = m.Update(out)
				m = updated.(Model)
			}
		}
	}
	return m
}

func TestNewModelStartsOnActivePalette(t *testing.T) {
	t.Parallel()

	svc := &fakeService{state: theme.State{PaletteID: "ocean", Variant: theme.VariantDefault}}
	m := newTestModel(svc)
	require.Equal(t, 1, m.Cursor())
}

func TestNavigationIsBounded(t *testing.T) {
	t.Parallel()

	m := newTestModel(&fakeService{state: theme.State{PaletteID: "default"}})
	m = run(t, m, tea.KeyMsg{Type: tea.KeyUp})
	require.Equal(t, 0, m.Cursor())
	for range 5 {
		m = run(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	require.Equal(t, 2, m.Cursor())
}

func TestEnterAppliesSelectedPaletteKeepingLayers(t *testing.T) {
	t.Parallel()

	svc := &fakeService{state: theme.State{PaletteID: "default", Mode: theme.ModeDark, Variant: theme.VariantCompact, Size: theme.SizeLarge}}
	m := newTestModel(svc)
	m = run(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = run(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.Len(t, svc.requests, 1)
	req := svc.requests[0]
	require.Equal(t, "ocean", req.PaletteID)
	require.Equal(t, theme.ModeDark, req.Mode)
	require.Equal(t, theme.SizeLarge, req.Size)
	require.Equal(t, "tui", req.Context)
	require.Equal(t, "ocean", m.State().PaletteID)
}

func TestToggleAndVariantKeys(t *testing.T) {
	t.Parallel()

	svc := &fakeService{state: theme.State{PaletteID: "default", Mode: theme.ModeLight, Variant: theme.VariantDefault}}
	m := newTestModel(svc)

	m = run(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	require.Equal(t, 1, svc.toggles)
	require.True(t, m.State().ResolvedDark)

	m = run(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("v")})
	require.Equal(t, theme.VariantCompact, svc.requests[0].Variant)
	require.Equal(t, theme.VariantCompact, m.State().Variant)
}

func TestFailedApplyShowsError(t *testing.T) {
	t.Parallel()

	svc := &fakeService{state: theme.State{PaletteID: "default"}, fail: true}
	m := newTestModel(svc)
	m = run(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Contains(t, m.View(), "previous theme kept")
}

func TestViewListsPalettesAndRecommendation(t *testing.T) {
	t.Parallel()

	m := newTestModel(&fakeService{state: theme.State{PaletteID: "ocean", Mode: theme.ModeSystem, Variant: theme.VariantDefault}})
	view := m.View()
	require.Contains(t, view, "ocean")
	require.Contains(t, view, "forest")
	require.Contains(t, view, "80%")
	require.Contains(t, view, "active: ocean")
}

func TestQuit(t *testing.T) {
	t.Parallel()

	m := newTestModel(&fakeService{})
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	require.True(t, updated.(Model).Quitting())
	require.Empty(t, updated.(Model).View())
}

func TestStylesFollowAppliedTheme(t *testing.T) {
	vars := &theme.Variables{}
	vars.Canonical[theme.CanonicalPrimary] = "#336699"
	vars.Canonical[theme.CanonicalMutedForeground] = "#778899"

	svc := &fakeService{state: theme.State{PaletteID: "default"}}
	m := newTestModel(svc)
	require.Equal(t, lipgloss.TerminalColor(lipgloss.Color("205")), m.styles.active.GetForeground())

	next, _ := m.Update(AppliedMsg{OK: true, State: svc.state, Variables: vars})
	m = next.(Model)
	require.Equal(t, lipgloss.TerminalColor(lipgloss.Color("#336699")), m.styles.active.GetForeground())
	require.Equal(t, lipgloss.TerminalColor(lipgloss.Color("#778899")), m.styles.muted.GetForeground())
}
