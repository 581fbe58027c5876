package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/prism/internal/tui"
)

const testConfig = `version: "1.0.0"
engine:
  transition_duration: 0s
analytics:
  backend: sqlite
logging:
  level: error
`

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newStateDir(t *testing.T) string {
	t.Helper()
	for _, key := range []string{"PRISM_STATE_DIR", "PRISM_LOG_LEVEL", "PRISM_APPEARANCE"} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prism.yaml"), []byte(testConfig), 0o644))
	return dir
}

func runPrism(t *testing.T, stateDir string, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(append([]string{"--state-dir", stateDir, "--appearance", "light"}, args...))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func showJSON(t *testing.T, stateDir string) showOutput {
	t.Helper()
	stdout, _, err := runPrism(t, stateDir, "show", "--json")
	require.NoError(t, err)
	var out showOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	return out
}

func TestVersionCommandOutputsBuildInfo(t *testing.T) {
	originalVersion, originalCommit, originalDate := version, commit, date
	t.Cleanup(func() {
		version, commit, date = originalVersion, originalCommit, originalDate
	})

	version = "1.2.3"
	commit = "abcdef1"
	date = "2026-10-03"

	root := newRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())

	output := buf.String()
	require.Contains(t, output, "Prism 1.2.3")
	require.Contains(t, output, "abcdef1")
	require.Contains(t, output, "2026-10-03")
}

func TestShowWithoutStoredThemeUsesDefault(t *testing.T) {
	dir := newStateDir(t)

	out := showJSON(t, dir)
	require.Equal(t, "default", out.Palette)
	require.EqualValues(t, "system", out.Mode)
	require.False(t, out.Dark)
	require.NotEmpty(t, out.Variables["background"])
	require.Equal(t, filepath.Join(dir, "theme.css"), out.Stylesheet)
}

func TestApplyPersistsAndWritesStylesheet(t *testing.T) {
	dir := newStateDir(t)

	stdout, _, err := runPrism(t, dir, "apply", "ocean", "--mode", "dark", "--density", "high", "--set", "radius=4px")
	require.NoError(t, err)
	require.Contains(t, stdout, "ocean (dark, dark)")

	out := showJSON(t, dir)
	require.Equal(t, "ocean", out.Palette)
	require.True(t, out.Dark)
	require.EqualValues(t, "high", out.Density)
	require.Equal(t, "4px", out.Customizations["radius"])

	css, err := os.ReadFile(filepath.Join(dir, "theme.css"))
	require.NoError(t, err)
	require.Contains(t, string(css), ":root {")
	require.Contains(t, string(css), "--radius: 4px;")
}

func TestApplyKeepsLayersNotOverridden(t *testing.T) {
	dir := newStateDir(t)

	_, _, err := runPrism(t, dir, "apply", "ocean", "--mode", "dark", "--size", "lg")
	require.NoError(t, err)
	_, _, err = runPrism(t, dir, "apply", "forest")
	require.NoError(t, err)

	out := showJSON(t, dir)
	require.Equal(t, "forest", out.Palette)
	require.EqualValues(t, "dark", out.Mode)
	require.EqualValues(t, "lg", out.Size)
}

func TestApplyUnknownPaletteFallsBackWithWarning(t *testing.T) {
	dir := newStateDir(t)

	stdout, stderr, err := runPrism(t, dir, "apply", "does-not-exist")
	require.NoError(t, err)
	require.Contains(t, stderr, "default theme was applied instead")
	require.Contains(t, stdout, "default (")
}

func TestApplyRejectsMalformedAssignment(t *testing.T) {
	dir := newStateDir(t)

	_, _, err := runPrism(t, dir, "apply", "ocean", "--set", "=oops")
	require.Error(t, err)
	require.Contains(t, err.Error(), "parsing --set")
}

func TestToggleInvertsResolvedMode(t *testing.T) {
	dir := newStateDir(t)

	_, _, err := runPrism(t, dir, "apply", "ocean", "--mode", "light")
	require.NoError(t, err)
	_, _, err = runPrism(t, dir, "toggle")
	require.NoError(t, err)

	out := showJSON(t, dir)
	require.Equal(t, "ocean", out.Palette)
	require.EqualValues(t, "dark", out.Mode)
	require.True(t, out.Dark)
}

func TestResetAllForgetsStoredTheme(t *testing.T) {
	dir := newStateDir(t)

	_, _, err := runPrism(t, dir, "apply", "sunset", "--mode", "dark")
	require.NoError(t, err)

	stdout, _, err := runPrism(t, dir, "reset", "--all")
	require.NoError(t, err)
	require.Contains(t, stdout, "Stored theme cleared")

	out := showJSON(t, dir)
	require.Equal(t, "default", out.Palette)
	require.EqualValues(t, "system", out.Mode)
}

func TestExportImportRoundTrip(t *testing.T) {
	dir := newStateDir(t)
	backup := filepath.Join(t.TempDir(), "theme.json")

	_, _, err := runPrism(t, dir, "apply", "ocean", "--mode", "dark", "--variant", "compact")
	require.NoError(t, err)
	_, _, err = runPrism(t, dir, "export", "--out", backup)
	require.NoError(t, err)

	_, _, err = runPrism(t, dir, "apply", "forest", "--mode", "light")
	require.NoError(t, err)

	stdout, _, err := runPrism(t, dir, "import", backup)
	require.NoError(t, err)
	require.Contains(t, stdout, "ocean")

	out := showJSON(t, dir)
	require.Equal(t, "ocean", out.Palette)
	require.EqualValues(t, "compact", out.Variant)
}

func TestImportRejectsInvalidBackup(t *testing.T) {
	dir := newStateDir(t)
	backup := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(backup, []byte(`{"mode":"dark","colorThemeId":"ocean"}`), 0o644))

	_, _, err := runPrism(t, dir, "apply", "forest")
	require.NoError(t, err)

	_, _, err = runPrism(t, dir, "import", backup)
	require.Error(t, err)
	require.Contains(t, err.Error(), "import error")
	require.Contains(t, err.Error(), "current theme is unchanged")

	require.Equal(t, "forest", showJSON(t, dir).Palette)
}

func TestImportOfUnknownPaletteWarns(t *testing.T) {
	dir := newStateDir(t)
	backup := filepath.Join(t.TempDir(), "aurora.json")
	require.NoError(t, os.WriteFile(backup, []byte(`{"mode":"dark","colorThemeId":"aurora","variant":"default","customizations":{},"timestamp":"2026-03-01T12:00:00Z","schemaVersion":"1.0"}`), 0o644))

	_, stderr, err := runPrism(t, dir, "import", backup)
	require.NoError(t, err)
	require.Contains(t, stderr, "aurora")
	require.Contains(t, stderr, "the default theme was applied instead")
	require.Equal(t, "default", showJSON(t, dir).Palette)
}

func TestImportRejectsStylesheetInjection(t *testing.T) {
	dir := newStateDir(t)
	backup := filepath.Join(t.TempDir(), "evil.json")
	require.NoError(t, os.WriteFile(backup, []byte(`{"mode":"dark","colorThemeId":"ocean","variant":"default","customizations":{"radius":"0; } body { display: none"},"timestamp":"2026-03-01T12:00:00Z","schemaVersion":"1.0"}`), 0o644))

	_, _, err := runPrism(t, dir, "import", backup)
	require.Error(t, err)

	css, err := os.ReadFile(filepath.Join(dir, "theme.css"))
	if err == nil {
		require.NotContains(t, string(css), "display: none")
	}
}

func TestImportMissingFile(t *testing.T) {
	dir := newStateDir(t)

	_, _, err := runPrism(t, dir, "import", filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "reading")
}

func TestCSSCommandWritesFile(t *testing.T) {
	dir := newStateDir(t)
	target := filepath.Join(t.TempDir(), "out.css")

	_, _, err := runPrism(t, dir, "css", "--out", target)
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Contains(t, string(data), "--background:")
}

func TestPalettesListsBuiltinsAndMarksActive(t *testing.T) {
	dir := newStateDir(t)

	_, _, err := runPrism(t, dir, "apply", "forest")
	require.NoError(t, err)

	stdout, _, err := runPrism(t, dir, "palettes", "--json")
	require.NoError(t, err)

	var palettes []paletteSummary
	require.NoError(t, json.Unmarshal([]byte(stdout), &palettes))

	active := map[string]bool{}
	for _, p := range palettes {
		active[p.ID] = p.Active
	}
	require.Contains(t, active, "ocean")
	require.Contains(t, active, "contrast")
	require.True(t, active["forest"])
	require.False(t, active["ocean"])

	stdout, _, err = runPrism(t, dir, "palettes")
	require.NoError(t, err)
	require.Contains(t, stdout, "* forest")
}

func TestPalettesLoadsUserPalettes(t *testing.T) {
	dir := newStateDir(t)
	paletteDir := filepath.Join(dir, "palettes")
	require.NoError(t, os.MkdirAll(paletteDir, 0o755))

	builtin, err := os.ReadFile(filepath.Join("..", "..", "internal", "palette", "palettes", "ocean.yaml"))
	require.NoError(t, err)
	custom := strings.Replace(string(builtin), "id: ocean", "id: harbour", 1)
	require.NoError(t, os.WriteFile(filepath.Join(paletteDir, "harbour.yaml"), []byte(custom), 0o644))

	stdout, _, err := runPrism(t, dir, "palettes", "--json")
	require.NoError(t, err)
	require.Contains(t, stdout, `"harbour"`)
}

func TestDiffListsChangedVariables(t *testing.T) {
	dir := newStateDir(t)

	stdout, _, err := runPrism(t, dir, "diff", "ocean")
	require.NoError(t, err)
	require.Contains(t, stdout, "~ ")

	stdout, _, err = runPrism(t, dir, "diff", "default")
	require.NoError(t, err)
	require.Contains(t, stdout, "No differences.")

	stdout, _, err = runPrism(t, dir, "diff", "ocean", "--unified")
	require.NoError(t, err)
	require.Contains(t, stdout, "+++ ocean")

	_, _, err = runPrism(t, dir, "diff", "nope")
	require.Error(t, err)
}

func TestRecommendRanksUsageHistory(t *testing.T) {
	dir := newStateDir(t)

	stdout, _, err := runPrism(t, dir, "recommend")
	require.NoError(t, err)
	require.Contains(t, stdout, "No usage history yet.")

	for range 3 {
		_, _, err := runPrism(t, dir, "apply", "ocean", "--mode", "dark", "--context", "work")
		require.NoError(t, err)
	}
	_, _, err = runPrism(t, dir, "apply", "forest", "--mode", "light", "--context", "work")
	require.NoError(t, err)

	stdout, _, err = runPrism(t, dir, "recommend", "--context", "work")
	require.NoError(t, err)
	require.Contains(t, stdout, "1. ocean (dark)")
	require.Contains(t, stdout, "used 3 of 3 times in work")
}

func TestRecommendAutoSwitchesWhenConfident(t *testing.T) {
	dir := newStateDir(t)

	for range 3 {
		_, _, err := runPrism(t, dir, "apply", "ocean", "--mode", "dark", "--context", "night")
		require.NoError(t, err)
	}
	// The reset is tracked under the default "cli" context.
	_, _, err := runPrism(t, dir, "reset")
	require.NoError(t, err)

	stdout, _, err := runPrism(t, dir, "recommend", "--context", "night", "--auto")
	require.NoError(t, err)
	require.Contains(t, stdout, "Switched to ocean")
	require.Equal(t, "ocean", showJSON(t, dir).Palette)
}

func TestPickRequiresTerminal(t *testing.T) {
	dir := newStateDir(t)
	original := interactive
	t.Cleanup(func() { interactive = original })
	interactive = func() bool { return false }

	_, _, err := runPrism(t, dir, "pick")
	require.Error(t, err)
	require.Contains(t, err.Error(), "prism apply")
}

func TestPickRunsPickerOverEngine(t *testing.T) {
	dir := newStateDir(t)
	originalInteractive, originalRunner := interactive, pickRunner
	t.Cleanup(func() {
		interactive = originalInteractive
		pickRunner = originalRunner
	})
	interactive = func() bool { return true }

	var seen tui.Model
	pickRunner = func(_ *cobra.Command, model tea.Model) (tea.Model, error) {
		m, ok := model.(tui.Model)
		require.True(t, ok)
		seen = m
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		return next, nil
	}

	_, _, err := runPrism(t, dir, "pick")
	require.NoError(t, err)
	require.Equal(t, "default", seen.State().PaletteID)
}

func TestWatchPrintsChangesFromOtherProcesses(t *testing.T) {
	dir := newStateDir(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	root := newRootCmd()
	out := &syncBuffer{}
	root.SetOut(out)
	root.SetErr(&syncBuffer{})
	root.SetArgs([]string{"--state-dir", dir, "--appearance", "light", "watch"})

	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "watching default")
	}, 5*time.Second, 10*time.Millisecond)

	_, _, err := runPrism(t, dir, "apply", "sunset", "--mode", "dark")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "sunset (dark, dark)")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}

	css, err := os.ReadFile(filepath.Join(dir, "theme.css"))
	require.NoError(t, err)
	require.NotEmpty(t, css)
}

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"radius=4px", " color-primary = #336699 ", "empty="})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"radius": "4px", "color-primary": "#336699", "empty": ""}, got)

	for _, bad := range []string{"novalue", "Bad Name=1", "radius=4px; } body { display: none"} {
		_, err = parseAssignments([]string{bad})
		require.Error(t, err, bad)
	}
}

func TestInvalidAppearanceIsRejected(t *testing.T) {
	dir := newStateDir(t)

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--state-dir", dir, "--appearance", "purple", "show"})

	err := root.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "loading configuration")
}
