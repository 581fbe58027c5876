package applier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/prism/internal/domain/theme"
	"github.com/alexisbeaulieu97/prism/internal/infrastructure/document"
	"github.com/alexisbeaulieu97/prism/internal/ports"
	prismerrors "github.com/alexisbeaulieu97/prism/pkg/errors"
)

func variables(raw map[string]string, dark bool) *theme.Variables {
	return &theme.Variables{Raw: raw, Canonical: theme.Alias(raw, dark)}
}

func TestApplyWritesMarkersVariablesAndAliases(t *testing.T) {
	t.Parallel()

	doc := document.NewMemory()
	a := New(doc, nil, Options{})

	vars := variables(map[string]string{"color-background": "#03131f", "text": "#eeeeee", "space-md": "1rem"}, true)
	require.NoError(t, a.Apply(context.Background(), "ocean", true, vars))

	snap := doc.Snapshot()
	require.ElementsMatch(t, []string{"dark", "theme-ocean"}, snap.Classes)
	require.Equal(t, "#03131f", snap.Properties["--color-background"])
	require.Equal(t, "1rem", snap.Properties["--space-md"])
	require.Equal(t, "#03131f", snap.Properties["--background"])
	require.Equal(t, "#eeeeee", snap.Properties["--foreground"])
	require.Equal(t, "#60a5fa", snap.Properties["--primary"], "mode default when no source exists")
}

func TestApplySwapsMarkersAndRemovesStaleVariables(t *testing.T) {
	t.Parallel()

	doc := document.NewMemory()
	require.NoError(t, doc.Batch(func(w ports.DocumentWriter) error {
		w.AddClass("app-shell")
		w.SetProperty("--host-owned", "1")
		return nil
	}))

	a := New(doc, nil, Options{})
	ctx := context.Background()
	require.NoError(t, a.Apply(ctx, "ocean", true, variables(map[string]string{"color-accent": "#90e0ef", "radius-md": "8px"}, true)))
	require.NoError(t, a.Apply(ctx, "forest", false, variables(map[string]string{"radius-md": "4px"}, false)))

	snap := doc.Snapshot()
	require.ElementsMatch(t, []string{"app-shell", "light", "theme-forest"}, snap.Classes)
	require.NotContains(t, snap.Properties, "--color-accent")
	require.Equal(t, "4px", snap.Properties["--radius-md"])
	require.Equal(t, "1", snap.Properties["--host-owned"], "non-exclusive applier leaves foreign properties")
}

func TestExclusiveApplierRemovesForeignProperties(t *testing.T) {
	t.Parallel()

	doc := document.NewMemory()
	require.NoError(t, doc.Batch(func(w ports.DocumentWriter) error {
		w.SetProperty("--left-over", "x")
		return nil
	}))

	a := New(doc, nil, Options{Exclusive: true})
	require.NoError(t, a.Apply(context.Background(), "ocean", false, variables(map[string]string{"radius-md": "8px"}, false)))
	require.NotContains(t, doc.Snapshot().Properties, "--left-over")
}

type failingRoot struct {
	*document.Memory
}

func (f failingRoot) Batch(fn func(ports.DocumentWriter) error) error {
	return f.Memory.Batch(func(w ports.DocumentWriter) error {
		if err := fn(w); err != nil {
			return err
		}
		return errors.New("style engine detached")
	})
}

func TestApplyFailureLeavesPreviousState(t *testing.T) {
	t.Parallel()

	doc := document.NewMemory()
	ok := New(doc, nil, Options{})
	require.NoError(t, ok.Apply(context.Background(), "ocean", true, variables(map[string]string{"radius-md": "8px"}, true)))
	before := doc.Snapshot()

	broken := New(failingRoot{doc}, nil, Options{})
	err := broken.Apply(context.Background(), "forest", false, variables(map[string]string{"radius-md": "4px"}, false))

	var applyErr *prismerrors.ApplyError
	require.ErrorAs(t, err, &applyErr)
	require.Equal(t, "forest", applyErr.PaletteID)
	require.Equal(t, before, doc.Snapshot())

	require.Error(t, ok.Apply(context.Background(), "ocean", true, nil))
}
