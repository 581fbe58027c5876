package document

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/prism/internal/ports"
)

func TestMemoryBatchCommits(t *testing.T) {
	t.Parallel()

	doc := NewMemory()
	err := doc.Batch(func(w ports.DocumentWriter) error {
		w.AddClass("dark")
		w.AddClass("dark")
		w.SetProperty("--background", "#000")
		return nil
	})
	require.NoError(t, err)

	snap := doc.Snapshot()
	require.Equal(t, []string{"dark"}, snap.Classes)
	require.Equal(t, "#000", snap.Properties["--background"])
	require.True(t, snap.HasClass("dark"))
	require.EqualValues(t, 1, doc.Commits())
}

func TestMemoryBatchIsAllOrNothing(t *testing.T) {
	t.Parallel()

	doc := NewMemory()
	require.NoError(t, doc.Batch(func(w ports.DocumentWriter) error {
		w.AddClass("light")
		w.SetProperty("--background", "#fff")
		return nil
	}))

	err := doc.Batch(func(w ports.DocumentWriter) error {
		w.RemoveClass("light")
		w.SetProperty("--background", "#000")
		return errors.New("write rejected")
	})
	require.Error(t, err)

	err = doc.Batch(func(w ports.DocumentWriter) error {
		w.RemoveProperty("--background")
		panic("boom")
	})
	require.ErrorContains(t, err, "panicked")

	snap := doc.Snapshot()
	require.Equal(t, []string{"light"}, snap.Classes)
	require.Equal(t, "#fff", snap.Properties["--background"])
	require.EqualValues(t, 1, doc.Commits())
}

func TestMemoryReadersNeverSeePartialBatches(t *testing.T) {
	t.Parallel()

	doc := NewMemory()
	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			snap := doc.Snapshot()
			assert.Equal(t, snap.Properties["--a"], snap.Properties["--b"])
		}
	}()

	for i := range 200 {
		value := string(rune('a' + i%26))
		require.NoError(t, doc.Batch(func(w ports.DocumentWriter) error {
			w.SetProperty("--a", value)
			w.SetProperty("--b", value)
			return nil
		}))
	}
	close(stop)
	wg.Wait()
}

func TestStylesheetRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "theme.css")
	sheet, err := OpenStylesheet(path, ":root")
	require.NoError(t, err)

	require.NoError(t, sheet.Batch(func(w ports.DocumentWriter) error {
		w.AddClass("dark")
		w.AddClass("theme-ocean")
		w.SetProperty("--primary", "#48cae4")
		w.SetProperty("--background", "#03131f")
		return nil
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "/* prism classes: dark theme-ocean */\n:root {\n  --background: #03131f;\n  --primary: #48cae4;\n}\n", string(data))

	reopened, err := OpenStylesheet(path, "")
	require.NoError(t, err)
	snap := reopened.Snapshot()
	require.Equal(t, []string{"dark", "theme-ocean"}, snap.Classes)
	require.Equal(t, "#03131f", snap.Properties["--background"])
	require.Equal(t, path, reopened.Path())
}

func TestStylesheetWriteFailureKeepsState(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "theme.css")
	sheet, err := OpenStylesheet(path, ":root")
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(path+".tmp", 0o755))

	err = sheet.Batch(func(w ports.DocumentWriter) error {
		w.SetProperty("--background", "#000")
		return nil
	})
	require.Error(t, err)
	require.Empty(t, sheet.Snapshot().Properties)
}
