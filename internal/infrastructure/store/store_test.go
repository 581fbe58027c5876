package store

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/prism/internal/ports"
)

func TestMemoryBackendNotifiesOtherHandlesOnly(t *testing.T) {
	t.Parallel()

	backend := NewMemoryBackend(0)
	a := backend.Handle("tab-a")
	b := backend.Handle("tab-b")

	var seenA, seenB []ports.StorageChange
	a.Watch(func(c ports.StorageChange) { seenA = append(seenA, c) })
	b.Watch(func(c ports.StorageChange) { seenB = append(seenB, c) })

	ctx := context.Background()
	require.NoError(t, a.Set(ctx, "prism-theme", []byte(`{"mode":"dark"}`)))

	require.Empty(t, seenA, "own writes are not echoed")
	require.Len(t, seenB, 1)
	require.Equal(t, "tab-a", seenB[0].Origin)
	require.JSONEq(t, `{"mode":"dark"}`, string(seenB[0].Value))

	value, ok, err := b.Get(ctx, "prism-theme")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"mode":"dark"}`, string(value))

	require.NoError(t, b.Delete(ctx, "prism-theme"))
	require.Len(t, seenA, 1)
	require.Nil(t, seenA[0].Value)

	_, ok, err = a.Get(ctx, "prism-theme")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryBackendQuotaAndAvailability(t *testing.T) {
	t.Parallel()

	backend := NewMemoryBackend(16)
	h := backend.Handle("")
	require.NotEmpty(t, h.Origin())

	ctx := context.Background()
	require.NoError(t, h.Set(ctx, "k", []byte("0123456789")))
	require.ErrorIs(t, h.Set(ctx, "other", []byte("0123456789")), ports.ErrQuotaExceeded)
	require.NoError(t, h.Set(ctx, "k", []byte("abcdefghij")), "replacing a value reuses its space")

	backend.SetUnavailable(true)
	_, _, err := h.Get(ctx, "k")
	require.ErrorIs(t, err, ports.ErrStoreUnavailable)
	require.ErrorIs(t, h.Set(ctx, "k", nil), ports.ErrStoreUnavailable)
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := NewFileStore(dir, WithOrigin("proc-1"))
	require.NoError(t, err)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "prism-theme")
	require.NoError(t, err)
	require.False(t, ok)

	require.Error(t, s.Set(ctx, "prism-theme", []byte("not json")))
	require.NoError(t, s.Set(ctx, "prism-theme", []byte(`{"mode":"light"}`)))

	other, err := NewFileStore(dir)
	require.NoError(t, err)
	value, ok, err := other.Get(ctx, "prism-theme")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"mode":"light"}`, string(value))

	require.NoError(t, other.Delete(ctx, "prism-theme"))
	_, ok, err = s.Get(ctx, "prism-theme")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFileStoreWatchSeesOtherProcesses(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	watcher, err := NewFileStore(dir, WithOrigin("watcher"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = watcher.Close() })

	writer, err := NewFileStore(dir, WithOrigin("writer"))
	require.NoError(t, err)

	changes := make(chan ports.StorageChange, 8)
	sub := watcher.Watch(func(c ports.StorageChange) { changes <- c })
	defer sub.Unsubscribe()

	ctx := context.Background()
	require.NoError(t, watcher.Set(ctx, "prism-theme", []byte(`{"own":true}`)))
	require.NoError(t, writer.Set(ctx, "prism-theme", []byte(`{"mode":"dark"}`)))

	select {
	case c := <-changes:
		require.Equal(t, "writer", c.Origin)
		require.Equal(t, "prism-theme", c.Key)
		require.JSONEq(t, `{"mode":"dark"}`, string(c.Value))
	case <-time.After(5 * time.Second):
		t.Fatal("expected a change from the other store")
	}
}

func TestFileStoresSharingADirectoryWriteConcurrently(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a, err := NewFileStore(dir, WithOrigin("proc-a"))
	require.NoError(t, err)
	b, err := NewFileStore(dir, WithOrigin("proc-b"))
	require.NoError(t, err)

	ctx := context.Background()
	values := map[*FileStore][]byte{
		a: []byte(`"` + strings.Repeat("a", 200<<10) + `"`),
		b: []byte(`"` + strings.Repeat("b", 200<<10) + `"`),
	}

	var wg sync.WaitGroup
	for s, value := range values {
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !assert.NoError(t, s.Set(ctx, "prism-theme", value)) {
					return
				}
				got, ok, err := s.Get(ctx, "prism-theme")
				if assert.NoError(t, err) && assert.True(t, ok) {
					assert.Len(t, got, len(value))
				}
			}()
		}
	}
	wg.Wait()
}
