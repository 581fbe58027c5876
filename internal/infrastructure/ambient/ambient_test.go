package ambient

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStaticNotifiesOnChangeOnly(t *testing.T) {
	t.Parallel()

	src := NewStatic(false)
	var calls atomic.Int32
	var last atomic.Bool
	sub := src.Subscribe(func(dark bool) {
		calls.Add(1)
		last.Store(dark)
	})

	src.Set(false)
	require.Zero(t, calls.Load())

	src.Set(true)
	require.EqualValues(t, 1, calls.Load())
	require.True(t, last.Load())

	sub.Unsubscribe()
	src.Set(false)
	require.EqualValues(t, 1, calls.Load())
}

func TestStaticFail(t *testing.T) {
	t.Parallel()

	src := NewStatic(true)
	src.Fail(errors.New("unsupported"))
	_, err := src.PrefersDark()
	require.Error(t, err)

	src.Set(true)
	dark, err := src.PrefersDark()
	require.NoError(t, err)
	require.True(t, dark)
}

func TestParseAppearance(t *testing.T) {
	t.Parallel()

	dark, err := ParseAppearance(" Dark ")
	require.NoError(t, err)
	require.True(t, dark)

	dark, err = ParseAppearance("light")
	require.NoError(t, err)
	require.False(t, dark)

	_, err = ParseAppearance("sepia")
	require.Error(t, err)
}

func TestDetectTerminalHonoursEnv(t *testing.T) {
	t.Setenv(EnvAppearance, "light")
	dark, err := DetectTerminal()
	require.NoError(t, err)
	require.False(t, dark)
}

func TestTerminalPollingEmitsChanges(t *testing.T) {
	t.Parallel()

	var current atomic.Bool
	term := NewTerminal(
		WithPollInterval(5*time.Millisecond),
		WithDetector(func() (bool, error) { return current.Load(), nil }),
	)
	t.Cleanup(term.Close)

	changes := make(chan bool, 4)
	term.Subscribe(func(dark bool) { changes <- dark })

	current.Store(true)
	select {
	case dark := <-changes:
		require.True(t, dark)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change notification")
	}

	got, err := term.PrefersDark()
	require.NoError(t, err)
	require.True(t, got)
}

func TestTerminalWithoutIntervalDoesNotPoll(t *testing.T) {
	t.Parallel()

	var reads atomic.Int32
	term := NewTerminal(WithDetector(func() (bool, error) {
		reads.Add(1)
		return true, nil
	}))
	term.Subscribe(func(bool) {})
	time.Sleep(20 * time.Millisecond)
	require.Zero(t, reads.Load())
	term.Close()
}
