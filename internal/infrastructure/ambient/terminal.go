package ambient

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/prism/internal/ports"
)

// EnvAppearance overrides terminal detection with "light" or "dark".
const EnvAppearance = "PRISM_APPEARANCE"

// Terminal reports the host preference from the environment override or the
// terminal's background colour. With a poll interval it re-detects
// periodically and notifies subscribers of changes.
type Terminal struct {
	detect   func() (bool, error)
	interval time.Duration

	mu      sync.Mutex
	last    bool
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	subs    listeners
}

// TerminalOption customises a Terminal source.
type TerminalOption func(*Terminal)

// WithPollInterval enables periodic re-detection.
func WithPollInterval(d time.Duration) TerminalOption {
	return func(t *Terminal) { t.interval = d }
}

// WithDetector replaces the detection function.
func WithDetector(fn func() (bool, error)) TerminalOption {
	return func(t *Terminal) { t.detect = fn }
}

// NewTerminal creates a terminal ambient source.
func NewTerminal(opts ...TerminalOption) *Terminal {
	t := &Terminal{detect: DetectTerminal}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// DetectTerminal checks PRISM_APPEARANCE first and falls back to querying the
// terminal background.
func DetectTerminal() (bool, error) {
	if env := os.Getenv(EnvAppearance); env != "" {
		return ParseAppearance(env)
	}
	return lipgloss.HasDarkBackground(), nil
}

// ParseAppearance maps "dark" and "light" onto a preference.
func ParseAppearance(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dark":
		return true, nil
	case "light":
		return false, nil
	default:
		return false, fmt.Errorf("unknown appearance %q", value)
	}
}

// PrefersDark implements ports.AmbientSource.
func (t *Terminal) PrefersDark() (bool, error) {
	dark, err := t.detect()
	if err != nil {
		return false, err
	}
	t.mu.Lock()
	t.last = dark
	t.mu.Unlock()
	return dark, nil
}

// Subscribe implements ports.AmbientSource. The first subscription starts
// polling when an interval is configured.
func (t *Terminal) Subscribe(fn func(dark bool)) ports.Subscription {
	sub := t.subs.add(fn)
	t.start()
	return sub
}

func (t *Terminal) start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started || t.interval <= 0 {
		return
	}
	t.started = true
	if dark, err := t.detect(); err == nil {
		t.last = dark
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})
	go t.poll(ctx)
}

func (t *Terminal) poll(ctx context.Context) {
	defer close(t.done)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dark, err := t.detect()
			if err != nil {
				continue
			}
			t.mu.Lock()
			changed := dark != t.last
			t.last = dark
			t.mu.Unlock()
			if changed {
				t.subs.notify(dark)
			}
		}
	}
}

// Close stops polling.
func (t *Terminal) Close() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel = nil
	t.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

var _ ports.AmbientSource = (*Terminal)(nil)
