package mode

import (
	"context"
	"sync"

	"github.com/alexisbeaulieu97/prism/internal/domain/theme"
	"github.com/alexisbeaulieu97/prism/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/prism/internal/ports"
)

// Resolver turns a user-selected mode into a concrete appearance and relays
// ambient changes while the active mode is system.
type Resolver struct {
	source ports.AmbientSource
	logger ports.Logger

	mu       sync.Mutex
	active   theme.Mode
	nextID   int
	watchers map[int]func(dark bool)
	upstream ports.Subscription
}

// NewResolver creates a Resolver reading from source. A nil source behaves
// like a host that cannot report a preference.
func NewResolver(source ports.AmbientSource, logger ports.Logger) *Resolver {
	return &Resolver{
		source:   source,
		logger:   logging.OrNoOp(logger).With("component", "mode_resolver"),
		active:   theme.ModeSystem,
		watchers: make(map[int]func(bool)),
	}
}

// Resolve returns true for dark, false for light and the ambient signal for
// system. An unreadable signal resolves to light with a warning.
func (r *Resolver) Resolve(m theme.Mode) bool {
	switch m {
	case theme.ModeDark:
		return true
	case theme.ModeLight:
		return false
	default:
		return r.ambient()
	}
}

func (r *Resolver) ambient() bool {
	if r.source == nil {
		r.logger.Warn(context.Background(), "no ambient preference source; assuming light")
		return false
	}
	dark, err := r.source.PrefersDark()
	if err != nil {
		r.logger.Warn(context.Background(), "ambient preference unavailable; assuming light", "error", err)
		return false
	}
	return dark
}

// SetActiveMode records the committed mode. Watchers fire only while it is system.
func (r *Resolver) SetActiveMode(m theme.Mode) {
	r.mu.Lock()
	r.active = m
	r.mu.Unlock()
}

// ActiveMode returns the last committed mode.
func (r *Resolver) ActiveMode() theme.Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Watch registers fn for ambient changes. The subscription stays valid while
// the active mode is light or dark so that switching back to system takes
// effect without re-subscribing.
func (r *Resolver) Watch(fn func(dark bool)) ports.Subscription {
	if fn == nil {
		return ports.SubscriptionFunc(nil)
	}
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.watchers[id] = fn
	if r.upstream == nil && r.source != nil {
		r.upstream = r.source.Subscribe(r.onAmbient)
	}
	r.mu.Unlock()

	return ports.SubscriptionFunc(func() {
		r.mu.Lock()
		delete(r.watchers, id)
		var upstream ports.Subscription
		if len(r.watchers) == 0 {
			upstream, r.upstream = r.upstream, nil
		}
		r.mu.Unlock()
		if upstream != nil {
			upstream.Unsubscribe()
		}
	})
}

func (r *Resolver) onAmbient(dark bool) {
	r.mu.Lock()
	if r.active != theme.ModeSystem {
		r.mu.Unlock()
		return
	}
	fns := make([]func(bool), 0, len(r.watchers))
	for _, fn := range r.watchers {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	r.logger.Debug(context.Background(), "ambient preference changed", "dark", dark)
	for _, fn := range fns {
		fn(dark)
	}
}
