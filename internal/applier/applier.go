package applier

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/alexisbeaulieu97/prism/internal/domain/theme"
	"github.com/alexisbeaulieu97/prism/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/prism/internal/ports"
	prismerrors "github.com/alexisbeaulieu97/prism/pkg/errors"
)

const (
	// ClassDark and ClassLight are the mutually exclusive appearance markers.
	ClassDark  = "dark"
	ClassLight = "light"
	// ThemeClassPrefix prefixes the per-palette marker class.
	ThemeClassPrefix = "theme-"
)

// VarName returns the root-level custom property name for a variable.
func VarName(name string) string {
	return "--" + name
}

// Options tunes an Applier.
type Options struct {
	// Exclusive declares that every custom property on the document belongs
	// to prism, so properties absent from a new composition are removed even
	// when this Applier did not write them.
	Exclusive bool
}

// Applier writes composed variables onto the document root in a single batch.
type Applier struct {
	root   ports.DocumentRoot
	logger ports.Logger
	opts   Options

	mu      sync.Mutex
	written map[string]struct{}
}

// New creates an Applier for root.
func New(root ports.DocumentRoot, logger ports.Logger, opts Options) *Applier {
	return &Applier{
		root:    root,
		logger:  logging.OrNoOp(logger).With("component", "applier"),
		opts:    opts,
		written: make(map[string]struct{}),
	}
}

// Apply toggles the appearance marker, swaps the palette marker, writes every
// raw variable, removes variables left over from the previous application and
// writes the canonical aliases. Either all of it becomes visible or none of it.
func (a *Applier) Apply(ctx context.Context, paletteID string, dark bool, vars *theme.Variables) error {
	if vars == nil {
		return prismerrors.NewApplyError(paletteID, errNilVariables)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()
	next := make(map[string]struct{}, len(vars.Raw)+len(theme.CanonicalNames()))

	err := a.root.Batch(func(w ports.DocumentWriter) error {
		w.RemoveClass(ClassDark)
		w.RemoveClass(ClassLight)
		if dark {
			w.AddClass(ClassDark)
		} else {
			w.AddClass(ClassLight)
		}

		for _, class := range w.Classes() {
			if strings.HasPrefix(class, ThemeClassPrefix) {
				w.RemoveClass(class)
			}
		}
		w.AddClass(ThemeClassPrefix + paletteID)

		for name, value := range vars.Raw {
			prop := VarName(name)
			w.SetProperty(prop, value)
			next[prop] = struct{}{}
		}
		for name, value := range vars.Canonical.All() {
			prop := VarName(name.String())
			w.SetProperty(prop, value)
			next[prop] = struct{}{}
		}

		for prop := range a.stale(w, next) {
			w.RemoveProperty(prop)
		}
		return nil
	})
	if err != nil {
		a.logger.Error(ctx, "document update failed", "palette_id", paletteID, "error", err)
		return prismerrors.NewApplyError(paletteID, err)
	}

	a.written = next
	a.logger.Debug(ctx, "document updated",
		"palette_id", paletteID,
		"dark", dark,
		"variables", len(next),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (a *Applier) stale(w ports.DocumentWriter, next map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for prop := range a.written {
		if _, keep := next[prop]; !keep {
			out[prop] = struct{}{}
		}
	}
	if a.opts.Exclusive {
		for _, prop := range w.PropertyNames() {
			if _, keep := next[prop]; !keep && strings.HasPrefix(prop, "--") {
				out[prop] = struct{}{}
			}
		}
	}
	return out
}

var errNilVariables = errors.New("no variables to apply")
