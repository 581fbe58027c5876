package palette

import (
	"iter"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/alexisbeaulieu97/prism/internal/domain/theme"
	prismerrors "github.com/alexisbeaulieu97/prism/pkg/errors"
)

// Registry holds named palettes in registration order. It is safe for
// concurrent use; palettes are copied on the way in and out.
type Registry struct {
	mu       sync.RWMutex
	order    []string
	palettes map[string]theme.Palette
	revision atomic.Uint64
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{palettes: make(map[string]theme.Palette)}
}

// Register validates p and stores a copy of it. A palette whose light and
// dark maps disagree, or whose id is malformed or already taken, is rejected
// with a SchemaError.
func (r *Registry) Register(p theme.Palette) error {
	if err := p.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.palettes[p.ID]; exists {
		return prismerrors.NewSchemaError(p.ID, "palette already registered")
	}
	r.palettes[p.ID] = p.Clone()
	r.order = append(r.order, p.ID)
	r.revision.Add(1)
	return nil
}

// Get retrieves a copy of the palette registered under id.
func (r *Registry) Get(id string) (theme.Palette, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.palettes[id]
	if !ok {
		return theme.Palette{}, prismerrors.NewNotFoundError("palette", id)
	}
	return p.Clone(), nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.palettes[id]
	return ok
}

// List yields registered ids in registration order. The sequence works on a
// snapshot taken when iteration starts, so it can be ranged over repeatedly.
func (r *Registry) List() iter.Seq[string] {
	return func(yield func(string) bool) {
		r.mu.RLock()
		ids := slices.Clone(r.order)
		r.mu.RUnlock()

		for _, id := range ids {
			if !yield(id) {
				return
			}
		}
	}
}

// Palettes yields copies of every registered palette in registration order.
func (r *Registry) Palettes() iter.Seq[theme.Palette] {
	return func(yield func(theme.Palette) bool) {
		for id := range r.List() {
			p, err := r.Get(id)
			if err != nil {
				continue
			}
			if !yield(p) {
				return
			}
		}
	}
}

// Len returns the number of registered palettes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Revision increases on every successful Register. Caches derived from
// registry contents compare revisions to detect staleness.
func (r *Registry) Revision() uint64 {
	return r.revision.Load()
}
