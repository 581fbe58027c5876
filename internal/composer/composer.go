package composer

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/alexisbeaulieu97/prism/internal/domain/theme"
	"github.com/alexisbeaulieu97/prism/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/prism/internal/ports"
	prismerrors "github.com/alexisbeaulieu97/prism/pkg/errors"
)

// PaletteSource is the part of the palette registry the composer reads.
type PaletteSource interface {
	Get(id string) (theme.Palette, error)
	Has(id string) bool
	Revision() uint64
}

// Composer turns compositions into variable sets. Results are cached by the
// composition key and shared between callers; the cache is dropped whenever
// the palette source reports a new revision.
type Composer struct {
	palettes PaletteSource
	logger   ports.Logger

	mu       sync.RWMutex
	cache    map[string]*theme.Variables
	revision uint64
	builds   uint64
	group    singleflight.Group
}

// New creates a Composer reading palettes from source.
func New(source PaletteSource, logger ports.Logger) *Composer {
	return &Composer{
		palettes: source,
		logger:   logging.OrNoOp(logger).With("component", "composer"),
		cache:    make(map[string]*theme.Variables),
		revision: source.Revision(),
	}
}

// Compose returns the variables for c. A cache hit returns the stored pointer
// unchanged. Unknown palettes fail with UnknownPaletteError and invalid enum
// members with InvalidCompositionError.
func (c *Composer) Compose(comp theme.Composition) (*theme.Variables, error) {
	comp = comp.Normalize()
	if err := comp.Validate(); err != nil {
		return nil, invalidComposition(err)
	}

	c.syncRevision()
	key := comp.Key()
	if vars, ok := c.lookup(key); ok {
		return vars, nil
	}

	result, err, _ := c.group.Do(key, func() (interface{}, error) {
		if vars, ok := c.lookup(key); ok {
			return vars, nil
		}
		p, err := c.palettes.Get(comp.Base)
		if err != nil {
			return nil, prismerrors.NewUnknownPaletteError(comp.Base, err)
		}
		vars := build(p, comp)

		c.mu.Lock()
		c.builds++
		if c.revision == c.palettes.Revision() {
			c.cache[key] = vars
		}
		c.mu.Unlock()

		c.logger.Debug(context.Background(), "composition built",
			"palette_id", comp.Base, "dark", comp.Dark, "variant", string(comp.Variant), "variables", vars.Len())
		return vars, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*theme.Variables), nil
}

// ValidateComposition reports whether Compose would accept c. It never fails.
func (c *Composer) ValidateComposition(comp theme.Composition) bool {
	if comp.Validate() != nil {
		return false
	}
	return c.palettes.Has(comp.Base)
}

// ClearCache drops every cached composition.
func (c *Composer) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*theme.Variables)
}

// CacheLen returns the number of cached compositions.
func (c *Composer) CacheLen() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Builds returns how many compositions were computed rather than served from cache.
func (c *Composer) Builds() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.builds
}

func (c *Composer) lookup(key string) (*theme.Variables, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	vars, ok := c.cache[key]
	return vars, ok
}

func (c *Composer) syncRevision() {
	current := c.palettes.Revision()
	c.mu.Lock()
	defer c.mu.Unlock()
	if current == c.revision {
		return
	}
	c.cache = make(map[string]*theme.Variables)
	c.revision = current
	c.logger.Debug(context.Background(), "composition cache invalidated", "revision", current)
}

func invalidComposition(err error) error {
	var domainErr *theme.DomainError
	if !errors.As(err, &domainErr) {
		return prismerrors.NewInvalidCompositionError("composition", err.Error())
	}
	field, _ := domainErr.Context["field"].(string)
	value, _ := domainErr.Context["value"].(string)
	if field == "" {
		field = "composition"
	}
	return prismerrors.NewInvalidCompositionError(field, value)
}
