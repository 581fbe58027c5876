package composer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/prism/internal/domain/theme"
	"github.com/alexisbeaulieu97/prism/internal/palette"
	prismerrors "github.com/alexisbeaulieu97/prism/pkg/errors"
)

func newComposer(t *testing.T) (*Composer, *palette.Registry) {
	t.Helper()
	reg, err := palette.NewBuiltinRegistry()
	require.NoError(t, err)
	return New(reg, nil), reg
}

func oceanComposition() theme.Composition {
	return theme.Composition{
		Base:    "ocean",
		Variant: theme.VariantDefault,
		Size:    theme.SizeMedium,
		Density: theme.DensityMedium,
	}
}

func TestComposeOceanExposesCanonicalVariables(t *testing.T) {
	t.Parallel()

	c, _ := newComposer(t)
	vars, err := c.Compose(oceanComposition())
	require.NoError(t, err)

	require.Equal(t, "#f4f9fc", vars.Canonical.Get(theme.CanonicalBackground))
	require.Equal(t, "#0b2a3c", vars.Canonical.Get(theme.CanonicalForeground))
	require.Equal(t, "1rem", vars.Raw["space-md"])
	require.Equal(t, "8px", vars.Raw["radius-md"])
}

func TestComposeIsCachedAndIdempotent(t *testing.T) {
	t.Parallel()

	c, _ := newComposer(t)
	first, err := c.Compose(oceanComposition())
	require.NoError(t, err)
	second, err := c.Compose(oceanComposition())
	require.NoError(t, err)

	require.Same(t, first, second)
	require.Equal(t, uint64(1), c.Builds())
	require.Equal(t, 1, c.CacheLen())

	c.ClearCache()
	third, err := c.Compose(oceanComposition())
	require.NoError(t, err)
	require.NotSame(t, first, third)
	require.Equal(t, first.Raw, third.Raw)
	require.Equal(t, first.Canonical, third.Canonical)
}

func TestComposeDeduplicatesConcurrentMisses(t *testing.T) {
	t.Parallel()

	c, _ := newComposer(t)
	var wg sync.WaitGroup
	results := make([]*theme.Variables, 32)
	for i := range results {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			vars, err := c.Compose(oceanComposition())
			assert.NoError(t, err)
			results[n] = vars
		}(i)
	}
	wg.Wait()

	for _, vars := range results {
		require.Same(t, results[0], vars)
	}
	require.Equal(t, uint64(1), c.Builds())
}

func TestRegistryChangeInvalidatesCache(t *testing.T) {
	t.Parallel()

	c, reg := newComposer(t)
	first, err := c.Compose(oceanComposition())
	require.NoError(t, err)

	require.NoError(t, reg.Register(theme.Palette{
		ID:    "mint",
		Light: map[string]string{"color-background": "#f0fff4"},
		Dark:  map[string]string{"color-background": "#0b1f14"},
	}))

	second, err := c.Compose(oceanComposition())
	require.NoError(t, err)
	require.NotSame(t, first, second)
	require.Equal(t, uint64(2), c.Builds())
}

func TestComposeErrors(t *testing.T) {
	t.Parallel()

	c, _ := newComposer(t)

	comp := oceanComposition()
	comp.Base = "atlantis"
	_, err := c.Compose(comp)
	var unknown *prismerrors.UnknownPaletteError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "atlantis", unknown.PaletteID)
	require.False(t, c.ValidateComposition(comp))

	comp = oceanComposition()
	comp.Size = "huge"
	_, err = c.Compose(comp)
	var invalid *prismerrors.InvalidCompositionError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, "size", invalid.Field)
	require.Equal(t, "huge", invalid.Value)
	require.False(t, c.ValidateComposition(comp))

	require.True(t, c.ValidateComposition(oceanComposition()))
}

func TestScalingStages(t *testing.T) {
	t.Parallel()

	c, _ := newComposer(t)
	cases := []struct {
		name     string
		mutate   func(*theme.Composition)
		space    string
		fontSize string
	}{
		{"compact variant", func(c *theme.Composition) { c.Variant = theme.VariantCompact }, "0.75rem", "0.9375rem"},
		{"accessible variant", func(c *theme.Composition) { c.Variant = theme.VariantAccessible }, "1.25rem", "1.125rem"},
		{"xl size", func(c *theme.Composition) { c.Size = theme.SizeExtraLarge }, "1.25rem", "1.25rem"},
		{"sm size", func(c *theme.Composition) { c.Size = theme.SizeSmall }, "0.875rem", "0.875rem"},
		{"low density", func(c *theme.Composition) { c.Density = theme.DensityLow }, "1.25rem", "1rem"},
		{"high density", func(c *theme.Composition) { c.Density = theme.DensityHigh }, "0.75rem", "1rem"},
		{"stacked", func(c *theme.Composition) {
			c.Variant = theme.VariantComfortable
			c.Size = theme.SizeLarge
			c.Density = theme.DensityLow
		}, "1.7579rem", "1.1953rem"},
	}
	for _, tc := range cases {
		comp := oceanComposition()
		tc.mutate(&comp)
		vars, err := c.Compose(comp)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.space, vars.Raw["space-md"], tc.name)
		assert.Equal(t, tc.fontSize, vars.Raw["font-size-md"], tc.name)
		assert.Equal(t, "#0077b6", vars.Raw["color-primary"], "%s: scaling never touches colour", tc.name)
	}
}

func TestAccessibilityOverrides(t *testing.T) {
	t.Parallel()

	c, _ := newComposer(t)
	comp := oceanComposition()
	comp.Accessibility = &theme.Accessibility{ReducedMotion: true, LargerText: true, HighContrast: true}
	vars, err := c.Compose(comp)
	require.NoError(t, err)

	require.Equal(t, "0ms", vars.Raw["transition-duration"])
	require.Equal(t, "0ms", vars.Raw["animation-duration"])
	require.Equal(t, "1.25rem", vars.Raw["font-size-md"])
	require.Equal(t, "4px", vars.Raw["focus-ring-width"])
	require.Equal(t, "#ffffff", vars.Raw["color-background"])
	require.Equal(t, "#ffffff", vars.Raw["color-surface"])

	bg, ok := parseColor(vars.Canonical.Get(theme.CanonicalBackground))
	require.True(t, ok)
	for name, value := range vars.Raw {
		if theme.IsSurfaceName(name) {
			continue
		}
		if fg, ok := parseColor(value); ok {
			assert.GreaterOrEqual(t, ContrastRatio(fg, bg), MinContrast, name)
		}
	}

	comp.Dark = true
	comp.Accessibility = &theme.Accessibility{FocusRingWidth: "3px"}
	dark, err := c.Compose(comp)
	require.NoError(t, err)
	require.Equal(t, "3px", dark.Raw["focus-ring-width"])
	require.Equal(t, "#03131f", dark.Raw["color-background"], "no high contrast requested")
}

func TestLaterStagesWin(t *testing.T) {
	t.Parallel()

	reg := palette.NewRegistry()
	require.NoError(t, reg.Register(theme.Palette{
		ID:    "custom",
		Light: map[string]string{"line-height": "1.7", "space-md": "2rem", "text": "#222222"},
		Dark:  map[string]string{"line-height": "1.7", "space-md": "2rem", "text": "#dddddd"},
	}))
	c := New(reg, nil)

	vars, err := c.Compose(theme.Composition{
		Base:    "custom",
		Density: theme.DensityHigh,
		Accessibility: &theme.Accessibility{
			ReducedMotion: true,
		},
		Customizations: map[string]string{
			"transition-duration": "50ms",
			"color-background":    "#abcdef",
			"font-size-md":        "20px",
		},
	})
	require.NoError(t, err)

	require.Equal(t, "1.7", vars.Raw["line-height"], "palette overrides foundation")
	require.Equal(t, "1.5rem", vars.Raw["space-md"], "density scales the palette value")
	require.Equal(t, "50ms", vars.Raw["transition-duration"], "customization overrides accessibility")
	require.Equal(t, "20px", vars.Raw["font-size-md"])
	require.Equal(t, "#abcdef", vars.Canonical.Get(theme.CanonicalBackground), "aliasing runs on the final map")
	require.Equal(t, "#222222", vars.Canonical.Get(theme.CanonicalForeground), "legacy source used when no rich one exists")
}

func TestComposeDoesNotMutatePalette(t *testing.T) {
	t.Parallel()

	c, reg := newComposer(t)
	comp := oceanComposition()
	comp.Customizations = map[string]string{"color-primary": "#ff0000"}
	_, err := c.Compose(comp)
	require.NoError(t, err)

	p, err := reg.Get("ocean")
	require.NoError(t, err)
	require.Equal(t, "#0077b6", p.Light["color-primary"])
}
