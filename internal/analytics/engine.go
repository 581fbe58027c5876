package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/alexisbeaulieu97/prism/internal/domain/theme"
	"github.com/alexisbeaulieu97/prism/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/prism/internal/ports"
)

// Options tunes scoring and retention.
type Options struct {
	// Threshold is the confidence an automatic switch must strictly exceed.
	Threshold float64
	// HalfLife is the age at which an event counts half as much.
	HalfLife time.Duration
	// ContextWeight scales events recorded in a different context.
	ContextWeight float64
	// MinSamples is the number of uses below which confidence is discounted.
	MinSamples int
	// MaxEvents and MaxAge bound the stored history.
	MaxEvents int
	MaxAge    time.Duration
	// Now overrides the clock.
	Now func() time.Time
}

// DefaultOptions returns the stock scoring parameters.
func DefaultOptions() Options {
	return Options{
		Threshold:     0.7,
		HalfLife:      7 * 24 * time.Hour,
		ContextWeight: 0.25,
		MinSamples:    3,
		MaxEvents:     500,
		MaxAge:        90 * 24 * time.Hour,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Threshold <= 0 {
		o.Threshold = def.Threshold
	}
	if o.HalfLife <= 0 {
		o.HalfLife = def.HalfLife
	}
	if o.ContextWeight < 0 {
		o.ContextWeight = def.ContextWeight
	}
	if o.MinSamples <= 0 {
		o.MinSamples = def.MinSamples
	}
	if o.MaxEvents <= 0 {
		o.MaxEvents = def.MaxEvents
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Query scopes a recommendation request.
type Query struct {
	Context string
	Current *theme.State
}

// Engine records usage and derives recommendations from it.
type Engine struct {
	store  ports.UsageStore
	opts   Options
	logger ports.Logger
}

// New creates an Engine over store.
func New(store ports.UsageStore, opts Options, logger ports.Logger) *Engine {
	return &Engine{
		store:  store,
		opts:   opts.withDefaults(),
		logger: logging.OrNoOp(logger).With("component", "analytics"),
	}
}

// Options returns the effective options.
func (e *Engine) Options() Options { return e.opts }

// Track records one use of paletteID in mode from the named context and
// applies retention.
func (e *Engine) Track(ctx context.Context, paletteID string, mode theme.Mode, usageContext string) error {
	if !theme.ValidPaletteID(paletteID) {
		return fmt.Errorf("track usage: invalid palette id %q", paletteID)
	}
	if !mode.Valid() {
		return fmt.Errorf("track usage: invalid mode %q", mode)
	}

	now := e.opts.Now()
	record := ports.UsageRecord{
		PaletteID: paletteID,
		Mode:      string(mode),
		Context:   usageContext,
		Timestamp: now.UTC(),
	}
	if err := e.store.Append(ctx, record, e.opts.MaxEvents); err != nil {
		return fmt.Errorf("track usage: %w", err)
	}
	if e.opts.MaxAge > 0 {
		removed, err := e.store.Prune(ctx, now.Add(-e.opts.MaxAge))
		if err != nil {
			return fmt.Errorf("prune usage: %w", err)
		}
		if removed > 0 {
			e.logger.Debug(ctx, "usage history pruned", "removed", removed)
		}
	}
	return nil
}

// Events returns the stored history as domain events, oldest first.
func (e *Engine) Events(ctx context.Context) ([]theme.UsageEvent, error) {
	records, err := e.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list usage: %w", err)
	}
	out := make([]theme.UsageEvent, 0, len(records))
	for _, r := range records {
		out = append(out, theme.UsageEvent{
			PaletteID: r.PaletteID,
			Mode:      theme.Mode(r.Mode),
			Context:   r.Context,
			Timestamp: r.Timestamp,
		})
	}
	return out, nil
}

type bucket struct {
	paletteID string
	mode      theme.Mode
	score     float64
	uses      int
	lastUsed  time.Time
	sameCtx   int
}

// Recommendations ranks every (palette, mode) pair in the history by
// confidence, highest first. Ties go to the most recently used pair.
func (e *Engine) Recommendations(ctx context.Context, q Query) ([]theme.Recommendation, error) {
	events, err := e.Events(ctx)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}

	now := e.opts.Now()
	buckets := make(map[string]*bucket)
	var total float64
	for _, ev := range events {
		key := ev.PaletteID + "/" + string(ev.Mode)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{paletteID: ev.PaletteID, mode: ev.Mode}
			buckets[key] = b
		}
		weight := e.opts.ContextWeight
		if ev.Context == q.Context {
			weight = 1
			b.sameCtx++
		}
		age := now.Sub(ev.Timestamp)
		if age < 0 {
			age = 0
		}
		s := math.Pow(0.5, age.Hours()/e.opts.HalfLife.Hours()) * weight
		b.score += s
		b.uses++
		if ev.Timestamp.After(b.lastUsed) {
			b.lastUsed = ev.Timestamp
		}
		total += s
	}

	out := make([]theme.Recommendation, 0, len(buckets))
	for _, b := range buckets {
		share := 0.0
		if total > 0 {
			share = b.score / total
		}
		samples := math.Min(1, float64(b.uses)/float64(e.opts.MinSamples))
		out = append(out, theme.Recommendation{
			PaletteID:         b.paletteID,
			Mode:              b.mode,
			Confidence:        share * samples,
			Reason:            reason(b, q.Context),
			EnergyImpact:      energyImpact(b.mode),
			PerformanceImpact: performanceImpact(b, q.Current),
			LastUsed:          b.lastUsed,
			Uses:              b.uses,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].LastUsed.After(out[j].LastUsed)
	})
	return out, nil
}

// AutoSwitch returns the top recommendation when its confidence strictly
// exceeds the threshold.
func (e *Engine) AutoSwitch(ctx context.Context, q Query) (*theme.Recommendation, bool) {
	recs, err := e.Recommendations(ctx, q)
	if err != nil {
		e.logger.Warn(ctx, "recommendations unavailable", "error", err)
		return nil, false
	}
	if len(recs) == 0 || recs[0].Confidence <= e.opts.Threshold {
		return nil, false
	}
	top := recs[0]
	return &top, true
}

func reason(b *bucket, usageContext string) string {
	if usageContext != "" && b.sameCtx > 0 {
		return fmt.Sprintf("used %d of %d times in %s", b.sameCtx, b.uses, usageContext)
	}
	return fmt.Sprintf("used %d times", b.uses)
}

func energyImpact(m theme.Mode) theme.Impact {
	if m == theme.ModeDark {
		return theme.ImpactLow
	}
	return theme.ImpactMedium
}

func performanceImpact(b *bucket, current *theme.State) theme.Impact {
	if current != nil && current.PaletteID == b.paletteID && current.Mode == b.mode {
		return theme.ImpactNone
	}
	return theme.ImpactLow
}
