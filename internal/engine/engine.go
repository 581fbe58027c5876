package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alexisbeaulieu97/prism/internal/analytics"
	"github.com/alexisbeaulieu97/prism/internal/domain/theme"
	"github.com/alexisbeaulieu97/prism/internal/infrastructure/events"
	"github.com/alexisbeaulieu97/prism/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/prism/internal/ports"
	prismerrors "github.com/alexisbeaulieu97/prism/pkg/errors"
)

// Palettes reports which palettes are registered.
type Palettes interface {
	Has(id string) bool
}

// Composer turns a composition into variables.
type Composer interface {
	Compose(theme.Composition) (*theme.Variables, error)
}

// Resolver maps modes to appearances and relays ambient changes.
type Resolver interface {
	Resolve(theme.Mode) bool
	SetActiveMode(theme.Mode)
	Watch(fn func(dark bool)) ports.Subscription
}

// Applier writes variables onto the document root.
type Applier interface {
	Apply(ctx context.Context, paletteID string, dark bool, vars *theme.Variables) error
}

// Storage persists the committed theme and relays remote changes.
type Storage interface {
	Save(ctx context.Context, rec theme.Record) error
	Load(ctx context.Context) (*theme.Record, error)
	Subscribe(fn func(context.Context, theme.Record)) ports.Subscription
	ParseImport(ctx context.Context, blob []byte) (*theme.Record, error)
}

// Analytics records usage and suggests themes.
type Analytics interface {
	Track(ctx context.Context, paletteID string, mode theme.Mode, usageContext string) error
	Recommendations(ctx context.Context, q analytics.Query) ([]theme.Recommendation, error)
	AutoSwitch(ctx context.Context, q analytics.Query) (*theme.Recommendation, bool)
}

// Deps are the collaborators of an Engine. Storage, Analytics, Logger and
// Events are optional; without storage the theme lives for the session only.
type Deps struct {
	Palettes  Palettes
	Composer  Composer
	Resolver  Resolver
	Applier   Applier
	Storage   Storage
	Analytics Analytics
	Logger    ports.Logger
	Events    ports.EventPublisher
}

// Options tunes an Engine.
type Options struct {
	// TransitionDuration is how long a local change stays in the
	// transitioning phase. Zero commits immediately.
	TransitionDuration time.Duration
	// Context labels usage records when a request does not name one.
	Context string
	// Default is applied by ResetToDefault and substituted for invalid requests.
	Default Request
	// Now overrides the clock.
	Now func() time.Time
}

type applyOpts struct {
	persist   bool
	commitNow bool
}

// Engine orchestrates mode resolution, composition, document application,
// persistence and analytics for one execution context.
type Engine struct {
	palettes  Palettes
	composer  Composer
	resolver  Resolver
	applier   Applier
	storage   Storage
	analytics Analytics
	events    ports.EventPublisher
	logger    ports.Logger
	opts      Options

	applyMu sync.Mutex

	mu          sync.Mutex
	phase       Phase
	state       theme.State
	vars        *theme.Variables
	timer       *time.Timer
	generation  uint64
	closed      bool
	nextSubID   int
	subscribers map[int]func(theme.State)
	watches     []ports.Subscription

	persistMu  sync.Mutex
	persistSeq atomic.Uint64
	tasks      sync.WaitGroup
}

// New creates an Engine. Palettes, Composer, Resolver and Applier are required.
func New(deps Deps, opts Options) (*Engine, error) {
	switch {
	case deps.Palettes == nil:
		return nil, errors.New("engine: palettes are required")
	case deps.Composer == nil:
		return nil, errors.New("engine: composer is required")
	case deps.Resolver == nil:
		return nil, errors.New("engine: resolver is required")
	case deps.Applier == nil:
		return nil, errors.New("engine: applier is required")
	}

	if opts.TransitionDuration < 0 {
		opts.TransitionDuration = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	e := &Engine{
		palettes:    deps.Palettes,
		composer:    deps.Composer,
		resolver:    deps.Resolver,
		applier:     deps.Applier,
		storage:     deps.Storage,
		analytics:   deps.Analytics,
		events:      deps.Events,
		logger:      logging.OrNoOp(deps.Logger).With("component", "engine"),
		opts:        opts,
		subscribers: make(map[int]func(theme.State)),
	}
	def, err := e.checkDefault(opts.Default)
	if err != nil {
		return nil, err
	}
	e.opts.Default = def
	return e, nil
}

// checkDefault settles the fallback theme. A configured default that fails
// validation or composition is replaced by the built-in one; New fails when
// even that cannot be composed, so fallbacks always have a theme to apply.
func (e *Engine) checkDefault(req Request) (Request, error) {
	if req.PaletteID == "" {
		req.PaletteID = theme.DefaultPaletteID
	}
	if req.Mode == "" {
		req.Mode = theme.ModeSystem
	}
	err := e.validate(req)
	if err == nil {
		err = e.composeBoth(req)
	}
	if err == nil {
		return req, nil
	}
	e.logger.Warn(context.Background(), "configured default theme is unusable; using built-in default",
		"palette_id", req.PaletteID, "error", err)

	def := DefaultRequest()
	if err := e.composeBoth(def); err != nil {
		return Request{}, fmt.Errorf("engine: default theme %q cannot be composed: %w", def.PaletteID, err)
	}
	return def, nil
}

func (e *Engine) composeBoth(req Request) error {
	for _, dark := range []bool{false, true} {
		if _, err := e.composer.Compose(req.Composition(dark)); err != nil {
			return err
		}
	}
	return nil
}

// Init restores the persisted theme, or the default when none is usable,
// applies it and starts following ambient and remote changes.
func (e *Engine) Init(ctx context.Context) (err error) {
	ctx = withCorrelation(ctx)
	defer func() {
		if r := recover(); r != nil {
			e.logPanic(ctx, "init", r)
			err = fmt.Errorf("engine init panicked: %v", r)
		}
	}()

	e.applyMu.Lock()
	defer e.applyMu.Unlock()

	e.mu.Lock()
	phase, closed := e.phase, e.closed
	e.mu.Unlock()
	if closed {
		return theme.NewStateError("engine is closed")
	}
	if phase != PhaseUninitialized {
		return theme.NewStateError("engine already initialized")
	}
	return e.init(ctx)
}

func (e *Engine) init(ctx context.Context) error {
	req := e.defaultRequest()
	if e.storage != nil {
		rec, err := e.storage.Load(ctx)
		switch {
		case err != nil:
			e.logger.Warn(ctx, "stored theme unavailable; using default", "error", err)
			e.publish(ctx, ports.EventStorageFailed, "operation", "load", "error", err.Error())
		case rec != nil:
			req = RequestFromRecord(*rec)
			e.logger.Debug(ctx, "restoring stored theme", "palette_id", rec.ColorThemeID, "mode", rec.Mode)
		}
	}

	if err := e.apply(ctx, req, applyOpts{commitNow: true}); err != nil {
		return err
	}

	var watches []ports.Subscription
	if e.storage != nil {
		watches = append(watches, e.storage.Subscribe(e.onRemote))
	}
	watches = append(watches, e.resolver.Watch(e.onAmbient))

	e.mu.Lock()
	e.watches = append(e.watches, watches...)
	e.mu.Unlock()

	e.logger.Info(ctx, "theme engine ready", "palette_id", req.PaletteID, "mode", req.Mode)
	return nil
}

// ApplyTheme validates, composes and applies req. Invalid input is replaced
// by the default theme, which New has already proven composable. It returns
// false when the document rejected the write, or when a composer fault hit
// the default as well; either way the previous theme is still visible. Calls are
// serialised; a call made while another is applying waits for it.
func (e *Engine) ApplyTheme(ctx context.Context, req Request) (ok bool) {
	ctx = withCorrelation(ctx)
	defer e.recoverOp(ctx, "apply_theme", &ok)

	e.applyMu.Lock()
	defer e.applyMu.Unlock()
	if !e.ready(ctx) {
		return false
	}
	return e.apply(ctx, req, applyOpts{persist: true}) == nil
}

// ToggleMode applies the opposite of the current appearance, keeping every
// other layer.
func (e *Engine) ToggleMode(ctx context.Context) (ok bool) {
	ctx = withCorrelation(ctx)
	defer e.recoverOp(ctx, "toggle_mode", &ok)

	e.applyMu.Lock()
	defer e.applyMu.Unlock()
	if !e.ready(ctx) {
		return false
	}
	st := e.State()
	req := RequestFromState(st)
	req.Mode = theme.ModeFor(!st.ResolvedDark)
	return e.apply(ctx, req, applyOpts{persist: true}) == nil
}

// ResetToDefault applies the engine's default theme.
func (e *Engine) ResetToDefault(ctx context.Context) (ok bool) {
	ctx = withCorrelation(ctx)
	defer e.recoverOp(ctx, "reset", &ok)

	e.applyMu.Lock()
	defer e.applyMu.Unlock()
	if !e.ready(ctx) {
		return false
	}
	return e.apply(ctx, e.defaultRequest(), applyOpts{persist: true}) == nil
}

// AutoSwitch applies the analytics top recommendation for usageContext when
// it is confident enough and differs from the current theme.
func (e *Engine) AutoSwitch(ctx context.Context, usageContext string) (ok bool) {
	ctx = withCorrelation(ctx)
	defer e.recoverOp(ctx, "auto_switch", &ok)

	if e.analytics == nil {
		return false
	}

	e.applyMu.Lock()
	defer e.applyMu.Unlock()
	if !e.ready(ctx) {
		return false
	}

	st := e.State()
	rec, accepted := e.analytics.AutoSwitch(ctx, analytics.Query{Context: e.usageContext(usageContext), Current: &st})
	if !accepted {
		return false
	}
	if rec.PaletteID == st.PaletteID && rec.Mode == st.Mode {
		e.logger.Debug(ctx, "recommended theme already active", "palette_id", rec.PaletteID)
		return false
	}

	req := RequestFromState(st)
	req.PaletteID = rec.PaletteID
	req.Mode = rec.Mode
	req.Context = usageContext
	e.logger.Info(ctx, "switching to recommended theme",
		"palette_id", rec.PaletteID,
		"mode", rec.Mode,
		"confidence", rec.Confidence,
	)
	return e.apply(ctx, req, applyOpts{persist: true}) == nil
}

// Recommendations returns ranked suggestions for usageContext.
func (e *Engine) Recommendations(ctx context.Context, usageContext string) (recs []theme.Recommendation, err error) {
	ctx = withCorrelation(ctx)
	defer func() {
		if r := recover(); r != nil {
			e.logPanic(ctx, "recommendations", r)
			recs, err = nil, fmt.Errorf("recommendations panicked: %v", r)
		}
	}()

	if e.analytics == nil {
		return nil, nil
	}
	st := e.State()
	return e.analytics.Recommendations(ctx, analytics.Query{Context: e.usageContext(usageContext), Current: &st})
}

// Import validates a backup blob and applies it. A rejected blob returns an
// ImportError and leaves the current theme and storage untouched. A valid
// blob naming a palette that is not registered here is applied like any other
// request: the default theme replaces it, a warning is logged and
// theme.fallback is published.
func (e *Engine) Import(ctx context.Context, blob []byte) (err error) {
	ctx = withCorrelation(ctx)
	defer func() {
		if r := recover(); r != nil {
			e.logPanic(ctx, "import", r)
			err = fmt.Errorf("import panicked: %v", r)
		}
	}()

	if e.storage == nil {
		return prismerrors.NewImportError("no storage configured", nil)
	}
	rec, err := e.storage.ParseImport(ctx, blob)
	if err != nil {
		return err
	}
	if !e.palettes.Has(rec.ColorThemeID) {
		e.logger.Warn(ctx, "imported palette is not registered; default theme will be applied",
			"palette_id", rec.ColorThemeID)
	}

	e.applyMu.Lock()
	defer e.applyMu.Unlock()
	if !e.ready(ctx) {
		return theme.NewStateError("engine is closed")
	}
	return e.apply(ctx, RequestFromRecord(*rec), applyOpts{persist: true})
}

// Export returns the committed theme as an indented backup blob.
func (e *Engine) Export(context.Context) ([]byte, error) {
	return json.MarshalIndent(e.State().Record(), "", "  ")
}

// Subscribe registers fn for committed states. fn runs once per commit: when
// a local transition settles, or immediately for remote and ambient changes.
// fn may run while a change is being applied and must not call back into the
// engine's mutating operations synchronously.
func (e *Engine) Subscribe(fn func(theme.State)) ports.Subscription {
	if fn == nil {
		return ports.SubscriptionFunc(nil)
	}
	e.mu.Lock()
	e.nextSubID++
	id := e.nextSubID
	e.subscribers[id] = fn
	e.mu.Unlock()

	var once sync.Once
	return ports.SubscriptionFunc(func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.subscribers, id)
			e.mu.Unlock()
		})
	})
}

// State returns a copy of the current state.
func (e *Engine) State() theme.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Phase returns the lifecycle phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Variables returns the variables of the current theme, or nil before Init.
func (e *Engine) Variables() *theme.Variables {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vars
}

// Close settles any pending transition without notifying, stops following
// changes, drops subscribers and waits for background persistence and
// analytics tasks.
func (e *Engine) Close() error {
	e.applyMu.Lock()
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		e.applyMu.Unlock()
		return nil
	}
	e.closed = true
	e.generation++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if e.phase == PhaseTransitioning {
		e.phase = PhaseReady
		e.state.Transitioning = false
	}
	watches := e.watches
	e.watches = nil
	e.subscribers = make(map[int]func(theme.State))
	e.mu.Unlock()
	e.applyMu.Unlock()

	for _, w := range watches {
		w.Unsubscribe()
	}
	e.tasks.Wait()
	return nil
}

// ready reports whether the engine accepts changes, initialising it on first
// use. applyMu must be held.
func (e *Engine) ready(ctx context.Context) bool {
	e.mu.Lock()
	phase, closed := e.phase, e.closed
	e.mu.Unlock()
	if closed {
		e.logger.Warn(ctx, "engine is closed; ignoring request")
		return false
	}
	if phase == PhaseUninitialized {
		if err := e.init(ctx); err != nil {
			e.logger.Error(ctx, "engine initialisation failed", "error", err)
			return false
		}
	}
	return true
}

// apply runs one application. applyMu must be held.
func (e *Engine) apply(ctx context.Context, req Request, o applyOpts) error {
	start := time.Now()
	if req.Mode == "" {
		req.Mode = e.opts.Default.Mode
	}
	if err := e.validate(req); err != nil {
		req = e.fallback(ctx, req, err)
	}

	dark := e.resolver.Resolve(req.Mode)
	comp := req.Composition(dark)
	vars, err := e.composer.Compose(comp)
	if err != nil && req.PaletteID != e.opts.Default.PaletteID {
		req = e.fallback(ctx, req, err)
		dark = e.resolver.Resolve(req.Mode)
		comp = req.Composition(dark)
		vars, err = e.composer.Compose(comp)
	}
	if err != nil {
		e.logger.Error(ctx, "default theme cannot be composed", "palette_id", comp.Base, "error", err)
		return err
	}

	if err := e.applier.Apply(ctx, comp.Base, dark, vars); err != nil {
		e.logger.Error(ctx, "theme application failed; previous theme kept", "palette_id", comp.Base, "error", err)
		e.publish(ctx, ports.EventThemeApplyFailed, "palette_id", comp.Base, "error", err.Error())
		return err
	}

	transitioning := !o.commitNow && e.opts.TransitionDuration > 0
	st := theme.State{
		Mode:           req.Mode,
		PaletteID:      comp.Base,
		Variant:        comp.Variant,
		Size:           comp.Size,
		Density:        comp.Density,
		Accessibility:  comp.Accessibility.Clone(),
		Customizations: comp.Customizations,
		ResolvedDark:   dark,
		Transitioning:  transitioning,
		LastChanged:    e.opts.Now(),
	}
	e.resolver.SetActiveMode(req.Mode)

	e.mu.Lock()
	e.state = st
	e.vars = vars
	if transitioning {
		e.phase = PhaseTransitioning
	}
	// A pending commit from an earlier apply must not fire for this state.
	e.generation++
	gen := e.generation
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.mu.Unlock()

	e.logger.Debug(ctx, "theme applied",
		"palette_id", st.PaletteID,
		"mode", st.Mode,
		"dark", dark,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	e.publish(ctx, ports.EventThemeApplied, "palette_id", st.PaletteID, "mode", string(st.Mode), "dark", dark)

	if o.persist {
		e.persist(ctx, st)
		e.track(ctx, st, req.Context)
	}

	if transitioning {
		e.scheduleCommit(ctx, gen)
	} else {
		e.commit(ctx, gen)
	}
	return nil
}

func (e *Engine) validate(req Request) error {
	if !req.Mode.Valid() {
		return prismerrors.NewInvalidCompositionError("mode", string(req.Mode))
	}
	if err := req.Composition(false).Validate(); err != nil {
		return err
	}
	if !e.palettes.Has(req.PaletteID) {
		return prismerrors.NewUnknownPaletteError(req.PaletteID, nil)
	}
	return nil
}

func (e *Engine) fallback(ctx context.Context, req Request, reason error) Request {
	e.logger.Warn(ctx, "invalid theme request; using default",
		"palette_id", req.PaletteID,
		"mode", req.Mode,
		"error", reason,
	)
	e.publish(ctx, ports.EventThemeFallback, "palette_id", req.PaletteID, "error", reason.Error())
	def := e.defaultRequest()
	def.Context = req.Context
	return def
}

func (e *Engine) defaultRequest() Request {
	def := e.opts.Default
	def.Accessibility = def.Accessibility.Clone()
	def.Customizations = maps.Clone(def.Customizations)
	return def
}

func (e *Engine) usageContext(name string) string {
	if name != "" {
		return name
	}
	return e.opts.Context
}

// scheduleCommit arms the transition timer for generation gen unless a newer
// apply already superseded it.
func (e *Engine) scheduleCommit(ctx context.Context, gen uint64) {
	ctx = context.WithoutCancel(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || gen != e.generation {
		return
	}
	e.timer = time.AfterFunc(e.opts.TransitionDuration, func() {
		e.commit(ctx, gen)
	})
}

// commit ends the transition and notifies subscribers. It is dropped when a
// newer apply superseded generation gen.
func (e *Engine) commit(ctx context.Context, gen uint64) {
	e.mu.Lock()
	if e.closed || gen != e.generation {
		e.mu.Unlock()
		return
	}
	e.timer = nil
	e.phase = PhaseReady
	e.state.Transitioning = false
	st := e.state.Clone()
	fns := make([]func(theme.State), 0, len(e.subscribers))
	for _, fn := range e.subscribers {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		e.notify(ctx, fn, st)
	}
	e.publish(ctx, ports.EventThemeCommitted, "palette_id", st.PaletteID, "mode", string(st.Mode), "dark", st.ResolvedDark)
}

func (e *Engine) notify(ctx context.Context, fn func(theme.State), st theme.State) {
	defer func() {
		if r := recover(); r != nil {
			e.logPanic(ctx, "subscriber", r)
		}
	}()
	fn(st.Clone())
}

// persist saves st in the background. Saves run one at a time and a save
// superseded by a newer one is skipped.
func (e *Engine) persist(ctx context.Context, st theme.State) {
	if e.storage == nil {
		return
	}
	rec := st.Record()
	seq := e.persistSeq.Add(1)
	e.detach(ctx, "persist", func(ctx context.Context) error {
		e.persistMu.Lock()
		defer e.persistMu.Unlock()
		if seq < e.persistSeq.Load() {
			return nil
		}
		if err := e.storage.Save(ctx, rec); err != nil {
			e.publish(ctx, ports.EventStorageFailed, "operation", "save", "error", err.Error())
			return err
		}
		return nil
	})
}

// track records the resolved appearance so recommendations name a concrete mode.
func (e *Engine) track(ctx context.Context, st theme.State, usageContext string) {
	if e.analytics == nil {
		return
	}
	usageContext = e.usageContext(usageContext)
	mode := theme.ModeFor(st.ResolvedDark)
	e.detach(ctx, "track", func(ctx context.Context) error {
		return e.analytics.Track(ctx, st.PaletteID, mode, usageContext)
	})
}

func (e *Engine) detach(ctx context.Context, task string, fn func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	e.tasks.Add(1)
	go func() {
		defer e.tasks.Done()
		defer func() {
			if r := recover(); r != nil {
				e.logPanic(ctx, task, r)
			}
		}()
		if err := fn(ctx); err != nil {
			e.logger.Warn(ctx, "background task failed", "task", task, "error", err)
		}
	}()
}

func (e *Engine) onRemote(ctx context.Context, rec theme.Record) {
	defer e.recoverOp(ctx, "reconcile", nil)

	e.applyMu.Lock()
	defer e.applyMu.Unlock()
	e.mu.Lock()
	closed, phase, current := e.closed, e.phase, e.state.Clone()
	e.mu.Unlock()
	if closed || phase == PhaseUninitialized {
		return
	}

	req := RequestFromRecord(rec)
	if sameTheme(RequestFromState(current), req) {
		return
	}
	if err := e.apply(ctx, req, applyOpts{commitNow: true}); err != nil {
		e.logger.Warn(ctx, "remote theme not applied", "palette_id", rec.ColorThemeID, "error", err)
		return
	}
	e.logger.Info(ctx, "adopted theme from another context", "palette_id", rec.ColorThemeID, "mode", rec.Mode)
	e.publish(ctx, ports.EventThemeReconciled, "palette_id", rec.ColorThemeID, "mode", string(rec.Mode))
}

func (e *Engine) onAmbient(dark bool) {
	ctx := withCorrelation(context.Background())
	defer e.recoverOp(ctx, "ambient_change", nil)

	e.applyMu.Lock()
	defer e.applyMu.Unlock()
	e.mu.Lock()
	closed, phase, current := e.closed, e.phase, e.state.Clone()
	e.mu.Unlock()
	if closed || phase == PhaseUninitialized || current.Mode != theme.ModeSystem || current.ResolvedDark == dark {
		return
	}

	if err := e.apply(ctx, RequestFromState(current), applyOpts{commitNow: true}); err != nil {
		e.logger.Warn(ctx, "ambient change not applied", "error", err)
		return
	}
	e.publish(ctx, ports.EventAmbientChanged, "dark", dark)
}

func (e *Engine) publish(ctx context.Context, eventType string, kv ...interface{}) {
	if e.events == nil {
		return
	}
	if err := e.events.Publish(ctx, events.NewEvent(eventType, kv...)); err != nil {
		e.logger.Debug(ctx, "event publish failed", "event_type", eventType, "error", err)
	}
}

func (e *Engine) recoverOp(ctx context.Context, op string, ok *bool) {
	if r := recover(); r != nil {
		e.logPanic(ctx, op, r)
		if ok != nil {
			*ok = false
		}
	}
}

func (e *Engine) logPanic(ctx context.Context, op string, r interface{}) {
	e.logger.Error(ctx, "recovered from panic", "operation", op, "panic", r, "stack", string(debug.Stack()))
}

func sameTheme(a, b Request) bool {
	return a.Mode == b.Mode && a.Composition(false).Key() == b.Composition(false).Key()
}

func withCorrelation(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if ports.GetCorrelationID(ctx) != "" {
		return ctx
	}
	return ports.WithCorrelationID(ctx, ports.GenerateCorrelationID())
}
