package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alexisbeaulieu97/prism/internal/analytics"
	"github.com/alexisbeaulieu97/prism/internal/applier"
	"github.com/alexisbeaulieu97/prism/internal/composer"
	"github.com/alexisbeaulieu97/prism/internal/config"
	"github.com/alexisbeaulieu97/prism/internal/domain/theme"
	"github.com/alexisbeaulieu97/prism/internal/engine"
	"github.com/alexisbeaulieu97/prism/internal/infrastructure/ambient"
	"github.com/alexisbeaulieu97/prism/internal/infrastructure/document"
	"github.com/alexisbeaulieu97/prism/internal/infrastructure/events"
	"github.com/alexisbeaulieu97/prism/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/prism/internal/infrastructure/store"
	"github.com/alexisbeaulieu97/prism/internal/infrastructure/usagedb"
	"github.com/alexisbeaulieu97/prism/internal/logger"
	"github.com/alexisbeaulieu97/prism/internal/mode"
	"github.com/alexisbeaulieu97/prism/internal/palette"
	"github.com/alexisbeaulieu97/prism/internal/ports"
	"github.com/alexisbeaulieu97/prism/internal/storage"
)

// AppContext bundles the services one command invocation works with.
type AppContext struct {
	Config     *config.Config
	Logger     ports.Logger
	Events     *events.LoggingPublisher
	Palettes   *palette.Registry
	Composer   *composer.Composer
	Resolver   *mode.Resolver
	Stylesheet *document.Stylesheet
	Storage    *storage.Manager
	Analytics  *analytics.Engine
	Engine     *engine.Engine

	closers []func() error
}

// openApp loads the configuration and wires every component. Log entries
// emitted before the configuration picks a level are buffered and replayed.
func openApp(cmd *cobra.Command, flags *rootFlags) (*AppContext, error) {
	recorder := logging.NewRecorder(0)
	boot := recorder.Logger().With("component", "bootstrap")
	ctx := cmd.Context()

	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, newCommandError("start", "loading configuration", err, "Check prism.yaml against the documented keys or pass --config.")
	}
	boot.Debug(ctx, "configuration loaded", "storage", cfg.Storage.Backend, "analytics", cfg.Analytics.Backend)

	level := cfg.Logging.Level
	if flags.verbose {
		level = "debug"
	}
	log, err := logging.New(logging.Options{
		Writer:    cmd.ErrOrStderr(),
		Level:     level,
		Format:    cfg.Logging.Format,
		Layer:     "cli",
		Component: "prism",
	})
	if err != nil {
		return nil, newCommandError("start", "creating logger", err, "Use one of debug, info, warn or error for logging.level.")
	}
	recorder.Flush(log)

	app := &AppContext{Config: cfg, Logger: log}
	if err := app.wire(ctx, cmd.ErrOrStderr(), level); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func loadConfig(flags *rootFlags) (*config.Config, error) {
	path := flags.configPath
	if path == "" && flags.stateDir != "" {
		candidate := filepath.Join(flags.stateDir, config.DefaultFileName)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if flags.stateDir != "" {
		cfg.UseStateDir(flags.stateDir)
	}
	if flags.appearance != "" {
		cfg.Engine.Appearance = flags.appearance
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *AppContext) wire(ctx context.Context, diagnostics io.Writer, level string) error {
	cfg := a.Config

	zlog, err := logger.New(logger.Options{Level: level, HumanReadable: isTerminal(diagnostics), Writer: diagnostics})
	if err != nil {
		return newCommandError("start", "creating palette logger", err, "")
	}
	a.Palettes = palette.NewRegistry()
	loader := palette.NewLoader(a.Palettes, zlog)
	if _, err := loader.LoadBuiltin(); err != nil {
		return newCommandError("start", "loading built-in palettes", err, "")
	}
	if _, err := loader.LoadDir(cfg.Palettes.Dir); err != nil {
		return newCommandError("start", "loading palettes from "+cfg.Palettes.Dir, err, "Fix or remove the palette file named in the error.")
	}

	a.Composer = composer.New(a.Palettes, a.Logger)

	source, err := a.ambientSource()
	if err != nil {
		return newCommandError("start", "selecting appearance source", err, "Use auto, light or dark for --appearance.")
	}
	a.Resolver = mode.NewResolver(source, a.Logger)

	a.Stylesheet, err = document.OpenStylesheet(cfg.Output.CSSPath, cfg.Output.Selector)
	if err != nil {
		return newCommandError("start", "opening stylesheet", err, "Check permissions on output.css_path.")
	}
	docApplier := applier.New(a.Stylesheet, a.Logger, applier.Options{Exclusive: true})

	kv, err := a.openStore()
	if err != nil {
		return newCommandError("start", "opening theme storage", err, "Check permissions on the state directory.")
	}
	a.Storage = storage.New(kv, storage.Options{Key: cfg.Storage.Key, Logger: a.Logger})

	a.Events = events.NewLoggingPublisher(a.Logger)

	deps := engine.Deps{
		Palettes: a.Palettes,
		Composer: a.Composer,
		Resolver: a.Resolver,
		Applier:  docApplier,
		Storage:  a.Storage,
		Logger:   a.Logger,
		Events:   a.Events,
	}
	if cfg.Analytics.Enabled {
		usage, err := a.openUsage()
		if err != nil {
			return newCommandError("start", "opening usage history", err, "Check analytics.path or switch analytics.backend to memory.")
		}
		a.Analytics = analytics.New(usage, analytics.Options{
			Threshold:     cfg.Analytics.Threshold,
			HalfLife:      cfg.Analytics.HalfLife,
			ContextWeight: cfg.Analytics.ContextWeight,
			MinSamples:    cfg.Analytics.MinSamples,
			MaxEvents:     cfg.Analytics.MaxEvents,
			MaxAge:        cfg.Analytics.MaxAge,
		}, a.Logger)
		deps.Analytics = a.Analytics
	}

	a.Engine, err = engine.New(deps, engine.Options{
		TransitionDuration: cfg.Engine.TransitionDuration,
		Context:            cfg.Engine.Context,
		Default:            defaultRequest(cfg.Defaults),
	})
	if err != nil {
		return newCommandError("start", "creating theme engine", err, "")
	}
	a.closers = append(a.closers, a.Engine.Close)

	a.Logger.Debug(ctx, "application wired", "palettes", a.Palettes.Len(), "stylesheet", a.Stylesheet.Path())
	return nil
}

func (a *AppContext) ambientSource() (ports.AmbientSource, error) {
	switch a.Config.Engine.Appearance {
	case "", "auto":
		source := ambient.NewTerminal(ambient.WithPollInterval(a.Config.Engine.PollInterval))
		a.closers = append(a.closers, func() error {
			source.Close()
			return nil
		})
		return source, nil
	default:
		dark, err := ambient.ParseAppearance(a.Config.Engine.Appearance)
		if err != nil {
			return nil, err
		}
		return ambient.NewStatic(dark), nil
	}
}

func (a *AppContext) openStore() (ports.KeyValueStore, error) {
	cfg := a.Config.Storage
	if cfg.Backend == "memory" {
		return store.NewMemoryBackend(cfg.QuotaBytes).Handle(ports.GenerateCorrelationID()), nil
	}

	fileStore, err := store.NewFileStore(cfg.Dir, store.WithErrorHandler(func(err error) {
		a.Logger.Warn(context.Background(), "storage watch error", "error", err)
	}))
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, fileStore.Close)
	return fileStore, nil
}

func (a *AppContext) openUsage() (ports.UsageStore, error) {
	cfg := a.Config.Analytics
	if cfg.Backend != "sqlite" {
		return analytics.NewMemoryStore(), nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create usage directory: %w", err)
	}
	db, err := usagedb.Open(cfg.Path)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)
	return db, nil
}

// CommandContext returns a context carrying a fresh correlation ID and a
// logger scoped to the command.
func (a *AppContext) CommandContext(cmd *cobra.Command, name string) (context.Context, ports.Logger) {
	ctx := ports.WithCorrelationID(cmd.Context(), ports.GenerateCorrelationID())
	return ctx, a.Logger.With("command", name)
}

// Start initializes the engine, restoring the stored theme.
func (a *AppContext) Start(ctx context.Context) error {
	if err := a.Engine.Init(ctx); err != nil {
		return newCommandError("start", "initializing theme engine", err, "")
	}
	return nil
}

// Close releases resources in reverse order of acquisition. The engine is
// closed first so pending saves reach the store.
func (a *AppContext) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// withApp opens the application, runs fn and closes it again.
func withApp(cmd *cobra.Command, flags *rootFlags, name string, fn func(ctx context.Context, app *AppContext, log ports.Logger) error) (err error) {
	app, err := openApp(cmd, flags)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	ctx, log := app.CommandContext(cmd, name)
	log.Debug(ctx, "command started")
	if err := fn(ctx, app, log); err != nil {
		log.Debug(ctx, "command failed", "error", err)
		return err
	}
	return nil
}

func defaultRequest(d config.DefaultsConfig) engine.Request {
	req := engine.Request{
		PaletteID:      d.Palette,
		Mode:           theme.Mode(d.Mode),
		Variant:        theme.Variant(d.Variant),
		Size:           theme.Size(d.Size),
		Density:        theme.Density(d.Density),
		Customizations: d.Customizations,
	}
	if a11y := d.Accessibility; !a11y.IsZero() {
		req.Accessibility = &a11y
	}
	return req
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
