package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/prism/internal/domain/theme"
	"github.com/alexisbeaulieu97/prism/internal/engine"
	"github.com/alexisbeaulieu97/prism/internal/infrastructure/events"
	"github.com/alexisbeaulieu97/prism/internal/ports"
)

var errApplyFailed = errors.New("the stylesheet could not be written; the previous theme is still in place")

type applyOptions struct {
	mode          string
	variant       string
	size          string
	density       string
	highContrast  bool
	reducedMotion bool
	largerText    bool
	focusRing     string
	set           []string
	context       string
}

func newApplyCmd(root *rootFlags) *cobra.Command {
	opts := &applyOptions{}

	cmd := &cobra.Command{
		Use:   "apply <palette>",
		Short: "Apply a palette, keeping the current layers unless overridden",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, "command.apply", func(ctx context.Context, app *AppContext, log ports.Logger) error {
				return runApply(ctx, cmd, app, args[0], opts)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "Appearance mode: light, dark or system")
	cmd.Flags().StringVar(&opts.variant, "variant", "", "Variant: default, compact, comfortable or accessible")
	cmd.Flags().StringVar(&opts.size, "size", "", "Size scale: sm, md, lg or xl")
	cmd.Flags().StringVar(&opts.density, "density", "", "Spacing density: low, medium or high")
	cmd.Flags().BoolVar(&opts.highContrast, "high-contrast", false, "Raise text contrast to at least 7:1")
	cmd.Flags().BoolVar(&opts.reducedMotion, "reduced-motion", false, "Disable transitions")
	cmd.Flags().BoolVar(&opts.largerText, "larger-text", false, "Scale text up by 1.25")
	cmd.Flags().StringVar(&opts.focusRing, "focus-ring", "", "Focus ring width, e.g. 3px")
	cmd.Flags().StringArrayVar(&opts.set, "set", nil, "Override a variable as name=value (repeatable)")
	cmd.Flags().StringVar(&opts.context, "context", "", "Usage context recorded for recommendations")

	return cmd
}

func runApply(ctx context.Context, cmd *cobra.Command, app *AppContext, paletteID string, opts *applyOptions) error {
	customizations, err := parseAssignments(opts.set)
	if err != nil {
		return newCommandError("apply", "parsing --set", err, "Pass overrides as --set color-primary=#336699.")
	}
	if err := app.Start(ctx); err != nil {
		return err
	}

	req := engine.RequestFromState(app.Engine.State())
	req.PaletteID = paletteID
	req.Context = opts.context
	flags := cmd.Flags()
	if flags.Changed("mode") {
		req.Mode = theme.Mode(opts.mode)
	}
	if flags.Changed("variant") {
		req.Variant = theme.Variant(opts.variant)
	}
	if flags.Changed("size") {
		req.Size = theme.Size(opts.size)
	}
	if flags.Changed("density") {
		req.Density = theme.Density(opts.density)
	}
	if a11y, changed := accessibilityFlags(cmd, req.Accessibility, opts); changed {
		req.Accessibility = a11y
	}
	if len(customizations) > 0 {
		if req.Customizations == nil {
			req.Customizations = make(map[string]string, len(customizations))
		}
		for name, value := range customizations {
			req.Customizations[name] = value
		}
	}

	return applyAndReport(ctx, cmd, app, "apply", func() bool {
		return app.Engine.ApplyTheme(ctx, req)
	})
}

func newToggleCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Switch between light and dark, keeping the palette",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, "command.toggle", func(ctx context.Context, app *AppContext, log ports.Logger) error {
				if err := app.Start(ctx); err != nil {
					return err
				}
				return applyAndReport(ctx, cmd, app, "toggle the mode", func() bool {
					return app.Engine.ToggleMode(ctx)
				})
			})
		},
	}
}

func newResetCmd(root *rootFlags) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Apply the configured default theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, "command.reset", func(ctx context.Context, app *AppContext, log ports.Logger) error {
				if err := app.Start(ctx); err != nil {
					return err
				}
				if err := applyAndReport(ctx, cmd, app, "reset the theme", func() bool {
					return app.Engine.ResetToDefault(ctx)
				}); err != nil {
					return err
				}
				if !all {
					return nil
				}
				// Pending saves must land before the record is removed.
				if err := app.Engine.Close(); err != nil {
					return err
				}
				if err := app.Storage.Clear(ctx); err != nil {
					return newCommandError("reset", "clearing the stored theme", err, "Check permissions on the state directory.")
				}
				log.Info(ctx, "stored theme cleared")
				fmt.Fprintln(cmd.OutOrStdout(), "Stored theme cleared")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Also forget the stored theme")
	return cmd
}

// applyAndReport runs apply, reports fallbacks on stderr and prints the
// resulting theme.
func applyAndReport(ctx context.Context, cmd *cobra.Command, app *AppContext, operation string, apply func() bool) error {
	fallbacks := watchFallbacks(app)
	defer fallbacks.stop()

	if !apply() {
		return newCommandError(operation, "writing "+app.Stylesheet.Path(), errApplyFailed, "Check permissions on output.css_path and retry.")
	}

	fallbacks.report(cmd.ErrOrStderr())
	fmt.Fprintln(cmd.OutOrStdout(), describeState(app.Engine.State()))
	return nil
}

// fallbackWatch collects theme.fallback reasons published while a command
// changes the theme.
type fallbackWatch struct {
	mu      sync.Mutex
	reasons []string
	sub     ports.Subscription
}

func watchFallbacks(app *AppContext) *fallbackWatch {
	w := &fallbackWatch{}
	sub, err := app.Events.Subscribe(ports.EventThemeFallback, func(_ context.Context, event ports.DomainEvent) error {
		ev, ok := event.(events.Event)
		if !ok {
			return nil
		}
		w.mu.Lock()
		w.reasons = append(w.reasons, fmt.Sprint(ev.Fields["error"]))
		w.mu.Unlock()
		return nil
	})
	if err == nil {
		w.sub = sub
	}
	return w
}

func (w *fallbackWatch) stop() {
	if w.sub != nil {
		w.sub.Unsubscribe()
	}
}

func (w *fallbackWatch) report(out io.Writer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, reason := range w.reasons {
		fmt.Fprintf(out, "warning: %s; the default theme was applied instead\n", reason)
	}
}

func parseAssignments(values []string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for _, raw := range values {
		name, value, ok := strings.Cut(raw, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q", raw)
		}
		value = strings.TrimSpace(value)
		if !theme.ValidTokenName(name) || !theme.ValidTokenValue(value) {
			return nil, fmt.Errorf("invalid assignment %q: names are lowercase tokens and values cannot contain ; { } or newlines", raw)
		}
		out[name] = value
	}
	return out, nil
}

func describeState(s theme.State) string {
	appearance := "light"
	if s.ResolvedDark {
		appearance = "dark"
	}
	return fmt.Sprintf("%s (%s, %s) variant=%s size=%s density=%s",
		s.PaletteID, s.Mode, appearance, s.Variant, s.Size, s.Density)
}
