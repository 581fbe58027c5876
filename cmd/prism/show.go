package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/prism/internal/domain/theme"
	"github.com/alexisbeaulieu97/prism/internal/infrastructure/document"
	"github.com/alexisbeaulieu97/prism/internal/ports"
)

type showOutput struct {
	Palette        string               `json:"palette"`
	Mode           theme.Mode           `json:"mode"`
	Dark           bool                 `json:"dark"`
	Variant        theme.Variant        `json:"variant"`
	Size           theme.Size           `json:"size"`
	Density        theme.Density        `json:"density"`
	Accessibility  *theme.Accessibility `json:"accessibility,omitempty"`
	Customizations map[string]string    `json:"customizations,omitempty"`
	LastChanged    time.Time            `json:"lastChanged"`
	Variables      map[string]string    `json:"variables"`
	Stylesheet     string               `json:"stylesheet"`
}

func newShowCmd(root *rootFlags) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the active theme and its canonical variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, "command.show", func(ctx context.Context, app *AppContext, log ports.Logger) error {
				if err := app.Start(ctx); err != nil {
					return err
				}
				out := buildShowOutput(app)
				if jsonOutput {
					return renderShowJSON(cmd, out)
				}
				renderShowTable(cmd, out)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the theme as JSON")
	return cmd
}

func buildShowOutput(app *AppContext) showOutput {
	s := app.Engine.State()
	out := showOutput{
		Palette:        s.PaletteID,
		Mode:           s.Mode,
		Dark:           s.ResolvedDark,
		Variant:        s.Variant,
		Size:           s.Size,
		Density:        s.Density,
		Accessibility:  s.Accessibility,
		Customizations: s.Customizations,
		LastChanged:    s.LastChanged,
		Variables:      make(map[string]string),
		Stylesheet:     app.Stylesheet.Path(),
	}
	if vars := app.Engine.Variables(); vars != nil {
		for name, value := range vars.Canonical.All() {
			out.Variables[name.String()] = value
		}
	}
	return out
}

func renderShowJSON(cmd *cobra.Command, out showOutput) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func renderShowTable(cmd *cobra.Command, out showOutput) {
	w := cmd.OutOrStdout()
	appearance := "light"
	if out.Dark {
		appearance = "dark"
	}
	fmt.Fprintf(w, "Palette:    %s\n", out.Palette)
	fmt.Fprintf(w, "Mode:       %s (%s)\n", out.Mode, appearance)
	fmt.Fprintf(w, "Variant:    %s\n", out.Variant)
	fmt.Fprintf(w, "Size:       %s\n", out.Size)
	fmt.Fprintf(w, "Density:    %s\n", out.Density)
	if !out.Accessibility.IsZero() {
		a := out.Accessibility
		fmt.Fprintf(w, "Access:     high-contrast=%t reduced-motion=%t larger-text=%t focus-ring=%s\n",
			a.HighContrast, a.ReducedMotion, a.LargerText, valueOrFallback(a.FocusRingWidth, "default"))
	}
	if !out.LastChanged.IsZero() {
		fmt.Fprintf(w, "Changed:    %s\n", out.LastChanged.Local().Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Stylesheet: %s\n", out.Stylesheet)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Variables:")
	for _, name := range theme.CanonicalNames() {
		fmt.Fprintf(w, "  %-18s %s\n", name, out.Variables[name.String()])
	}
}

func newCSSCmd(root *rootFlags) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "css",
		Short: "Print the stylesheet for the active theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, "command.css", func(ctx context.Context, app *AppContext, log ports.Logger) error {
				if err := app.Start(ctx); err != nil {
					return err
				}
				css := document.RenderCSS(app.Stylesheet.Snapshot(), app.Config.Output.Selector)
				if outPath == "" {
					_, err := cmd.OutOrStdout().Write(css)
					return err
				}
				if err := os.WriteFile(outPath, css, 0o644); err != nil {
					return newCommandError("css", "writing "+outPath, err, "Choose a writable --out path.")
				}
				log.Info(ctx, "stylesheet written", "path", outPath)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the stylesheet to a file instead of stdout")
	return cmd
}

func valueOrFallback(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
