package main

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/prism/internal/domain/theme"
	"github.com/alexisbeaulieu97/prism/internal/ports"
	"github.com/alexisbeaulieu97/prism/internal/tui/components"
	"github.com/alexisbeaulieu97/prism/pkg/diff"
	prismerrors "github.com/alexisbeaulieu97/prism/pkg/errors"
)

type paletteSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Active   bool   `json:"active"`
}

func newPalettesCmd(root *rootFlags) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "palettes",
		Aliases: []string{"ls"},
		Short:   "List registered palettes",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, "command.palettes", func(ctx context.Context, app *AppContext, log ports.Logger) error {
				active := ""
				if rec, err := app.Storage.Load(ctx); err == nil && rec != nil {
					active = rec.ColorThemeID
				}
				palettes := slices.Collect(app.Palettes.Palettes())
				if jsonOutput {
					return renderPalettesJSON(cmd, palettes, active)
				}
				renderPalettesTable(cmd, palettes, active)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output palettes as JSON")
	return cmd
}

func renderPalettesJSON(cmd *cobra.Command, palettes []theme.Palette, active string) error {
	out := make([]paletteSummary, 0, len(palettes))
	for _, p := range palettes {
		out = append(out, paletteSummary{ID: p.ID, Name: p.DisplayName, Category: p.Category, Active: p.ID == active})
	}
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func renderPalettesTable(cmd *cobra.Command, palettes []theme.Palette, active string) {
	w := cmd.OutOrStdout()
	colour := isTerminal(w)

	if len(palettes) == 0 {
		fmt.Fprintln(w, "No palettes registered.")
		return
	}

	idWidth := len("ID")
	for _, p := range palettes {
		idWidth = max(idWidth, len(p.ID))
	}

	fmt.Fprintf(w, "  %-*s  %-20s  %s\n", idWidth, "ID", "NAME", "CATEGORY")
	for _, p := range palettes {
		marker := " "
		if p.ID == active {
			marker = "*"
		}
		line := fmt.Sprintf("%s %-*s  %-20s  %s", marker, idWidth, p.ID, valueOrFallback(p.DisplayName, p.ID), valueOrFallback(p.Category, "-"))
		if colour {
			line += "  " + components.PaletteSwatch(p, false, 2) + " " + components.PaletteSwatch(p, true, 2)
		}
		fmt.Fprintln(w, line)
	}
}

func newDiffCmd(root *rootFlags) *cobra.Command {
	var (
		modeFlag string
		unified  bool
	)

	cmd := &cobra.Command{
		Use:   "diff <palette>",
		Short: "Preview how the variables change when switching palette",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, "command.diff", func(ctx context.Context, app *AppContext, log ports.Logger) error {
				if err := app.Start(ctx); err != nil {
					return err
				}
				return runDiff(cmd, app, args[0], theme.Mode(modeFlag), unified)
			})
		},
	}

	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "Compare against this mode instead of the current one")
	cmd.Flags().BoolVar(&unified, "unified", false, "Print a unified diff of the variable listings")
	return cmd
}

func runDiff(cmd *cobra.Command, app *AppContext, paletteID string, m theme.Mode, unified bool) error {
	current := app.Engine.State()
	if m == "" {
		m = current.Mode
	}
	if !m.Valid() {
		return newCommandError("diff", "reading --mode", prismerrors.NewInvalidCompositionError("mode", string(m)), "Use light, dark or system.")
	}

	before := app.Engine.Variables()
	target := current.Composition()
	target.Base = paletteID
	target.Dark = app.Resolver.Resolve(m)
	after, err := app.Composer.Compose(target)
	if err != nil {
		return newCommandError("diff", "composing "+paletteID, err, "Run 'prism palettes' to list registered palettes.")
	}

	var beforeRaw map[string]string
	if before != nil {
		beforeRaw = before.Raw
	}

	w := cmd.OutOrStdout()
	if unified {
		out := diff.Unified(listing(beforeRaw), listing(after.Raw), current.PaletteID, paletteID)
		if out == "" {
			fmt.Fprintln(w, "No differences.")
			return nil
		}
		fmt.Fprint(w, out)
		return nil
	}

	changes := diff.Variables(beforeRaw, after.Raw)
	if len(changes) == 0 {
		fmt.Fprintln(w, "No differences.")
		return nil
	}
	for _, c := range changes {
		switch c.Kind {
		case diff.ChangeAdded:
			fmt.Fprintf(w, "+ %s: %s\n", c.Name, c.After)
		case diff.ChangeRemoved:
			fmt.Fprintf(w, "- %s: %s\n", c.Name, c.Before)
		default:
			fmt.Fprintf(w, "~ %s: %s -> %s\n", c.Name, c.Before, c.After)
		}
	}
	return nil
}

func listing(vars map[string]string) []byte {
	var b strings.Builder
	for _, name := range slices.Sorted(maps.Keys(vars)) {
		fmt.Fprintf(&b, "%s: %s\n", name, vars[name])
	}
	return []byte(b.String())
}
