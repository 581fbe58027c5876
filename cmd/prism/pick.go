package main

import (
	"context"
	"errors"
	"os"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alexisbeaulieu97/prism/internal/ports"
	"github.com/alexisbeaulieu97/prism/internal/tui"
)

var errNotInteractive = errors.New("stdin is not a terminal")

// pickRunner is replaced in tests.
var pickRunner = func(cmd *cobra.Command, model tea.Model) (tea.Model, error) {
	program := tea.NewProgram(model,
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	return program.Run()
}

// interactive reports whether the picker can take over the terminal.
var interactive = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func newPickCmd(root *rootFlags) *cobra.Command {
	var usageContext string

	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Browse palettes interactively and apply one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !interactive() {
				return newCommandError("pick", "starting the picker", errNotInteractive, "Use 'prism apply <palette>' in scripts.")
			}
			return withApp(cmd, root, "command.pick", func(ctx context.Context, app *AppContext, log ports.Logger) error {
				if err := app.Start(ctx); err != nil {
					return err
				}

				recs, err := app.Engine.Recommendations(ctx, usageContext)
				if err != nil {
					log.Warn(ctx, "recommendations unavailable", "error", err)
				}
				palettes := slices.Collect(app.Palettes.Palettes())
				model := tui.NewModel(app.Engine, palettes, recs, usageContext)

				final, err := pickRunner(cmd, model)
				if err != nil {
					return newCommandError("pick", "running the picker", err, "")
				}
				if m, ok := final.(tui.Model); ok {
					log.Debug(ctx, "picker closed", "palette_id", m.State().PaletteID)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&usageContext, "context", "", "Usage context recorded for applied themes")
	return cmd
}
