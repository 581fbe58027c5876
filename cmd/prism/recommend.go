package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/prism/internal/domain/theme"
	"github.com/alexisbeaulieu97/prism/internal/ports"
	"github.com/alexisbeaulieu97/prism/internal/tui/components"
)

type recommendOptions struct {
	context string
	auto    bool
	limit   int
}

func newRecommendCmd(root *rootFlags) *cobra.Command {
	opts := &recommendOptions{}

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Suggest themes from usage history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, "command.recommend", func(ctx context.Context, app *AppContext, log ports.Logger) error {
				if app.Analytics == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Usage analytics are disabled.")
					return nil
				}
				if err := app.Start(ctx); err != nil {
					return err
				}
				return runRecommend(ctx, cmd, app, opts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.context, "context", "", "Usage context to rank for (default engine.context)")
	cmd.Flags().BoolVar(&opts.auto, "auto", false, "Apply the top suggestion when it is confident enough")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 5, "Maximum number of suggestions to print")
	return cmd
}

func runRecommend(ctx context.Context, cmd *cobra.Command, app *AppContext, opts *recommendOptions) error {
	recs, err := app.Engine.Recommendations(ctx, opts.context)
	if err != nil {
		return newCommandError("recommend", "ranking usage history", err, "")
	}
	renderRecommendations(cmd, recs, opts.limit)

	if !opts.auto {
		return nil
	}
	if app.Engine.AutoSwitch(ctx, opts.context) {
		fmt.Fprintf(cmd.OutOrStdout(), "\nSwitched to %s\n", describeState(app.Engine.State()))
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nKept the current theme (threshold %.0f%%)\n", app.Analytics.Options().Threshold*100)
	return nil
}

func renderRecommendations(cmd *cobra.Command, recs []theme.Recommendation, limit int) {
	w := cmd.OutOrStdout()
	if len(recs) == 0 {
		fmt.Fprintln(w, "No usage history yet.")
		return
	}
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}

	bar := components.NewConfidence(20)
	for i, r := range recs {
		fmt.Fprintf(w, "%d. %s (%s)  %s\n", i+1, r.PaletteID, r.Mode, bar.View(r.Confidence))
		fmt.Fprintf(w, "   %s; energy %s, performance %s\n", r.Reason, r.EnergyImpact, r.PerformanceImpact)
	}
}
