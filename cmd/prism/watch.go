package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alexisbeaulieu97/prism/internal/domain/theme"
	"github.com/alexisbeaulieu97/prism/internal/ports"
)

type watchOptions struct {
	autoEvery time.Duration
	context   string
}

func newWatchCmd(root *rootFlags) *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the stylesheet in sync with changes made elsewhere",
		Long: `Watch restores the stored theme, then follows theme changes made by other
prism processes and, in system mode, changes of the terminal appearance.
Each committed change is rewritten to the stylesheet and printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, "command.watch", func(ctx context.Context, app *AppContext, log ports.Logger) error {
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()
				return runWatch(ctx, cmd, app, log, opts)
			})
		},
	}

	cmd.Flags().DurationVar(&opts.autoEvery, "auto-every", 0, "Apply confident recommendations at this interval (0 disables)")
	cmd.Flags().StringVar(&opts.context, "context", "", "Usage context for recommendations")
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, app *AppContext, log ports.Logger, opts *watchOptions) error {
	if err := app.Start(ctx); err != nil {
		return err
	}

	states := make(chan theme.State, 16)
	sub := app.Engine.Subscribe(func(s theme.State) {
		select {
		case states <- s:
		default:
			log.Warn(ctx, "watch output is falling behind; dropping a state")
		}
	})
	defer sub.Unsubscribe()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "watching %s\n", describeState(app.Engine.State()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case s := <-states:
				fmt.Fprintf(out, "%s %s\n", time.Now().Format(time.TimeOnly), describeState(s))
			}
		}
	})

	if opts.autoEvery > 0 && app.Analytics != nil {
		g.Go(func() error {
			ticker := time.NewTicker(opts.autoEvery)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if app.Engine.AutoSwitch(gctx, opts.context) {
						log.Info(gctx, "applied recommended theme", "palette_id", app.Engine.State().PaletteID)
					}
				}
			}
		})
	}

	return g.Wait()
}
