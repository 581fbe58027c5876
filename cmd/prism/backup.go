package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/prism/internal/ports"
)

func newExportCmd(root *rootFlags) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the active theme as a JSON backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, "command.export", func(ctx context.Context, app *AppContext, log ports.Logger) error {
				if err := app.Start(ctx); err != nil {
					return err
				}
				blob, err := app.Engine.Export(ctx)
				if err != nil {
					return newCommandError("export", "encoding the active theme", err, "")
				}
				blob = append(blob, '\n')
				if outPath == "" {
					_, err := cmd.OutOrStdout().Write(blob)
					return err
				}
				if err := os.WriteFile(outPath, blob, 0o644); err != nil {
					return newCommandError("export", "writing "+outPath, err, "Choose a writable --out path.")
				}
				log.Info(ctx, "theme exported", "path", outPath)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the backup to a file instead of stdout")
	return cmd
}

func newImportCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Restore a theme from a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			blob, err := readInput(cmd, path)
			if err != nil {
				return newCommandError("import", "reading "+path, err, "Pass a file produced by 'prism export', or - for stdin.")
			}
			return withApp(cmd, root, "command.import", func(ctx context.Context, app *AppContext, log ports.Logger) error {
				if err := app.Start(ctx); err != nil {
					return err
				}
				fallbacks := watchFallbacks(app)
				defer fallbacks.stop()
				if err := app.Engine.Import(ctx, blob); err != nil {
					return newCommandError("import", "restoring "+path, err, "The backup was rejected and the current theme is unchanged.")
				}
				fallbacks.report(cmd.ErrOrStderr())
				fmt.Fprintln(cmd.OutOrStdout(), describeState(app.Engine.State()))
				return nil
			})
		},
	}
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
