package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	stateDir   string
	appearance string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "prism",
		Short:         "Prism composes palettes into themes and applies them to a stylesheet",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to prism.yaml (default ~/.prism/prism.yaml)")
	cmd.PersistentFlags().StringVar(&flags.stateDir, "state-dir", "", "Directory holding the stored theme, usage history and stylesheet")
	cmd.PersistentFlags().StringVar(&flags.appearance, "appearance", "", "Override the detected appearance (auto, light or dark)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(newApplyCmd(flags))
	cmd.AddCommand(newToggleCmd(flags))
	cmd.AddCommand(newResetCmd(flags))
	cmd.AddCommand(newShowCmd(flags))
	cmd.AddCommand(newCSSCmd(flags))
	cmd.AddCommand(newPalettesCmd(flags))
	cmd.AddCommand(newDiffCmd(flags))
	cmd.AddCommand(newExportCmd(flags))
	cmd.AddCommand(newImportCmd(flags))
	cmd.AddCommand(newRecommendCmd(flags))
	cmd.AddCommand(newWatchCmd(flags))
	cmd.AddCommand(newPickCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
