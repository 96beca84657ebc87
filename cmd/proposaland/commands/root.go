package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"proposaland/internal/config"
)

// NewRootCommand assembles the CLI tree.
func NewRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "proposaland",
		Short:         "proposaland monitors procurement sites and ranks creative-sector opportunities.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the YAML or JSON config file (defaults to $PROPOSALAND_CONFIG).")

	load := func() config.Config {
		if configPath != "" {
			return config.LoadFile(configPath)
		}
		return config.Load()
	}

	root.AddCommand(newRunCommand(load), newScoreCommand(load), newConfigCommand(load))
	return root
}

// ExecuteContext runs the CLI and exits non-zero on failure.
func ExecuteContext(ctx context.Context) {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
