package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"proposaland/internal/config"
)

func newConfigCommand(load func() config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspects the configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Checks the configuration and prints warnings.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := load()
			warnings, err := config.Validate(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, w := range warnings {
				fmt.Fprintf(out, "warning: %s\n", w)
			}
			fmt.Fprintf(out, "config ok: %d keywords, %d websites, weights sum %.2f\n",
				len(cfg.Keywords.Primary), len(cfg.Websites.All()), cfg.Weights.Values().Sum())
			for _, site := range cfg.Websites.All() {
				kind := site.Type
				if kind == "" {
					kind = "listing"
				}
				fmt.Fprintf(out, "  %s [%s] %s\n", site.Name, kind, site.URL)
			}
			return nil
		},
	})
	return cmd
}
