package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"proposaland/internal/app"
	"proposaland/internal/config"
	"proposaland/internal/infrastructure/report"
	"proposaland/internal/logging"
)

func newRunCommand(load func() config.Config) *cobra.Command {
	var daemon bool

	cmd := &cobra.Command{
		Use:   "run [--daemon]",
		Short: "Collects, scores and notifies once, or daily with --daemon.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := load()
			logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

			warnings, err := config.Validate(cfg)
			if err != nil {
				return err
			}
			for _, w := range warnings {
				logger.Warn("config warning", "warning", w)
			}

			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			if daemon {
				return application.RunDaemon(cmd.Context())
			}

			res, err := application.Run(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "fetched %d, new %d, kept %d, notified %d\n",
				res.Fetched, res.New, len(res.Kept), res.Notified)
			if len(res.Kept) > 0 {
				report.RenderTable(out, res.Kept)
			}
			for _, path := range res.Exported {
				fmt.Fprintf(out, "wrote %s\n", path)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&daemon, "daemon", false, "Stay running and process every day at scheduler.run_at.")
	return cmd
}
