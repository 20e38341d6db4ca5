package cli

import (
	"time"

	"github.com/RishiKendai/plagcheck/internal/ingest"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newWatchCmd(app *App, outputFormat func() string) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <pattern>",
		Short: "Add matching files to the local store as they appear or change",
		Long: `Watch adds every file matching the glob pattern when it is created or
modified. Existing files are not imported; run "add --glob" first for that.

Example:
  plagcheck watch "submissions/**/*.txt"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context(), 0)
			defer cancel()

			svc, err := app.newServices(ctx, app.cfg, false)
			if err != nil {
				return err
			}
			defer svc.close()

			w, err := ingest.NewWatcher(args[0], svc.checker, debounce)
			if err != nil {
				return err
			}
			defer w.Close()

			return w.Run(ctx, func(res ingest.FileResult) {
				if err := render(app.out, outputFormat(), res); err != nil {
					log.Error().Err(err).Msg("Failed to write result")
				}
			})
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", ingest.DefaultDebounce, "quiet period before a changed file is imported")
	return cmd
}
