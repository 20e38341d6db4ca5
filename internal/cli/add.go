package cli

import (
	"fmt"
	"time"

	"github.com/RishiKendai/plagcheck/internal/ingest"
	"github.com/spf13/cobra"
)

func newAddCmd(app *App, outputFormat func() string) *cobra.Command {
	var (
		files   []string
		glob    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Add a document to the local store",
		Long: `Add stores text in the local document store so later checks compare
against it.

Example:
  plagcheck add "the quick brown fox jumps over the lazy dog"
  plagcheck add --file essay.txt
  plagcheck add --glob "corpus/**/*.txt"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context(), timeout)
			defer cancel()

			if glob != "" && (len(args) > 0 || len(files) > 0) {
				return fmt.Errorf("use --glob on its own")
			}

			svc, err := app.newServices(ctx, app.cfg, false)
			if err != nil {
				return err
			}
			defer svc.close()

			if glob != "" {
				results, err := ingest.ImportGlob(ctx, glob, svc.checker)
				if err != nil {
					return err
				}
				return render(app.out, outputFormat(), results)
			}

			if len(files) > 0 {
				if len(args) > 0 {
					return fmt.Errorf("use either text arguments or --file, not both")
				}
				results := make([]ingest.FileResult, 0, len(files))
				for _, path := range files {
					results = append(results, ingest.ImportFile(ctx, path, svc.checker))
				}
				return render(app.out, outputFormat(), results)
			}

			texts, err := readInputs(app.in, args, nil)
			if err != nil {
				return err
			}
			return render(app.out, outputFormat(), svc.checker.AddDocument(ctx, texts[0]))
		},
	}

	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "file to add (repeatable)")
	cmd.Flags().StringVarP(&glob, "glob", "g", "", `add every file matching a pattern; "**" matches any directories`)
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall timeout")

	return cmd
}
