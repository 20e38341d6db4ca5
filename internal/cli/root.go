package cli

import (
	"errors"
	"fmt"

	"github.com/RishiKendai/plagcheck/internal/config"
	"github.com/RishiKendai/plagcheck/internal/logger"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// ErrPlagiarismDetected is returned by check when --fail-on-detect is set and
// any report flags plagiarism.
var ErrPlagiarismDetected = errors.New("plagiarism detected")

// Execute runs the root command
func Execute() error {
	return NewRootCmd(NewApp()).Execute()
}

func NewRootCmd(app *App) *cobra.Command {
	var (
		logLevel string
		output   string
	)

	root := &cobra.Command{
		Use:   "plagcheck",
		Short: "Plagiarism checker for text against a local corpus and a remote detector",
		Long: `plagcheck compares text against a local document store using word
shingles and Jaccard similarity, and optionally asks a remote RapidAPI
detector for a second opinion. Each strategy succeeds or fails on its own;
the report always carries both outcomes.

Configuration is read from the environment (and a .env file when present).`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if output != formatJSON && output != formatYAML {
				return fmt.Errorf("unknown output format %q (want %s or %s)", output, formatJSON, formatYAML)
			}

			logger.Init(cfg.LogLevel)
			app.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error); overrides LOG_LEVEL")
	root.PersistentFlags().StringVarP(&output, "output", "o", formatJSON, "output format (json or yaml)")

	outputFormat := func() string { return output }

	root.AddCommand(
		newCheckCmd(app, outputFormat),
		newAddCmd(app, outputFormat),
		newWatchCmd(app, outputFormat),
		newServeCmd(app),
		newVersionCmd(app),
	)
	return root
}

func newVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(app.out, "plagcheck %s\n", Version)
			return err
		},
	}
}
