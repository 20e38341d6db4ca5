package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/RishiKendai/plagcheck/internal/models"
	"github.com/RishiKendai/plagcheck/internal/plagiarism"
	"github.com/spf13/cobra"
)

type checkFlags struct {
	files        []string
	shingleSize  int
	threshold    float64
	local        bool
	remote       bool
	citations    bool
	scrape       bool
	failOnDetect bool
	timeout      time.Duration
}

func newCheckCmd(app *App, outputFormat func() string) *cobra.Command {
	f := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "check [text]",
		Short: "Check text for plagiarism",
		Long: `Check compares text against every document in the local store and,
when enabled, the remote detector.

The text is taken from the arguments, from one or more --file flags, or from
stdin when neither is given (or the argument is "-"). Several files are
checked concurrently and reported in the order given.

Example:
  plagcheck check "the quick brown fox jumps over the lazy dog"
  plagcheck check --file essay.txt --remote --citations
  cat essay.txt | plagcheck check --threshold 0.5 -o yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, app, f, args, outputFormat())
		},
	}

	cmd.Flags().StringSliceVarP(&f.files, "file", "f", nil, "file to check (repeatable)")
	cmd.Flags().IntVar(&f.shingleSize, "k", 0, "shingle size in words (default from SHINGLE_SIZE)")
	cmd.Flags().Float64VarP(&f.threshold, "threshold", "t", 0, "minimum similarity for a local match (default from MIN_SIMILARITY)")
	cmd.Flags().BoolVar(&f.local, "local", true, "check the local document store")
	cmd.Flags().BoolVar(&f.remote, "remote", false, "check the remote detector")
	cmd.Flags().BoolVar(&f.citations, "citations", false, "ask the remote detector for citations")
	cmd.Flags().BoolVar(&f.scrape, "scrape", false, "ask the remote detector to scrape sources")
	cmd.Flags().BoolVar(&f.failOnDetect, "fail-on-detect", false, "exit with an error when plagiarism is detected")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 5*time.Minute, "overall check timeout")

	return cmd
}

// checkOptions starts from the configured defaults and applies the flags the
// user actually set.
func checkOptions(cmd *cobra.Command, app *App, f *checkFlags) models.CheckOptions {
	opts := app.cfg.CheckOptions()
	flags := cmd.Flags()

	if flags.Changed("k") {
		opts.ShingleSize = f.shingleSize
	}
	if flags.Changed("threshold") {
		opts.MinSimilarity = f.threshold
	}
	if flags.Changed("local") {
		opts.CheckLocal = f.local
	}
	if flags.Changed("remote") {
		opts.CheckRemote = f.remote
	}
	if flags.Changed("citations") {
		opts.IncludeCitations = f.citations
	}
	if flags.Changed("scrape") {
		opts.ScrapeSources = f.scrape
	}
	return opts
}

func runCheck(cmd *cobra.Command, app *App, f *checkFlags, args []string, format string) error {
	opts := checkOptions(cmd, app, f)
	if err := opts.Validate(); err != nil {
		return err
	}

	texts, err := readInputs(app.in, args, f.files)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context(), f.timeout)
	defer cancel()

	svc, err := app.newServices(ctx, app.cfg, false)
	if err != nil {
		return err
	}
	defer svc.close()

	if len(texts) == 1 {
		report, err := svc.checker.Check(ctx, texts[0], opts)
		if err != nil {
			return err
		}
		if err := render(app.out, format, report); err != nil {
			return err
		}
		if f.failOnDetect && report.PlagiarismDetected {
			return ErrPlagiarismDetected
		}
		return nil
	}

	pool := plagiarism.NewWorkerPool(ctx, app.cfg.MaxConcurrentChecks)
	defer pool.Close()

	reports, err := svc.checker.CheckBatch(ctx, pool, texts, opts)
	if err != nil {
		return err
	}
	if err := render(app.out, format, reports); err != nil {
		return err
	}
	if f.failOnDetect {
		for _, r := range reports {
			if r.PlagiarismDetected {
				return ErrPlagiarismDetected
			}
		}
	}
	return nil
}

// readInputs returns one text per file, or the joined args, or stdin.
func readInputs(stdin io.Reader, args, files []string) ([]string, error) {
	if len(files) > 0 {
		if len(args) > 0 {
			return nil, fmt.Errorf("use either text arguments or --file, not both")
		}
		texts := make([]string, 0, len(files))
		for _, path := range files {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
			texts = append(texts, string(data))
		}
		return texts, nil
	}

	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return []string{string(data)}, nil
	}

	return []string{strings.Join(args, " ")}, nil
}

// signalContext is cancelled on SIGINT/SIGTERM, and after timeout when > 0.
func signalContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
