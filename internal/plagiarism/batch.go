package plagiarism

import (
	"context"
	"fmt"

	"github.com/RishiKendai/plagcheck/internal/models"
	"github.com/rs/zerolog/log"
)

// checkJob runs one check of a batch
type checkJob struct {
	ctx        context.Context
	checker    *Checker
	index      int
	text       string
	opts       models.CheckOptions
	resultChan chan<- indexedReport
}

type indexedReport struct {
	index  int
	report *models.CheckReport
	err    error
}

// Execute uses the batch context so that cancelling one batch does not
// affect the pool. Every job sends exactly one result, failed or not.
func (j *checkJob) Execute(_ context.Context) error {
	report, err := j.checker.Check(j.ctx, j.text, j.opts)
	j.resultChan <- indexedReport{index: j.index, report: report, err: err}
	return err
}

// CheckBatch checks every text on the pool. Reports are returned in input order.
func (c *Checker) CheckBatch(ctx context.Context, pool *WorkerPool, texts []string, opts models.CheckOptions) ([]*models.CheckReport, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return []*models.CheckReport{}, nil
	}

	// Buffered so workers never block on a caller that gave up.
	resultChan := make(chan indexedReport, len(texts))

	for i, text := range texts {
		job := &checkJob{
			ctx:        ctx,
			checker:    c,
			index:      i,
			text:       text,
			opts:       opts,
			resultChan: resultChan,
		}
		if err := pool.Submit(ctx, job); err != nil {
			log.Error().Err(err).Int("index", i).Msg("Failed to submit check")
			return nil, fmt.Errorf("submit check %d: %w", i, err)
		}
	}

	reports := make([]*models.CheckReport, len(texts))
	for received := 0; received < len(texts); received++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case r := <-resultChan:
			if r.err != nil {
				return nil, fmt.Errorf("check %d: %w", r.index, r.err)
			}
			reports[r.index] = r.report
		}
	}

	log.Info().Int("checks", len(texts)).Msg("Batch completed")
	return reports, nil
}
