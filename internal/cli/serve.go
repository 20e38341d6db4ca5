package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/RishiKendai/plagcheck/internal/stream"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Process check and add requests from a Redis stream",
		Long: `Serve joins the REDIS_CONSUMER_GROUP on REDIS_STREAM_KEY and handles each
entry as a request:

  op        "check" (default) or "add"
  text      the text to check or store
  requestId optional correlation id, echoed in the result
  k, threshold, local, remote, includeCitations, scrapeSources
            optional per-request check options

Results are published as JSON to REDIS_RESULTS_KEY. Requests that cannot be
parsed or keep failing go to REDIS_DEAD_LETTER_KEY.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context(), 0)
			defer cancel()

			cfg := app.cfg
			svc, err := app.newServices(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer svc.close()

			consumer := stream.NewConsumer(
				svc.redis,
				cfg.RedisStreamKey,
				cfg.RedisConsumerGroup,
				consumerName(),
				stream.NewProcessor(svc.checker, svc.redis, cfg.RedisResultsKey, cfg.StreamRetentionDuration),
				cfg.CheckOptions(),
				stream.NewRetryHandler(svc.redis, cfg.RedisDeadLetterKey),
				cfg.StreamRetentionDuration,
			)

			err = consumer.Start(ctx)
			if errors.Is(err, context.Canceled) {
				log.Info().Msg("Shutdown complete")
				return nil
			}
			return err
		},
	}
}

func consumerName() string {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	return fmt.Sprintf("consumer-%s-%d-%s", hostname, os.Getpid(), uuid.New().String()[:8])
}
