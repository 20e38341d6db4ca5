package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RishiKendai/plagcheck/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	readCount        = 10
	readBlock        = time.Second
	pendingBatchSize = 100
	claimMinIdle     = time.Minute
)

// Consumer reads plagiarism requests from a Redis stream consumer group
type Consumer struct {
	client        redis.Cmdable
	streamKey     string
	consumerGroup string
	consumerName  string
	processor     *Processor
	defaults      models.CheckOptions
	retryHandler  *RetryHandler
	retention     time.Duration

	reclaimInterval time.Duration
	trimInterval    time.Duration
	lastReclaim     time.Time
}

func NewConsumer(
	client redis.Cmdable,
	streamKey string,
	consumerGroup string,
	consumerName string,
	processor *Processor,
	defaults models.CheckOptions,
	retryHandler *RetryHandler,
	retention time.Duration,
) *Consumer {
	return &Consumer{
		client:          client,
		streamKey:       streamKey,
		consumerGroup:   consumerGroup,
		consumerName:    consumerName,
		processor:       processor,
		defaults:        defaults,
		retryHandler:    retryHandler,
		retention:       retention,
		reclaimInterval: 30 * time.Second,
		trimInterval:    time.Hour,
	}
}

// Start blocks until ctx is cancelled. Entries left pending by a crashed
// consumer are reclaimed at startup and then periodically.
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to create consumer group")
	}

	if err := c.reclaimPending(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to reclaim pending requests on startup")
	}
	c.lastReclaim = time.Now()

	go c.trimPeriodically(ctx)

	log.Info().
		Str("stream", c.streamKey).
		Str("group", c.consumerGroup).
		Str("consumer", c.consumerName).
		Dur("retention", c.retention).
		Msg("Consuming plagiarism requests")

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := c.poll(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Err(err).Msg("Error reading requests")
			time.Sleep(time.Second)
		}
	}
}

func (c *Consumer) ensureGroup(ctx context.Context) error {
	// MKSTREAM creates the stream when missing
	err := c.client.XGroupCreateMkStream(ctx, c.streamKey, c.consumerGroup, "$").Err()
	if err != nil {
		if strings.Contains(err.Error(), "BUSYGROUP") {
			return nil
		}
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	log.Info().Str("group", c.consumerGroup).Str("stream", c.streamKey).Msg("Created consumer group")
	return nil
}

func (c *Consumer) reclaimPending(ctx context.Context) error {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.streamKey,
		Group:  c.consumerGroup,
		Start:  "-",
		End:    "+",
		Count:  pendingBatchSize,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to list pending requests: %w", err)
	}

	ids := make([]string, 0, len(pending))
	for _, p := range pending {
		if p.Idle >= claimMinIdle {
			ids = append(ids, p.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	claimed, err := c.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   c.streamKey,
		Group:    c.consumerGroup,
		Consumer: c.consumerName,
		MinIdle:  claimMinIdle,
		Messages: ids,
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to claim pending requests: %w", err)
	}

	log.Info().Int("claimed", len(claimed)).Msg("Reprocessing idle pending requests")
	c.handle(ctx, claimed)
	return nil
}

func (c *Consumer) poll(ctx context.Context) error {
	if time.Since(c.lastReclaim) > c.reclaimInterval {
		if err := c.reclaimPending(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to reclaim pending requests")
		}
		c.lastReclaim = time.Now()
	}

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.consumerGroup,
		Consumer: c.consumerName,
		Streams:  []string{c.streamKey, ">"},
		Count:    readCount,
		Block:    readBlock,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, s := range streams {
		if s.Stream == c.streamKey {
			c.handle(ctx, s.Messages)
		}
	}
	return nil
}

func (c *Consumer) handle(ctx context.Context, msgs []redis.XMessage) {
	for i := range msgs {
		if err := c.processMessage(ctx, &msgs[i]); err != nil {
			log.Error().Err(err).Str("message_id", msgs[i].ID).Msg("Failed to process request")
		}
	}
}

// processMessage handles one entry. Malformed requests are dead-lettered and
// acknowledged at once. The request itself runs once; only publishing its
// result goes through the retry handler.
func (c *Consumer) processMessage(ctx context.Context, msg *redis.XMessage) error {
	fields := make(map[string]string, len(msg.Values))
	raw := make(map[string]interface{}, len(msg.Values))
	for key, val := range msg.Values {
		if value, ok := val.(string); ok {
			fields[key] = value
			raw[key] = value
		}
	}

	req, err := ParseRequest(&StreamMessage{ID: msg.ID, Fields: fields}, c.defaults)
	if err != nil {
		return c.deadLetter(ctx, msg.ID, raw, err)
	}

	payload, err := c.processor.Handle(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			// stays pending for the next reclaim
			return err
		}
		return c.deadLetter(ctx, msg.ID, raw, err)
	}

	err = c.retryHandler.RetryWithBackoff(ctx, func() error {
		return c.processor.Publish(ctx, req, payload)
	}, msg.ID, raw)
	if err != nil && ctx.Err() != nil {
		return err
	}

	if ackErr := c.acknowledge(ctx, msg.ID); ackErr != nil && err == nil {
		return ackErr
	}
	return err
}

func (c *Consumer) deadLetter(ctx context.Context, messageID string, raw map[string]interface{}, cause error) error {
	if err := c.retryHandler.SendToDeadLetter(ctx, messageID, raw, cause); err != nil {
		return err
	}
	_ = c.acknowledge(ctx, messageID)
	return cause
}

// trimOld drops stream entries older than the retention window
func (c *Consumer) trimOld(ctx context.Context) error {
	cutoff := time.Now().Add(-c.retention)
	trimmed, err := c.client.XTrimMinID(ctx, c.streamKey, fmt.Sprintf("%d-0", cutoff.UnixMilli())).Result()
	if err != nil {
		return fmt.Errorf("failed to trim stream: %w", err)
	}

	if trimmed > 0 {
		log.Debug().
			Int64("trimmed", trimmed).
			Str("cutoff", cutoff.Format(time.RFC3339)).
			Msg("Trimmed old requests")
	}
	return nil
}

func (c *Consumer) trimPeriodically(ctx context.Context) {
	ticker := time.NewTicker(c.trimInterval)
	defer ticker.Stop()

	for {
		if err := c.trimOld(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("Failed to trim request stream")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *Consumer) acknowledge(ctx context.Context, messageID string) error {
	if err := c.client.XAck(ctx, c.streamKey, c.consumerGroup, messageID).Err(); err != nil {
		log.Error().Err(err).Str("message_id", messageID).Msg("Failed to acknowledge request")
		return err
	}
	return nil
}
