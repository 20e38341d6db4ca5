package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type deadLetterWriter interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RetryHandler retries failed message handling with exponential backoff and
// moves messages that keep failing to the dead letter stream.
type RetryHandler struct {
	client         deadLetterWriter
	deadLetterKey  string
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

func NewRetryHandler(client deadLetterWriter, deadLetterKey string) *RetryHandler {
	return &RetryHandler{
		client:         client,
		deadLetterKey:  deadLetterKey,
		maxRetries:     3,
		initialBackoff: 500 * time.Millisecond,
		maxBackoff:     10 * time.Second,
	}
}

// RetryWithBackoff runs fn until it succeeds or retries are exhausted. On
// exhaustion the message is dead-lettered and the last error returned.
func (h *RetryHandler) RetryWithBackoff(ctx context.Context, fn func() error, messageID string, fields map[string]interface{}) error {
	backoff := h.initialBackoff
	var err error

	for attempt := 0; attempt <= h.maxRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}

		if attempt == h.maxRetries {
			break
		}

		log.Warn().
			Err(err).
			Str("message_id", messageID).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Msg("Message processing failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > h.maxBackoff {
			backoff = h.maxBackoff
		}
	}

	if dlqErr := h.SendToDeadLetter(ctx, messageID, fields, err); dlqErr != nil {
		return fmt.Errorf("%w (dead letter failed: %v)", err, dlqErr)
	}
	return err
}

// SendToDeadLetter copies the message fields to the dead letter stream
// together with the failure reason.
func (h *RetryHandler) SendToDeadLetter(ctx context.Context, messageID string, fields map[string]interface{}, cause error) error {
	values := make(map[string]interface{}, len(fields)+3)
	for k, v := range fields {
		values[k] = v
	}
	values["originalId"] = messageID
	values["error"] = cause.Error()
	values["failedAt"] = time.Now().UTC().Format(time.RFC3339)

	if err := h.client.XAdd(ctx, &redis.XAddArgs{
		Stream: h.deadLetterKey,
		Values: values,
	}).Err(); err != nil {
		log.Error().Err(err).Str("message_id", messageID).Msg("Failed to write dead letter")
		return err
	}

	log.Warn().
		Err(cause).
		Str("message_id", messageID).
		Str("stream", h.deadLetterKey).
		Msg("Message moved to dead letter stream")
	return nil
}
