package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RishiKendai/plagcheck/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RequestChecker is the part of plagiarism.Checker the consumer needs
type RequestChecker interface {
	Check(ctx context.Context, text string, opts models.CheckOptions) (*models.CheckReport, error)
	AddDocument(ctx context.Context, text string) *models.AddResult
}

type resultWriter interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Processor handles one request and publishes its outcome to the results stream.
type Processor struct {
	checker    RequestChecker
	client     resultWriter
	resultsKey string
	retention  time.Duration
}

func NewProcessor(checker RequestChecker, client resultWriter, resultsKey string, retention time.Duration) *Processor {
	return &Processor{
		checker:    checker,
		client:     client,
		resultsKey: resultsKey,
		retention:  retention,
	}
}

// Handle runs the request against the checker and returns the result to
// publish. It is not idempotent for OpAdd, so callers run it once per entry.
func (p *Processor) Handle(ctx context.Context, req *Request) (interface{}, error) {
	switch req.Op {
	case OpAdd:
		return p.checker.AddDocument(ctx, req.Text), nil
	case OpCheck:
		report, err := p.checker.Check(ctx, req.Text, req.Options)
		if err != nil {
			return nil, err
		}
		return report, nil
	default:
		return nil, fmt.Errorf("%w: unknown op %q", ErrInvalidMessage, req.Op)
	}
}

// Publish writes payload to the results stream. Safe to retry.
func (p *Processor) Publish(ctx context.Context, req *Request, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.resultsKey,
		Values: map[string]interface{}{
			"requestId": req.RequestID,
			"messageId": req.MessageID,
			"op":        req.Op,
			"payload":   string(body),
		},
	}
	if p.retention > 0 {
		args.MinID = fmt.Sprintf("%d-0", time.Now().Add(-p.retention).UnixMilli())
		args.Approx = true
	}

	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("failed to publish result: %w", err)
	}

	log.Debug().
		Str("request_id", req.RequestID).
		Str("result_id", id).
		Str("op", req.Op).
		Msg("Result published")
	return nil
}
