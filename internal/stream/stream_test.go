package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/RishiKendai/plagcheck/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis records stream writes and acks. Other Cmdable methods are unused.
type fakeRedis struct {
	redis.Cmdable

	mu     sync.Mutex
	added  []*redis.XAddArgs
	acked  []string
	addErr error
	fails  int
}

func (f *fakeRedis) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails > 0 {
		f.fails--
		return redis.NewStringResult("", errors.New("connection reset"))
	}
	if f.addErr != nil {
		return redis.NewStringResult("", f.addErr)
	}
	f.added = append(f.added, a)
	return redis.NewStringResult(fmt.Sprintf("%d-0", len(f.added)), nil)
}

func (f *fakeRedis) XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, ids...)
	return redis.NewIntResult(int64(len(ids)), nil)
}

func (f *fakeRedis) streamWrites(stream string) []*redis.XAddArgs {
	var out []*redis.XAddArgs
	for _, a := range f.added {
		if a.Stream == stream {
			out = append(out, a)
		}
	}
	return out
}

type fakeChecker struct {
	gotOpts  models.CheckOptions
	added    []string
	checks   int
	checkErr error
}

func (c *fakeChecker) Check(ctx context.Context, text string, opts models.CheckOptions) (*models.CheckReport, error) {
	c.gotOpts = opts
	c.checks++
	if c.checkErr != nil {
		return nil, c.checkErr
	}
	return &models.CheckReport{CheckID: "check-1", TextToCheck: text, Local: &models.LocalOutcome{Matches: []models.MatchResult{}}}, nil
}

func (c *fakeChecker) AddDocument(ctx context.Context, text string) *models.AddResult {
	c.added = append(c.added, text)
	return &models.AddResult{Success: true, InsertedID: "doc-1"}
}

func fastRetry(client deadLetterWriter) *RetryHandler {
	h := NewRetryHandler(client, "dlq")
	h.initialBackoff = time.Millisecond
	h.maxBackoff = 2 * time.Millisecond
	return h
}

func Test_ParseRequest(t *testing.T) {
	defaults := models.DefaultCheckOptions()

	req, err := ParseRequest(&StreamMessage{ID: "1-0", Fields: map[string]string{
		"text":             "hello world",
		"k":                "2",
		"threshold":        "0.5",
		"remote":           "true",
		"includeCitations": "1",
	}}, defaults)
	require.NoError(t, err)

	assert.Equal(t, OpCheck, req.Op)
	assert.Equal(t, "1-0", req.RequestID)
	assert.Equal(t, 2, req.Options.ShingleSize)
	assert.Equal(t, 0.5, req.Options.MinSimilarity)
	assert.True(t, req.Options.CheckLocal)
	assert.True(t, req.Options.CheckRemote)
	assert.True(t, req.Options.IncludeCitations)
	assert.False(t, req.Options.ScrapeSources)
}

func Test_ParseRequest_Add(t *testing.T) {
	req, err := ParseRequest(&StreamMessage{ID: "1-0", Fields: map[string]string{
		"op": "ADD", "text": "hello", "requestId": "r-1", "k": "garbage",
	}}, models.DefaultCheckOptions())
	require.NoError(t, err)

	assert.Equal(t, OpAdd, req.Op)
	assert.Equal(t, "r-1", req.RequestID)
}

func Test_ParseRequest_Invalid(t *testing.T) {
	var cases = []struct {
		name   string
		fields map[string]string
	}{
		{name: "unknown op", fields: map[string]string{"op": "delete", "text": "x"}},
		{name: "missing text", fields: map[string]string{"op": "check"}},
		{name: "bad k", fields: map[string]string{"text": "x", "k": "three"}},
		{name: "k out of range", fields: map[string]string{"text": "x", "k": "0"}},
		{name: "bad threshold", fields: map[string]string{"text": "x", "threshold": "high"}},
		{name: "threshold out of range", fields: map[string]string{"text": "x", "threshold": "2"}},
		{name: "bad bool", fields: map[string]string{"text": "x", "remote": "maybe"}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ParseRequest(&StreamMessage{ID: "1-0", Fields: c.fields}, models.DefaultCheckOptions())
			assert.True(t, errors.Is(err, ErrInvalidMessage))
		})
	}
}

func Test_Processor_PublishesReport(t *testing.T) {
	client := &fakeRedis{}
	checker := &fakeChecker{}
	p := NewProcessor(checker, client, "results", time.Hour)

	req := &Request{MessageID: "1-0", RequestID: "r-1", Op: OpCheck, Text: "hello", Options: models.DefaultCheckOptions()}
	payload, err := p.Handle(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), req, payload))

	writes := client.streamWrites("results")
	require.Len(t, writes, 1)
	assert.Equal(t, "r-1", writes[0].Values.(map[string]interface{})["requestId"])
	assert.NotEmpty(t, writes[0].MinID)

	var report models.CheckReport
	require.NoError(t, json.Unmarshal([]byte(writes[0].Values.(map[string]interface{})["payload"].(string)), &report))
	assert.Equal(t, "check-1", report.CheckID)
	assert.Equal(t, "hello", report.TextToCheck)
}

func Test_Processor_Add(t *testing.T) {
	client := &fakeRedis{}
	checker := &fakeChecker{}

	p := NewProcessor(checker, client, "results", 0)
	req := &Request{MessageID: "1-0", Op: OpAdd, Text: "hello"}
	payload, err := p.Handle(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), req, payload))

	assert.Equal(t, []string{"hello"}, checker.added)
	writes := client.streamWrites("results")
	require.Len(t, writes, 1)
	assert.Empty(t, writes[0].MinID)
}

func Test_RetryWithBackoff_RecoversAfterFailures(t *testing.T) {
	client := &fakeRedis{}
	attempts := 0

	err := fastRetry(client).RetryWithBackoff(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}, "1-0", nil)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Empty(t, client.streamWrites("dlq"))
}

func Test_RetryWithBackoff_DeadLetters(t *testing.T) {
	client := &fakeRedis{}
	attempts := 0

	err := fastRetry(client).RetryWithBackoff(context.Background(), func() error {
		attempts++
		return errors.New("permanent")
	}, "1-0", map[string]interface{}{"text": "hello"})

	require.Error(t, err)
	assert.Equal(t, 4, attempts)

	dlq := client.streamWrites("dlq")
	require.Len(t, dlq, 1)
	values := dlq[0].Values.(map[string]interface{})
	assert.Equal(t, "1-0", values["originalId"])
	assert.Equal(t, "permanent", values["error"])
	assert.Equal(t, "hello", values["text"])
}

func Test_RetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := NewRetryHandler(&fakeRedis{}, "dlq")
	err := h.RetryWithBackoff(ctx, func() error { return errors.New("fail") }, "1-0", nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func newTestConsumer(client *fakeRedis, checker RequestChecker) *Consumer {
	return NewConsumer(client, "requests", "group", "consumer-1",
		NewProcessor(checker, client, "results", time.Hour),
		models.DefaultCheckOptions(), fastRetry(client), time.Hour)
}

func Test_Consumer_ProcessMessage(t *testing.T) {
	client := &fakeRedis{}
	checker := &fakeChecker{}
	c := newTestConsumer(client, checker)

	err := c.processMessage(context.Background(), &redis.XMessage{ID: "5-0", Values: map[string]interface{}{
		"text": "hello world", "threshold": "0.9",
	}})
	require.NoError(t, err)

	assert.Equal(t, []string{"5-0"}, client.acked)
	assert.Len(t, client.streamWrites("results"), 1)
	assert.Equal(t, 0.9, checker.gotOpts.MinSimilarity)
}

func Test_Consumer_MalformedMessage(t *testing.T) {
	client := &fakeRedis{}
	c := newTestConsumer(client, &fakeChecker{})

	err := c.processMessage(context.Background(), &redis.XMessage{ID: "6-0", Values: map[string]interface{}{"op": "explode"}})
	assert.True(t, errors.Is(err, ErrInvalidMessage))

	assert.Equal(t, []string{"6-0"}, client.acked)
	assert.Len(t, client.streamWrites("dlq"), 1)
	assert.Empty(t, client.streamWrites("results"))
}

func Test_Consumer_PublishRetried(t *testing.T) {
	client := &fakeRedis{fails: 2}
	c := newTestConsumer(client, &fakeChecker{})

	err := c.processMessage(context.Background(), &redis.XMessage{ID: "7-0", Values: map[string]interface{}{"text": "hello"}})
	require.NoError(t, err)

	assert.Len(t, client.streamWrites("results"), 1)
	assert.Equal(t, []string{"7-0"}, client.acked)
}

func Test_Consumer_AddRunsOnceWhenPublishRetried(t *testing.T) {
	client := &fakeRedis{fails: 2}
	checker := &fakeChecker{}
	c := newTestConsumer(client, checker)

	err := c.processMessage(context.Background(), &redis.XMessage{ID: "8-0", Values: map[string]interface{}{
		"op": "add", "text": "hello",
	}})
	require.NoError(t, err)

	assert.Equal(t, []string{"hello"}, checker.added)
	writes := client.streamWrites("results")
	require.Len(t, writes, 1)
	assert.Equal(t, OpAdd, writes[0].Values.(map[string]interface{})["op"])
	assert.Equal(t, []string{"8-0"}, client.acked)
}

func Test_Consumer_AddNotRepeatedWhenPublishFails(t *testing.T) {
	client := &fakeRedis{addErr: errors.New("connection reset")}
	checker := &fakeChecker{}
	c := newTestConsumer(client, checker)

	err := c.processMessage(context.Background(), &redis.XMessage{ID: "9-0", Values: map[string]interface{}{
		"op": "add", "text": "hello",
	}})
	require.Error(t, err)

	assert.Len(t, checker.added, 1)
	assert.Equal(t, []string{"9-0"}, client.acked)
}

func Test_Consumer_CheckErrorDeadLettered(t *testing.T) {
	client := &fakeRedis{}
	checker := &fakeChecker{checkErr: models.ErrInvalidOptions}
	c := newTestConsumer(client, checker)

	err := c.processMessage(context.Background(), &redis.XMessage{ID: "10-0", Values: map[string]interface{}{"text": "hello"}})
	assert.True(t, errors.Is(err, models.ErrInvalidOptions))

	assert.Equal(t, 1, checker.checks)
	assert.Empty(t, client.streamWrites("results"))
	assert.Equal(t, []string{"10-0"}, client.acked)
}
