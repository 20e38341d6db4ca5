package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/RishiKendai/plagcheck/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Options are passed through to the detector untouched
type Options struct {
	IncludeCitations bool
	ScrapeSources    bool
}

type ClientConfig struct {
	URL      string
	Host     string
	APIKey   string
	Language string
	Timeout  time.Duration
	RPS      float64
}

// Client calls the RapidAPI plagiarism checker
type Client struct {
	url        string
	host       string
	apiKey     string
	language   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(cfg ClientConfig) *Client {
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	language := cfg.Language
	if language == "" {
		language = "en"
	}

	return &Client{
		url:      cfg.URL,
		host:     cfg.Host,
		apiKey:   cfg.APIKey,
		language: language,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
	}
}

type checkRequest struct {
	Text             string `json:"text"`
	Language         string `json:"language"`
	IncludeCitations bool   `json:"includeCitations"`
	ScrapeSources    bool   `json:"scrapeSources"`
}

func (c *Client) Check(ctx context.Context, text string, opts Options) (*models.RemoteResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: RapidAPI key is required for the remote check", models.ErrConfiguration)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &Error{Message: fmt.Sprintf("rate limiter: %v", err), cause: err}
	}

	reqBody, err := json.Marshal(checkRequest{
		Text:             text,
		Language:         c.language,
		IncludeCitations: opts.IncludeCitations,
		ScrapeSources:    opts.ScrapeSources,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-rapidapi-host", c.host)
	httpReq.Header.Set("x-rapidapi-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("failed to execute request: %v", err), cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("failed to read response body: %v", err), StatusCode: resp.StatusCode, cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Message:    fmt.Sprintf("Request failed with status code %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
			Body:       body,
		}
	}

	var parsed struct {
		TotalPlagiarismPercentage float64 `json:"totalPlagiarismPercentage"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &Error{Message: fmt.Sprintf("failed to unmarshal response: %v", err), StatusCode: resp.StatusCode, Body: body, cause: err}
	}

	log.Debug().
		Float64("percentage", parsed.TotalPlagiarismPercentage).
		Msg("Remote check completed")

	return &models.RemoteResult{
		TotalPlagiarismPercentage: parsed.TotalPlagiarismPercentage,
		Raw:                       json.RawMessage(body),
	}, nil
}
