package plagiarism

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RishiKendai/plagcheck/internal/models"
	"github.com/RishiKendai/plagcheck/internal/remote"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const documentAddedMessage = "Document added to local database successfully."

// DocumentStore is the local corpus
type DocumentStore interface {
	ListAll(ctx context.Context) ([]models.StoredDocument, error)
	Insert(ctx context.Context, content string) (string, error)
}

// RemoteDetector is the third-party plagiarism detector
type RemoteDetector interface {
	Check(ctx context.Context, text string, opts remote.Options) (*models.RemoteResult, error)
}

// Checker runs the local and remote strategies of a check and merges their
// outcomes into a single report. Either dependency may be nil, in which case
// the matching strategy reports a configuration error when requested.
type Checker struct {
	store    DocumentStore
	detector RemoteDetector
	matcher  *Matcher
}

func NewChecker(store DocumentStore, detector RemoteDetector, matcher *Matcher) *Checker {
	if matcher == nil {
		matcher = NewMatcher(nil)
	}
	return &Checker{
		store:    store,
		detector: detector,
		matcher:  matcher,
	}
}

// Check runs every requested strategy concurrently. Strategy failures are
// recorded in the report; only invalid options return an error.
func (c *Checker) Check(ctx context.Context, text string, opts models.CheckOptions) (*models.CheckReport, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	report := &models.CheckReport{
		CheckID:     uuid.NewString(),
		TextToCheck: text,
	}
	logger := log.With().Str("checkId", report.CheckID).Logger()
	start := time.Now()

	var wg sync.WaitGroup
	if opts.CheckLocal {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report.Local = c.runLocal(ctx, text, opts)
		}()
	}
	if opts.CheckRemote {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report.Remote = c.runRemote(ctx, text, opts)
		}()
	}
	wg.Wait()

	report.PlagiarismDetected = report.Detected()

	event := logger.Info().
		Bool("plagiarismDetected", report.PlagiarismDetected).
		Dur("took", time.Since(start))
	if report.Local != nil {
		event = event.Int("localMatches", len(report.Local.Matches)).Bool("localOK", report.Local.OK())
	}
	if report.Remote != nil {
		event = event.Bool("remoteOK", report.Remote.OK())
	}
	event.Msg("Check completed")

	return report, nil
}

func (c *Checker) runLocal(ctx context.Context, text string, opts models.CheckOptions) (outcome *models.LocalOutcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Local check panicked")
			outcome = &models.LocalOutcome{Error: &models.ErrorInfo{
				Kind:    models.ErrorKindInternal,
				Message: fmt.Sprintf("local check failed: %v", r),
			}}
		}
	}()

	if c.store == nil {
		return &models.LocalOutcome{Error: &models.ErrorInfo{
			Kind:    models.ErrorKindConfiguration,
			Message: "Document store credentials are required for local database check.",
		}}
	}

	corpus, err := c.store.ListAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read local corpus")
		return &models.LocalOutcome{Error: localErrorInfo(err)}
	}

	return &models.LocalOutcome{
		Matches: c.matcher.Match(ctx, text, opts.ShingleSize, opts.MinSimilarity, corpus),
	}
}

func (c *Checker) runRemote(ctx context.Context, text string, opts models.CheckOptions) (outcome *models.RemoteOutcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Remote check panicked")
			outcome = &models.RemoteOutcome{Error: &models.ErrorInfo{
				Kind:    models.ErrorKindInternal,
				Message: fmt.Sprintf("remote check failed: %v", r),
			}}
		}
	}()

	if c.detector == nil {
		return &models.RemoteOutcome{Error: &models.ErrorInfo{
			Kind:    models.ErrorKindConfiguration,
			Message: "RapidAPI key is required for RapidAPI check.",
		}}
	}

	result, err := c.detector.Check(ctx, text, remote.Options{
		IncludeCitations: opts.IncludeCitations,
		ScrapeSources:    opts.ScrapeSources,
	})
	if err != nil {
		log.Error().Err(err).Msg("Remote detector call failed")
		return &models.RemoteOutcome{Error: remoteErrorInfo(err)}
	}
	if result == nil {
		return &models.RemoteOutcome{Error: &models.ErrorInfo{
			Kind:    models.ErrorKindRemote,
			Message: "remote detector returned no result",
		}}
	}

	return &models.RemoteOutcome{Result: result}
}

func localErrorInfo(err error) *models.ErrorInfo {
	if errors.Is(err, models.ErrConfiguration) {
		return &models.ErrorInfo{Kind: models.ErrorKindConfiguration, Message: err.Error()}
	}
	return &models.ErrorInfo{
		Kind:    models.ErrorKindStoreUnavailable,
		Message: "Failed to check local database: " + err.Error(),
	}
}

func remoteErrorInfo(err error) *models.ErrorInfo {
	if errors.Is(err, models.ErrConfiguration) {
		return &models.ErrorInfo{Kind: models.ErrorKindConfiguration, Message: err.Error()}
	}

	info := &models.ErrorInfo{
		Kind:    models.ErrorKindRemote,
		Message: "RapidAPI check failed: " + err.Error(),
	}

	var remoteErr *remote.Error
	if errors.As(err, &remoteErr) {
		info.Status = remoteErr.StatusCode
		info.ResponseData = responseData(remoteErr.Body)
	}
	return info
}

// responseData embeds body as-is when it is JSON, otherwise as a JSON string.
func responseData(body []byte) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, err := json.Marshal(string(body))
	if err != nil {
		return nil
	}
	return quoted
}

// AddDocument stores text in the local corpus. Failures are reported in the
// result rather than returned.
func (c *Checker) AddDocument(ctx context.Context, text string) *models.AddResult {
	if c.store == nil {
		return &models.AddResult{Error: "Failed to add document to database: document store is not configured"}
	}

	id, err := c.store.Insert(ctx, text)
	if err != nil {
		log.Error().Err(err).Msg("Failed to add document")
		return &models.AddResult{Error: "Failed to add document to database: " + err.Error()}
	}

	log.Info().Str("documentId", id).Int("length", len(text)).Msg("Document added")
	return &models.AddResult{
		Success:    true,
		InsertedID: id,
		Message:    documentAddedMessage,
	}
}
