package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"github.com/RishiKendai/plagcheck/internal/models"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog/log"
)

// MaxFileSize caps the size of a file imported as a document.
const MaxFileSize = 10 << 20

var (
	ErrInvalidPattern = errors.New("invalid glob pattern")
	ErrNotText        = errors.New("file is not valid UTF-8 text")
	ErrTooLarge       = errors.New("file exceeds maximum document size")
)

// Adder stores a document
type Adder interface {
	AddDocument(ctx context.Context, text string) *models.AddResult
}

// FileResult is the outcome of importing one file
type FileResult struct {
	Path   string            `json:"path"`
	Result *models.AddResult `json:"result"`
}

// ImportGlob adds every regular file matching pattern, in lexical order.
// Patterns support "**" for any number of directories.
func ImportGlob(ctx context.Context, pattern string, adder Adder) ([]FileResult, error) {
	if !doublestar.ValidatePathPattern(pattern) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}

	paths, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to expand %q: %w", pattern, err)
	}
	sort.Strings(paths)

	log.Info().Str("pattern", pattern).Int("files", len(paths)).Msg("Importing documents")

	results := make([]FileResult, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, ImportFile(ctx, path, adder))
	}
	return results, nil
}

// ImportFile adds the content of a single file. Read failures are reported
// in the result.
func ImportFile(ctx context.Context, path string, adder Adder) FileResult {
	content, err := readText(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Skipping file")
		return FileResult{Path: path, Result: &models.AddResult{Error: err.Error()}}
	}
	return FileResult{Path: path, Result: adder.AddDocument(ctx, content)}
}

func readText(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() > MaxFileSize {
		return "", fmt.Errorf("%w: %s (%d bytes)", ErrTooLarge, filepath.Base(path), info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s", ErrNotText, filepath.Base(path))
	}
	return string(data), nil
}
