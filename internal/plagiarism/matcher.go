package plagiarism

import (
	"context"
	"math"

	"github.com/RishiKendai/plagcheck/internal/cache"
	"github.com/RishiKendai/plagcheck/internal/models"
	"github.com/RishiKendai/plagcheck/internal/textsim"
	"github.com/rs/zerolog/log"
)

const (
	excerptLength  = 200
	excerptSuffix  = "..."
	similarityUnit = 10000 // 4 decimal places
)

// Shingler produces the shingle set of a text
type Shingler interface {
	Shingles(ctx context.Context, text string, k int) textsim.ShingleSet
}

type directShingler struct{}

func (directShingler) Shingles(_ context.Context, text string, k int) textsim.ShingleSet {
	return textsim.Shingles(text, k)
}

// CachedShingler memoizes shingle sets. Keys are derived from the content
// itself, so an edited document never reads a stale entry.
type CachedShingler struct {
	cache cache.Cache
}

func NewCachedShingler(c cache.Cache) *CachedShingler {
	return &CachedShingler{cache: c}
}

func (s *CachedShingler) Shingles(ctx context.Context, text string, k int) textsim.ShingleSet {
	key := cache.ShingleKey(k, text)
	if shingles, ok := s.cache.Get(ctx, key); ok {
		return textsim.NewShingleSet(shingles...)
	}

	set := textsim.Shingles(text, k)
	if err := s.cache.Set(ctx, key, set.Slice()); err != nil {
		log.Warn().Err(err).Msg("Failed to cache shingles")
	}
	return set
}

// Matcher compares a query against every document of a corpus
type Matcher struct {
	shingler Shingler
}

func NewMatcher(shingler Shingler) *Matcher {
	if shingler == nil {
		shingler = directShingler{}
	}
	return &Matcher{shingler: shingler}
}

// Match scans the whole corpus and returns every document whose similarity
// to query is >= threshold, in corpus order. Documents without text content
// are skipped.
func (m *Matcher) Match(ctx context.Context, query string, k int, threshold float64, corpus []models.StoredDocument) []models.MatchResult {
	queryShingles := textsim.Shingles(query, k)

	matches := make([]models.MatchResult, 0)
	for _, doc := range corpus {
		content, ok := doc.Text()
		if !ok {
			continue
		}

		similarity := textsim.Jaccard(queryShingles, m.shingler.Shingles(ctx, content, k))
		if similarity < threshold {
			continue
		}

		matches = append(matches, models.MatchResult{
			Source:         models.LocalSource,
			DocumentID:     doc.ID,
			Similarity:     roundSimilarity(similarity),
			MatchedContent: excerpt(content),
		})
	}

	return matches
}

// Match runs an uncached Matcher.
func Match(query string, k int, threshold float64, corpus []models.StoredDocument) []models.MatchResult {
	return NewMatcher(nil).Match(context.Background(), query, k, threshold, corpus)
}

// roundSimilarity rounds to 4 decimal places, halves away from zero.
func roundSimilarity(similarity float64) float64 {
	return math.Round(similarity*similarityUnit) / similarityUnit
}

// excerpt returns the first 200 characters of content followed by "...".
func excerpt(content string) string {
	runes := []rune(content)
	if len(runes) > excerptLength {
		runes = runes[:excerptLength]
	}
	return string(runes) + excerptSuffix
}
