package plagiarism

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/RishiKendai/plagcheck/internal/cache"
	"github.com/RishiKendai/plagcheck/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fox = "the quick brown fox jumps over the lazy dog"

func doc(id string, content interface{}) models.StoredDocument {
	return models.StoredDocument{ID: id, Content: content}
}

func Test_Match_IdenticalText(t *testing.T) {
	matches := Match(fox, 3, 0.7, []models.StoredDocument{doc("1", fox)})

	require.Len(t, matches, 1)
	assert.Equal(t, models.MatchResult{
		Source:         models.LocalSource,
		DocumentID:     "1",
		Similarity:     1.0,
		MatchedContent: fox + "...",
	}, matches[0])
}

func Test_Match_UnrelatedText(t *testing.T) {
	matches := Match(fox, 3, 0.7, []models.StoredDocument{doc("1", "completely unrelated text about cooking")})

	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func Test_Match_EmptyQuery(t *testing.T) {
	corpus := []models.StoredDocument{
		doc("1", "some stored content here"),
		doc("2", ""),
		doc("3", " ... !!! "),
	}

	matches := Match("", 3, 0.7, corpus)

	require.Len(t, matches, 2)
	assert.Equal(t, "2", matches[0].DocumentID)
	assert.Equal(t, 1.0, matches[0].Similarity)
	assert.Equal(t, "...", matches[0].MatchedContent)
	assert.Equal(t, "3", matches[1].DocumentID)
}

func Test_Match_ThresholdInclusive(t *testing.T) {
	// {a,b,c} vs {b,c,d} with k=1 is exactly 2/4
	corpus := []models.StoredDocument{doc("1", "b c d")}

	assert.Len(t, Match("a b c", 1, 0.5, corpus), 1)
	assert.Empty(t, Match("a b c", 1, 0.5000001, corpus))
}

func Test_Match_ZeroThresholdMatchesEverything(t *testing.T) {
	corpus := []models.StoredDocument{doc("1", "alpha beta gamma"), doc("2", "delta epsilon zeta")}

	matches := Match(fox, 3, 0, corpus)
	assert.Len(t, matches, 2)
	for _, m := range matches {
		assert.Equal(t, 0.0, m.Similarity)
	}
}

func Test_Match_SkipsNonTextContent(t *testing.T) {
	corpus := []models.StoredDocument{
		doc("1", 42),
		doc("2", nil),
		doc("3", map[string]interface{}{"text": fox}),
		doc("4", fox),
	}

	matches := Match(fox, 3, 0.7, corpus)

	require.Len(t, matches, 1)
	assert.Equal(t, "4", matches[0].DocumentID)
}

func Test_Match_PreservesCorpusOrder(t *testing.T) {
	corpus := []models.StoredDocument{
		doc("c", fox+" today"),
		doc("a", fox),
		doc("b", "The QUICK brown fox, jumps over the lazy dog!"),
	}

	matches := Match(fox, 3, 0.5, corpus)

	require.Len(t, matches, 3)
	assert.Equal(t, "c", matches[0].DocumentID)
	assert.Equal(t, "a", matches[1].DocumentID)
	assert.Equal(t, "b", matches[2].DocumentID)
	assert.Equal(t, 1.0, matches[2].Similarity)
	// 7 shared of 8 total shingles
	assert.Equal(t, 0.875, matches[0].Similarity)
}

func Test_roundSimilarity(t *testing.T) {
	var cases = []struct {
		in   float64
		want float64
	}{
		{in: 1, want: 1},
		{in: 0, want: 0},
		{in: 2.0 / 3.0, want: 0.6667},
		{in: 1.0 / 3.0, want: 0.3333},
		{in: 1.0 / 7.0, want: 0.1429},
		{in: 1.0 / 32.0, want: 0.0313}, // exact tie rounds up
	}

	for _, c := range cases {
		assert.Equal(t, c.want, roundSimilarity(c.in))
	}
}

func Test_excerpt(t *testing.T) {
	assert.Equal(t, "short...", excerpt("short"))

	long := strings.Repeat("é", 250)
	got := excerpt(long)
	assert.Equal(t, strings.Repeat("é", 200)+"...", got)
}

type countingCache struct {
	*cache.MemoryCache
	hits int
}

func (c *countingCache) Get(ctx context.Context, key string) ([]string, bool) {
	v, ok := c.MemoryCache.Get(ctx, key)
	if ok {
		c.hits++
	}
	return v, ok
}

func Test_CachedShingler(t *testing.T) {
	store := &countingCache{MemoryCache: cache.NewMemoryCache(time.Minute, time.Minute)}
	matcher := NewMatcher(NewCachedShingler(store))
	corpus := []models.StoredDocument{doc("1", fox), doc("2", "completely unrelated text about cooking")}

	first := matcher.Match(context.Background(), fox, 3, 0.7, corpus)
	assert.Equal(t, 0, store.hits)
	assert.Equal(t, 2, store.Len())

	second := matcher.Match(context.Background(), fox, 3, 0.7, corpus)
	assert.Equal(t, 2, store.hits)
	assert.Equal(t, first, second)

	// a different k is a different entry
	matcher.Match(context.Background(), fox, 2, 0.7, corpus)
	assert.Equal(t, 4, store.Len())
}
