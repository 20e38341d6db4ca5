package textsim

import (
	"sort"
	"strings"
)

const (
	DefaultShingleSize = 3
	MinShingleSize     = 1
	MaxShingleSize     = 10
)

// ShingleSet is a set of word n-grams.
type ShingleSet map[string]struct{}

// NewShingleSet builds a set from the given shingles, collapsing duplicates.
func NewShingleSet(shingles ...string) ShingleSet {
	set := make(ShingleSet, len(shingles))
	for _, s := range shingles {
		set[s] = struct{}{}
	}
	return set
}

func (s ShingleSet) Len() int {
	return len(s)
}

func (s ShingleSet) Contains(shingle string) bool {
	_, ok := s[shingle]
	return ok
}

// Slice returns the shingles in lexical order.
func (s ShingleSet) Slice() []string {
	out := make([]string, 0, len(s))
	for shingle := range s {
		out = append(out, shingle)
	}
	sort.Strings(out)
	return out
}

// Shingles normalizes text and returns every run of k consecutive words.
// Texts shorter than k words yield an empty set, as does k < 1.
func Shingles(text string, k int) ShingleSet {
	if k < MinShingleSize {
		return ShingleSet{}
	}

	words := strings.Fields(Normalize(text))
	if len(words) < k {
		return ShingleSet{}
	}

	set := make(ShingleSet, len(words)-k+1)
	for i := 0; i <= len(words)-k; i++ {
		set[strings.Join(words[i:i+k], " ")] = struct{}{}
	}
	return set
}

// WordCount returns the number of words left after normalization.
func WordCount(text string) int {
	return len(strings.Fields(Normalize(text)))
}
