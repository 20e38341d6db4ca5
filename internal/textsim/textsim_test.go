package textsim

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var samples = []string{
	"",
	"   ",
	"Hello, World!",
	"The quick brown fox jumps over the lazy dog.",
	"a . b",
	"  leading and   trailing  ",
	"tab\tstays",
	"Don't {panic} -- it's_fine ~(really)~",
	"C++ & Go; 100% = fun",
	"line one\n\nline two",
	"wide\u3000\u3000gap\u00a0",
}

func Test_Normalize(t *testing.T) {
	var cases = []struct {
		input  string
		output string
	}{
		{input: "", output: ""},
		{input: "Hello, World!", output: "hello world"},
		{input: "  a   b  ", output: "a b"},
		{input: "a . b", output: "a b"},
		{input: "tab\tstays", output: "tab\tstays"},
		{input: "don't", output: "don't"},
		{input: "C++ (fast)", output: "c++ fast"},
		{input: "x=y-z_w", output: "xyzw"},
		{input: "line one\n\nline two", output: "line one line two"},
		{input: "a\u00a0\u00a0b", output: "a b"},
		{input: "a \u3000b", output: "a b"},
		{input: "a\u2003\u2003b", output: "a b"},
		{input: "a\v\vb", output: "a b"},
		{input: "a\u2028\u2029b", output: "a b"},
		{input: "a\ufeff b", output: "a b"},
		{input: "a\u00a0b", output: "a\u00a0b"},
		{input: "\ufeffhello\u00a0", output: "hello"},
	}

	for i, c := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			assert.Equal(t, c.output, Normalize(c.input))
		})
	}
}

func Test_Normalize_Idempotent(t *testing.T) {
	for _, s := range samples {
		once := Normalize(s)
		assert.Equal(t, once, Normalize(once), "input %q", s)
	}
}

func Test_Normalize_CaseInsensitive(t *testing.T) {
	assert.Equal(t, Normalize("hello world"), Normalize("Hello WORLD"))
}

func Test_Shingles(t *testing.T) {
	var cases = []struct {
		text   string
		k      int
		output []string
	}{
		{text: "The quick brown fox", k: 3, output: []string{"quick brown fox", "the quick brown"}},
		{text: "a a b", k: 1, output: []string{"a", "b"}},
		{text: "a b a b a b", k: 2, output: []string{"a b", "b a"}},
		{text: "one two", k: 3, output: []string{}},
		{text: "", k: 3, output: []string{}},
		{text: "", k: 1, output: []string{}},
		{text: "one two three", k: 0, output: []string{}},
		{text: "Hello, hello... HELLO!", k: 2, output: []string{"hello hello"}},
	}

	for i, c := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			assert.Equal(t, c.output, Shingles(c.text, c.k).Slice())
		})
	}
}

func Test_Shingles_LengthBound(t *testing.T) {
	for _, s := range samples {
		for k := MinShingleSize; k <= MaxShingleSize; k++ {
			bound := max(0, WordCount(s)-k+1)
			got := Shingles(s, k)
			assert.LessOrEqual(t, got.Len(), bound, "text %q k=%d", s, k)
			if WordCount(s) < k {
				assert.Zero(t, got.Len(), "text %q k=%d", s, k)
			}
		}
	}
}

func Test_Jaccard(t *testing.T) {
	abc := NewShingleSet("a", "b", "c")
	bcd := NewShingleSet("b", "c", "d")
	empty := NewShingleSet()

	assert.Equal(t, 0.5, Jaccard(abc, bcd))
	assert.Equal(t, 0.0, Jaccard(abc, NewShingleSet("x", "y")))
	assert.Equal(t, 0.25, Jaccard(NewShingleSet("a"), NewShingleSet("a", "b", "c", "d")))
	assert.Equal(t, 1.0, Jaccard(empty, NewShingleSet()))
	assert.Equal(t, 0.0, Jaccard(abc, empty))
	assert.Equal(t, 0.0, Jaccard(empty, abc))
}

func Test_Jaccard_Symmetric(t *testing.T) {
	sets := []ShingleSet{
		NewShingleSet(),
		NewShingleSet("a"),
		NewShingleSet("a", "b", "c"),
		NewShingleSet("b", "c", "d", "e"),
		Shingles("the quick brown fox jumps over the lazy dog", 2),
		Shingles("the quick brown cat jumps over the lazy dog", 2),
	}

	for _, a := range sets {
		for _, b := range sets {
			assert.Equal(t, Jaccard(a, b), Jaccard(b, a))
		}
	}
}

func Test_Jaccard_Reflexive(t *testing.T) {
	for _, s := range samples {
		set := Shingles(s, 1)
		assert.Equal(t, 1.0, Jaccard(set, set), "text %q", s)
	}
}
