package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackCounter_EmptyIsZero(t *testing.T) {
	assert.Equal(t, 0, NewFallbackCounter().CountTokens(""))
}

func TestFallbackCounter_NonEmptyIsAtLeastOne(t *testing.T) {
	c := NewFallbackCounter()
	for _, text := range []string{"a", "ab", "abc", " ", "é", "日本"} {
		assert.GreaterOrEqual(t, c.CountTokens(text), 1, "text %q", text)
	}
}

func TestFallbackCounter_CharsPerToken(t *testing.T) {
	c := NewFallbackCounter()
	assert.Equal(t, 1, c.CountTokens("abcd"))
	assert.Equal(t, 2, c.CountTokens("abcdefghi"))
	assert.Equal(t, 50, c.CountTokens(strings.Repeat("x", 200)))
	// counted in characters, not bytes
	assert.Equal(t, 2, c.CountTokens(strings.Repeat("ñ", 8)))
}

func TestFallbackCounter_Deterministic(t *testing.T) {
	c := NewFallbackCounter()
	text := "When I review churn data I want to spot the cohort at risk"
	first := c.CountTokens(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.CountTokens(text))
	}
}

// Whether tiktoken can load its BPE ranks depends on the host, so only the
// contract shared by both modes is asserted here.
func TestNewCounter_NeverFails(t *testing.T) {
	c := NewCounter("gpt-4o-mini")
	assert.NotEmpty(t, c.Encoding())
	assert.Equal(t, 0, c.CountTokens(""))
	assert.GreaterOrEqual(t, c.CountTokens("hello world"), 1)
	assert.Equal(t, c.CountTokens("hello world"), c.CountTokens("hello world"))
}

func TestCounterFunc(t *testing.T) {
	var c Counter = CounterFunc(func(text string) int { return len(strings.Fields(text)) })
	assert.Equal(t, 3, c.CountTokens("one two three"))
}
