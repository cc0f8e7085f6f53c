// Package tokenizer maps text to the token counts used for context budgeting.
//
// The primary counter uses the tiktoken encoding of the configured chat
// model. When no encoding can be loaded the package degrades to a
// characters-per-token approximation so budgeting keeps working; IsFallback
// reports which mode is in effect.
package tokenizer

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
	"github.com/sirupsen/logrus"
)

func init() {
	// BPE ranks ship embedded in the binary; no download at runtime.
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

const (
	// DefaultEncoding is used when the model name is unknown to tiktoken.
	DefaultEncoding = "cl100k_base"
	// CharsPerToken is the divisor of the fallback approximation.
	CharsPerToken = 4
)

// Counter counts tokens. Implementations must be deterministic and return 0
// for empty text.
type Counter interface {
	CountTokens(text string) int
}

// CounterFunc adapts a plain function to Counter.
type CounterFunc func(text string) int

func (f CounterFunc) CountTokens(text string) int {
	return f(text)
}

// FallbackCounter approximates one token per four characters.
type FallbackCounter struct{}

func NewFallbackCounter() FallbackCounter {
	return FallbackCounter{}
}

func (FallbackCounter) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	n := utf8.RuneCountInString(text) / CharsPerToken
	if n < 1 {
		return 1
	}
	return n
}

// TiktokenCounter counts with a tiktoken BPE encoding.
type TiktokenCounter struct {
	model    string
	encoding string
	mu       sync.Mutex
	enc      *tiktoken.Tiktoken
	fallback FallbackCounter
}

// NewCounter resolves the encoding for model, falling back to the default
// encoding and finally to the character approximation. It never fails.
func NewCounter(model string) *TiktokenCounter {
	c := &TiktokenCounter{model: model}

	enc, err := tiktoken.EncodingForModel(model)
	if err == nil {
		c.enc = enc
		c.encoding = "model:" + model
		return c
	}

	enc, defErr := tiktoken.GetEncoding(DefaultEncoding)
	if defErr == nil {
		logrus.WithError(err).Debugf("[TOKENIZER] No encoding registered for model %q, using %s", model, DefaultEncoding)
		c.enc = enc
		c.encoding = DefaultEncoding
		return c
	}

	logrus.WithError(defErr).Warnf("[TOKENIZER] tiktoken unavailable, using %d chars/token approximation", CharsPerToken)
	c.encoding = "fallback"
	return c
}

// CountTokens returns the number of tokens in text.
func (c *TiktokenCounter) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	if c.enc == nil {
		return c.fallback.CountTokens(text)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.enc.Encode(text, nil, nil))
}

// IsFallback reports whether the approximation is in effect.
func (c *TiktokenCounter) IsFallback() bool {
	return c.enc == nil
}

// Encoding describes the active encoding, for diagnostics.
func (c *TiktokenCounter) Encoding() string {
	return c.encoding
}

func (c *TiktokenCounter) Model() string {
	return c.model
}
