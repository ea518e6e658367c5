// Package tokenizer counts and trims text in LLM tokens.
package tokenizer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/entrhq/scout/pkg/types"
	"github.com/pkoukk/tiktoken-go"
)

const (
	// DefaultEncoding is the BPE encoding used by current OpenAI chat models.
	DefaultEncoding = "cl100k_base"

	// messageOverhead approximates the framing tokens added per chat message.
	messageOverhead = 4

	// charsPerToken is the estimate used when no encoder is available.
	charsPerToken = 4
)

// Tokenizer counts tokens with a tiktoken encoder. A nil *Tokenizer is
// valid and falls back to a characters-per-token estimate.
type Tokenizer struct {
	encoding *tiktoken.Tiktoken
}

// New loads the default encoding.
func New() (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(DefaultEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", DefaultEncoding, err)
	}
	return &Tokenizer{encoding: enc}, nil
}

// ForModel loads the encoding registered for model, falling back to the default.
func ForModel(model string) (*Tokenizer, error) {
	if enc, err := tiktoken.EncodingForModel(model); err == nil {
		return &Tokenizer{encoding: enc}, nil
	}
	return New()
}

// CountTokens returns the number of tokens in text.
func (t *Tokenizer) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	if t == nil || t.encoding == nil {
		return estimate(text)
	}
	return len(t.encoding.Encode(text, nil, nil))
}

// CountMessagesTokens returns the token count of a whole conversation,
// including per-message framing.
func (t *Tokenizer) CountMessagesTokens(messages []*types.Message) int {
	total := 0
	for _, msg := range messages {
		total += messageOverhead + t.CountTokens(string(msg.Role)) + t.CountTokens(msg.Content)
	}
	return total
}

// Truncate cuts text to at most maxTokens tokens. It reports whether
// anything was removed. A non-positive maxTokens disables truncation.
func (t *Tokenizer) Truncate(text string, maxTokens int) (string, bool) {
	if maxTokens <= 0 || text == "" {
		return text, false
	}

	if t == nil || t.encoding == nil {
		maxChars := maxTokens * charsPerToken
		if utf8.RuneCountInString(text) <= maxChars {
			return text, false
		}
		runes := []rune(text)
		return strings.TrimSpace(string(runes[:maxChars])), true
	}

	tokens := t.encoding.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text, false
	}
	return strings.TrimSpace(t.encoding.Decode(tokens[:maxTokens])), true
}

func estimate(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + charsPerToken - 1) / charsPerToken
}
