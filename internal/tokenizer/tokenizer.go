// Package tokenizer counts model tokens for serialized conversation history.
package tokenizer

import (
	"fmt"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Encoding is the byte-pair encoding used for budget accounting. cl100k_base
// matches the GPT model family and is a close approximation for the other
// OpenAI-compatible providers the bot talks to.
const Encoding = "cl100k_base"

// Tiktoken wraps a tiktoken encoder behind the conversation.TokenCounter
// contract. Construction failure is fatal at startup; Count is pure and never
// fails on well-formed UTF-8 input.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

// New loads the cl100k_base encoding. Callers treat an error here as a
// startup failure: a bot that cannot count tokens cannot bound its history.
func New() (*Tiktoken, error) {
	enc, err := tiktoken.GetEncoding(Encoding)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: load %s encoding: %w", Encoding, err)
	}
	return &Tiktoken{enc: enc}, nil
}

// Count returns the number of tokens in text, counting special tokens as
// plain text the way the provider sees them.
func (t *Tiktoken) Count(text string) (int, error) {
	return len(t.enc.Encode(text, nil, nil)), nil
}
