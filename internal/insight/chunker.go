package insight

import (
	"fmt"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// DefaultChunkWords bounds a chunk so it fits a summarization model's input window.
const DefaultChunkWords = 512

// Chunker splits text on sentence boundaries into chunks of at most maxWords words.
type Chunker struct {
	tokenizer *sentences.DefaultSentenceTokenizer
	maxWords  int
}

// NewChunker loads the English sentence model.
func NewChunker(maxWords int) (*Chunker, error) {
	if maxWords <= 0 {
		maxWords = DefaultChunkWords
	}
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("load sentence tokenizer: %w", err)
	}
	return &Chunker{tokenizer: tokenizer, maxWords: maxWords}, nil
}

// Sentences returns the trimmed, non-empty sentences of text.
func (c *Chunker) Sentences(text string) []string {
	out := make([]string, 0)
	for _, s := range c.tokenizer.Tokenize(text) {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Chunk accumulates whole sentences while the running word count stays within the limit.
// A single sentence longer than the limit becomes its own chunk.
func (c *Chunker) Chunk(text string) []string {
	var (
		chunks  []string
		current []string
		words   int
	)
	for _, sentence := range c.Sentences(text) {
		n := len(strings.Fields(sentence))
		if words+n > c.maxWords && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current, words = nil, 0
		}
		current = append(current, sentence)
		words += n
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}
