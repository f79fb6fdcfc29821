package ports

import (
	"context"

	"NewsNarrator/internal/domain"
)

// Embedder turns text into a fixed-size vector for semantic comparison.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// CorpusPreparer is implemented by embedders that must see the corpus before embedding (TF-IDF).
// Prepare returns an embedder bound to that corpus and leaves the receiver untouched.
type CorpusPreparer interface {
	Prepare(queries, documents []string) (Embedder, error)
}

// NewsProvider queries a single upstream news API for one topic.
type NewsProvider interface {
	Name() string
	Search(ctx context.Context, topic string) ([]domain.Article, error)
}

// ArticleSource fetches raw candidate articles for a topic with provider fallback.
type ArticleSource interface {
	Fetch(ctx context.Context, topic string) []domain.Article
}

// DocumentStore persists category-tagged records with upsert semantics.
type DocumentStore interface {
	Write(ctx context.Context, record domain.Record) error
	ReadAll(ctx context.Context, category domain.Category) ([]domain.Record, error)
	Count(ctx context.Context, category domain.Category) (int, error)
}

// Downloader fetches an article page and returns its visible paragraph text.
type Downloader interface {
	ExtractText(ctx context.Context, url string) string
}

// Summarizer condenses one bounded chunk of text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// ChatMessage is a provider-agnostic chat turn.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatClient sends a conversation to an LLM API and returns the reply text.
type ChatClient interface {
	Complete(ctx context.Context, messages []ChatMessage, opts CompletionOptions) (string, error)
}

// CompletionOptions tunes a single completion call.
type CompletionOptions struct {
	Temperature float64
	MaxTokens   int
}

// TextService extracts keywords/events from text and composes narratives from events.
type TextService interface {
	ExtractEvents(ctx context.Context, text string) (string, error)
	ComposeStory(ctx context.Context, events []string) (string, error)
}
