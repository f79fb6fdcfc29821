package insight

import (
	"context"
	"log/slog"
	"strings"

	"NewsNarrator/internal/domain"
	"NewsNarrator/internal/ports"
)

// Builder turns one article body into a summary and extracted events.
type Builder struct {
	downloader ports.Downloader
	summarizer ports.Summarizer
	text       ports.TextService
	chunker    *Chunker
	logger     *slog.Logger
}

// NewBuilder wires the adapters used per article.
func NewBuilder(downloader ports.Downloader, summarizer ports.Summarizer, text ports.TextService, chunker *Chunker, log *slog.Logger) *Builder {
	return &Builder{
		downloader: downloader,
		summarizer: summarizer,
		text:       text,
		chunker:    chunker,
		logger:     log,
	}
}

// Body fetches the article page text, falling back to the provider description.
func (b *Builder) Body(ctx context.Context, article domain.Article) string {
	if b.downloader != nil {
		if body := strings.TrimSpace(b.downloader.ExtractText(ctx, article.URL)); body != "" {
			return body
		}
	}
	return strings.TrimSpace(article.BodyText)
}

// Build summarizes body chunk by chunk and extracts its events.
// Failures degrade to empty texts; the insight is always returned.
func (b *Builder) Build(ctx context.Context, article domain.Article, body string) domain.Insight {
	in := domain.Insight{
		SubjectTitle: article.Title,
		SourceURLs:   []string{article.URL},
	}
	if body == "" {
		b.warn("no body for article", "title", article.Title)
		return in
	}

	in.SummaryText = b.summarize(ctx, body)

	events, err := b.text.ExtractEvents(ctx, body)
	if err != nil {
		b.warn("extract events failed", "title", article.Title, "error", err)
	}
	in.EventsText = events
	return in
}

func (b *Builder) summarize(ctx context.Context, body string) string {
	chunks := b.chunker.Chunk(body)
	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		summary, err := b.summarizer.Summarize(ctx, chunk)
		if err != nil {
			b.warn("summarize chunk failed", "chunk", i, "error", err)
			continue
		}
		if summary = strings.TrimSpace(summary); summary != "" {
			parts = append(parts, summary)
		}
	}
	return strings.Join(parts, " ")
}

func (b *Builder) warn(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, args...)
	}
}
