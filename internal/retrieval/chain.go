package retrieval

import (
	"context"
	"log/slog"
	"time"

	"NewsNarrator/internal/domain"
	"NewsNarrator/internal/ports"
)

// Chain implements ArticleSource by asking providers in order until one returns articles.
type Chain struct {
	providers []ports.NewsProvider
	timeout   time.Duration
	logger    *slog.Logger
}

var _ ports.ArticleSource = (*Chain)(nil)

// NewChain wires providers in priority order; a non-positive timeout disables the per-call deadline.
func NewChain(providers []ports.NewsProvider, timeout time.Duration, log *slog.Logger) *Chain {
	return &Chain{
		providers: providers,
		timeout:   timeout,
		logger:    log,
	}
}

// Fetch returns the first non-empty provider result for topic.
// Provider errors are logged and count as zero articles; all-empty yields nil.
func (c *Chain) Fetch(ctx context.Context, topic string) []domain.Article {
	for i, provider := range c.providers {
		if i > 0 {
			c.info("primary returned nothing, trying fallback", "topic", topic, "provider", provider.Name())
		}
		articles := c.search(ctx, provider, topic)
		if len(articles) > 0 {
			c.debug("provider produced articles", "topic", topic, "provider", provider.Name(), "count", len(articles))
			return articles
		}
	}
	c.info("no articles for topic", "topic", topic)
	return nil
}

// FetchAll fetches each topic independently; one topic failing never affects another.
func (c *Chain) FetchAll(ctx context.Context, topics []string) []TopicResult {
	results := make([]TopicResult, 0, len(topics))
	for _, topic := range topics {
		results = append(results, TopicResult{Topic: topic, Articles: c.Fetch(ctx, topic)})
	}
	return results
}

// TopicResult pairs a topic with the articles retrieved for it.
type TopicResult struct {
	Topic    string
	Articles []domain.Article
}

func (c *Chain) search(ctx context.Context, provider ports.NewsProvider, topic string) []domain.Article {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	articles, err := provider.Search(ctx, topic)
	if err != nil {
		c.warn("provider search failed", "topic", topic, "provider", provider.Name(), "error", err)
		return nil
	}
	return articles
}

func (c *Chain) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Chain) info(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Chain) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
